package app

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/braintree-graphql-client/internal/config"
	"github.com/samvad-hq/braintree-graphql-client/internal/domain"
	"github.com/samvad-hq/braintree-graphql-client/internal/logger"
	"github.com/samvad-hq/braintree-graphql-client/internal/storage"
	"github.com/samvad-hq/braintree-graphql-client/pkg/authorization"
	"github.com/samvad-hq/braintree-graphql-client/pkg/endpoints"
	"github.com/samvad-hq/braintree-graphql-client/pkg/graphql"
	"github.com/samvad-hq/braintree-graphql-client/pkg/httpclient"
	"github.com/samvad-hq/braintree-graphql-client/pkg/reporters"
)

const maxBodySnippet = 512

// Prober issues one authenticated GET per enabled endpoint, journals the
// outcomes and reports them downstream.
type Prober struct {
	targets  []target
	store    storage.Store
	fanout   *reporters.Fanout
	interval time.Duration
	log      logger.Logger
	now      func() time.Time
}

type target struct {
	endpoint endpoints.Endpoint
	client   *graphql.Client
}

// NewProber builds a prober runtime from config.
func NewProber(ctx context.Context, cfg *config.Config, log logger.Logger) (*Prober, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	auth, err := authorization.FromString(cfg.Authorization)
	if err != nil {
		return nil, fmt.Errorf("parse authorization: %w", err)
	}

	endpointReg, err := loadEndpoints(cfg)
	if err != nil {
		return nil, err
	}
	enabled := endpointReg.Enabled()
	endpointIDs := make([]string, 0, len(enabled))
	for _, ep := range enabled {
		endpointIDs = append(endpointIDs, ep.ID)
	}
	log.InfoObj("endpoints registry loaded", "endpoints_meta", map[string]any{
		"count": len(endpointIDs),
		"ids":   endpointIDs,
	})

	fanout, err := buildReporters(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	storeOpts := storage.Options{
		OutcomeTTL:      cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"outcome_ttl_seconds":      int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	p, err := newProber(auth, enabled, store, fanout, log, graphql.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		store.Close()
		return nil, err
	}
	p.interval = cfg.ProbeInterval
	return p, nil
}

func newProber(auth authorization.Authorization, eps []endpoints.Endpoint, store storage.Store, fanout *reporters.Fanout, log logger.Logger, opts ...graphql.Option) (*Prober, error) {
	if len(eps) == 0 {
		return nil, fmt.Errorf("no endpoints enabled")
	}
	if store == nil {
		store, _ = storage.NewStore("none", "", storage.Options{})
	}
	if log == nil {
		log = &logger.NopLogger{}
	}

	targets := make([]target, 0, len(eps))
	for _, ep := range eps {
		clientOpts := append([]graphql.Option{graphql.WithBaseURL(ep.BaseURL), graphql.WithLogger(log)}, opts...)
		client, err := graphql.NewClient(auth, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("build client for endpoint %s: %w", ep.ID, err)
		}
		targets = append(targets, target{endpoint: ep, client: client})
	}

	return &Prober{
		targets: targets,
		store:   store,
		fanout:  fanout,
		log:     log,
		now:     time.Now,
	}, nil
}

func loadEndpoints(cfg *config.Config) (*endpoints.Registry, error) {
	switch {
	case strings.TrimSpace(cfg.EndpointsFile) != "":
		reg, err := endpoints.LoadRegistry(cfg.EndpointsFile)
		if err != nil {
			return nil, fmt.Errorf("load endpoints registry: %w", err)
		}
		return reg, nil
	case cfg.BaseURL != "":
		reg, err := endpoints.NewRegistry(endpoints.Endpoint{ID: "custom", BaseURL: cfg.BaseURL, Path: cfg.RequestPath})
		if err != nil {
			return nil, fmt.Errorf("build endpoint from base_url: %w", err)
		}
		return reg, nil
	default:
		eps := endpoints.DefaultRegistry().All()
		for i := range eps {
			eps[i].Path = cfg.RequestPath
		}
		reg, err := endpoints.NewRegistry(eps...)
		if err != nil {
			return nil, fmt.Errorf("build default endpoint: %w", err)
		}
		return reg, nil
	}
}

func buildReporters(ctx context.Context, cfg *config.Config, log logger.Logger) (*reporters.Fanout, error) {
	if strings.TrimSpace(cfg.ReportersFile) == "" {
		return reporters.NewFanout(nil), nil
	}

	reg, err := reporters.LoadRegistry(cfg.ReportersFile)
	if err != nil {
		return nil, fmt.Errorf("load reporters registry: %w", err)
	}
	enabled := reg.Enabled()
	reps, err := reporters.BuildAll(ctx, reporters.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build reporters: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, rc := range enabled {
		summaries = append(summaries, map[string]string{"id": rc.ID, "type": rc.Type})
	}
	log.InfoObj("reporters registry loaded", "reporters_meta", map[string]any{
		"count":     len(summaries),
		"reporters": summaries,
	})
	return reporters.NewFanout(reps), nil
}

// Run probes once, then again on every interval tick until ctx is cancelled.
// A zero interval runs a single pass.
func (p *Prober) Run(ctx context.Context) error {
	if p == nil || len(p.targets) == 0 {
		return fmt.Errorf("prober is not initialized")
	}
	defer p.closeStore()

	if _, err := p.ProbeOnce(ctx); err != nil {
		p.log.ErrorObj("initial probe failed", "error", err)
		if p.interval <= 0 {
			return err
		}
	}
	if p.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.InfoObj("probe loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if _, err := p.ProbeOnce(ctx); err != nil {
				p.log.ErrorObj("scheduled probe failed", "error", err)
			}
		}
	}
}

type probeResult struct {
	idx     int
	outcome domain.Outcome
}

// ProbeOnce issues every request concurrently and waits for each callback.
// Outcomes are returned in endpoint order. The error only covers journaling
// and reporting; failed requests are reported as unsuccessful outcomes.
func (p *Prober) ProbeOnce(ctx context.Context) ([]domain.Outcome, error) {
	start := p.now()
	results := make(chan probeResult, len(p.targets))

	for i, t := range p.targets {
		issued := p.now()
		t.client.Get(ctx, t.endpoint.Path, graphql.CallbackFuncs{
			OnSuccess: func(body string) {
				results <- probeResult{idx: i, outcome: p.outcome(t.endpoint, issued, body, nil)}
			},
			OnFailure: func(err error) {
				results <- probeResult{idx: i, outcome: p.outcome(t.endpoint, issued, "", err)}
			},
		})
	}

	outcomes := make([]domain.Outcome, len(p.targets))
	for range p.targets {
		res := <-results
		outcomes[res.idx] = res.outcome
	}

	var errs []error
	succeeded := 0
	for _, outcome := range outcomes {
		if outcome.Success {
			succeeded++
		}
		p.logOutcome(outcome)
		if err := p.store.Record(outcome); err != nil {
			errs = append(errs, fmt.Errorf("record outcome %s: %w", outcome.EndpointID, err))
		}
		if _, err := p.fanout.Report(ctx, reporters.NewEvent(outcome)); err != nil {
			errs = append(errs, fmt.Errorf("report outcome %s: %w", outcome.EndpointID, err))
		}
	}

	p.log.InfoObj("probe pass completed", "probe_meta", map[string]any{
		"endpoints_count": len(outcomes),
		"succeeded":       succeeded,
		"elapsed_ms":      time.Since(start).Milliseconds(),
	})
	return outcomes, errors.Join(errs...)
}

func (p *Prober) outcome(ep endpoints.Endpoint, issued time.Time, body string, err error) domain.Outcome {
	o := domain.Outcome{
		ID:         uuid.NewString(),
		EndpointID: ep.ID,
		URL:        ep.URL(),
		Success:    err == nil,
		DurationMs: p.now().Sub(issued).Milliseconds(),
		At:         issued.UTC(),
	}
	if err == nil {
		o.Body = httpclient.Snippet(body, maxBodySnippet)
		return o
	}

	o.Error = err.Error()
	o.TrustFailure = IsTrustFailure(err)
	var statusErr *graphql.StatusError
	if errors.As(err, &statusErr) {
		o.StatusCode = statusErr.StatusCode
		o.Body = httpclient.Snippet(statusErr.Body, maxBodySnippet)
	}
	return o
}

func (p *Prober) logOutcome(o domain.Outcome) {
	fields := map[string]any{
		"endpoint_id": o.EndpointID,
		"url":         o.URL,
		"duration_ms": o.DurationMs,
	}
	switch {
	case o.Success:
		p.log.InfoObj("probe succeeded", "probe_outcome", fields)
	case o.TrustFailure:
		fields["error"] = o.Error
		p.log.ErrorObj("probe rejected certificate", "probe_outcome", fields)
	default:
		fields["error"] = o.Error
		fields["status_code"] = o.StatusCode
		p.log.WarnObj("probe failed", "probe_outcome", fields)
	}
}

// IsTrustFailure reports whether err came from certificate verification.
func IsTrustFailure(err error) bool {
	if err == nil {
		return false
	}
	var (
		verifyErr    *tls.CertificateVerificationError
		authorityErr x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidErr   x509.CertificateInvalidError
	)
	return errors.As(err, &verifyErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr)
}

// closeStore safely closes the storage backend, logging any errors encountered.
func (p *Prober) closeStore() {
	if p == nil || p.store == nil {
		return
	}
	if err := p.store.Close(); err != nil {
		p.log.ErrorObj("storage close failed", "error", err)
	}
}
