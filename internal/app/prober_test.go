package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/braintree-graphql-client/internal/config"
	"github.com/samvad-hq/braintree-graphql-client/internal/domain"
	"github.com/samvad-hq/braintree-graphql-client/pkg/authorization"
	"github.com/samvad-hq/braintree-graphql-client/pkg/endpoints"
	"github.com/samvad-hq/braintree-graphql-client/pkg/graphql"
	"github.com/samvad-hq/braintree-graphql-client/pkg/reporters"
)

const testTokenizationKey = "sandbox_tmxhyf7d_dcpspy2brwdjr3qn"

// fakeStore records outcomes in memory.
type fakeStore struct {
	mu       sync.Mutex
	outcomes []domain.Outcome
	err      error
	closed   bool
}

func (f *fakeStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeStore) Record(o domain.Outcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.outcomes = append(f.outcomes, o)
	return nil
}

func (f *fakeStore) Recent(limit int) ([]domain.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.outcomes) {
		limit = len(f.outcomes)
	}
	return append([]domain.Outcome(nil), f.outcomes[:limit]...), nil
}

// fakeReporter captures reported events.
type fakeReporter struct {
	mu     sync.Mutex
	events []reporters.Event
}

func (f *fakeReporter) ID() string   { return "fake" }
func (f *fakeReporter) Type() string { return "memory" }
func (f *fakeReporter) Report(_ context.Context, evt reporters.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return nil
}

func testAuth(t *testing.T) authorization.Authorization {
	t.Helper()
	auth, err := authorization.FromString(testTokenizationKey)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	return auth
}

func TestProbeOnceClassifiesOutcomes(t *testing.T) {
	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(graphql.HeaderBraintreeVersion) != graphql.APIVersion {
			t.Errorf("missing Braintree-Version header")
		}
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer okSrv.Close()
	errSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer errSrv.Close()
	tlsSrv := httptest.NewTLSServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer tlsSrv.Close()

	eps := []endpoints.Endpoint{
		{ID: "ok", BaseURL: okSrv.URL, Path: "/graphql"},
		{ID: "unavailable", BaseURL: errSrv.URL, Path: "/"},
		{ID: "untrusted", BaseURL: tlsSrv.URL, Path: "/"},
	}
	store := &fakeStore{}
	rep := &fakeReporter{}

	p, err := newProber(testAuth(t), eps, store, reporters.NewFanout([]reporters.Reporter{rep}), nil)
	if err != nil {
		t.Fatalf("newProber: %v", err)
	}

	outcomes, err := p.ProbeOnce(context.Background())
	if err != nil {
		t.Fatalf("ProbeOnce: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}

	ok, unavailable, untrusted := outcomes[0], outcomes[1], outcomes[2]
	if !ok.Success || ok.Body != `{"data":{}}` || ok.URL != okSrv.URL+"/graphql" {
		t.Fatalf("unexpected ok outcome %#v", ok)
	}
	if unavailable.Success || unavailable.StatusCode != http.StatusServiceUnavailable || unavailable.TrustFailure {
		t.Fatalf("unexpected unavailable outcome %#v", unavailable)
	}
	if untrusted.Success || !untrusted.TrustFailure {
		t.Fatalf("expected trust failure, got %#v", untrusted)
	}

	if len(store.outcomes) != 3 {
		t.Fatalf("expected 3 recorded outcomes, got %d", len(store.outcomes))
	}
	if len(rep.events) != 3 || rep.events[2].EndpointID != "untrusted" {
		t.Fatalf("unexpected reported events %#v", rep.events)
	}
}

func TestProbeOnceJoinsStoreErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	defer srv.Close()

	store := &fakeStore{err: errors.New("disk full")}
	p, err := newProber(testAuth(t), []endpoints.Endpoint{{ID: "a", BaseURL: srv.URL, Path: "/"}}, store, nil, nil)
	if err != nil {
		t.Fatalf("newProber: %v", err)
	}

	outcomes, err := p.ProbeOnce(context.Background())
	if err == nil {
		t.Fatal("expected store error")
	}
	if len(outcomes) != 1 || !outcomes[0].Success {
		t.Fatalf("unexpected outcomes %#v", outcomes)
	}
}

func TestRunSinglePassClosesStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	defer srv.Close()

	store := &fakeStore{}
	p, err := newProber(testAuth(t), []endpoints.Endpoint{{ID: "a", BaseURL: srv.URL, Path: "/"}}, store, nil, nil)
	if err != nil {
		t.Fatalf("newProber: %v", err)
	}

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !store.closed || len(store.outcomes) != 1 {
		t.Fatalf("closed=%v outcomes=%d", store.closed, len(store.outcomes))
	}
}

func TestRunLoopsUntilCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	defer srv.Close()

	store := &fakeStore{}
	p, err := newProber(testAuth(t), []endpoints.Endpoint{{ID: "a", BaseURL: srv.URL, Path: "/"}}, store, nil, nil)
	if err != nil {
		t.Fatalf("newProber: %v", err)
	}
	p.interval = 20 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 110*time.Millisecond)
	defer cancel()
	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	recent, _ := store.Recent(100)
	if len(recent) < 2 {
		t.Fatalf("expected several passes, got %d outcomes", len(recent))
	}
}

func TestNewProberRequiresEndpoints(t *testing.T) {
	if _, err := newProber(testAuth(t), nil, nil, nil, nil); err == nil {
		t.Fatal("expected error without endpoints")
	}
}

func TestNewProberFromConfig(t *testing.T) {
	cfg := &config.Config{
		Authorization: testTokenizationKey,
		BaseURL:       "https://payments.sandbox.braintree-api.com/graphql",
		RequestPath:   "/",
		StorageType:   "none",
	}
	p, err := NewProber(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewProber: %v", err)
	}
	if len(p.targets) != 1 || p.targets[0].client.BaseURL() != cfg.BaseURL {
		t.Fatalf("unexpected targets %#v", p.targets)
	}
}

func TestNewProberDefaultsToBuiltInEndpoints(t *testing.T) {
	cfg := &config.Config{
		Authorization: testTokenizationKey,
		RequestPath:   "health",
		StorageType:   "none",
	}
	p, err := NewProber(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewProber: %v", err)
	}
	if len(p.targets) != 2 {
		t.Fatalf("expected production and sandbox targets, got %d", len(p.targets))
	}

	want := map[string]string{
		endpoints.ProductionID: graphql.ProductionURL,
		endpoints.SandboxID:    graphql.SandboxURL,
	}
	for _, tg := range p.targets {
		base, ok := want[tg.endpoint.ID]
		if !ok {
			t.Fatalf("unexpected endpoint %q", tg.endpoint.ID)
		}
		if tg.client.BaseURL() != base || tg.endpoint.Path != "/health" {
			t.Fatalf("endpoint %s: base=%q path=%q", tg.endpoint.ID, tg.client.BaseURL(), tg.endpoint.Path)
		}
		delete(want, tg.endpoint.ID)
	}
}

func TestNewProberRejectsBadAuthorization(t *testing.T) {
	cfg := &config.Config{Authorization: "not a token!", StorageType: "none"}
	if _, err := NewProber(context.Background(), cfg, nil); !errors.Is(err, authorization.ErrInvalidAuthorization) {
		t.Fatalf("expected ErrInvalidAuthorization, got %v", err)
	}
}

func TestIsTrustFailure(t *testing.T) {
	if IsTrustFailure(nil) || IsTrustFailure(errors.New("dial tcp: refused")) {
		t.Fatal("plain errors are not trust failures")
	}
	if IsTrustFailure(&graphql.StatusError{StatusCode: 500}) {
		t.Fatal("status errors are not trust failures")
	}
}
