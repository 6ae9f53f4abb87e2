// Package endpoints loads the GraphQL endpoints a probe pass targets.
package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/samvad-hq/braintree-graphql-client/pkg/graphql"
	"gopkg.in/yaml.v3"
)

const (
	ProductionID = "production"
	SandboxID    = "sandbox"

	defaultPath = "/"
)

// Endpoint is a named GraphQL endpoint plus the relative path requested on it.
type Endpoint struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	BaseURL string `json:"base_url" yaml:"base_url"`
	Path    string `json:"path" yaml:"path"`
	Enabled *bool  `json:"enabled" yaml:"enabled"`
}

// URL joins the base URL and path the same way the client does.
func (e Endpoint) URL() string { return e.BaseURL + e.Path }

// EnabledValue returns enabled flag defaulting to true.
func (e Endpoint) EnabledValue() bool {
	if e.Enabled == nil {
		return true
	}
	return *e.Enabled
}

// Production is the built-in production endpoint.
func Production() Endpoint {
	return sanitizeEndpoint(Endpoint{ID: ProductionID, Name: "Braintree production", BaseURL: graphql.ProductionURL})
}

// Sandbox is the built-in sandbox endpoint.
func Sandbox() Endpoint {
	return sanitizeEndpoint(Endpoint{ID: SandboxID, Name: "Braintree sandbox", BaseURL: graphql.SandboxURL})
}

type configFile struct {
	Endpoints []Endpoint `json:"endpoints" yaml:"endpoints"`
}

// Registry holds validated endpoints in file order.
type Registry struct {
	mu        sync.RWMutex
	endpoints []Endpoint
	idx       map[string]Endpoint
}

// NewRegistry validates eps and builds a registry from them.
func NewRegistry(eps ...Endpoint) (*Registry, error) {
	reg := &Registry{
		endpoints: make([]Endpoint, 0, len(eps)),
		idx:       make(map[string]Endpoint, len(eps)),
	}
	for i := range eps {
		ep := sanitizeEndpoint(eps[i])
		if err := validateEndpoint(ep); err != nil {
			return nil, fmt.Errorf("endpoints[%d]: %w", i, err)
		}
		if _, exists := reg.idx[ep.ID]; exists {
			return nil, fmt.Errorf("duplicate endpoint id %q", ep.ID)
		}
		reg.endpoints = append(reg.endpoints, ep)
		reg.idx[ep.ID] = ep
	}
	return reg, nil
}

// DefaultRegistry contains the production and sandbox endpoints.
func DefaultRegistry() *Registry {
	reg, _ := NewRegistry(Production(), Sandbox())
	return reg
}

// LoadRegistry loads endpoints from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("endpoints file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open endpoints file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read endpoints file: %w", err)
	}

	cfg, err := parseEndpointsFile(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(cfg.Endpoints) == 0 {
		return nil, errors.New("endpoints file contains no endpoints entries")
	}
	return NewRegistry(cfg.Endpoints...)
}

func parseEndpointsFile(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var cfg configFile
		if err := d.fn(data, &cfg); err == nil {
			return cfg, nil
		}
	}

	return configFile{}, errors.New("endpoints file format not recognized (expected YAML or JSON)")
}

func sanitizeEndpoint(e Endpoint) Endpoint {
	e.ID = strings.TrimSpace(e.ID)
	e.Name = strings.TrimSpace(e.Name)
	e.BaseURL = strings.TrimRight(strings.TrimSpace(e.BaseURL), "/")
	e.Path = strings.TrimSpace(e.Path)
	if e.Path == "" {
		e.Path = defaultPath
	}
	if !strings.HasPrefix(e.Path, "/") {
		e.Path = "/" + e.Path
	}
	if e.Name == "" {
		e.Name = e.ID
	}
	if e.Enabled == nil {
		def := true
		e.Enabled = &def
	}
	return e
}

func validateEndpoint(e Endpoint) error {
	if e.ID == "" {
		return errors.New("id is required")
	}
	if e.BaseURL == "" {
		return fmt.Errorf("base_url is required for endpoint %q", e.ID)
	}
	u, err := url.Parse(e.BaseURL)
	if err != nil {
		return fmt.Errorf("parse base_url for endpoint %q: %w", e.ID, err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("base_url for endpoint %q must be an absolute http(s) url", e.ID)
	}
	return nil
}

// ByID returns the endpoint with the given id.
func (r *Registry) ByID(id string) (Endpoint, bool) {
	if r == nil {
		return Endpoint{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Endpoint{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	ep, ok := r.idx[id]
	return ep, ok
}

// All returns a copy of every configured endpoint.
func (r *Registry) All() []Endpoint {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Endpoint, len(r.endpoints))
	copy(out, r.endpoints)
	return out
}

// Enabled returns endpoints that are enabled.
func (r *Registry) Enabled() []Endpoint {
	all := r.All()
	if len(all) == 0 {
		return nil
	}

	out := make([]Endpoint, 0, len(all))
	for _, ep := range all {
		if ep.EnabledValue() {
			out = append(out, ep)
		}
	}
	return out
}
