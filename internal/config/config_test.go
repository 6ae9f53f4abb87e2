package config

import (
	"testing"
	"time"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("AUTHORIZATION", "sandbox_tmxhyf7d_dcpspy2brwdjr3qn")
	t.Setenv("BASE_URL", "https://payments.sandbox.braintree-api.com/graphql")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "5")
	t.Setenv("PROBE_INTERVAL", "60")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Authorization != "sandbox_tmxhyf7d_dcpspy2brwdjr3qn" {
		t.Fatalf("Authorization = %q", cfg.Authorization)
	}
	if cfg.BaseURL != "https://payments.sandbox.braintree-api.com/graphql" {
		t.Fatalf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.RequestTimeout != 5*time.Second || cfg.ProbeInterval != time.Minute {
		t.Fatalf("timeout=%v interval=%v", cfg.RequestTimeout, cfg.ProbeInterval)
	}
	if cfg.RequestPath != "/" || cfg.StorageType != "none" {
		t.Fatalf("unexpected defaults path=%q storage=%q", cfg.RequestPath, cfg.StorageType)
	}
}

func TestLoadRequiresAuthorization(t *testing.T) {
	t.Setenv("AUTHORIZATION", " ")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without authorization")
	}
}

func TestNormalizeRejectsNegativeTimeout(t *testing.T) {
	cfg := Config{
		Authorization:         "k",
		RequestTimeoutSeconds: -1,
		StorageTTLSeconds:     1,
		StorageCleanupSeconds: 1,
	}
	if err := cfg.normalize(); err == nil {
		t.Fatal("expected error for negative timeout")
	}
}
