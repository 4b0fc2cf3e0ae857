package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != AppEnvDev {
		t.Fatalf("expected dev default, got %q", cfg.App.Env)
	}
	if cfg.App.Port != "8080" {
		t.Fatalf("unexpected default port %q", cfg.App.Port)
	}
	if cfg.Sessions.Backend != SessionsBackendRedis {
		t.Fatalf("unexpected default backend %q", cfg.Sessions.Backend)
	}
	if cfg.Sessions.TTL != 24*time.Hour {
		t.Fatalf("unexpected default TTL %v", cfg.Sessions.TTL)
	}
	if cfg.Stripe.Environment() != "test" {
		t.Fatalf("unexpected stripe env %q", cfg.Stripe.Environment())
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ACP_APP_ENV", "prod")
	t.Setenv("ACP_SESSIONS_BACKEND", "memory")
	t.Setenv("ACP_SESSIONS_TTL", "30m")
	t.Setenv("ACP_AUTH_TOKEN", "secret-token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.App.IsProd() {
		t.Fatalf("expected prod env")
	}
	if cfg.Sessions.Backend != SessionsBackendMemory {
		t.Fatalf("unexpected backend %q", cfg.Sessions.Backend)
	}
	if cfg.Sessions.TTL != 30*time.Minute {
		t.Fatalf("unexpected TTL %v", cfg.Sessions.TTL)
	}
	if !cfg.Auth.Configured() {
		t.Fatalf("expected auth to be configured")
	}
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("ACP_SESSIONS_BACKEND", "dynamo")
	if _, err := Load(); err == nil {
		t.Fatal("expected unknown backend to return an error")
	}
}
