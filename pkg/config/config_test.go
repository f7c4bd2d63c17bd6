package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "dev" {
		t.Fatalf("expected App.Env to be dev, got %q", cfg.App.Env)
	}
	if cfg.Order.Amount != 330 {
		t.Fatalf("expected default amount 330, got %d", cfg.Order.Amount)
	}
	if cfg.DB.Driver != StoreDriverMemory {
		t.Fatalf("expected memory store by default, got %q", cfg.DB.Driver)
	}
	if cfg.Payments.Provider != "mock" {
		t.Fatalf("expected mock provider by default, got %q", cfg.Payments.Provider)
	}
	if cfg.Reports.Storage != ReportsStorageOnDemand {
		t.Fatalf("expected ondemand reports, got %q", cfg.Reports.Storage)
	}
	if got := cfg.OpenAI.Timeout; got != 45*time.Second {
		t.Fatalf("expected openai timeout 45s, got %v", got)
	}
	if cfg.OpenAI.Enabled() {
		t.Fatalf("openai should be disabled without a key")
	}
	if cfg.Redis.Enabled() {
		t.Fatalf("redis should be disabled without a url")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RejectsIncompleteSelections(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "sqlite without dsn", env: map[string]string{EnvStoreDriver: "sqlite"}},
		{name: "unknown store", env: map[string]string{EnvStoreDriver: "mongo"}},
		{name: "smtp without host", env: map[string]string{EnvMailTransport: "smtp"}},
		{name: "sendgrid without key", env: map[string]string{EnvMailTransport: "sendgrid"}},
		{name: "stripe without secrets", env: map[string]string{EnvPaymentProvider: "stripe"}},
		{name: "unknown reports storage", env: map[string]string{EnvReportsStorage: "s3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setMinimalEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s", tt.name)
			}
		})
	}
}

func TestLoad_DurableStore(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStoreDriver, "sqlite")
	t.Setenv(EnvDBDSN, "file:orders.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.DB.Durable() {
		t.Fatalf("sqlite store should be durable")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "dev")
	t.Setenv(EnvPort, "8081")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
}

func TestAbsoluteURL(t *testing.T) {
	app := AppConfig{BaseURL: "https://fortune.example.com/"}
	if got := app.AbsoluteURL("/reports/ord_1.pdf"); got != "https://fortune.example.com/reports/ord_1.pdf" {
		t.Fatalf("unexpected url %q", got)
	}
	if got := app.AbsoluteURL("api/v1/reports/ord_1"); got != "https://fortune.example.com/api/v1/reports/ord_1" {
		t.Fatalf("unexpected url %q", got)
	}
	if got := app.AbsoluteURL("https://cdn.example.com/x.pdf"); got != "https://cdn.example.com/x.pdf" {
		t.Fatalf("absolute urls should pass through, got %q", got)
	}
}
