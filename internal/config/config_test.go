package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/custodia-labs/edgar-core/internal/core/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validConfig = `
run:
  tickers: [AAPL, MSFT]
  form_types: [10-K, 10-Q]
catalog:
  user_agent: "edgar-core test test@custodia.dev"
  cache_dir: /tmp/edgar-cache
  max_retries: 5
ledger:
  backend: file
  path: /tmp/processed.log
graph:
  base_url: https://graph.microsoft.com/v1.0
  connection_id: filings
  token: secret
upload:
  batch_size: 10
`

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.Run.Tickers) != 2 || cfg.Run.Tickers[0] != "AAPL" {
		t.Errorf("tickers = %v", cfg.Run.Tickers)
	}
	if cfg.Catalog.MaxRetries != 5 {
		t.Errorf("max_retries = %d", cfg.Catalog.MaxRetries)
	}
	if cfg.Upload.BatchSize != 10 {
		t.Errorf("batch_size = %d", cfg.Upload.BatchSize)
	}
	// Unset fields take defaults.
	if cfg.Upload.MaxAttempts != 3 || cfg.Log.Level != "info" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.CatalogRetryDelay() != 2*time.Second {
		t.Errorf("CatalogRetryDelay = %v", cfg.CatalogRetryDelay())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EDGAR_USER_AGENT", "override agent")
	t.Setenv("EDGAR_GRAPH_TOKEN", "env-token")
	t.Setenv("EDGAR_BATCH_SIZE", "7")

	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Catalog.UserAgent != "override agent" {
		t.Errorf("user agent = %q", cfg.Catalog.UserAgent)
	}
	if cfg.Graph.Token != "env-token" {
		t.Errorf("token = %q", cfg.Graph.Token)
	}
	if cfg.Upload.BatchSize != 7 {
		t.Errorf("batch size = %d", cfg.Upload.BatchSize)
	}
}

func TestLoad_RequiresUserAgent(t *testing.T) {
	_, err := Load(writeConfig(t, "run:\n  tickers: [AAPL]\n"))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestLoad_ValidatesBackend(t *testing.T) {
	body := `
catalog:
  user_agent: ua
ledger:
  backend: cassandra
`
	if _, err := Load(writeConfig(t, body)); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}

	// Backend-specific settings are mandatory.
	body = `
catalog:
  user_agent: ua
ledger:
  backend: postgres
`
	if _, err := Load(writeConfig(t, body)); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("postgres without url: want ErrInvalidInput, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("want error for missing file")
	}
}
