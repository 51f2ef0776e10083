package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()
	if config.Fetch.Country != "US" {
		t.Errorf("expected default country US, got %s", config.Fetch.Country)
	}
	if config.Fetch.MaxWorkers != 8 {
		t.Errorf("expected default max workers 8, got %d", config.Fetch.MaxWorkers)
	}
	if config.Fetch.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %s", config.Fetch.Timeout)
	}
	if config.Fetch.Concurrent {
		t.Error("expected sequential fan-out by default")
	}
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "finfetch.toml")
	content := `
tickers = ["AAPL", "MSFT"]

[fetch]
country = "AU"
concurrent = true
max_workers = 4
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadFromFiles(path)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}
	if config.Fetch.Country != "AU" {
		t.Errorf("expected country AU, got %s", config.Fetch.Country)
	}
	if !config.Fetch.Concurrent {
		t.Error("expected concurrent fan-out")
	}
	if config.Fetch.MaxWorkers != 4 {
		t.Errorf("expected 4 workers, got %d", config.Fetch.MaxWorkers)
	}
	if config.Fetch.Timeout != 30*time.Second {
		t.Errorf("expected default timeout to survive partial override, got %s", config.Fetch.Timeout)
	}
	if len(config.Tickers) != 2 {
		t.Errorf("expected 2 tickers, got %d", len(config.Tickers))
	}
}

func TestLoadFromFilesEnvOverride(t *testing.T) {
	t.Setenv("FINFETCH_COUNTRY", "GB")
	t.Setenv("FINFETCH_MAX_WORKERS", "2")

	config, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}
	if config.Fetch.Country != "GB" {
		t.Errorf("expected env override GB, got %s", config.Fetch.Country)
	}
	if config.Fetch.MaxWorkers != 2 {
		t.Errorf("expected env override 2 workers, got %d", config.Fetch.MaxWorkers)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	config := NewDefaultConfig()
	config.Fetch.MaxWorkers = 0
	if err := config.Validate(); err == nil {
		t.Error("expected validation error for zero workers")
	}
}
