package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var configKeys = []string{
	"APP_ENV", "DB_PATH", "PORT", "CATALOG_URL", "CATALOG_TIMEOUT",
	"CATALOG_RETRIES", "LOG_LEVEL", "CURRENCY", "SEED_CATALOG",
}

// clearEnv unsets every config key for the duration of the test so values
// loaded from a dotenv file are not shadowed.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		prev, had := os.LookupEnv(key)
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unset %s: %v", key, err)
		}
		t.Cleanup(func() {
			if had {
				os.Setenv(key, prev)
			} else {
				os.Unsetenv(key)
			}
		})
	}
}

func TestLoadFile_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.DBPath != defaultDBPath || cfg.Port != defaultPort {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.CatalogTimeout != defaultCatalogTimeout || cfg.CatalogRetries != defaultCatalogRetries {
		t.Fatalf("unexpected catalog defaults: %+v", cfg)
	}
	if cfg.Currency != "BRL" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.IsDev() || !cfg.SeedCatalog {
		t.Fatalf("expected dev with seeding by default: %+v", cfg)
	}
}

func TestLoadFile_ReadsDotEnvWithoutOverridingEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")

	path := filepath.Join(t.TempDir(), ".env")
	content := []byte(`
# catalog service
APP_ENV=production
PORT=7070
CATALOG_URL="http://catalog.internal:8081"
export CATALOG_TIMEOUT=2s
CATALOG_RETRIES=4
CURRENCY=usd
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Port != "9090" {
		t.Fatalf("Port=%q, want environment value 9090", cfg.Port)
	}
	if cfg.CatalogURL != "http://catalog.internal:8081" {
		t.Fatalf("CatalogURL=%q", cfg.CatalogURL)
	}
	if cfg.CatalogTimeout != 2*time.Second || cfg.CatalogRetries != 4 {
		t.Fatalf("unexpected catalog settings: %+v", cfg)
	}
	if cfg.Currency != "USD" {
		t.Fatalf("Currency=%q, want USD", cfg.Currency)
	}
	if cfg.IsDev() || cfg.SeedCatalog {
		t.Fatalf("production must not seed by default: %+v", cfg)
	}
}

func TestLoadFile_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"CATALOG_TIMEOUT", "soon"},
		{"CATALOG_TIMEOUT", "-1s"},
		{"CATALOG_RETRIES", "-2"},
		{"SEED_CATALOG", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.env")); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
