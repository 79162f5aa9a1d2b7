package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnv            = "dev"
	defaultDBPath         = "./dev.db"
	defaultPort           = "8080"
	defaultCatalogTimeout = 5 * time.Second
	defaultCatalogRetries = 2
	defaultLogLevel       = "info"
	defaultCurrency       = "BRL"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env            string
	DBPath         string
	Port           string
	CatalogURL     string
	CatalogTimeout time.Duration
	CatalogRetries uint64
	LogLevel       string
	Currency       string
	SeedCatalog    bool
}

// IsDev reports whether the application runs in a local environment.
func (c Config) IsDev() bool {
	return c.Env == "" || strings.EqualFold(c.Env, "dev") || strings.EqualFold(c.Env, "development")
}

// Load reads environment variables and returns a populated Config.
func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is ignored;
// variables already present in the environment win over the file.
func LoadFile(path string) (Config, error) {
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load %s: %w", path, err)
	}

	cfg := Config{
		Env:            getenv("APP_ENV", defaultEnv),
		DBPath:         getenv("DB_PATH", defaultDBPath),
		Port:           getenv("PORT", defaultPort),
		CatalogURL:     strings.TrimSpace(os.Getenv("CATALOG_URL")),
		CatalogTimeout: defaultCatalogTimeout,
		CatalogRetries: defaultCatalogRetries,
		LogLevel:       getenv("LOG_LEVEL", defaultLogLevel),
		Currency:       strings.ToUpper(getenv("CURRENCY", defaultCurrency)),
	}

	if raw := strings.TrimSpace(os.Getenv("CATALOG_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("CATALOG_TIMEOUT must be a positive duration, got %q", raw)
		}
		cfg.CatalogTimeout = d
	}

	if raw := strings.TrimSpace(os.Getenv("CATALOG_RETRIES")); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("CATALOG_RETRIES must be a non-negative integer, got %q", raw)
		}
		cfg.CatalogRetries = n
	}

	// Seeding defaults to on for local databases only.
	cfg.SeedCatalog = cfg.IsDev()
	if raw := strings.TrimSpace(os.Getenv("SEED_CATALOG")); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("SEED_CATALOG must be a boolean, got %q", raw)
		}
		cfg.SeedCatalog = b
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
