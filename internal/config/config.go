// Package config loads the pipeline configuration from a YAML file with
// environment variable overrides for deployment secrets.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/edgar-core/internal/core/domain"
)

// Ledger backends.
const (
	LedgerFile     = "file"
	LedgerPostgres = "postgres"
	LedgerRedis    = "redis"
)

type Config struct {
	Run     RunConfig     `yaml:"run"`
	Catalog CatalogConfig `yaml:"catalog"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Graph   GraphConfig   `yaml:"graph"`
	Upload  UploadConfig  `yaml:"upload"`
	Log     LogConfig     `yaml:"log"`
}

type RunConfig struct {
	Tickers    []string `yaml:"tickers"`
	FormTypes  []string `yaml:"form_types"`
	MaxFilings int      `yaml:"max_filings"`
}

type CatalogConfig struct {
	UserAgent         string `yaml:"user_agent"`
	CacheDir          string `yaml:"cache_dir"`
	RetryDelaySeconds int    `yaml:"retry_delay_seconds"`
	// MaxRetries 0 retries until cancelled.
	MaxRetries int `yaml:"max_retries"`
}

type LedgerConfig struct {
	// Backend selects the ledger store: file, postgres or redis.
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	PostgresURL string `yaml:"postgres_url"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisKey    string `yaml:"redis_key"`
}

type GraphConfig struct {
	BaseURL      string `yaml:"base_url"`
	ConnectionID string `yaml:"connection_id"`
	Token        string `yaml:"token"`
}

type UploadConfig struct {
	BatchSize         int `yaml:"batch_size"`
	MaxAttempts       int `yaml:"max_attempts"`
	RetryDelaySeconds int `yaml:"retry_delay_seconds"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads the YAML file, applies environment overrides and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overlays deployment settings that should not live in the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("EDGAR_USER_AGENT"); v != "" {
		c.Catalog.UserAgent = v
	}
	if v := os.Getenv("EDGAR_CACHE_DIR"); v != "" {
		c.Catalog.CacheDir = v
	}
	if v := os.Getenv("EDGAR_LEDGER_PATH"); v != "" {
		c.Ledger.Path = v
	}
	if v := os.Getenv("EDGAR_POSTGRES_URL"); v != "" {
		c.Ledger.PostgresURL = v
	}
	if v := os.Getenv("EDGAR_REDIS_ADDR"); v != "" {
		c.Ledger.RedisAddr = v
	}
	if v := os.Getenv("EDGAR_GRAPH_TOKEN"); v != "" {
		c.Graph.Token = v
	}
	if v := os.Getenv("EDGAR_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Upload.BatchSize = n
		}
	}
	if v := os.Getenv("EDGAR_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) applyDefaults() {
	if c.Catalog.CacheDir == "" {
		c.Catalog.CacheDir = "cache"
	}
	if c.Catalog.RetryDelaySeconds == 0 {
		c.Catalog.RetryDelaySeconds = 2
	}
	if c.Ledger.Backend == "" {
		c.Ledger.Backend = LedgerFile
	}
	if c.Ledger.Path == "" {
		c.Ledger.Path = "processed.log"
	}
	if c.Upload.BatchSize == 0 {
		c.Upload.BatchSize = 20
	}
	if c.Upload.MaxAttempts == 0 {
		c.Upload.MaxAttempts = 3
	}
	if c.Upload.RetryDelaySeconds == 0 {
		c.Upload.RetryDelaySeconds = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) validate() error {
	if c.Catalog.UserAgent == "" {
		return fmt.Errorf("catalog.user_agent is required: %w", domain.ErrInvalidInput)
	}
	switch c.Ledger.Backend {
	case LedgerFile, LedgerPostgres, LedgerRedis:
	default:
		return fmt.Errorf("ledger.backend %q is not one of file, postgres, redis: %w",
			c.Ledger.Backend, domain.ErrInvalidInput)
	}
	if c.Ledger.Backend == LedgerPostgres && c.Ledger.PostgresURL == "" {
		return fmt.Errorf("ledger.postgres_url is required for the postgres backend: %w", domain.ErrInvalidInput)
	}
	if c.Ledger.Backend == LedgerRedis && c.Ledger.RedisAddr == "" {
		return fmt.Errorf("ledger.redis_addr is required for the redis backend: %w", domain.ErrInvalidInput)
	}
	if c.Upload.BatchSize < 1 {
		return fmt.Errorf("upload.batch_size must be positive: %w", domain.ErrInvalidInput)
	}
	return nil
}

// CatalogRetryDelay returns the catalog retry delay as a duration.
func (c *Config) CatalogRetryDelay() time.Duration {
	return time.Duration(c.Catalog.RetryDelaySeconds) * time.Second
}

// UploadRetryDelay returns the upload retry delay as a duration.
func (c *Config) UploadRetryDelay() time.Duration {
	return time.Duration(c.Upload.RetryDelaySeconds) * time.Second
}
