package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/LunaGrandjean/LVMH-project/pkg/retry"
)

// FileName is the optional YAML config file read from the working directory.
const FileName = "config.yaml"

// Config holds all configuration for the supplier risk engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8501"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	Data       DataConfig       `yaml:"data"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
}

// DataConfig locates the supplier table, the activity log and exported reports.
type DataConfig struct {
	SupplierTablePath string `yaml:"supplier_table" env:"SUPPLIER_TABLE_PATH" env-default:"data/suppliers.csv"`
	ActivityLogPath   string `yaml:"activity_log" env:"ACTIVITY_LOG_PATH" env-default:"data/data_log.jsonl"`
	ExportDir         string `yaml:"export_dir" env:"EXPORT_DIR" env-default:"exports"`
}

// EnrichmentConfig configures the location intelligence provider.
// Enrichment is disabled when neither an API key nor a base URL is set.
type EnrichmentConfig struct {
	// Provider is "openai" (any OpenAI-compatible endpoint) or "anthropic".
	Provider       string  `yaml:"provider" env:"ENRICHMENT_PROVIDER" env-default:"openai"`
	BaseURL        string  `yaml:"base_url" env:"ENRICHMENT_BASE_URL" env-default:""`
	Model          string  `yaml:"model" env:"ENRICHMENT_MODEL" env-default:"gpt-4o-mini"`
	APIKey         string  `yaml:"-" env:"ENRICHMENT_API_KEY"` // Secret - not in YAML
	TimeoutSeconds int     `yaml:"timeout_seconds" env:"ENRICHMENT_TIMEOUT_SECONDS" env-default:"30"`
	Temperature    float64 `yaml:"temperature" env:"ENRICHMENT_TEMPERATURE" env-default:"0.2"`
	// RatePerSecond caps outbound calls; 0 means unlimited.
	RatePerSecond float64 `yaml:"rate_per_second" env:"ENRICHMENT_RATE_PER_SECOND" env-default:"2"`
	// Concurrency bounds parallel prefetch across distinct locations.
	Concurrency int `yaml:"concurrency" env:"ENRICHMENT_CONCURRENCY" env-default:"4"`
	// Retries is the number of extra attempts on transient failures (timeouts, 429, 5xx).
	// The default of 0 makes a single attempt per cache miss.
	Retries int `yaml:"retries" env:"ENRICHMENT_RETRIES" env-default:"0"`
	// After BreakerThreshold consecutive call failures, calls stop for BreakerResetSeconds.
	// 0 disables the breaker.
	BreakerThreshold    int `yaml:"breaker_threshold" env:"ENRICHMENT_BREAKER_THRESHOLD" env-default:"0"`
	BreakerResetSeconds int `yaml:"breaker_reset_seconds" env:"ENRICHMENT_BREAKER_RESET_SECONDS" env-default:"30"`
}

// Enabled reports whether an enrichment client should be built.
func (e *EnrichmentConfig) Enabled() bool {
	return e.APIKey != "" || e.BaseURL != ""
}

// Timeout returns the per-call HTTP timeout.
func (e *EnrichmentConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// RetryConfig returns the backoff policy for enrichment calls.
func (e *EnrichmentConfig) RetryConfig() *retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxRetries = e.Retries
	return cfg
}

// BreakerReset returns the circuit breaker cool-down.
func (e *EnrichmentConfig) BreakerReset() time.Duration {
	return time.Duration(e.BreakerResetSeconds) * time.Second
}

// Load reads configuration from config.yaml with environment variable overrides.
// A .env file in the working directory is loaded first when present; it never overrides
// variables already set. When config.yaml is absent, environment and defaults are used.
func Load(version string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(FileName); err == nil {
		if err := cleanenv.ReadConfig(FileName, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
		}
	} else if errors.Is(err, fs.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", FileName, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Auto-derive BaseURL from Port if not explicitly set
	if cfg.BaseURL == "" {
		scheme := "http"
		if cfg.TLSCertPath != "" {
			scheme = "https"
		}
		cfg.BaseURL = (&url.URL{
			Scheme: scheme,
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	cfg.Enrichment.BaseURL = ResolveEndpointForDocker(cfg.Enrichment.BaseURL)

	return cfg, nil
}

func (c *Config) validate() error {
	if err := c.validateTLS(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	switch strings.ToLower(c.Enrichment.Provider) {
	case "", "openai", "anthropic":
	default:
		return fmt.Errorf("invalid enrichment provider %q: must be openai or anthropic", c.Enrichment.Provider)
	}
	if c.Enrichment.RatePerSecond < 0 {
		return fmt.Errorf("enrichment rate_per_second must not be negative")
	}
	if c.Enrichment.Concurrency < 1 {
		return fmt.Errorf("enrichment concurrency must be at least 1")
	}
	if c.Enrichment.Retries < 0 || c.Enrichment.BreakerThreshold < 0 {
		return fmt.Errorf("enrichment retries and breaker_threshold must not be negative")
	}
	if c.Enrichment.TimeoutSeconds < 1 {
		return fmt.Errorf("enrichment timeout_seconds must be at least 1")
	}
	if c.Data.SupplierTablePath == "" {
		return fmt.Errorf("data.supplier_table is required")
	}
	if c.Data.ActivityLogPath == "" {
		return fmt.Errorf("data.activity_log is required")
	}
	return nil
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}
