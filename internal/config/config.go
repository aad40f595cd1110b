package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the configuration for the keepstack service.
// Environment variables are parsed from the KEEPSTACK_ prefix,
// e.g. KEEPSTACK_HTTP_PORT, KEEPSTACK_DOC_DRIVER.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Document area driver: auto | sqlite | postgres | memory.
	// "auto" resolves to postgres when a DSN is set, sqlite otherwise.
	DocDriver   string `envconfig:"DOC_DRIVER" default:"auto"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:""`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Area capacities in bytes. Zero means unlimited.
	SyncQuotaBytes  int64 `envconfig:"SYNC_QUOTA_BYTES" default:"102400"`
	LocalQuotaBytes int64 `envconfig:"LOCAL_QUOTA_BYTES" default:"5242880"`

	// QuotaWarnThreshold is the usage fraction past which a warning event
	// fires, once per upward crossing.
	QuotaWarnThreshold float64 `envconfig:"QUOTA_WARN_THRESHOLD" default:"0.8"`

	// Search engine tuning.
	IndexStalenessMs int     `envconfig:"INDEX_STALENESS_MS" default:"1000"`
	MinTokenLength   int     `envconfig:"MIN_TOKEN_LENGTH" default:"3"`
	KeywordWeight    float64 `envconfig:"KEYWORD_WEIGHT" default:"0.6"`
	SubstringWeight  float64 `envconfig:"SUBSTRING_WEIGHT" default:"0.4"`
	MaxPageSize      int     `envconfig:"MAX_PAGE_SIZE" default:"100"`
	HistoryCap       int     `envconfig:"HISTORY_CAP" default:"50"`
	HistoryEnabled   bool    `envconfig:"HISTORY_ENABLED" default:"true"`
	SuggestionCap    int     `envconfig:"SUGGESTION_CAP" default:"8"`
}

// ResolveDefaults validates driver selection and derives DocDriver when set
// to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	if c.DocDriver == "" || c.DocDriver == "auto" {
		if c.PostgresDSN != "" {
			c.DocDriver = "postgres"
		} else {
			c.DocDriver = "sqlite"
		}
	}

	allowed := map[string]bool{"sqlite": true, "postgres": true, "memory": true}
	if !allowed[c.DocDriver] {
		return fmt.Errorf("unsupported DOC_DRIVER: %s", c.DocDriver)
	}
	if c.DocDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("DOC_DRIVER=postgres requires POSTGRES_DSN")
	}

	if c.DocDriver == "sqlite" && c.SQLitePath == "" {
		p, err := DefaultDBPath()
		if err != nil {
			return err
		}
		c.SQLitePath = p
	}

	if c.QuotaWarnThreshold <= 0 || c.QuotaWarnThreshold > 1 {
		return fmt.Errorf("QUOTA_WARN_THRESHOLD must be in (0,1], got %v", c.QuotaWarnThreshold)
	}
	return nil
}

// New creates a Config by parsing KEEPSTACK_-prefixed environment variables.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("KEEPSTACK", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewForTesting returns a config suitable for unit tests: all state in
// memory, small quotas, history enabled.
func NewForTesting() *Config {
	return &Config{
		Environment:        "testing",
		HTTPPort:           8080,
		DocDriver:          "memory",
		SyncQuotaBytes:     102400,
		LocalQuotaBytes:    5242880,
		QuotaWarnThreshold: 0.8,
		IndexStalenessMs:   1000,
		MinTokenLength:     3,
		KeywordWeight:      0.6,
		SubstringWeight:    0.4,
		MaxPageSize:        100,
		HistoryCap:         50,
		HistoryEnabled:     true,
		SuggestionCap:      8,
	}
}

// GetHTTPAddr returns the HTTP server listen address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

const (
	envHome    = "KEEPSTACK_HOME" // override for tests
	dirName    = ".keepstack"     // default under $HOME
	dbFilename = "keepstack.db"
)

// DataDir returns the directory where local state is stored (~/.keepstack).
// It creates the directory with 0700 permissions if it does not exist.
func DataDir() (string, error) {
	if custom := os.Getenv(envHome); custom != "" {
		if err := os.MkdirAll(custom, 0o700); err != nil {
			return "", err
		}
		return custom, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user home: %w", err)
	}
	dir := filepath.Join(home, dirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// DefaultDBPath returns the absolute path to the SQLite database file.
func DefaultDBPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dbFilename), nil
}
