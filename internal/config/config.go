// Package config loads runtime settings from defaults, an optional YAML file
// and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dvloznov/copilot-ledger/internal/decoder"
	"github.com/dvloznov/copilot-ledger/internal/logger"
	"gopkg.in/yaml.v3"
)

// DefaultDatabaseSubpath is the Firestore cache of the Copilot Money macOS
// app, relative to the user's home directory.
const DefaultDatabaseSubpath = "Library/Containers/com.copilot.production/Data/Library/" +
	"Application Support/firestore/__FIRAPP_DEFAULT/copilot-production-22904/main"

// Config is the full runtime configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Decoder  decoder.Limits `yaml:"decoder"`
	Server   ServerConfig   `yaml:"server"`
	Export   ExportConfig   `yaml:"export"`
	Logging  logger.Config  `yaml:"logging"`
}

// DatabaseConfig locates the LevelDB directory.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RefreshWorkers  int           `yaml:"refresh_workers"`
	Watch           bool          `yaml:"watch"`
	WatchDebounce   time.Duration `yaml:"watch_debounce"`
	// AuthToken, when set, is required as a bearer token on /api routes.
	AuthToken string `yaml:"auth_token"`
}

// ExportConfig names the BigQuery dataset and GCS bucket used by exports.
type ExportConfig struct {
	ProjectID string `yaml:"project_id"`
	Dataset   string `yaml:"dataset"`
	Bucket    string `yaml:"bucket"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Path: DefaultDatabasePath()},
		Decoder:  decoder.DefaultLimits(),
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RefreshWorkers:  1,
			WatchDebounce:   2 * time.Second,
		},
		Export: ExportConfig{
			Dataset: "copilot",
		},
		Logging: logger.Config{Level: "info", Format: "text"},
	}
}

// DefaultDatabasePath returns the Copilot Money cache under the home directory.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDatabaseSubpath
	}
	return filepath.Join(home, DefaultDatabaseSubpath)
}

// Load builds a Config from defaults, the YAML file at path (if non-empty)
// and environment overrides, then validates it.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("COPILOT_DB_PATH", &c.Database.Path)
	set("LOG_LEVEL", &c.Logging.Level)
	set("LOG_FORMAT", &c.Logging.Format)
	set("HTTP_ADDR", &c.Server.Addr)
	set("API_TOKEN", &c.Server.AuthToken)
	set("GCP_PROJECT", &c.Export.ProjectID)
	set("BQ_DATASET", &c.Export.Dataset)
	set("GCS_BUCKET", &c.Export.Bucket)
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if err := c.Decoder.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("decoder: %w", err))
	}
	if c.Server.RefreshWorkers < 1 {
		errs = append(errs, fmt.Errorf("server.refresh_workers must be at least 1, got %d", c.Server.RefreshWorkers))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}
