// Package config provides configuration management for ScholDB.
//
// This package has no I/O dependencies. All mutations go through Option
// functions, and the default config from New() is always valid.
//
// Precedence (highest to lowest): CLI flags > env vars > scholdb.yaml >
// defaults. Environment variables use the SCHOLDB_ prefix with
// underscores for nesting, e.g. SCHOLDB_DATABASE_HOST.
package config

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// Config represents the complete ScholDB configuration.
type Config struct {
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`

	Log LogConfig `mapstructure:"log" yaml:"log"`

	// Acquire contains settings specific to the acquire command.
	Acquire AcquireConfig `mapstructure:"acquire" yaml:"acquire"`

	// JobsNumber is the number of concurrent workers for parallel
	// operations such as connector fan-in.
	JobsNumber int `mapstructure:"jobs_number" yaml:"jobs_number"`

	// HomeDir determines where config, history log and app logs reside.
	// It is set by the CLI during init.
	HomeDir string
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	Database string `mapstructure:"database" yaml:"database"`

	// SSLMode is one of "disable", "require", "verify-ca", "verify-full".
	SSLMode string `mapstructure:"ssl_mode" yaml:"ssl_mode"`

	// BatchSize is the number of candidate entities committed per
	// ingestion transaction.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`

	// MaxConnections and MinConnections bound the pgx pool.
	MaxConnections int `mapstructure:"max_connections" yaml:"max_connections"`
	MinConnections int `mapstructure:"min_connections" yaml:"min_connections"`
}

// LogConfig provides typical settings for application logs.
type LogConfig struct {
	// Format can be 'json' or 'text'.
	Format string `mapstructure:"format" yaml:"format"`
	// Level of logging: 'error', 'warn', 'info', 'debug'.
	Level string `mapstructure:"level" yaml:"level"`
	// Destination can be 'file' (under HomeDir), STDERR or STDOUT.
	Destination string `mapstructure:"destination" yaml:"destination"`
}

// AcquireConfig contains runtime settings for ingestion batches.
type AcquireConfig struct {
	// Connectors is the list of connector names to run. Empty means all
	// connectors registered in sources.yaml.
	Connectors []string `mapstructure:"connectors" yaml:"connectors"`

	// Limit caps the number of candidates taken per connector.
	// Zero means no limit.
	Limit int `mapstructure:"limit" yaml:"limit"`

	// RetryAttempts bounds transaction-conflict retries.
	RetryAttempts int `mapstructure:"retry_attempts" yaml:"retry_attempts"`
}

// New creates a Config with sensible default values. The returned config
// is always valid; defaults are overridden via Option functions.
func New(opts ...Option) *Config {
	res := &Config{
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			User:           "postgres",
			Password:       "postgres",
			Database:       "scholdb",
			SSLMode:        "disable",
			BatchSize:      500,
			MaxConnections: 10,
			MinConnections: 2,
		},
		Log: LogConfig{
			Format:      "json",
			Level:       "info",
			Destination: "stderr",
		},
		Acquire: AcquireConfig{
			RetryAttempts: 3,
		},
		JobsNumber: runtime.NumCPU(),
	}

	for _, opt := range opts {
		opt(res)
	}
	return res
}

// Update applies options to an existing config.
func (c *Config) Update(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// HistoryDir returns the directory holding the append-only history log.
func (c *Config) HistoryDir() string {
	return filepath.Join(c.HomeDir, "history")
}

// LogDir returns the directory for application log files.
func (c *Config) LogDir() string {
	return filepath.Join(c.HomeDir, "logs")
}

// SourcesFile returns the path of the connector configuration file.
func (c *Config) SourcesFile() string {
	return filepath.Join(c.HomeDir, "sources.yaml")
}

// DSN renders the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}
