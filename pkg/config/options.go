package config

import (
	"strings"
)

// Option is a function that modifies a Config. Options validate inputs
// and silently ignore invalid values, keeping the config in a valid state.
type Option func(*Config)

// OptDatabaseHost sets the PostgreSQL server hostname or IP address.
func OptDatabaseHost(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if s != "" {
			c.Database.Host = s
		}
	}
}

// OptDatabasePort sets the PostgreSQL server port number.
func OptDatabasePort(i int) Option {
	return func(c *Config) {
		if i > 0 {
			c.Database.Port = i
		}
	}
}

// OptDatabaseUser sets the PostgreSQL database username.
func OptDatabaseUser(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if s != "" {
			c.Database.User = s
		}
	}
}

// OptDatabasePassword sets the PostgreSQL database password.
func OptDatabasePassword(s string) Option {
	return func(c *Config) {
		if s != "" {
			c.Database.Password = s
		}
	}
}

// OptDatabaseDatabase sets the PostgreSQL database name to connect to.
func OptDatabaseDatabase(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if s != "" {
			c.Database.Database = s
		}
	}
}

// OptDatabaseSSLMode sets the SSL connection mode.
func OptDatabaseSSLMode(s string) Option {
	s = strings.ToLower(strings.TrimSpace(s))
	return func(c *Config) {
		switch s {
		case "disable", "require", "verify-ca", "verify-full":
			c.Database.SSLMode = s
		}
	}
}

// OptDatabaseBatchSize sets the number of candidates per ingestion
// transaction.
func OptDatabaseBatchSize(i int) Option {
	return func(c *Config) {
		if i > 0 {
			c.Database.BatchSize = i
		}
	}
}

// OptLogFormat sets the log output format ('json' or 'text').
func OptLogFormat(s string) Option {
	s = strings.ToLower(strings.TrimSpace(s))
	return func(c *Config) {
		switch s {
		case "json", "text":
			c.Log.Format = s
		}
	}
}

// OptLogLevel sets the log level.
func OptLogLevel(s string) Option {
	s = strings.ToLower(strings.TrimSpace(s))
	return func(c *Config) {
		switch s {
		case "debug", "info", "warn", "error":
			c.Log.Level = s
		}
	}
}

// OptLogDestination sets where logs are written.
func OptLogDestination(s string) Option {
	s = strings.ToLower(strings.TrimSpace(s))
	return func(c *Config) {
		switch s {
		case "file", "stdout", "stderr":
			c.Log.Destination = s
		}
	}
}

// OptJobsNumber sets the number of concurrent workers.
func OptJobsNumber(i int) Option {
	return func(c *Config) {
		if i > 0 {
			c.JobsNumber = i
		}
	}
}

// OptHomeDir sets the application home directory. Runtime-only field.
func OptHomeDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if s != "" {
			c.HomeDir = s
		}
	}
}

// OptAcquireConnectors restricts an ingestion batch to the named
// connectors. Runtime-only field.
func OptAcquireConnectors(ss []string) Option {
	return func(c *Config) {
		if len(ss) > 0 {
			c.Acquire.Connectors = ss
		}
	}
}

// OptAcquireLimit caps candidates taken per connector. Runtime-only.
func OptAcquireLimit(i int) Option {
	return func(c *Config) {
		if i > 0 {
			c.Acquire.Limit = i
		}
	}
}

// OptAcquireRetryAttempts bounds transaction-conflict retries.
func OptAcquireRetryAttempts(i int) Option {
	return func(c *Config) {
		if i > 0 {
			c.Acquire.RetryAttempts = i
		}
	}
}
