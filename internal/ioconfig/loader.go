// Package ioconfig loads configuration from files, environment and
// defaults. This is an impure package that touches the file system.
package ioconfig

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/scholdb/scholdb/pkg/config"
	"github.com/spf13/viper"
)

// LoadResult contains the loaded configuration and metadata about where
// it came from.
type LoadResult struct {
	Config     *config.Config
	SourcePath string // config file used, empty when running on defaults
	Source     string // "file", "defaults" or "defaults+env"
}

// Load reads configuration from a YAML file and returns a valid Config.
// If configPath is empty it searches ./scholdb.yaml and
// ~/.config/scholdb/scholdb.yaml. Environment variables with the
// SCHOLDB_ prefix override file values; flags are applied by the CLI on
// top of the result.
func Load(configPath string) (*LoadResult, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix("SCHOLDB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Defaults registered before reading make env overrides visible to
	// AutomaticEnv even without a config file.
	defaults := config.New()
	v.SetDefault("database.host", defaults.Database.Host)
	v.SetDefault("database.port", defaults.Database.Port)
	v.SetDefault("database.user", defaults.Database.User)
	v.SetDefault("database.password", defaults.Database.Password)
	v.SetDefault("database.database", defaults.Database.Database)
	v.SetDefault("database.ssl_mode", defaults.Database.SSLMode)
	v.SetDefault("database.batch_size", defaults.Database.BatchSize)
	v.SetDefault("database.max_connections", defaults.Database.MaxConnections)
	v.SetDefault("database.min_connections", defaults.Database.MinConnections)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.destination", defaults.Log.Destination)
	v.SetDefault("acquire.retry_attempts", defaults.Acquire.RetryAttempts)
	v.SetDefault("jobs_number", defaults.JobsNumber)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else if p, ok := defaultConfigPath(); ok {
		v.SetConfigFile(p)
	}

	configFileRead := false
	if err := v.ReadInConfig(); err != nil {
		if v.ConfigFileUsed() != "" {
			// An explicitly named or discovered file that fails to
			// parse is an error; missing default locations are not.
			if configPath != "" || !os.IsNotExist(err) {
				return nil, ReadConfigError(v.ConfigFileUsed(), err)
			}
		}
	} else {
		configFileRead = true
	}

	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, UnmarshalConfigError(err)
	}

	if cfg.HomeDir == "" {
		cfg.HomeDir = DefaultHomeDir()
	}

	source := "defaults"
	switch {
	case configFileRead:
		source = "file"
	case hasEnvVars():
		source = "defaults+env"
	}

	return &LoadResult{
		Config:     &cfg,
		SourcePath: v.ConfigFileUsed(),
		Source:     source,
	}, nil
}

// DefaultHomeDir returns the application home directory:
// ~/.local/share/scholdb, or a scholdb dir under the OS temp dir when
// the user home cannot be determined.
func DefaultHomeDir() string {
	if dir := os.Getenv("SCHOLDB_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "scholdb")
	}
	return filepath.Join(home, ".local", "share", "scholdb")
}

func defaultConfigPath() (string, bool) {
	candidates := []string{"scholdb.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".config", "scholdb", "scholdb.yaml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

func hasEnvVars() bool {
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "SCHOLDB_") {
			return true
		}
	}
	return false
}
