// Package config loads lsdb settings from defaults, an optional config file
// and LSDB_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/stevemurr/lsdb/ident"
	"github.com/stevemurr/lsdb/store"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "LSDB"

// Config holds the settings needed to open a database.
type Config struct {
	Backend  string `mapstructure:"backend"`
	DataDir  string `mapstructure:"data_dir"`
	Name     string `mapstructure:"name"`
	IDScheme string `mapstructure:"id_scheme"`
	LogLevel string `mapstructure:"log_level"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Backend:  "json",
		DataDir:  "./data",
		Name:     "default",
		IDScheme: "xid",
		LogLevel: "info",
	}
}

// Load reads configuration. configFile may be empty, in which case
// LSDB_CONFIG is consulted; with neither set only defaults and environment
// apply. Any format viper understands is accepted.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	d := Defaults()
	v.SetDefault("backend", d.Backend)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("name", d.Name)
	v.SetDefault("id_scheme", d.IDScheme)
	v.SetDefault("log_level", d.LogLevel)

	if configFile == "" {
		configFile = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	}

	// LSDB_DATA_DIR -> data_dir
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Name == "" {
		return errors.New("config: name must not be empty")
	}
	if c.Backend != "" && !slices.Contains(store.Backends, c.Backend) {
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if _, err := ident.New(c.IDScheme); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Level returns the parsed log level, defaulting to info.
func (c *Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}
