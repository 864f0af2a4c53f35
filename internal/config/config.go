// Package config loads quadline settings from defaults, an optional config
// file and QUADLINE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	KeyStorePath    = "store.path"
	KeyInMemory     = "store.in_memory"
	KeyLogVerbosity = "log.verbosity"
	KeyParseMetrics = "parse.metrics"
	KeyLoadBatch    = "load.batch"
	KeyMaxInput     = "load.max_bytes"
)

// EnvPrefix is prepended to environment variable names, e.g.
// QUADLINE_STORE_PATH for store.path.
const EnvPrefix = "QUADLINE"

// Config is the resolved configuration
type Config struct {
	StorePath     string
	InMemory      bool
	LogVerbosity  int
	ParseMetrics  bool
	LoadBatch     int
	MaxInputBytes int64
}

// SetDefaults registers the default value of every key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyStorePath, "quadline.db")
	v.SetDefault(KeyInMemory, false)
	v.SetDefault(KeyLogVerbosity, 0)
	v.SetDefault(KeyParseMetrics, true)
	v.SetDefault(KeyLoadBatch, 1000)
	v.SetDefault(KeyMaxInput, int64(1)<<30)
}

// New creates a viper instance with defaults and environment binding. A
// non-empty configFile is read; its format follows the file extension.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	}
	return v, nil
}

// Load resolves v into a Config and validates it
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		StorePath:     v.GetString(KeyStorePath),
		InMemory:      v.GetBool(KeyInMemory),
		LogVerbosity:  v.GetInt(KeyLogVerbosity),
		ParseMetrics:  v.GetBool(KeyParseMetrics),
		LoadBatch:     v.GetInt(KeyLoadBatch),
		MaxInputBytes: v.GetInt64(KeyMaxInput),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if !c.InMemory && c.StorePath == "" {
		return errors.New("store.path must be set unless store.in_memory is true")
	}
	if c.LoadBatch < 1 {
		return fmt.Errorf("load.batch must be positive, got %d", c.LoadBatch)
	}
	if c.LogVerbosity < 0 {
		return fmt.Errorf("log.verbosity must not be negative, got %d", c.LogVerbosity)
	}
	return nil
}
