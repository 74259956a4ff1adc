// Package config loads client configuration: defaults, then an optional
// config.yaml in the data directory, then CLINIC_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config carries everything the client needs to reach one deployment.
type Config struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	DataDir string        `mapstructure:"data_dir"`
}

// DefaultDataDir is where the session blob and config file live, honoring
// XDG_CONFIG_HOME.
func DefaultDataDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "clinic-client")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "clinic-client")
}

// Load resolves the configuration. A missing config file is fine; a present
// but unreadable one is an error.
func Load() (Config, error) {
	v := viper.New()
	v.SetDefault("base_url", "http://localhost/api")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("data_dir", DefaultDataDir())

	v.SetEnvPrefix("CLINIC")
	v.AutomaticEnv()
	// AutomaticEnv alone does not surface env-only keys through Unmarshal.
	for _, key := range []string{"base_url", "timeout", "data_dir"} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, err
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(v.GetString("data_dir"))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
