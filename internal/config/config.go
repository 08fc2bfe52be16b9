// Package config loads install-level settings: file locations and the HTTP
// server address. UI preferences live in the database instead.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Dir      string `mapstructure:"-"`
	DBPath   string `mapstructure:"db_path"`
	BlobPath string `mapstructure:"blob_path"`
	Addr     string `mapstructure:"addr"`
	BaseURL  string `mapstructure:"base_url"`
	LogFile  string `mapstructure:"log_file"`
}

// Dir returns <user config dir>/floe, or FLOE_CONFIG_DIR when set.
func Dir() (string, error) {
	if d := os.Getenv("FLOE_CONFIG_DIR"); d != "" {
		return d, nil
	}
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "floe"), nil
}

// Load reads config.yaml from dir (missing is fine) and applies FLOE_*
// environment overrides on top of the defaults.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetDefault("db_path", filepath.Join(dir, "floe.db"))
	v.SetDefault("blob_path", filepath.Join(dir, "files"))
	v.SetDefault("addr", "127.0.0.1:8080")
	v.SetDefault("base_url", "")
	v.SetDefault("log_file", filepath.Join(dir, "floe.log"))

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("FLOE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Dir = dir
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://" + cfg.Addr
	}
	return cfg, nil
}

// SessionPath is where the CLI keeps the signed-in token.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, "session")
}
