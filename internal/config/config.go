// Package config loads tabtidy's settings from config.toml, TABTIDY_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const appName = "tabtidy"

// Config holds the resolved configuration.
type Config struct {
	DBPath         string        `mapstructure:"db_path"`
	LogDir         string        `mapstructure:"log_dir"`
	Port           int           `mapstructure:"port"`
	PlaceholderURL string        `mapstructure:"placeholder_url"`
	MaxNamePrompts int           `mapstructure:"max_name_prompts"`
	HostTimeout    time.Duration `mapstructure:"host_timeout"`
	Profile        string        `mapstructure:"profile"`
}

// ConfigDir returns $XDG_CONFIG_HOME/tabtidy (default ~/.config/tabtidy).
func ConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns $XDG_DATA_HOME/tabtidy (default ~/.local/share/tabtidy).
func DataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, fallback string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, fallback)
	}
	return filepath.Join(base, appName), nil
}

// New returns a viper instance set up with tabtidy's defaults, config file
// search path and environment prefix. Callers may bind flags to it before
// calling Load.
func New() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")

	configDir, err := ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("determine config directory: %w", err)
	}
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("TABTIDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	dataDir, err := DataDir()
	if err != nil {
		return nil, fmt.Errorf("determine data directory: %w", err)
	}
	v.SetDefault("db_path", filepath.Join(dataDir, appName+".db"))
	v.SetDefault("log_dir", dataDir)
	v.SetDefault("port", 19192)
	v.SetDefault("placeholder_url", "chrome://newtab")
	v.SetDefault("max_name_prompts", 3)
	v.SetDefault("host_timeout", 10*time.Second)
	v.SetDefault("profile", "")
	return v, nil
}

// Load reads the config file if there is one and resolves the configuration.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db_path must not be empty")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.MaxNamePrompts < 1 {
		return fmt.Errorf("max_name_prompts must be at least 1, got %d", c.MaxNamePrompts)
	}
	if c.HostTimeout < 0 {
		return fmt.Errorf("host_timeout must not be negative")
	}
	return nil
}
