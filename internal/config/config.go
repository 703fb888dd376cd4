// Package config loads dashstudio settings from a YAML file and
// DASHSTUDIO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"dashstudio/internal/dbconn"
)

const (
	envPrefix  = "DASHSTUDIO"
	configName = "dashstudio"
)

// Config is the resolved configuration.
type Config struct {
	Store        dbconn.ConnectionConfig `mapstructure:"store"`
	Log          LogConfig               `mapstructure:"log"`
	User         string                  `mapstructure:"user"`
	HistoryLimit int                     `mapstructure:"history_limit"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// DefaultDir is the per-user directory holding the default store and config.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dashstudio"
	}
	return filepath.Join(home, ".dashstudio")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", dbconn.DriverSQLite)
	v.SetDefault("store.path", filepath.Join(DefaultDir(), "dashstudio.db"))
	// Every key needs a default so AutomaticEnv can override it on Unmarshal.
	for _, k := range []string{"host", "database", "username", "password", "sslmode", "keyring_profile"} {
		v.SetDefault("store."+k, "")
	}
	v.SetDefault("store.port", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("user", "")
	v.SetDefault("history_limit", 20)
}

// Load reads path (when non-empty, it must exist) or looks for
// dashstudio.yaml in the working directory and DefaultDir, then applies
// environment overrides such as DASHSTUDIO_STORE_DRIVER.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	if _, err := dbconn.NewConnector(cfg.Store.Driver); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Connection returns the store connection settings with ~ expanded.
func (c Config) Connection() dbconn.ConnectionConfig {
	conn := c.Store
	conn.Path = expandPath(conn.Path)
	return conn
}

// expandPath expands a leading ~ to the home directory.
func expandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
