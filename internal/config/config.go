package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const defaultHTTPAddr = ":8490"

// Config holds runtime configuration for the themed daemon.
type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Applier  ApplierConfig  `mapstructure:"applier"`
	Log      LogConfig      `mapstructure:"log"`
}

// HTTPConfig holds the control API listener settings.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// CatalogConfig holds the theme descriptor directory.
type CatalogConfig struct {
	Dir string `mapstructure:"dir"`
}

// ApplierConfig selects how decided themes reach the desktop.
type ApplierConfig struct {
	Kind      string `mapstructure:"kind"`
	StatePath string `mapstructure:"state_path"`
	Command   string `mapstructure:"command"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// SlogLevel converts the configured level name, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DBDir returns the target directory for the database path.
func (c Config) DBDir() string {
	return filepath.Dir(c.Database.Path)
}

// Load reads configuration from file and env. An explicit path wins,
// then $THEMED_CONFIG, then ~/.config/themed/config.toml. Env var
// overrides use prefix THEMED_.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("http.addr", defaultHTTPAddr)
	v.SetDefault("database.path", filepath.Join(dataDir(), "themed.db"))
	v.SetDefault("catalog.dir", filepath.Join(configDir(), "themes"))
	v.SetDefault("applier.kind", "file")
	v.SetDefault("applier.state_path", filepath.Join(dataDir(), "active-theme.json"))
	v.SetDefault("applier.command", "")
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")
	if path == "" {
		path = os.Getenv("THEMED_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(configDir())
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("THEMED")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// The config file is optional; defaults and env cover a bare host.
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

func configDir() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "themed")
}

func dataDir() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "themed")
}
