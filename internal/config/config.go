// Package config loads server settings from defaults, an optional config
// file and environment variables, in increasing order of precedence.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the complete server configuration.
type Config struct {
	Port            int    `mapstructure:"port"`
	DBPath          string `mapstructure:"db_path"`
	TemplateDir     string `mapstructure:"template_dir"`
	StaticDir       string `mapstructure:"static_dir"`
	ProfileSecret   string `mapstructure:"profile_secret"`
	BaseURL         string `mapstructure:"base_url"`
	PasswordHashing bool   `mapstructure:"password_hashing"`
	SecureCookies   bool   `mapstructure:"secure_cookies"`
	LogLevel        string `mapstructure:"log_level"`

	// GeneratedSecret is true when no secret was configured and a random one
	// was generated. Profile cookies then stop validating on restart.
	GeneratedSecret bool `mapstructure:"-"`
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"port":             "PORT",
	"db_path":          "DB_PATH",
	"template_dir":     "TEMPLATE_DIR",
	"static_dir":       "STATIC_DIR",
	"profile_secret":   "PROFILE_SECRET",
	"base_url":         "BASE_URL",
	"password_hashing": "PASSWORD_HASHING",
	"secure_cookies":   "SECURE_COOKIES",
	"log_level":        "LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("db_path", "data/prompts.db")
	v.SetDefault("template_dir", "web/templates")
	v.SetDefault("static_dir", "web/static")
	v.SetDefault("profile_secret", "")
	v.SetDefault("base_url", "") // empty: derived from each request's host
	v.SetDefault("password_hashing", false)
	v.SetDefault("secure_cookies", false)
	v.SetDefault("log_level", "info")
}

// Load reads configuration. The config file path comes from CONFIG_FILE;
// when unset no file is read.
func Load() (*Config, error) {
	return LoadWithFile(os.Getenv("CONFIG_FILE"))
}

// LoadWithFile reads configuration using path as the config file.
// The format follows the file extension (yaml, json, toml).
func LoadWithFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("config: binding %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}

	if cfg.ProfileSecret == "" {
		secret, err := generateSecret()
		if err != nil {
			return nil, err
		}
		cfg.ProfileSecret = secret
		cfg.GeneratedSecret = true
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	var errs []string

	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}
	if cfg.DBPath == "" {
		errs = append(errs, "db_path is required")
	}
	if len(cfg.ProfileSecret) < 16 {
		errs = append(errs, "profile_secret must be at least 16 characters")
	}
	if cfg.BaseURL != "" {
		if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, "base_url must be an absolute URL")
		}
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Level returns the configured slog level. Load has already validated it.
func (c *Config) Level() slog.Level {
	level, _ := ParseLevel(c.LogLevel)
	return level
}

// ParseLevel maps debug/info/warn/error to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log_level must be one of: debug, info, warn, error")
}

func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("config: generating profile secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
