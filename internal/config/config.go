// Package config loads markstash settings from an optional file and
// APP_-prefixed environment variables using Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. APP_SERVER_PORT.
const EnvPrefix = "APP"

// Config is a read-only view over a Viper instance. A nil Viper behaves
// as an empty configuration.
type Config struct {
	v *viper.Viper
}

// New wraps v. Passing nil yields an empty configuration.
func New(v *viper.Viper) *Config {
	if v == nil {
		v = viper.New()
	}
	return &Config{v: v}
}

func (c *Config) GetString(key string) string { return c.v.GetString(key) }
func (c *Config) GetInt(key string) int { return c.v.GetInt(key) }
func (c *Config) GetFloat64(key string) float64 { return c.v.GetFloat64(key) }
func (c *Config) GetBool(key string) bool { return c.v.GetBool(key) }
func (c *Config) GetDuration(key string) time.Duration { return c.v.GetDuration(key) }
func (c *Config) GetStringSlice(key string) []string { return c.v.GetStringSlice(key) }
func (c *Config) IsSet(key string) bool { return c.v.IsSet(key) }
func (c *Config) Unmarshal(target any) error { return c.v.Unmarshal(target) }

// ConfigFileUsed returns the path of the file that was read, or "".
func (c *Config) ConfigFileUsed() string { return c.v.ConfigFileUsed() }

// Sub returns the subtree at key. A missing subtree is an empty Config,
// never nil.
func (c *Config) Sub(key string) *Config {
	return New(c.v.Sub(key))
}

// Settings is the typed application configuration.
type Settings struct {
	Server     ServerSettings     `mapstructure:"server"`
	Database   DatabaseSettings   `mapstructure:"database"`
	Pagination PaginationSettings `mapstructure:"pagination"`
	RateLimit  RateLimitSettings  `mapstructure:"ratelimit"`
	CORS       CORSSettings       `mapstructure:"cors"`
	Log        LogSettings        `mapstructure:"log"`
}

type ServerSettings struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr is the host:port listen address.
func (s ServerSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseSettings struct {
	Path string `mapstructure:"path"`
}

type PaginationSettings struct {
	MaxPerPage int `mapstructure:"max_per_page"`
}

// RateLimitSettings configures the per-client token bucket. RPS <= 0
// disables limiting.
type RateLimitSettings struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type CORSSettings struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogSettings struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// SetDefaults registers the default value of every known key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.path", "data.db")
	v.SetDefault("pagination.max_per_page", 100)
	v.SetDefault("ratelimit.rps", 20)
	v.SetDefault("ratelimit.burst", 40)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load builds the configuration from defaults, the file at path (or
// $CONFIG_PATH when path is empty) and the environment. A missing file is
// only an error when a path was given explicitly.
func Load(path string) (*Config, *Settings, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Plain DATABASE_PATH is honored for compatibility with older deployments.
	_ = v.BindEnv("database.path", EnvPrefix+"_DATABASE_PATH", "DATABASE_PATH")

	explicit := path != ""
	if !explicit {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if explicit || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
				return nil, nil, fmt.Errorf("read config %q: %w", path, err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, nil, fmt.Errorf("decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}
	return New(v), &s, nil
}

// Validate rejects settings the server cannot start with.
func (s *Settings) Validate() error {
	if s.Server.Port <= 0 || s.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", s.Server.Port)
	}
	if s.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if s.Pagination.MaxPerPage <= 0 {
		return fmt.Errorf("pagination.max_per_page must be positive, got %d", s.Pagination.MaxPerPage)
	}
	if s.RateLimit.RPS > 0 && s.RateLimit.Burst <= 0 {
		return fmt.Errorf("ratelimit.burst must be positive when ratelimit.rps is set, got %d", s.RateLimit.Burst)
	}
	return nil
}
