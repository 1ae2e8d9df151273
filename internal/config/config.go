package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// RateLimit configures the per-address token bucket.
type RateLimit struct {
	Capacity       int           `mapstructure:"capacity" yaml:"capacity" validate:"gte=1"`
	RefillInterval time.Duration `mapstructure:"refill_interval" yaml:"refill_interval" validate:"gt=0"`
}

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr" validate:"required"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
	MaxMessageBytes   int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes" validate:"gte=1024"`

	LogLevel         string        `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogPath          string        `mapstructure:"log_path" yaml:"log_path"`
	LogFlushInterval time.Duration `mapstructure:"log_flush_interval" yaml:"log_flush_interval" validate:"gt=0"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path" validate:"required"`
	StaticDir    string `mapstructure:"static_dir" yaml:"static_dir"`
	JWTSecret    string `mapstructure:"jwt_secret" yaml:"jwt_secret" validate:"required,min=16"`

	RateLimit             RateLimit `mapstructure:"rate_limit" yaml:"rate_limit"`
	MaxRoomCapacity       int       `mapstructure:"max_room_capacity" yaml:"max_room_capacity" validate:"gte=2"`
	MaxAdminLoginAttempts int       `mapstructure:"max_admin_login_attempts" yaml:"max_admin_login_attempts" validate:"gte=1"`
	TrustForwardedFor     bool      `mapstructure:"trust_forwarded_for" yaml:"trust_forwarded_for"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		MaxMessageBytes:   1 << 20,

		LogLevel:         "info",
		LogPath:          "logs/syncwatch.log",
		LogFlushInterval: 5 * time.Second,

		DatabasePath: "syncwatch.db",
		StaticDir:    "public",
		JWTSecret:    "change-me-in-production",

		RateLimit: RateLimit{
			Capacity:       20,
			RefillInterval: 10 * time.Second,
		},
		MaxRoomCapacity:       16,
		MaxAdminLoginAttempts: 5,
		TrustForwardedFor:     true,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogPath != "" {
		c.LogPath = other.LogPath
	}
	if other.LogFlushInterval != 0 {
		c.LogFlushInterval = other.LogFlushInterval
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.StaticDir != "" {
		c.StaticDir = other.StaticDir
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.RateLimit.Capacity != 0 {
		c.RateLimit.Capacity = other.RateLimit.Capacity
	}
	if other.RateLimit.RefillInterval != 0 {
		c.RateLimit.RefillInterval = other.RateLimit.RefillInterval
	}
	if other.MaxRoomCapacity != 0 {
		c.MaxRoomCapacity = other.MaxRoomCapacity
	}
	if other.MaxAdminLoginAttempts != 0 {
		c.MaxAdminLoginAttempts = other.MaxAdminLoginAttempts
	}
	if other.TrustForwardedFor {
		c.TrustForwardedFor = true
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks value ranges after all sources are merged.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
