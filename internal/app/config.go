package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/okastudio/platewatch/internal/database"
)

// Config is the full runtime configuration, loaded from config file plus
// PLATEWATCH_-prefixed environment variables.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   database.Config  `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Moderation ModerationConfig `mapstructure:"moderation"`
	Media      MediaConfig      `mapstructure:"media"`
	Retention  RetentionConfig  `mapstructure:"retention"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTIssuer      string        `mapstructure:"jwt_issuer"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// ModerationConfig tunes the policy. Weight overrides are keyed by report
// type name.
type ModerationConfig struct {
	AutoModeration bool               `mapstructure:"auto_moderation"`
	Threshold      float64            `mapstructure:"threshold"`
	SuspensionDays int                `mapstructure:"suspension_days"`
	Weights        map[string]float64 `mapstructure:"weights"`
}

type MediaConfig struct {
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// RetentionConfig drives the background sweeper that purges read
// notifications.
type RetentionConfig struct {
	NotificationTTL time.Duration `mapstructure:"notification_ttl"`
	SweepSchedule   string        `mapstructure:"sweep_schedule"`
}

type MonitoringConfig struct {
	EnableMetrics bool `mapstructure:"enable_metrics"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from the optional file path and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PLATEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/platewatch")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read: %w", err)
			}
		}
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "platewatch.db")

	// The secret has no usable default; registering the key lets it be
	// supplied purely through the environment.
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_issuer", "platewatch")
	v.SetDefault("auth.access_token_ttl", 15*time.Minute)

	v.SetDefault("moderation.auto_moderation", true)
	v.SetDefault("moderation.threshold", 10.0)
	v.SetDefault("moderation.suspension_days", 7)

	v.SetDefault("retention.notification_ttl", 90*24*time.Hour)
	v.SetDefault("retention.sweep_schedule", "0 3 * * *")

	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("logging.level", "info")
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: auth.jwt_secret is required")
	}
	if c.Moderation.Threshold <= 0 {
		return fmt.Errorf("config: moderation.threshold must be positive")
	}
	if c.Moderation.SuspensionDays <= 0 {
		return fmt.Errorf("config: moderation.suspension_days must be positive")
	}
	return nil
}
