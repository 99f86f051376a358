// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Preference storage backends.
const (
	PrefsBackendMemory = "memory"
	PrefsBackendRedis  = "redis"
	PrefsBackendSQLite = "sqlite"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env              string  `mapstructure:"APP_ENV"`
	LogLevel         string  `mapstructure:"LOG_LEVEL"`
	CurrentUserID    string  `mapstructure:"CURRENT_USER_ID"`
	AutoReplyDelayMS int     `mapstructure:"AUTO_REPLY_DELAY_MS"`
	PrefsBackend     string  `mapstructure:"PREFS_BACKEND"`
	RedisURL         string  `mapstructure:"REDIS_URL"`
	SQLitePath       string  `mapstructure:"SQLITE_PATH"`
	SeedFakeUsers    int     `mapstructure:"SEED_FAKE_USERS"`
	SeedFakePosts    int     `mapstructure:"SEED_FAKE_POSTS"`
	FeatureFlags     string  `mapstructure:"FEATURE_FLAGS"`
	EventBufferSize  int     `mapstructure:"EVENT_BUFFER_SIZE"`
	TracingEnabled   bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter  string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint     string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampler   float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	SetDefaults(viper.GetViper())

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.Normalize()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// SetDefaults registers the development defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CURRENT_USER_ID", "u_me")
	v.SetDefault("AUTO_REPLY_DELAY_MS", 1500)
	v.SetDefault("PREFS_BACKEND", PrefsBackendMemory)
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("SQLITE_PATH", "tripsocial.db")
	v.SetDefault("SEED_FAKE_USERS", 0)
	v.SetDefault("SEED_FAKE_POSTS", 0)
	v.SetDefault("FEATURE_FLAGS", "auto_reply=on,group_likes=on")
	v.SetDefault("EVENT_BUFFER_SIZE", 64)
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_EXPORTER", "stdout")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
}

// Normalize trims and lower-cases enumerated values.
func (c *Config) Normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.PrefsBackend = strings.ToLower(strings.TrimSpace(c.PrefsBackend))
	c.TracingExporter = strings.ToLower(strings.TrimSpace(c.TracingExporter))
	c.CurrentUserID = strings.TrimSpace(c.CurrentUserID)
}

// AutoReplyDelay returns the simulated counterparty delay.
func (c *Config) AutoReplyDelay() time.Duration {
	return time.Duration(c.AutoReplyDelayMS) * time.Millisecond
}

// Validate ensures that required configuration values are present and consistent.
func (c *Config) Validate() error {
	if c.CurrentUserID == "" {
		return errors.New("CURRENT_USER_ID is required")
	}
	if c.AutoReplyDelayMS < 0 {
		return errors.New("AUTO_REPLY_DELAY_MS must not be negative")
	}
	if c.SeedFakeUsers < 0 || c.SeedFakePosts < 0 {
		return errors.New("SEED_FAKE_USERS and SEED_FAKE_POSTS must not be negative")
	}
	if c.EventBufferSize <= 0 {
		return errors.New("EVENT_BUFFER_SIZE must be positive")
	}
	if c.TracingSampler < 0 || c.TracingSampler > 1 {
		return errors.New("TRACING_SAMPLER_RATIO must be between 0 and 1")
	}

	switch c.PrefsBackend {
	case PrefsBackendMemory:
	case PrefsBackendRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return errors.New("REDIS_URL is required when PREFS_BACKEND is redis")
		}
	case PrefsBackendSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errors.New("SQLITE_PATH is required when PREFS_BACKEND is sqlite")
		}
	default:
		return fmt.Errorf("unknown PREFS_BACKEND %q", c.PrefsBackend)
	}

	isProduction := c.Env == "production" || c.Env == "prod"
	if isProduction && c.PrefsBackend == PrefsBackendMemory {
		log.Println("WARNING: PREFS_BACKEND is 'memory' in production. Theme and language will not survive restarts.")
	}

	return nil
}
