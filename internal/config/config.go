package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const (
	EnvPrefix = "LINKFEED"

	// MinTokenLength is the shortest accepted private or feed token.
	MinTokenLength = 32

	DefaultAddress = "0.0.0.0"
	DefaultPort    = 8001
)

// Config holds the application configuration loaded from the environment.
type Config struct {
	PrivateToken string `mapstructure:"private_token"`
	FeedToken    string `mapstructure:"feed_token"`
	Address      string `mapstructure:"address"`
	Port         int    `mapstructure:"port"`
	LogLevel     string `mapstructure:"log_level"`

	FetchTimeoutSeconds int64         `mapstructure:"fetch_timeout"`
	FetchTimeout        time.Duration `mapstructure:"-"`

	TrimMinEntries int           `mapstructure:"trim_min_entries"`
	TrimAgeDays    int64         `mapstructure:"trim_age_days"`
	TrimAge        time.Duration `mapstructure:"-"`

	// FeedPath comes from the command line, not the environment.
	FeedPath string `mapstructure:"-"`
}

// Load reads configuration from LINKFEED_* environment variables and an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)

	v.SetDefault("private_token", "")
	v.SetDefault("feed_token", "")
	v.SetDefault("address", DefaultAddress)
	v.SetDefault("port", DefaultPort)
	v.SetDefault("log_level", "info")
	v.SetDefault("fetch_timeout", 30) // seconds
	v.SetDefault("trim_min_entries", 50)
	v.SetDefault("trim_age_days", 30)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.PrivateToken = strings.TrimSpace(cfg.PrivateToken)
	cfg.FeedToken = strings.TrimSpace(cfg.FeedToken)
	if err := validateToken("private_token", cfg.PrivateToken); err != nil {
		return nil, err
	}
	if err := validateToken("feed_token", cfg.FeedToken); err != nil {
		return nil, err
	}

	cfg.Address = strings.TrimSpace(cfg.Address)
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d (must be 1-65535)", cfg.Port)
	}

	if cfg.FetchTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid fetch_timeout (must be positive seconds)")
	}
	cfg.FetchTimeout = time.Duration(cfg.FetchTimeoutSeconds) * time.Second

	if cfg.TrimMinEntries <= 0 {
		return nil, fmt.Errorf("invalid trim_min_entries (must be positive)")
	}
	if cfg.TrimAgeDays <= 0 {
		return nil, fmt.Errorf("invalid trim_age_days (must be positive days)")
	}
	cfg.TrimAge = time.Duration(cfg.TrimAgeDays) * 24 * time.Hour

	return &cfg, nil
}

func validateToken(key, token string) error {
	env := EnvName(key)
	if token == "" {
		return fmt.Errorf("%s is not set", env)
	}
	if len(token) < MinTokenLength {
		return fmt.Errorf("%s is too short (must be at least %d characters)", env, MinTokenLength)
	}
	return nil
}

// EnvName returns the environment variable backing a config key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(key)
}

// ListenAddr returns the host:port the gateway binds to.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

// MarshalLogObject logs the configuration without its tokens.
func (c *Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("address", c.Address)
	enc.AddInt("port", c.Port)
	enc.AddString("log_level", c.LogLevel)
	enc.AddString("feed_path", c.FeedPath)
	enc.AddDuration("fetch_timeout", c.FetchTimeout)
	enc.AddInt("trim_min_entries", c.TrimMinEntries)
	enc.AddDuration("trim_age", c.TrimAge)
	return nil
}
