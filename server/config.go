package server

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "VIDEOLIB"

type Config struct {
	Addr         string `mapstructure:"addr"`
	Data         string `mapstructure:"data"`
	Store        string `mapstructure:"store"`
	PebbleDir    string `mapstructure:"pebble-dir"`
	Env          string `mapstructure:"env"`
	FrontendURL  string `mapstructure:"frontend-url"`
	MetricsAddr  string `mapstructure:"metrics-addr"`
	OtelEndpoint string `mapstructure:"otel-endpoint"`
	Bus          string `mapstructure:"bus"`
	Webhook      string `mapstructure:"webhook"`
	// DateFilter applies dateFrom/dateTo to created_at, off keeps them as ignored parameters
	DateFilter bool `mapstructure:"date-filter"`
	// RateLimit is requests per minute per client ip, 0 disables it
	RateLimit  int    `mapstructure:"rate-limit"`
	LogLevel   string `mapstructure:"log-level"`
	CACert     string `mapstructure:"ca-cert"`
	ServerCert string `mapstructure:"server-cert"`
	ServerKey  string `mapstructure:"server-key"`
}

func DefaultConfig() Config {
	return Config{
		Addr:        ":3001",
		Data:        "data/videos.json",
		Store:       "file",
		PebbleDir:   "data/pebble",
		Env:         "development",
		FrontendURL: "http://localhost:3000",
		MetricsAddr: ":27667",
		Bus:         "solo",
		LogLevel:    "info",
	}
}

// LoadConfig merges, lowest first: flag defaults, the config file, VIDEOLIB_* env vars, explicitly set flags.
func LoadConfig(flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Store {
	case "file":
		if c.Data == "" {
			return fmt.Errorf("data must not be empty for the file store")
		}
	case "pebble":
		if c.PebbleDir == "" {
			return fmt.Errorf("pebble-dir must not be empty for the pebble store")
		}
	default:
		return fmt.Errorf("unknown store %q, expected file or pebble", c.Store)
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("rate-limit must not be negative")
	}

	if _, err := c.level(); err != nil {
		return err
	}

	if (c.ServerCert == "") != (c.ServerKey == "") {
		return fmt.Errorf("server-cert and server-key must be set together")
	}
	if c.CACert != "" && c.ServerCert == "" {
		return fmt.Errorf("ca-cert requires server-cert and server-key")
	}
	return nil
}

func (c Config) Development() bool {
	return c.Env == "development"
}

func (c Config) StorePath() string {
	if c.Store == "pebble" {
		return c.PebbleDir
	}
	return c.Data
}

func (c Config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("invalid log-level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
