// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string  `yaml:"token"`
	Mode     string  `yaml:"mode"` // polling | webhook (future)
	Workers  int     `yaml:"workers"`
	AdminIDs []int64 `yaml:"admin_ids"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type WeatherConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type TranslateConfig struct {
	Enabled bool          `yaml:"enabled"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type BroadcastConfig struct {
	Interval       time.Duration `yaml:"interval"`
	Workers        int           `yaml:"workers"`
	ThrottlePerSec int           `yaml:"throttle_per_sec"`
}

type RedisConfig struct {
	URL      string `yaml:"url"` // empty disables the rate limiter
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type WebConfig struct {
	Port          int           `yaml:"port"`
	JWTSecret     string        `yaml:"jwt_secret"`
	AdminPassword string        `yaml:"admin_password"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SecureCookies bool          `yaml:"secure_cookies"` // true behind TLS
}

type Config struct {
	Bot             BotConfig       `yaml:"bot"`
	Log             LogConfig       `yaml:"log"`
	Weather         WeatherConfig   `yaml:"weather"`
	Translate       TranslateConfig `yaml:"translate"`
	Broadcast       BroadcastConfig `yaml:"broadcast"`
	Redis           RedisConfig     `yaml:"redis"`
	Web             WebConfig       `yaml:"web"`
	DefaultLanguage string          `yaml:"default_language"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Bot.Mode == "" {
		cfg.Bot.Mode = "polling"
	}
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Weather.BaseURL == "" {
		cfg.Weather.BaseURL = "https://api.openweathermap.org/data/2.5/weather"
	}
	if cfg.Weather.Timeout <= 0 {
		cfg.Weather.Timeout = 10 * time.Second
	}
	if cfg.Translate.BaseURL == "" {
		cfg.Translate.BaseURL = "https://translate.googleapis.com/translate_a/single"
	}
	if cfg.Translate.Timeout <= 0 {
		cfg.Translate.Timeout = 5 * time.Second
	}
	if cfg.Broadcast.Interval <= 0 {
		cfg.Broadcast.Interval = 60 * time.Minute
	}
	if cfg.Broadcast.Workers <= 0 {
		cfg.Broadcast.Workers = 4
	}
	if cfg.Broadcast.ThrottlePerSec <= 0 {
		cfg.Broadcast.ThrottlePerSec = 25
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Web.SessionTTL <= 0 {
		cfg.Web.SessionTTL = 30 * time.Minute
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "ru"
	}

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Weather.APIKey == "" {
		return nil, errors.New("weather.api_key is required")
	}
	if cfg.DefaultLanguage != "ru" && cfg.DefaultLanguage != "en" {
		return nil, fmt.Errorf("default_language must be ru or en, got %q", cfg.DefaultLanguage)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
