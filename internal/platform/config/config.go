// Package config loads application configuration from a YAML file and the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is read when CONFIG_FILE is unset. A missing file is not an error.
	DefaultConfigFile = "config.yaml"

	defaultPort              = "3000"
	defaultDataFile          = "./engine_xie_data.json"
	defaultPexelsBaseURL     = "https://api.pexels.com"
	defaultTickInterval      = 60 * time.Second
	defaultNewsCheckInterval = 60 * time.Second
	defaultImageTimeout      = 10 * time.Second
	defaultPexelsRateLimit   = 200
	defaultSQLiteDSN         = "./engine_xie_candles.db"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port            string `yaml:"port"`
		CORSAllowOrigin string `yaml:"cors_allow_origin"`
	} `yaml:"server"`
	Ticker struct {
		AdminPassword     string        `yaml:"admin_password"`
		DataFile          string        `yaml:"data_file"`
		TickInterval      time.Duration `yaml:"tick_interval"`
		NewsCheckInterval time.Duration `yaml:"news_check_interval"`
	} `yaml:"ticker"`
	Pexels struct {
		APIKey    string        `yaml:"api_key"`
		BaseURL   string        `yaml:"base_url"`
		Timeout   time.Duration `yaml:"timeout"`
		RateLimit int           `yaml:"rate_limit_per_hour"`
	} `yaml:"pexels"`
	Database struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`
	Redis struct {
		Host     string        `yaml:"host"`
		Port     string        `yaml:"port"`
		Password string        `yaml:"password"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

// Path returns the config file location, honoring CONFIG_FILE.
func Path() string {
	if v := os.Getenv("CONFIG_FILE"); v != "" {
		return v
	}
	return DefaultConfigFile
}

// Load reads config from a YAML file, then applies environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.CORSAllowOrigin, "CORS_ALLOW_ORIGIN")
	setString(&c.Ticker.AdminPassword, "ADMIN_PASSWORD")
	setString(&c.Ticker.DataFile, "DATA_FILE")
	setString(&c.Pexels.APIKey, "PEXELS_API_KEY")
	setString(&c.Pexels.BaseURL, "PEXELS_BASE_URL")
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.DSN, "DB_DSN")
	setString(&c.Redis.Host, "REDIS_HOST")
	setString(&c.Redis.Port, "REDIS_PORT")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.File, "LOG_FILE")

	if err := setDuration(&c.Ticker.TickInterval, "TICK_INTERVAL"); err != nil {
		return err
	}
	if err := setDuration(&c.Ticker.NewsCheckInterval, "NEWS_CHECK_INTERVAL"); err != nil {
		return err
	}
	if v := os.Getenv("PEXELS_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PEXELS_RATE_LIMIT: %w", err)
		}
		c.Pexels.RateLimit = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = defaultPort
	}
	if c.Ticker.DataFile == "" {
		c.Ticker.DataFile = defaultDataFile
	}
	if c.Ticker.TickInterval <= 0 {
		c.Ticker.TickInterval = defaultTickInterval
	}
	if c.Ticker.NewsCheckInterval <= 0 {
		c.Ticker.NewsCheckInterval = defaultNewsCheckInterval
	}
	if c.Pexels.BaseURL == "" {
		c.Pexels.BaseURL = defaultPexelsBaseURL
	}
	if c.Pexels.Timeout <= 0 {
		c.Pexels.Timeout = defaultImageTimeout
	}
	if c.Pexels.RateLimit <= 0 {
		c.Pexels.RateLimit = defaultPexelsRateLimit
	}
	if c.Database.Driver == "sqlite" && c.Database.DSN == "" {
		c.Database.DSN = defaultSQLiteDSN
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// RedisEnabled reports whether a Redis address was configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

// DatabaseEnabled reports whether a candle archive database was configured.
func (c *Config) DatabaseEnabled() bool {
	return c.Database.Driver != ""
}

// Validate checks combinations that cannot work at runtime.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server.port must be numeric: %q", c.Server.Port)
	}
	switch c.Database.Driver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for postgres")
	}
	for _, origin := range strings.Split(c.Server.CORSAllowOrigin, ",") {
		origin = strings.TrimSpace(origin)
		if origin == "" || origin == "*" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("server.cors_allow_origin: %q must be * or an http(s) origin such as https://example.com", origin)
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
