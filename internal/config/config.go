// Package config loads runtime configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Jobs      JobsConfig
	Retention RetentionConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            string        `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type BrowserConfig struct {
	Headless       bool          `env:"BROWSER_HEADLESS" envDefault:"true"`
	Timeout        time.Duration `env:"BROWSER_TIMEOUT" envDefault:"30s"`
	ViewportWidth  int           `env:"BROWSER_VIEWPORT_WIDTH" envDefault:"1920"`
	ViewportHeight int           `env:"BROWSER_VIEWPORT_HEIGHT" envDefault:"1080"`
	Locale         string        `env:"BROWSER_LOCALE" envDefault:"en-US"`
	TimezoneID     string        `env:"BROWSER_TIMEZONE" envDefault:"Africa/Cairo"`
	DelayMin       time.Duration `env:"SCRAPER_DELAY_MIN" envDefault:"1s"`
	DelayMax       time.Duration `env:"SCRAPER_DELAY_MAX" envDefault:"3s"`
	RetryBaseDelay time.Duration `env:"SCRAPER_RETRY_BASE_DELAY" envDefault:"1s"`
}

type DatabaseConfig struct {
	Host        string        `env:"DB_HOST" envDefault:"localhost"`
	Port        int           `env:"DB_PORT" envDefault:"5432"`
	User        string        `env:"DB_USER" envDefault:"pricecart"`
	Password    string        `env:"DB_PASSWORD" envDefault:"pricecart"`
	Database    string        `env:"DB_NAME" envDefault:"pricecart"`
	MaxConns    int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	MinConns    int32         `env:"DB_MIN_CONNS" envDefault:"2"`
	MaxConnLife time.Duration `env:"DB_MAX_CONN_LIFE" envDefault:"1h"`
	MaxConnIdle time.Duration `env:"DB_MAX_CONN_IDLE" envDefault:"30m"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	RelayPollInterval time.Duration `env:"RELAY_POLL_INTERVAL" envDefault:"5s"`
	RelayBatchSize    int           `env:"RELAY_BATCH_SIZE" envDefault:"100"`
}

type JobsConfig struct {
	Workers          int           `env:"SCRAPE_WORKERS" envDefault:"2"`
	ScheduleInterval time.Duration `env:"SCHEDULE_INTERVAL" envDefault:"5m"`
	RunTimeout       time.Duration `env:"SCRAPE_RUN_TIMEOUT" envDefault:"20m"`
}

type RetentionConfig struct {
	Window   time.Duration `env:"RETENTION_WINDOW" envDefault:"2160h"`
	Interval time.Duration `env:"RETENTION_INTERVAL" envDefault:"24h"`
}

type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Browser.DelayMin > c.Browser.DelayMax {
		return fmt.Errorf("SCRAPER_DELAY_MIN (%s) exceeds SCRAPER_DELAY_MAX (%s)",
			c.Browser.DelayMin, c.Browser.DelayMax)
	}
	if c.Jobs.Workers < 1 {
		return fmt.Errorf("SCRAPE_WORKERS must be at least 1, got %d", c.Jobs.Workers)
	}
	if c.Retention.Window <= 0 {
		return fmt.Errorf("RETENTION_WINDOW must be positive, got %s", c.Retention.Window)
	}
	return nil
}
