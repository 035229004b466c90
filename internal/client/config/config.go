package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds runtime settings for the FeedPulse CLI.
//
// Fields:
//   - ServerBaseURL: origin of the feedback backend, e.g. http://127.0.0.1:8000.
//   - RequestTimeout: per-request timeout; zero disables it.
//   - HealthCheckInterval: how often the client probes /health.
//   - DBPath: SQLite file holding the persisted session.
//   - LogFormat / LogLevel: see package logging.
type Config struct {
	ServerBaseURL       string
	RequestTimeout      time.Duration
	HealthCheckInterval time.Duration
	DBPath              string
	LogFormat           string
	LogLevel            string
}

const (
	DefaultServerBaseURL = "http://127.0.0.1:8000"
	DefaultDBPath        = "feedpulse.db"

	DefaultRequestTimeout      = 30 * time.Second
	DefaultHealthCheckInterval = 10 * time.Second
)

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = DefaultServerBaseURL
	c.RequestTimeout = DefaultRequestTimeout
	c.HealthCheckInterval = DefaultHealthCheckInterval
	c.DBPath = DefaultDBPath
	c.LogFormat = "text"
	c.LogLevel = "info"
}

// LoadConfig builds a Config from defaults, then the config file, then the
// environment (including a .env file), then command-line flags. Later
// sources override earlier ones.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseFile(cfg, args); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	parseEnv(cfg)
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}
