package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvServerBaseURL = "FEEDPULSE_API_URL"
	EnvDBPath        = "FEEDPULSE_DB"
	EnvLogFormat     = "FEEDPULSE_LOG_FORMAT"
	EnvLogLevel      = "FEEDPULSE_LOG_LEVEL"
)

// dotenvFiles is a test seam.
var dotenvFiles = []string{".env"}

// parseEnv overlays cfg with FEEDPULSE_* variables. A missing .env file is
// fine; godotenv never overrides variables that are already set.
func parseEnv(cfg *Config) {
	for _, f := range dotenvFiles {
		_ = godotenv.Load(f)
	}

	set := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	set(EnvServerBaseURL, &cfg.ServerBaseURL)
	set(EnvDBPath, &cfg.DBPath)
	set(EnvLogFormat, &cfg.LogFormat)
	set(EnvLogLevel, &cfg.LogLevel)
}
