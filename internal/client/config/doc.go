// Package config loads runtime configuration for the FeedPulse CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config. Files ending in
//     .yaml or .yml are read as YAML, anything else as JSON.
//  3. Environment variables, after loading a .env file from the working
//     directory if one exists. Variables already set win over .env.
//  4. Command-line flags.
//
// Supported flags
//
//	-a string   backend base URL
//	-d string   session database file
//	-t int      request timeout (seconds, 0 disables)
//	-i int      health check interval (seconds)
//
// Environment
//
//	FEEDPULSE_API_URL      backend base URL
//	FEEDPULSE_DB           session database file
//	FEEDPULSE_LOG_FORMAT   text | json | zap
//	FEEDPULSE_LOG_LEVEL    debug | info | warn | error
//
// # File schema
//
// Durations accept Go duration strings ("15s") or integer nanoseconds:
//
//	{
//	  "server_base_url": "http://127.0.0.1:8000",
//	  "request_timeout": "30s",
//	  "health_check_interval": "10s",
//	  "db_path": "feedpulse.db",
//	  "log_format": "text",
//	  "log_level": "info"
//	}
package config
