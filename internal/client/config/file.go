package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/feedpulse/internal/flagx"
	"gopkg.in/yaml.v3"
)

// Duration accepts "3s"-style strings or integer nanoseconds in JSON and YAML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return d.set(v)
}

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var v any
	if err := n.Decode(&v); err != nil {
		return err
	}
	return d.set(v)
}

func (d *Duration) set(v any) error {
	switch x := v.(type) {
	case string:
		parsed, err := time.ParseDuration(x)
		if err != nil {
			return err
		}
		d.Duration = parsed
	case float64:
		d.Duration = time.Duration(x)
	case int:
		d.Duration = time.Duration(x)
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
	return nil
}

// FileConfig is the on-disk shape. Pointer-free zero values mean "not set".
type FileConfig struct {
	ServerBaseURL       string   `json:"server_base_url" yaml:"server_base_url"`
	RequestTimeout      Duration `json:"request_timeout" yaml:"request_timeout"`
	HealthCheckInterval Duration `json:"health_check_interval" yaml:"health_check_interval"`
	DBPath              string   `json:"db_path" yaml:"db_path"`
	LogFormat           string   `json:"log_format" yaml:"log_format"`
	LogLevel            string   `json:"log_level" yaml:"log_level"`
}

// parseFile overlays cfg with the file named by -c/-config. Missing flag
// means nothing to do; an unreadable or malformed file is an error.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc FileConfig) apply(cfg *Config) {
	if fc.ServerBaseURL != "" {
		cfg.ServerBaseURL = fc.ServerBaseURL
	}
	if fc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.HealthCheckInterval.Duration != 0 {
		cfg.HealthCheckInterval = fc.HealthCheckInterval.Duration
	}
	if fc.DBPath != "" {
		cfg.DBPath = fc.DBPath
	}
	if fc.LogFormat != "" {
		cfg.LogFormat = fc.LogFormat
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
}
