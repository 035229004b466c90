package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/feedpulse/internal/flagx"
)

// parseFlags populates Config from the flags it owns. Other flags in args
// are filtered out first so they do not make the parse fail.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-t", "-i"})

	fs := flag.NewFlagSet("feedpulse", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerBaseURL, "a", cfg.ServerBaseURL, "backend base URL")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "session database file")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds, 0 disables)")
	interval := fs.Int("i", int(cfg.HealthCheckInterval.Seconds()), "health check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		case "i":
			cfg.HealthCheckInterval = time.Duration(*interval) * time.Second
		}
	})
	return nil
}
