package config

import (
	"strings"
	"time"

	"git.home.luguber.info/inful/freezer/internal/sitemap"
)

const (
	defaultOutputDir     = "./build"
	defaultRenderTimeout = 30 * time.Second
	defaultDebounce      = 500 * time.Millisecond
	defaultNATSSubject   = "freezer.builds"
)

// applyDefaults fills empty fields and normalizes enumerations.
func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = defaultOutputDir
	}
	if cfg.Build.Sitemap.Filename == "" {
		cfg.Build.Sitemap.Filename = sitemap.DefaultFilename
	}
	if cfg.Render.Timeout <= 0 {
		cfg.Render.Timeout = defaultRenderTimeout
	}
	if cfg.Daemon.Debounce <= 0 {
		cfg.Daemon.Debounce = defaultDebounce
	}
	if cfg.Events.NATS.URL != "" && cfg.Events.NATS.Subject == "" {
		cfg.Events.NATS.Subject = defaultNATSSubject
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))

	// A config with no routes still freezes the site root; everything else is
	// reached through link discovery.
	if len(cfg.Routes) == 0 {
		cfg.Routes = []RouteConfig{{Name: "index", Path: "/"}}
	}
	for i := range cfg.Routes {
		r := &cfg.Routes[i]
		if r.Name == "" {
			r.Name = r.Path
		}
		for j, m := range r.Methods {
			r.Methods[j] = strings.ToUpper(strings.TrimSpace(m))
		}
	}
}
