package config

import (
	"net/url"
	"strconv"
	"strings"

	ferrors "git.home.luguber.info/inful/freezer/internal/foundation/errors"
)

// Validate checks the configuration for values a build cannot run with.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return invalid("unsupported configuration version", "version", c.Version)
	}
	if c.Site.BaseURL != "" || c.Build.Sitemap.Enabled {
		if !absoluteHTTP(c.Site.BaseURL) {
			return invalid("site.base_url must be an absolute http(s) URL", "base_url", c.Site.BaseURL)
		}
	}
	if c.Site.Origin != "" && !absoluteHTTP(c.Site.Origin) {
		return invalid("site.origin must be an absolute http(s) URL", "origin", c.Site.Origin)
	}
	if strings.TrimSpace(c.Output.Directory) == "" {
		return invalid("output.directory is required", "directory", c.Output.Directory)
	}
	if strings.Contains(c.Build.Sitemap.Filename, "/") {
		return invalid("build.sitemap.filename must be a file name", "filename", c.Build.Sitemap.Filename)
	}

	seen := make(map[string]bool, len(c.Routes))
	for _, r := range c.Routes {
		if strings.TrimSpace(r.Path) == "" {
			return invalid("route path is required", "route", r.Name)
		}
		if seen[r.Name] {
			return invalid("duplicate route name", "route", r.Name)
		}
		seen[r.Name] = true
	}
	for _, a := range c.Assets {
		if err := a.Validate(); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid asset entry").
				Fatal().UserAction().WithContext("src", a.Src).Build()
		}
	}
	if c.Render.Retry.MaxRetries < 0 {
		return invalid("render.retry.max_retries must not be negative", "max_retries", strconv.Itoa(c.Render.Retry.MaxRetries))
	}
	switch c.Render.Retry.Backoff {
	case "", "fixed", "linear", "exponential":
	default:
		return invalid("render.retry.backoff must be fixed, linear or exponential", "backoff", c.Render.Retry.Backoff)
	}
	if c.Events.Retain < 0 {
		return invalid("events.retain must not be negative", "retain", strconv.Itoa(c.Events.Retain))
	}
	if c.Daemon.Interval < 0 {
		return invalid("daemon.interval must not be negative", "interval", c.Daemon.Interval.String())
	}
	return nil
}

func absoluteHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func invalid(msg, key, value string) error {
	return ferrors.ConfigError(msg).WithContext(key, value).Build()
}
