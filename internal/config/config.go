package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/freezer/internal/assets"
	ferrors "git.home.luguber.info/inful/freezer/internal/foundation/errors"
)

// CurrentVersion is the only configuration schema version understood.
const CurrentVersion = "1"

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "freezer.yaml"

// Config is the freezer configuration file.
type Config struct {
	Version string         `yaml:"version"`
	Site    SiteConfig     `yaml:"site"`
	Output  OutputConfig   `yaml:"output"`
	Routes  []RouteConfig  `yaml:"routes,omitempty"`
	Assets  []assets.Entry `yaml:"assets,omitempty"`
	Build   BuildConfig    `yaml:"build"`
	Render  RenderConfig   `yaml:"render"`
	Logging LoggingConfig  `yaml:"logging"`
	Metrics MetricsConfig  `yaml:"metrics,omitempty"`
	Events  EventsConfig   `yaml:"events,omitempty"`
	Report  ReportConfig   `yaml:"report,omitempty"`
	Daemon  DaemonConfig   `yaml:"daemon,omitempty"`

	dir string
}

// SiteConfig describes where the application runs and where the frozen
// site will be published.
type SiteConfig struct {
	// BaseURL is the public URL of the frozen site, used for the sitemap
	// and same-origin link discovery.
	BaseURL string `yaml:"base_url"`
	// Origin is the running application pages are rendered from.
	Origin string `yaml:"origin"`
}

// OutputConfig represents output configuration.
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// BuildConfig toggles the optional pipeline phases.
type BuildConfig struct {
	// Expose copies the configured static assets into the output.
	Expose  bool          `yaml:"expose"`
	Sitemap SitemapConfig `yaml:"sitemap"`
}

// SitemapConfig controls sitemap generation.
type SitemapConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Filename string `yaml:"filename"`
}

// RenderConfig configures how pages are fetched from the origin.
type RenderConfig struct {
	Timeout       time.Duration     `yaml:"timeout"`
	UserAgent     string            `yaml:"user_agent,omitempty"`
	Headers       map[string]string `yaml:"headers,omitempty"`
	DiscoverLinks bool              `yaml:"discover_links"`
	Retry         RetryConfig       `yaml:"retry,omitempty"`
}

// RetryConfig retries renders that fail because the origin is unreachable
// or temporarily unavailable. MaxRetries 0 disables retries.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries,omitempty"`
	Backoff    string        `yaml:"backoff,omitempty"` // fixed|linear|exponential
	Initial    time.Duration `yaml:"initial,omitempty"`
	Max        time.Duration `yaml:"max,omitempty"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig enables Prometheus metrics.
type MetricsConfig struct {
	// Textfile, when set, receives the metrics after every build in the
	// node_exporter textfile format.
	Textfile string `yaml:"textfile,omitempty"`
	// Listen is the address the daemon serves /metrics on.
	Listen string `yaml:"listen,omitempty"`
}

// EventsConfig configures where build events are recorded.
type EventsConfig struct {
	// Database is a SQLite file receiving every build event.
	Database string `yaml:"database,omitempty"`
	// Retain keeps the events of this many recent builds; 0 keeps all.
	Retain int `yaml:"retain,omitempty"`
	// NATS publishes build events when URL is set.
	NATS NATSConfig `yaml:"nats,omitempty"`
}

// NATSConfig configures build event publishing over NATS.
type NATSConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// ReportConfig configures build report persistence.
type ReportConfig struct {
	Directory string `yaml:"directory,omitempty"`
}

// DaemonConfig configures periodic and on-change rebuilds.
type DaemonConfig struct {
	Interval time.Duration `yaml:"interval,omitempty"`
	Watch    []string      `yaml:"watch,omitempty"`
	Debounce time.Duration `yaml:"debounce,omitempty"`
}

// Dir returns the directory of the loaded configuration file.
func (c *Config) Dir() string {
	if c.dir == "" {
		return "."
	}
	return c.dir
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{
		Version: CurrentVersion,
		Build: BuildConfig{
			Expose:  true,
			Sitemap: SitemapConfig{Enabled: true},
		},
		Render: RenderConfig{DiscoverLinks: true},
	}
	applyDefaults(cfg)
	return cfg
}

// Load reads, defaults and validates the configuration at path. Relative
// paths in the file are resolved against the file's directory.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ferrors.ConfigError("configuration file not found").
			WithContext("path", path).
			Build()
	}
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read configuration").
			Fatal().WithContext("path", path).Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.dir = filepath.Dir(path)
	cfg.resolvePaths()
	return cfg, nil
}

// Parse decodes YAML configuration, expanding ${VAR} references from the
// environment. Fields absent from the document keep their defaults.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse configuration").
			Fatal().UserAction().Build()
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}

	example := Default()
	example.Site = SiteConfig{
		BaseURL: "https://www.example.com",
		Origin:  "http://localhost:8080",
	}
	example.Routes = []RouteConfig{
		{Name: "index", Path: "/"},
		{Name: "about", Path: "/about"},
		{Name: "post", Path: "/blog/:slug"},
		{Name: "admin", Path: "/admin", Ignore: true},
		{Name: "feed", Path: "/feed.xml", Sitemap: boolPtr(false)},
	}
	example.Assets = []assets.Entry{
		{Src: "static", IgnoreDotFiles: true, ExcludeGlobs: []string{"*.map"}},
	}
	example.Render.Headers = map[string]string{"X-Freezer": "1"}
	example.Report.Directory = ".freezer"

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("marshal example config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write configuration").
			Fatal().WithContext("path", path).Build()
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }
