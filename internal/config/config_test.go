package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	ferrors "git.home.luguber.info/inful/freezer/internal/foundation/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "freezer.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `version: "1"
site:
  base_url: https://www.example.com
  origin: http://localhost:8080
output:
  directory: ./public
routes:
  - name: index
    path: /
  - name: post
    path: /blog/:slug
  - name: login
    path: /login
    methods: [post]
  - name: feed
    path: /feed.xml
    sitemap: false
assets:
  - src: static
    ignore_dot_files: true
    exclude: ["*.map"]
build:
  sitemap:
    filename: map.xml
render:
  timeout: 5s
  headers:
    X-Freezer: "1"
logging:
  level: DEBUG
  format: json
daemon:
  interval: 10m
  watch: [templates]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Output.Directory != filepath.Join(filepath.Dir(path), "public") {
		t.Errorf("Output.Directory = %q", cfg.Output.Directory)
	}
	if len(cfg.Routes) != 4 {
		t.Fatalf("Routes = %d, want 4", len(cfg.Routes))
	}
	if cfg.Routes[2].Methods[0] != "POST" {
		t.Errorf("methods not upper-cased: %v", cfg.Routes[2].Methods)
	}
	if !cfg.Build.Expose || !cfg.Build.Sitemap.Enabled {
		t.Errorf("phase toggles lost their defaults: %+v", cfg.Build)
	}
	if cfg.Build.Sitemap.Filename != "map.xml" {
		t.Errorf("Sitemap.Filename = %q", cfg.Build.Sitemap.Filename)
	}
	if !cfg.Render.DiscoverLinks {
		t.Error("DiscoverLinks should default to true")
	}
	if cfg.Render.Timeout != 5*time.Second {
		t.Errorf("Render.Timeout = %v", cfg.Render.Timeout)
	}
	if cfg.Logging.Level != LogLevelDebug || cfg.Logging.Format != LogFormatJSON {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Daemon.Interval != 10*time.Minute || cfg.Daemon.Debounce != defaultDebounce {
		t.Errorf("Daemon = %+v", cfg.Daemon)
	}
	if cfg.Dir() != filepath.Dir(path) {
		t.Errorf("Dir() = %q", cfg.Dir())
	}
	if want := filepath.Join(filepath.Dir(path), "static"); cfg.Assets[0].Src != want {
		t.Errorf("Assets[0].Src = %q, want %q", cfg.Assets[0].Src, want)
	}
	if want := filepath.Join(filepath.Dir(path), "templates"); cfg.Daemon.Watch[0] != want {
		t.Errorf("Daemon.Watch[0] = %q, want %q", cfg.Daemon.Watch[0], want)
	}
}

func TestResolve(t *testing.T) {
	cfg := Default()
	if got := cfg.Resolve("build"); got != "build" {
		t.Errorf("Resolve without a file = %q", got)
	}
	cfg.dir = "/srv/site"
	if got := cfg.Resolve("build"); got != "/srv/site/build" {
		t.Errorf("Resolve(build) = %q", got)
	}
	if got := cfg.Resolve("/abs"); got != "/abs" {
		t.Errorf("Resolve(/abs) = %q", got)
	}
	if got := cfg.Resolve(""); got != "" {
		t.Errorf("Resolve(\"\") = %q", got)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := Parse([]byte("site:\n  base_url: https://example.com\n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %q", cfg.Version)
	}
	if cfg.Output.Directory != defaultOutputDir {
		t.Errorf("Output.Directory = %q", cfg.Output.Directory)
	}
	if cfg.Build.Sitemap.Filename != "sitemap.xml" {
		t.Errorf("Sitemap.Filename = %q", cfg.Build.Sitemap.Filename)
	}
	if len(cfg.Routes) != 1 || cfg.Routes[0].Path != "/" {
		t.Errorf("Routes = %+v, want the site root", cfg.Routes)
	}
	if cfg.Render.Timeout != defaultRenderTimeout {
		t.Errorf("Render.Timeout = %v", cfg.Render.Timeout)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad version", "version: \"9\"\nsite: {base_url: https://example.com}\n"},
		{"sitemap without base url", "site: {origin: http://localhost}\n"},
		{"relative origin", "site: {base_url: https://example.com, origin: localhost:8080}\n"},
		{"empty route path", "site: {base_url: https://example.com}\nroutes: [{name: x}]\n"},
		{"duplicate route", "site: {base_url: https://example.com}\nroutes: [{name: a, path: /a}, {name: a, path: /b}]\n"},
		{"bad glob", "site: {base_url: https://example.com}\nassets: [{src: static, exclude: ['[']}]\n"},
		{"nested sitemap name", "site: {base_url: https://example.com}\nbuild: {sitemap: {filename: a/b.xml}}\n"},
		{"negative retries", "site: {base_url: https://example.com}\nrender: {retry: {max_retries: -1}}\n"},
		{"unknown backoff", "site: {base_url: https://example.com}\nrender: {retry: {max_retries: 2, backoff: random}}\n"},
		{"malformed yaml", "site: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !ferrors.HasCategory(err, ferrors.CategoryConfig) {
				t.Errorf("category = %s, want config", ferrors.GetCategory(err))
			}
		})
	}
}

func TestSitemapDisabledNeedsNoBaseURL(t *testing.T) {
	if _, err := Parse([]byte("build:\n  sitemap:\n    enabled: false\n")); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !ferrors.HasCategory(err, ferrors.CategoryConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestEnvironmentVariableExpansion(t *testing.T) {
	t.Setenv("FREEZER_TEST_ORIGIN", "http://127.0.0.1:9999")

	cfg, err := Parse([]byte("site:\n  base_url: https://example.com\n  origin: ${FREEZER_TEST_ORIGIN}\n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.Site.Origin != "http://127.0.0.1:9999" {
		t.Errorf("Origin = %q", cfg.Site.Origin)
	}
}

func TestEnvFileDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(".env", []byte("FREEZER_A=from-file\nFREEZER_B=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FREEZER_A", "from-env")
	t.Setenv("FREEZER_B", "")
	_ = os.Unsetenv("FREEZER_B")

	loadEnvFiles()

	if got := os.Getenv("FREEZER_A"); got != "from-env" {
		t.Errorf("FREEZER_A = %q", got)
	}
	if got := os.Getenv("FREEZER_B"); got != "from-file" {
		t.Errorf("FREEZER_B = %q", got)
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	if err := Init(path, false); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(example) error: %v", err)
	}
	if len(cfg.Routes) != 5 {
		t.Errorf("example routes = %d", len(cfg.Routes))
	}

	if err := Init(path, false); err == nil {
		t.Error("Init should refuse to overwrite without force")
	}
	if err := Init(path, true); err != nil {
		t.Errorf("Init(force) error: %v", err)
	}
}

func TestRouteSource(t *testing.T) {
	cfg, err := Parse([]byte(`site: {base_url: https://example.com}
routes:
  - {name: home, path: /}
  - {name: search, path: /search, params: [q]}
  - {name: admin, path: /admin, ignore: true}
  - {name: api, path: /api, methods: [POST]}
`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	eps, _ := cfg.RouteSource().Entrypoints()
	if len(eps) != 4 {
		t.Fatalf("entrypoints = %d", len(eps))
	}
	if !eps[1].RequiredParams.Has("q") {
		t.Error("params not carried over")
	}
	if !eps[2].IsIgnored() || eps[2].IsMapped() {
		t.Error("ignored route should be unmapped")
	}
	if eps[3].IsGettable() {
		t.Error("POST-only route should not be gettable")
	}
}

func TestNormalizeLogLevel(t *testing.T) {
	cases := map[string]LogLevel{"": LogLevelInfo, "Warning": LogLevelWarn, " error ": LogLevelError, "bogus": LogLevelInfo}
	for in, want := range cases {
		if got := NormalizeLogLevel(in); got != want {
			t.Errorf("NormalizeLogLevel(%q) = %q, want %q", in, got, want)
		}
	}
}
