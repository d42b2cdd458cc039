package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/freezer/internal/config"
	ferrors "git.home.luguber.info/inful/freezer/internal/foundation/errors"
	"git.home.luguber.info/inful/freezer/internal/metrics"
	"git.home.luguber.info/inful/freezer/internal/render"
	"git.home.luguber.info/inful/freezer/internal/retry"
)

// recordingSink captures everything a service publishes.
type recordingSink struct {
	mu       sync.Mutex
	events   []Event
	finished []*BuildResult
	err      error
}

func (s *recordingSink) BuildEvent(_ context.Context, _ string, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func (s *recordingSink) BuildFinished(_ context.Context, r *BuildResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = append(s.finished, r)
	return s.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Site.BaseURL = testBaseURL
	cfg.Output.Directory = filepath.Join(t.TempDir(), "site")
	cfg.Routes = []config.RouteConfig{
		{Name: "home", Path: "/"},
		{Name: "about", Path: "/about"},
		{Name: "post", Path: "/blog/:slug"},
	}
	return cfg
}

func testService() *DefaultBuildService {
	return NewBuildService().
		WithIDGenerator(func() string { return "build-1" }).
		WithRevisionFunc(func(string) (string, error) { return "abc123", nil })
}

func TestBuildStatus_IsSuccess(t *testing.T) {
	tests := []struct {
		status   BuildStatus
		expected bool
	}{
		{BuildStatusSuccess, true},
		{BuildStatusFailed, false},
		{BuildStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsSuccess(); got != tt.expected {
				t.Errorf("IsSuccess() = %v, want %v", got, tt.expected)
			}
			if !tt.status.IsTerminal() {
				t.Errorf("IsTerminal() = false for %s", tt.status)
			}
		})
	}
	if BuildStatus("running").IsTerminal() {
		t.Error("unknown status should not be terminal")
	}
}

func TestDefaultBuildService_Run_NilConfig(t *testing.T) {
	sink := &recordingSink{}
	result, err := testService().WithEventSinks(sink).Run(t.Context(), BuildRequest{})

	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	require.Equal(t, BuildStatusFailed, result.Status)
	require.Len(t, sink.finished, 1)
}

func TestDefaultBuildService_Run(t *testing.T) {
	cfg := testConfig(t)
	cfg.Report.Directory = filepath.Join(t.TempDir(), "reports")
	sink := &recordingSink{}

	result, err := testService().WithEventSinks(sink).Run(t.Context(), BuildRequest{
		Config:  cfg,
		Engine:  render.NewHandlerEngine(testSite()),
		Trigger: "cli",
	})
	require.NoError(t, err)

	require.Equal(t, "build-1", result.BuildID)
	require.Equal(t, BuildStatusSuccess, result.Status)
	require.Equal(t, 2, result.Pages)
	require.Equal(t, 1, result.SkippedRoutes)
	require.Equal(t, cfg.Output.Directory, result.OutputPath)
	require.Equal(t, "abc123", result.Report.Revision)
	require.False(t, result.EndTime.Before(result.StartTime))

	files := readTree(t, cfg.Output.Directory)
	require.Contains(t, files, "index.html")
	require.Contains(t, files, "about/index.html")
	require.Contains(t, files, "sitemap.xml")

	require.NotEmpty(t, sink.events)
	require.Equal(t, PhaseStart, sink.events[0].Phase)
	require.Equal(t, PhaseEnd, sink.events[len(sink.events)-1].Phase)
	require.Len(t, sink.finished, 1)
	require.Same(t, result, sink.finished[0])

	data, err := os.ReadFile(filepath.Join(cfg.Report.Directory, "build-report.json"))
	require.NoError(t, err)
	require.Contains(t, string(data), `"revision": "abc123"`)
	require.FileExists(t, filepath.Join(cfg.Report.Directory, "build-report.txt"))
}

func TestDefaultBuildService_Run_UsesEngineFactory(t *testing.T) {
	cfg := testConfig(t)
	var got *config.Config
	svc := testService().WithEngineFactory(func(c *config.Config) (render.Engine, error) {
		got = c
		return render.NewHandlerEngine(testSite()), nil
	})

	result, err := svc.Run(t.Context(), BuildRequest{Config: cfg})
	require.NoError(t, err)
	require.Same(t, cfg, got)
	require.Equal(t, 2, result.Pages)
}

func TestDefaultBuildService_Run_EngineFactoryError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Site.Origin = ""

	result, err := testService().Run(t.Context(), BuildRequest{Config: cfg})
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	require.Equal(t, BuildStatusFailed, result.Status)
	require.NoDirExists(t, cfg.Output.Directory)
}

func TestDefaultBuildService_Run_RenderFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Routes = append(cfg.Routes, config.RouteConfig{Name: "broken", Path: "/broken"})
	sink := &recordingSink{}

	result, err := testService().WithEventSinks(sink).Run(t.Context(), BuildRequest{
		Config: cfg,
		Engine: render.NewHandlerEngine(testSite()),
	})
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryRender))
	require.Equal(t, BuildStatusFailed, result.Status)
	require.ErrorIs(t, result.Err, err)
	require.Equal(t, OutcomeFailed, result.Report.Outcome)
	require.Len(t, sink.finished, 1)
}

func TestDefaultBuildService_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	result, err := testService().Run(ctx, BuildRequest{
		Config: testConfig(t),
		Engine: render.NewHandlerEngine(testSite()),
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, BuildStatusCancelled, result.Status)
}

func TestDefaultBuildService_Run_SinkErrorsDoNotFailBuild(t *testing.T) {
	sink := &recordingSink{err: errors.New("sink down")}

	result, err := testService().WithEventSinks(sink).Run(t.Context(), BuildRequest{
		Config: testConfig(t),
		Engine: render.NewHandlerEngine(testSite()),
	})
	require.NoError(t, err)
	require.Equal(t, BuildStatusSuccess, result.Status)
	require.NotEmpty(t, sink.events)
}

func TestDefaultBuildService_Run_WritesMetricsTextfile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Textfile = filepath.Join(t.TempDir(), "freezer.prom")
	recorder := metrics.NewPrometheusRecorder(prometheus.NewRegistry())

	_, err := testService().WithRecorder(recorder).Run(t.Context(), BuildRequest{
		Config: cfg,
		Engine: render.NewHandlerEngine(testSite()),
	})
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), "freezer_pages_built_total 2"), string(data))
}

func TestDefaultBuildService_Run_RevisionErrorIsIgnored(t *testing.T) {
	svc := testService().WithRevisionFunc(func(string) (string, error) {
		return "", errors.New("not a repository")
	})

	result, err := svc.Run(t.Context(), BuildRequest{
		Config: testConfig(t),
		Engine: render.NewHandlerEngine(testSite()),
	})
	require.NoError(t, err)
	require.Empty(t, result.Report.Revision)
}

func TestDefaultEngine(t *testing.T) {
	cfg := config.Default()
	_, err := DefaultEngine(cfg)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	cfg.Site.Origin = "http://127.0.0.1:8080"
	cfg.Render.UserAgent = "test-agent"
	engine, err := DefaultEngine(cfg)
	require.NoError(t, err)
	d, ok := engine.(*render.Discoverer)
	require.True(t, ok)
	h, ok := d.Engine.(*render.HTTPEngine)
	require.True(t, ok)
	require.Equal(t, "test-agent", h.UserAgent)
	require.Zero(t, h.Retry.MaxRetries)

	cfg.Render.Retry = config.RetryConfig{MaxRetries: 4, Backoff: "exponential"}
	engine, err = DefaultEngine(cfg)
	require.NoError(t, err)
	h = engine.(*render.Discoverer).Engine.(*render.HTTPEngine)
	require.Equal(t, 4, h.Retry.MaxRetries)
	require.Equal(t, retry.ModeExponential, h.Retry.Mode)

	cfg.Render.DiscoverLinks = false
	engine, err = DefaultEngine(cfg)
	require.NoError(t, err)
	require.IsType(t, &render.HTTPEngine{}, engine)
}
