package build

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/freezer/internal/config"
	ferrors "git.home.luguber.info/inful/freezer/internal/foundation/errors"
	"git.home.luguber.info/inful/freezer/internal/logfields"
	"git.home.luguber.info/inful/freezer/internal/metrics"
	"git.home.luguber.info/inful/freezer/internal/observability"
	"git.home.luguber.info/inful/freezer/internal/output"
	"git.home.luguber.info/inful/freezer/internal/render"
	"git.home.luguber.info/inful/freezer/internal/retry"
	"git.home.luguber.info/inful/freezer/internal/vcs"
)

// EngineFactory creates the render engine for a configuration.
type EngineFactory func(cfg *config.Config) (render.Engine, error)

// RevisionFunc reports the source revision of the project in dir.
type RevisionFunc func(dir string) (string, error)

// textfileWriter is implemented by recorders that can export to a
// node_exporter textfile.
type textfileWriter interface {
	WriteTextfile(path string) error
}

// DefaultBuildService is the standard implementation of BuildService.
type DefaultBuildService struct {
	recorder      metrics.Recorder
	sinks         []EventSink
	engineFactory EngineFactory
	revision      RevisionFunc
	newID         func() string
}

// NewBuildService creates a new DefaultBuildService with default factories.
func NewBuildService() *DefaultBuildService {
	return &DefaultBuildService{
		recorder:      metrics.NoopRecorder{},
		engineFactory: DefaultEngine,
		revision:      vcs.Revision,
		newID:         uuid.NewString,
	}
}

// WithRecorder sets the metrics recorder.
func (s *DefaultBuildService) WithRecorder(r metrics.Recorder) *DefaultBuildService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithEventSinks adds sinks receiving every build event.
func (s *DefaultBuildService) WithEventSinks(sinks ...EventSink) *DefaultBuildService {
	s.sinks = append(s.sinks, sinks...)
	return s
}

// WithEngineFactory replaces the engine factory (for testing).
func (s *DefaultBuildService) WithEngineFactory(f EngineFactory) *DefaultBuildService {
	s.engineFactory = f
	return s
}

// WithRevisionFunc replaces the source revision lookup.
func (s *DefaultBuildService) WithRevisionFunc(f RevisionFunc) *DefaultBuildService {
	s.revision = f
	return s
}

// WithIDGenerator replaces the build ID generator (for testing).
func (s *DefaultBuildService) WithIDGenerator(f func() string) *DefaultBuildService {
	s.newID = f
	return s
}

// DefaultEngine renders from the configured origin over HTTP, discovering
// links in rendered documents when enabled.
func DefaultEngine(cfg *config.Config) (render.Engine, error) {
	if cfg.Site.Origin == "" {
		return nil, ferrors.ConfigError("site.origin is required to render pages").Build()
	}
	e := render.NewHTTPEngine(cfg.Site.Origin, cfg.Render.Timeout)
	if cfg.Render.UserAgent != "" {
		e.UserAgent = cfg.Render.UserAgent
	}
	e.Headers = cfg.Render.Headers
	rc := cfg.Render.Retry
	e.Retry = retry.NewPolicy(retry.Mode(rc.Backoff), rc.Initial, rc.Max, rc.MaxRetries)
	if cfg.Render.DiscoverLinks {
		return render.Discover(e), nil
	}
	return e, nil
}

// Run executes a complete build.
func (s *DefaultBuildService) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	startTime := time.Now()
	buildID := s.newID()
	ctx = observability.WithBuildID(ctx, buildID)

	result := &BuildResult{BuildID: buildID, StartTime: startTime}
	fail := func(err error) (*BuildResult, error) {
		result.Status = BuildStatusFailed
		result.Err = err
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(startTime)
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
		s.finished(ctx, result)
		return result, err
	}

	if req.Config == nil {
		return fail(ferrors.ConfigError("config required").Build())
	}
	cfg := req.Config
	result.OutputPath = cfg.Output.Directory

	src := req.Routes
	if src == nil {
		src = cfg.RouteSource()
	}
	engine := req.Engine
	if engine == nil {
		var err error
		if engine, err = s.engineFactory(cfg); err != nil {
			return fail(err)
		}
	}

	revision := ""
	if s.revision != nil {
		rev, err := s.revision(cfg.Dir())
		if err != nil {
			observability.DebugContext(ctx, "No source revision available", logfields.Error(err))
		}
		revision = rev
	}

	observability.InfoContext(ctx, "Build started",
		logfields.Trigger(req.Trigger),
		logfields.Path(cfg.Output.Directory))

	pipeline := NewPipeline(src, engine, output.NewFileSink(cfg.Output.Directory), Options{
		Sitemap:         cfg.Build.Sitemap.Enabled,
		SitemapFilename: cfg.Build.Sitemap.Filename,
		Expose:          cfg.Build.Expose,
		Assets:          cfg.Assets,
		BaseURL:         cfg.Site.BaseURL,
	}).WithRecorder(s.recorder).WithBuildID(buildID)

	var runErr error
	for ev, err := range pipeline.Events(ctx) {
		if err != nil {
			runErr = err
			break
		}
		s.observe(ctx, ev)
		s.publish(ctx, buildID, ev)
	}

	report := pipeline.State().Report
	report.Revision = revision
	result.Report = report
	result.Pages = report.Pages
	result.SkippedRoutes = report.SkippedRoutes
	result.EndTime = report.End
	result.Duration = report.Duration()
	result.Err = runErr

	switch {
	case report.Outcome == OutcomeCanceled:
		result.Status = BuildStatusCancelled
	case runErr != nil:
		result.Status = BuildStatusFailed
	default:
		result.Status = BuildStatusSuccess
	}

	for _, w := range report.Warnings {
		observability.WarnContext(ctx, "Build warning", logfields.Error(w))
	}
	s.persist(ctx, cfg, report)
	s.finished(ctx, result)

	observability.InfoContext(ctx, "Build finished",
		slog.String("status", string(result.Status)),
		slog.Int("pages", result.Pages),
		slog.Int("skipped_routes", result.SkippedRoutes),
		logfields.DurationMS(float64(result.Duration.Milliseconds())))
	return result, runErr
}

func (s *DefaultBuildService) observe(ctx context.Context, ev Event) {
	if ev.IsPage() {
		observability.DebugContext(ctx, "Page written",
			logfields.URL(ev.Message),
			logfields.Done(ev.Advance),
			logfields.Total(ev.Total))
		return
	}
	observability.InfoContext(observability.WithPhase(ctx, string(ev.Phase)), ev.Message)
}

func (s *DefaultBuildService) publish(ctx context.Context, buildID string, ev Event) {
	for _, sink := range s.sinks {
		if err := sink.BuildEvent(ctx, buildID, ev); err != nil {
			observability.WarnContext(ctx, "Event sink failed", logfields.Error(err))
		}
	}
}

func (s *DefaultBuildService) finished(ctx context.Context, result *BuildResult) {
	for _, sink := range s.sinks {
		if err := sink.BuildFinished(ctx, result); err != nil {
			observability.WarnContext(ctx, "Event sink failed", logfields.Error(err))
		}
	}
}

// persist writes the report and metrics textfile when configured. Failures
// are logged and do not change the build outcome.
func (s *DefaultBuildService) persist(ctx context.Context, cfg *config.Config, report *Report) {
	if dir := cfg.Report.Directory; dir != "" {
		if err := report.Persist(dir); err != nil {
			observability.WarnContext(ctx, "Failed to persist build report", logfields.Path(dir), logfields.Error(err))
		}
	}
	if path := cfg.Metrics.Textfile; path != "" {
		if w, ok := s.recorder.(textfileWriter); ok {
			if err := w.WriteTextfile(path); err != nil {
				observability.WarnContext(ctx, "Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
			}
		}
	}
}
