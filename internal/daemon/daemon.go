// Package daemon keeps a frozen site current: it rebuilds on a schedule and
// when watched sources change, one build at a time.
package daemon

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/freezer/internal/build"
	"git.home.luguber.info/inful/freezer/internal/config"
	ferrors "git.home.luguber.info/inful/freezer/internal/foundation/errors"
	"git.home.luguber.info/inful/freezer/internal/logfields"
	"git.home.luguber.info/inful/freezer/internal/server"
)

// Build triggers.
const (
	TriggerStartup  = "startup"
	TriggerSchedule = "schedule"
	TriggerWatch    = "watch"
	TriggerAPI      = "api"
)

// Options configures a Daemon beyond its configuration file.
type Options struct {
	// ConfigPath is reloaded before every build when set. Interval, watch
	// paths and the listen address are read once at startup.
	ConfigPath string
	// Registry is served on metrics.listen together with the daemon's own
	// collectors.
	Registry *prom.Registry
}

// Daemon runs builds through a BuildService.
type Daemon struct {
	service build.BuildService
	opts    Options
	runner  *Runner

	mu   sync.RWMutex
	cfg  *config.Config
	last *build.BuildResult

	builds    atomic.Int64
	failures  atomic.Int64
	startedAt time.Time
}

// New returns a daemon building cfg with service.
func New(service build.BuildService, cfg *config.Config, opts Options) *Daemon {
	d := &Daemon{service: service, opts: opts, cfg: cfg}
	d.runner = NewRunner(d.build)
	return d
}

// Run performs an initial build, then rebuilds on schedule and on change
// until ctx ends. It waits for a running build to finish before returning.
func (d *Daemon) Run(ctx context.Context) error {
	cfg := d.config()
	if cfg.Daemon.Interval <= 0 && len(cfg.Daemon.Watch) == 0 {
		return ferrors.DaemonError("daemon needs daemon.interval or daemon.watch").Build()
	}
	d.startedAt = time.Now()

	var wg sync.WaitGroup
	var serveErr error
	if cfg.Metrics.Listen != "" {
		e := d.newServer(ctx)
		wg.Add(1)
		go func() {
			defer wg.Done()
			slog.Info("Daemon HTTP server listening", slog.String("addr", cfg.Metrics.Listen))
			serveErr = server.Serve(ctx, e, cfg.Metrics.Listen)
		}()
	}

	d.Trigger(ctx, TriggerStartup)

	if cfg.Daemon.Interval > 0 {
		scheduler, err := NewScheduler()
		if err != nil {
			return ferrors.DaemonError("failed to start scheduler").WithCause(err).Build()
		}
		if _, err := scheduler.SchedulePeriodicBuild(ctx, cfg.Daemon.Interval, d.runner); err != nil {
			return ferrors.DaemonError("failed to schedule builds").WithCause(err).Build()
		}
		scheduler.Start()
		defer func() {
			if err := scheduler.Stop(); err != nil {
				slog.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}

	if len(cfg.Daemon.Watch) > 0 {
		watcher, err := NewWatcher(d.watchPaths(cfg), cfg.Daemon.Debounce, func() {
			d.Trigger(ctx, TriggerWatch)
		})
		if err != nil {
			return ferrors.DaemonError("failed to create watcher").WithCause(err).Build()
		}
		ignoreOutputs(watcher, cfg)
		if err := watcher.Start(ctx); err != nil {
			_ = watcher.Stop()
			return ferrors.DaemonError("failed to start watcher").WithCause(err).Build()
		}
		defer func() { _ = watcher.Stop() }()
	}

	<-ctx.Done()
	slog.Info("Daemon stopping")
	d.runner.Wait()
	wg.Wait()
	return serveErr
}

// Trigger requests a build; requests during a running build coalesce.
func (d *Daemon) Trigger(ctx context.Context, reason string) {
	if !d.runner.Trigger(ctx, reason) {
		slog.Debug("Build request coalesced", logfields.Trigger(reason))
	}
}

func (d *Daemon) build(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	cfg := d.reload()

	result, err := d.service.Run(ctx, build.BuildRequest{Config: cfg, Trigger: reason})
	d.builds.Add(1)
	if err != nil {
		d.failures.Add(1)
		slog.Error("Build failed", logfields.Trigger(reason), logfields.Error(err))
	}
	if result != nil {
		d.mu.Lock()
		d.last = result
		d.mu.Unlock()
	}
}

// reload returns the configuration for the next build, keeping the current
// one when the file fails to load.
func (d *Daemon) reload() *config.Config {
	if d.opts.ConfigPath == "" {
		return d.config()
	}
	cfg, err := config.Load(d.opts.ConfigPath)
	if err != nil {
		slog.Warn("Config reload failed; keeping previous configuration",
			logfields.Path(d.opts.ConfigPath), logfields.Error(err))
		return d.config()
	}
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()
	return cfg
}

func (d *Daemon) config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// LastResult returns the most recent build result, or nil.
func (d *Daemon) LastResult() *build.BuildResult {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.last
}

// watchPaths returns the configured watch paths plus the config file.
func (d *Daemon) watchPaths(cfg *config.Config) []string {
	paths := slices.Clone(cfg.Daemon.Watch)
	if d.opts.ConfigPath != "" {
		paths = append(paths, d.opts.ConfigPath)
	}
	return paths
}

// ignoreOutputs keeps files the build itself writes from retriggering it.
func ignoreOutputs(w *Watcher, cfg *config.Config) {
	w.IgnoreDir(cfg.Output.Directory)
	if cfg.Report.Directory != "" {
		w.IgnoreDir(cfg.Report.Directory)
	}
	if cfg.Events.Database != "" {
		w.IgnoreFile(cfg.Events.Database)
	}
	if cfg.Metrics.Textfile != "" {
		w.IgnoreFile(cfg.Metrics.Textfile)
	}
}
