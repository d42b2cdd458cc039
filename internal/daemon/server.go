package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/freezer/internal/build"
	"git.home.luguber.info/inful/freezer/internal/logfields"
	"git.home.luguber.info/inful/freezer/internal/metrics"
	"git.home.luguber.info/inful/freezer/internal/server"
)

// Status is the JSON body of GET /status.
type Status struct {
	Running       bool       `json:"running"`
	Builds        int64      `json:"builds"`
	Failures      int64      `json:"failures"`
	UptimeSeconds float64    `json:"uptime_seconds"`
	LastBuild     *LastBuild `json:"last_build,omitempty"`
}

// LastBuild summarizes the most recent build.
type LastBuild struct {
	BuildID       string    `json:"build_id"`
	Status        string    `json:"status"`
	Outcome       string    `json:"outcome,omitempty"`
	Pages         int       `json:"pages"`
	SkippedRoutes int       `json:"skipped_routes"`
	Warnings      int       `json:"warnings"`
	Revision      string    `json:"revision,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	DurationMS    int64     `json:"duration_ms"`
	Error         string    `json:"error,omitempty"`
}

func lastBuildFrom(r *build.BuildResult) *LastBuild {
	if r == nil {
		return nil
	}
	s := &LastBuild{
		BuildID:       r.BuildID,
		Status:        string(r.Status),
		Pages:         r.Pages,
		SkippedRoutes: r.SkippedRoutes,
		StartedAt:     r.StartTime,
		DurationMS:    r.Duration.Milliseconds(),
	}
	if r.Report != nil {
		s.Outcome = string(r.Report.Outcome)
		s.Warnings = len(r.Report.Warnings)
		s.Revision = r.Report.Revision
	}
	if r.Err != nil {
		s.Error = r.Err.Error()
	}
	return s
}

// Status returns a snapshot of the daemon's state.
func (d *Daemon) Status() Status {
	s := Status{
		Running:   d.runner.Running(),
		Builds:    d.builds.Load(),
		Failures:  d.failures.Load(),
		LastBuild: lastBuildFrom(d.LastResult()),
	}
	if !d.startedAt.IsZero() {
		s.UptimeSeconds = time.Since(d.startedAt).Seconds()
	}
	return s
}

// newServer builds the daemon's HTTP surface. Builds triggered over HTTP
// run under ctx, not the request context.
func (d *Daemon) newServer(ctx context.Context) *echo.Echo {
	reg := d.opts.Registry
	if reg == nil {
		reg = prom.NewRegistry()
	}
	d.registerCollectors(reg)

	e := server.New(slog.Default())
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/status", func(c echo.Context) error {
		return c.JSON(http.StatusOK, d.Status())
	})
	e.POST("/build", func(c echo.Context) error {
		started := d.runner.Trigger(ctx, TriggerAPI)
		return c.JSON(http.StatusAccepted, map[string]bool{"started": started})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.HTTPHandler(reg)))
	return e
}

func (d *Daemon) registerCollectors(reg prom.Registerer) {
	for _, c := range []prom.Collector{
		prom.NewCounterFunc(prom.CounterOpts{
			Name: "freezer_daemon_builds_total",
			Help: "Builds run by the daemon",
		}, func() float64 { return float64(d.builds.Load()) }),
		prom.NewCounterFunc(prom.CounterOpts{
			Name: "freezer_daemon_build_failures_total",
			Help: "Daemon builds that returned an error",
		}, func() float64 { return float64(d.failures.Load()) }),
		prom.NewGaugeFunc(prom.GaugeOpts{
			Name: "freezer_daemon_build_running",
			Help: "1 while a build is in progress",
		}, func() float64 {
			if d.runner.Running() {
				return 1
			}
			return 0
		}),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			var are prom.AlreadyRegisteredError
			if !errors.As(err, &are) {
				slog.Warn("Failed to register daemon collector", logfields.Error(err))
			}
		}
	}
}
