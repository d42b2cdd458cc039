package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/freezer/internal/config"
	"git.home.luguber.info/inful/freezer/internal/render"
	"git.home.luguber.info/inful/freezer/internal/routes"
)

// BuildService is the canonical interface for executing builds.
// The CLI and the daemon are thin wrappers over it.
type BuildService interface {
	// Run executes a complete build and returns its outcome together with
	// the first unrecovered error.
	Run(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// BuildRequest contains all inputs required to execute a build.
type BuildRequest struct {
	// Config is the loaded configuration for this build.
	Config *config.Config

	// Routes overrides the configured routes.
	Routes routes.Source

	// Engine overrides the engine built from the configuration.
	Engine render.Engine

	// Trigger names what started the build (cli, schedule, watch).
	Trigger string
}

// BuildResult contains the outcome of a build execution.
type BuildResult struct {
	BuildID string

	// Status indicates overall build outcome.
	Status BuildStatus

	// Report contains detailed build metrics and diagnostics.
	Report *Report

	// OutputPath is the directory the site was written to.
	OutputPath string

	// Pages is the count of pages rendered and written.
	Pages int

	// SkippedRoutes counts routes left out because they need parameters.
	SkippedRoutes int

	Duration  time.Duration
	StartTime time.Time
	EndTime   time.Time

	// Err is the error the build failed with, if any.
	Err error
}

// BuildStatus represents the outcome of a build execution.
type BuildStatus string

const (
	// BuildStatusSuccess indicates the build completed, possibly with warnings.
	BuildStatusSuccess BuildStatus = "success"

	// BuildStatusFailed indicates the build encountered an error.
	BuildStatusFailed BuildStatus = "failed"

	// BuildStatusCancelled indicates the build was cancelled.
	BuildStatusCancelled BuildStatus = "cancelled"
)

// IsTerminal returns true if the status represents a final state.
func (s BuildStatus) IsTerminal() bool {
	return s == BuildStatusSuccess || s == BuildStatusFailed || s == BuildStatusCancelled
}

// IsSuccess returns true if the build completed successfully.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess
}

// EventSink receives the event stream of every build run by a service.
// Sink failures are logged and never fail the build.
type EventSink interface {
	BuildEvent(ctx context.Context, buildID string, ev Event) error
	BuildFinished(ctx context.Context, result *BuildResult) error
}
