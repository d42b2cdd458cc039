package eventstore

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/freezer/internal/build"
)

// Sink records the event stream of a build service in a Store and keeps an
// optional projection current.
type Sink struct {
	store      Store
	projection *BuildHistoryProjection
	retain     int
}

// NewSink returns a sink appending to store. projection may be nil.
func NewSink(store Store, projection *BuildHistoryProjection) *Sink {
	return &Sink{store: store, projection: projection}
}

// WithRetention keeps only the keep most recent builds in the store,
// pruning after every finished build. Zero keeps everything.
func (s *Sink) WithRetention(keep int) *Sink {
	s.retain = keep
	return s
}

// BuildEvent records one pipeline event.
func (s *Sink) BuildEvent(ctx context.Context, buildID string, ev build.Event) error {
	var (
		e   Event
		err error
	)
	switch {
	case ev.IsPage():
		e, err = NewPageBuilt(buildID, ev.Message, ev.Advance, ev.Total)
	case ev.Phase == build.PhaseStart:
		e, err = NewBuildStarted(buildID, string(ev.Phase), ev.Message)
	default:
		e, err = NewPhaseStarted(buildID, string(ev.Phase), ev.Message)
	}
	if err != nil {
		return err
	}
	return s.record(ctx, e)
}

// BuildFinished records the build outcome.
func (s *Sink) BuildFinished(ctx context.Context, result *build.BuildResult) error {
	data := ResultDataFrom(result)
	var (
		e   Event
		err error
	)
	if result.Status == build.BuildStatusFailed {
		e, err = NewBuildFailed(result.BuildID, data)
	} else {
		e, err = NewBuildCompleted(result.BuildID, data)
	}
	if err != nil {
		return err
	}
	if err := s.record(ctx, e); err != nil {
		return err
	}
	if s.retain > 0 {
		removed, err := s.store.Prune(ctx, s.retain)
		if err != nil {
			return err
		}
		if removed > 0 {
			slog.DebugContext(ctx, "Pruned build events", slog.Int64("removed", removed), slog.Int("retain", s.retain))
		}
	}
	return nil
}

func (s *Sink) record(ctx context.Context, e Event) error {
	if err := s.store.Append(ctx, e.BuildID(), e.Type(), e.Payload(), e.Metadata()); err != nil {
		return err
	}
	if s.projection != nil {
		s.projection.Apply(e)
	}
	return nil
}

// ResultDataFrom summarises result for storage.
func ResultDataFrom(result *build.BuildResult) ResultData {
	data := ResultData{
		Status:        string(result.Status),
		Pages:         result.Pages,
		SkippedRoutes: result.SkippedRoutes,
		DurationMS:    result.Duration.Milliseconds(),
		OutputPath:    result.OutputPath,
	}
	if result.Err != nil {
		data.Error = result.Err.Error()
	}
	if r := result.Report; r != nil {
		data.Outcome = string(r.Outcome)
		data.Assets = r.Assets
		data.SitemapURLs = r.SitemapURLs
		data.Warnings = len(r.Warnings)
		data.Revision = r.Revision
	}
	return data
}
