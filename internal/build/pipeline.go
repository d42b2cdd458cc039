package build

import (
	"context"
	"fmt"
	"iter"

	ferrors "git.home.luguber.info/inful/freezer/internal/foundation/errors"
	"git.home.luguber.info/inful/freezer/internal/metrics"
	"git.home.luguber.info/inful/freezer/internal/output"
	"git.home.luguber.info/inful/freezer/internal/render"
	"git.home.luguber.info/inful/freezer/internal/routes"
)

// errStopped ends a build whose event consumer stopped pulling.
var errStopped = fmt.Errorf("event consumer stopped: %w", context.Canceled)

// phaseFunc does the work of one phase. emit forwards additional events to
// the consumer and reports false once the consumer has stopped.
type phaseFunc func(ctx context.Context, st *State, emit func(Event) bool) error

type phaseDef struct {
	phase   Phase
	message string
	fn      phaseFunc
}

// Pipeline freezes one site. A Pipeline may run many builds, one at a time;
// each build gets a fresh work queue and State.
type Pipeline struct {
	routes   routes.Source
	engine   render.Engine
	out      *output.FileSink
	opts     Options
	recorder metrics.Recorder
	buildID  string
	state    *State
}

// NewPipeline returns a pipeline rendering src's routes with engine into out.
func NewPipeline(src routes.Source, engine render.Engine, out *output.FileSink, opts Options) *Pipeline {
	return &Pipeline{
		routes:   src,
		engine:   engine,
		out:      out,
		opts:     opts,
		recorder: metrics.NoopRecorder{},
	}
}

// WithRecorder sets the metrics recorder.
func (p *Pipeline) WithRecorder(r metrics.Recorder) *Pipeline {
	if r != nil {
		p.recorder = r
	}
	return p
}

// WithBuildID labels the next build.
func (p *Pipeline) WithBuildID(id string) *Pipeline {
	p.buildID = id
	return p
}

// State returns the state of the current or most recent build, or nil
// before the first build starts.
func (p *Pipeline) State() *State { return p.state }

func (p *Pipeline) phases() []phaseDef {
	defs := []phaseDef{
		{PhaseStart, "starting build", p.start},
		{PhaseClear, "clearing output directory", p.clear},
		{PhaseScan, "scanning routes", p.scan},
	}
	if p.opts.Expose {
		defs = append(defs, phaseDef{PhaseCopy, "copying static assets", p.copyAssets})
	}
	defs = append(defs, phaseDef{PhaseBuildPages, "building pages", p.buildPages})
	if p.opts.Sitemap {
		defs = append(defs, phaseDef{PhaseSitemap, "writing sitemap", p.writeSitemap})
	}
	return append(defs, phaseDef{PhaseEnd, "build finished", p.end})
}

// Events runs a build lazily, yielding one event before each phase and one
// per built page. The first unrecovered error is yielded with a final event
// and ends the sequence. Stopping the iteration stops the build.
func (p *Pipeline) Events(ctx context.Context) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		st := newState(p.buildID, p.recorder)
		p.state = st

		var err error
		defer func() { st.finish(err) }()

		for _, def := range p.phases() {
			if cerr := ctx.Err(); cerr != nil {
				err = canceledError(def.phase, cerr)
				yield(Event{Phase: def.phase, Message: err.Error()}, err)
				return
			}

			st.beginPhase()
			ev := Event{Phase: def.phase, Message: def.message}
			switch def.phase {
			case PhaseBuildPages:
				ev.Total = st.Queue.TotalCount()
			case PhaseEnd:
				ev.Advance = st.Queue.DoneCount()
				ev.Total = ev.Advance
			}
			if !yield(ev, nil) {
				err = errStopped
				st.endPhase(def.phase, err)
				return
			}

			perr := def.fn(ctx, st, func(e Event) bool { return yield(e, nil) })
			st.endPhase(def.phase, perr)
			if perr != nil {
				err = perr
				if perr != errStopped {
					yield(Event{Phase: def.phase, Message: perr.Error()}, perr)
				}
				return
			}
		}
	}
}

// Run drains Events and returns the number of pages built.
func (p *Pipeline) Run(ctx context.Context) (int, error) {
	var runErr error
	for _, err := range p.Events(ctx) {
		if err != nil {
			runErr = err
			break
		}
	}
	return p.state.Queue.DoneCount(), runErr
}

func canceledError(phase Phase, cause error) error {
	return ferrors.WrapError(cause, ferrors.CategoryBuild, "build canceled").
		WithContext("phase", string(phase)).
		Build()
}
