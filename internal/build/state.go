package build

import (
	"context"
	"errors"
	"runtime"
	"time"

	"git.home.luguber.info/inful/freezer/internal/build/queue"
	"git.home.luguber.info/inful/freezer/internal/metrics"
	"git.home.luguber.info/inful/freezer/internal/routes"
)

// State is the per-build instrumentation and working set threaded through
// every phase function.
type State struct {
	BuildID string
	Queue   *queue.WorkQueue
	Scan    routes.ScanResult
	Report  *Report

	recorder     metrics.Recorder
	written      map[string]string // output path -> URL that produced it
	phaseStart   time.Time
	phaseWarning int
}

func newState(buildID string, recorder metrics.Recorder) *State {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &State{
		BuildID:  buildID,
		Queue:    queue.New(),
		Report:   newReport(buildID),
		recorder: recorder,
		written:  make(map[string]string),
	}
}

func (s *State) beginPhase() {
	s.phaseStart = time.Now()
	s.phaseWarning = len(s.Report.Warnings)
}

// endPhase records timing, a heap sample and the phase result.
func (s *State) endPhase(p Phase, err error) {
	d := time.Since(s.phaseStart)
	s.Report.PhaseDurations[p] = d
	s.recorder.ObservePhaseDuration(string(p), d)

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s.Report.PhaseHeapBytes[p] = ms.HeapInuse

	result := metrics.ResultSuccess
	switch {
	case isCanceled(err):
		result = metrics.ResultCanceled
	case err != nil:
		result = metrics.ResultFatal
	case len(s.Report.Warnings) > s.phaseWarning:
		result = metrics.ResultWarning
	}
	s.Report.PhaseResults[p] = result
	s.recorder.IncPhaseResult(string(p), result)
}

func (s *State) warn(err error) {
	s.Report.Warnings = append(s.Report.Warnings, err)
}

func (s *State) fail(err error) {
	s.Report.Errors = append(s.Report.Errors, err)
}

// finish closes the report and records the build outcome.
func (s *State) finish(err error) {
	if err != nil && !isCanceled(err) {
		s.fail(err)
	}
	s.Report.Pages = s.Queue.DoneCount()
	s.Report.finish(isCanceled(err))
	s.recorder.ObserveBuildDuration(s.Report.Duration())
	s.recorder.IncBuildOutcome(metrics.BuildOutcomeLabel(s.Report.Outcome))
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
