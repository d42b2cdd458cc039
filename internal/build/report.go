package build

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/freezer/internal/metrics"
)

// Outcome is the typed enumeration of final build result states.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Report captures high-level metrics about one build.
type Report struct {
	SchemaVersion int
	BuildID       string
	// Revision is the source commit the build ran against, if known.
	Revision string
	Start    time.Time
	End      time.Time

	Entrypoints   int // materialized routes seeded into the queue
	SkippedRoutes int // routes that need parameters
	Pages         int // pages rendered and written
	Assets        int // asset files copied
	SitemapURLs   int

	PhaseDurations map[Phase]time.Duration
	PhaseHeapBytes map[Phase]uint64 // heap in use when each phase finished
	PhaseResults   map[Phase]metrics.ResultLabel

	Errors   []error // fatal errors aborting the build (at most one)
	Warnings []error // non-fatal issues such as optional missing assets
	Outcome  Outcome
}

func newReport(buildID string) *Report {
	return &Report{
		SchemaVersion:  1,
		BuildID:        buildID,
		Start:          time.Now(),
		PhaseDurations: make(map[Phase]time.Duration),
		PhaseHeapBytes: make(map[Phase]uint64),
		PhaseResults:   make(map[Phase]metrics.ResultLabel),
	}
}

// Duration is the wall time of the build.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("build=%s pages=%d entrypoints=%d skipped_routes=%d assets=%d sitemap_urls=%d duration=%s errors=%d warnings=%d outcome=%s",
		r.BuildID, r.Pages, r.Entrypoints, r.SkippedRoutes, r.Assets, r.SitemapURLs,
		r.Duration().Truncate(time.Millisecond), len(r.Errors), len(r.Warnings), r.Outcome)
}

func (r *Report) finish(canceled bool) {
	if r.End.IsZero() {
		r.End = time.Now()
	}
	switch {
	case canceled:
		r.Outcome = OutcomeCanceled
	case len(r.Errors) > 0:
		r.Outcome = OutcomeFailed
	case len(r.Warnings) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

// Persist writes the report atomically into dir as build-report.json and
// build-report.txt. Errors are returned for caller logging; they do not
// change the build outcome.
func (r *Report) Persist(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("ensure report directory: %w", err)
	}
	jb, err := json.MarshalIndent(r.serializable(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, "build-report.json"), append(jb, '\n')); err != nil {
		return err
	}
	return writeAtomic(filepath.Join(dir, "build-report.txt"), []byte(r.Summary()+"\n"))
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReportSerializable mirrors Report with string errors and millisecond
// durations for JSON output.
type ReportSerializable struct {
	SchemaVersion    int               `json:"schema_version"`
	BuildID          string            `json:"build_id"`
	Revision         string            `json:"revision,omitempty"`
	Start            time.Time         `json:"start"`
	End              time.Time         `json:"end"`
	DurationMS       int64             `json:"duration_ms"`
	Entrypoints      int               `json:"entrypoints"`
	SkippedRoutes    int               `json:"skipped_routes"`
	Pages            int               `json:"pages"`
	Assets           int               `json:"assets"`
	SitemapURLs      int               `json:"sitemap_urls"`
	PhaseDurationsMS map[string]int64  `json:"phase_durations_ms"`
	PhaseHeapBytes   map[string]uint64 `json:"phase_heap_bytes"`
	PhaseResults     map[string]string `json:"phase_results"`
	Errors           []string          `json:"errors"`
	Warnings         []string          `json:"warnings"`
	Outcome          string            `json:"outcome"`
}

func (r *Report) serializable() *ReportSerializable {
	s := &ReportSerializable{
		SchemaVersion:    r.SchemaVersion,
		BuildID:          r.BuildID,
		Revision:         r.Revision,
		Start:            r.Start,
		End:              r.End,
		DurationMS:       r.Duration().Milliseconds(),
		Entrypoints:      r.Entrypoints,
		SkippedRoutes:    r.SkippedRoutes,
		Pages:            r.Pages,
		Assets:           r.Assets,
		SitemapURLs:      r.SitemapURLs,
		PhaseDurationsMS: make(map[string]int64, len(r.PhaseDurations)),
		PhaseHeapBytes:   make(map[string]uint64, len(r.PhaseHeapBytes)),
		PhaseResults:     make(map[string]string, len(r.PhaseResults)),
		Errors:           make([]string, len(r.Errors)),
		Warnings:         make([]string, len(r.Warnings)),
		Outcome:          string(r.Outcome),
	}
	for k, v := range r.PhaseDurations {
		s.PhaseDurationsMS[string(k)] = v.Milliseconds()
	}
	for k, v := range r.PhaseHeapBytes {
		s.PhaseHeapBytes[string(k)] = v
	}
	for k, v := range r.PhaseResults {
		s.PhaseResults[string(k)] = string(v)
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	return s
}
