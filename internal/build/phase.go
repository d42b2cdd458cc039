package build

// Phase names one step of the pipeline.
type Phase string

const (
	PhaseStart      Phase = "start"
	PhaseClear      Phase = "clear"
	PhaseScan       Phase = "scan"
	PhaseCopy       Phase = "copy"
	PhaseBuildPages Phase = "build_pages"
	PhaseSitemap    Phase = "sitemap"
	PhaseEnd        Phase = "end"
)

// Event reports progress. Events carry no control semantics; Advance and
// Total are zero when a phase has nothing to count.
type Event struct {
	Phase   Phase
	Message string
	Advance int
	Total   int
}

// IsPage reports whether e reports a single built page rather than the
// start of a phase.
func (e Event) IsPage() bool {
	return e.Phase == PhaseBuildPages && e.Advance > 0
}
