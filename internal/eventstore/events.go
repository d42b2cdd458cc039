package eventstore

import (
	"encoding/json"
	"time"
)

// Event type names as stored in the events table.
const (
	TypeBuildStarted   = "BuildStarted"
	TypePhaseStarted   = "PhaseStarted"
	TypePageBuilt      = "PageBuilt"
	TypeBuildCompleted = "BuildCompleted"
	TypeBuildFailed    = "BuildFailed"
)

func newBaseEvent(buildID, eventType string, payload any) (BaseEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return BaseEvent{}, wrap(ErrMarshalPayloadFailed, err).
			WithContext("build_id", buildID).
			WithContext("event_type", eventType).
			Build()
	}
	return BaseEvent{
		EventBuildID:   buildID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   data,
	}, nil
}

// PhaseData is the payload of BuildStarted and PhaseStarted events.
type PhaseData struct {
	Phase   string `json:"phase"`
	Message string `json:"message"`
}

// PhaseStarted is emitted when a pipeline phase begins. The first phase of
// a build is recorded as BuildStarted instead.
type PhaseStarted struct {
	BaseEvent
	PhaseData
}

// NewBuildStarted creates the event opening a build.
func NewBuildStarted(buildID, phase, message string) (*PhaseStarted, error) {
	return newPhaseEvent(buildID, TypeBuildStarted, PhaseData{Phase: phase, Message: message})
}

// NewPhaseStarted creates a PhaseStarted event.
func NewPhaseStarted(buildID, phase, message string) (*PhaseStarted, error) {
	return newPhaseEvent(buildID, TypePhaseStarted, PhaseData{Phase: phase, Message: message})
}

func newPhaseEvent(buildID, eventType string, data PhaseData) (*PhaseStarted, error) {
	base, err := newBaseEvent(buildID, eventType, data)
	if err != nil {
		return nil, err
	}
	return &PhaseStarted{BaseEvent: base, PhaseData: data}, nil
}

// PageBuilt is emitted after each page is written.
type PageBuilt struct {
	BaseEvent
	URL   string `json:"url"`
	Done  int    `json:"done"`
	Total int    `json:"total"`
}

// NewPageBuilt creates a PageBuilt event.
func NewPageBuilt(buildID, url string, done, total int) (*PageBuilt, error) {
	base, err := newBaseEvent(buildID, TypePageBuilt, map[string]any{
		"url":   url,
		"done":  done,
		"total": total,
	})
	if err != nil {
		return nil, err
	}
	return &PageBuilt{BaseEvent: base, URL: url, Done: done, Total: total}, nil
}

// ResultData summarises a finished build.
type ResultData struct {
	Status        string `json:"status"`
	Outcome       string `json:"outcome,omitempty"`
	Pages         int    `json:"pages"`
	SkippedRoutes int    `json:"skipped_routes"`
	Assets        int    `json:"assets"`
	SitemapURLs   int    `json:"sitemap_urls"`
	Warnings      int    `json:"warnings"`
	DurationMS    int64  `json:"duration_ms"`
	Revision      string `json:"revision,omitempty"`
	OutputPath    string `json:"output_path,omitempty"`
	Error         string `json:"error,omitempty"`
}

// BuildFinished is emitted once per build, as BuildCompleted or BuildFailed.
type BuildFinished struct {
	BaseEvent
	ResultData
}

// NewBuildCompleted creates a BuildCompleted event.
func NewBuildCompleted(buildID string, data ResultData) (*BuildFinished, error) {
	return newBuildFinished(buildID, TypeBuildCompleted, data)
}

// NewBuildFailed creates a BuildFailed event.
func NewBuildFailed(buildID string, data ResultData) (*BuildFinished, error) {
	return newBuildFinished(buildID, TypeBuildFailed, data)
}

func newBuildFinished(buildID, eventType string, data ResultData) (*BuildFinished, error) {
	base, err := newBaseEvent(buildID, eventType, data)
	if err != nil {
		return nil, err
	}
	return &BuildFinished{BaseEvent: base, ResultData: data}, nil
}
