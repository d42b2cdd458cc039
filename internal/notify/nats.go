// Package notify publishes build events to NATS subscribers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/freezer/internal/build"
	ferrors "git.home.luguber.info/inful/freezer/internal/foundation/errors"
)

// Message kinds, appended to the base subject.
const (
	KindPhase    = "phase"
	KindPage     = "page"
	KindFinished = "finished"
)

// Conn is the subset of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

// Message is the JSON body of every published event.
type Message struct {
	BuildID   string    `json:"build_id"`
	Kind      string    `json:"kind"`
	Phase     string    `json:"phase,omitempty"`
	Message   string    `json:"message,omitempty"`
	Done      int       `json:"done,omitempty"`
	Total     int       `json:"total,omitempty"`
	Status    string    `json:"status,omitempty"`
	Pages     int       `json:"pages,omitempty"`
	Revision  string    `json:"revision,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NATSPublisher implements build.EventSink over a NATS connection. Events
// go to "<subject>.phase", "<subject>.page" and "<subject>.finished".
type NATSPublisher struct {
	conn    Conn
	subject string
	timeout time.Duration
}

// Connect dials url and returns a publisher for subject.
func Connect(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("freezer"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second))
	if err != nil {
		return nil, ferrors.NetworkError("failed to connect to NATS").
			WithCause(err).
			WithContext("url", url).
			Build()
	}
	slog.Info("NATS publisher connected", slog.String("url", url), slog.String("subject", subject))
	return NewNATSPublisher(conn, subject), nil
}

// NewNATSPublisher wraps an established connection.
func NewNATSPublisher(conn Conn, subject string) *NATSPublisher {
	return &NATSPublisher{conn: conn, subject: subject, timeout: 5 * time.Second}
}

// BuildEvent publishes one pipeline event.
func (p *NATSPublisher) BuildEvent(_ context.Context, buildID string, ev build.Event) error {
	msg := Message{
		BuildID:   buildID,
		Kind:      KindPhase,
		Phase:     string(ev.Phase),
		Message:   ev.Message,
		Done:      ev.Advance,
		Total:     ev.Total,
		Timestamp: time.Now(),
	}
	if ev.IsPage() {
		msg.Kind = KindPage
	}
	return p.publish(msg)
}

// BuildFinished publishes the build outcome and flushes the connection.
func (p *NATSPublisher) BuildFinished(_ context.Context, result *build.BuildResult) error {
	msg := Message{
		BuildID:   result.BuildID,
		Kind:      KindFinished,
		Status:    string(result.Status),
		Pages:     result.Pages,
		Timestamp: time.Now(),
	}
	if result.Report != nil {
		msg.Revision = result.Report.Revision
	}
	if result.Err != nil {
		msg.Error = result.Err.Error()
	}
	if err := p.publish(msg); err != nil {
		return err
	}
	if err := p.conn.FlushTimeout(p.timeout); err != nil {
		return ferrors.NetworkError("failed to flush NATS connection").WithCause(err).Build()
	}
	return nil
}

func (p *NATSPublisher) publish(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", msg.Kind, err)
	}
	subject := p.subject + "." + msg.Kind
	if err := p.conn.Publish(subject, data); err != nil {
		return ferrors.NetworkError("failed to publish build event").
			WithCause(err).
			WithContext("subject", subject).
			Build()
	}
	return nil
}

// Close closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
