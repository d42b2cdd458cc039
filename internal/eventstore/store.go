package eventstore

import (
	"context"
	"time"
)

// Store persists build events. Events of one build are returned in the
// order they were appended.
type Store interface {
	Append(ctx context.Context, buildID, eventType string, payload []byte, metadata map[string]string) error

	// GetByBuildID returns every event of one build.
	GetByBuildID(ctx context.Context, buildID string) ([]Event, error)

	// GetRange returns the events recorded between start and end inclusive.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Recent returns the events of the limit most recently started builds.
	Recent(ctx context.Context, limit int) ([]Event, error)

	// Prune deletes the events of all but the keep most recently started
	// builds and reports how many events were removed.
	Prune(ctx context.Context, keep int) (int64, error)

	Close() error
}
