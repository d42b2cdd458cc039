package eventstore

import (
	ferrors "git.home.luguber.info/inful/freezer/internal/foundation/errors"
)

// Sentinel errors for event store operations. Returned errors wrap the
// underlying cause and still match their sentinel with errors.Is.
var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = ferrors.EventStoreError("could not open event store database").Build()

	// ErrInitializeSchemaFailed indicates the database schema could not be initialized.
	ErrInitializeSchemaFailed = ferrors.EventStoreError("failed to initialize event store schema").Build()

	// ErrEventAppendFailed indicates appending an event failed.
	ErrEventAppendFailed = ferrors.EventStoreError("failed to append event to store").Build()

	// ErrEventQueryFailed indicates querying or scanning events failed.
	ErrEventQueryFailed = ferrors.EventStoreError("failed to query events from store").Build()

	// ErrEventPruneFailed indicates deleting old builds failed.
	ErrEventPruneFailed = ferrors.EventStoreError("failed to prune events from store").Build()

	// ErrMarshalPayloadFailed indicates JSON marshaling of event payload failed.
	ErrMarshalPayloadFailed = ferrors.EventStoreError("failed to marshal event payload").Build()
)

// wrap returns a copy of sentinel carrying cause.
func wrap(sentinel *ferrors.ClassifiedError, cause error) *ferrors.ErrorBuilder {
	return ferrors.WrapError(cause, sentinel.Category(), sentinel.Message()).
		WithSeverity(sentinel.Severity())
}
