package attendance

import (
	"context"
)

// EventRepository defines access to the remote attendance store.
type EventRepository interface {
	// Create inserts an event with its client-assigned id. Inserting an id
	// that already exists is a no-op, so a crash between remote commit and
	// local queue cleanup cannot duplicate a record.
	Create(ctx context.Context, event Event) error

	// ListByVendor retrieves the most recent events for one vendor,
	// timestamp descending.
	ListByVendor(ctx context.Context, vendorID string, limit int) ([]Event, error)

	// List retrieves events with filters and pagination (admin view).
	List(ctx context.Context, filter ListFilter) ([]Event, int64, error)

	// GetLastKind returns the kind of the vendor's most recent committed
	// event, or ErrEventNotFound when the vendor has none.
	GetLastKind(ctx context.Context, vendorID string) (Kind, error)
}

// PendingStore is the durable local queue holding events not yet confirmed by
// the remote store.
type PendingStore interface {
	// Append adds one event to the tail and persists synchronously.
	Append(event PendingEvent) error

	// List returns the full ordered pending sequence, insertion order.
	List() ([]PendingEvent, error)

	// Count reports the number of queued events.
	Count() (int, error)

	// RemoveSucceeded atomically rewrites the queue excluding the given
	// indices (positions in the List snapshot the caller drained from).
	RemoveSucceeded(indices []int) error

	// MarkFailed bumps attempt counters, keyed by event id, and moves events
	// that exhausted the configured attempt budget to the dead-letter file.
	MarkFailed(failures map[string]string) error
}
