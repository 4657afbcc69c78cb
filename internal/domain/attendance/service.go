package attendance

import (
	"context"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// Submit registers one check-in or check-out for the authenticated
	// vendor: committed remotely when online, queued locally when not.
	Submit(ctx context.Context, kind Kind, req SubmitRequest) (SubmitResponse, error)

	// GetMyEvents retrieves the authenticated vendor's recent history.
	GetMyEvents(ctx context.Context, limit int) ([]Event, error)

	// ListEvents retrieves events with filters (admin view).
	ListEvents(ctx context.Context, filter ListFilter) (ListResponse, error)
}
