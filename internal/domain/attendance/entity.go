package attendance

import (
	"time"
)

// Kind distinguishes the two halves of a workday.
type Kind string

const (
	KindCheckIn  Kind = "check_in"
	KindCheckOut Kind = "check_out"
)

// Valid reports whether k is one of the two known kinds.
func (k Kind) Valid() bool {
	return k == KindCheckIn || k == KindCheckOut
}

// Event is the unit of attendance record. ID and Timestamp are assigned at
// capture time and never mutated afterwards; ID doubles as the idempotency
// key for remote inserts.
type Event struct {
	ID        string    `json:"id"`
	VendorID  string    `json:"vendor_id"`
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	PlaceName *string   `json:"place_name"`
	Lodging   string    `json:"lodging"`
	Notes     *string   `json:"notes"`
	Synced    bool      `json:"synced"`
	IsLate    bool      `json:"is_late"`
	WorkWeek  int       `json:"work_week"`
	CreatedAt time.Time `json:"created_at"`

	// DTO
	VendorName  *string `json:"vendor_name,omitempty"`
	VendorRoute *string `json:"vendor_route,omitempty"`
}

// PendingEvent wraps an Event while it sits in the local queue. Attempts and
// LastError exist for the dead-letter policy; they are never written remotely.
type PendingEvent struct {
	Event     Event   `json:"event"`
	Attempts  int     `json:"attempts"`
	LastError *string `json:"last_error,omitempty"`
}

// WorkWeekNumber computes the calendar work-week grouping for t, counting
// weeks from January 1st of t's year.
func WorkWeekNumber(t time.Time) int {
	startOfYear := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	days := int(t.Sub(startOfYear).Hours() / 24)
	week := (days + int(startOfYear.Weekday()) + 1 + 6) / 7
	if week < 1 {
		week = 1
	}
	return week
}
