package attendance

import (
	"fmt"
	"time"
)

// Policy is the single resolution point for the business-rule variants:
// whether a missing GPS fix blocks submission, whether event kinds must
// alternate per vendor, and when queued events trigger notifications.
type Policy struct {
	// LateCutoff is the local time-of-day after which a check-in counts as
	// late, expressed as an offset from midnight.
	LateCutoff time.Duration
	// Location is the timezone the cutoff is evaluated in.
	Location *time.Location

	RequireLocation   bool
	EnforceSequence   bool
	NotifyOnReconcile bool
}

// NewPolicy parses cutoff ("HH:MM") in the named timezone.
func NewPolicy(cutoff, timezone string, requireLocation, enforceSequence, notifyOnReconcile bool) (Policy, error) {
	t, err := time.Parse("15:04", cutoff)
	if err != nil {
		return Policy{}, fmt.Errorf("invalid late cutoff %q: %w", cutoff, err)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Policy{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return Policy{
		LateCutoff:        time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute,
		Location:          loc,
		RequireLocation:   requireLocation,
		EnforceSequence:   enforceSequence,
		NotifyOnReconcile: notifyOnReconcile,
	}, nil
}

// IsLate reports whether a capture instant makes an event of the given kind
// late. Only check-ins can be late; the comparison is strict, so a check-in
// at the cutoff itself is on time.
func (p Policy) IsLate(kind Kind, at time.Time) bool {
	if kind != KindCheckIn {
		return false
	}
	local := at.In(p.Location)
	sinceMidnight := time.Duration(local.Hour())*time.Hour +
		time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second
	return sinceMidnight > p.LateCutoff
}
