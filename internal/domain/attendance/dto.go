package attendance

import (
	"time"

	"github.com/terrapesca/checkin-backend-go/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type SubmitRequest struct {
	Lodging   string   `json:"lodging"`
	Notes     *string  `json:"notes"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (r *SubmitRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Lodging) {
		errs = append(errs, validator.ValidationError{
			Field:   "lodging",
			Message: "lodging is required",
		})
	}

	if r.Latitude != nil && (*r.Latitude < -90 || *r.Latitude > 90) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if r.Longitude != nil && (*r.Longitude < -180 || *r.Longitude > 180) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if (r.Latitude == nil) != (r.Longitude == nil) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "latitude and longitude must be provided together",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// SubmitResponse reports the outcome of one submission. Queued is true when
// the event went to the local queue instead of the remote store.
type SubmitResponse struct {
	Event  Event `json:"event"`
	Queued bool  `json:"queued"`
}

// ListFilter narrows the admin listing.
type ListFilter struct {
	VendorID *string
	Kind     *Kind
	IsLate   *bool
	WorkWeek *int
	From     *time.Time
	To       *time.Time
	Page     int
	Limit    int
}

// Normalize clamps pagination to sane defaults.
func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

type ListResponse struct {
	Events     []Event `json:"events"`
	TotalItems int64   `json:"total_items"`
}
