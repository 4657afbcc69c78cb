package response

import (
	"errors"
	"net/http"

	"github.com/terrapesca/checkin-backend-go/internal/domain/attendance"
	"github.com/terrapesca/checkin-backend-go/internal/domain/vendor"
	"github.com/terrapesca/checkin-backend-go/internal/pkg/validator"
	syncsvc "github.com/terrapesca/checkin-backend-go/internal/service/sync"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Vendor domain errors
	case errors.Is(err, vendor.ErrVendorNotFound):
		NotFound(w, "Vendor not found")
	case errors.Is(err, vendor.ErrVendorInactive):
		Forbidden(w, "Vendor is inactive")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrInvalidKind):
		BadRequest(w, "Unknown attendance event kind", nil)
	case errors.Is(err, attendance.ErrLocationRequired):
		ValidationError(w, map[string]string{"location": "location is required to register attendance"})
	case errors.Is(err, attendance.ErrOutOfSequence):
		Conflict(w, "Check-in and check-out must alternate")
	case errors.Is(err, attendance.ErrRemoteWrite):
		BadGateway(w, "Failed to record attendance, please retry")
	case errors.Is(err, attendance.ErrQueuePersistence):
		InternalServerError(w, "Failed to save attendance locally, the record was NOT stored")
	case errors.Is(err, attendance.ErrEventNotFound):
		NotFound(w, "Attendance record not found")

	// Sync errors
	case errors.Is(err, syncsvc.ErrSyncInProgress):
		Conflict(w, "A sync is already running")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
