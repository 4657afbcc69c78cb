package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/terrapesca/checkin-backend-go/internal/domain/attendance"
	"github.com/terrapesca/checkin-backend-go/internal/domain/vendor"
	"github.com/terrapesca/checkin-backend-go/internal/pkg/connectivity"
	"github.com/terrapesca/checkin-backend-go/internal/service/notification"
)

// Locator provides a best-effort GPS fix for submissions that carry no
// coordinates of their own.
type Locator interface {
	CurrentPosition(ctx context.Context) (lat, lng float64, err error)
}

// Geocoder resolves coordinates to a display label; an empty string means the
// lookup failed and the event keeps a nil place name.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) string
}

type AttendanceServiceImpl struct {
	events     attendance.EventRepository
	queue      attendance.PendingStore
	vendors    vendor.VendorRepository
	monitor    *connectivity.Monitor
	dispatcher notification.Dispatcher
	geocoder   Geocoder
	locator    Locator
	policy     attendance.Policy

	locationTimeout time.Duration
	now             func() time.Time
}

func NewAttendanceService(
	events attendance.EventRepository,
	queue attendance.PendingStore,
	vendors vendor.VendorRepository,
	monitor *connectivity.Monitor,
	dispatcher notification.Dispatcher,
	geocoder Geocoder,
	locator Locator,
	policy attendance.Policy,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		events:          events,
		queue:           queue,
		vendors:         vendors,
		monitor:         monitor,
		dispatcher:      dispatcher,
		geocoder:        geocoder,
		locator:         locator,
		policy:          policy,
		locationTimeout: 5 * time.Second,
		now:             time.Now,
	}
}

// Submit implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Submit(ctx context.Context, kind attendance.Kind, req attendance.SubmitRequest) (attendance.SubmitResponse, error) {
	if !kind.Valid() {
		return attendance.SubmitResponse{}, attendance.ErrInvalidKind
	}
	if err := req.Validate(); err != nil {
		return attendance.SubmitResponse{}, err
	}

	v, err := s.currentVendor(ctx)
	if err != nil {
		return attendance.SubmitResponse{}, err
	}

	lat, lng := req.Latitude, req.Longitude
	if lat == nil {
		lat, lng = s.capturePosition(ctx)
	}
	if lat == nil && s.policy.RequireLocation {
		return attendance.SubmitResponse{}, attendance.ErrLocationRequired
	}

	var placeName *string
	if lat != nil && s.geocoder != nil {
		if label := s.geocoder.Reverse(ctx, *lat, *lng); label != "" {
			placeName = &label
		}
	}

	capturedAt := s.now().UTC()
	localAt := capturedAt.In(s.policy.Location)

	if s.policy.EnforceSequence {
		if err := s.checkSequence(ctx, v.ID, kind); err != nil {
			return attendance.SubmitResponse{}, err
		}
	}

	event := attendance.Event{
		ID:        uuid.NewString(),
		VendorID:  v.ID,
		Kind:      kind,
		Timestamp: capturedAt,
		Latitude:  lat,
		Longitude: lng,
		PlaceName: placeName,
		Lodging:   req.Lodging,
		Notes:     req.Notes,
		IsLate:    s.policy.IsLate(kind, capturedAt),
		WorkWeek:  attendance.WorkWeekNumber(localAt),
	}

	if s.monitor.Online() {
		return s.submitDirect(ctx, v, event)
	}
	return s.submitQueued(event)
}

// submitDirect commits the event straight to the remote store. A failed
// insert here surfaces to the caller instead of being queued silently: the
// user asked for an online submission and must know it did not stick.
func (s *AttendanceServiceImpl) submitDirect(ctx context.Context, v vendor.Vendor, event attendance.Event) (attendance.SubmitResponse, error) {
	event.Synced = true

	if err := s.events.Create(ctx, event); err != nil {
		s.monitor.SetOnline(false)
		return attendance.SubmitResponse{}, fmt.Errorf("%w: %v", attendance.ErrRemoteWrite, err)
	}

	if s.dispatcher != nil {
		s.dispatcher.DispatchCommitted(v, event)
	}

	slog.Info("Attendance event committed",
		"event_id", event.ID, "vendor_id", event.VendorID, "kind", event.Kind, "is_late", event.IsLate)

	return attendance.SubmitResponse{Event: event, Queued: false}, nil
}

// submitQueued appends the event to the local queue. Queuing is the success
// path while offline; notifications wait for the reconciliation commit.
func (s *AttendanceServiceImpl) submitQueued(event attendance.Event) (attendance.SubmitResponse, error) {
	event.Synced = false

	if err := s.queue.Append(attendance.PendingEvent{Event: event}); err != nil {
		// Surfaced loudly: a swallowed queue write failure is silent data loss.
		return attendance.SubmitResponse{}, err
	}

	slog.Info("Attendance event queued offline",
		"event_id", event.ID, "vendor_id", event.VendorID, "kind", event.Kind)

	return attendance.SubmitResponse{Event: event, Queued: true}, nil
}

// GetMyEvents implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetMyEvents(ctx context.Context, limit int) ([]attendance.Event, error) {
	v, err := s.currentVendor(ctx)
	if err != nil {
		return nil, err
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	events, err := s.events.ListByVendor(ctx, v.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent events: %w", err)
	}
	return events, nil
}

// ListEvents implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListEvents(ctx context.Context, filter attendance.ListFilter) (attendance.ListResponse, error) {
	events, total, err := s.events.List(ctx, filter)
	if err != nil {
		return attendance.ListResponse{}, fmt.Errorf("failed to list events: %w", err)
	}
	if events == nil {
		events = []attendance.Event{}
	}
	return attendance.ListResponse{Events: events, TotalItems: total}, nil
}

// currentVendor resolves the authenticated vendor from the token claims.
func (s *AttendanceServiceImpl) currentVendor(ctx context.Context) (vendor.Vendor, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return vendor.Vendor{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return vendor.Vendor{}, vendor.ErrVendorNotFound
	}

	v, err := s.vendors.GetByUserID(ctx, userID)
	if err != nil {
		return vendor.Vendor{}, err
	}
	if !v.Active {
		return vendor.Vendor{}, vendor.ErrVendorInactive
	}
	return v, nil
}

// capturePosition asks the locator for a fix, bounded by a short timeout.
// Absence of a fix is not an error here; the policy decides what it means.
func (s *AttendanceServiceImpl) capturePosition(ctx context.Context) (*float64, *float64) {
	if s.locator == nil {
		return nil, nil
	}

	posCtx, cancel := context.WithTimeout(ctx, s.locationTimeout)
	defer cancel()

	lat, lng, err := s.locator.CurrentPosition(posCtx)
	if err != nil {
		slog.Debug("Geolocation capture failed, proceeding without coordinates", "error", err)
		return nil, nil
	}
	return &lat, &lng
}

// checkSequence enforces strict check-in/check-out alternation per vendor.
// The pending tail wins over the remote store because queued events will
// commit ahead of this one. When neither source can answer, the submission
// is allowed rather than blocked on a reachability problem.
func (s *AttendanceServiceImpl) checkSequence(ctx context.Context, vendorID string, kind attendance.Kind) error {
	lastKind, found, err := s.lastPendingKind(vendorID)
	if err != nil {
		slog.Warn("Failed to read pending queue for sequence check", "error", err)
		return nil
	}

	if !found && s.monitor.Online() {
		remoteKind, err := s.events.GetLastKind(ctx, vendorID)
		switch {
		case errors.Is(err, attendance.ErrEventNotFound):
			return nil
		case err != nil:
			slog.Warn("Failed to read last event for sequence check", "vendor_id", vendorID, "error", err)
			return nil
		}
		lastKind, found = remoteKind, true
	}

	if found && lastKind == kind {
		return attendance.ErrOutOfSequence
	}
	return nil
}

func (s *AttendanceServiceImpl) lastPendingKind(vendorID string) (attendance.Kind, bool, error) {
	pending, err := s.queue.List()
	if err != nil {
		return "", false, err
	}
	for i := len(pending) - 1; i >= 0; i-- {
		if pending[i].Event.VendorID == vendorID {
			return pending[i].Event.Kind, true, nil
		}
	}
	return "", false, nil
}
