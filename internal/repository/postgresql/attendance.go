package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/terrapesca/checkin-backend-go/internal/domain/attendance"
	"github.com/terrapesca/checkin-backend-go/internal/pkg/database"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.EventRepository {
	return &attendanceRepository{db: db}
}

// Create implements attendance.EventRepository. The client-assigned id makes
// the insert idempotent: replaying an already-committed event affects zero
// rows and is treated as success.
func (r *attendanceRepository) Create(ctx context.Context, event attendance.Event) error {
	query := `
		INSERT INTO attendance_events (
			id, vendor_id, kind, event_timestamp,
			latitude, longitude, place_name,
			lodging, notes, synced, is_late, work_week
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.Exec(ctx, query,
		event.ID,
		event.VendorID,
		string(event.Kind),
		event.Timestamp,
		event.Latitude,
		event.Longitude,
		event.PlaceName,
		event.Lodging,
		event.Notes,
		event.Synced,
		event.IsLate,
		event.WorkWeek,
	)
	if err != nil {
		return fmt.Errorf("failed to insert attendance event: %w", err)
	}

	return nil
}

// ListByVendor implements attendance.EventRepository.
func (r *attendanceRepository) ListByVendor(ctx context.Context, vendorID string, limit int) ([]attendance.Event, error) {
	query := `
		SELECT id, vendor_id, kind, event_timestamp,
		       latitude, longitude, place_name,
		       lodging, notes, synced, is_late, work_week, created_at
		FROM attendance_events
		WHERE vendor_id = $1
		ORDER BY event_timestamp DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, vendorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows, false)
}

// GetLastKind implements attendance.EventRepository.
func (r *attendanceRepository) GetLastKind(ctx context.Context, vendorID string) (attendance.Kind, error) {
	query := `
		SELECT kind
		FROM attendance_events
		WHERE vendor_id = $1
		ORDER BY event_timestamp DESC
		LIMIT 1
	`

	var kind string
	err := r.db.QueryRow(ctx, query, vendorID).Scan(&kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", attendance.ErrEventNotFound
		}
		return "", fmt.Errorf("failed to get last event kind: %w", err)
	}

	return attendance.Kind(kind), nil
}

// List implements attendance.EventRepository.
func (r *attendanceRepository) List(ctx context.Context, filter attendance.ListFilter) ([]attendance.Event, int64, error) {
	filter.Normalize()

	var conditions []string
	var args []interface{}
	argPos := 1

	addCondition := func(clause string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(clause, argPos))
		args = append(args, value)
		argPos++
	}

	if filter.VendorID != nil {
		addCondition("e.vendor_id = $%d", *filter.VendorID)
	}
	if filter.Kind != nil {
		addCondition("e.kind = $%d", string(*filter.Kind))
	}
	if filter.IsLate != nil {
		addCondition("e.is_late = $%d", *filter.IsLate)
	}
	if filter.WorkWeek != nil {
		addCondition("e.work_week = $%d", *filter.WorkWeek)
	}
	if filter.From != nil {
		addCondition("e.event_timestamp >= $%d", *filter.From)
	}
	if filter.To != nil {
		addCondition("e.event_timestamp <= $%d", *filter.To)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM attendance_events e
		%s
	`, where)

	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance events: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT e.id, e.vendor_id, e.kind, e.event_timestamp,
		       e.latitude, e.longitude, e.place_name,
		       e.lodging, e.notes, e.synced, e.is_late, e.work_week, e.created_at,
		       v.name, v.route
		FROM attendance_events e
		JOIN vendors v ON v.id = e.vendor_id
		%s
		ORDER BY e.event_timestamp DESC
		LIMIT $%d OFFSET $%d
	`, where, argPos, argPos+1)

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendance events: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows, true)
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

func scanEvents(rows pgx.Rows, withVendor bool) ([]attendance.Event, error) {
	var events []attendance.Event
	for rows.Next() {
		var e attendance.Event
		var kind string

		dest := []interface{}{
			&e.ID, &e.VendorID, &kind, &e.Timestamp,
			&e.Latitude, &e.Longitude, &e.PlaceName,
			&e.Lodging, &e.Notes, &e.Synced, &e.IsLate, &e.WorkWeek, &e.CreatedAt,
		}
		if withVendor {
			dest = append(dest, &e.VendorName, &e.VendorRoute)
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan attendance event: %w", err)
		}
		e.Kind = attendance.Kind(kind)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance events: %w", err)
	}

	return events, nil
}
