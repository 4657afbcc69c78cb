package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/terrapesca/checkin-backend-go/internal/domain/vendor"
	"github.com/terrapesca/checkin-backend-go/internal/pkg/database"
)

type vendorRepository struct {
	db *database.DB
}

func NewVendorRepository(db *database.DB) vendor.VendorRepository {
	return &vendorRepository{db: db}
}

// GetByUserID implements vendor.VendorRepository.
func (r *vendorRepository) GetByUserID(ctx context.Context, userID string) (vendor.Vendor, error) {
	query := `
		SELECT id, user_id, name, email, phone, route, active, created_at
		FROM vendors
		WHERE user_id = $1
	`

	var v vendor.Vendor
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&v.ID, &v.UserID, &v.Name, &v.Email, &v.Phone, &v.Route, &v.Active, &v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return vendor.Vendor{}, vendor.ErrVendorNotFound
		}
		return vendor.Vendor{}, fmt.Errorf("failed to get vendor by user id: %w", err)
	}

	return v, nil
}

// GetByID implements vendor.VendorRepository.
func (r *vendorRepository) GetByID(ctx context.Context, id string) (vendor.Vendor, error) {
	query := `
		SELECT id, user_id, name, email, phone, route, active, created_at
		FROM vendors
		WHERE id = $1
	`

	var v vendor.Vendor
	err := r.db.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.UserID, &v.Name, &v.Email, &v.Phone, &v.Route, &v.Active, &v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return vendor.Vendor{}, vendor.ErrVendorNotFound
		}
		return vendor.Vendor{}, fmt.Errorf("failed to get vendor: %w", err)
	}

	return v, nil
}

// List implements vendor.VendorRepository.
func (r *vendorRepository) List(ctx context.Context) ([]vendor.Vendor, error) {
	query := `
		SELECT id, user_id, name, email, phone, route, active, created_at
		FROM vendors
		ORDER BY active DESC, name ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}
	defer rows.Close()

	var vendors []vendor.Vendor
	for rows.Next() {
		var v vendor.Vendor
		if err := rows.Scan(&v.ID, &v.UserID, &v.Name, &v.Email, &v.Phone, &v.Route, &v.Active, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vendors: %w", err)
	}

	return vendors, nil
}
