package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/bloodbank/internal/model"
)

// CreateHospital registers a hospital and seeds a zero inventory entry for
// every blood type in the same transaction.
func CreateHospital(ctx context.Context, db *sql.DB, h model.NewHospital) (*model.Hospital, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO hospitals (name, address, contact_person, contact_number, created_at) VALUES (?, ?, ?, ?, ?)`,
		strings.TrimSpace(h.Name), h.Address, h.ContactPerson, h.ContactNumber, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("%w: hospital %q already exists", model.ErrValidation, h.Name)
		}
		return nil, fmt.Errorf("creating hospital: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting hospital id: %w", err)
	}

	if err := seedInventory(ctx, tx, id, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing hospital registration: %w", err)
	}

	return GetHospital(ctx, db, id)
}

// GetHospital returns a hospital by ID.
func GetHospital(ctx context.Context, q Querier, id int64) (*model.Hospital, error) {
	h := &model.Hospital{}
	err := q.QueryRowContext(ctx,
		`SELECT id, name, address, contact_person, contact_number, created_at
		 FROM hospitals WHERE id = ?`, id,
	).Scan(&h.ID, &h.Name, &h.Address, &h.ContactPerson, &h.ContactNumber, &h.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: hospital %d", model.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting hospital: %w", err)
	}
	return h, nil
}

// HospitalExists reports whether a hospital is registered.
func HospitalExists(ctx context.Context, q Querier, id int64) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM hospitals WHERE id = ?`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking hospital: %w", err)
	}
	return count > 0, nil
}

// ListHospitals returns all hospitals ordered by name.
func ListHospitals(ctx context.Context, q Querier) ([]model.Hospital, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, address, contact_person, contact_number, created_at
		 FROM hospitals ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing hospitals: %w", err)
	}
	defer rows.Close()

	var hospitals []model.Hospital
	for rows.Next() {
		var h model.Hospital
		if err := rows.Scan(&h.ID, &h.Name, &h.Address, &h.ContactPerson, &h.ContactNumber, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning hospital: %w", err)
		}
		hospitals = append(hospitals, h)
	}
	return hospitals, rows.Err()
}
