package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/bloodbank/internal/model"
)

// Credit adds units of a blood type to a hospital's inventory. The entry is
// created at zero first if it does not exist. A credit that would take the
// balance above model.MaxStockUnits fails with model.ErrValidation and
// changes nothing.
func Credit(ctx context.Context, q Querier, hospitalID int64, bloodType model.BloodType, units int, at time.Time) error {
	if units <= 0 {
		return fmt.Errorf("%w: credit units must be positive, got %d", model.ErrValidation, units)
	}
	if units > model.MaxStockUnits {
		return fmt.Errorf("%w: credit of %d units exceeds the %d unit stock limit", model.ErrValidation, units, model.MaxStockUnits)
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO inventory (hospital_id, blood_type, units_available, last_updated) VALUES (?, ?, ?, ?)
		 ON CONFLICT (hospital_id, blood_type) DO UPDATE
		 SET units_available = units_available + excluded.units_available, last_updated = excluded.last_updated
		 WHERE inventory.units_available <= ? - excluded.units_available`,
		hospitalID, string(bloodType), units, at.UTC(), model.MaxStockUnits,
	)
	if err != nil {
		return fmt.Errorf("crediting inventory: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("crediting inventory: %w", err)
	}
	if n == 0 {
		available, err := GetUnits(ctx, q, hospitalID, bloodType)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: hospital %d holds %d units of %s, crediting %d would exceed %d",
			model.ErrValidation, hospitalID, available, bloodType, units, model.MaxStockUnits)
	}
	return nil
}

// Debit removes units of a blood type from a hospital's inventory. The check
// and the decrement are one statement, so concurrent debits cannot both pass
// on a stale read.
func Debit(ctx context.Context, q Querier, hospitalID int64, bloodType model.BloodType, units int, at time.Time) error {
	if units <= 0 {
		return fmt.Errorf("%w: debit units must be positive, got %d", model.ErrValidation, units)
	}

	result, err := q.ExecContext(ctx,
		`UPDATE inventory SET units_available = units_available - ?, last_updated = ?
		 WHERE hospital_id = ? AND blood_type = ? AND units_available >= ?`,
		units, at.UTC(), hospitalID, string(bloodType), units,
	)
	if err != nil {
		return fmt.Errorf("debiting inventory: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("debiting inventory: %w", err)
	}
	if n == 0 {
		available, err := GetUnits(ctx, q, hospitalID, bloodType)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: hospital %d has %d units of %s, need %d",
			model.ErrInsufficientStock, hospitalID, available, bloodType, units)
	}
	return nil
}

// GetUnits returns the available units of a blood type at a hospital, or 0
// if there is no entry.
func GetUnits(ctx context.Context, q Querier, hospitalID int64, bloodType model.BloodType) (int, error) {
	var units int
	err := q.QueryRowContext(ctx,
		`SELECT units_available FROM inventory WHERE hospital_id = ? AND blood_type = ?`,
		hospitalID, string(bloodType),
	).Scan(&units)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("checking available units: %w", err)
	}
	return units, nil
}

// seedInventory creates a zero entry for every supported blood type.
func seedInventory(ctx context.Context, q Querier, hospitalID int64, at time.Time) error {
	for _, bt := range model.BloodTypes {
		_, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO inventory (hospital_id, blood_type, units_available, last_updated) VALUES (?, ?, 0, ?)`,
			hospitalID, string(bt), at.UTC(),
		)
		if err != nil {
			return fmt.Errorf("seeding %s inventory: %w", bt, err)
		}
	}
	return nil
}

// ListHospitalInventory returns all inventory entries for a hospital.
func ListHospitalInventory(ctx context.Context, q Querier, hospitalID int64) ([]model.InventoryEntry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT inv.hospital_id, inv.blood_type, inv.units_available, inv.last_updated, h.name AS hospital_name
		 FROM inventory inv
		 JOIN hospitals h ON h.id = inv.hospital_id
		 WHERE inv.hospital_id = ?
		 ORDER BY inv.blood_type`, hospitalID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting hospital inventory: %w", err)
	}
	defer rows.Close()

	return scanInventory(rows)
}

// ListInventory returns the full inventory overview across hospitals.
func ListInventory(ctx context.Context, q Querier) ([]model.InventoryEntry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT inv.hospital_id, inv.blood_type, inv.units_available, inv.last_updated, h.name AS hospital_name
		 FROM inventory inv
		 JOIN hospitals h ON h.id = inv.hospital_id
		 ORDER BY h.name, inv.blood_type`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing inventory: %w", err)
	}
	defer rows.Close()

	return scanInventory(rows)
}

// SearchAvailable finds hospitals holding at least minUnits of a blood type.
// With compatible set, every donor type the recipient can receive is included.
func SearchAvailable(ctx context.Context, q Querier, bloodType model.BloodType, minUnits int, compatible bool) ([]model.InventoryEntry, error) {
	types := []model.BloodType{bloodType}
	if compatible {
		types = model.CompatibleDonors(bloodType)
	}
	if minUnits < 1 {
		minUnits = 1
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(types)), ",")
	args := make([]any, 0, len(types)+1)
	for _, t := range types {
		args = append(args, string(t))
	}
	args = append(args, minUnits)

	rows, err := q.QueryContext(ctx,
		`SELECT inv.hospital_id, inv.blood_type, inv.units_available, inv.last_updated, h.name AS hospital_name
		 FROM inventory inv
		 JOIN hospitals h ON h.id = inv.hospital_id
		 WHERE inv.blood_type IN (`+placeholders+`) AND inv.units_available >= ?
		 ORDER BY inv.units_available DESC, h.name ASC`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("searching inventory: %w", err)
	}
	defer rows.Close()

	return scanInventory(rows)
}

func scanInventory(rows *sql.Rows) ([]model.InventoryEntry, error) {
	var entries []model.InventoryEntry
	for rows.Next() {
		var e model.InventoryEntry
		var bloodType string
		if err := rows.Scan(&e.HospitalID, &bloodType, &e.UnitsAvailable, &e.LastUpdated, &e.HospitalName); err != nil {
			return nil, fmt.Errorf("scanning inventory: %w", err)
		}
		e.BloodType = model.BloodType(bloodType)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
