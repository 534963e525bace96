package store

import (
	"context"
	"fmt"

	"github.com/erazemk/bloodbank/internal/model"
)

// CreateDonation stores a donation record. It does not touch inventory.
func CreateDonation(ctx context.Context, q Querier, d *model.Donation) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO donations (donor_name, blood_type, units, hospital_id, donated_at) VALUES (?, ?, ?, ?, ?)`,
		d.DonorName, string(d.BloodType), d.Units, d.HospitalID, d.DonatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("creating donation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting donation id: %w", err)
	}
	return id, nil
}

// ListDonations returns a hospital's donations, newest first.
func ListDonations(ctx context.Context, q Querier, hospitalID int64) ([]model.Donation, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, donor_name, blood_type, units, hospital_id, donated_at
		 FROM donations WHERE hospital_id = ?
		 ORDER BY donated_at DESC, id DESC`, hospitalID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing donations: %w", err)
	}
	defer rows.Close()

	var donations []model.Donation
	for rows.Next() {
		var d model.Donation
		var bloodType string
		if err := rows.Scan(&d.ID, &d.DonorName, &bloodType, &d.Units, &d.HospitalID, &d.DonatedAt); err != nil {
			return nil, fmt.Errorf("scanning donation: %w", err)
		}
		d.BloodType = model.BloodType(bloodType)
		donations = append(donations, d)
	}
	return donations, rows.Err()
}
