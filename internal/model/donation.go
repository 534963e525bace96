package model

import (
	"fmt"
	"strings"
	"time"
)

// Donation is a batch of units collected at a hospital.
type Donation struct {
	ID         int64     `json:"id"`
	DonorName  string    `json:"donor_name"`
	BloodType  BloodType `json:"blood_type"`
	Units      int       `json:"units"`
	HospitalID int64     `json:"hospital_id"`
	DonatedAt  time.Time `json:"donated_at"`
}

// NewDonation holds the caller-supplied fields of a donation.
type NewDonation struct {
	DonorName  string
	BloodType  BloodType
	Units      int
	HospitalID int64
}

// Validate checks the donation before it reaches the ledger.
func (n NewDonation) Validate() error {
	if strings.TrimSpace(n.DonorName) == "" {
		return fmt.Errorf("%w: donor_name is required", ErrValidation)
	}
	if !n.BloodType.Valid() {
		return fmt.Errorf("%w: unsupported blood type %q", ErrValidation, n.BloodType)
	}
	if err := ValidateUnits("units", n.Units); err != nil {
		return err
	}
	if n.HospitalID <= 0 {
		return fmt.Errorf("%w: hospital_id is required", ErrValidation)
	}
	return nil
}
