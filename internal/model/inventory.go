package model

import (
	"fmt"
	"time"
)

const (
	// MaxUnitsPerOperation bounds a single donation or request.
	MaxUnitsPerOperation = 100_000
	// MaxStockUnits bounds what one hospital may hold of one blood type.
	MaxStockUnits = 1_000_000_000
)

// InventoryEntry is the number of units of one blood type a hospital holds.
type InventoryEntry struct {
	HospitalID     int64     `json:"hospital_id"`
	BloodType      BloodType `json:"blood_type"`
	UnitsAvailable int       `json:"units_available"`
	LastUpdated    time.Time `json:"last_updated"`

	// Joined fields (not always populated).
	HospitalName string `json:"hospital_name,omitempty"`
}

// ValidateUnits checks that units is positive and within MaxUnitsPerOperation.
// field names the value in the error.
func ValidateUnits(field string, units int) error {
	if units <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %d", ErrValidation, field, units)
	}
	if units > MaxUnitsPerOperation {
		return fmt.Errorf("%w: %s must be at most %d, got %d", ErrValidation, field, MaxUnitsPerOperation, units)
	}
	return nil
}

// CanCredit reports whether adding units to a balance keeps it within MaxStockUnits.
func CanCredit(balance, units int) bool {
	return units > 0 && units <= MaxStockUnits && balance <= MaxStockUnits-units
}
