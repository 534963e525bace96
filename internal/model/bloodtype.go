package model

import "fmt"

// BloodType is an ABO/Rh blood group.
type BloodType string

// Supported blood types.
const (
	BloodTypeAPos  BloodType = "A+"
	BloodTypeANeg  BloodType = "A-"
	BloodTypeBPos  BloodType = "B+"
	BloodTypeBNeg  BloodType = "B-"
	BloodTypeABPos BloodType = "AB+"
	BloodTypeABNeg BloodType = "AB-"
	BloodTypeOPos  BloodType = "O+"
	BloodTypeONeg  BloodType = "O-"
)

// BloodTypes lists every supported blood type in display order.
var BloodTypes = []BloodType{
	BloodTypeAPos, BloodTypeANeg,
	BloodTypeBPos, BloodTypeBNeg,
	BloodTypeABPos, BloodTypeABNeg,
	BloodTypeOPos, BloodTypeONeg,
}

// compatibleDonors maps a recipient type to the donor types it can receive.
var compatibleDonors = map[BloodType][]BloodType{
	BloodTypeAPos:  {BloodTypeAPos, BloodTypeANeg, BloodTypeOPos, BloodTypeONeg},
	BloodTypeANeg:  {BloodTypeANeg, BloodTypeONeg},
	BloodTypeBPos:  {BloodTypeBPos, BloodTypeBNeg, BloodTypeOPos, BloodTypeONeg},
	BloodTypeBNeg:  {BloodTypeBNeg, BloodTypeONeg},
	BloodTypeABPos: {BloodTypeAPos, BloodTypeANeg, BloodTypeBPos, BloodTypeBNeg, BloodTypeABPos, BloodTypeABNeg, BloodTypeOPos, BloodTypeONeg},
	BloodTypeABNeg: {BloodTypeANeg, BloodTypeBNeg, BloodTypeABNeg, BloodTypeONeg},
	BloodTypeOPos:  {BloodTypeOPos, BloodTypeONeg},
	BloodTypeONeg:  {BloodTypeONeg},
}

// Valid reports whether b is one of the supported blood types.
func (b BloodType) Valid() bool {
	_, ok := compatibleDonors[b]
	return ok
}

// ParseBloodType converts s to a BloodType.
func ParseBloodType(s string) (BloodType, error) {
	b := BloodType(s)
	if !b.Valid() {
		return "", fmt.Errorf("%w: unsupported blood type %q", ErrValidation, s)
	}
	return b, nil
}

// CompatibleDonors returns the donor blood types a recipient of type b can
// safely receive. The result is a copy and may be modified by the caller.
func CompatibleDonors(b BloodType) []BloodType {
	donors := compatibleDonors[b]
	out := make([]BloodType, len(donors))
	copy(out, donors)
	return out
}
