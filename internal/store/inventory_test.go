package store

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/erazemk/bloodbank/internal/db"
	"github.com/erazemk/bloodbank/internal/model"
)

func TestCreditAndDebit(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	hid := mustHospital(t, database, "General")
	now := time.Now()

	if err := Credit(ctx, database, hid, model.BloodTypeAPos, 10, now); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if err := Debit(ctx, database, hid, model.BloodTypeAPos, 4, now); err != nil {
		t.Fatalf("Debit: %v", err)
	}

	units, err := GetUnits(ctx, database, hid, model.BloodTypeAPos)
	if err != nil {
		t.Fatalf("GetUnits: %v", err)
	}
	if units != 6 {
		t.Errorf("expected 6 units, got %d", units)
	}
}

func TestDebitInsufficientStock(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	hid := mustHospital(t, database, "General")
	now := time.Now()

	Credit(ctx, database, hid, model.BloodTypeONeg, 3, now)

	err := Debit(ctx, database, hid, model.BloodTypeONeg, 5, now)
	if !errors.Is(err, model.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	units, _ := GetUnits(ctx, database, hid, model.BloodTypeONeg)
	if units != 3 {
		t.Errorf("expected stock untouched at 3, got %d", units)
	}
}

func TestDebitExactBalanceReachesZero(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	hid := mustHospital(t, database, "General")
	now := time.Now()

	Credit(ctx, database, hid, model.BloodTypeBPos, 5, now)
	if err := Debit(ctx, database, hid, model.BloodTypeBPos, 5, now); err != nil {
		t.Fatalf("Debit: %v", err)
	}

	units, _ := GetUnits(ctx, database, hid, model.BloodTypeBPos)
	if units != 0 {
		t.Errorf("expected 0 units, got %d", units)
	}
}

func TestCreditDebitRejectNonPositive(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	hid := mustHospital(t, database, "General")
	now := time.Now()

	for _, units := range []int{0, -3} {
		if err := Credit(ctx, database, hid, model.BloodTypeAPos, units, now); !errors.Is(err, model.ErrValidation) {
			t.Errorf("Credit(%d): expected ErrValidation, got %v", units, err)
		}
		if err := Debit(ctx, database, hid, model.BloodTypeAPos, units, now); !errors.Is(err, model.ErrValidation) {
			t.Errorf("Debit(%d): expected ErrValidation, got %v", units, err)
		}
	}
}

func TestCreditCreatesMissingEntry(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	hid := mustHospital(t, database, "General")

	database.ExecContext(ctx, `DELETE FROM inventory WHERE hospital_id = ? AND blood_type = 'AB-'`, hid)

	if err := Credit(ctx, database, hid, model.BloodTypeABNeg, 2, time.Now()); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	units, _ := GetUnits(ctx, database, hid, model.BloodTypeABNeg)
	if units != 2 {
		t.Errorf("expected 2 units, got %d", units)
	}
}

func TestCreditRefusesBalanceAboveLimit(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	hid := mustHospital(t, database, "General")
	now := time.Now()

	if err := Credit(ctx, database, hid, model.BloodTypeONeg, model.MaxStockUnits, now); err != nil {
		t.Fatalf("Credit up to the limit: %v", err)
	}

	for _, units := range []int{1, model.MaxStockUnits, math.MaxInt} {
		if err := Credit(ctx, database, hid, model.BloodTypeONeg, units, now); !errors.Is(err, model.ErrValidation) {
			t.Errorf("Credit(%d) at the limit: expected ErrValidation, got %v", units, err)
		}
	}

	units, err := GetUnits(ctx, database, hid, model.BloodTypeONeg)
	if err != nil {
		t.Fatalf("GetUnits: %v", err)
	}
	if units != model.MaxStockUnits {
		t.Errorf("expected balance to stay at %d, got %d", model.MaxStockUnits, units)
	}

	if _, err := ListHospitalInventory(ctx, database, hid); err != nil {
		t.Errorf("ListHospitalInventory after refused credits: %v", err)
	}
}

func TestCreditRejectsOversizedNewEntry(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	hid := mustHospital(t, database, "General")

	database.ExecContext(ctx, `DELETE FROM inventory WHERE hospital_id = ? AND blood_type = 'A-'`, hid)

	err := Credit(ctx, database, hid, model.BloodTypeANeg, model.MaxStockUnits+1, time.Now())
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	units, _ := GetUnits(ctx, database, hid, model.BloodTypeANeg)
	if units != 0 {
		t.Errorf("expected no entry, got %d units", units)
	}
}

func TestListHospitalInventorySeeded(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	hid := mustHospital(t, database, "General")

	entries, err := ListHospitalInventory(ctx, database, hid)
	if err != nil {
		t.Fatalf("ListHospitalInventory: %v", err)
	}
	if len(entries) != len(model.BloodTypes) {
		t.Fatalf("expected %d entries, got %d", len(model.BloodTypes), len(entries))
	}
	for _, e := range entries {
		if e.UnitsAvailable != 0 {
			t.Errorf("expected %s seeded at 0, got %d", e.BloodType, e.UnitsAvailable)
		}
		if e.HospitalName != "General" {
			t.Errorf("expected hospital name 'General', got %q", e.HospitalName)
		}
	}
}

func TestSearchAvailable(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	a := mustHospital(t, database, "Alpha")
	b := mustHospital(t, database, "Beta")
	now := time.Now()

	Credit(ctx, database, a, model.BloodTypeONeg, 4, now)
	Credit(ctx, database, b, model.BloodTypeAPos, 9, now)
	Credit(ctx, database, b, model.BloodTypeBPos, 7, now)

	exact, err := SearchAvailable(ctx, database, model.BloodTypeAPos, 1, false)
	if err != nil {
		t.Fatalf("SearchAvailable exact: %v", err)
	}
	if len(exact) != 1 || exact[0].HospitalID != b {
		t.Fatalf("expected only Beta A+, got %+v", exact)
	}

	compat, err := SearchAvailable(ctx, database, model.BloodTypeAPos, 1, true)
	if err != nil {
		t.Fatalf("SearchAvailable compatible: %v", err)
	}
	// A+ can receive A+, A-, O+, O-; B+ must not appear.
	if len(compat) != 2 {
		t.Fatalf("expected 2 compatible entries, got %+v", compat)
	}
	if compat[0].UnitsAvailable != 9 || compat[1].BloodType != model.BloodTypeONeg {
		t.Errorf("expected results ordered by units desc, got %+v", compat)
	}

	none, _ := SearchAvailable(ctx, database, model.BloodTypeAPos, 10, false)
	if len(none) != 0 {
		t.Errorf("expected no results above 9 units, got %+v", none)
	}
}
