package memstore

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/bloodbank/internal/model"
	"github.com/erazemk/bloodbank/internal/transfer"
)

func TestInTxRestoresStateOnError(t *testing.T) {
	s := New()
	h := s.AddHospital("General")
	s.SetUnits(h, model.BloodTypeOPos, 5)
	boom := errors.New("boom")

	err := s.InTx(context.Background(), func(tx transfer.Tx) error {
		require.NoError(t, tx.Debit(context.Background(), h, model.BloodTypeOPos, 3, time.Now()))
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 5, s.Units(h, model.BloodTypeOPos))
}

func TestDebitRefusesOverdraw(t *testing.T) {
	s := New()
	h := s.AddHospital("General")
	s.SetUnits(h, model.BloodTypeANeg, 2)

	err := s.InTx(context.Background(), func(tx transfer.Tx) error {
		return tx.Debit(context.Background(), h, model.BloodTypeANeg, 3, time.Now())
	})
	require.ErrorIs(t, err, model.ErrInsufficientStock)
	assert.Equal(t, 2, s.Units(h, model.BloodTypeANeg))
}

func TestFailOnFiresOnce(t *testing.T) {
	s := New()
	h := s.AddHospital("General")
	injected := errors.New("disk full")
	s.FailOn(OpCredit, injected)

	credit := func(tx transfer.Tx) error {
		return tx.Credit(context.Background(), h, model.BloodTypeBPos, 1, time.Now())
	}
	require.ErrorIs(t, s.InTx(context.Background(), credit), injected)
	require.NoError(t, s.InTx(context.Background(), credit))
	assert.Equal(t, 1, s.Units(h, model.BloodTypeBPos))
}

func TestSetRequestStatusComparesPriorStatus(t *testing.T) {
	s := New()
	h := s.AddHospital("General")
	ctx := context.Background()

	var id int64
	require.NoError(t, s.InTx(ctx, func(tx transfer.Tx) error {
		var err error
		id, err = tx.CreateRequest(ctx, &model.BloodRequest{
			RequestingHospitalID: h, BloodType: model.BloodTypeOPos, UnitsRequested: 1, Status: model.StatusPending,
		})
		return err
	}))

	err := s.InTx(ctx, func(tx transfer.Tx) error {
		return tx.SetRequestStatus(ctx, id, model.StatusApproved, model.StatusRejected, nil, time.Now())
	})
	require.ErrorIs(t, err, model.ErrInvalidTransition)

	require.NoError(t, s.InTx(ctx, func(tx transfer.Tx) error {
		return tx.SetRequestStatus(ctx, id, model.StatusPending, model.StatusCancelled, nil, time.Now())
	}))
	r, ok := s.Request(id)
	require.True(t, ok)
	assert.Equal(t, model.StatusCancelled, r.Status)
}

func TestListInventorySeedsEveryType(t *testing.T) {
	s := New()
	h := s.AddHospital("General")

	entries, err := s.ListInventory(context.Background(), h)
	require.NoError(t, err)
	assert.Len(t, entries, len(model.BloodTypes))
	for _, e := range entries {
		assert.Zero(t, e.UnitsAvailable)
	}
}

func TestCreditRefusesBalanceAboveLimit(t *testing.T) {
	s := New()
	h := s.AddHospital("General")
	ctx := context.Background()

	credit := func(units int) error {
		return s.InTx(ctx, func(tx transfer.Tx) error {
			return tx.Credit(ctx, h, model.BloodTypeONeg, units, time.Now())
		})
	}

	require.NoError(t, credit(model.MaxStockUnits))
	for _, units := range []int{1, math.MaxInt} {
		require.ErrorIs(t, credit(units), model.ErrValidation, "credit of %d", units)
	}
	assert.Equal(t, model.MaxStockUnits, s.Units(h, model.BloodTypeONeg))

	s.SetUnits(h, model.BloodTypeOPos, 0)
	require.ErrorIs(t, s.InTx(ctx, func(tx transfer.Tx) error {
		return tx.Credit(ctx, h, model.BloodTypeOPos, math.MaxInt, time.Now())
	}), model.ErrValidation)
	assert.Zero(t, s.Units(h, model.BloodTypeOPos))
}
