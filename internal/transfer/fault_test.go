package transfer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/bloodbank/internal/memstore"
	"github.com/erazemk/bloodbank/internal/model"
)

var errDisk = errors.New("disk on fire")

func TestApprovalFaultsRollBack(t *testing.T) {
	for _, op := range []string{memstore.OpDebit, memstore.OpCredit, memstore.OpSetStatus, memstore.OpAppend} {
		t.Run(op, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.store.SetUnits(f.a, model.BloodTypeONeg, 10)
			req := f.submit(t, f.b, model.BloodTypeONeg, 3)
			auditBefore := len(f.store.Transactions())

			f.store.FailOn(op, errDisk)
			_, err := f.coord.ChangeStatus(ctx, req.ID, "approved", ptr(f.a))
			require.ErrorIs(t, err, errDisk)

			assert.Equal(t, 10, f.store.Units(f.a, model.BloodTypeONeg))
			assert.Equal(t, 0, f.store.Units(f.b, model.BloodTypeONeg))
			stored, _ := f.store.Request(req.ID)
			assert.Equal(t, model.StatusPending, stored.Status)
			assert.Nil(t, stored.SourceHospitalID)
			assert.Len(t, f.store.Transactions(), auditBefore)

			// The fault fires once; a retry goes through.
			_, err = f.coord.ChangeStatus(ctx, req.ID, "approved", ptr(f.a))
			require.NoError(t, err)
			assert.Equal(t, 7, f.store.Units(f.a, model.BloodTypeONeg))
		})
	}
}

func TestReversalFaultsRollBack(t *testing.T) {
	for _, op := range []string{memstore.OpDebit, memstore.OpCredit, memstore.OpSetStatus, memstore.OpAppend} {
		t.Run(op, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.store.SetUnits(f.a, model.BloodTypeONeg, 10)
			req := f.submit(t, f.b, model.BloodTypeONeg, 3)
			_, err := f.coord.ChangeStatus(ctx, req.ID, "approved", ptr(f.a))
			require.NoError(t, err)

			f.store.FailOn(op, errDisk)
			_, err = f.coord.ChangeStatus(ctx, req.ID, "rejected", nil)
			require.ErrorIs(t, err, errDisk)

			assert.Equal(t, 7, f.store.Units(f.a, model.BloodTypeONeg))
			assert.Equal(t, 3, f.store.Units(f.b, model.BloodTypeONeg))
			stored, _ := f.store.Request(req.ID)
			assert.Equal(t, model.StatusApproved, stored.Status)
		})
	}
}

func TestDonationFaultRollsBack(t *testing.T) {
	f := newFixture(t)
	f.store.FailOn(memstore.OpAppend, errDisk)

	_, err := f.coord.RecordDonation(context.Background(), model.NewDonation{
		DonorName:  "Eva",
		BloodType:  model.BloodTypeAPos,
		Units:      3,
		HospitalID: f.a,
	})
	require.ErrorIs(t, err, errDisk)
	assert.Equal(t, 0, f.store.Units(f.a, model.BloodTypeAPos))
	assert.Empty(t, f.store.Donations())
}
