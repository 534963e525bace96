package transfer

import (
	"context"
	"time"

	"github.com/erazemk/bloodbank/internal/model"
)

// Tx is the set of record and ledger operations available inside a single
// serialized unit of work. Implementations must make every mutation made
// through a Tx visible to other callers only if the enclosing InTx callback
// returns nil.
type Tx interface {
	// HospitalExists reports whether a hospital with the given id is registered.
	HospitalExists(ctx context.Context, id int64) (bool, error)

	// GetRequest returns the request or an error wrapping model.ErrNotFound.
	GetRequest(ctx context.Context, id int64) (*model.BloodRequest, error)

	// CreateRequest stores a new request and returns its id.
	CreateRequest(ctx context.Context, req *model.BloodRequest) (int64, error)

	// SetRequestStatus moves a request from status from to status to. It does
	// not know the state machine; it only fails with model.ErrInvalidTransition
	// when the stored status is no longer from. A non-nil sourceHospitalID is
	// persisted alongside the status.
	SetRequestStatus(ctx context.Context, id int64, from, to model.RequestStatus, sourceHospitalID *int64, at time.Time) error

	// Credit adds units to a hospital's stock, creating the entry at zero if absent.
	Credit(ctx context.Context, hospitalID int64, bloodType model.BloodType, units int, at time.Time) error

	// Debit removes units from a hospital's stock. It fails with
	// model.ErrInsufficientStock, without mutating anything, when the entry is
	// absent or holds fewer than units.
	Debit(ctx context.Context, hospitalID int64, bloodType model.BloodType, units int, at time.Time) error

	// CreateDonation stores a donation record and returns its id.
	CreateDonation(ctx context.Context, d *model.Donation) (int64, error)

	// AppendTransaction adds an entry to the audit log.
	AppendTransaction(ctx context.Context, t *model.Transaction) error
}

// Store is the persistence boundary the Coordinator drives.
type Store interface {
	// InTx runs fn inside one serialized unit of work. If fn returns an error,
	// every mutation it made is discarded and the error is returned unchanged.
	InTx(ctx context.Context, fn func(Tx) error) error

	// ListInventory returns a hospital's inventory ordered by blood type.
	ListInventory(ctx context.Context, hospitalID int64) ([]model.InventoryEntry, error)
}
