package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/bloodbank/internal/model"
	"github.com/erazemk/bloodbank/internal/transfer"
)

// Querier is the subset of database/sql shared by *sql.DB, *sql.Tx and
// *sql.Conn, so store functions compose inside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repo adapts the store functions to transfer.Store.
type Repo struct {
	DB *sql.DB
}

// NewRepo returns a Repo backed by db.
func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

var _ transfer.Store = (*Repo)(nil)

// InTx runs fn on a dedicated connection inside BEGIN IMMEDIATE. The write
// lock is taken before fn reads anything, so concurrent callers serialize.
func (r *Repo) InTx(ctx context.Context, fn func(transfer.Tx) error) error {
	conn, err := r.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(&sqlTx{q: conn}); err != nil {
		rollback(ctx, conn)
		return err
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		rollback(ctx, conn)
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// rollback aborts the open transaction on conn. A connection whose rollback
// fails is discarded so it never returns to the pool mid-transaction.
func rollback(ctx context.Context, conn *sql.Conn) {
	if _, err := conn.ExecContext(context.WithoutCancel(ctx), "ROLLBACK"); err != nil {
		slog.Error("rolling back transaction", "error", err)
		_ = conn.Raw(func(any) error { return driver.ErrBadConn })
	}
}

// ListInventory returns a hospital's inventory.
func (r *Repo) ListInventory(ctx context.Context, hospitalID int64) ([]model.InventoryEntry, error) {
	return ListHospitalInventory(ctx, r.DB, hospitalID)
}

// sqlTx binds the store functions to one open transaction.
type sqlTx struct {
	q Querier
}

func (t *sqlTx) HospitalExists(ctx context.Context, id int64) (bool, error) {
	return HospitalExists(ctx, t.q, id)
}

func (t *sqlTx) GetRequest(ctx context.Context, id int64) (*model.BloodRequest, error) {
	return GetBloodRequest(ctx, t.q, id)
}

func (t *sqlTx) CreateRequest(ctx context.Context, req *model.BloodRequest) (int64, error) {
	return CreateBloodRequest(ctx, t.q, req)
}

func (t *sqlTx) SetRequestStatus(ctx context.Context, id int64, from, to model.RequestStatus, sourceHospitalID *int64, at time.Time) error {
	return SetBloodRequestStatus(ctx, t.q, id, from, to, sourceHospitalID, at)
}

func (t *sqlTx) Credit(ctx context.Context, hospitalID int64, bloodType model.BloodType, units int, at time.Time) error {
	return Credit(ctx, t.q, hospitalID, bloodType, units, at)
}

func (t *sqlTx) Debit(ctx context.Context, hospitalID int64, bloodType model.BloodType, units int, at time.Time) error {
	return Debit(ctx, t.q, hospitalID, bloodType, units, at)
}

func (t *sqlTx) CreateDonation(ctx context.Context, d *model.Donation) (int64, error) {
	return CreateDonation(ctx, t.q, d)
}

func (t *sqlTx) AppendTransaction(ctx context.Context, tr *model.Transaction) error {
	_, err := CreateTransaction(ctx, t.q, tr)
	return err
}
