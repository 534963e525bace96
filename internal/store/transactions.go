package store

import (
	"context"
	"fmt"

	"github.com/erazemk/bloodbank/internal/model"
)

// DefaultTransactionLimit caps ListTransactions when no limit is given.
const DefaultTransactionLimit = 100

// CreateTransaction appends an audit record. Records are never updated.
func CreateTransaction(ctx context.Context, q Querier, tr *model.Transaction) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO transactions (transaction_type, blood_type, units, hospital_id, target_hospital_id,
		     request_id, status, priority_level, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(tr.Type), string(tr.BloodType), tr.Units, tr.HospitalID, tr.TargetHospitalID,
		tr.RequestID, tr.Status, string(tr.Priority), tr.Notes, tr.CreatedAt.UTC(), tr.UpdatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("creating transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting transaction id: %w", err)
	}
	return id, nil
}

// TransactionFilter narrows ListTransactions and TransactionStatistics.
type TransactionFilter struct {
	// HospitalID matches records on either side of a transfer.
	HospitalID int64
	Type       model.TransactionType
	Status     string
	Limit      int
}

func (f TransactionFilter) where() (string, []any) {
	clause := ` WHERE 1=1`
	var args []any
	if f.HospitalID > 0 {
		clause += ` AND (t.hospital_id = ? OR t.target_hospital_id = ?)`
		args = append(args, f.HospitalID, f.HospitalID)
	}
	if f.Type != "" {
		clause += ` AND t.transaction_type = ?`
		args = append(args, string(f.Type))
	}
	if f.Status != "" {
		clause += ` AND t.status = ?`
		args = append(args, f.Status)
	}
	return clause, args
}

// ListTransactions returns audit records, newest first.
func ListTransactions(ctx context.Context, q Querier, f TransactionFilter) ([]model.Transaction, error) {
	where, args := f.where()
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultTransactionLimit
	}
	args = append(args, limit)

	rows, err := q.QueryContext(ctx,
		`SELECT t.id, t.transaction_type, t.blood_type, t.units, t.hospital_id, t.target_hospital_id,
		        t.request_id, t.status, t.priority_level, t.notes, t.created_at, t.updated_at,
		        h.name, COALESCE(th.name, '')
		 FROM transactions t
		 JOIN hospitals h ON h.id = t.hospital_id
		 LEFT JOIN hospitals th ON th.id = t.target_hospital_id`+where+`
		 ORDER BY t.created_at DESC, t.id DESC
		 LIMIT ?`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		var tr model.Transaction
		var typ, bloodType, priority string
		if err := rows.Scan(&tr.ID, &typ, &bloodType, &tr.Units, &tr.HospitalID, &tr.TargetHospitalID,
			&tr.RequestID, &tr.Status, &priority, &tr.Notes, &tr.CreatedAt, &tr.UpdatedAt,
			&tr.HospitalName, &tr.TargetHospitalName); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		tr.Type = model.TransactionType(typ)
		tr.BloodType = model.BloodType(bloodType)
		tr.Priority = model.Priority(priority)
		txs = append(txs, tr)
	}
	return txs, rows.Err()
}

// TransactionStatistics summarizes audit records matching f. Limit is ignored.
func TransactionStatistics(ctx context.Context, q Querier, f TransactionFilter) (*model.TransactionStats, error) {
	where, args := f.where()
	s := &model.TransactionStats{}
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*),
		     COALESCE(SUM(CASE WHEN t.transaction_type = 'donation' THEN 1 ELSE 0 END), 0),
		     COALESCE(SUM(CASE WHEN t.transaction_type = 'request' THEN 1 ELSE 0 END), 0),
		     COALESCE(SUM(CASE WHEN t.transaction_type = 'transfer' THEN 1 ELSE 0 END), 0),
		     COALESCE(SUM(CASE WHEN t.status = 'pending' THEN 1 ELSE 0 END), 0),
		     COALESCE(SUM(CASE WHEN t.status = 'completed' THEN 1 ELSE 0 END), 0),
		     COALESCE(SUM(CASE WHEN t.status = 'cancelled' THEN 1 ELSE 0 END), 0),
		     COALESCE(SUM(CASE WHEN t.transaction_type = 'donation' THEN t.units ELSE 0 END), 0),
		     COALESCE(SUM(CASE WHEN t.transaction_type = 'request' THEN t.units ELSE 0 END), 0)
		 FROM transactions t`+where, args...,
	).Scan(&s.Total, &s.Donations, &s.Requests, &s.Transfers, &s.Pending, &s.Completed, &s.Cancelled,
		&s.DonatedUnits, &s.RequestedUnits)
	if err != nil {
		return nil, fmt.Errorf("getting transaction statistics: %w", err)
	}
	return s, nil
}
