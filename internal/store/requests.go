package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/bloodbank/internal/model"
)

const requestSelect = `SELECT r.id, r.requesting_hospital_id, r.source_hospital_id, r.blood_type, r.units_requested,
        r.priority, r.status, r.patient_name, r.patient_id, r.requesting_doctor, r.purpose, r.notes,
        r.created_at, r.updated_at,
        rh.name AS requesting_hospital_name, COALESCE(sh.name, '') AS source_hospital_name
 FROM blood_requests r
 JOIN hospitals rh ON rh.id = r.requesting_hospital_id
 LEFT JOIN hospitals sh ON sh.id = r.source_hospital_id`

// CreateBloodRequest stores a new blood request and returns its id.
func CreateBloodRequest(ctx context.Context, q Querier, req *model.BloodRequest) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO blood_requests (requesting_hospital_id, source_hospital_id, blood_type, units_requested,
		     priority, status, patient_name, patient_id, requesting_doctor, purpose, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.RequestingHospitalID, req.SourceHospitalID, string(req.BloodType), req.UnitsRequested,
		string(req.Priority), string(req.Status), req.PatientName, req.PatientID, req.RequestingDoctor,
		req.Purpose, req.Notes, req.CreatedAt.UTC(), req.UpdatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("creating blood request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting blood request id: %w", err)
	}
	return id, nil
}

// GetBloodRequest returns a blood request by ID.
func GetBloodRequest(ctx context.Context, q Querier, id int64) (*model.BloodRequest, error) {
	req, err := scanRequest(q.QueryRowContext(ctx, requestSelect+` WHERE r.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: blood request %d", model.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting blood request: %w", err)
	}
	return req, nil
}

// SetBloodRequestStatus changes a request's status if it is still in status
// from. It does not validate the transition itself.
func SetBloodRequestStatus(ctx context.Context, q Querier, id int64, from, to model.RequestStatus, sourceHospitalID *int64, at time.Time) error {
	result, err := q.ExecContext(ctx,
		`UPDATE blood_requests
		 SET status = ?, source_hospital_id = COALESCE(?, source_hospital_id), updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(to), sourceHospitalID, at.UTC(), id, string(from),
	)
	if err != nil {
		return fmt.Errorf("updating blood request status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating blood request status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: blood request %d is no longer %s", model.ErrInvalidTransition, id, from)
	}
	return nil
}

// RequestFilter narrows ListBloodRequests. Zero values match everything.
type RequestFilter struct {
	// HospitalID matches requests the hospital made or fulfilled.
	HospitalID int64
	Status     model.RequestStatus
	BloodType  model.BloodType
}

// ListBloodRequests returns blood requests, newest first.
func ListBloodRequests(ctx context.Context, q Querier, f RequestFilter) ([]model.BloodRequest, error) {
	query := requestSelect + ` WHERE 1=1`
	var args []any

	if f.HospitalID > 0 {
		query += ` AND (r.requesting_hospital_id = ? OR r.source_hospital_id = ?)`
		args = append(args, f.HospitalID, f.HospitalID)
	}
	if f.Status != "" {
		query += ` AND r.status = ?`
		args = append(args, string(f.Status))
	}
	if f.BloodType != "" {
		query += ` AND r.blood_type = ?`
		args = append(args, string(f.BloodType))
	}

	query += ` ORDER BY r.created_at DESC, r.id DESC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing blood requests: %w", err)
	}
	defer rows.Close()

	var requests []model.BloodRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning blood request: %w", err)
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

// RequestStatistics counts a hospital's requests by direction and status.
func RequestStatistics(ctx context.Context, q Querier, hospitalID int64) (*model.RequestStats, error) {
	s := &model.RequestStats{}
	err := q.QueryRowContext(ctx,
		`SELECT
		     COALESCE(SUM(CASE WHEN requesting_hospital_id = ?1 THEN 1 ELSE 0 END), 0),
		     COALESCE(SUM(CASE WHEN source_hospital_id = ?1 THEN 1 ELSE 0 END), 0),
		     COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
		     COALESCE(SUM(CASE WHEN status = 'approved' THEN 1 ELSE 0 END), 0),
		     COALESCE(SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END), 0),
		     COALESCE(SUM(CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END), 0)
		 FROM blood_requests
		 WHERE requesting_hospital_id = ?1 OR source_hospital_id = ?1`, hospitalID,
	).Scan(&s.Outgoing, &s.Incoming, &s.Pending, &s.Approved, &s.Rejected, &s.Cancelled)
	if err != nil {
		return nil, fmt.Errorf("getting request statistics: %w", err)
	}
	return s, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*model.BloodRequest, error) {
	r := &model.BloodRequest{}
	var bloodType, priority, status string
	err := row.Scan(&r.ID, &r.RequestingHospitalID, &r.SourceHospitalID, &bloodType, &r.UnitsRequested,
		&priority, &status, &r.PatientName, &r.PatientID, &r.RequestingDoctor, &r.Purpose, &r.Notes,
		&r.CreatedAt, &r.UpdatedAt,
		&r.RequestingHospitalName, &r.SourceHospitalName)
	if err != nil {
		return nil, err
	}
	r.BloodType = model.BloodType(bloodType)
	r.Priority = model.Priority(priority)
	r.Status = model.RequestStatus(status)
	return r, nil
}
