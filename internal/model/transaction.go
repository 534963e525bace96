package model

import "time"

// TransactionType classifies an audit log entry.
type TransactionType string

// Transaction types.
const (
	TransactionDonation TransactionType = "donation"
	TransactionRequest  TransactionType = "request"
	TransactionTransfer TransactionType = "transfer"
)

// Transaction statuses.
const (
	TransactionPending   = "pending"
	TransactionCompleted = "completed"
	TransactionCancelled = "cancelled"
)

// Transaction is an append-only audit record of a donation, request or
// transfer. It is not authoritative for stock levels.
type Transaction struct {
	ID               int64           `json:"id"`
	Type             TransactionType `json:"transaction_type"`
	BloodType        BloodType       `json:"blood_type"`
	Units            int             `json:"units"`
	HospitalID       int64           `json:"hospital_id"`
	TargetHospitalID *int64          `json:"target_hospital_id,omitempty"`
	RequestID        *int64          `json:"request_id,omitempty"`
	Status           string          `json:"status"`
	Priority         Priority        `json:"priority_level,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	// Joined fields (not always populated).
	HospitalName       string `json:"hospital_name,omitempty"`
	TargetHospitalName string `json:"target_hospital_name,omitempty"`
}

// TransactionStats summarizes the audit log.
type TransactionStats struct {
	Total          int `json:"total_transactions"`
	Donations      int `json:"total_donations"`
	Requests       int `json:"total_requests"`
	Transfers      int `json:"total_transfers"`
	Pending        int `json:"pending_transactions"`
	Completed      int `json:"completed_transactions"`
	Cancelled      int `json:"cancelled_transactions"`
	DonatedUnits   int `json:"total_donated_units"`
	RequestedUnits int `json:"total_requested_units"`
}
