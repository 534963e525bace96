package model

import (
	"fmt"
	"strings"
	"time"
)

// RequestStatus is the lifecycle state of a blood request.
type RequestStatus string

// Request statuses.
const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCancelled RequestStatus = "cancelled"
)

// ParseRequestStatus converts s to a RequestStatus.
func ParseRequestStatus(s string) (RequestStatus, error) {
	switch st := RequestStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
}

// Priority is the urgency attached to a blood request.
type Priority string

// Priorities.
const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// ParsePriority converts s to a Priority. An empty string yields PriorityMedium.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	case "medium", "normal":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	case "critical":
		return PriorityCritical, nil
	}
	return "", fmt.Errorf("%w: unknown priority %q", ErrValidation, s)
}

// BloodRequest is a request by one hospital for units held by another.
// SourceHospitalID is set when the request is approved.
type BloodRequest struct {
	ID                   int64         `json:"id"`
	RequestingHospitalID int64         `json:"requesting_hospital_id"`
	SourceHospitalID     *int64        `json:"source_hospital_id,omitempty"`
	BloodType            BloodType     `json:"blood_type"`
	UnitsRequested       int           `json:"units_requested"`
	Priority             Priority      `json:"priority_level"`
	Status               RequestStatus `json:"status"`
	PatientName          string        `json:"patient_name,omitempty"`
	PatientID            string        `json:"patient_id,omitempty"`
	RequestingDoctor     string        `json:"requesting_doctor,omitempty"`
	Purpose              string        `json:"purpose,omitempty"`
	Notes                string        `json:"notes,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`

	// Joined fields (not always populated).
	RequestingHospitalName string `json:"requesting_hospital_name,omitempty"`
	SourceHospitalName     string `json:"source_hospital_name,omitempty"`
}

// NewRequest holds the caller-supplied fields of a blood request.
type NewRequest struct {
	RequestingHospitalID int64
	BloodType            BloodType
	UnitsRequested       int
	Priority             Priority
	PatientName          string
	PatientID            string
	RequestingDoctor     string
	Purpose              string
	Notes                string
}

// Validate checks the invariants a request must satisfy before it is stored.
func (n NewRequest) Validate() error {
	if n.RequestingHospitalID <= 0 {
		return fmt.Errorf("%w: requesting_hospital_id is required", ErrValidation)
	}
	if !n.BloodType.Valid() {
		return fmt.Errorf("%w: unsupported blood type %q", ErrValidation, n.BloodType)
	}
	if err := ValidateUnits("units_requested", n.UnitsRequested); err != nil {
		return err
	}
	if _, err := ParsePriority(string(n.Priority)); err != nil {
		return err
	}
	return nil
}

// Build returns a pending BloodRequest created at the given time.
func (n NewRequest) Build(at time.Time) (*BloodRequest, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	priority, _ := ParsePriority(string(n.Priority))
	return &BloodRequest{
		RequestingHospitalID: n.RequestingHospitalID,
		BloodType:            n.BloodType,
		UnitsRequested:       n.UnitsRequested,
		Priority:             priority,
		Status:               StatusPending,
		PatientName:          n.PatientName,
		PatientID:            n.PatientID,
		RequestingDoctor:     n.RequestingDoctor,
		Purpose:              n.Purpose,
		Notes:                n.Notes,
		CreatedAt:            at,
		UpdatedAt:            at,
	}, nil
}

// RequestStats counts a hospital's requests by status, split into requests
// it made and requests it fulfilled as the source.
type RequestStats struct {
	Outgoing  int `json:"outgoing"`
	Incoming  int `json:"incoming"`
	Pending   int `json:"pending"`
	Approved  int `json:"approved"`
	Rejected  int `json:"rejected"`
	Cancelled int `json:"cancelled"`
}
