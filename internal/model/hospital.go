package model

import (
	"fmt"
	"strings"
	"time"
)

// Hospital is a tenant of the blood bank network.
type Hospital struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Address       string    `json:"address,omitempty"`
	ContactPerson string    `json:"contact_person,omitempty"`
	ContactNumber string    `json:"contact_number,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewHospital holds the fields needed to register a hospital.
type NewHospital struct {
	Name          string
	Address       string
	ContactPerson string
	ContactNumber string
}

// Validate checks that the hospital has a name.
func (n NewHospital) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("%w: hospital name is required", ErrValidation)
	}
	return nil
}
