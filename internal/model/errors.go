package model

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for malformed or out-of-range input.
	ErrValidation = errors.New("validation error")

	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when a blood request cannot move to the
	// requested status from its current one.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInsufficientStock is returned when a debit exceeds the available units.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrMissingApprover is returned when an approval carries no approving
	// hospital. It also matches ErrValidation.
	ErrMissingApprover = fmt.Errorf("%w: approving hospital id is required", ErrValidation)
)
