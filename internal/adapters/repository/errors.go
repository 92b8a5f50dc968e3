package repository

import "errors"

// Sentinel kinds for roster errors.
var (
	ErrTechnicianNotFound = errors.New("technician not found")
	ErrCapacityExceeded   = errors.New("capacity exceeded")
	ErrInvalidStatus      = errors.New("invalid status")
)
