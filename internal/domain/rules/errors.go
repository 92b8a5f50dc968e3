package rules

import "errors"

// Sentinel kinds for rule set errors.
var (
	ErrNotFound   = errors.New("rule not found")
	ErrValidation = errors.New("rule validation failed")
)
