package model

import (
	"errors"
	"fmt"
)

// Sentinel kinds for domain model errors. These allow errors.Is from callers.
var (
	ErrInvalidTicket   = errors.New("invalid ticket")
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrUnknownStatus   = errors.New("unknown status")
)

// WrapInvalidTicket annotates ErrInvalidTicket with the failing field.
func WrapInvalidTicket(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidTicket, reason)
}
