// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Ticket represents a unit of work awaiting routing to a technician.
// Fields mirror what the ticket-creation workflow supplies on Assign.
type Ticket struct {
	ID            string    `json:"id"`             // unique id for idempotency
	Category      string    `json:"category"`       // e.g. "hardware", "network"
	Priority      int       `json:"priority"`       // 1 (low) .. 10 (critical)
	Source        string    `json:"source"`         // e.g. "portal", "webhook", "manual"
	Location      string    `json:"location"`       // declared site, may be empty
	RequiredSkill string    `json:"required_skill"` // skill tag, may be empty
	CreatedAt     time.Time `json:"created_at"`
}

// Validate rejects tickets missing required fields before any state change.
func (t Ticket) Validate() error {
	switch {
	case strings.TrimSpace(t.ID) == "":
		return WrapInvalidTicket("missing id")
	case strings.TrimSpace(t.Category) == "":
		return WrapInvalidTicket("missing category")
	case t.Priority < 0:
		return WrapInvalidTicket("negative priority")
	}
	return nil
}
