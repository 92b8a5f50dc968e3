package model

import "strings"

// RuleScope is the predicate scoping a rule to a subset of tickets.
// Declared conditions are ANDed; an empty scope matches every ticket and is
// used for catch-all low-priority rules.
type RuleScope struct {
	Category string `json:"category" koanf:"category"` // exact match, case-insensitive
	Priority int    `json:"priority" koanf:"priority"` // minimum ticket priority, 0 = any
	Source   string `json:"source" koanf:"source"`     // exact match, case-insensitive

	// RequireSkill demands candidates hold the ticket's required skill tag;
	// a missing skill then scores 0 and fails eligibility.
	RequireSkill bool `json:"require_skill" koanf:"require_skill"`
}

// Matches reports whether every declared condition holds for t.
func (s RuleScope) Matches(t Ticket) bool {
	if s.Category != "" && !strings.EqualFold(strings.TrimSpace(s.Category), strings.TrimSpace(t.Category)) {
		return false
	}
	if s.Priority > 0 && t.Priority < s.Priority {
		return false
	}
	if s.Source != "" && !strings.EqualFold(strings.TrimSpace(s.Source), strings.TrimSpace(t.Source)) {
		return false
	}
	return true
}

// AssignmentRule is one priority-ordered routing rule. The highest-priority
// active rule whose scope matches a ticket governs that ticket exclusively.
type AssignmentRule struct {
	ID       string    `json:"id" koanf:"id"`
	Name     string    `json:"name" koanf:"name" validate:"required"`
	Priority int       `json:"priority" koanf:"priority" validate:"min=0"` // lower = evaluated first
	Active   bool      `json:"is_active" koanf:"is_active"`
	Strategy Strategy  `json:"strategy" koanf:"strategy"`
	Scope    RuleScope `json:"scope" koanf:"scope"`

	// MaxTicketsPerTech caps candidate load under this rule; 0 means the
	// technician's own MaxCapacity is the only cap.
	MaxTicketsPerTech int `json:"max_tickets_per_tech" koanf:"max_tickets_per_tech" validate:"min=0"`
}
