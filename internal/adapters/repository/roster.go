// Package repository defines the technician roster: the capacity ledger,
// availability tracker, and skill registry behind every assignment decision.
package repository

import (
	"context"
	"time"

	"github.com/okian/dispatch/internal/domain/model"
)

// Profile is a point-in-time view of one technician's roster entry.
type Profile struct {
	Tech          model.Technician
	Skills        []model.Skill
	Status        model.Status
	ActiveTickets int
	LastSeen      time.Time
}

// Requirement expresses the eligibility constraints in force for one
// assignment: the global flags plus the governing rule's overrides.
type Requirement struct {
	// PreventOverload excludes technicians without capacity headroom.
	PreventOverload bool

	// RespectHours excludes technicians outside their working window at At.
	RespectHours bool
	At           time.Time

	// MaxPerTech caps active tickets under the governing rule; 0 = no
	// override beyond the technician's own MaxCapacity.
	MaxPerTech int

	// RequiredSkill, when non-empty, demands the candidate hold the skill.
	RequiredSkill string
}

// Roster provides read/write access to technician state. Reserve and
// Release are the only operations mutating the capacity ledger and are
// serialized per technician, never globally.
type Roster interface {
	// UpsertTechnician creates or replaces a technician's base record,
	// preserving the current active-ticket count and skills.
	UpsertTechnician(ctx context.Context, t model.Technician) error

	// UpsertSkill creates or replaces one (technician, skill) row.
	UpsertSkill(ctx context.Context, technicianID string, s model.Skill) error

	// SetStatus updates availability status.
	SetStatus(ctx context.Context, technicianID string, st model.Status) error

	// Heartbeat records liveness and an optional current location.
	Heartbeat(ctx context.Context, technicianID string, at time.Time, location string) error

	// Get returns the technician's profile.
	// Returns ErrTechnicianNotFound if the technician is unknown.
	Get(ctx context.Context, technicianID string) (Profile, error)

	// Eligible reports whether one technician passes the filtering
	// invariants under req.
	Eligible(ctx context.Context, technicianID string, req Requirement) (bool, error)

	// Online reports whether a profile counts as online (not offline and
	// heartbeat not stale).
	Online(p Profile) bool

	// Candidates returns the profiles eligible under req, ordered by
	// ascending technician id (the stable round-robin order).
	Candidates(ctx context.Context, req Requirement) []Profile

	// Reserve atomically re-checks capacity under req and increments the
	// active-ticket count. Returns ErrCapacityExceeded when the headroom
	// observed during ranking was lost to a concurrent assignment.
	Reserve(ctx context.Context, technicianID string, req Requirement) error

	// Release decrements the active-ticket count when a ticket closes or
	// reassigns. Invoked by the ticket lifecycle collaborator.
	Release(ctx context.Context, technicianID string) error

	// Snapshot returns a relaxed, eventually-consistent workload view. It
	// must not take the per-technician reservation locks.
	Snapshot(ctx context.Context) []Profile

	// Count returns the number of technicians on the roster.
	Count(ctx context.Context) int
}
