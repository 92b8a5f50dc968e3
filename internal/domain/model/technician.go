package model

import "time"

// Status enumerates technician availability states.
type Status string

// Technician availability states.
const (
	StatusAvailable Status = "available"
	StatusBusy      Status = "busy"
	StatusOffline   Status = "offline"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusBusy, StatusOffline:
		return true
	}
	return false
}

// Technician is a candidate assignee with a capacity limit and an optional
// declared working window.
type Technician struct {
	ID          string `json:"id" koanf:"id"`
	Name        string `json:"name" koanf:"name"`
	MaxCapacity int    `json:"max_capacity" koanf:"max_capacity" validate:"min=1"`
	Location    string `json:"location" koanf:"location"` // current site, may be empty

	// Declared working window, hours of day [ShiftStart, ShiftEnd).
	// Both zero means no declared window (always within hours).
	ShiftStart int `json:"shift_start" koanf:"shift_start" validate:"min=0,max=23"`
	ShiftEnd   int `json:"shift_end" koanf:"shift_end" validate:"min=0,max=24"`
}

// WithinShift reports whether at falls inside the declared working window.
// A window spanning midnight (end <= start) wraps to the next day.
func (t Technician) WithinShift(at time.Time) bool {
	if t.ShiftStart == 0 && t.ShiftEnd == 0 {
		return true
	}
	h := at.Hour()
	if t.ShiftStart < t.ShiftEnd {
		return h >= t.ShiftStart && h < t.ShiftEnd
	}
	return h >= t.ShiftStart || h < t.ShiftEnd
}

// Skill records a technician's proficiency for one named skill.
type Skill struct {
	Name        string `json:"name" koanf:"name" validate:"required"`
	Proficiency int    `json:"proficiency" koanf:"proficiency" validate:"min=1,max=5"`
	Certified   bool   `json:"certified" koanf:"certified"`
}
