package model

import "time"

// ScoreBreakdown records the factor scores behind a candidate's composite.
// All values are in [0,100].
type ScoreBreakdown struct {
	Skill       float64 `json:"skill"`
	Workload    float64 `json:"workload"`
	Performance float64 `json:"performance"`
	Location    float64 `json:"location"`
	Composite   float64 `json:"composite"`
}

// AssignmentDecision is the engine's terminal output for one ticket: either
// a committed assignment to a technician or an escalation to the fallback
// manager. Escalation is a defined outcome, not an error.
type AssignmentDecision struct {
	ID           string         `json:"id"`
	TicketID     string         `json:"ticket_id"`
	TechnicianID string         `json:"technician_id"` // manager id when escalated
	Escalated    bool           `json:"escalated"`
	RuleID       string         `json:"rule_id,omitempty"` // empty when no rule matched
	Strategy     Strategy       `json:"strategy"`
	Breakdown    ScoreBreakdown `json:"score_breakdown"`
	AssignedAt   time.Time      `json:"assigned_at"`
}
