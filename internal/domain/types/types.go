// Package types contains common read shapes shared between the service and
// the HTTP API.
package types

// WorkloadEntry is one row of the relaxed workload snapshot consumed by
// dashboards and heatmaps.
type WorkloadEntry struct {
	TechnicianID  string `json:"technician_id"`
	Name          string `json:"name"`
	ActiveTickets int    `json:"active_tickets"`
	MaxCapacity   int    `json:"max_capacity"`
	Status        string `json:"status"`
	Online        bool   `json:"is_online"`
}

// RuleStat reports how often a rule actually governed an assignment, derived
// from decision history rather than a synthetic counter.
type RuleStat struct {
	RuleID    string `json:"rule_id"`
	Triggered int    `json:"triggered"`
}
