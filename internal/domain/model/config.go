package model

// Weights holds the four scoring factor weights. Each must be within 0-100;
// the sum should be 100 but is normalized at scoring time, so an off-total
// set is accepted (flagged as a warning, not rejected).
type Weights struct {
	Skill       int `json:"skill" koanf:"skill" validate:"min=0,max=100"`
	Workload    int `json:"workload" koanf:"workload" validate:"min=0,max=100"`
	Performance int `json:"performance" koanf:"performance" validate:"min=0,max=100"`
	Location    int `json:"location" koanf:"location" validate:"min=0,max=100"`
}

// Total returns the weight sum used for normalization.
func (w Weights) Total() int {
	return w.Skill + w.Workload + w.Performance + w.Location
}

// GlobalConfig is the engine-wide configuration singleton. It is read on
// every assignment and replaced atomically by administrative updates.
type GlobalConfig struct {
	Enabled         bool     `json:"is_enabled" koanf:"is_enabled"`
	DefaultStrategy Strategy `json:"default_strategy" koanf:"default_strategy"`
	ManagerID       string   `json:"manager_id" koanf:"manager_id" validate:"required"`
	Weights         Weights  `json:"weights" koanf:"weights"`

	PreventOverload     bool `json:"prevent_overload" koanf:"prevent_overload"`
	RespectWorkingHours bool `json:"respect_working_hours" koanf:"respect_working_hours"`

	NotifyEmail bool `json:"notify_email" koanf:"notify_email"`
	NotifySMS   bool `json:"notify_sms" koanf:"notify_sms"`

	// Score granted on a location mismatch (match is always 100).
	LocationMismatchScore float64 `json:"location_mismatch_score" koanf:"location_mismatch_score" validate:"min=0,max=100"`
}
