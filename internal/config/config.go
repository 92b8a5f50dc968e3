// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - Load layers defaults, an optional YAML file, and env vars.
// - External errors are wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"

	"github.com/okian/dispatch/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	// QueueSize bounds the in-memory ticket intake queue.
	QueueSize int `koanf:"queue_size" validate:"min=1"`

	// WorkerCount sets the number of assignment workers.
	WorkerCount int `koanf:"worker_count" validate:"min=1"`

	// DedupeSize bounds the ticket idempotency cache; 0 = unbounded.
	DedupeSize int `koanf:"dedupe_size" validate:"min=0"`

	// HistorySize bounds the in-memory decision journal.
	HistorySize int `koanf:"history_size" validate:"min=1"`

	// CursorPath is the round-robin cursor snapshot file; empty disables
	// durability across restarts.
	CursorPath string `koanf:"cursor_path"`

	// HeartbeatTTLSec ages out silent technicians; 0 disables aging.
	HeartbeatTTLSec int `koanf:"heartbeat_ttl_sec" validate:"min=0"`

	// Assignment is the engine's global configuration singleton at boot.
	// It remains mutable at runtime through the administrative API.
	Assignment model.GlobalConfig `koanf:"assignment"`

	// Rules seeds the assignment rule set at boot.
	Rules []model.AssignmentRule `koanf:"rules"`

	// Technicians seeds the roster at boot.
	Technicians []TechnicianSeed `koanf:"technicians"`
}

// TechnicianSeed couples a technician record with its boot-time skills.
type TechnicianSeed struct {
	model.Technician `koanf:",squash"`

	Skills []model.Skill `koanf:"skills"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":9090",
		QueueSize:       10_000,
		WorkerCount:     runtime.NumCPU() * 2,
		DedupeSize:      50_000,
		HistorySize:     1_000,
		CursorPath:      "dispatch-cursors.json",
		HeartbeatTTLSec: 300,
		Assignment: model.GlobalConfig{
			Enabled:         true,
			DefaultStrategy: model.StrategyBalanced,
			ManagerID:       "manager",
			Weights: model.Weights{
				Skill:       40,
				Workload:    30,
				Performance: 20,
				Location:    10,
			},
			PreventOverload:     true,
			RespectWorkingHours: false,
			NotifyEmail:         true,
			NotifySMS:           false,
		},
	}
}
