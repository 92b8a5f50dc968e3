// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/dispatch/internal/domain/model"
	"github.com/okian/dispatch/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the coordinator implementation.
type Dependencies interface {
	// Intake.
	SeenAndRecord(ctx context.Context, id string) bool
	Unrecord(ctx context.Context, id string)
	Enqueue(ctx context.Context, t model.Ticket) bool
	Assign(ctx context.Context, t model.Ticket) (model.AssignmentDecision, error)

	// Configuration.
	Config(ctx context.Context) model.GlobalConfig
	UpdateGlobalConfig(ctx context.Context, cfg model.GlobalConfig) error

	// Rules.
	CreateRule(ctx context.Context, r model.AssignmentRule) (model.AssignmentRule, error)
	UpdateRule(ctx context.Context, r model.AssignmentRule) error
	ToggleRule(ctx context.Context, id string, active bool) (model.AssignmentRule, error)
	GetRule(ctx context.Context, id string) (model.AssignmentRule, error)
	ListRules(ctx context.Context) []model.AssignmentRule

	// Roster.
	UpsertTechnician(ctx context.Context, t model.Technician) error
	UpsertSkill(ctx context.Context, technicianID string, s model.Skill) error
	SetStatus(ctx context.Context, technicianID string, st model.Status) error
	Heartbeat(ctx context.Context, technicianID, location string) error
	Release(ctx context.Context, technicianID string) error
	WorkloadSnapshot(ctx context.Context) []types.WorkloadEntry

	// Read models.
	RecentDecisions(ctx context.Context, n int) []model.AssignmentDecision
	RuleStats(ctx context.Context) []types.RuleStat
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	ticketsHandler     *TicketsHandler
	assignHandler      *AssignHandler
	configHandler      *ConfigHandler
	rulesHandler       *RulesHandler
	techniciansHandler *TechniciansHandler
	decisionsHandler   *DecisionsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		ticketsHandler:     NewTicketsHandler(deps),
		assignHandler:      NewAssignHandler(deps),
		configHandler:      NewConfigHandler(deps),
		rulesHandler:       NewRulesHandler(deps),
		techniciansHandler: NewTechniciansHandler(deps),
		decisionsHandler:   NewDecisionsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/tickets", MetricsMiddleware(s.ticketsHandler.HandlePostTicket, "tickets"))
	mux.HandleFunc("/assign", MetricsMiddleware(s.assignHandler.HandleAssign, "assign"))
	mux.HandleFunc("/config", MetricsMiddleware(s.configHandler.HandleConfig, "config"))
	mux.HandleFunc("/rules", MetricsMiddleware(s.rulesHandler.HandleCollection, "rules"))
	mux.HandleFunc("/rules/", MetricsMiddleware(s.rulesHandler.HandleItem, "rules"))
	mux.HandleFunc("/technicians/", MetricsMiddleware(s.techniciansHandler.HandleItem, "technicians"))
	mux.HandleFunc("/technicians", MetricsMiddleware(s.techniciansHandler.HandleUpsert, "technicians"))
	mux.HandleFunc("/workload", MetricsMiddleware(s.techniciansHandler.HandleWorkload, "workload"))
	mux.HandleFunc("/decisions", MetricsMiddleware(s.decisionsHandler.HandleDecisions, "decisions"))
}

// ticketRequest mirrors the intake schema for POST /tickets and /assign.
type ticketRequest struct {
	ID            string `json:"id"`
	Category      string `json:"category"`
	Priority      int    `json:"priority"`
	Source        string `json:"source"`
	Location      string `json:"location"`
	RequiredSkill string `json:"required_skill"`
	CreatedAt     string `json:"created_at"`
}

func (t ticketRequest) toModel() (model.Ticket, error) {
	out := model.Ticket{
		ID:            strings.TrimSpace(t.ID),
		Category:      strings.TrimSpace(t.Category),
		Priority:      t.Priority,
		Source:        t.Source,
		Location:      t.Location,
		RequiredSkill: t.RequiredSkill,
		CreatedAt:     time.Now(),
	}
	if t.CreatedAt != "" {
		ts, err := time.Parse(time.RFC3339, t.CreatedAt)
		if err != nil {
			return model.Ticket{}, errors.New("invalid created_at; must be RFC3339")
		}
		out.CreatedAt = ts
	}
	if err := out.Validate(); err != nil {
		return model.Ticket{}, err
	}
	return out, nil
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return ErrBadRequest
	}
	return nil
}
