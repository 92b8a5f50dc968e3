package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/dispatch/internal/domain/model"
	"github.com/okian/dispatch/internal/domain/rules"
	"github.com/okian/dispatch/internal/domain/types"
)

// RuleDependencies defines the interface for rule management.
type RuleDependencies interface {
	CreateRule(ctx context.Context, r model.AssignmentRule) (model.AssignmentRule, error)
	UpdateRule(ctx context.Context, r model.AssignmentRule) error
	ToggleRule(ctx context.Context, id string, active bool) (model.AssignmentRule, error)
	GetRule(ctx context.Context, id string) (model.AssignmentRule, error)
	ListRules(ctx context.Context) []model.AssignmentRule
	RuleStats(ctx context.Context) []types.RuleStat
}

// RulesHandler handles assignment rule management.
type RulesHandler struct {
	deps RuleDependencies
}

// NewRulesHandler creates a new rules handler.
func NewRulesHandler(deps RuleDependencies) *RulesHandler {
	return &RulesHandler{deps: deps}
}

// HandleCollection handles GET and POST /rules requests.
func (h *RulesHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.deps.ListRules(r.Context()))
	case http.MethodPost:
		var rule model.AssignmentRule
		if err := decodeBody(r, &rule); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		created, err := h.deps.CreateRule(r.Context(), rule)
		if err != nil {
			writeRuleError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		http.NotFound(w, r)
	}
}

type toggleRequest struct {
	Active bool `json:"active"`
}

// HandleItem handles /rules/{id}, /rules/{id}/toggle and /rules/stats.
func (h *RulesHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/rules/")
	if path == "stats" {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, h.deps.RuleStats(r.Context()))
		return
	}

	id, rest, _ := strings.Cut(path, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch {
	case rest == "" && r.Method == http.MethodGet:
		rule, err := h.deps.GetRule(r.Context(), id)
		if err != nil {
			writeRuleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rule)
	case rest == "" && r.Method == http.MethodPut:
		var rule model.AssignmentRule
		if err := decodeBody(r, &rule); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		rule.ID = id
		if err := h.deps.UpdateRule(r.Context(), rule); err != nil {
			writeRuleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rule)
	case rest == "toggle" && r.Method == http.MethodPost:
		var req toggleRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		rule, err := h.deps.ToggleRule(r.Context(), id, req.Active)
		if err != nil {
			writeRuleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rule)
	default:
		http.NotFound(w, r)
	}
}

func writeRuleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rules.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, rules.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
