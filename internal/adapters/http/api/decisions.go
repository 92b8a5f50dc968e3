package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/dispatch/internal/domain/model"
)

const defaultDecisionLimit = 50

// DecisionDependencies defines the interface for decision history reads.
type DecisionDependencies interface {
	RecentDecisions(ctx context.Context, n int) []model.AssignmentDecision
}

// DecisionsHandler handles decision journal requests.
type DecisionsHandler struct {
	deps DecisionDependencies
}

// NewDecisionsHandler creates a new decisions handler.
func NewDecisionsHandler(deps DecisionDependencies) *DecisionsHandler {
	return &DecisionsHandler{deps: deps}
}

// HandleDecisions handles GET /decisions?limit=N requests, newest first.
func (h *DecisionsHandler) HandleDecisions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit := defaultDecisionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, h.deps.RecentDecisions(r.Context(), limit))
}
