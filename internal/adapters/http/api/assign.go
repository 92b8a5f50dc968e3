package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/dispatch/internal/domain/model"
)

// AssignDependencies defines the interface for synchronous assignment.
type AssignDependencies interface {
	SeenAndRecord(ctx context.Context, id string) bool
	Unrecord(ctx context.Context, id string)
	Assign(ctx context.Context, t model.Ticket) (model.AssignmentDecision, error)
}

// AssignHandler handles synchronous assignment requests.
type AssignHandler struct {
	deps AssignDependencies
}

// NewAssignHandler creates a new assign handler.
func NewAssignHandler(deps AssignDependencies) *AssignHandler {
	return &AssignHandler{deps: deps}
}

// HandleAssign handles POST /assign requests: the caller blocks until the
// routing decision is made and receives it in the response.
func (h *AssignHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req ticketRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	t, err := req.toModel()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	if h.deps.SeenAndRecord(r.Context(), t.ID) {
		writeJSON(w, http.StatusConflict, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	d, err := h.deps.Assign(r.Context(), t)
	if err != nil {
		// The ticket was not routed; forget it so a retry is not rejected
		// as a duplicate.
		h.deps.Unrecord(r.Context(), t.ID)
		if errors.Is(err, model.ErrInvalidTicket) {
			writeError(w, http.StatusBadRequest, "invalid_ticket", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
