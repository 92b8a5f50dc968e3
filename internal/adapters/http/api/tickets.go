package api

import (
	"context"
	"net/http"

	"github.com/okian/dispatch/internal/domain/model"
)

// TicketDependencies defines the interface for asynchronous ticket intake.
type TicketDependencies interface {
	SeenAndRecord(ctx context.Context, id string) bool
	Unrecord(ctx context.Context, id string)
	Enqueue(ctx context.Context, t model.Ticket) bool
}

// TicketsHandler handles asynchronous ticket submissions.
type TicketsHandler struct {
	deps TicketDependencies
}

// NewTicketsHandler creates a new tickets handler.
func NewTicketsHandler(deps TicketDependencies) *TicketsHandler {
	return &TicketsHandler{deps: deps}
}

// HandlePostTicket handles POST /tickets requests. The ticket is acked and
// assigned asynchronously by the worker pool.
func (h *TicketsHandler) HandlePostTicket(w http.ResponseWriter, r *http.Request) {
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

	// Idempotency check. Mark as seen first.
	if h.deps.SeenAndRecord(r.Context(), t.ID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	if ok := h.deps.Enqueue(r.Context(), t); !ok {
		// Roll back the seen mark so the producer may retry.
		h.deps.Unrecord(r.Context(), t.ID)
		writeError(w, http.StatusTooManyRequests, "backpressure", ErrBackpressure)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
