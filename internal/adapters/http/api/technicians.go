package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/dispatch/internal/adapters/repository"
	"github.com/okian/dispatch/internal/domain/model"
	"github.com/okian/dispatch/internal/domain/types"
)

// TechnicianDependencies defines the interface for roster management.
type TechnicianDependencies interface {
	UpsertTechnician(ctx context.Context, t model.Technician) error
	UpsertSkill(ctx context.Context, technicianID string, s model.Skill) error
	SetStatus(ctx context.Context, technicianID string, st model.Status) error
	Heartbeat(ctx context.Context, technicianID, location string) error
	Release(ctx context.Context, technicianID string) error
	WorkloadSnapshot(ctx context.Context) []types.WorkloadEntry
}

// TechniciansHandler handles roster management requests.
type TechniciansHandler struct {
	deps TechnicianDependencies
}

// NewTechniciansHandler creates a new technicians handler.
func NewTechniciansHandler(deps TechnicianDependencies) *TechniciansHandler {
	return &TechniciansHandler{deps: deps}
}

// HandleUpsert handles PUT /technicians requests.
func (h *TechniciansHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var t model.Technician
	if err := decodeBody(r, &t); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.deps.UpsertTechnician(r.Context(), t); err != nil {
		writeTechError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type statusRequest struct {
	Status model.Status `json:"status"`
}

type heartbeatRequest struct {
	Location string `json:"location"`
}

// HandleItem handles per-technician subresources:
// PUT /technicians/{id}/skills, PUT /technicians/{id}/status,
// POST /technicians/{id}/heartbeat and POST /technicians/{id}/release.
func (h *TechniciansHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/technicians/")
	id, rest, _ := strings.Cut(path, "/")
	if id == "" || rest == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch {
	case rest == "skills" && r.Method == http.MethodPut:
		var s model.Skill
		if err := decodeBody(r, &s); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		if err := h.deps.UpsertSkill(r.Context(), id, s); err != nil {
			writeTechError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	case rest == "status" && r.Method == http.MethodPut:
		var req statusRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		if err := h.deps.SetStatus(r.Context(), id, req.Status); err != nil {
			writeTechError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, req)
	case rest == "heartbeat" && r.Method == http.MethodPost:
		var req heartbeatRequest
		if r.ContentLength > 0 {
			if err := decodeBody(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "bad_request", err)
				return
			}
		}
		if err := h.deps.Heartbeat(r.Context(), id, req.Location); err != nil {
			writeTechError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ackResponse{Status: "ok"})
	case rest == "release" && r.Method == http.MethodPost:
		if err := h.deps.Release(r.Context(), id); err != nil {
			writeTechError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ackResponse{Status: "released"})
	default:
		http.NotFound(w, r)
	}
}

// HandleWorkload handles GET /workload requests.
func (h *TechniciansHandler) HandleWorkload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.WorkloadSnapshot(r.Context()))
}

func writeTechError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrTechnicianNotFound) {
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	}
	writeError(w, http.StatusBadRequest, "validation_error", err)
}
