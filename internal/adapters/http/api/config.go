package api

import (
	"context"
	"net/http"

	"github.com/okian/dispatch/internal/domain/model"
)

// ConfigDependencies defines the interface for engine configuration.
type ConfigDependencies interface {
	Config(ctx context.Context) model.GlobalConfig
	UpdateGlobalConfig(ctx context.Context, cfg model.GlobalConfig) error
}

// ConfigHandler handles engine configuration requests.
type ConfigHandler struct {
	deps ConfigDependencies
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(deps ConfigDependencies) *ConfigHandler {
	return &ConfigHandler{deps: deps}
}

// HandleConfig handles GET and PUT /config requests. PUT replaces the full
// configuration atomically; a rejected body leaves the old one in force.
func (h *ConfigHandler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.deps.Config(r.Context()))
	case http.MethodPut:
		var cfg model.GlobalConfig
		if err := decodeBody(r, &cfg); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		if err := h.deps.UpdateGlobalConfig(r.Context(), cfg); err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err)
			return
		}
		writeJSON(w, http.StatusOK, h.deps.Config(r.Context()))
	default:
		http.NotFound(w, r)
	}
}
