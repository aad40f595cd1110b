package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/keepstack/keepstack/internal/api/respond"
	"github.com/keepstack/keepstack/internal/service"
)

// SettingsHandler exposes the settings document stored in the sync area.
type SettingsHandler struct {
	svc *service.Service
}

func NewSettingsHandler(svc *service.Service) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

// GetSettings GET /v0/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	raw, err := h.svc.GetSettings(r.Context())
	if err != nil {
		respond.WriteTaxonomyError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

// PutSettings PUT /v0/settings
func (h *SettingsHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		respond.WriteBadRequest(w, "unreadable body")
		return
	}
	if !json.Valid(body) {
		respond.WriteBadRequest(w, "settings must be valid JSON")
		return
	}

	if err := h.svc.SaveSettings(r.Context(), body); err != nil {
		respond.WriteTaxonomyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
