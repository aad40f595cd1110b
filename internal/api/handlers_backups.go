package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/keepstack/keepstack/internal/api/respond"
	"github.com/keepstack/keepstack/internal/model"
	"github.com/keepstack/keepstack/internal/service"
)

// BackupHandler exposes backup creation, listing, restore, and deletion.
type BackupHandler struct {
	svc *service.Service
}

func NewBackupHandler(svc *service.Service) *BackupHandler {
	return &BackupHandler{svc: svc}
}

// CreateBackup POST /v0/backups
func (h *BackupHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IncludeContent bool `json:"includeContent"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.WriteBadRequest(w, "Invalid JSON")
			return
		}
	}

	b, err := h.svc.CreateBackup(r.Context(), req.IncludeContent)
	if err != nil {
		respond.WriteTaxonomyError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"id":        b.ID,
		"timestamp": b.Timestamp,
		"version":   b.Version,
	})
}

// ListBackups GET /v0/backups
func (h *BackupHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	infos, err := h.svc.ListBackups(r.Context())
	if err != nil {
		respond.WriteTaxonomyError(w, err)
		return
	}
	if infos == nil {
		infos = []model.BackupInfo{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"backups": infos, "count": len(infos)})
}

// RestoreBackup POST /v0/backups/{id}/restore
func (h *BackupHandler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.svc.RestoreBackup(r.Context(), id); err != nil {
		respond.WriteTaxonomyError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"restored": id})
}

// DeleteBackup DELETE /v0/backups/{id}
func (h *BackupHandler) DeleteBackup(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.svc.DeleteBackup(r.Context(), id); err != nil {
		respond.WriteTaxonomyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
