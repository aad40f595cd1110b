package api

import (
	"net/http"

	"github.com/keepstack/keepstack/internal/api/respond"
	"github.com/keepstack/keepstack/internal/model"
	"github.com/keepstack/keepstack/internal/quota"
)

// QuotaHandler reports per-area storage usage.
type QuotaHandler struct {
	monitors []*quota.Monitor
}

func NewQuotaHandler(monitors ...*quota.Monitor) *QuotaHandler {
	return &QuotaHandler{monitors: monitors}
}

// GetQuota GET /v0/quota
func (h *QuotaHandler) GetQuota(w http.ResponseWriter, r *http.Request) {
	usages := make([]model.QuotaUsage, 0, len(h.monitors))
	for _, m := range h.monitors {
		u, err := m.Usage(r.Context())
		if err != nil {
			respond.WriteTaxonomyError(w, err)
			return
		}
		usages = append(usages, u)
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"areas": usages})
}
