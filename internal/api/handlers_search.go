package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/keepstack/keepstack/internal/api/respond"
	"github.com/keepstack/keepstack/internal/model"
	"github.com/keepstack/keepstack/internal/service"
)

// SearchHandler exposes ranked search, suggestions, history, and analytics.
type SearchHandler struct {
	svc *service.Service
}

func NewSearchHandler(svc *service.Service) *SearchHandler {
	return &SearchHandler{svc: svc}
}

// Search POST /v0/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req model.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	res, err := h.svc.Search(r.Context(), req)
	if err != nil {
		respond.WriteTaxonomyError(w, err)
		return
	}
	if res.Hits == nil {
		res.Hits = []model.SearchHit{}
	}
	respond.WriteJSON(w, http.StatusOK, res)
}

// Suggest GET /v0/search/suggestions?q=<partial>&limit=<n>
func (h *SearchHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	partial := q.Get("q")
	if partial == "" {
		respond.WriteBadRequest(w, "q is required")
		return
	}
	limit := 0
	if s := q.Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	suggestions := h.svc.Suggest(r.Context(), partial, limit)
	if suggestions == nil {
		suggestions = []model.Suggestion{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions, "count": len(suggestions)})
}

// History GET /v0/search/history
func (h *SearchHandler) History(w http.ResponseWriter, r *http.Request) {
	entries := h.svc.SearchHistory(r.Context())
	if entries == nil {
		entries = []model.SearchHistoryEntry{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"history": entries, "count": len(entries)})
}

// ClearHistory DELETE /v0/search/history
func (h *SearchHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	h.svc.ClearSearchHistory(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Analytics GET /v0/search/analytics
func (h *SearchHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, h.svc.SearchAnalytics(r.Context()))
}
