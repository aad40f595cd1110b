package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/keepstack/keepstack/internal/api/respond"
	"github.com/keepstack/keepstack/internal/api/validate"
	"github.com/keepstack/keepstack/internal/model"
	"github.com/keepstack/keepstack/internal/service"
)

// ItemHandler exposes item capture, enrichment, and CRUD.
type ItemHandler struct {
	svc *service.Service
}

func NewItemHandler(svc *service.Service) *ItemHandler {
	return &ItemHandler{svc: svc}
}

// CreateItem POST /v0/items
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var p model.CapturePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Capture(p); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	item, res, err := h.svc.Capture(r.Context(), p)
	if err != nil {
		respond.WriteTaxonomyError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, map[string]interface{}{"item": item, "result": res})
}

// GetItem GET /v0/items/{id}
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	item, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respond.WriteTaxonomyError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, item)
}

// ListItems GET /v0/items
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := model.ListOptions{
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}
	if s := q.Get("offset"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			opts.Offset = n
		}
	}
	if s := q.Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			opts.Limit = n
		}
	}

	items, err := h.svc.List(r.Context(), opts)
	if err != nil {
		respond.WriteTaxonomyError(w, err)
		return
	}
	if items == nil {
		items = []model.ContentItem{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items, "count": len(items)})
}

// EnrichItem PATCH /v0/items/{id}
func (h *ItemHandler) EnrichItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var p model.EnrichPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Enrich(p); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	item, err := h.svc.Enrich(r.Context(), id, p)
	if err != nil {
		respond.WriteTaxonomyError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, item)
}

// DeleteItem DELETE /v0/items/{id}
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	res, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		respond.WriteTaxonomyError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"result": res})
}
