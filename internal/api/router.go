// Package api wires the HTTP surface: item capture and CRUD, ranked
// search, settings, backups, quota, and health.
package api

import (
	"github.com/gorilla/mux"

	"github.com/keepstack/keepstack/internal/api/recovery"
	"github.com/keepstack/keepstack/internal/quota"
	"github.com/keepstack/keepstack/internal/service"
)

// Deps carries everything the router needs.
type Deps struct {
	Service   *service.Service
	Monitors  []*quota.Monitor
	IsHealthy func() bool
}

// NewRouter creates the HTTP router with all API routes.
func NewRouter(deps Deps) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware)

	itemHandler := NewItemHandler(deps.Service)
	searchHandler := NewSearchHandler(deps.Service)
	settingsHandler := NewSettingsHandler(deps.Service)
	backupHandler := NewBackupHandler(deps.Service)
	quotaHandler := NewQuotaHandler(deps.Monitors...)
	healthHandler := NewHealthHandler(deps.IsHealthy)

	// Health endpoint
	router.HandleFunc("/v0/health", healthHandler.CheckHealth).Methods("GET")

	// Item endpoints
	router.HandleFunc("/v0/items", itemHandler.CreateItem).Methods("POST")
	router.HandleFunc("/v0/items", itemHandler.ListItems).Methods("GET")
	router.HandleFunc("/v0/items/{id}", itemHandler.GetItem).Methods("GET")
	router.HandleFunc("/v0/items/{id}", itemHandler.EnrichItem).Methods("PATCH")
	router.HandleFunc("/v0/items/{id}", itemHandler.DeleteItem).Methods("DELETE")

	// Search endpoints (history routes before the generic search one)
	router.HandleFunc("/v0/search/suggestions", searchHandler.Suggest).Methods("GET")
	router.HandleFunc("/v0/search/history", searchHandler.History).Methods("GET")
	router.HandleFunc("/v0/search/history", searchHandler.ClearHistory).Methods("DELETE")
	router.HandleFunc("/v0/search/analytics", searchHandler.Analytics).Methods("GET")
	router.HandleFunc("/v0/search", searchHandler.Search).Methods("POST")

	// Settings endpoints
	router.HandleFunc("/v0/settings", settingsHandler.GetSettings).Methods("GET")
	router.HandleFunc("/v0/settings", settingsHandler.PutSettings).Methods("PUT")

	// Backup endpoints
	router.HandleFunc("/v0/backups", backupHandler.CreateBackup).Methods("POST")
	router.HandleFunc("/v0/backups", backupHandler.ListBackups).Methods("GET")
	router.HandleFunc("/v0/backups/{id}/restore", backupHandler.RestoreBackup).Methods("POST")
	router.HandleFunc("/v0/backups/{id}", backupHandler.DeleteBackup).Methods("DELETE")

	// Quota endpoint
	router.HandleFunc("/v0/quota", quotaHandler.GetQuota).Methods("GET")

	return router
}
