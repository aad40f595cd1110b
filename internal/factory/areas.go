// Package factory builds the three storage areas from configuration:
// driver selection for the physical backend, one table per area, and a
// quota monitor wrapped around each capacity-limited area.
package factory

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/keepstack/keepstack/internal/backend"
	"github.com/keepstack/keepstack/internal/backend/memory"
	"github.com/keepstack/keepstack/internal/backend/postgres"
	"github.com/keepstack/keepstack/internal/backend/sqlite"
	"github.com/keepstack/keepstack/internal/config"
	"github.com/keepstack/keepstack/internal/events"
	"github.com/keepstack/keepstack/internal/model"
	"github.com/keepstack/keepstack/internal/quota"
)

const (
	syncTable  = "kv_sync"
	localTable = "kv_local"
	docTable   = "kv_documents"
)

// Areas bundles the three configured storage areas. Sync and Local are
// quota-monitored; Documents is effectively unbounded.
type Areas struct {
	Sync      *quota.Monitor
	Local     *quota.Monitor
	Documents *quota.Monitor

	db *sql.DB
}

// Close releases the underlying database handle, if any.
func (a *Areas) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// NewAreas opens the configured document driver and wires the three areas.
func NewAreas(cfg *config.Config, bus *events.Bus, log zerolog.Logger) (*Areas, error) {
	syncRaw, localRaw, docRaw, db, err := openBackends(cfg, log)
	if err != nil {
		return nil, err
	}

	return &Areas{
		Sync:      quota.NewMonitor(syncRaw, model.AreaSync, cfg.SyncQuotaBytes, cfg.QuotaWarnThreshold, bus, log),
		Local:     quota.NewMonitor(localRaw, model.AreaLocal, cfg.LocalQuotaBytes, cfg.QuotaWarnThreshold, bus, log),
		Documents: quota.NewMonitor(docRaw, model.AreaDocument, 0, cfg.QuotaWarnThreshold, bus, log),
		db:        db,
	}, nil
}

func openBackends(cfg *config.Config, log zerolog.Logger) (syncA, localA, docA backend.Adapter, db *sql.DB, err error) {
	switch cfg.DocDriver {
	case "memory":
		return memory.New(), memory.New(), memory.New(), nil, nil

	case "sqlite":
		db, err = sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("open sqlite at %s: %w", cfg.SQLitePath, err)
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("document driver: sqlite")
		syncA, localA, docA, err = openTables(db, sqlite.New)

	case "postgres":
		db, err = postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		log.Info().Msg("document driver: postgres")
		syncA, localA, docA, err = openTables(db, postgres.New)

	default:
		return nil, nil, nil, nil, fmt.Errorf("unsupported DOC_DRIVER: %s", cfg.DocDriver)
	}

	if err != nil {
		_ = db.Close()
		return nil, nil, nil, nil, err
	}
	return syncA, localA, docA, db, nil
}

func openTables(db *sql.DB, open func(*sql.DB, string) (backend.Adapter, error)) (backend.Adapter, backend.Adapter, backend.Adapter, error) {
	syncA, err := open(db, syncTable)
	if err != nil {
		return nil, nil, nil, err
	}
	localA, err := open(db, localTable)
	if err != nil {
		return nil, nil, nil, err
	}
	docA, err := open(db, docTable)
	if err != nil {
		return nil, nil, nil, err
	}
	return syncA, localA, docA, nil
}
