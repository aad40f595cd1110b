// Package backup snapshots the storage areas into versioned, immutable
// point-in-time captures and restores them destructively. Backups live in
// the document area under their own key prefix so a restore never wipes
// them along with the item records.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/keepstack/keepstack/internal/backend"
	"github.com/keepstack/keepstack/internal/events"
	"github.com/keepstack/keepstack/internal/model"
	"github.com/keepstack/keepstack/internal/store"
)

// FormatVersion is stamped into every backup so future readers can detect
// snapshots written by an older layout.
const FormatVersion = 1

const backupKeyPrefix = "backup:"

// Key returns the document-area key holding a backup.
func Key(id string) string { return backupKeyPrefix + id }

// IsBackupKey reports whether a document-area key holds a backup.
func IsBackupKey(key string) bool { return strings.HasPrefix(key, backupKeyPrefix) }

// Manager creates, lists, restores, and deletes backups.
type Manager struct {
	store *store.Manager
	bus   *events.Bus
	log   zerolog.Logger
	now   func() time.Time
}

func NewManager(st *store.Manager, bus *events.Bus, log zerolog.Logger) *Manager {
	return &Manager{store: st, bus: bus, log: log, now: time.Now}
}

// Create snapshots the sync and local areas unconditionally, and the
// document area's item records only when includeBulkContent is set. The
// assembled backup is persisted into the document area and returned.
func (m *Manager) Create(ctx context.Context, includeBulkContent bool) (*model.Backup, error) {
	data := make(map[model.Area]model.Snapshot, 3)

	syncSnap, err := dumpArea(ctx, m.store.Sync(), nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot sync area: %w", err)
	}
	data[model.AreaSync] = syncSnap

	localSnap, err := dumpArea(ctx, m.store.Local(), nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot local area: %w", err)
	}
	data[model.AreaLocal] = localSnap

	if includeBulkContent {
		docSnap, err := dumpArea(ctx, m.store.Documents(), store.IsItemKey)
		if err != nil {
			return nil, fmt.Errorf("snapshot document area: %w", err)
		}
		data[model.AreaDocument] = docSnap
	}

	ts := m.now().UTC()
	b := &model.Backup{
		ID:        fmt.Sprintf("backup_%d", ts.UnixMilli()),
		Timestamp: ts,
		Version:   FormatVersion,
		Data:      data,
	}

	raw, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	if err := m.store.Documents().Set(ctx, Key(b.ID), raw); err != nil {
		return nil, fmt.Errorf("persist backup: %w", err)
	}

	m.log.Info().Str("backupId", b.ID).Bool("includesBody", includeBulkContent).Msg("backup created")
	return b, nil
}

// Restore destructively replaces live state in every area the backup
// covers. Restore is not transactional: a failure partway leaves earlier
// areas in their restored state, so callers should re-verify afterward.
// The document area is cleared per item key rather than wholesale, keeping
// stored backups intact through their own restore.
func (m *Manager) Restore(ctx context.Context, id string) error {
	b, err := m.Get(ctx, id)
	if err != nil {
		return err
	}

	var restored []model.Area
	for _, area := range [...]model.Area{model.AreaSync, model.AreaLocal, model.AreaDocument} {
		snap, ok := b.Data[area]
		if !ok {
			continue
		}
		if err := m.restoreArea(ctx, area, snap); err != nil {
			return fmt.Errorf("restore %s area (areas %v already replaced): %w", area, restored, err)
		}
		restored = append(restored, area)
	}

	m.log.Info().Str("backupId", id).Interface("areas", restored).Msg("backup restored")
	if m.bus != nil {
		m.bus.Publish(events.BackupRestored{BackupID: id, Areas: restored})
	}
	return nil
}

func (m *Manager) restoreArea(ctx context.Context, area model.Area, snap model.Snapshot) error {
	adapter := m.adapterFor(area)

	if area == model.AreaDocument {
		keys, err := adapter.Keys(ctx)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if !store.IsItemKey(key) {
				continue
			}
			if err := adapter.Remove(ctx, key); err != nil {
				return err
			}
		}
	} else if err := adapter.Clear(ctx); err != nil {
		return err
	}

	// Deterministic write order makes partial failures reproducible.
	keys := make([]string, 0, len(snap))
	for key := range snap {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := adapter.Set(ctx, key, snap[key]); err != nil {
			return err
		}
	}
	return nil
}

// Get loads one backup by id.
func (m *Manager) Get(ctx context.Context, id string) (*model.Backup, error) {
	raw, err := m.store.Documents().Get(ctx, Key(id))
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", model.ErrBackupNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var b model.Backup
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("backup %s is unreadable: %w", id, err)
	}
	return &b, nil
}

// List returns the stored backups, newest first, payloads omitted.
func (m *Manager) List(ctx context.Context) ([]model.BackupInfo, error) {
	keys, err := m.store.Documents().Keys(ctx)
	if err != nil {
		return nil, err
	}

	var infos []model.BackupInfo
	for _, key := range keys {
		if !IsBackupKey(key) {
			continue
		}
		raw, err := m.store.Documents().Get(ctx, key)
		if err != nil {
			m.log.Warn().Err(err).Str("key", key).Msg("skipping unreadable backup")
			continue
		}
		var b model.Backup
		if err := json.Unmarshal(raw, &b); err != nil {
			m.log.Warn().Err(err).Str("key", key).Msg("skipping malformed backup")
			continue
		}

		areas := make([]model.Area, 0, len(b.Data))
		for _, area := range [...]model.Area{model.AreaSync, model.AreaLocal, model.AreaDocument} {
			if _, ok := b.Data[area]; ok {
				areas = append(areas, area)
			}
		}
		_, includesBody := b.Data[model.AreaDocument]
		infos = append(infos, model.BackupInfo{
			ID:           b.ID,
			Timestamp:    b.Timestamp,
			Version:      b.Version,
			Areas:        areas,
			IncludesBody: includesBody,
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Timestamp.After(infos[j].Timestamp) })
	return infos, nil
}

// Delete removes a stored backup. Deleting an absent backup reports
// BackupNotFound.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if _, err := m.store.Documents().Get(ctx, Key(id)); errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("%w: %s", model.ErrBackupNotFound, id)
	} else if err != nil {
		return err
	}
	return m.store.Documents().Remove(ctx, Key(id))
}

func (m *Manager) adapterFor(area model.Area) backend.Adapter {
	switch area {
	case model.AreaSync:
		return m.store.Sync()
	case model.AreaLocal:
		return m.store.Local()
	default:
		return m.store.Documents()
	}
}

// dumpArea copies every key/value pair in an area, optionally filtered.
func dumpArea(ctx context.Context, adapter backend.Adapter, keep func(string) bool) (model.Snapshot, error) {
	keys, err := adapter.Keys(ctx)
	if err != nil {
		return nil, err
	}
	if keep != nil {
		filtered := keys[:0]
		for _, key := range keys {
			if keep(key) {
				filtered = append(filtered, key)
			}
		}
		keys = filtered
	}

	snap := make(model.Snapshot, len(keys))
	if len(keys) == 0 {
		return snap, nil
	}
	values, err := adapter.GetMany(ctx, keys)
	if err != nil {
		return nil, err
	}
	for key, value := range values {
		snap[key] = value
	}
	return snap, nil
}
