// Package store implements the tiered storage manager: it composes the three
// quota-monitored areas and decides, per content item, what goes where. The
// lightweight projection lives in the local area's item list; the full record
// lives in the document area keyed by item id.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/keepstack/keepstack/internal/backend"
	"github.com/keepstack/keepstack/internal/events"
	"github.com/keepstack/keepstack/internal/model"
	"github.com/keepstack/keepstack/internal/quota"
)

const (
	settingsKey   = "settings"
	itemListKey   = "items"
	itemKeyPrefix = "item:"
)

// ItemKey returns the document-area key for an item's full record.
func ItemKey(id string) string { return itemKeyPrefix + id }

// IsItemKey reports whether a document-area key holds an item record.
func IsItemKey(key string) bool { return strings.HasPrefix(key, itemKeyPrefix) }

// Manager is the single high-level CRUD surface over the three areas.
//
// Read-modify-write of the item list is serialized with an in-process mutex
// and guarded by a version counter. Cross-process writers are not serialized;
// a stale version fails with model.ErrConflict and is retried once.
type Manager struct {
	syncArea  backend.Adapter
	localArea backend.Adapter
	docArea   backend.Adapter
	bus       *events.Bus
	log       zerolog.Logger

	mu sync.Mutex
}

// NewManager wires the three areas. Adapters are normally quota monitors.
func NewManager(syncA, localA, docsA backend.Adapter, bus *events.Bus, log zerolog.Logger) *Manager {
	return &Manager{syncArea: syncA, localArea: localA, docArea: docsA, bus: bus, log: log}
}

// Sync exposes the small synchronized area (used by the backup manager).
func (m *Manager) Sync() backend.Adapter { return m.syncArea }

// Local exposes the medium quota-limited area.
func (m *Manager) Local() backend.Adapter { return m.localArea }

// Documents exposes the unbounded document area.
func (m *Manager) Documents() backend.Adapter { return m.docArea }

// GetItemList loads the lightweight projection list, returning an empty
// version-zero list when none has been written yet.
func (m *Manager) GetItemList(ctx context.Context) (model.ItemList, error) {
	raw, err := m.localArea.Get(ctx, itemListKey)
	if errors.Is(err, model.ErrNotFound) {
		return model.ItemList{}, nil
	}
	if err != nil {
		return model.ItemList{}, err
	}
	var list model.ItemList
	if err := json.Unmarshal(raw, &list); err != nil {
		return model.ItemList{}, fmt.Errorf("decode item list: %w", err)
	}
	return list, nil
}

// PutItemList writes the list back. list.Version must equal the stored
// version; the written list carries Version+1. A mismatch is a conflict.
func (m *Manager) PutItemList(ctx context.Context, list model.ItemList) error {
	current, err := m.GetItemList(ctx)
	if err != nil {
		return err
	}
	if current.Version != list.Version {
		return fmt.Errorf("%w: item list version %d, caller had %d",
			model.ErrConflict, current.Version, list.Version)
	}
	list.Version++
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return m.localArea.Set(ctx, itemListKey, raw)
}

// SaveItem splits the item into projection and full record. The projection
// write is metadata-first: it must succeed for the save to count. A failed
// full-record write is collected into the result, not fatal.
func (m *Manager) SaveItem(ctx context.Context, item model.ContentItem) (model.SaveResult, error) {
	if item.ID == "" {
		return model.SaveResult{}, fmt.Errorf("%w: item id is required", model.ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	created, err := m.upsertProjection(ctx, item.Projection())
	if err != nil && errors.Is(err, model.ErrConflict) {
		// Single retry absorbs one interleaved external writer.
		created, err = m.upsertProjection(ctx, item.Projection())
	}
	if err != nil {
		return model.SaveResult{Success: false, Errors: []string{err.Error()}}, err
	}

	result := model.SaveResult{Success: true}
	raw, err := json.Marshal(item)
	if err == nil {
		err = m.docArea.Set(ctx, ItemKey(item.ID), raw)
	}
	if err != nil {
		m.log.Warn().Err(err).Str("itemId", item.ID).Msg("full-record write failed; projection persisted")
		result.Errors = append(result.Errors, fmt.Sprintf("document write: %v", err))
	}

	if m.bus != nil {
		m.bus.Publish(events.ItemSaved{ItemID: item.ID, Created: created, Result: result})
	}
	return result, nil
}

func (m *Manager) upsertProjection(ctx context.Context, proj model.ContentItem) (created bool, err error) {
	list, err := m.GetItemList(ctx)
	if err != nil {
		return false, err
	}
	created = true
	for i := range list.Items {
		if list.Items[i].ID == proj.ID {
			list.Items[i] = proj
			created = false
			break
		}
	}
	if created {
		list.Items = append(list.Items, proj)
	}
	return created, m.PutItemList(ctx, list)
}

// GetItem prefers the document area (full body), falls back to the
// lightweight projection, and returns model.ErrNotFound when absent in both.
// A failing document area degrades to the projection instead of erroring.
func (m *Manager) GetItem(ctx context.Context, id string) (*model.ContentItem, error) {
	raw, err := m.docArea.Get(ctx, ItemKey(id))
	if err == nil {
		var item model.ContentItem
		if uerr := json.Unmarshal(raw, &item); uerr == nil {
			return &item, nil
		}
		m.log.Warn().Str("itemId", id).Msg("malformed full record; falling back to projection")
	} else if !errors.Is(err, model.ErrNotFound) {
		m.log.Warn().Err(err).Str("itemId", id).Msg("document area unavailable; falling back to projection")
	}

	list, lerr := m.GetItemList(ctx)
	if lerr != nil {
		return nil, lerr
	}
	for i := range list.Items {
		if list.Items[i].ID == id {
			item := list.Items[i]
			return &item, nil
		}
	}
	return nil, model.ErrNotFound
}

// ListItems returns items in insertion order, full records where available,
// then applies sorting and pagination. Unknown sortBy values keep insertion
// order; sorting is stable.
func (m *Manager) ListItems(ctx context.Context, opts model.ListOptions) ([]model.ContentItem, error) {
	items, err := m.AllItems(ctx)
	if err != nil {
		return nil, err
	}
	sortItems(items, opts.SortBy, opts.SortOrder)
	return paginate(items, opts.Offset, opts.Limit), nil
}

// AllItems returns every item, hydrated from the document area where the
// full record exists and degraded to the projection where it does not.
func (m *Manager) AllItems(ctx context.Context) ([]model.ContentItem, error) {
	list, err := m.GetItemList(ctx)
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(list.Items))
	for i, it := range list.Items {
		keys[i] = ItemKey(it.ID)
	}
	full, err := m.docArea.GetMany(ctx, keys)
	if err != nil {
		m.log.Warn().Err(err).Msg("document area read failed; serving projections only")
		full = nil
	}

	out := make([]model.ContentItem, 0, len(list.Items))
	for _, proj := range list.Items {
		if raw, ok := full[ItemKey(proj.ID)]; ok {
			var item model.ContentItem
			if uerr := json.Unmarshal(raw, &item); uerr == nil {
				out = append(out, item)
				continue
			}
		}
		out = append(out, proj)
	}
	return out, nil
}

// SearchSubstring is the legacy exact-substring path over title, body, and
// tags. Ranked queries go through the search index engine instead.
func (m *Manager) SearchSubstring(ctx context.Context, text string, filters model.SearchFilters) ([]model.ContentItem, error) {
	items, err := m.AllItems(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(text))

	var out []model.ContentItem
	for _, item := range items {
		if !filters.Matches(item) {
			continue
		}
		if needle == "" || itemContains(item, needle) {
			out = append(out, item)
		}
	}
	return out, nil
}

func itemContains(item model.ContentItem, needle string) bool {
	if strings.Contains(strings.ToLower(item.Title), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(item.Content), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(item.Summary), needle) {
		return true
	}
	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// DeleteItem removes the item from both areas. Failed legs are collected so
// a partially successful delete is still reported. The index prunes its
// postings in response to the published event.
func (m *Manager) DeleteItem(ctx context.Context, id string) (model.SaveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := model.SaveResult{Success: true}

	list, err := m.GetItemList(ctx)
	if err != nil {
		result.Success = false
		result.Errors = append(result.Errors, fmt.Sprintf("load item list: %v", err))
	} else {
		kept := list.Items[:0]
		for _, it := range list.Items {
			if it.ID != id {
				kept = append(kept, it)
			}
		}
		list.Items = kept
		if err := m.PutItemList(ctx, list); err != nil {
			result.Success = false
			result.Errors = append(result.Errors, fmt.Sprintf("write item list: %v", err))
		}
	}

	if err := m.docArea.Remove(ctx, ItemKey(id)); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("document remove: %v", err))
	}

	if m.bus != nil {
		m.bus.Publish(events.ItemDeleted{ItemID: id})
	}
	return result, nil
}

// RecordView bumps the item's view counter in both representations.
func (m *Manager) RecordView(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list, err := m.GetItemList(ctx)
	if err != nil {
		return err
	}
	found := false
	for i := range list.Items {
		if list.Items[i].ID == id {
			list.Items[i].ViewCount++
			found = true
			break
		}
	}
	if !found {
		return model.ErrNotFound
	}
	if err := m.PutItemList(ctx, list); err != nil {
		return err
	}

	raw, err := m.docArea.Get(ctx, ItemKey(id))
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	if err != nil {
		return nil // projection already updated; document copy is best effort
	}
	var item model.ContentItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil
	}
	item.ViewCount++
	if updated, err := json.Marshal(item); err == nil {
		_ = m.docArea.Set(ctx, ItemKey(id), updated)
	}
	return nil
}

// SaveSettings replaces the settings document. Payloads within the
// per-item sync limit live in the synchronized area; oversized ones are
// routed to the local area instead, and the stale copy in the other area
// is removed so reads never see a shadowed older version. Quota errors
// surface to the caller; settings loss is user-visible.
func (m *Manager) SaveSettings(ctx context.Context, raw json.RawMessage) error {
	if !json.Valid(raw) {
		return fmt.Errorf("%w: settings must be valid JSON", model.ErrValidation)
	}

	target, shadow := m.syncArea, m.localArea
	if quota.ChooseArea(quota.EstimateSize(settingsKey, raw)) == model.AreaLocal {
		target, shadow = m.localArea, m.syncArea
	}
	if err := target.Set(ctx, settingsKey, raw); err != nil {
		return err
	}
	if err := shadow.Remove(ctx, settingsKey); err != nil && !errors.Is(err, model.ErrNotFound) {
		m.log.Warn().Err(err).Msg("stale settings copy not removed")
	}
	if m.bus != nil {
		m.bus.Publish(events.SettingsChanged{})
	}
	return nil
}

// GetSettings returns the settings document, or an empty object when none
// has been written. Checks the synchronized area first, then the local
// area where oversized documents are routed.
func (m *Manager) GetSettings(ctx context.Context) (json.RawMessage, error) {
	raw, err := m.syncArea.Get(ctx, settingsKey)
	if errors.Is(err, model.ErrNotFound) {
		raw, err = m.localArea.Get(ctx, settingsKey)
	}
	if errors.Is(err, model.ErrNotFound) {
		return json.RawMessage(`{}`), nil
	}
	return raw, err
}

func sortItems(items []model.ContentItem, sortBy, order string) {
	desc := strings.EqualFold(order, "desc")

	var less func(a, b model.ContentItem) bool
	switch sortBy {
	case "createdAt":
		less = func(a, b model.ContentItem) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "updatedAt":
		less = func(a, b model.ContentItem) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case "title":
		less = func(a, b model.ContentItem) bool { return a.Title < b.Title }
	case "viewCount":
		less = func(a, b model.ContentItem) bool { return a.ViewCount < b.ViewCount }
	default:
		return // unknown sort field keeps insertion order
	}

	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func paginate(items []model.ContentItem, offset, limit int) []model.ContentItem {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []model.ContentItem{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
