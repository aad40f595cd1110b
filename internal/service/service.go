// Package service is the orchestration layer binding the tiered store, the
// search engine, and the backup manager into the use cases the API and CLI
// expose. Writes keep the index synchronized before returning.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/keepstack/keepstack/internal/backup"
	"github.com/keepstack/keepstack/internal/events"
	"github.com/keepstack/keepstack/internal/model"
	"github.com/keepstack/keepstack/internal/searchindex"
	"github.com/keepstack/keepstack/internal/store"
)

// Service orchestrates item, search, settings, and backup use cases.
type Service struct {
	store   *store.Manager
	engine  *searchindex.Engine
	backups *backup.Manager
	log     zerolog.Logger
	now     func() time.Time
}

func New(st *store.Manager, eng *searchindex.Engine, bk *backup.Manager, bus *events.Bus, log zerolog.Logger) *Service {
	s := &Service{store: st, engine: eng, backups: bk, log: log, now: time.Now}
	if bus != nil {
		// A restore mutates storage behind the engine's back.
		bus.Subscribe(events.TopicBackupRestored, func(events.Event) {
			eng.NoteMutation()
		})
	}
	return s
}

// Capture constructs a pending item from a raw captured payload and saves
// it. The AI collaborator enriches it later via Enrich.
func (s *Service) Capture(ctx context.Context, p model.CapturePayload) (*model.ContentItem, model.SaveResult, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, model.SaveResult{}, fmt.Errorf("%w: title is required", model.ErrValidation)
	}
	if strings.TrimSpace(p.URL) == "" && !p.IsPhysical {
		return nil, model.SaveResult{}, fmt.Errorf("%w: url is required", model.ErrValidation)
	}

	created := s.now().UTC()
	if p.Timestamp != nil {
		created = p.Timestamp.UTC()
	}
	itemType := p.Type
	if itemType == "" {
		itemType = model.ItemTypeWebpage
	}

	item := model.ContentItem{
		ID:         uuid.NewString(),
		Title:      p.Title,
		URL:        p.URL,
		Type:       itemType,
		Status:     model.StatusPending,
		Content:    p.Content,
		IsPhysical: p.IsPhysical,
		Location:   p.Location,
		Identifier: p.Identifier,
		Author:     p.Author,
		CreatedAt:  created,
		UpdatedAt:  created,
	}

	res, err := s.Save(ctx, item)
	if err != nil {
		return nil, res, err
	}
	return &item, res, nil
}

// Save persists an item and refreshes its index postings. A partial body
// write is reported through the result, not an error; the index is updated
// from whatever state was persisted.
func (s *Service) Save(ctx context.Context, item model.ContentItem) (model.SaveResult, error) {
	res, err := s.store.SaveItem(ctx, item)
	if err != nil {
		return res, err
	}
	if ierr := s.engine.IndexItem(ctx, item); ierr != nil {
		s.log.Warn().Err(ierr).Str("itemId", item.ID).Msg("index update failed after save")
	}
	return res, nil
}

// Enrich applies the AI collaborator's output to an existing item. Nil
// fields leave the stored value unchanged.
func (s *Service) Enrich(ctx context.Context, id string, p model.EnrichPayload) (*model.ContentItem, error) {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Summary != nil {
		item.Summary = *p.Summary
	}
	if p.Tags != nil {
		item.Tags = p.Tags
	}
	if p.Categories != nil {
		item.Categories = p.Categories
	}
	if p.Notes != nil {
		item.Notes = *p.Notes
	}
	if p.Status != "" {
		if !validStatus(p.Status) {
			return nil, fmt.Errorf("%w: unknown status %q", model.ErrValidation, p.Status)
		}
		item.Status = p.Status
	}
	item.UpdatedAt = s.now().UTC()

	if _, err := s.Save(ctx, *item); err != nil {
		return nil, err
	}
	return item, nil
}

// Get fetches one item and bumps its view counter.
func (s *Service) Get(ctx context.Context, id string) (*model.ContentItem, error) {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if verr := s.store.RecordView(ctx, id); verr != nil {
		s.log.Warn().Err(verr).Str("itemId", id).Msg("view count bump failed")
	} else {
		item.ViewCount++
	}
	return item, nil
}

func (s *Service) List(ctx context.Context, opts model.ListOptions) ([]model.ContentItem, error) {
	return s.store.ListItems(ctx, opts)
}

// Delete removes an item from every area and prunes its index postings.
func (s *Service) Delete(ctx context.Context, id string) (model.SaveResult, error) {
	res, err := s.store.DeleteItem(ctx, id)
	if err != nil {
		return res, err
	}
	if ierr := s.engine.RemoveItem(ctx, id); ierr != nil {
		s.log.Warn().Err(ierr).Str("itemId", id).Msg("index prune failed after delete")
	}
	return res, nil
}

func (s *Service) Search(ctx context.Context, req model.SearchRequest) (model.SearchResult, error) {
	return s.engine.Search(ctx, req)
}

func (s *Service) Suggest(_ context.Context, partial string, limit int) []model.Suggestion {
	return s.engine.Suggest(partial, limit)
}

func (s *Service) SearchHistory(_ context.Context) []model.SearchHistoryEntry {
	return s.engine.History()
}

func (s *Service) ClearSearchHistory(_ context.Context) {
	s.engine.ClearHistory()
}

func (s *Service) SearchAnalytics(_ context.Context) model.SearchAnalytics {
	return s.engine.Analytics()
}

func (s *Service) GetSettings(ctx context.Context) (json.RawMessage, error) {
	return s.store.GetSettings(ctx)
}

func (s *Service) SaveSettings(ctx context.Context, raw json.RawMessage) error {
	return s.store.SaveSettings(ctx, raw)
}

func (s *Service) CreateBackup(ctx context.Context, includeBulkContent bool) (*model.Backup, error) {
	return s.backups.Create(ctx, includeBulkContent)
}

// RestoreBackup replaces live state from a snapshot, then rebuilds the
// index so queries reflect the restored item set immediately.
func (s *Service) RestoreBackup(ctx context.Context, id string) error {
	if err := s.backups.Restore(ctx, id); err != nil {
		return err
	}
	if err := s.engine.Rebuild(ctx); err != nil {
		s.log.Warn().Err(err).Str("backupId", id).Msg("index rebuild failed after restore")
	}
	return nil
}

func (s *Service) ListBackups(ctx context.Context) ([]model.BackupInfo, error) {
	return s.backups.List(ctx)
}

func (s *Service) DeleteBackup(ctx context.Context, id string) error {
	return s.backups.Delete(ctx, id)
}

func validStatus(st model.ItemStatus) bool {
	switch st {
	case model.StatusPending, model.StatusProcessing, model.StatusProcessed, model.StatusError:
		return true
	}
	return false
}
