// Package searchindex implements the inverted-index search engine: postings
// maintenance, relevance-ranked queries, bounded search history, suggestions,
// and analytics. The index is derived state, persisted in the document area
// and rebuilt from the item source whenever it is stale or corrupted.
package searchindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/keepstack/keepstack/internal/backend"
	"github.com/keepstack/keepstack/internal/events"
	"github.com/keepstack/keepstack/internal/model"
)

// indexKey is the document-area key holding the persisted index.
const indexKey = "searchindex"

// State tracks the index lifecycle.
type State string

const (
	StateAbsent     State = "absent"
	StateBuilding   State = "building"
	StateReady      State = "ready"
	StateStale      State = "stale"
	StateRebuilding State = "rebuilding"
)

// ItemSource yields the live item set the index derives from.
type ItemSource interface {
	AllItems(ctx context.Context) ([]model.ContentItem, error)
}

// Config tunes the engine. Zero values fall back to the documented defaults.
type Config struct {
	MinTokenLength  int
	StalenessWindow time.Duration
	KeywordWeight   float64
	SubstringWeight float64
	MaxPageSize     int
	DefaultPageSize int
	HistoryCap      int
	HistoryDisabled bool
	SuggestionCap   int
	TopTokenCount   int
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		MinTokenLength:  DefaultMinTokenLength,
		StalenessWindow: time.Second,
		KeywordWeight:   0.6,
		SubstringWeight: 0.4,
		MaxPageSize:     100,
		DefaultPageSize: 20,
		HistoryCap:      50,
		SuggestionCap:   8,
		TopTokenCount:   10,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MinTokenLength <= 0 {
		c.MinTokenLength = d.MinTokenLength
	}
	if c.StalenessWindow <= 0 {
		c.StalenessWindow = d.StalenessWindow
	}
	if c.KeywordWeight <= 0 && c.SubstringWeight <= 0 {
		c.KeywordWeight = d.KeywordWeight
		c.SubstringWeight = d.SubstringWeight
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = d.MaxPageSize
	}
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = d.DefaultPageSize
	}
	if c.HistoryCap <= 0 {
		c.HistoryCap = d.HistoryCap
	}
	if c.SuggestionCap <= 0 {
		c.SuggestionCap = d.SuggestionCap
	}
	if c.TopTokenCount <= 0 {
		c.TopTokenCount = d.TopTokenCount
	}
	return c
}

// itemMeta is the per-item metadata cache. Keywords doubles as the
// denominator of the keyword-ratio relevance term, so queries never
// re-tokenize stored items.
type itemMeta struct {
	Title    string `json:"title"`
	Keywords int    `json:"score"`
}

// persistedIndex is the on-disk shape: postings plus the metadata cache.
type persistedIndex struct {
	Tokens    map[string][]string `json:"tokens"`
	Items     map[string]itemMeta `json:"items"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// Engine is the search index engine. All mutating write paths update the
// in-memory cache before returning so a subsequent caller in the same tick
// never sees stale results.
type Engine struct {
	src  ItemSource
	docs backend.Adapter
	bus  *events.Bus
	cfg  Config
	log  zerolog.Logger

	mu           sync.RWMutex
	state        State
	tokens       map[string]map[string]struct{}
	items        map[string]itemMeta
	loadedAt     time.Time
	lastMutation time.Time

	hmu           sync.Mutex
	history       []model.SearchHistoryEntry
	totalSearches int
}

// NewEngine creates an engine over the given item source, persisting the
// index into the document area. Call Load before serving queries.
func NewEngine(src ItemSource, docs backend.Adapter, bus *events.Bus, cfg Config, log zerolog.Logger) *Engine {
	return &Engine{
		src:    src,
		docs:   docs,
		bus:    bus,
		cfg:    cfg.withDefaults(),
		log:    log,
		state:  StateAbsent,
		tokens: make(map[string]map[string]struct{}),
		items:  make(map[string]itemMeta),
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Load restores the persisted index. An absent document builds a fresh
// index; a corrupted one is rebuilt silently, never surfaced as an error.
func (e *Engine) Load(ctx context.Context) error {
	raw, err := e.docs.Get(ctx, indexKey)
	if errors.Is(err, model.ErrNotFound) {
		return e.Rebuild(ctx)
	}
	if err != nil {
		return err
	}

	var p persistedIndex
	if uerr := json.Unmarshal(raw, &p); uerr != nil || p.Tokens == nil || p.Items == nil {
		e.log.Warn().Err(uerr).Msg("persisted index unusable; rebuilding")
		if rerr := e.Rebuild(ctx); rerr != nil {
			return fmt.Errorf("%w: rebuild failed: %v", model.ErrIndexCorrupted, rerr)
		}
		return nil
	}

	e.mu.Lock()
	e.tokens = make(map[string]map[string]struct{}, len(p.Tokens))
	for term, ids := range p.Tokens {
		set := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		e.tokens[term] = set
	}
	e.items = p.Items
	e.state = StateReady
	e.loadedAt = time.Now()
	e.lastMutation = p.UpdatedAt
	e.mu.Unlock()
	return nil
}

// Rebuild discards the cache and re-derives the whole index from the item
// source, then persists it.
func (e *Engine) Rebuild(ctx context.Context) error {
	e.mu.Lock()
	if e.state == StateAbsent {
		e.state = StateBuilding
	} else {
		e.state = StateRebuilding
	}
	e.mu.Unlock()

	start := time.Now()
	items, err := e.src.AllItems(ctx)
	if err != nil {
		e.mu.Lock()
		e.state = StateStale
		e.mu.Unlock()
		return err
	}

	tokens := make(map[string]map[string]struct{})
	metas := make(map[string]itemMeta, len(items))
	for _, item := range items {
		toks := Tokenize(SearchableText(item), e.cfg.MinTokenLength)
		metas[item.ID] = itemMeta{Title: item.Title, Keywords: len(toks)}
		for _, tok := range toks {
			set, ok := tokens[tok]
			if !ok {
				set = make(map[string]struct{})
				tokens[tok] = set
			}
			set[item.ID] = struct{}{}
		}
	}

	now := time.Now()
	e.mu.Lock()
	e.tokens = tokens
	e.items = metas
	e.state = StateReady
	e.loadedAt = now
	e.lastMutation = now
	e.mu.Unlock()

	if err := e.persist(ctx); err != nil {
		e.log.Warn().Err(err).Msg("index persist failed after rebuild")
	}
	if e.bus != nil {
		e.bus.Publish(events.IndexRebuilt{Items: len(metas), Tokens: len(tokens), Duration: time.Since(start)})
	}
	return nil
}

// IndexItem adds or refreshes one item's postings. Indexing the same item
// twice is idempotent.
func (e *Engine) IndexItem(ctx context.Context, item model.ContentItem) error {
	if item.ID == "" {
		return fmt.Errorf("%w: item id is required", model.ErrValidation)
	}
	toks := Tokenize(SearchableText(item), e.cfg.MinTokenLength)

	e.mu.Lock()
	e.pruneLocked(item.ID)
	for _, tok := range toks {
		set, ok := e.tokens[tok]
		if !ok {
			set = make(map[string]struct{})
			e.tokens[tok] = set
		}
		set[item.ID] = struct{}{}
	}
	e.items[item.ID] = itemMeta{Title: item.Title, Keywords: len(toks)}
	now := time.Now()
	e.loadedAt = now
	e.lastMutation = now
	if e.state == StateAbsent {
		e.state = StateReady
	}
	e.mu.Unlock()

	return e.persist(ctx)
}

// RemoveItem prunes every posting that references the item. The query path
// additionally filters against the live item set, so results stay correct
// even if this physical prune is deferred.
func (e *Engine) RemoveItem(ctx context.Context, id string) error {
	e.mu.Lock()
	e.pruneLocked(id)
	delete(e.items, id)
	now := time.Now()
	e.loadedAt = now
	e.lastMutation = now
	e.mu.Unlock()

	return e.persist(ctx)
}

func (e *Engine) pruneLocked(id string) {
	for term, set := range e.tokens {
		if _, ok := set[id]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(e.tokens, term)
			}
		}
	}
}

// NoteMutation marks that storage changed behind the engine's back (e.g. a
// backup restore). The next query past the staleness window rebuilds.
func (e *Engine) NoteMutation() {
	e.mu.Lock()
	e.lastMutation = time.Now()
	if e.state == StateReady {
		e.state = StateStale
	}
	e.mu.Unlock()
}

// ensureFresh rebuilds when the cache is absent or has fallen behind the
// last known mutation by more than the staleness window.
func (e *Engine) ensureFresh(ctx context.Context) error {
	e.mu.RLock()
	state := e.state
	stale := state == StateStale && time.Since(e.loadedAt) > e.cfg.StalenessWindow
	e.mu.RUnlock()

	if state == StateAbsent {
		return e.Load(ctx)
	}
	if stale {
		return e.Rebuild(ctx)
	}
	return nil
}

func (e *Engine) persist(ctx context.Context) error {
	e.mu.RLock()
	p := persistedIndex{
		Tokens:    make(map[string][]string, len(e.tokens)),
		Items:     make(map[string]itemMeta, len(e.items)),
		UpdatedAt: e.lastMutation,
	}
	for term, set := range e.tokens {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		p.Tokens[term] = ids
	}
	for id, meta := range e.items {
		p.Items[id] = meta
	}
	e.mu.RUnlock()

	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return e.docs.Set(ctx, indexKey, raw)
}

// TokenCount returns the number of distinct index terms.
func (e *Engine) TokenCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.tokens)
}

// ItemCount returns the number of indexed items.
func (e *Engine) ItemCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.items)
}
