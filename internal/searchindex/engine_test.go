package searchindex

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepstack/keepstack/internal/backend"
	"github.com/keepstack/keepstack/internal/backend/memory"
	"github.com/keepstack/keepstack/internal/events"
	"github.com/keepstack/keepstack/internal/logger"
	"github.com/keepstack/keepstack/internal/model"
)

// sliceSource is a fixed in-memory item source.
type sliceSource struct {
	items []model.ContentItem
}

func (s *sliceSource) AllItems(_ context.Context) ([]model.ContentItem, error) {
	out := make([]model.ContentItem, len(s.items))
	copy(out, s.items)
	return out, nil
}

func newTestEngine(t *testing.T, items []model.ContentItem, cfg Config) (*Engine, *sliceSource, backend.Adapter) {
	t.Helper()
	src := &sliceSource{items: items}
	docs := memory.New()
	log := logger.New("searchindex-test")
	bus := events.NewBus(log)
	t.Cleanup(bus.Close)
	return NewEngine(src, docs, bus, cfg, log), src, docs
}

func TestLoadAbsentBuildsFreshIndex(t *testing.T) {
	ctx := context.Background()
	eng, _, docs := newTestEngine(t, []model.ContentItem{
		{ID: "a", Title: "JavaScript Testing Framework"},
	}, Config{})

	require.NoError(t, eng.Load(ctx))
	assert.Equal(t, StateReady, eng.State())
	assert.Equal(t, 1, eng.ItemCount())
	assert.Equal(t, 3, eng.TokenCount())

	_, err := docs.Get(ctx, indexKey)
	assert.NoError(t, err, "index should be persisted after build")
}

func TestLoadCorruptedIndexRebuildsSilently(t *testing.T) {
	ctx := context.Background()
	eng, _, docs := newTestEngine(t, []model.ContentItem{
		{ID: "a", Title: "Distributed Systems Notes"},
	}, Config{})

	require.NoError(t, docs.Set(ctx, indexKey, []byte(`{"tokens": not json`)))

	require.NoError(t, eng.Load(ctx))
	assert.Equal(t, StateReady, eng.State())
	assert.Equal(t, 1, eng.ItemCount())
}

func TestLoadRoundTripsPersistedIndex(t *testing.T) {
	ctx := context.Background()
	items := []model.ContentItem{
		{ID: "a", Title: "Golang Concurrency Patterns"},
		{ID: "b", Title: "Database Migrations Guide"},
	}
	eng, src, docs := newTestEngine(t, items, Config{})
	require.NoError(t, eng.Rebuild(ctx))

	log := logger.New("searchindex-test")
	reloaded := NewEngine(src, docs, nil, Config{}, log)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, eng.ItemCount(), reloaded.ItemCount())
	assert.Equal(t, eng.TokenCount(), reloaded.TokenCount())
}

func TestIndexItemIsIdempotent(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t, nil, Config{})
	item := model.ContentItem{ID: "a", Title: "Rust Ownership Model"}

	require.NoError(t, eng.IndexItem(ctx, item))
	tokens, count := eng.TokenCount(), eng.ItemCount()

	require.NoError(t, eng.IndexItem(ctx, item))
	assert.Equal(t, tokens, eng.TokenCount())
	assert.Equal(t, count, eng.ItemCount())
}

func TestIndexItemRefreshReplacesStalePostings(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t, nil, Config{})

	require.NoError(t, eng.IndexItem(ctx, model.ContentItem{ID: "a", Title: "Kubernetes Operators"}))
	require.NoError(t, eng.IndexItem(ctx, model.ContentItem{ID: "a", Title: "Terraform Modules"}))

	eng.mu.RLock()
	_, kubernetes := eng.tokens["kubernetes"]
	_, terraform := eng.tokens["terraform"]
	eng.mu.RUnlock()
	assert.False(t, kubernetes, "old postings should be pruned on refresh")
	assert.True(t, terraform)
}

func TestIndexItemRejectsMissingID(t *testing.T) {
	eng, _, _ := newTestEngine(t, nil, Config{})
	err := eng.IndexItem(context.Background(), model.ContentItem{Title: "no id"})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestRemoveItemPrunesEmptyTerms(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t, nil, Config{})
	require.NoError(t, eng.IndexItem(ctx, model.ContentItem{ID: "a", Title: "Prometheus Alerting"}))

	require.NoError(t, eng.RemoveItem(ctx, "a"))
	assert.Equal(t, 0, eng.TokenCount())
	assert.Equal(t, 0, eng.ItemCount())
}

func TestNoteMutationMarksStaleAndQueryRebuilds(t *testing.T) {
	ctx := context.Background()
	eng, src, _ := newTestEngine(t, []model.ContentItem{
		{ID: "a", Title: "Observability Handbook"},
	}, Config{StalenessWindow: time.Millisecond})
	require.NoError(t, eng.Load(ctx))

	src.items = append(src.items, model.ContentItem{ID: "b", Title: "Caching Strategies"})
	eng.NoteMutation()
	assert.Equal(t, StateStale, eng.State())

	time.Sleep(5 * time.Millisecond)
	_, err := eng.Search(ctx, model.SearchRequest{Query: "caching"})
	require.NoError(t, err)
	assert.Equal(t, StateReady, eng.State())
	assert.Equal(t, 2, eng.ItemCount())
}

func TestRebuildPublishesEvent(t *testing.T) {
	ctx := context.Background()
	src := &sliceSource{items: []model.ContentItem{{ID: "a", Title: "Streaming Pipelines"}}}
	docs := memory.New()
	log := logger.New("searchindex-test")
	bus := events.NewBus(log)
	defer bus.Close()

	var got events.IndexRebuilt
	bus.Subscribe(events.TopicIndexRebuilt, func(ev events.Event) {
		got = ev.(events.IndexRebuilt)
	})

	eng := NewEngine(src, docs, bus, Config{}, log)
	require.NoError(t, eng.Rebuild(ctx))
	assert.Equal(t, 1, got.Items)
	assert.Equal(t, 2, got.Tokens)
}
