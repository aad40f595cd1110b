package searchindex

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepstack/keepstack/internal/model"
)

func TestSearchRanksByRelevance(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t, []model.ContentItem{
		{ID: "a", Title: "JavaScript Testing Framework"},
		{ID: "b", Title: "Python Testing Guide"},
		{ID: "c", Title: "Cooking Recipes"},
	}, Config{})
	require.NoError(t, eng.Load(ctx))

	res, err := eng.Search(ctx, model.SearchRequest{Query: "javascript testing"})
	require.NoError(t, err)

	require.Len(t, res.Hits, 2)
	assert.Equal(t, "a", res.Hits[0].Item.ID, "item matching both tokens ranks first")
	assert.Equal(t, "b", res.Hits[1].Item.ID)
	assert.Greater(t, res.Hits[0].Score, res.Hits[1].Score)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, "javascript testing", res.Query)
}

func TestSearchScoreBlendsKeywordAndSubstringRatios(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t, []model.ContentItem{
		{ID: "a", Title: "JavaScript Testing Framework"},
	}, Config{})
	require.NoError(t, eng.Load(ctx))

	res, err := eng.Search(ctx, model.SearchRequest{Query: "javascript testing"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)

	// 0.6 * (2 matching keywords / 3 item keywords) + 0.4 * (2 exact / 2 tokens)
	assert.InDelta(t, 0.8, res.Hits[0].Score, 1e-9)
}

func TestSearchMatchesPartialTokens(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t, []model.ContentItem{
		{ID: "a", Title: "JavaScript Patterns"},
	}, Config{})
	require.NoError(t, eng.Load(ctx))

	res, err := eng.Search(ctx, model.SearchRequest{Query: "script"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "a", res.Hits[0].Item.ID)
}

func TestSearchExcludesDeletedItems(t *testing.T) {
	ctx := context.Background()
	eng, src, _ := newTestEngine(t, []model.ContentItem{
		{ID: "a", Title: "Networking Basics"},
		{ID: "b", Title: "Networking Advanced"},
	}, Config{})
	require.NoError(t, eng.Load(ctx))

	// Item b disappears from storage without the index hearing about it.
	src.items = src.items[:1]

	res, err := eng.Search(ctx, model.SearchRequest{Query: "networking"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "a", res.Hits[0].Item.ID)
}

func TestSearchEmptyQueryIsFilterOnly(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t, []model.ContentItem{
		{ID: "a", Title: "First", Tags: []string{"go"}},
		{ID: "b", Title: "Second", Tags: []string{"rust"}},
		{ID: "c", Title: "Third", Tags: []string{"go"}},
	}, Config{})
	require.NoError(t, eng.Load(ctx))

	res, err := eng.Search(ctx, model.SearchRequest{
		Filters: model.SearchFilters{Tags: []string{"go"}},
	})
	require.NoError(t, err)
	require.Len(t, res.Hits, 2)
	assert.Equal(t, "a", res.Hits[0].Item.ID)
	assert.Equal(t, "c", res.Hits[1].Item.ID)
	assert.Zero(t, res.Hits[0].Score)
	assert.Empty(t, eng.History(), "empty query is not recorded")
}

func TestSearchAppliesFiltersToRankedResults(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t, []model.ContentItem{
		{ID: "a", Title: "Docker Networking", Status: model.StatusProcessed},
		{ID: "b", Title: "Docker Compose", Status: model.StatusPending},
	}, Config{})
	require.NoError(t, eng.Load(ctx))

	res, err := eng.Search(ctx, model.SearchRequest{
		Query:   "docker",
		Filters: model.SearchFilters{Statuses: []model.ItemStatus{model.StatusProcessed}},
	})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "a", res.Hits[0].Item.ID)
}

func TestSearchPaginatesAndCapsLimit(t *testing.T) {
	ctx := context.Background()
	items := []model.ContentItem{
		{ID: "a", Title: "Linux Kernel Notes"},
		{ID: "b", Title: "Linux Namespaces"},
		{ID: "c", Title: "Linux Cgroups"},
	}
	eng, _, _ := newTestEngine(t, items, Config{MaxPageSize: 2})
	require.NoError(t, eng.Load(ctx))

	res, err := eng.Search(ctx, model.SearchRequest{Query: "linux", Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Len(t, res.Hits, 2, "limit is capped to the max page size")

	page2, err := eng.Search(ctx, model.SearchRequest{Query: "linux", Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page2.Hits, 1)

	beyond, err := eng.Search(ctx, model.SearchRequest{Query: "linux", Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond.Hits)
	assert.Equal(t, 3, beyond.Total)
}

func TestSearchSortsByExplicitField(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	eng, _, _ := newTestEngine(t, []model.ContentItem{
		{ID: "a", Title: "Alpha Servers", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "b", Title: "Beta Servers", CreatedAt: base},
		{ID: "c", Title: "Gamma Servers", CreatedAt: base.Add(time.Hour)},
	}, Config{})
	require.NoError(t, eng.Load(ctx))

	res, err := eng.Search(ctx, model.SearchRequest{Query: "servers", SortBy: "createdAt", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 3)
	assert.Equal(t, "b", res.Hits[0].Item.ID)
	assert.Equal(t, "c", res.Hits[1].Item.ID)
	assert.Equal(t, "a", res.Hits[2].Item.ID)
}

func TestSearchTieBreaksByID(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t, []model.ContentItem{
		{ID: "b", Title: "Redis Caching"},
		{ID: "a", Title: "Redis Caching"},
	}, Config{})
	require.NoError(t, eng.Load(ctx))

	res, err := eng.Search(ctx, model.SearchRequest{Query: "redis"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 2)
	assert.Equal(t, "a", res.Hits[0].Item.ID)
	assert.Equal(t, "b", res.Hits[1].Item.ID)
}
