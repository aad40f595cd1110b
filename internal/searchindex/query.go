package searchindex

import (
	"context"
	"sort"
	"strings"

	"github.com/keepstack/keepstack/internal/model"
)

// Search answers a relevance-ranked, filterable, paginated query. Malformed
// or missing index state degrades to a rebuild, never an error dialog: the
// worst case for the caller is an empty result set.
func (e *Engine) Search(ctx context.Context, req model.SearchRequest) (model.SearchResult, error) {
	if err := e.ensureFresh(ctx); err != nil {
		e.log.Warn().Err(err).Msg("index refresh failed; serving current cache")
	}

	live, err := e.src.AllItems(ctx)
	if err != nil {
		return model.SearchResult{Query: req.Query}, err
	}
	liveByID := make(map[string]model.ContentItem, len(live))
	for _, item := range live {
		liveByID[item.ID] = item
	}

	qTokens := Tokenize(req.Query, e.cfg.MinTokenLength)

	var hits []model.SearchHit
	if len(qTokens) == 0 {
		// Filter-only request: the full filtered item set, unscored.
		for _, item := range live {
			if req.Filters.Matches(item) {
				hits = append(hits, model.SearchHit{Item: item})
			}
		}
	} else {
		scores := e.score(qTokens, liveByID)
		for id, score := range scores {
			item := liveByID[id]
			if !req.Filters.Matches(item) {
				continue
			}
			hits = append(hits, model.SearchHit{Item: item, Score: score})
		}
	}

	sortHits(hits, req.SortBy, req.SortOrder, len(qTokens) > 0)

	total := len(hits)
	hits = paginateHits(hits, req.Offset, e.effectiveLimit(req.Limit))

	if !e.cfg.HistoryDisabled && strings.TrimSpace(req.Query) != "" {
		e.recordSearch(req.Query, total)
	}

	return model.SearchResult{Hits: hits, Total: total, Query: req.Query}, nil
}

// score computes the weighted relevance blend for every matching live item:
// a keyword-overlap ratio against the item's indexed token count, plus an
// exact-substring ratio against the query tokens. Postings referencing
// deleted items are skipped here, which keeps results correct before the
// physical prune happens.
func (e *Engine) score(qTokens []string, live map[string]model.ContentItem) map[string]float64 {
	e.mu.RLock()
	matching := make(map[string]int)
	for term, postings := range e.tokens {
		if !termMatchesQuery(term, qTokens) {
			continue
		}
		for id := range postings {
			if _, ok := live[id]; !ok {
				continue
			}
			matching[id]++
		}
	}
	keywords := make(map[string]int, len(matching))
	for id := range matching {
		keywords[id] = e.items[id].Keywords
	}
	e.mu.RUnlock()

	scores := make(map[string]float64, len(matching))
	for id, matched := range matching {
		var kwRatio float64
		if total := keywords[id]; total > 0 {
			kwRatio = float64(matched) / float64(total)
		}
		scores[id] = e.cfg.KeywordWeight * kwRatio
	}

	// Substring term: the normalized searchable text must contain the query
	// token verbatim. Also admits items the keyword pass missed.
	for id, item := range live {
		text := SearchableText(item)
		exact := 0
		for _, qt := range qTokens {
			if strings.Contains(text, qt) {
				exact++
			}
		}
		if exact == 0 {
			continue
		}
		ratio := float64(exact) / float64(len(qTokens))
		scores[id] += e.cfg.SubstringWeight * ratio
	}

	return scores
}

// termMatchesQuery reports whether an index term shares a substring
// relationship, in either direction, with any query token.
func termMatchesQuery(term string, qTokens []string) bool {
	for _, qt := range qTokens {
		if strings.Contains(term, qt) || strings.Contains(qt, term) {
			return true
		}
	}
	return false
}

// sortHits orders results. A non-empty query defaults to relevance
// descending; explicit sort fields override. Ties break by item id so
// ordering is deterministic.
func sortHits(hits []model.SearchHit, sortBy, order string, ranked bool) {
	desc := strings.EqualFold(order, "desc")

	var less func(a, b model.SearchHit) bool
	switch sortBy {
	case "createdAt":
		less = func(a, b model.SearchHit) bool { return a.Item.CreatedAt.Before(b.Item.CreatedAt) }
	case "updatedAt":
		less = func(a, b model.SearchHit) bool { return a.Item.UpdatedAt.Before(b.Item.UpdatedAt) }
	case "title":
		less = func(a, b model.SearchHit) bool { return a.Item.Title < b.Item.Title }
	case "viewCount":
		less = func(a, b model.SearchHit) bool { return a.Item.ViewCount < b.Item.ViewCount }
	case "relevance":
		less = func(a, b model.SearchHit) bool { return a.Score < b.Score }
		desc = !strings.EqualFold(order, "asc")
	default:
		if !ranked {
			return // filter-only request keeps insertion order
		}
		less = func(a, b model.SearchHit) bool { return a.Score < b.Score }
		desc = true
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if desc {
			a, b = b, a
		}
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return hits[i].Item.ID < hits[j].Item.ID
	})
}

func (e *Engine) effectiveLimit(limit int) int {
	if limit <= 0 {
		return e.cfg.DefaultPageSize
	}
	if limit > e.cfg.MaxPageSize {
		return e.cfg.MaxPageSize
	}
	return limit
}

func paginateHits(hits []model.SearchHit, offset, limit int) []model.SearchHit {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(hits) {
		return []model.SearchHit{}
	}
	hits = hits[offset:]
	if limit > 0 && limit < len(hits) {
		hits = hits[:limit]
	}
	return hits
}
