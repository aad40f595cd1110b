package searchindex

import (
	"sort"
	"strings"
	"time"

	"github.com/keepstack/keepstack/internal/model"
)

// recordSearch pushes a query onto the bounded history ring, most recent
// first. A repeated query moves to the front instead of appending.
func (e *Engine) recordSearch(query string, resultCount int) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}

	e.hmu.Lock()
	defer e.hmu.Unlock()

	e.totalSearches++

	for i, entry := range e.history {
		if entry.Query == query {
			e.history = append(e.history[:i], e.history[i+1:]...)
			break
		}
	}
	entry := model.SearchHistoryEntry{Query: query, Timestamp: time.Now(), ResultCount: resultCount}
	e.history = append([]model.SearchHistoryEntry{entry}, e.history...)
	if len(e.history) > e.cfg.HistoryCap {
		e.history = e.history[:e.cfg.HistoryCap]
	}
}

// History returns the recorded queries, most recent first.
func (e *Engine) History() []model.SearchHistoryEntry {
	e.hmu.Lock()
	defer e.hmu.Unlock()
	out := make([]model.SearchHistoryEntry, len(e.history))
	copy(out, e.history)
	return out
}

// ClearHistory drops all recorded queries and the cumulative counter.
func (e *Engine) ClearHistory() {
	e.hmu.Lock()
	defer e.hmu.Unlock()
	e.history = nil
	e.totalSearches = 0
}

// Suggest returns completion candidates for a partial query: history
// entries containing it as a substring (by recency), then index tokens
// starting with it (alphabetical), deduplicated and capped.
func (e *Engine) Suggest(partial string, limit int) []model.Suggestion {
	if limit <= 0 || limit > e.cfg.SuggestionCap {
		limit = e.cfg.SuggestionCap
	}
	needle := Normalize(partial)
	if needle == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var out []model.Suggestion

	e.hmu.Lock()
	for _, entry := range e.history {
		if len(out) >= limit {
			break
		}
		if !strings.Contains(strings.ToLower(entry.Query), needle) {
			continue
		}
		if _, dup := seen[entry.Query]; dup {
			continue
		}
		seen[entry.Query] = struct{}{}
		out = append(out, model.Suggestion{Text: entry.Query, Kind: model.SuggestionHistory})
	}
	e.hmu.Unlock()

	e.mu.RLock()
	terms := make([]string, 0, len(e.tokens))
	for term := range e.tokens {
		if strings.HasPrefix(term, needle) {
			terms = append(terms, term)
		}
	}
	e.mu.RUnlock()
	sort.Strings(terms)

	for _, term := range terms {
		if len(out) >= limit {
			break
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, model.Suggestion{Text: term, Kind: model.SuggestionToken})
	}
	return out
}

// Analytics aggregates history into a word-frequency breakdown: individual
// query tokens are counted, not whole phrases.
func (e *Engine) Analytics() model.SearchAnalytics {
	e.hmu.Lock()
	history := make([]model.SearchHistoryEntry, len(e.history))
	copy(history, e.history)
	total := e.totalSearches
	e.hmu.Unlock()

	a := model.SearchAnalytics{
		TotalSearches:   total,
		DistinctQueries: len(history),
	}
	if len(history) == 0 {
		return a
	}

	sum := 0
	counts := make(map[string]int)
	for _, entry := range history {
		sum += entry.ResultCount
		for _, tok := range Tokenize(entry.Query, e.cfg.MinTokenLength) {
			counts[tok]++
		}
	}
	a.AvgResultCount = float64(sum) / float64(len(history))

	top := make([]model.TokenCount, 0, len(counts))
	for tok, n := range counts {
		top = append(top, model.TokenCount{Token: tok, Count: n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Token < top[j].Token
	})
	if len(top) > e.cfg.TopTokenCount {
		top = top[:e.cfg.TopTokenCount]
	}
	a.TopTokens = top
	return a
}
