package model

import (
	"encoding/json"
	"time"
)

// Area identifies one of the three configured storage areas. Areas share a
// single adapter contract and differ only in declared capacity.
type Area string

const (
	// AreaSync is the small quota-limited synchronized area (settings).
	AreaSync Area = "sync"
	// AreaLocal is the medium quota-limited area (lightweight item projections).
	AreaLocal Area = "local"
	// AreaDocument is the effectively unbounded area (full bodies, index, backups).
	AreaDocument Area = "document"
)

// ItemType tags the kind of content a saved item represents.
type ItemType string

const (
	ItemTypeArticle  ItemType = "article"
	ItemTypeVideo    ItemType = "video"
	ItemTypeImage    ItemType = "image"
	ItemTypeBook     ItemType = "book"
	ItemTypeDocument ItemType = "document"
	ItemTypeWebpage  ItemType = "webpage"
	ItemTypeAudio    ItemType = "audio"
	ItemTypeNote     ItemType = "note"
)

// ItemStatus tracks an item through the capture-and-enrich lifecycle.
type ItemStatus string

const (
	StatusPending    ItemStatus = "pending"
	StatusProcessing ItemStatus = "processing"
	StatusProcessed  ItemStatus = "processed"
	StatusError      ItemStatus = "error"
)

// ContentItem is one saved piece of content. The full extracted body lives in
// Content and is persisted only in the document area; every other field is
// part of the lightweight projection stored in the local area.
type ContentItem struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	Type       ItemType   `json:"type"`
	Status     ItemStatus `json:"status"`
	Summary    string     `json:"summary,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Categories []string   `json:"categories,omitempty"`
	Notes      string     `json:"notes,omitempty"`

	// Physical (non-digital) items carry location metadata instead of a body.
	IsPhysical bool   `json:"isPhysical,omitempty"`
	Location   string `json:"location,omitempty"`
	Identifier string `json:"identifier,omitempty"`
	Author     string `json:"author,omitempty"`

	ViewCount int `json:"viewCount,omitempty"`

	// Content is the full extracted body text, potentially tens of KB.
	Content string `json:"content,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Projection returns a copy of the item with the full body stripped, suitable
// for the capacity-constrained local area.
func (c ContentItem) Projection() ContentItem {
	c.Content = ""
	return c
}

// HasBody reports whether the item carries a full body text.
func (c ContentItem) HasBody() bool { return c.Content != "" }

// ItemList is the lightweight projection list persisted under a single key in
// the local area. Version is an optimistic-concurrency token: a writer must
// present the version it read, and a mismatch fails with ErrConflict.
type ItemList struct {
	Version int64         `json:"version"`
	Items   []ContentItem `json:"items"`
}

// CapturePayload is the raw extract handed over by the content-capture
// collaborator before an item enters the storage layer.
type CapturePayload struct {
	Title      string            `json:"title"`
	URL        string            `json:"url"`
	Content    string            `json:"content,omitempty"`
	Type       ItemType          `json:"type,omitempty"`
	Timestamp  *time.Time        `json:"timestamp,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	IsPhysical bool              `json:"isPhysical,omitempty"`
	Location   string            `json:"location,omitempty"`
	Identifier string            `json:"identifier,omitempty"`
	Author     string            `json:"author,omitempty"`
}

// EnrichPayload carries the fields the AI-processing collaborator produces.
// Nil slices/empty strings mean "leave unchanged".
type EnrichPayload struct {
	Summary    *string    `json:"summary,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Categories []string   `json:"categories,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	Status     ItemStatus `json:"status,omitempty"`
}

// ListOptions controls sorting and pagination for item listings.
type ListOptions struct {
	SortBy    string `json:"sortBy,omitempty"`
	SortOrder string `json:"sortOrder,omitempty"` // "asc" or "desc"
	Offset    int    `json:"offset,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// SearchFilters are AND-composed structural filters. Category and tag
// membership are any-of within their own field; date bounds are inclusive.
type SearchFilters struct {
	Types      []ItemType   `json:"types,omitempty"`
	Statuses   []ItemStatus `json:"statuses,omitempty"`
	Categories []string     `json:"categories,omitempty"`
	Tags       []string     `json:"tags,omitempty"`
	From       *time.Time   `json:"from,omitempty"`
	To         *time.Time   `json:"to,omitempty"`
	Physical   *bool        `json:"physical,omitempty"`
}

// SearchRequest is a ranked query against the search index.
type SearchRequest struct {
	Query     string        `json:"query"`
	Filters   SearchFilters `json:"filters,omitempty"`
	SortBy    string        `json:"sortBy,omitempty"`
	SortOrder string        `json:"sortOrder,omitempty"`
	Offset    int           `json:"offset,omitempty"`
	Limit     int           `json:"limit,omitempty"`
}

// SearchHit is one scored result.
type SearchHit struct {
	Item  ContentItem `json:"item"`
	Score float64     `json:"score"`
}

// SearchResult is a page of hits plus the total match count before paging.
type SearchResult struct {
	Hits  []SearchHit `json:"hits"`
	Total int         `json:"total"`
	Query string      `json:"query"`
}

// SearchHistoryEntry records one executed query, most recent first.
type SearchHistoryEntry struct {
	Query       string    `json:"query"`
	Timestamp   time.Time `json:"timestamp"`
	ResultCount int       `json:"resultCount"`
}

// SuggestionKind distinguishes where a suggestion came from.
type SuggestionKind string

const (
	SuggestionHistory SuggestionKind = "history"
	SuggestionToken   SuggestionKind = "token"
)

// Suggestion is one completion candidate for a partial query.
type Suggestion struct {
	Text string         `json:"text"`
	Kind SuggestionKind `json:"kind"`
}

// TokenCount pairs a query token with its occurrence count.
type TokenCount struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

// SearchAnalytics aggregates search history into word-frequency statistics.
type SearchAnalytics struct {
	TotalSearches   int          `json:"totalSearches"`
	DistinctQueries int          `json:"distinctQueries"`
	AvgResultCount  float64      `json:"avgResultCount"`
	TopTokens       []TokenCount `json:"topTokens"`
}

// Snapshot is a full key dump of one storage area.
type Snapshot map[string]json.RawMessage

// Backup is an immutable point-in-time capture of the storage areas.
// Restoring destructively replaces live state in each area it covers.
type Backup struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Version   int               `json:"version"`
	Data      map[Area]Snapshot `json:"data"`
}

// BackupInfo is the listing view of a stored backup, payload omitted.
type BackupInfo struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Version      int       `json:"version"`
	Areas        []Area    `json:"areas"`
	IncludesBody bool      `json:"includesBody"`
}

// SaveResult reports the outcome of a multi-area write. A failed leg is
// collected instead of thrown so partial success is visible to the caller.
type SaveResult struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors,omitempty"`
}

// QuotaUsage describes the occupancy of one storage area.
type QuotaUsage struct {
	Area        Area    `json:"area"`
	BytesInUse  int64   `json:"bytesInUse"`
	Capacity    int64   `json:"capacity"`
	PercentUsed float64 `json:"percentageUsed"`
}
