package searchindex

import (
	"sort"
	"strings"

	"github.com/keepstack/keepstack/internal/model"
)

// DefaultMinTokenLength drops tokens shorter than this during indexing and
// querying. Indexing and querying must share the same pipeline or relevance
// collapses.
const DefaultMinTokenLength = 3

// stopWords are common English function words excluded from the index.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "had": {}, "her": {}, "was": {},
	"one": {}, "our": {}, "out": {}, "has": {}, "him": {}, "his": {},
	"how": {}, "its": {}, "may": {}, "new": {}, "now": {}, "old": {},
	"see": {}, "two": {}, "way": {}, "who": {}, "did": {}, "get": {},
	"this": {}, "that": {}, "with": {}, "from": {}, "have": {}, "they": {},
	"will": {}, "what": {}, "when": {}, "were": {}, "been": {}, "than": {},
	"then": {}, "them": {}, "these": {}, "there": {}, "their": {}, "which": {},
	"would": {}, "about": {}, "into": {}, "over": {}, "after": {}, "your": {},
}

// Normalize lowercases text, maps underscores and hyphens to spaces, strips
// every other non-alphanumeric character, and collapses whitespace.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSpace := true
	for _, r := range strings.ToLower(text) {
		switch {
		case r == '_' || r == '-':
			r = ' '
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			r = ' '
		default:
			continue
		}
		if r == ' ' {
			if lastSpace {
				continue
			}
			lastSpace = true
		} else {
			lastSpace = false
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// Tokenize normalizes text and splits it into index tokens: whitespace
// split, minimum length applied, stop words removed, deduplicated, sorted
// alphabetically for deterministic output.
func Tokenize(text string, minLen int) []string {
	if minLen <= 0 {
		minLen = DefaultMinTokenLength
	}
	fields := strings.Fields(Normalize(text))
	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < minLen {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	sort.Strings(tokens)
	return tokens
}

// SearchableText concatenates every indexable field of an item into one
// string: title, full body (summary when the body is absent), tags,
// categories, notes, and the physical-item author/identifier fields.
func SearchableText(item model.ContentItem) string {
	parts := make([]string, 0, 8)
	parts = append(parts, item.Title)
	if item.Content != "" {
		parts = append(parts, item.Content)
	} else if item.Summary != "" {
		parts = append(parts, item.Summary)
	}
	parts = append(parts, item.Tags...)
	parts = append(parts, item.Categories...)
	if item.Notes != "" {
		parts = append(parts, item.Notes)
	}
	if item.IsPhysical {
		if item.Author != "" {
			parts = append(parts, item.Author)
		}
		if item.Identifier != "" {
			parts = append(parts, item.Identifier)
		}
	}
	return Normalize(strings.Join(parts, " "))
}
