package searchindex

import (
	"reflect"
	"strings"
	"testing"

	"github.com/keepstack/keepstack/internal/model"
)

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Hello, World!", "hello world"},
		{"snake_case-and-dash", "snake case and dash"},
		{"  collapse\t\nwhitespace  ", "collapse whitespace"},
		{"émojis 🎉 stripped", "mojis stripped"},
		{"MiXeD CaSe 123", "mixed case 123"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Fatalf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTokenize_Deterministic(t *testing.T) {
	text := "JavaScript testing framework for JavaScript testing"
	first := Tokenize(text, 0)
	for i := 0; i < 5; i++ {
		if got := Tokenize(text, 0); !reflect.DeepEqual(got, first) {
			t.Fatalf("tokenize not deterministic: %v vs %v", got, first)
		}
	}
	want := []string{"framework", "javascript", "testing"}
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("tokens = %v, want %v", first, want)
	}
}

func TestTokenize_DropsStopWordsAndShortTokens(t *testing.T) {
	tokens := Tokenize("the cat and a dog ran to it", 3)
	for _, tok := range tokens {
		if len(tok) < 3 {
			t.Fatalf("short token leaked: %q in %v", tok, tokens)
		}
		if _, stop := stopWords[tok]; stop {
			t.Fatalf("stop word leaked: %q in %v", tok, tokens)
		}
	}
	if !reflect.DeepEqual(tokens, []string{"cat", "dog", "ran"}) {
		t.Fatalf("tokens = %v", tokens)
	}
}

func TestSearchableText_FieldSelection(t *testing.T) {
	item := model.ContentItem{
		Title:      "Go Concurrency",
		Content:    "channels and goroutines",
		Summary:    "should not appear",
		Tags:       []string{"golang"},
		Categories: []string{"programming"},
		Notes:      "read twice",
	}
	text := SearchableText(item)
	for _, want := range []string{"concurrency", "goroutines", "golang", "programming", "twice"} {
		if !contains(text, want) {
			t.Fatalf("searchable text missing %q: %q", want, text)
		}
	}
	if contains(text, "appear") {
		t.Fatalf("summary used despite body present: %q", text)
	}

	// Summary substitutes for an absent body.
	item.Content = ""
	if !contains(SearchableText(item), "appear") {
		t.Fatalf("summary fallback missing")
	}
}

func TestSearchableText_PhysicalFields(t *testing.T) {
	item := model.ContentItem{
		Title:      "Dune",
		IsPhysical: true,
		Author:     "Frank Herbert",
		Identifier: "ISBN-0441172717",
	}
	text := SearchableText(item)
	if !contains(text, "herbert") || !contains(text, "0441172717") {
		t.Fatalf("physical fields missing: %q", text)
	}

	// Digital items must not index the physical-only fields.
	item.IsPhysical = false
	if contains(SearchableText(item), "herbert") {
		t.Fatalf("author indexed for digital item")
	}
}

func contains(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}
