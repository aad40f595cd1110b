// Package backendtest provides a compliance suite shared by every adapter
// driver. Drivers call Run from their own tests with a factory that returns
// a clean, isolated adapter.
package backendtest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/keepstack/keepstack/internal/backend"
	"github.com/keepstack/keepstack/internal/model"
)

// Run exercises the adapter contract against the given driver.
func Run(t *testing.T, makeAdapter func(t *testing.T) backend.Adapter) {
	t.Helper()

	a := makeAdapter(t)
	ctx := context.Background()

	// Absent key
	if _, err := a.Get(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get missing: expected ErrNotFound, got %v", err)
	}

	// Set / Get round-trip
	val := json.RawMessage(`{"title":"hello","n":1}`)
	if err := a.Set(ctx, "k1", val); err != nil {
		t.Fatalf("Set k1: %v", err)
	}
	got, err := a.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get k1: %v", err)
	}
	if string(got) != string(val) {
		t.Fatalf("Get k1: got %s want %s", got, val)
	}

	// Overwrite
	val2 := json.RawMessage(`{"title":"hello2"}`)
	if err := a.Set(ctx, "k1", val2); err != nil {
		t.Fatalf("Set k1 overwrite: %v", err)
	}
	if got, err = a.Get(ctx, "k1"); err != nil || string(got) != string(val2) {
		t.Fatalf("Get after overwrite: got %s err %v", got, err)
	}

	// GetMany omits absent keys
	if err := a.Set(ctx, "k2", json.RawMessage(`2`)); err != nil {
		t.Fatalf("Set k2: %v", err)
	}
	many, err := a.GetMany(ctx, []string{"k1", "k2", "nope"})
	if err != nil {
		t.Fatalf("GetMany: %v", err)
	}
	if len(many) != 2 {
		t.Fatalf("GetMany: expected 2 entries, got %d", len(many))
	}
	if _, ok := many["nope"]; ok {
		t.Fatalf("GetMany: absent key must be omitted")
	}

	// Keys sorted
	keys, err := a.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "k1" || keys[1] != "k2" {
		t.Fatalf("Keys: got %v", keys)
	}

	// BytesInUse accounts for keys and values
	n, err := a.BytesInUse(ctx)
	if err != nil {
		t.Fatalf("BytesInUse: %v", err)
	}
	want := int64(len("k1") + len(val2) + len("k2") + len(`2`))
	if n != want {
		t.Fatalf("BytesInUse: got %d want %d", n, want)
	}

	// Remove
	if err := a.Remove(ctx, "k2"); err != nil {
		t.Fatalf("Remove k2: %v", err)
	}
	if _, err := a.Get(ctx, "k2"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get removed k2: expected ErrNotFound, got %v", err)
	}
	// Removing an absent key is not an error
	if err := a.Remove(ctx, "k2"); err != nil {
		t.Fatalf("Remove absent k2: %v", err)
	}

	// Clear
	if err := a.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if keys, err = a.Keys(ctx); err != nil || len(keys) != 0 {
		t.Fatalf("Keys after Clear: got %v err %v", keys, err)
	}
	if n, err = a.BytesInUse(ctx); err != nil || n != 0 {
		t.Fatalf("BytesInUse after Clear: got %d err %v", n, err)
	}
}
