// Package memory provides an in-process map-backed adapter. It backs the
// small synchronized area in the default wiring and doubles as the test
// driver for the other areas.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/keepstack/keepstack/internal/backend"
	"github.com/keepstack/keepstack/internal/model"
)

type store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New returns an empty in-memory adapter.
func New() backend.Adapter {
	return &store{data: make(map[string][]byte)}
}

func (s *store) Get(ctx context.Context, key string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, model.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *store) GetMany(ctx context.Context, keys []string) (map[string]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		if v, ok := s.data[k]; ok {
			cp := make([]byte, len(v))
			copy(cp, v)
			out[k] = cp
		}
	}
	return out, nil
}

func (s *store) Set(ctx context.Context, key string, value json.RawMessage) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = cp
	return nil
}

func (s *store) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string][]byte)
	return nil
}

func (s *store) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *store) BytesInUse(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for k, v := range s.data {
		n += int64(len(k) + len(v))
	}
	return n, nil
}
