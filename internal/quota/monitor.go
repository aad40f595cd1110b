// Package quota enforces per-area byte budgets. A Monitor wraps a backend
// adapter, rejects oversized writes before they reach the driver, and raises
// a warning event once per upward threshold crossing.
package quota

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/keepstack/keepstack/internal/backend"
	"github.com/keepstack/keepstack/internal/events"
	"github.com/keepstack/keepstack/internal/model"
)

// DefaultWarnThreshold is the usage fraction past which a warning fires.
const DefaultWarnThreshold = 0.8

// Monitor wraps an adapter with capacity accounting. Capacity zero means
// unlimited: no pre-flight rejection and no warning events.
type Monitor struct {
	inner     backend.Adapter
	area      model.Area
	capacity  int64
	threshold float64
	bus       *events.Bus
	log       zerolog.Logger

	mu     sync.Mutex
	warned bool
}

// NewMonitor wraps inner with quota enforcement for the given area.
func NewMonitor(inner backend.Adapter, area model.Area, capacity int64, threshold float64, bus *events.Bus, log zerolog.Logger) *Monitor {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultWarnThreshold
	}
	return &Monitor{
		inner:     inner,
		area:      area,
		capacity:  capacity,
		threshold: threshold,
		bus:       bus,
		log:       log,
	}
}

// Area returns the storage area this monitor guards.
func (m *Monitor) Area() model.Area { return m.area }

// Capacity returns the configured byte budget (zero = unlimited).
func (m *Monitor) Capacity() int64 { return m.capacity }

// Usage reports the current occupancy of the area.
func (m *Monitor) Usage(ctx context.Context) (model.QuotaUsage, error) {
	used, err := m.inner.BytesInUse(ctx)
	if err != nil {
		return model.QuotaUsage{}, err
	}
	u := model.QuotaUsage{Area: m.area, BytesInUse: used, Capacity: m.capacity}
	if m.capacity > 0 {
		u.PercentUsed = float64(used) / float64(m.capacity) * 100
	}
	return u, nil
}

// HealthPing forwards to the wrapped adapter when it exposes a specialized
// probe (DB-backed drivers ping their connection) and otherwise falls back
// to a usage read.
func (m *Monitor) HealthPing(ctx context.Context) error {
	if p, ok := m.inner.(interface {
		HealthPing(ctx context.Context) error
	}); ok {
		return p.HealthPing(ctx)
	}
	_, err := m.inner.BytesInUse(ctx)
	return err
}

// EstimateSize returns the serialized byte cost of a key/value pair, matching
// the accounting BytesInUse uses.
func EstimateSize(key string, value json.RawMessage) int64 {
	return int64(len(key) + len(value))
}

func (m *Monitor) Get(ctx context.Context, key string) (json.RawMessage, error) {
	return m.inner.Get(ctx, key)
}

func (m *Monitor) GetMany(ctx context.Context, keys []string) (map[string]json.RawMessage, error) {
	return m.inner.GetMany(ctx, keys)
}

// Set rejects the write before touching the backend when projected usage
// would exceed capacity. Replacing an existing value only counts the delta.
func (m *Monitor) Set(ctx context.Context, key string, value json.RawMessage) error {
	if m.capacity > 0 {
		used, err := m.inner.BytesInUse(ctx)
		if err != nil {
			return err
		}
		incoming := EstimateSize(key, value)
		if prev, err := m.inner.Get(ctx, key); err == nil {
			used -= EstimateSize(key, prev)
		}
		if used+incoming > m.capacity {
			return fmt.Errorf("%w: area %s: %d + %d bytes exceeds capacity %d",
				model.ErrQuotaExceeded, m.area, used, incoming, m.capacity)
		}
	}
	if err := m.inner.Set(ctx, key, value); err != nil {
		return err
	}
	m.checkThreshold(ctx)
	return nil
}

func (m *Monitor) Remove(ctx context.Context, key string) error {
	if err := m.inner.Remove(ctx, key); err != nil {
		return err
	}
	m.checkThreshold(ctx)
	return nil
}

func (m *Monitor) Clear(ctx context.Context) error {
	if err := m.inner.Clear(ctx); err != nil {
		return err
	}
	m.checkThreshold(ctx)
	return nil
}

func (m *Monitor) Keys(ctx context.Context) ([]string, error) {
	return m.inner.Keys(ctx)
}

func (m *Monitor) BytesInUse(ctx context.Context) (int64, error) {
	return m.inner.BytesInUse(ctx)
}

// checkThreshold emits quota:warning exactly once per upward crossing. The
// warning re-arms once usage drops back below the threshold.
func (m *Monitor) checkThreshold(ctx context.Context) {
	if m.capacity <= 0 {
		return
	}
	used, err := m.inner.BytesInUse(ctx)
	if err != nil {
		m.log.Warn().Err(err).Str("area", string(m.area)).Msg("quota usage check failed")
		return
	}
	frac := float64(used) / float64(m.capacity)

	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case frac >= m.threshold && !m.warned:
		m.warned = true
		usage := model.QuotaUsage{
			Area:        m.area,
			BytesInUse:  used,
			Capacity:    m.capacity,
			PercentUsed: frac * 100,
		}
		m.log.Warn().
			Str("area", string(m.area)).
			Int64("bytesInUse", used).
			Int64("capacity", m.capacity).
			Float64("percentageUsed", usage.PercentUsed).
			Msg("storage area above warning threshold")
		if m.bus != nil {
			m.bus.Publish(events.QuotaWarning{Usage: usage})
		}
	case frac < m.threshold && m.warned:
		m.warned = false
	}
}

var _ backend.Adapter = (*Monitor)(nil)
