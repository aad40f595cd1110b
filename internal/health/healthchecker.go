// Package health tracks liveness of the storage areas and aggregates them
// into a single service flag the HTTP surface reports.
package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/keepstack/keepstack/internal/backend"
)

// HealthChecker is implemented by component-level checkers.
type HealthChecker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// AreaChecker probes one storage area. If the adapter implements
// HealthPinger that check is used; otherwise a BytesInUse round trip
// stands in as the probe.
type AreaChecker struct {
	name    string
	adapter backend.Adapter
	healthy atomic.Int32
	log     zerolog.Logger
}

func NewAreaChecker(name string, adapter backend.Adapter, log zerolog.Logger) *AreaChecker {
	return &AreaChecker{name: name, adapter: adapter, log: log}
}

func (c *AreaChecker) Name() string { return c.name }

func (c *AreaChecker) IsHealthy() bool { return c.healthy.Load() == 1 }

// Start probes the area on the given interval until ctx is cancelled.
func (c *AreaChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.probe(ctx)
		}
	}
}

func (c *AreaChecker) probe(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var err error
	if p, ok := c.adapter.(HealthPinger); ok {
		err = p.HealthPing(pctx)
	} else {
		_, err = c.adapter.BytesInUse(pctx)
	}

	if err != nil {
		if c.healthy.Swap(0) == 1 {
			c.log.Error().Err(err).Str("area", c.name).Msg("area health: DOWN")
		}
		return
	}
	if c.healthy.Swap(1) == 0 {
		c.log.Info().Str("area", c.name).Msg("area health: UP")
	}
}

// ServiceHealthChecker aggregates component checkers into a single service
// health flag.
type ServiceHealthChecker struct {
	healthy atomic.Int32
	deps    []HealthChecker
	log     zerolog.Logger
}

func NewServiceHealthChecker(log zerolog.Logger, deps ...HealthChecker) *ServiceHealthChecker {
	h := &ServiceHealthChecker{deps: deps, log: log}
	h.healthy.Store(0)
	return h
}

// IsHealthy returns cached service health.
func (h *ServiceHealthChecker) IsHealthy() bool { return h.healthy.Load() == 1 }

// Start periodically evaluates dependency health and updates the service flag.
func (h *ServiceHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := int32(0)
	eval := func() {
		all := true
		for _, c := range h.deps {
			if !c.IsHealthy() {
				all = false
			}
		}
		if all {
			h.healthy.Store(1)
		} else {
			h.healthy.Store(0)
		}
		cur := h.healthy.Load()
		if cur != prev {
			if cur == 1 {
				h.log.Info().Msg("service health: UP")
			} else {
				h.log.Error().Msg("service health: DOWN")
			}
			prev = cur
		}
	}

	eval()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			eval()
		}
	}
}
