package worker

import (
	"sort"
	"sync"
	"time"

	"github.com/Apillon/apillon-services-sub004/internal/domain/model"
)

// HealthStatus represents the health of one chain endpoint as seen by wallet
// runs against it.
type HealthStatus string

const (
	HealthStatusUnknown   HealthStatus = "UNKNOWN"
	HealthStatusHealthy   HealthStatus = "HEALTHY"
	HealthStatusDegraded  HealthStatus = "DEGRADED"
	HealthStatusUnhealthy HealthStatus = "UNHEALTHY"

	// DefaultUnhealthyThreshold is the number of consecutive failed wallet
	// runs before a chain is considered unhealthy.
	DefaultUnhealthyThreshold = 5

	// DefaultDegradedLatencyThreshold is the P95 wallet run latency
	// before a chain is considered degraded.
	DefaultDegradedLatencyThreshold = 30 * time.Second

	latencyWindowSize = 20
)

// ChainHealth tracks wallet run outcomes for one chain key.
type ChainHealth struct {
	mu                       sync.RWMutex
	key                      model.ChainKey
	status                   HealthStatus
	consecutiveFailures      int
	lastSuccessAt            *time.Time
	lastFailureAt            *time.Time
	unhealthyThreshold       int
	recentLatencies          []time.Duration
	degradedLatencyThreshold time.Duration
}

func newChainHealth(key model.ChainKey) *ChainHealth {
	return &ChainHealth{
		key:                      key,
		status:                   HealthStatusUnknown,
		unhealthyThreshold:       DefaultUnhealthyThreshold,
		recentLatencies:          make([]time.Duration, 0, latencyWindowSize),
		degradedLatencyThreshold: DefaultDegradedLatencyThreshold,
	}
}

// RecordSuccess records a completed wallet run and its latency. It returns
// true if the chain recovered from an unhealthy state.
func (h *ChainHealth) RecordSuccess(latency time.Duration) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := time.Now()
	wasUnhealthy := h.status == HealthStatusUnhealthy
	h.consecutiveFailures = 0
	h.lastSuccessAt = &now
	h.recordLatency(latency)
	if h.isLatencyDegraded() {
		h.status = HealthStatusDegraded
	} else {
		h.status = HealthStatusHealthy
	}
	return wasUnhealthy
}

// RecordFailure records a failed wallet run. Returns true if the chain
// transitioned to unhealthy on this call.
func (h *ChainHealth) RecordFailure() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := time.Now()
	h.consecutiveFailures++
	h.lastFailureAt = &now
	if h.consecutiveFailures >= h.unhealthyThreshold && h.status != HealthStatusUnhealthy {
		h.status = HealthStatusUnhealthy
		return true
	}
	return false
}

// Must be called with mu held.
func (h *ChainHealth) recordLatency(d time.Duration) {
	if len(h.recentLatencies) >= latencyWindowSize {
		h.recentLatencies = h.recentLatencies[1:]
	}
	h.recentLatencies = append(h.recentLatencies, d)
}

// Must be called with mu held.
func (h *ChainHealth) isLatencyDegraded() bool {
	n := len(h.recentLatencies)
	if n < 2 {
		return false
	}
	sorted := make([]time.Duration, n)
	copy(sorted, h.recentLatencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := (95*n - 1) / 100
	return sorted[idx] > h.degradedLatencyThreshold
}

func (h *ChainHealth) Snapshot() HealthSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HealthSnapshot{
		Chain:               string(h.key.Chain),
		ChainType:           string(h.key.ChainType),
		Status:              string(h.status),
		ConsecutiveFailures: h.consecutiveFailures,
		LastSuccessAt:       h.lastSuccessAt,
		LastFailureAt:       h.lastFailureAt,
	}
}

// HealthSnapshot is a point-in-time view of chain health (JSON-safe).
type HealthSnapshot struct {
	Chain               string     `json:"chain"`
	ChainType           string     `json:"chain_type"`
	Status              string     `json:"status"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastSuccessAt       *time.Time `json:"last_success_at,omitempty"`
	LastFailureAt       *time.Time `json:"last_failure_at,omitempty"`
}

// Health holds a ChainHealth per chain key.
type Health struct {
	mu     sync.Mutex
	chains map[model.ChainKey]*ChainHealth
}

func NewHealth() *Health {
	return &Health{chains: make(map[model.ChainKey]*ChainHealth)}
}

func (h *Health) For(key model.ChainKey) *ChainHealth {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.chains[key]
	if !ok {
		c = newChainHealth(key)
		h.chains[key] = c
	}
	return c
}

// Snapshot returns all chains ordered by key.
func (h *Health) Snapshot() []HealthSnapshot {
	h.mu.Lock()
	chains := make([]*ChainHealth, 0, len(h.chains))
	for _, c := range h.chains {
		chains = append(chains, c)
	}
	h.mu.Unlock()

	out := make([]HealthSnapshot, len(chains))
	for i, c := range chains {
		out[i] = c.Snapshot()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ChainType != out[j].ChainType {
			return out[i].ChainType < out[j].ChainType
		}
		return out[i].Chain < out[j].Chain
	})
	return out
}

// Healthy reports false if any chain is unhealthy.
func (h *Health) Healthy() bool {
	for _, s := range h.Snapshot() {
		if s.Status == string(HealthStatusUnhealthy) {
			return false
		}
	}
	return true
}
