package chain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Apillon/apillon-services-sub004/internal/domain/event"
	"github.com/Apillon/apillon-services-sub004/internal/domain/model"
)

// ErrNoEndpoint is returned when a wallet's chain has no configured family.
var ErrNoEndpoint = errors.New("no endpoint configured for chain")

// SourceAdapter returns one paginated window of raw events for a wallet.
// fromBlock is inclusive; results are ordered oldest-first.
type SourceAdapter interface {
	Fetch(ctx context.Context, address string, fromBlock int64, limit int) (*event.RawBatch, error)
}

// BalanceReader reads the live free balance of an address in smallest units.
type BalanceReader interface {
	Balance(ctx context.Context, address string) (model.Amount, error)
}

// Family is one chain endpoint: its indexer, its balance RPC and the rules the
// canonicalizer applies to its events.
type Family interface {
	SourceAdapter
	BalanceReader
	Key() model.ChainKey
	Rules() Rules
}

// Rules carries the per-family classification knobs.
type Rules struct {
	// StrictAddresses makes an event matching neither endpoint an error.
	// EVM events always carry both endpoints.
	StrictAddresses bool
	// ServiceMarkers are raw event types that mark a wallet-paid chain service.
	ServiceMarkers map[string]struct{}
	// ChainActions are raw event types whose credit comes from a chain action
	// rather than a plain transfer.
	ChainActions map[string]struct{}
}

func (r Rules) IsServiceMarker(eventType string) bool {
	_, ok := r.ServiceMarkers[eventType]
	return ok
}

func (r Rules) IsChainAction(eventType string) bool {
	_, ok := r.ChainActions[eventType]
	return ok
}

// TypeSet builds a lookup set from event type names.
func TypeSet(types ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(types))
	for _, t := range types {
		out[t] = struct{}{}
	}
	return out
}

// Registry maps chain keys to their families.
type Registry struct {
	mu       sync.RWMutex
	families map[model.ChainKey]Family
}

func NewRegistry() *Registry {
	return &Registry{families: make(map[model.ChainKey]Family)}
}

// Register adds a family, replacing any previous one with the same key.
func (r *Registry) Register(f Family) {
	r.mu.Lock()
	r.families[f.Key()] = f
	r.mu.Unlock()
}

// Get returns the family for key, or ErrNoEndpoint.
func (r *Registry) Get(key model.ChainKey) (Family, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.families[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoEndpoint, key)
	}
	return f, nil
}

// Keys returns the registered keys in stable order.
func (r *Registry) Keys() []model.ChainKey {
	r.mu.RLock()
	keys := make([]model.ChainKey, 0, len(r.families))
	for k := range r.families {
		keys = append(keys, k)
	}
	r.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}
