package event

import (
	"time"

	"github.com/Apillon/apillon-services-sub004/internal/domain/model"
)

// EventKind says which indexer collection a raw event came from.
type EventKind string

const (
	KindTransfer EventKind = "transfer"
	KindSystem   EventKind = "system"
	KindExtra    EventKind = "extra"
)

// RawEvent is one chain-native event as returned by an indexer. Fields beyond
// the common set are folded into Type, the indexer's own transaction type.
type RawEvent struct {
	Kind        EventKind
	Type        string
	BlockNumber int64
	Hash        string
	From        string
	To          string
	Amount      model.Amount
	Fee         model.Amount
	Status      model.TxStatus
	CreatedAt   time.Time
}

// RawBatch is one paginated window of raw events for one wallet.
type RawBatch struct {
	Key          model.ChainKey
	Address      string
	FromBlock    int64
	Limit        int
	Transfers    []RawEvent
	SystemEvents []RawEvent
	Extra        []RawEvent
}

// All returns every event in collection order: transfers, system, extra.
func (b *RawBatch) All() []RawEvent {
	if b == nil {
		return nil
	}
	out := make([]RawEvent, 0, b.Len())
	out = append(out, b.Transfers...)
	out = append(out, b.SystemEvents...)
	out = append(out, b.Extra...)
	return out
}

func (b *RawBatch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Transfers) + len(b.SystemEvents) + len(b.Extra)
}

// MaxBlock returns the highest block number in the batch, or 0 when empty.
func (b *RawBatch) MaxBlock() int64 {
	var max int64
	for _, collection := range [][]RawEvent{b.Transfers, b.SystemEvents, b.Extra} {
		for i := range collection {
			if collection[i].BlockNumber > max {
				max = collection[i].BlockNumber
			}
		}
	}
	return max
}

// CappedBlock returns the lowest last block among collections that came back
// with limit events. Events above it may precede events of a capped
// collection that the window did not reach.
func CappedBlock(limit int, collections ...[]RawEvent) (int64, bool) {
	if limit <= 0 {
		return 0, false
	}
	var (
		cut    int64
		capped bool
	)
	for _, c := range collections {
		if len(c) < limit {
			continue
		}
		var last int64
		for i := range c {
			if c[i].BlockNumber > last {
				last = c[i].BlockNumber
			}
		}
		if !capped || last < cut {
			cut, capped = last, true
		}
	}
	return cut, capped
}

// TrimAbove drops every event above block and returns how many were dropped.
func (b *RawBatch) TrimAbove(block int64) int {
	if b == nil {
		return 0
	}
	var dropped int
	keep := func(in []RawEvent) []RawEvent {
		out := in[:0]
		for _, ev := range in {
			if ev.BlockNumber > block {
				dropped++
				continue
			}
			out = append(out, ev)
		}
		return out
	}
	b.Transfers = keep(b.Transfers)
	b.SystemEvents = keep(b.SystemEvents)
	b.Extra = keep(b.Extra)
	return dropped
}

// Saturated reports a full window whose events all sit on FromBlock. Such a
// window cannot advance the watermark by itself.
func (b *RawBatch) Saturated() bool {
	if b == nil || b.Limit <= 0 || b.Len() < b.Limit {
		return false
	}
	return b.MaxBlock() <= b.FromBlock
}
