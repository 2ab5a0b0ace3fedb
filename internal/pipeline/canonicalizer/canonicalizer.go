// Package canonicalizer turns one window of chain-native events into ledger
// entries, one per transaction hash.
package canonicalizer

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Apillon/apillon-services-sub004/internal/chain"
	"github.com/Apillon/apillon-services-sub004/internal/domain/event"
	"github.com/Apillon/apillon-services-sub004/internal/domain/model"
)

// ErrInconsistentAddresses marks an event whose endpoints both differ from
// the wallet on a family that always carries both endpoints.
var ErrInconsistentAddresses = errors.New("inconsistent transaction addresses")

type group struct {
	entry       *model.TransactionLog
	order       int
	marker      bool
	chainAction bool
}

// Canonicalize classifies and merges the events of batch for wallet.
// Events without a hash carry no economic transaction and are skipped.
// The result is ordered by block, then by first appearance in the batch.
func Canonicalize(wallet *model.Wallet, batch *event.RawBatch, rules chain.Rules) ([]*model.TransactionLog, error) {
	walletAddr := wallet.NormalizedAddress()
	groups := make(map[string]*group)
	ordered := make([]*group, 0, batch.Len())

	for _, ev := range batch.All() {
		if ev.Hash == "" {
			continue
		}
		from := model.NormalizeAddress(wallet.ChainType, ev.From)
		to := model.NormalizeAddress(wallet.ChainType, ev.To)
		direction := model.ClassifyDirection(walletAddr, from, to)
		if direction == model.DirectionUnknown && rules.StrictAddresses {
			return nil, fmt.Errorf("canonicalize %s on %s: %w", ev.Hash, wallet.Key(), ErrInconsistentAddresses)
		}

		g, ok := groups[ev.Hash]
		if !ok {
			g = &group{
				order: len(ordered),
				entry: &model.TransactionLog{
					Ts:          ev.CreatedAt.UTC(),
					BlockID:     ev.BlockNumber,
					Status:      ev.Status,
					Direction:   direction,
					Chain:       wallet.Chain,
					ChainType:   wallet.ChainType,
					Wallet:      walletAddr,
					AddressFrom: from,
					AddressTo:   to,
					Hash:        ev.Hash,
					Token:       wallet.Token,
					Amount:      ev.Amount,
					Fee:         ev.Fee,
				},
			}
			groups[ev.Hash] = g
			ordered = append(ordered, g)
		} else {
			merge(g.entry, &ev, direction, from, to)
		}
		g.marker = g.marker || rules.IsServiceMarker(ev.Type)
		g.chainAction = g.chainAction || rules.IsChainAction(ev.Type)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].entry.BlockID != ordered[j].entry.BlockID {
			return ordered[i].entry.BlockID < ordered[j].entry.BlockID
		}
		return ordered[i].order < ordered[j].order
	})

	out := make([]*model.TransactionLog, len(ordered))
	for i, g := range ordered {
		e := g.entry
		e.Action = model.ClassifyAction(e.Direction, g.marker, g.chainAction)
		if e.Direction == model.DirectionIncome {
			// paid by the counterparty
			e.Fee = model.ZeroAmount()
		}
		e.CalculateTotalPrice()
		out[i] = e
	}
	return out, nil
}

// merge folds a further event of the same hash into e. Amounts add up, the
// first non-zero fee wins and an unclassified entry adopts the first
// classified event's direction and endpoints.
func merge(e *model.TransactionLog, ev *event.RawEvent, direction model.TxDirection, from, to string) {
	e.Amount = e.Amount.Add(ev.Amount)
	if e.Fee.IsZero() {
		e.Fee = ev.Fee
	}
	if e.Direction == model.DirectionUnknown && direction != model.DirectionUnknown {
		e.Direction = direction
		e.AddressFrom = from
		e.AddressTo = to
	}
	if ev.Status == model.TxStatusFailed {
		e.Status = model.TxStatusFailed
	}
	if ev.BlockNumber < e.BlockID {
		e.BlockID = ev.BlockNumber
	}
	if !ev.CreatedAt.IsZero() && (e.Ts.IsZero() || ev.CreatedAt.Before(e.Ts)) {
		e.Ts = ev.CreatedAt.UTC()
	}
}
