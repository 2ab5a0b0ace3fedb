// Package depletion maintains FIFO deposit records: income opens a record,
// spending drains the oldest records first.
package depletion

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Apillon/apillon-services-sub004/internal/domain/model"
	"github.com/Apillon/apillon-services-sub004/internal/metrics"
	"github.com/Apillon/apillon-services-sub004/internal/store"
	"github.com/shopspring/decimal"
)

type Engine struct {
	deposits store.WalletDepositRepository
	logger   *slog.Logger
}

func New(deposits store.WalletDepositRepository, logger *slog.Logger) *Engine {
	return &Engine{deposits: deposits, logger: logger.With("component", "depletion")}
}

// Result of one depletion pass.
type Result struct {
	Opened    int
	Drained   model.Amount
	Shortfall model.Amount
}

// ApplyTx processes newly inserted entries in order. Completed income opens
// a deposit priced at unitPrice; completed spends drain open deposits.
// Entries must be new rows only: a hash applied twice would deplete twice.
func (e *Engine) ApplyTx(ctx context.Context, tx *sql.Tx, wallet *model.Wallet, entries []*model.TransactionLog, unitPrice decimal.NullDecimal) (Result, error) {
	var res Result
	chain, chainType := string(wallet.Chain), string(wallet.ChainType)

	for _, entry := range entries {
		switch {
		case entry.IsDeposit():
			if entry.Amount.IsZero() {
				continue
			}
			created, err := e.deposits.CreateTx(ctx, tx, &model.WalletDeposit{
				WalletID:        wallet.ID,
				TransactionHash: entry.Hash,
				DepositAmount:   entry.Amount,
				CurrentAmount:   entry.Amount,
				PricePerToken:   unitPrice,
			})
			if err != nil {
				return res, fmt.Errorf("open deposit: %w", err)
			}
			if created {
				res.Opened++
				metrics.DepositsOpened.WithLabelValues(chain, chainType).Inc()
			}

		case entry.IsSpend():
			drained, shortfall, emptied, err := e.drainTx(ctx, tx, wallet.ID, entry.Amount)
			if err != nil {
				return res, fmt.Errorf("deplete deposits for %s: %w", entry.Hash, err)
			}
			res.Drained = res.Drained.Add(drained)
			metrics.DepositsDrained.WithLabelValues(chain, chainType).Add(float64(emptied))
			if !shortfall.IsZero() {
				res.Shortfall = res.Shortfall.Add(shortfall)
				metrics.DepletionShortfalls.WithLabelValues(chain, chainType).Inc()
				e.logger.Debug("spend exceeds open deposits",
					"wallet", wallet.Label(),
					"hash", entry.Hash,
					"shortfall", shortfall.String(),
				)
			}
		}
	}
	return res, nil
}

// drainTx takes want from the oldest open deposits. It stops when want is
// covered or no deposit has a balance left; the uncovered rest is returned
// as shortfall. emptied counts deposits brought to zero.
func (e *Engine) drainTx(ctx context.Context, tx *sql.Tx, walletID int64, want model.Amount) (drained, shortfall model.Amount, emptied int, err error) {
	remaining := want
	for !remaining.IsZero() {
		d, err := e.deposits.LockOldestAvailableTx(ctx, tx, walletID)
		if err != nil {
			return drained, remaining, emptied, err
		}
		if d == nil {
			return drained, remaining, emptied, nil
		}

		taken := d.Consume(remaining)
		if err := e.deposits.UpdateCurrentAmountTx(ctx, tx, d.ID, d.CurrentAmount); err != nil {
			return drained, remaining, emptied, err
		}
		if d.CurrentAmount.IsZero() {
			emptied++
		}
		drained = drained.Add(taken)
		remaining = remaining.Sub(taken)
	}
	return drained, model.ZeroAmount(), emptied, nil
}
