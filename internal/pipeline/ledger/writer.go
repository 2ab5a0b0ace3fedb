// Package ledger persists canonical entries and derives the per-wallet
// block watermark from what is stored.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Apillon/apillon-services-sub004/internal/domain/model"
	"github.com/Apillon/apillon-services-sub004/internal/metrics"
	"github.com/Apillon/apillon-services-sub004/internal/price"
	"github.com/Apillon/apillon-services-sub004/internal/store"
	"github.com/shopspring/decimal"
)

// DefaultWatermark is the fetch start for a wallet with no stored entries.
const DefaultWatermark int64 = 1

type Writer struct {
	logs    store.TransactionLogRepository
	wallets store.WalletRepository
	logger  *slog.Logger
}

func NewWriter(logs store.TransactionLogRepository, wallets store.WalletRepository, logger *slog.Logger) *Writer {
	return &Writer{
		logs:    logs,
		wallets: wallets,
		logger:  logger.With("component", "ledger_writer"),
	}
}

// Watermark returns the inclusive fromBlock for the next fetch: the highest
// stored block for the wallet, or DefaultWatermark when nothing is stored.
func (w *Writer) Watermark(ctx context.Context, wallet *model.Wallet) (int64, error) {
	block, err := w.logs.MaxBlockID(ctx, wallet.NormalizedAddress(), wallet.Chain, wallet.ChainType)
	if err != nil {
		return 0, fmt.Errorf("watermark: %w", err)
	}
	if block < DefaultWatermark {
		return DefaultWatermark, nil
	}
	return block, nil
}

// WriteTx inserts entries inside tx and mirrors the highest written block
// into wallet.last_parsed_block. Entries whose hash is already stored are
// skipped; the result holds only the newly inserted ones.
func (w *Writer) WriteTx(ctx context.Context, tx *sql.Tx, wallet *model.Wallet, entries []*model.TransactionLog) ([]*model.TransactionLog, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	inserted, err := w.logs.InsertBatchTx(ctx, tx, entries)
	if err != nil {
		return nil, fmt.Errorf("write ledger entries: %w", err)
	}

	var maxBlock int64
	for _, e := range entries {
		maxBlock = max(maxBlock, e.BlockID)
	}
	if err := w.wallets.UpdateLastParsedBlockTx(ctx, tx, wallet.ID, maxBlock); err != nil {
		return nil, fmt.Errorf("write ledger entries: %w", err)
	}

	chain, chainType := string(wallet.Chain), string(wallet.ChainType)
	for _, e := range inserted {
		metrics.LedgerEntriesWritten.WithLabelValues(chain, chainType, string(e.Direction)).Inc()
	}
	if skipped := len(entries) - len(inserted); skipped > 0 {
		metrics.LedgerDuplicatesSkipped.WithLabelValues(chain, chainType).Add(float64(skipped))
		w.logger.Debug("duplicate ledger entries skipped",
			"wallet", wallet.Label(),
			"skipped", skipped,
		)
	}
	return inserted, nil
}

// Valuate sets the fiat value of each entry from unitPrice. Entries keep a
// null value when the price is unknown.
func Valuate(entries []*model.TransactionLog, decimals int, unitPrice decimal.NullDecimal) {
	if !unitPrice.Valid {
		return
	}
	for _, e := range entries {
		e.Value = decimal.NullDecimal{Decimal: price.Value(e.Amount, decimals, unitPrice.Decimal), Valid: true}
	}
}
