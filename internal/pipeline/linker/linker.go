// Package linker attaches new ledger entries to the transactions this system
// originated.
package linker

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Apillon/apillon-services-sub004/internal/alert"
	"github.com/Apillon/apillon-services-sub004/internal/domain/model"
	"github.com/Apillon/apillon-services-sub004/internal/metrics"
	"github.com/Apillon/apillon-services-sub004/internal/store"
)

type Linker struct {
	logs   store.TransactionLogRepository
	logger *slog.Logger
}

func New(logs store.TransactionLogRepository, logger *slog.Logger) *Linker {
	return &Linker{logs: logs, logger: logger.With("component", "linker")}
}

// Result of one link pass.
type Result struct {
	Linked int
	// Unlinked holds debits with no matching queue row.
	Unlinked []*model.TransactionLog
}

// LinkTx links entries by hash and sets TransactionQueueID on the linked
// ones. Only COST entries are reported as unlinked.
func (l *Linker) LinkTx(ctx context.Context, tx *sql.Tx, wallet *model.Wallet, entries []*model.TransactionLog) (Result, error) {
	var res Result
	if len(entries) == 0 {
		return res, nil
	}

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	linked, err := l.logs.LinkQueueTx(ctx, tx, ids)
	if err != nil {
		return res, fmt.Errorf("link entries: %w", err)
	}

	for _, e := range entries {
		if queueID, ok := linked[e.ID]; ok {
			id := queueID
			e.TransactionQueueID = &id
			res.Linked++
			continue
		}
		if e.Direction == model.DirectionCost {
			res.Unlinked = append(res.Unlinked, e)
			l.logger.Warn("unlinked debit", append([]any{"wallet", wallet.Label()}, model.Attrs(model.TransactionLogFields, e, model.ViewLog)...)...)
		}
	}

	chain, chainType := string(wallet.Chain), string(wallet.ChainType)
	metrics.LinkerEntriesLinked.WithLabelValues(chain, chainType).Add(float64(res.Linked))
	metrics.LinkerUnlinkedDebits.WithLabelValues(chain, chainType).Add(float64(len(res.Unlinked)))
	return res, nil
}

// UnlinkedAlert builds the warning for debits that no queue row explains.
func UnlinkedAlert(wallet *model.Wallet, unlinked []*model.TransactionLog) alert.Alert {
	hashes := make([]string, len(unlinked))
	for i, e := range unlinked {
		hashes[i] = e.Hash
	}
	fields := model.Serialize(model.TransactionLogFields, unlinked[0], model.ViewAlert)
	fields["count"] = fmt.Sprint(len(unlinked))

	return alert.Alert{
		Severity:  alert.SeverityWarn,
		Chain:     wallet.Chain,
		ChainType: wallet.ChainType,
		Wallet:    wallet.Address,
		Title:     "unlinked transaction detected",
		Message:   fmt.Sprintf("%s has outgoing transactions not originated by this system: %s", wallet.Label(), strings.Join(hashes, ", ")),
		Fields:    fields,
	}
}
