package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Apillon/apillon-services-sub004/internal/domain/model"
	"github.com/Apillon/apillon-services-sub004/internal/store"
	"github.com/lib/pq"
)

var _ store.TransactionLogRepository = (*TransactionLogRepo)(nil)

var transactionLogInsertFields = model.FieldsFor(model.TransactionLogFields, model.ViewInsert)

type TransactionLogRepo struct {
	db *DB
}

func NewTransactionLogRepo(db *DB) *TransactionLogRepo {
	return &TransactionLogRepo{db: db}
}

func (r *TransactionLogRepo) MaxBlockID(ctx context.Context, wallet string, chain model.Chain, chainType model.ChainType) (int64, error) {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	var block int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(block_id), 0)
		FROM transaction_log
		WHERE wallet = $1 AND chain = $2 AND chain_type = $3
	`, wallet, chain, chainType).Scan(&block)
	if err != nil {
		return 0, fmt.Errorf("max block of %s:%s: %w", chain, wallet, err)
	}
	return block, nil
}

// InsertBatchTx writes entries in chunks. Rows whose (wallet, chain,
// chain_type, hash) already exists are skipped; the returned slice holds
// only rows inserted by this call, with ID set.
func (r *TransactionLogRepo) InsertBatchTx(ctx context.Context, tx *sql.Tx, entries []*model.TransactionLog) ([]*model.TransactionLog, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	inserted := make([]*model.TransactionLog, 0, len(entries))
	for start := 0; start < len(entries); start += insertChunkSize {
		end := min(start+insertChunkSize, len(entries))
		chunk, err := r.insertChunk(ctx, tx, entries[start:end])
		if err != nil {
			return nil, err
		}
		inserted = append(inserted, chunk...)
	}
	return inserted, nil
}

func (r *TransactionLogRepo) insertChunk(ctx context.Context, tx *sql.Tx, entries []*model.TransactionLog) ([]*model.TransactionLog, error) {
	query, args := buildTransactionLogInsert(entries)

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("insert transaction logs: %w", err)
	}
	defer rows.Close()

	byHash := make(map[string]*model.TransactionLog, len(entries))
	for _, e := range entries {
		byHash[e.Hash] = e
	}

	var inserted []*model.TransactionLog
	for rows.Next() {
		var (
			id   int64
			hash string
		)
		if err := rows.Scan(&id, &hash); err != nil {
			return nil, fmt.Errorf("scan inserted transaction log: %w", err)
		}
		if e, ok := byHash[hash]; ok {
			e.ID = id
			inserted = append(inserted, e)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("insert transaction logs: %w", err)
	}
	return inserted, nil
}

func buildTransactionLogInsert(entries []*model.TransactionLog) (string, []any) {
	cols := model.Columns(transactionLogInsertFields)
	args := make([]any, 0, len(entries)*len(cols))

	var b strings.Builder
	b.WriteString("INSERT INTO transaction_log (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES ")
	for i, e := range entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j, f := range transactionLogInsertFields {
			if j > 0 {
				b.WriteString(", ")
			}
			args = append(args, f.Get(e))
			fmt.Fprintf(&b, "$%d", len(args))
		}
		b.WriteByte(')')
	}
	b.WriteString(" ON CONFLICT (wallet, chain, chain_type, hash) DO NOTHING RETURNING id, hash")
	return b.String(), args
}

func (r *TransactionLogRepo) LinkQueueTx(ctx context.Context, tx *sql.Tx, entryIDs []int64) (map[int64]int64, error) {
	linked := make(map[int64]int64)
	if len(entryIDs) == 0 {
		return linked, nil
	}

	rows, err := tx.QueryContext(ctx, `
		UPDATE transaction_log tl
		SET transaction_queue_id = tq.id
		FROM transaction_queue tq
		WHERE tl.id = ANY($1)
		  AND tl.transaction_queue_id IS NULL
		  AND (tq.transaction_hash = tl.hash
		       OR (tl.chain_type = 'EVM' AND lower(tq.transaction_hash) = tl.hash))
		  AND tq.chain = tl.chain
		  AND tq.chain_type = tl.chain_type
		RETURNING tl.id, tq.id
	`, pq.Array(entryIDs))
	if err != nil {
		return nil, fmt.Errorf("link transaction queue: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entryID, queueID int64
		if err := rows.Scan(&entryID, &queueID); err != nil {
			return nil, fmt.Errorf("scan linked entry: %w", err)
		}
		linked[entryID] = queueID
	}
	return linked, rows.Err()
}

func (r *TransactionLogRepo) CountByWallet(ctx context.Context, wallet string, chain model.Chain, chainType model.ChainType) (int64, error) {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	var n int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transaction_log WHERE wallet = $1 AND chain = $2 AND chain_type = $3
	`, wallet, chain, chainType).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transaction logs of %s:%s: %w", chain, wallet, err)
	}
	return n, nil
}
