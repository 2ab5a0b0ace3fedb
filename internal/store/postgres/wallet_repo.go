package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Apillon/apillon-services-sub004/internal/domain/model"
	"github.com/Apillon/apillon-services-sub004/internal/store"
)

var _ store.WalletRepository = (*WalletRepo)(nil)

// ErrWalletNotFound is returned when no wallet row matches.
var ErrWalletNotFound = errors.New("wallet not found")

const walletColumns = `id, status, chain, chain_type, address, next_nonce, last_processed_nonce,
	last_parsed_block, block_parse_size, min_balance, current_balance, decimals, token,
	create_time, update_time`

type WalletRepo struct {
	db *DB
}

func NewWalletRepo(db *DB) *WalletRepo {
	return &WalletRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWallet(row rowScanner) (*model.Wallet, error) {
	var w model.Wallet
	if err := row.Scan(
		&w.ID, &w.Status, &w.Chain, &w.ChainType, &w.Address,
		&w.NextNonce, &w.LastProcessedNonce, &w.LastParsedBlock, &w.BlockParseSize,
		&w.MinBalance, &w.CurrentBalance, &w.Decimals, &w.Token,
		&w.CreateTime, &w.UpdateTime,
	); err != nil {
		return nil, err
	}
	return &w, nil
}

// ListActive returns active wallets matching filter, ordered by id.
func (r *WalletRepo) ListActive(ctx context.Context, filter model.WalletFilter) ([]*model.Wallet, error) {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	var (
		where = []string{"status = $1"}
		args  = []any{model.StatusActive}
	)
	if filter.Chain != "" {
		args = append(args, filter.Chain)
		where = append(where, fmt.Sprintf("chain = $%d", len(args)))
	}
	if filter.ChainType != "" {
		args = append(args, filter.ChainType)
		where = append(where, fmt.Sprintf("chain_type = $%d", len(args)))
	}
	query := "SELECT " + walletColumns + " FROM wallet WHERE " + strings.Join(where, " AND ") + " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query active wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*model.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

func (r *WalletRepo) FindByID(ctx context.Context, id int64) (*model.Wallet, error) {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	w, err := scanWallet(r.db.QueryRowContext(ctx, "SELECT "+walletColumns+" FROM wallet WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("wallet %d: %w", id, ErrWalletNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find wallet %d: %w", id, err)
	}
	return w, nil
}

// UpdateLastParsedBlockTx never moves the watermark backwards.
func (r *WalletRepo) UpdateLastParsedBlockTx(ctx context.Context, tx *sql.Tx, walletID int64, block int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE wallet
		SET last_parsed_block = GREATEST(last_parsed_block, $2), update_time = now()
		WHERE id = $1
	`, walletID, block)
	if err != nil {
		return fmt.Errorf("update last parsed block of wallet %d: %w", walletID, err)
	}
	return nil
}

func (r *WalletRepo) UpdateCurrentBalance(ctx context.Context, walletID int64, balance model.Amount) error {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		UPDATE wallet SET current_balance = $2, update_time = now() WHERE id = $1
	`, walletID, balance)
	if err != nil {
		return fmt.Errorf("update current balance of wallet %d: %w", walletID, err)
	}
	return nil
}

func (r *WalletRepo) AllocateNonceTx(ctx context.Context, tx *sql.Tx, walletID int64) (int64, error) {
	var nonce int64
	err := tx.QueryRowContext(ctx, `SELECT next_nonce FROM wallet WHERE id = $1 FOR UPDATE`, walletID).Scan(&nonce)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("wallet %d: %w", walletID, ErrWalletNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("lock nonce of wallet %d: %w", walletID, err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE wallet SET next_nonce = next_nonce + 1, update_time = now() WHERE id = $1
	`, walletID); err != nil {
		return 0, fmt.Errorf("advance nonce of wallet %d: %w", walletID, err)
	}
	return nonce, nil
}
