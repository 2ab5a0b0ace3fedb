package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Apillon/apillon-services-sub004/internal/domain/model"
	"github.com/Apillon/apillon-services-sub004/internal/store"
)

var _ store.WalletDepositRepository = (*WalletDepositRepo)(nil)

const walletDepositColumns = `id, wallet_id, transaction_hash, deposit_amount, current_amount,
	price_per_token, create_time, update_time`

type WalletDepositRepo struct {
	db *DB
}

func NewWalletDepositRepo(db *DB) *WalletDepositRepo {
	return &WalletDepositRepo{db: db}
}

func scanWalletDeposit(row rowScanner) (*model.WalletDeposit, error) {
	var d model.WalletDeposit
	if err := row.Scan(
		&d.ID, &d.WalletID, &d.TransactionHash, &d.DepositAmount, &d.CurrentAmount,
		&d.PricePerToken, &d.CreateTime, &d.UpdateTime,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateTx inserts d with current_amount = deposit_amount and sets d.ID.
func (r *WalletDepositRepo) CreateTx(ctx context.Context, tx *sql.Tx, d *model.WalletDeposit) (bool, error) {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO wallet_deposit (wallet_id, transaction_hash, deposit_amount, current_amount, price_per_token)
		VALUES ($1, $2, $3, $3, $4)
		ON CONFLICT (wallet_id, transaction_hash) DO NOTHING
		RETURNING id, create_time
	`, d.WalletID, d.TransactionHash, d.DepositAmount, d.PricePerToken).Scan(&d.ID, &d.CreateTime)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create deposit %s for wallet %d: %w", d.TransactionHash, d.WalletID, err)
	}
	d.CurrentAmount = d.DepositAmount
	return true, nil
}

func (r *WalletDepositRepo) LockOldestAvailableTx(ctx context.Context, tx *sql.Tx, walletID int64) (*model.WalletDeposit, error) {
	d, err := scanWalletDeposit(tx.QueryRowContext(ctx, `
		SELECT `+walletDepositColumns+`
		FROM wallet_deposit
		WHERE wallet_id = $1 AND current_amount > 0
		ORDER BY create_time, id
		LIMIT 1
		FOR UPDATE
	`, walletID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock oldest deposit of wallet %d: %w", walletID, err)
	}
	return d, nil
}

func (r *WalletDepositRepo) UpdateCurrentAmountTx(ctx context.Context, tx *sql.Tx, id int64, current model.Amount) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE wallet_deposit SET current_amount = $2, update_time = now() WHERE id = $1
	`, id, current)
	if err != nil {
		return fmt.Errorf("update deposit %d: %w", id, err)
	}
	return nil
}

func (r *WalletDepositRepo) ListByWallet(ctx context.Context, walletID int64) ([]*model.WalletDeposit, error) {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+walletDepositColumns+`
		FROM wallet_deposit
		WHERE wallet_id = $1
		ORDER BY create_time, id
	`, walletID)
	if err != nil {
		return nil, fmt.Errorf("query deposits of wallet %d: %w", walletID, err)
	}
	defer rows.Close()

	var deposits []*model.WalletDeposit
	for rows.Next() {
		d, err := scanWalletDeposit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deposit: %w", err)
		}
		deposits = append(deposits, d)
	}
	return deposits, rows.Err()
}
