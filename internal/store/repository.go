package store

import (
	"context"
	"database/sql"

	"github.com/Apillon/apillon-services-sub004/internal/domain/model"
)

//go:generate mockgen -source=repository.go -destination=mocks/mock_repository.go -package=mocks

// TxBeginner abstracts the ability to begin a database transaction.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// WalletRepository provides access to managed wallets.
type WalletRepository interface {
	ListActive(ctx context.Context, filter model.WalletFilter) ([]*model.Wallet, error)
	FindByID(ctx context.Context, id int64) (*model.Wallet, error)
	UpdateLastParsedBlockTx(ctx context.Context, tx *sql.Tx, walletID int64, block int64) error
	UpdateCurrentBalance(ctx context.Context, walletID int64, balance model.Amount) error
	// AllocateNonceTx locks the wallet row and returns the nonce to use,
	// advancing next_nonce by one.
	AllocateNonceTx(ctx context.Context, tx *sql.Tx, walletID int64) (int64, error)
}

// TransactionLogRepository provides access to ledger entries.
type TransactionLogRepository interface {
	// MaxBlockID returns the highest stored block for the wallet, or 0.
	MaxBlockID(ctx context.Context, wallet string, chain model.Chain, chainType model.ChainType) (int64, error)
	// InsertBatchTx inserts entries, skipping hashes already stored, and
	// returns only the newly inserted entries with their IDs set.
	InsertBatchTx(ctx context.Context, tx *sql.Tx, entries []*model.TransactionLog) ([]*model.TransactionLog, error)
	// LinkQueueTx links the given entries to transaction_queue rows with the
	// same hash and chain. It returns entry ID to queue ID for linked rows.
	LinkQueueTx(ctx context.Context, tx *sql.Tx, entryIDs []int64) (map[int64]int64, error)
	CountByWallet(ctx context.Context, wallet string, chain model.Chain, chainType model.ChainType) (int64, error)
}

// WalletDepositRepository provides access to FIFO deposit records.
type WalletDepositRepository interface {
	// CreateTx opens a deposit record. It reports false when a record for the
	// same wallet and hash already exists.
	CreateTx(ctx context.Context, tx *sql.Tx, d *model.WalletDeposit) (bool, error)
	// LockOldestAvailableTx returns the oldest record with a remaining
	// balance, locked FOR UPDATE until tx ends, or nil when none remain.
	LockOldestAvailableTx(ctx context.Context, tx *sql.Tx, walletID int64) (*model.WalletDeposit, error)
	UpdateCurrentAmountTx(ctx context.Context, tx *sql.Tx, id int64, current model.Amount) error
	ListByWallet(ctx context.Context, walletID int64) ([]*model.WalletDeposit, error)
}
