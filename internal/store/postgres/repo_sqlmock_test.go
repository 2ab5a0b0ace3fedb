package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Apillon/apillon-services-sub004/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		sqlDB.Close()
	})
	return &DB{sqlDB}, mock
}

func beginMockTx(t *testing.T, db *DB, mock sqlmock.Sqlmock) *sql.Tx {
	t.Helper()
	mock.ExpectBegin()
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	return tx
}

var walletRowColumns = []string{
	"id", "status", "chain", "chain_type", "address", "next_nonce", "last_processed_nonce",
	"last_parsed_block", "block_parse_size", "min_balance", "current_balance", "decimals", "token",
	"create_time", "update_time",
}

func TestWalletRepo_ListActiveFilters(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM wallet WHERE status = $1 AND chain = $2 AND chain_type = $3 ORDER BY id")).
		WithArgs(model.StatusActive, model.ChainCrust, model.ChainTypeSubstrate).
		WillReturnRows(sqlmock.NewRows(walletRowColumns).
			AddRow(7, 5, "crust", "SUBSTRATE", "cTLv4", 0, -1, 120, 50, "1000", nil, 12, "CRU", now, now))

	wallets, err := NewWalletRepo(db).ListActive(context.Background(), model.WalletFilter{
		Chain:     model.ChainCrust,
		ChainType: model.ChainTypeSubstrate,
	})
	require.NoError(t, err)
	require.Len(t, wallets, 1)

	w := wallets[0]
	assert.Equal(t, int64(7), w.ID)
	assert.Equal(t, model.StatusActive, w.Status)
	assert.Equal(t, int64(120), w.LastParsedBlock)
	assert.True(t, w.MinBalance.Valid)
	assert.Equal(t, "1000", w.MinBalance.Amount.String())
	assert.False(t, w.CurrentBalance.Valid)
}

func TestWalletRepo_ListActiveNoFilter(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM wallet WHERE status = $1 ORDER BY id")).
		WithArgs(model.StatusActive).
		WillReturnRows(sqlmock.NewRows(walletRowColumns))

	wallets, err := NewWalletRepo(db).ListActive(context.Background(), model.WalletFilter{})
	require.NoError(t, err)
	assert.Empty(t, wallets)
}

func TestWalletRepo_FindByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM wallet WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(walletRowColumns))

	_, err := NewWalletRepo(db).FindByID(context.Background(), 3)
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestWalletRepo_UpdateLastParsedBlockIsMonotonic(t *testing.T) {
	db, mock := newMockDB(t)
	tx := beginMockTx(t, db, mock)

	mock.ExpectExec(regexp.QuoteMeta("SET last_parsed_block = GREATEST(last_parsed_block, $2)")).
		WithArgs(int64(9), int64(400)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	require.NoError(t, NewWalletRepo(db).UpdateLastParsedBlockTx(context.Background(), tx, 9, 400))
	require.NoError(t, tx.Rollback())
}

func TestWalletRepo_AllocateNonce(t *testing.T) {
	db, mock := newMockDB(t)
	tx := beginMockTx(t, db, mock)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT next_nonce FROM wallet WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"next_nonce"}).AddRow(17))
	mock.ExpectExec(regexp.QuoteMeta("SET next_nonce = next_nonce + 1")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	nonce, err := NewWalletRepo(db).AllocateNonceTx(context.Background(), tx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(17), nonce)
	require.NoError(t, tx.Commit())
}

func TestTransactionLogRepo_MaxBlockIDEmpty(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(block_id), 0)")).
		WithArgs("0xabc", model.ChainMoonbeam, model.ChainTypeEVM).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

	block, err := NewTransactionLogRepo(db).MaxBlockID(context.Background(), "0xabc", model.ChainMoonbeam, model.ChainTypeEVM)
	require.NoError(t, err)
	assert.Zero(t, block)
}

func sampleEntry(hash string, block int64) *model.TransactionLog {
	e := &model.TransactionLog{
		Ts:        time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		BlockID:   block,
		Status:    model.TxStatusCompleted,
		Direction: model.DirectionCost,
		Action:    model.ActionWithdrawal,
		Chain:     model.ChainCrust,
		ChainType: model.ChainTypeSubstrate,
		Wallet:    "cTLv4",
		AddressTo: "cTMx",
		Hash:      hash,
		Token:     "CRU",
		Amount:    model.AmountFromInt64(100),
		Fee:       model.AmountFromInt64(2),
	}
	e.CalculateTotalPrice()
	return e
}

func TestTransactionLogRepo_InsertBatchReturnsOnlyNewRows(t *testing.T) {
	db, mock := newMockDB(t)
	tx := beginMockTx(t, db, mock)

	entries := []*model.TransactionLog{sampleEntry("0x1", 10), sampleEntry("0x2", 11)}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO transaction_log (ts, block_id, status")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "hash"}).AddRow(501, "0x2"))
	mock.ExpectRollback()

	inserted, err := NewTransactionLogRepo(db).InsertBatchTx(context.Background(), tx, entries)
	require.NoError(t, err)
	require.Len(t, inserted, 1)
	assert.Equal(t, "0x2", inserted[0].Hash)
	assert.Equal(t, int64(501), inserted[0].ID)
	assert.Zero(t, entries[0].ID)
	require.NoError(t, tx.Rollback())
}

func TestTransactionLogRepo_InsertBatchEmpty(t *testing.T) {
	db, _ := newMockDB(t)

	inserted, err := NewTransactionLogRepo(db).InsertBatchTx(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, inserted)
}

func TestBuildTransactionLogInsert(t *testing.T) {
	query, args := buildTransactionLogInsert([]*model.TransactionLog{sampleEntry("0x1", 1), sampleEntry("0x2", 2)})

	cols := len(transactionLogInsertFields)
	assert.Len(t, args, 2*cols)
	assert.Contains(t, query, "($1, $2,")
	assert.Contains(t, query, "$34)")
	assert.Contains(t, query, "ON CONFLICT (wallet, chain, chain_type, hash) DO NOTHING RETURNING id, hash")
	assert.Equal(t, "0x2", args[cols+10])
}

func TestTransactionLogRepo_LinkQueue(t *testing.T) {
	db, mock := newMockDB(t)
	tx := beginMockTx(t, db, mock)

	mock.ExpectQuery(regexp.QuoteMeta("SET transaction_queue_id = tq.id")+`(?s).*lower\(tq\.transaction_hash\) = tl\.hash`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "id"}).AddRow(11, 900))
	mock.ExpectRollback()

	linked, err := NewTransactionLogRepo(db).LinkQueueTx(context.Background(), tx, []int64{11, 12})
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{11: 900}, linked)
	require.NoError(t, tx.Rollback())
}

var depositRowColumns = []string{
	"id", "wallet_id", "transaction_hash", "deposit_amount", "current_amount",
	"price_per_token", "create_time", "update_time",
}

func TestWalletDepositRepo_CreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	tx := beginMockTx(t, db, mock)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (wallet_id, transaction_hash) DO NOTHING")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "create_time"}))
	mock.ExpectRollback()

	created, err := NewWalletDepositRepo(db).CreateTx(context.Background(), tx, &model.WalletDeposit{
		WalletID:        1,
		TransactionHash: "0x1",
		DepositAmount:   model.AmountFromInt64(5),
	})
	require.NoError(t, err)
	assert.False(t, created)
	require.NoError(t, tx.Rollback())
}

func TestWalletDepositRepo_LockOldest(t *testing.T) {
	db, mock := newMockDB(t)
	tx := beginMockTx(t, db, mock)
	now := time.Now()

	mock.ExpectQuery(`ORDER BY create_time, id\s+LIMIT 1\s+FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(depositRowColumns).AddRow(3, 1, "0x1", "100", "40", "0.25", now, now))
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(depositRowColumns))
	mock.ExpectRollback()

	repo := NewWalletDepositRepo(db)
	d, err := repo.LockOldestAvailableTx(context.Background(), tx, 1)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "40", d.CurrentAmount.String())
	assert.True(t, d.PricePerToken.Valid)

	d, err = repo.LockOldestAvailableTx(context.Background(), tx, 1)
	require.NoError(t, err)
	assert.Nil(t, d)
	require.NoError(t, tx.Rollback())
}
