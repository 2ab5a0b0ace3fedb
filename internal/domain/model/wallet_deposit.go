package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletDeposit is one FIFO depletion unit opened by an income ledger entry.
// 0 <= CurrentAmount <= DepositAmount at all times.
type WalletDeposit struct {
	ID              int64               `db:"id"`
	WalletID        int64               `db:"wallet_id"`
	TransactionHash string              `db:"transaction_hash"`
	DepositAmount   Amount              `db:"deposit_amount"`
	CurrentAmount   Amount              `db:"current_amount"`
	PricePerToken   decimal.NullDecimal `db:"price_per_token"`
	CreateTime      time.Time           `db:"create_time"`
	UpdateTime      time.Time           `db:"update_time"`
}

// Consume takes up to want from the deposit and returns how much was taken.
func (d *WalletDeposit) Consume(want Amount) Amount {
	taken := MinAmount(want, d.CurrentAmount)
	d.CurrentAmount = d.CurrentAmount.Sub(taken)
	return taken
}

// TransactionQueue is a transaction the system itself originated.
type TransactionQueue struct {
	ID                int64     `db:"id"`
	Chain             Chain     `db:"chain"`
	ChainType         ChainType `db:"chain_type"`
	Address           string    `db:"address"`
	Nonce             int64     `db:"nonce"`
	TransactionHash   string    `db:"transaction_hash"`
	ReferenceTable    *string   `db:"reference_table"`
	ReferenceID       *string   `db:"reference_id"`
	TransactionStatus int       `db:"transaction_status"`
	CreateTime        time.Time `db:"create_time"`
}
