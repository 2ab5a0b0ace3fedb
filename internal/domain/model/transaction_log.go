package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionLog is one canonical economic transaction for one wallet.
// Unique per (Wallet, Chain, ChainType, Hash).
type TransactionLog struct {
	ID                 int64
	Ts                 time.Time
	BlockID            int64
	Status             TxStatus
	Direction          TxDirection
	Action             TxAction
	Chain              Chain
	ChainType          ChainType
	Wallet             string
	AddressFrom        string
	AddressTo          string
	Hash               string
	Token              string
	Amount             Amount
	Fee                Amount
	TotalPrice         Amount
	Value              decimal.NullDecimal
	TransactionQueueID *int64
}

// CalculateTotalPrice sets TotalPrice: the amount alone for income, amount
// plus fee for everything the wallet may have paid for.
func (t *TransactionLog) CalculateTotalPrice() {
	if t.Direction == DirectionIncome {
		t.TotalPrice = t.Amount
		return
	}
	t.TotalPrice = t.Amount.Add(t.Fee)
}

// IsSpend reports whether the entry decreased the wallet balance.
func (t *TransactionLog) IsSpend() bool {
	return t.Direction == DirectionCost && t.Status == TxStatusCompleted
}

// IsDeposit reports whether the entry increased the wallet balance.
func (t *TransactionLog) IsDeposit() bool {
	return t.Direction == DirectionIncome && t.Status == TxStatusCompleted
}

// TransactionLogFields is the column/view table for TransactionLog.
var TransactionLogFields = []Field[TransactionLog]{
	{Name: "ts", Column: "ts", Views: ViewInsert, Get: func(t *TransactionLog) any { return t.Ts }},
	{Name: "blockId", Column: "block_id", Views: ViewInsert | ViewAlert, Get: func(t *TransactionLog) any { return t.BlockID }},
	{Name: "status", Column: "status", Views: ViewInsert | ViewLog, Get: func(t *TransactionLog) any { return string(t.Status) }},
	{Name: "direction", Column: "direction", Views: ViewInsert | ViewAlert | ViewLog, Get: func(t *TransactionLog) any { return string(t.Direction) }},
	{Name: "action", Column: "action", Views: ViewInsert | ViewAlert | ViewLog, Get: func(t *TransactionLog) any { return string(t.Action) }},
	{Name: "chain", Column: "chain", Views: ViewInsert, Get: func(t *TransactionLog) any { return string(t.Chain) }},
	{Name: "chainType", Column: "chain_type", Views: ViewInsert, Get: func(t *TransactionLog) any { return string(t.ChainType) }},
	{Name: "wallet", Column: "wallet", Views: ViewInsert, Get: func(t *TransactionLog) any { return t.Wallet }},
	{Name: "addressFrom", Column: "address_from", Views: ViewInsert | ViewAlert, Get: func(t *TransactionLog) any { return t.AddressFrom }},
	{Name: "addressTo", Column: "address_to", Views: ViewInsert | ViewAlert, Get: func(t *TransactionLog) any { return t.AddressTo }},
	{Name: "hash", Column: "hash", Views: ViewInsert | ViewAlert | ViewLog, Get: func(t *TransactionLog) any { return t.Hash }},
	{Name: "token", Column: "token", Views: ViewInsert | ViewAlert, Get: func(t *TransactionLog) any { return t.Token }},
	{Name: "amount", Column: "amount", Views: ViewInsert | ViewAlert | ViewLog, Get: func(t *TransactionLog) any { return t.Amount }},
	{Name: "fee", Column: "fee", Views: ViewInsert | ViewAlert, Get: func(t *TransactionLog) any { return t.Fee }},
	{Name: "totalPrice", Column: "total_price", Views: ViewInsert | ViewAlert, Get: func(t *TransactionLog) any { return t.TotalPrice }},
	{Name: "value", Column: "value", Views: ViewInsert, Get: func(t *TransactionLog) any { return t.Value }},
	{Name: "transactionQueueId", Column: "transaction_queue_id", Views: ViewInsert, Get: func(t *TransactionLog) any { return t.TransactionQueueID }},
}
