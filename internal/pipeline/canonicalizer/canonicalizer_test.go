package canonicalizer

import (
	"testing"
	"time"

	"github.com/Apillon/apillon-services-sub004/internal/chain"
	"github.com/Apillon/apillon-services-sub004/internal/domain/event"
	"github.com/Apillon/apillon-services-sub004/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	subWallet = "cTLv4yJ5CQxAs4VnkK4RBR3iSTNbzGbbX1HxRXDBuLJbSXp7f"
	evmWallet = "0xAbCdEf0000000000000000000000000000000001"
	other     = "cTMxUeDi2HdYVpedqu5AFMtyDcn4djbBfCKiPDds6k1fuFYXL"
)

var (
	subRules = chain.Rules{
		ServiceMarkers: chain.TypeSet("FILE_SUCCESS"),
		ChainActions:   chain.TypeSet("BALANCE_TRANSFER"),
	}
	evmRules = chain.Rules{StrictAddresses: true}
	t0       = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

func substrateWallet() *model.Wallet {
	return &model.Wallet{Chain: model.ChainCrust, ChainType: model.ChainTypeSubstrate, Address: subWallet, Token: "CRU"}
}

func ev(hash string, block int64, from, to string, amount, fee int64) event.RawEvent {
	return event.RawEvent{
		Kind:        event.KindTransfer,
		Type:        "TRANSFER",
		BlockNumber: block,
		Hash:        hash,
		From:        from,
		To:          to,
		Amount:      model.AmountFromInt64(amount),
		Fee:         model.AmountFromInt64(fee),
		Status:      model.TxStatusCompleted,
		CreatedAt:   t0.Add(time.Duration(block) * time.Second),
	}
}

func TestCanonicalize_CostWithdrawal(t *testing.T) {
	batch := &event.RawBatch{Transfers: []event.RawEvent{ev("0x1", 10, subWallet, other, 100, 3)}}

	entries, err := Canonicalize(substrateWallet(), batch, subRules)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, model.DirectionCost, e.Direction)
	assert.Equal(t, model.ActionWithdrawal, e.Action)
	assert.Equal(t, "3", e.Fee.String())
	assert.Equal(t, "103", e.TotalPrice.String())
	assert.Equal(t, subWallet, e.Wallet)
	assert.Equal(t, "CRU", e.Token)
	assert.Equal(t, model.ChainCrust, e.Chain)
	assert.Equal(t, int64(10), e.BlockID)
}

func TestCanonicalize_HashMergeSumsAmounts(t *testing.T) {
	big1 := ev("0x1", 10, subWallet, other, 0, 0)
	big1.Amount = model.MustParseAmount("18446744073709551615")
	batch := &event.RawBatch{
		Transfers:    []event.RawEvent{big1},
		SystemEvents: []event.RawEvent{ev("0x1", 10, subWallet, other, 250, 7)},
	}

	entries, err := Canonicalize(substrateWallet(), batch, subRules)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "18446744073709551865", entries[0].Amount.String())
	assert.Equal(t, "7", entries[0].Fee.String())
	assert.Equal(t, "18446744073709551872", entries[0].TotalPrice.String())
}

func TestCanonicalize_ServiceMarkerMakesTransaction(t *testing.T) {
	marker := ev("0x1", 10, subWallet, "", 0, 5)
	marker.Kind = event.KindExtra
	marker.Type = "FILE_SUCCESS"
	batch := &event.RawBatch{
		Transfers: []event.RawEvent{ev("0x1", 10, subWallet, other, 40, 0)},
		Extra:     []event.RawEvent{marker},
	}

	entries, err := Canonicalize(substrateWallet(), batch, subRules)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.DirectionCost, entries[0].Direction)
	assert.Equal(t, model.ActionTransaction, entries[0].Action)
	assert.Equal(t, "5", entries[0].Fee.String())
	assert.Equal(t, "45", entries[0].TotalPrice.String())
}

func TestCanonicalize_IncomeDepositZeroesFee(t *testing.T) {
	batch := &event.RawBatch{Transfers: []event.RawEvent{ev("0x2", 11, other, subWallet, 500, 9)}}

	entries, err := Canonicalize(substrateWallet(), batch, subRules)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, model.DirectionIncome, e.Direction)
	assert.Equal(t, model.ActionDeposit, e.Action)
	assert.Equal(t, "0", e.Fee.String())
	assert.Equal(t, "500", e.TotalPrice.String())
}

func TestCanonicalize_IncomeChainAction(t *testing.T) {
	sys := ev("0x3", 12, other, subWallet, 20, 4)
	sys.Kind = event.KindSystem
	sys.Type = "BALANCE_TRANSFER"
	batch := &event.RawBatch{SystemEvents: []event.RawEvent{sys}}

	entries, err := Canonicalize(substrateWallet(), batch, subRules)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.ActionTransaction, entries[0].Action)
	assert.Equal(t, "0", entries[0].Fee.String())
}

func TestCanonicalize_SubstrateUnknownIsNotAnError(t *testing.T) {
	batch := &event.RawBatch{Transfers: []event.RawEvent{ev("0x4", 13, other, "", 1, 1)}}

	entries, err := Canonicalize(substrateWallet(), batch, subRules)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.DirectionUnknown, entries[0].Direction)
	assert.Equal(t, model.ActionUnknown, entries[0].Action)
	assert.Equal(t, "2", entries[0].TotalPrice.String())
}

func TestCanonicalize_UnknownAdoptsClassifiedPartner(t *testing.T) {
	batch := &event.RawBatch{
		SystemEvents: []event.RawEvent{ev("0x5", 14, "", "", 0, 2)},
		Transfers:    []event.RawEvent{ev("0x5", 14, other, subWallet, 9, 0)},
	}

	entries, err := Canonicalize(substrateWallet(), batch, subRules)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.DirectionIncome, entries[0].Direction)
	assert.Equal(t, other, entries[0].AddressFrom)
	assert.Equal(t, "0", entries[0].Fee.String())
}

func TestCanonicalize_EVMMismatchFails(t *testing.T) {
	w := &model.Wallet{Chain: model.ChainMoonbeam, ChainType: model.ChainTypeEVM, Address: evmWallet}
	batch := &event.RawBatch{Transfers: []event.RawEvent{
		ev("0xa", 1, "0x1111111111111111111111111111111111111111", "0x2222222222222222222222222222222222222222", 1, 0),
	}}

	_, err := Canonicalize(w, batch, evmRules)
	require.ErrorIs(t, err, ErrInconsistentAddresses)
}

func TestCanonicalize_EVMCaseInsensitive(t *testing.T) {
	w := &model.Wallet{Chain: model.ChainMoonbeam, ChainType: model.ChainTypeEVM, Address: evmWallet}
	batch := &event.RawBatch{Transfers: []event.RawEvent{
		ev("0xa", 1, "0xabcdef0000000000000000000000000000000001", "0x2222222222222222222222222222222222222222", 1, 1),
	}}

	entries, err := Canonicalize(w, batch, evmRules)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.DirectionCost, entries[0].Direction)
	assert.Equal(t, "0xabcdef0000000000000000000000000000000001", entries[0].Wallet)
}

func TestCanonicalize_OrderAndSkipHashless(t *testing.T) {
	batch := &event.RawBatch{
		Transfers: []event.RawEvent{
			ev("0xc", 30, subWallet, other, 1, 0),
			ev("0xa", 10, subWallet, other, 1, 0),
			ev("", 5, subWallet, other, 1, 0),
		},
		SystemEvents: []event.RawEvent{ev("0xb", 10, other, subWallet, 1, 0)},
	}

	entries, err := Canonicalize(substrateWallet(), batch, subRules)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "0xa", entries[0].Hash)
	assert.Equal(t, "0xb", entries[1].Hash)
	assert.Equal(t, "0xc", entries[2].Hash)
}

func TestCanonicalize_FailedEventMarksEntryFailed(t *testing.T) {
	failed := ev("0x6", 15, subWallet, other, 0, 3)
	failed.Status = model.TxStatusFailed
	batch := &event.RawBatch{
		Transfers:    []event.RawEvent{ev("0x6", 15, subWallet, other, 10, 0)},
		SystemEvents: []event.RawEvent{failed},
	}

	entries, err := Canonicalize(substrateWallet(), batch, subRules)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.TxStatusFailed, entries[0].Status)
	assert.False(t, entries[0].IsSpend())
}
