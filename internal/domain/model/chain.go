package model

import "strings"

type ChainType string

const (
	ChainTypeSubstrate ChainType = "SUBSTRATE"
	ChainTypeEVM       ChainType = "EVM"
)

func (t ChainType) String() string {
	return string(t)
}

type Chain string

const (
	// Substrate family
	ChainCrust     Chain = "crust"
	ChainKilt      Chain = "kilt"
	ChainPhala     Chain = "phala"
	ChainSubsocial Chain = "subsocial"
	ChainXSocial   Chain = "xsocial"
	ChainAstar     Chain = "astar"

	// EVM family
	ChainMoonbeam Chain = "moonbeam"
	ChainMoonbase Chain = "moonbase"
	ChainAstarEVM Chain = "astar-evm"
)

func (c Chain) String() string {
	return string(c)
}

// ChainKey identifies one chain endpoint. The same chain name may exist under
// both chain types (Astar), so the pair is the unit of dispatch.
type ChainKey struct {
	Chain     Chain
	ChainType ChainType
}

func (k ChainKey) String() string {
	return string(k.ChainType) + ":" + string(k.Chain)
}

// ParseChainKey parses "EVM:moonbeam" style keys. Chain type is case-insensitive.
func ParseChainKey(raw string) (ChainKey, bool) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return ChainKey{}, false
	}
	ct := ChainType(strings.ToUpper(strings.TrimSpace(parts[0])))
	if ct != ChainTypeSubstrate && ct != ChainTypeEVM {
		return ChainKey{}, false
	}
	ch := Chain(strings.ToLower(strings.TrimSpace(parts[1])))
	if ch == "" {
		return ChainKey{}, false
	}
	return ChainKey{Chain: ch, ChainType: ct}, true
}

// NormalizeAddress applies the per-family address casing rule: EVM addresses
// are compared lower-cased, SS58 addresses are case-sensitive and kept as-is.
func NormalizeAddress(chainType ChainType, address string) string {
	address = strings.TrimSpace(address)
	if chainType == ChainTypeEVM {
		return strings.ToLower(address)
	}
	return address
}

type TxStatus string

const (
	TxStatusCompleted TxStatus = "COMPLETED"
	TxStatusFailed    TxStatus = "FAILED"
)

type TxDirection string

const (
	DirectionIncome  TxDirection = "INCOME"
	DirectionCost    TxDirection = "COST"
	DirectionUnknown TxDirection = "UNKNOWN"
)

type TxAction string

const (
	ActionDeposit     TxAction = "DEPOSIT"
	ActionWithdrawal  TxAction = "WITHDRAWAL"
	ActionTransaction TxAction = "TRANSACTION"
	ActionUnknown     TxAction = "UNKNOWN"
)

// ModelStatus is the soft lifecycle status shared by persisted rows.
type ModelStatus int

const (
	StatusDraft    ModelStatus = 1
	StatusInactive ModelStatus = 3
	StatusActive   ModelStatus = 5
	StatusBlocked  ModelStatus = 7
	StatusArchived ModelStatus = 8
	StatusDeleted  ModelStatus = 9
)
