package model

import "time"

type Wallet struct {
	ID                 int64       `db:"id"`
	Status             ModelStatus `db:"status"`
	Chain              Chain       `db:"chain"`
	ChainType          ChainType   `db:"chain_type"`
	Address            string      `db:"address"`
	NextNonce          int64       `db:"next_nonce"`
	LastProcessedNonce int64       `db:"last_processed_nonce"`
	LastParsedBlock    int64       `db:"last_parsed_block"`
	BlockParseSize     int         `db:"block_parse_size"`
	MinBalance         NullAmount  `db:"min_balance"`
	CurrentBalance     NullAmount  `db:"current_balance"`
	Decimals           int         `db:"decimals"`
	Token              string      `db:"token"`
	CreateTime         time.Time   `db:"create_time"`
	UpdateTime         time.Time   `db:"update_time"`
}

func (w *Wallet) Key() ChainKey {
	return ChainKey{Chain: w.Chain, ChainType: w.ChainType}
}

// NormalizedAddress is the address as stored in ledger rows and compared
// against raw event endpoints.
func (w *Wallet) NormalizedAddress() string {
	return NormalizeAddress(w.ChainType, w.Address)
}

// Label renders "<chain>:<address>" for logs and alert titles.
func (w *Wallet) Label() string {
	return string(w.Chain) + ":" + w.Address
}

// WalletFilter narrows the plan phase to one chain and/or chain type.
// Zero values mean "any".
type WalletFilter struct {
	Chain     Chain
	ChainType ChainType
}
