package substrate

import (
	"github.com/Apillon/apillon-services-sub004/internal/chain"
	"github.com/Apillon/apillon-services-sub004/internal/domain/model"
)

// Indexer transaction types shared by every Substrate indexer.
const (
	TypeTransfer        = "TRANSFER"
	TypeFee             = "FEE"
	TypeBalanceTransfer = "BALANCE_TRANSFER"
	TypeBalanceDeposit  = "BALANCE_DEPOSIT"
)

// Profile describes one Substrate chain's indexer: which collections it
// exposes beyond transfers and system events, and how their types classify.
type Profile struct {
	Chain            model.Chain
	SS58Prefix       uint16
	ExtraCollections []string
	ServiceMarkers   []string
	ChainActions     []string
}

func (p Profile) Key() model.ChainKey {
	return model.ChainKey{Chain: p.Chain, ChainType: model.ChainTypeSubstrate}
}

func (p Profile) Rules() chain.Rules {
	return chain.Rules{
		StrictAddresses: false,
		ServiceMarkers:  chain.TypeSet(p.ServiceMarkers...),
		ChainActions:    chain.TypeSet(p.ChainActions...),
	}
}

var (
	CrustProfile = Profile{
		Chain:            model.ChainCrust,
		SS58Prefix:       66,
		ExtraCollections: []string{"storageOrders"},
		ServiceMarkers:   []string{"FILE_SUCCESS", "RENEW_FILE", "STORAGE_ORDER"},
		ChainActions:     []string{TypeBalanceTransfer, TypeBalanceDeposit},
	}
	KiltProfile = Profile{
		Chain:            model.ChainKilt,
		SS58Prefix:       38,
		ExtraCollections: []string{"dids", "attestations"},
		ServiceMarkers:   []string{"DID_CREATE", "DID_UPDATE", "DID_DELETE", "ATTESTATION_CREATE", "ATTESTATION_REVOKE"},
		ChainActions:     []string{TypeBalanceTransfer, TypeBalanceDeposit},
	}
	PhalaProfile = Profile{
		Chain:            model.ChainPhala,
		SS58Prefix:       30,
		ExtraCollections: []string{"contracts"},
		ServiceMarkers:   []string{"CONTRACT_INSTANTIATED", "CLUSTER_DEPOSIT"},
		ChainActions:     []string{TypeBalanceTransfer, TypeBalanceDeposit},
	}
	SubsocialProfile = Profile{
		Chain:            model.ChainSubsocial,
		SS58Prefix:       28,
		ExtraCollections: []string{"spaces", "posts"},
		ServiceMarkers:   []string{"SPACE_CREATED", "POST_CREATED", "ENERGY_GENERATED"},
		ChainActions:     []string{TypeBalanceTransfer, TypeBalanceDeposit},
	}
	XSocialProfile = Profile{
		Chain:            model.ChainXSocial,
		SS58Prefix:       42,
		ExtraCollections: []string{"spaces", "posts"},
		ServiceMarkers:   []string{"SPACE_CREATED", "POST_CREATED", "ENERGY_GENERATED"},
		ChainActions:     []string{TypeBalanceTransfer, TypeBalanceDeposit},
	}
	AstarProfile = Profile{
		Chain:            model.ChainAstar,
		SS58Prefix:       5,
		ExtraCollections: []string{"contracts"},
		ServiceMarkers:   []string{"CONTRACT_CALL", "CONTRACT_INSTANTIATED"},
		ChainActions:     []string{TypeBalanceTransfer, TypeBalanceDeposit},
	}
)

var profiles = map[model.Chain]Profile{
	model.ChainCrust:     CrustProfile,
	model.ChainKilt:      KiltProfile,
	model.ChainPhala:     PhalaProfile,
	model.ChainSubsocial: SubsocialProfile,
	model.ChainXSocial:   XSocialProfile,
	model.ChainAstar:     AstarProfile,
}

// ProfileFor returns the built-in profile for a Substrate chain.
func ProfileFor(c model.Chain) (Profile, bool) {
	p, ok := profiles[c]
	return p, ok
}
