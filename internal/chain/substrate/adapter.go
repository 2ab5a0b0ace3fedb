package substrate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Apillon/apillon-services-sub004/internal/chain"
	"github.com/Apillon/apillon-services-sub004/internal/chain/ratelimit"
	"github.com/Apillon/apillon-services-sub004/internal/chain/rpc"
	"github.com/Apillon/apillon-services-sub004/internal/circuitbreaker"
	"github.com/Apillon/apillon-services-sub004/internal/domain/event"
	"github.com/Apillon/apillon-services-sub004/internal/domain/model"
)

const (
	collectionTransfers = "transfers"
	collectionSystems   = "systems"

	// indexer status codes
	statusSuccess = 1
)

const eventFields = `blockNumber extrinsicHash from to amount fee status transactionType createdAt`

// Adapter is the chain.Family of one Substrate chain: a GraphQL indexer for
// raw events and a node RPC for the live balance.
type Adapter struct {
	profile Profile
	indexer *graphQLClient
	rpc     *rpc.Client
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.Breaker
	logger  *slog.Logger
}

var _ chain.Family = (*Adapter)(nil)

// NewAdapter wires a profile to its endpoints. rpcURL may be empty, in which
// case Balance fails with chain.ErrNoEndpoint.
func NewAdapter(profile Profile, indexerURL, rpcURL string, limiter *ratelimit.Limiter, breaker *circuitbreaker.Breaker, logger *slog.Logger) *Adapter {
	a := &Adapter{
		profile: profile,
		indexer: newGraphQLClient(indexerURL),
		limiter: limiter,
		breaker: breaker,
		logger:  logger.With("component", "substrate_adapter", "chain", profile.Chain),
	}
	if rpcURL != "" {
		a.rpc = rpc.NewClient(rpcURL, profile.Chain.String(), limiter, logger)
	}
	return a
}

func (a *Adapter) Key() model.ChainKey { return a.profile.Key() }

func (a *Adapter) Rules() chain.Rules { return a.profile.Rules() }

type indexerEvent struct {
	BlockNumber     int64     `json:"blockNumber"`
	ExtrinsicHash   string    `json:"extrinsicHash"`
	From            *string   `json:"from"`
	To              *string   `json:"to"`
	Amount          *string   `json:"amount"`
	Fee             *string   `json:"fee"`
	Status          int       `json:"status"`
	TransactionType string    `json:"transactionType"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (a *Adapter) collections() []string {
	out := []string{collectionTransfers, collectionSystems}
	return append(out, a.profile.ExtraCollections...)
}

// windowQuery selects every collection touching address from fromBlock on,
// oldest first, each capped at limit.
func (a *Adapter) windowQuery() string {
	var sb strings.Builder
	sb.WriteString("query Window($address: String!, $fromBlock: Int!, $limit: Int!) {\n")
	for _, c := range a.collections() {
		fmt.Fprintf(&sb,
			"  %s(where: {AND: [{blockNumber_gte: $fromBlock}, {OR: [{from_eq: $address}, {to_eq: $address}]}]}, orderBy: blockNumber_ASC, limit: $limit) { %s }\n",
			c, eventFields)
	}
	sb.WriteString("}")
	return sb.String()
}

func (a *Adapter) Fetch(ctx context.Context, address string, fromBlock int64, limit int) (*event.RawBatch, error) {
	var data map[string][]indexerEvent
	vars := map[string]any{"address": address, "fromBlock": fromBlock, "limit": limit}
	err := a.limiter.Call(ctx, a.profile.Chain.String(), "indexer_window", func(ctx context.Context) error {
		return a.indexer.query(ctx, a.windowQuery(), vars, &data)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s window from %d: %w", a.profile.Chain, fromBlock, err)
	}

	batch := &event.RawBatch{
		Key:       a.Key(),
		Address:   address,
		FromBlock: fromBlock,
		Limit:     limit,
	}
	collections := make([][]event.RawEvent, 0, len(a.collections()))
	for _, c := range a.collections() {
		kind := event.KindExtra
		switch c {
		case collectionTransfers:
			kind = event.KindTransfer
		case collectionSystems:
			kind = event.KindSystem
		}
		events := make([]event.RawEvent, 0, len(data[c]))
		for i := range data[c] {
			ev, err := toRawEvent(kind, &data[c][i])
			if err != nil {
				return nil, fmt.Errorf("decode %s %s event: %w", a.profile.Chain, c, err)
			}
			events = append(events, ev)
			switch kind {
			case event.KindTransfer:
				batch.Transfers = append(batch.Transfers, ev)
			case event.KindSystem:
				batch.SystemEvents = append(batch.SystemEvents, ev)
			default:
				batch.Extra = append(batch.Extra, ev)
			}
		}
		collections = append(collections, events)
	}
	if cut, ok := event.CappedBlock(limit, collections...); ok {
		if dropped := batch.TrimAbove(cut); dropped > 0 {
			a.logger.Debug("window trimmed to capped collection", "address", address, "block", cut, "dropped", dropped)
		}
	}
	return batch, nil
}

func toRawEvent(kind event.EventKind, in *indexerEvent) (event.RawEvent, error) {
	amount, err := model.ParseAmount(deref(in.Amount))
	if err != nil {
		return event.RawEvent{}, fmt.Errorf("amount of %s: %w", in.ExtrinsicHash, err)
	}
	fee, err := model.ParseAmount(deref(in.Fee))
	if err != nil {
		return event.RawEvent{}, fmt.Errorf("fee of %s: %w", in.ExtrinsicHash, err)
	}
	status := model.TxStatusFailed
	if in.Status == statusSuccess {
		status = model.TxStatusCompleted
	}
	return event.RawEvent{
		Kind:        kind,
		Type:        in.TransactionType,
		BlockNumber: in.BlockNumber,
		Hash:        in.ExtrinsicHash,
		From:        deref(in.From),
		To:          deref(in.To),
		Amount:      amount,
		Fee:         fee,
		Status:      status,
		CreatedAt:   in.CreatedAt,
	}, nil
}

// Balance reads System.Account.data.free for address. A missing account
// reads as zero.
func (a *Adapter) Balance(ctx context.Context, address string) (model.Amount, error) {
	if a.rpc == nil {
		return model.Amount{}, fmt.Errorf("%w: %s", chain.ErrNoEndpoint, a.Key())
	}
	prefix, pubkey, err := DecodeSS58(address)
	if err != nil {
		return model.Amount{}, err
	}
	if prefix != a.profile.SS58Prefix {
		a.logger.Debug("address prefix differs from chain prefix", "address", address, "prefix", prefix)
	}

	var storage string
	_, err = a.breaker.Execute(func() (any, error) {
		return nil, a.rpc.Call(ctx, "state_getStorage", []interface{}{SystemAccountKey(pubkey)}, &storage)
	})
	if err != nil {
		return model.Amount{}, fmt.Errorf("read balance of %s: %w", address, err)
	}
	if storage == "" {
		return model.ZeroAmount(), nil
	}
	return DecodeFreeBalance(storage)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
