package evm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Apillon/apillon-services-sub004/internal/chain"
	"github.com/Apillon/apillon-services-sub004/internal/chain/ratelimit"
	"github.com/Apillon/apillon-services-sub004/internal/circuitbreaker"
	"github.com/Apillon/apillon-services-sub004/internal/domain/event"
	"github.com/Apillon/apillon-services-sub004/internal/domain/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Indexer transaction types.
const (
	TypeTransfer       = "TRANSFER"
	TypeContractCall   = "CONTRACT_CALL"
	TypeContractDeploy = "CONTRACT_DEPLOY"
)

// Adapter is the chain.Family of one EVM chain: a JSON indexer for raw
// transactions and an eth JSON-RPC node for the live balance.
type Adapter struct {
	key        model.ChainKey
	httpClient *http.Client
	indexerURL string
	rpcURL     string
	limiter    *ratelimit.Limiter
	breaker    *circuitbreaker.Breaker
	logger     *slog.Logger

	dial   func(ctx context.Context, rawurl string) (*ethclient.Client, error)
	dialMu sync.Mutex
	eth    *ethclient.Client
}

var _ chain.Family = (*Adapter)(nil)

func NewAdapter(c model.Chain, indexerURL, rpcURL string, limiter *ratelimit.Limiter, breaker *circuitbreaker.Breaker, logger *slog.Logger) *Adapter {
	return &Adapter{
		key:        model.ChainKey{Chain: c, ChainType: model.ChainTypeEVM},
		httpClient: &http.Client{Timeout: 30 * time.Second},
		indexerURL: strings.TrimRight(indexerURL, "/"),
		rpcURL:     rpcURL,
		limiter:    limiter,
		breaker:    breaker,
		logger:     logger.With("component", "evm_adapter", "chain", c),
		dial:       ethclient.DialContext,
	}
}

func (a *Adapter) Key() model.ChainKey { return a.key }

func (a *Adapter) Rules() chain.Rules {
	return chain.Rules{
		StrictAddresses: true,
		ServiceMarkers:  chain.TypeSet(TypeContractCall, TypeContractDeploy),
	}
}

type indexerTx struct {
	BlockNumber int64     `json:"blockNumber"`
	Hash        string    `json:"hash"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Value       string    `json:"value"`
	Fee         string    `json:"fee"`
	Status      bool      `json:"status"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
}

type indexerWindow struct {
	Transactions []indexerTx `json:"transactions"`
	Logs         []indexerTx `json:"logs"`
}

func (a *Adapter) Fetch(ctx context.Context, address string, fromBlock int64, limit int) (*event.RawBatch, error) {
	q := url.Values{}
	q.Set("address", address)
	q.Set("fromBlock", strconv.FormatInt(fromBlock, 10))
	q.Set("limit", strconv.Itoa(limit))
	endpoint := a.indexerURL + "/transactions?" + q.Encode()

	var window indexerWindow
	err := a.limiter.Call(ctx, a.key.Chain.String(), "indexer_window", func(ctx context.Context) error {
		return a.getJSON(ctx, endpoint, &window)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s window from %d: %w", a.key.Chain, fromBlock, err)
	}

	batch := &event.RawBatch{Key: a.key, Address: address, FromBlock: fromBlock, Limit: limit}
	for i := range window.Transactions {
		ev, err := toRawEvent(event.KindTransfer, &window.Transactions[i])
		if err != nil {
			return nil, err
		}
		batch.Transfers = append(batch.Transfers, ev)
	}
	for i := range window.Logs {
		ev, err := toRawEvent(event.KindExtra, &window.Logs[i])
		if err != nil {
			return nil, err
		}
		batch.Extra = append(batch.Extra, ev)
	}
	if cut, ok := event.CappedBlock(limit, batch.Transfers, batch.Extra); ok {
		if dropped := batch.TrimAbove(cut); dropped > 0 {
			a.logger.Debug("window trimmed to capped collection", "address", address, "block", cut, "dropped", dropped)
		}
	}
	return batch, nil
}

func (a *Adapter) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func toRawEvent(kind event.EventKind, tx *indexerTx) (event.RawEvent, error) {
	amount, err := parseQuantity(tx.Value)
	if err != nil {
		return event.RawEvent{}, fmt.Errorf("value of %s: %w", tx.Hash, err)
	}
	fee, err := parseQuantity(tx.Fee)
	if err != nil {
		return event.RawEvent{}, fmt.Errorf("fee of %s: %w", tx.Hash, err)
	}
	status := model.TxStatusFailed
	if tx.Status {
		status = model.TxStatusCompleted
	}
	return event.RawEvent{
		Kind:        kind,
		Type:        tx.Type,
		BlockNumber: tx.BlockNumber,
		Hash:        strings.ToLower(tx.Hash),
		From:        tx.From,
		To:          tx.To,
		Amount:      amount,
		Fee:         fee,
		Status:      status,
		CreatedAt:   tx.Timestamp,
	}, nil
}

// parseQuantity accepts decimal strings and 0x-prefixed hex quantities.
func parseQuantity(s string) (model.Amount, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if len(s) == 2 {
			return model.ZeroAmount(), nil
		}
		v, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			return model.Amount{}, fmt.Errorf("invalid hex quantity %q", s)
		}
		return model.AmountFromBig(v)
	}
	return model.ParseAmount(s)
}

// client dials the node on first use. A failed dial is not kept, so the next
// balance check dials again.
func (a *Adapter) client(ctx context.Context) (*ethclient.Client, error) {
	a.dialMu.Lock()
	defer a.dialMu.Unlock()
	if a.eth != nil {
		return a.eth, nil
	}
	eth, err := a.dial(ctx, a.rpcURL)
	if err != nil {
		return nil, err
	}
	a.eth = eth
	return eth, nil
}

// Balance returns eth_getBalance at the latest block.
func (a *Adapter) Balance(ctx context.Context, address string) (model.Amount, error) {
	if a.rpcURL == "" {
		return model.Amount{}, fmt.Errorf("%w: %s", chain.ErrNoEndpoint, a.key)
	}
	if !common.IsHexAddress(address) {
		return model.Amount{}, fmt.Errorf("invalid evm address %q", address)
	}
	eth, err := a.client(ctx)
	if err != nil {
		return model.Amount{}, fmt.Errorf("dial %s rpc: %w", a.key.Chain, err)
	}

	out, err := a.breaker.Execute(func() (any, error) {
		var bal *big.Int
		err := a.limiter.Call(ctx, a.key.Chain.String(), "eth_getBalance", func(ctx context.Context) error {
			var err error
			bal, err = eth.BalanceAt(ctx, common.HexToAddress(address), nil)
			return err
		})
		return bal, err
	})
	if err != nil {
		return model.Amount{}, fmt.Errorf("read balance of %s: %w", address, err)
	}
	return model.AmountFromBig(out.(*big.Int))
}

// Close releases the RPC connection, if one was dialed.
func (a *Adapter) Close() {
	a.dialMu.Lock()
	defer a.dialMu.Unlock()
	if a.eth != nil {
		a.eth.Close()
		a.eth = nil
	}
}
