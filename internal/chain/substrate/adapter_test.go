package substrate

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Apillon/apillon-services-sub004/internal/chain"
	"github.com/Apillon/apillon-services-sub004/internal/domain/event"
	"github.com/Apillon/apillon-services-sub004/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	aliceSS58   = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	alicePubkey = "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
	aliceKey    = "0x26aa394eea5630e07c48ae0c9558cef7b99d880ec681799c0cf30e8886371da9" +
		"de1e86a9a8c739864cf3cc5ec2bea59f" + alicePubkey
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonHTTPResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func newTestAdapter(profile Profile, handler func(*http.Request) (*http.Response, error)) *Adapter {
	a := NewAdapter(profile, "http://indexer.local/graphql", "", nil, nil, slog.Default())
	a.indexer.httpClient = &http.Client{Transport: roundTripFunc(handler)}
	return a
}

func TestDecodeSS58(t *testing.T) {
	prefix, pubkey, err := DecodeSS58(aliceSS58)
	require.NoError(t, err)
	assert.Equal(t, uint16(42), prefix)
	assert.Equal(t, alicePubkey, hex.EncodeToString(pubkey))

	_, _, err = DecodeSS58("5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQZ")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, _, err = DecodeSS58("0x1234")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestSystemAccountKey(t *testing.T) {
	pubkey, err := hex.DecodeString(alicePubkey)
	require.NoError(t, err)
	assert.Equal(t, aliceKey, SystemAccountKey(pubkey))
}

func TestDecodeFreeBalance(t *testing.T) {
	// nonce=1, consumers=0, providers=1, sufficients=0, free=1000000000000, reserved=0, ...
	info := make([]byte, 80)
	info[0] = 1
	info[8] = 1
	free := []byte{0x00, 0x10, 0xa5, 0xd4, 0xe8} // 1e12 little-endian
	copy(info[16:], free)

	amount, err := DecodeFreeBalance("0x" + hex.EncodeToString(info))
	require.NoError(t, err)
	assert.Equal(t, "1000000000000", amount.String())

	// u128 beyond uint64
	for i := 16; i < 32; i++ {
		info[i] = 0xff
	}
	amount, err = DecodeFreeBalance(hex.EncodeToString(info))
	require.NoError(t, err)
	assert.Equal(t, "340282366920938463463374607431768211455", amount.String())

	_, err = DecodeFreeBalance("0x0102")
	assert.Error(t, err)
}

func TestAdapter_FetchGroupsCollections(t *testing.T) {
	a := newTestAdapter(CrustProfile, func(r *http.Request) (*http.Response, error) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req graphQLRequest
		require.NoError(t, json.Unmarshal(body, &req))

		assert.Contains(t, req.Query, "transfers(")
		assert.Contains(t, req.Query, "systems(")
		assert.Contains(t, req.Query, "storageOrders(")
		assert.Equal(t, aliceSS58, req.Variables["address"])
		assert.Equal(t, float64(100), req.Variables["fromBlock"])
		assert.Equal(t, float64(50), req.Variables["limit"])

		return jsonHTTPResponse(http.StatusOK, `{"data":{
			"transfers":[{"blockNumber":100,"extrinsicHash":"0xa","from":"`+aliceSS58+`","to":"cTx","amount":"1000000000000000000000","fee":"7","status":1,"transactionType":"TRANSFER","createdAt":"2024-01-02T03:04:05Z"}],
			"systems":[{"blockNumber":101,"extrinsicHash":"0xb","from":"cTy","to":"`+aliceSS58+`","amount":"5","fee":null,"status":0,"transactionType":"BALANCE_TRANSFER","createdAt":"2024-01-02T03:05:05Z"}],
			"storageOrders":[{"blockNumber":102,"extrinsicHash":"0xa","from":"`+aliceSS58+`","to":null,"amount":null,"fee":"1","status":1,"transactionType":"FILE_SUCCESS","createdAt":"2024-01-02T03:06:05Z"}]
		}}`), nil
	})

	batch, err := a.Fetch(context.Background(), aliceSS58, 100, 50)
	require.NoError(t, err)

	assert.Equal(t, model.ChainKey{Chain: model.ChainCrust, ChainType: model.ChainTypeSubstrate}, batch.Key)
	require.Len(t, batch.Transfers, 1)
	require.Len(t, batch.SystemEvents, 1)
	require.Len(t, batch.Extra, 1)

	tr := batch.Transfers[0]
	assert.Equal(t, event.KindTransfer, tr.Kind)
	assert.Equal(t, "1000000000000000000000", tr.Amount.String())
	assert.Equal(t, model.TxStatusCompleted, tr.Status)
	assert.Equal(t, 2024, tr.CreatedAt.Year())

	sys := batch.SystemEvents[0]
	assert.True(t, sys.Fee.IsZero())
	assert.Equal(t, model.TxStatusFailed, sys.Status)

	extra := batch.Extra[0]
	assert.Equal(t, "", extra.To)
	assert.True(t, extra.Amount.IsZero())
	assert.Equal(t, "FILE_SUCCESS", extra.Type)
	assert.Equal(t, int64(102), batch.MaxBlock())
}

func windowEventJSON(block int64, hash string) string {
	return fmt.Sprintf(`{"blockNumber":%d,"extrinsicHash":%q,"from":%q,"to":"cTx","amount":"1","fee":"1","status":1,"transactionType":"TRANSFER","createdAt":"2024-01-02T03:04:05Z"}`, block, hash, aliceSS58)
}

// pagedIndexer serves ten transfers at blocks 100..109 and one system event at
// block 500, honouring fromBlock and limit per collection.
func pagedIndexer(t *testing.T) func(*http.Request) (*http.Response, error) {
	return func(r *http.Request) (*http.Response, error) {
		var req graphQLRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		from := int64(req.Variables["fromBlock"].(float64))
		limit := int(req.Variables["limit"].(float64))

		page := func(blocks []int64, prefix string) string {
			var out []string
			for _, b := range blocks {
				if b >= from && len(out) < limit {
					out = append(out, windowEventJSON(b, fmt.Sprintf("%s%d", prefix, b)))
				}
			}
			return "[" + strings.Join(out, ",") + "]"
		}
		transfers := make([]int64, 0, 10)
		for b := int64(100); b < 110; b++ {
			transfers = append(transfers, b)
		}
		return jsonHTTPResponse(http.StatusOK, `{"data":{"transfers":`+page(transfers, "0xt")+
			`,"systems":`+page([]int64{500}, "0xs")+`,"storageOrders":[]}}`), nil
	}
}

func TestAdapter_FetchTrimsToCappedCollection(t *testing.T) {
	a := newTestAdapter(CrustProfile, pagedIndexer(t))

	batch, err := a.Fetch(context.Background(), aliceSS58, 1, 3)
	require.NoError(t, err)
	assert.Len(t, batch.Transfers, 3)
	assert.Empty(t, batch.SystemEvents)
	assert.Equal(t, int64(102), batch.MaxBlock())
}

func TestAdapter_FetchWindowsCoverEveryEvent(t *testing.T) {
	a := newTestAdapter(CrustProfile, pagedIndexer(t))

	seen := make(map[string]bool)
	from := int64(1)
	for run := 0; run < 10; run++ {
		batch, err := a.Fetch(context.Background(), aliceSS58, from, 3)
		require.NoError(t, err)
		for _, ev := range batch.All() {
			seen[ev.Hash] = true
		}
		if next := batch.MaxBlock(); next > from {
			from = next
		}
	}

	for b := 100; b < 110; b++ {
		assert.True(t, seen[fmt.Sprintf("0xt%d", b)], "transfer at block %d", b)
	}
	assert.True(t, seen["0xs500"])
}

func TestAdapter_FetchGraphQLError(t *testing.T) {
	a := newTestAdapter(KiltProfile, func(r *http.Request) (*http.Response, error) {
		return jsonHTTPResponse(http.StatusOK, `{"errors":[{"message":"unknown field"}]}`), nil
	})

	_, err := a.Fetch(context.Background(), aliceSS58, 1, 10)
	require.Error(t, err)
	var gqlErr *GraphQLError
	require.ErrorAs(t, err, &gqlErr)
	assert.Equal(t, []string{"unknown field"}, gqlErr.Messages)
}

func TestAdapter_FetchBadAmount(t *testing.T) {
	a := newTestAdapter(PhalaProfile, func(r *http.Request) (*http.Response, error) {
		return jsonHTTPResponse(http.StatusOK, `{"data":{"transfers":[{"blockNumber":1,"extrinsicHash":"0xa","amount":"1.5","status":1}]}}`), nil
	})

	_, err := a.Fetch(context.Background(), aliceSS58, 1, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount of 0xa")
}

func TestAdapter_BalanceNoEndpoint(t *testing.T) {
	a := newTestAdapter(AstarProfile, nil)
	_, err := a.Balance(context.Background(), aliceSS58)
	assert.ErrorIs(t, err, chain.ErrNoEndpoint)
}

// newNodeStub serves JSON-RPC requests with result returned by handler.
func newNodeStub(t *testing.T, handler func(method string, params []interface{}) string) string {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int           `json:"id"`
			Method string        `json:"method"`
			Params []interface{} `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"jsonrpc":"2.0","id":1,"result":`+handler(req.Method, req.Params)+`}`)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestAdapter_Balance(t *testing.T) {
	info := make([]byte, 80)
	info[16] = 0x2a
	url := newNodeStub(t, func(method string, params []interface{}) string {
		assert.Equal(t, "state_getStorage", method)
		assert.Equal(t, []interface{}{aliceKey}, params)
		return `"0x` + hex.EncodeToString(info) + `"`
	})
	a := NewAdapter(SubsocialProfile, "http://indexer.local", url, nil, nil, slog.Default())

	bal, err := a.Balance(context.Background(), aliceSS58)
	require.NoError(t, err)
	assert.Equal(t, "42", bal.String())
}

func TestAdapter_BalanceMissingAccount(t *testing.T) {
	url := newNodeStub(t, func(string, []interface{}) string { return "null" })
	a := NewAdapter(SubsocialProfile, "http://indexer.local", url, nil, nil, slog.Default())

	bal, err := a.Balance(context.Background(), aliceSS58)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

func TestProfiles(t *testing.T) {
	for _, c := range []model.Chain{model.ChainCrust, model.ChainKilt, model.ChainPhala, model.ChainSubsocial, model.ChainXSocial, model.ChainAstar} {
		p, ok := ProfileFor(c)
		require.True(t, ok, c)
		r := p.Rules()
		assert.False(t, r.StrictAddresses)
		assert.True(t, r.IsChainAction(TypeBalanceTransfer))
		assert.False(t, r.IsServiceMarker(TypeTransfer))
	}
	_, ok := ProfileFor(model.ChainMoonbeam)
	assert.False(t, ok)
	assert.True(t, CrustProfile.Rules().IsServiceMarker("FILE_SUCCESS"))
}
