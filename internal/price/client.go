// Package price looks up fiat unit prices for wallet tokens.
package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Apillon/apillon-services-sub004/internal/circuitbreaker"
	"github.com/Apillon/apillon-services-sub004/internal/domain/model"
	"github.com/Apillon/apillon-services-sub004/internal/metrics"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/shopspring/decimal"
)

const (
	defaultCurrency  = "usd"
	defaultCacheTTL  = 5 * time.Minute
	defaultCacheSize = 256
	defaultTimeout   = 10 * time.Second
)

// Config configures a CoinGecko-compatible simple price API.
type Config struct {
	BaseURL   string
	APIKey    string
	Currency  string
	TokenIDs  map[string]string // token symbol -> feed id
	CacheTTL  time.Duration
	CacheSize int
	Timeout   time.Duration
}

// Client fetches unit prices and caches them for CacheTTL.
type Client struct {
	cfg        Config
	httpClient *http.Client
	cache      *expirable.LRU[string, decimal.Decimal]
	breaker    *circuitbreaker.Breaker
	logger     *slog.Logger
}

func NewClient(cfg Config, breaker *circuitbreaker.Breaker, logger *slog.Logger) *Client {
	if cfg.Currency == "" {
		cfg.Currency = defaultCurrency
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      expirable.NewLRU[string, decimal.Decimal](cfg.CacheSize, nil, cfg.CacheTTL),
		breaker:    breaker,
		logger:     logger.With("component", "price"),
	}
}

// UnitPrice returns the price of one whole token. ok is false when the token
// has no feed id or the feed does not quote it.
func (c *Client) UnitPrice(ctx context.Context, token string) (decimal.Decimal, bool, error) {
	symbol := strings.ToUpper(strings.TrimSpace(token))
	id, mapped := c.cfg.TokenIDs[symbol]
	if !mapped {
		metrics.PriceLookupsTotal.WithLabelValues(symbol, "unmapped").Inc()
		return decimal.Decimal{}, false, nil
	}
	if p, hit := c.cache.Get(symbol); hit {
		metrics.PriceLookupsTotal.WithLabelValues(symbol, "hit").Inc()
		return p, true, nil
	}

	out, err := c.breaker.Execute(func() (any, error) {
		return c.fetch(ctx, id)
	})
	if err != nil {
		metrics.PriceLookupsTotal.WithLabelValues(symbol, "error").Inc()
		return decimal.Decimal{}, false, fmt.Errorf("price of %s: %w", symbol, err)
	}
	quote := out.(map[string]map[string]decimal.Decimal)
	p, found := quote[id][c.cfg.Currency]
	if !found {
		metrics.PriceLookupsTotal.WithLabelValues(symbol, "missing").Inc()
		return decimal.Decimal{}, false, nil
	}

	c.cache.Add(symbol, p)
	metrics.PriceLookupsTotal.WithLabelValues(symbol, "fetched").Inc()
	return p, true, nil
}

func (c *Client) fetch(ctx context.Context, id string) (map[string]map[string]decimal.Decimal, error) {
	q := url.Values{}
	q.Set("ids", id)
	q.Set("vs_currencies", c.cfg.Currency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/simple/price?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("x-cg-pro-api-key", c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, string(body))
	}

	var quote map[string]map[string]decimal.Decimal
	if err := json.Unmarshal(body, &quote); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return quote, nil
}

// Disabled never knows a price.
type Disabled struct{}

func (Disabled) UnitPrice(context.Context, string) (decimal.Decimal, bool, error) {
	return decimal.Decimal{}, false, nil
}

// Value converts amount smallest units into fiat at unitPrice per whole token.
func Value(amount model.Amount, decimals int, unitPrice decimal.Decimal) decimal.Decimal {
	return amount.Display(decimals).Mul(unitPrice)
}
