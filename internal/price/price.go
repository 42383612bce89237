package price

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config controls the price discovery client. Symbols and Fallback are
// injected reference data: token address (lowercase) to symbol, and
// symbol to a static USD price used when live discovery fails.
type Config struct {
	BaseURL           string
	Symbols           map[string]string
	Fallback          map[string]float64
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client resolves token USD prices from a pair-quote API, falling back
// to the static table. Live prices win only when strictly positive and
// finite.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	symbols    map[string]string
	fallback   map[string]float64
	logger     *zap.Logger
}

type pairQuote struct {
	PriceUSD  string `json:"priceUsd"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
}

type pairsResponse struct {
	Pairs []pairQuote `json:"pairs"`
}

// NewClient builds a price client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		symbols:    cfg.Symbols,
		fallback:   cfg.Fallback,
		logger:     logger,
	}
}

// TokenPriceUSD returns the best available USD price for a token.
// One retry on live-lookup failure, then the static table, then 0.
func (c *Client) TokenPriceUSD(ctx context.Context, token string) float64 {
	live, err := c.fetchLive(ctx, token)
	if err != nil {
		c.logger.Debug("live price fetch failed, retrying", zap.String("token", token), zap.Error(err))
		live, err = c.fetchLive(ctx, token)
	}
	if err == nil {
		return live
	}

	c.logger.Warn("live price unavailable, using fallback", zap.String("token", token), zap.Error(err))
	return c.fallbackPrice(token)
}

func (c *Client) fetchLive(ctx context.Context, token string) (float64, error) {
	if c.baseURL == "" {
		return 0, fmt.Errorf("price api url not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/latest/dex/tokens/%s", c.baseURL, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch pairs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price api status %d", resp.StatusCode)
	}

	var parsed pairsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode pairs: %w", err)
	}
	if len(parsed.Pairs) == 0 {
		return 0, fmt.Errorf("no pairs for token")
	}

	// Deepest pool wins; ties keep the first quote encountered.
	best := parsed.Pairs[0]
	for _, pair := range parsed.Pairs[1:] {
		if pair.Liquidity.USD > best.Liquidity.USD {
			best = pair
		}
	}

	priceUSD, err := strconv.ParseFloat(best.PriceUSD, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", best.PriceUSD, err)
	}
	if priceUSD <= 0 || math.IsNaN(priceUSD) || math.IsInf(priceUSD, 0) {
		return 0, fmt.Errorf("non-positive price %q", best.PriceUSD)
	}

	return priceUSD, nil
}

func (c *Client) fallbackPrice(token string) float64 {
	symbol, ok := c.symbols[strings.ToLower(token)]
	if !ok {
		return 0
	}
	priceUSD, ok := c.fallback[symbol]
	if !ok {
		return 0
	}
	return priceUSD
}
