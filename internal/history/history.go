package history

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Transfer is one token transfer from the history API. Method and
// Success are filled by the per-transaction detail fan-out.
type Transfer struct {
	TxHash      string `json:"txHash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Amount      string `json:"amount"`
	BlockNumber uint64 `json:"blockNumber"`
	Timestamp   uint64 `json:"timestamp"`

	Method  string `json:"method,omitempty"`
	Success bool   `json:"success,omitempty"`
}

// Result carries the fetched transfers. Partial is set when a page or
// detail lookup failed, or when the record cap truncated the walk.
type Result struct {
	Transfers []Transfer
	Partial   bool
}

// Config controls the history client.
type Config struct {
	BaseURL           string
	PageSize          int
	MaxRecords        int
	Concurrency       int
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client walks a cursor-paged transfer history API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	limiter     *rate.Limiter
	pageSize    int
	maxRecords  int
	concurrency int
	logger      *zap.Logger
}

type transferPage struct {
	Items  []Transfer `json:"items"`
	Cursor string     `json:"cursor"`
}

type txDetail struct {
	Hash    string `json:"hash"`
	Method  string `json:"method"`
	Success bool   `json:"success"`
}

// NewClient builds a history client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("history api url is required")
	}
	if cfg.MaxRecords <= 0 {
		return nil, fmt.Errorf("max records must be positive, got %d", cfg.MaxRecords)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     cfg.BaseURL,
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		pageSize:    pageSize,
		maxRecords:  cfg.MaxRecords,
		concurrency: concurrency,
		logger:      logger,
	}, nil
}

// Transfers walks every page for an address until the cursor runs out
// or the record cap is hit, then enriches each record with transaction
// details through a bounded worker group.
func (c *Client) Transfers(ctx context.Context, address string) (Result, error) {
	var result Result
	cursor := ""

	for {
		page, err := c.fetchPage(ctx, address, cursor)
		if err != nil {
			// Retry once; a cursor walk cannot skip past a dead page.
			c.logger.Warn("history page fetch failed, retrying", zap.String("cursor", cursor), zap.Error(err))
			page, err = c.fetchPage(ctx, address, cursor)
		}
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			c.logger.Warn("history page unrecoverable, returning partial data", zap.String("cursor", cursor), zap.Error(err))
			result.Partial = true
			break
		}

		result.Transfers = append(result.Transfers, page.Items...)
		if len(result.Transfers) >= c.maxRecords {
			// A final page landing exactly on the cap with no cursor left
			// is a complete walk, not a truncated one.
			truncated := len(result.Transfers) > c.maxRecords || page.Cursor != ""
			result.Transfers = result.Transfers[:c.maxRecords]
			if truncated {
				result.Partial = true
				c.logger.Warn("history walk hit record cap", zap.Int("max_records", c.maxRecords))
			}
			break
		}
		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}

	if err := c.enrich(ctx, result.Transfers); err != nil {
		result.Partial = true
	}
	return result, nil
}

func (c *Client) fetchPage(ctx context.Context, address, cursor string) (transferPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return transferPage{}, err
	}

	query := url.Values{}
	query.Set("address", address)
	query.Set("limit", strconv.Itoa(c.pageSize))
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	var page transferPage
	if err := c.getJSON(ctx, c.baseURL+"/transfers?"+query.Encode(), &page); err != nil {
		return transferPage{}, err
	}
	return page, nil
}

// enrich fans out one detail lookup per transfer. Each task writes only
// its own slice slot. A failed lookup leaves the record bare.
func (c *Client) enrich(ctx context.Context, transfers []Transfer) error {
	if len(transfers) == 0 {
		return nil
	}

	var failed atomic.Int64
	pool := pond.NewPool(c.concurrency)
	defer pool.StopAndWait()
	group := pool.NewGroupContext(ctx)

	for i := range transfers {
		i := i
		group.Submit(func() {
			detail, err := c.fetchDetail(ctx, transfers[i].TxHash)
			if err != nil {
				failed.Add(1)
				c.logger.Debug("detail lookup failed", zap.String("tx", transfers[i].TxHash), zap.Error(err))
				return
			}
			transfers[i].Method = detail.Method
			transfers[i].Success = detail.Success
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d detail lookups failed", n)
	}
	return nil
}

func (c *Client) fetchDetail(ctx context.Context, txHash string) (txDetail, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return txDetail{}, err
	}
	var detail txDetail
	if err := c.getJSON(ctx, c.baseURL+"/tx/"+txHash, &detail); err != nil {
		return txDetail{}, err
	}
	return detail, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("history api status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
