package redstone

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tokentalk/tokentalk/internal/domain"
	"go.uber.org/zap"
)

const provider = "redstone"

type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type priceEntry struct {
	Symbol    string  `json:"symbol"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"`
	Provider  string  `json:"provider"`
}

// Fetch retrieves one sample per recognized symbol. Requests run
// concurrently; a symbol whose request fails or comes back empty is omitted.
// Only a batch with zero successful responses is reported as feed
// unavailability.
func (c *Client) Fetch(ctx context.Context, symbols []string) (map[string]domain.PriceSample, error) {
	if len(symbols) == 0 {
		return map[string]domain.PriceSample{}, nil
	}

	type result struct {
		sample    *domain.PriceSample
		responded bool
	}

	results := make([]result, len(symbols))
	var wg sync.WaitGroup
	for i, symbol := range symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			sample, err := c.fetchOne(ctx, symbol)
			if err != nil {
				c.logger.Warn("price fetch failed", zap.String("symbol", symbol), zap.Error(err))
				return
			}
			if sample == nil {
				// Upstream answered but does not know the symbol.
				results[i] = result{responded: true}
				return
			}
			results[i] = result{sample: sample, responded: true}
		}(i, symbol)
	}
	wg.Wait()

	samples := make(map[string]domain.PriceSample)
	responded := 0
	for _, r := range results {
		if r.responded {
			responded++
		}
		if r.sample != nil {
			samples[r.sample.Symbol] = *r.sample
		}
	}
	if responded == 0 {
		return nil, fmt.Errorf("%w: no symbol responded", domain.ErrFeedUnavailable)
	}
	return samples, nil
}

func (c *Client) fetchOne(ctx context.Context, symbol string) (*domain.PriceSample, error) {
	endpoint := fmt.Sprintf("%s?symbol=%s&provider=%s", c.baseURL, url.QueryEscape(strings.ToUpper(symbol)), provider)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	response, err := c.client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	c.logger.Debug(
		"redstone request complete",
		zap.String("symbol", symbol),
		zap.Int("status", response.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("redstone error: status %d", response.StatusCode)
	}

	var entries []priceEntry
	if err := json.NewDecoder(response.Body).Decode(&entries); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	entry := entries[0]
	value := decimal.NewFromFloat(entry.Value)
	if value.Sign() <= 0 {
		return nil, nil
	}

	sampledAt := time.Now()
	if entry.Timestamp > 0 {
		sampledAt = time.UnixMilli(entry.Timestamp)
	}
	sourced := entry.Provider
	if sourced == "" {
		sourced = provider
	}

	return &domain.PriceSample{
		Symbol:    strings.ToUpper(entry.Symbol),
		Value:     value,
		Timestamp: sampledAt,
		Provider:  sourced,
	}, nil
}
