package pricecache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/tokentalk/tokentalk/internal/domain"
	"go.uber.org/zap"
)

const keyPrefix = "price:"

type cachedSample struct {
	Symbol    string    `json:"symbol"`
	Value     string    `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	Provider  string    `json:"provider"`
}

// CachedFeed wraps a PriceFeed with a short-lived redis cache so the prices
// API and the engine do not hammer the upstream oracle for the same symbols.
// Cache failures degrade to direct fetches, never to errors.
type CachedFeed struct {
	inner  domain.PriceFeed
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedFeed(inner domain.PriceFeed, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedFeed {
	return &CachedFeed{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (f *CachedFeed) Fetch(ctx context.Context, symbols []string) (map[string]domain.PriceSample, error) {
	samples := make(map[string]domain.PriceSample, len(symbols))
	missing := make([]string, 0, len(symbols))

	for _, symbol := range symbols {
		cached, ok := f.get(ctx, symbol)
		if ok {
			samples[symbol] = cached
			continue
		}
		missing = append(missing, symbol)
	}

	if len(missing) == 0 {
		return samples, nil
	}

	fetched, err := f.inner.Fetch(ctx, missing)
	if err != nil {
		// A partial cache hit still lets the cycle run for those symbols.
		if len(samples) > 0 {
			f.logger.Warn("feed fetch failed, serving cached subset", zap.Error(err), zap.Int("cached", len(samples)))
			return samples, nil
		}
		return nil, err
	}

	for symbol, sample := range fetched {
		samples[symbol] = sample
		f.put(ctx, sample)
	}
	return samples, nil
}

func (f *CachedFeed) get(ctx context.Context, symbol string) (domain.PriceSample, bool) {
	raw, err := f.client.Get(ctx, keyPrefix+symbol).Result()
	if err != nil {
		if err != redis.Nil {
			f.logger.Debug("price cache read failed", zap.String("symbol", symbol), zap.Error(err))
		}
		return domain.PriceSample{}, false
	}

	var cached cachedSample
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return domain.PriceSample{}, false
	}
	value, err := decimal.NewFromString(cached.Value)
	if err != nil {
		return domain.PriceSample{}, false
	}
	return domain.PriceSample{
		Symbol:    cached.Symbol,
		Value:     value,
		Timestamp: cached.Timestamp,
		Provider:  cached.Provider,
	}, true
}

func (f *CachedFeed) put(ctx context.Context, sample domain.PriceSample) {
	raw, err := json.Marshal(cachedSample{
		Symbol:    sample.Symbol,
		Value:     sample.Value.String(),
		Timestamp: sample.Timestamp,
		Provider:  sample.Provider,
	})
	if err != nil {
		return
	}
	if err := f.client.Set(ctx, keyPrefix+sample.Symbol, raw, f.ttl).Err(); err != nil {
		f.logger.Debug("price cache write failed", zap.String("symbol", sample.Symbol), zap.Error(err))
	}
}
