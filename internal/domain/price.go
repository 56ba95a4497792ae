package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrFeedUnavailable means the upstream price source could not be reached at
// all this cycle. Callers treat it as transient and skip the cycle.
var ErrFeedUnavailable = errors.New("price feed unavailable")

type PriceSample struct {
	Symbol    string
	Value     decimal.Decimal
	Timestamp time.Time
	Provider  string
}

// PriceFeed fetches current prices for a set of symbols. Symbols the upstream
// does not recognize are omitted from the result, not errored.
type PriceFeed interface {
	Fetch(ctx context.Context, symbols []string) (map[string]PriceSample, error)
}
