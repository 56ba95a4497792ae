package redstone

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tokentalk/tokentalk/internal/domain"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func priceHandler(prices map[string]float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		symbol := r.URL.Query().Get("symbol")
		value, ok := prices[symbol]
		if !ok {
			fmt.Fprint(w, "[]")
			return
		}
		fmt.Fprintf(w, `[{"symbol":%q,"value":%v,"timestamp":%d,"provider":"redstone"}]`,
			symbol, value, time.Now().UnixMilli())
	}
}

func TestFetchReturnsSamplePerSymbol(t *testing.T) {
	server := newTestServer(t, priceHandler(map[string]float64{"BTC": 65000.5, "ETH": 3200}))
	client := NewClient(server.URL, time.Second, zap.NewNop())

	samples, err := client.Fetch(context.Background(), []string{"BTC", "ETH"})
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, "65000.5", samples["BTC"].Value.String())
	assert.Equal(t, "3200", samples["ETH"].Value.String())
	assert.Equal(t, "redstone", samples["BTC"].Provider)
	assert.WithinDuration(t, time.Now(), samples["BTC"].Timestamp, time.Minute)
}

func TestFetchOmitsUnknownSymbols(t *testing.T) {
	server := newTestServer(t, priceHandler(map[string]float64{"BTC": 65000}))
	client := NewClient(server.URL, time.Second, zap.NewNop())

	samples, err := client.Fetch(context.Background(), []string{"BTC", "NOPE"})
	require.NoError(t, err)
	require.Len(t, samples, 1)
	_, ok := samples["NOPE"]
	assert.False(t, ok)
}

func TestFetchPartialFailureStillUsable(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") == "ETH" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		priceHandler(map[string]float64{"BTC": 65000})(w, r)
	})
	client := NewClient(server.URL, time.Second, zap.NewNop())

	samples, err := client.Fetch(context.Background(), []string{"BTC", "ETH"})
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Contains(t, samples, "BTC")
}

func TestFetchAllFailuresIsFeedUnavailable(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	client := NewClient(server.URL, time.Second, zap.NewNop())

	_, err := client.Fetch(context.Background(), []string{"BTC", "ETH"})
	assert.ErrorIs(t, err, domain.ErrFeedUnavailable)
}

func TestFetchUnreachableHostIsFeedUnavailable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 200*time.Millisecond, zap.NewNop())

	_, err := client.Fetch(context.Background(), []string{"BTC"})
	assert.ErrorIs(t, err, domain.ErrFeedUnavailable)
}

func TestFetchIgnoresNonPositiveValues(t *testing.T) {
	server := newTestServer(t, priceHandler(map[string]float64{"BTC": 0}))
	client := NewClient(server.URL, time.Second, zap.NewNop())

	samples, err := client.Fetch(context.Background(), []string{"BTC"})
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestFetchNoSymbols(t *testing.T) {
	client := NewClient("http://unused", time.Second, zap.NewNop())

	samples, err := client.Fetch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestFetchUpcasesRequestedSymbol(t *testing.T) {
	var seen string
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL.Query().Get("symbol")
		priceHandler(map[string]float64{"BTC": 65000})(w, r)
	})
	client := NewClient(server.URL, time.Second, zap.NewNop())

	samples, err := client.Fetch(context.Background(), []string{"btc"})
	require.NoError(t, err)
	assert.Equal(t, "BTC", seen)
	assert.Contains(t, samples, "BTC")
}
