package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/tokentalk/tokentalk/internal/domain"
)

const maxSymbolsPerRequest = 20

type priceResponse struct {
	Symbol    string `json:"symbol"`
	Price     string `json:"price"`
	Provider  string `json:"provider"`
	Timestamp string `json:"timestamp"`
}

func mapPriceResponse(sample domain.PriceSample) priceResponse {
	return priceResponse{
		Symbol:    sample.Symbol,
		Price:     sample.Value.String(),
		Provider:  sample.Provider,
		Timestamp: sample.Timestamp.Format(time.RFC3339),
	}
}

func (h *Handler) handleCurrentPrice(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	samples, err := h.feed.Fetch(r.Context(), []string{symbol})
	if err != nil {
		if errors.Is(err, domain.ErrFeedUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "price feed unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch price")
		return
	}

	sample, ok := samples[symbol]
	if !ok {
		writeError(w, http.StatusNotFound, "no price for symbol "+symbol)
		return
	}
	writeJSON(w, http.StatusOK, mapPriceResponse(sample))
}

func (h *Handler) handleMultiplePrices(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("symbols")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "symbols query parameter required")
		return
	}

	symbols := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part != "" {
			symbols = append(symbols, part)
		}
	}
	if len(symbols) == 0 {
		writeError(w, http.StatusBadRequest, "no valid symbols provided")
		return
	}
	if len(symbols) > maxSymbolsPerRequest {
		writeError(w, http.StatusBadRequest, "too many symbols requested")
		return
	}

	samples, err := h.feed.Fetch(r.Context(), symbols)
	if err != nil {
		if errors.Is(err, domain.ErrFeedUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "price feed unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch prices")
		return
	}

	prices := make(map[string]priceResponse, len(samples))
	for symbol, sample := range samples {
		prices[symbol] = mapPriceResponse(sample)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbols": symbols,
		"count":   len(prices),
		"prices":  prices,
	})
}
