// Package market fetches stock quotes and fundamentals from external
// providers. The service layer implements the primary/fallback pattern,
// a single retry on the primary, and currency normalization.
package market

import "context"

// Quote holds market data for one symbol. Pointer fields are unknown when
// nil; a zero CurrentPrice means the provider had no price. A non-empty
// Error marks the symbol's data as unreliable.
type Quote struct {
	CurrentPrice    float64  `json:"current_price,omitempty"`
	ChangePercent   string   `json:"change_percent,omitempty"`
	Timestamp       string   `json:"timestamp,omitempty"`
	HistoricalPrice *float64 `json:"historical_price,omitempty"`
	PERatio         *float64 `json:"pe_ratio,omitempty"`
	Beta            *float64 `json:"beta,omitempty"`
	Volatility      *float64 `json:"volatility,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// Provider fetches a quote for a symbol. histDays selects an additional
// historical close that many days back; zero skips the historical lookup.
type Provider interface {
	Name() string
	Quote(ctx context.Context, symbol string, histDays int) (*Quote, error)
}
