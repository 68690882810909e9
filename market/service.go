package market

import (
	"context"
	"strings"
	"time"

	"github.com/voicefin/voicefin/log"
)

const (
	// krwToUSD is the fixed conversion factor applied to KRX-listed symbols.
	krwToUSD = 0.00073

	defaultRetryDelay = 5 * time.Second
)

// histPeriods maps a time-query unit to a look-back in days.
var histPeriods = map[string]int{
	"day":   1,
	"week":  7,
	"month": 30,
	"year":  365,
}

// Service resolves quotes for a set of symbols, trying the primary provider
// (with one retry after a fixed delay) before the fallback. Provider
// failures degrade to an error-flagged quote; Fetch never fails as a whole.
type Service struct {
	primary    Provider
	fallback   Provider
	retryDelay time.Duration
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRetryDelay overrides the delay before the single primary retry.
func WithRetryDelay(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.retryDelay = d
	}
}

// NewService creates a market data service. fallback may be nil.
func NewService(primary, fallback Provider, opts ...ServiceOption) *Service {
	s := &Service{
		primary:    primary,
		fallback:   fallback,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HistDays converts a recognized time phrase such as "3 months ago" into a
// look-back in days. Unrecognized phrases default to one month; an empty
// phrase disables the historical lookup.
func HistDays(timeQuery string) int {
	if timeQuery == "" {
		return 0
	}
	fields := strings.Fields(timeQuery)
	if len(fields) < 2 {
		return histPeriods["month"]
	}
	unit := strings.TrimSuffix(fields[1], "s")
	if days, ok := histPeriods[unit]; ok {
		return days
	}
	return histPeriods["month"]
}

// Fetch resolves a quote per symbol. Symbols are deduplicated preserving
// first occurrence order.
func (s *Service) Fetch(ctx context.Context, symbols []string, timeQuery string) map[string]*Quote {
	histDays := HistDays(timeQuery)
	result := make(map[string]*Quote, len(symbols))
	for _, symbol := range dedupe(symbols) {
		quote := s.fetchOne(ctx, symbol, histDays)
		if strings.HasSuffix(symbol, ".KS") {
			normalizeKRW(quote)
		}
		result[symbol] = quote
	}
	return result
}

func (s *Service) fetchOne(ctx context.Context, symbol string, histDays int) *Quote {
	var lastErr error
	// Primary provider gets exactly one retry after a fixed delay.
	for attempt := 0; attempt < 2; attempt++ {
		quote, err := s.primary.Quote(ctx, symbol, histDays)
		if err == nil {
			return quote
		}
		lastErr = err
		log.Warnf("%s quote for %s failed (attempt %d): %v", s.primary.Name(), symbol, attempt+1, err)
		if attempt == 0 {
			select {
			case <-time.After(s.retryDelay):
			case <-ctx.Done():
				return &Quote{Error: ctx.Err().Error()}
			}
		}
	}
	if s.fallback != nil {
		quote, err := s.fallback.Quote(ctx, symbol, histDays)
		if err == nil {
			log.Infof("%s fallback succeeded for %s", s.fallback.Name(), symbol)
			return quote
		}
		lastErr = err
		log.Warnf("%s quote for %s failed: %v", s.fallback.Name(), symbol, err)
	}
	return &Quote{Error: lastErr.Error()}
}

// normalizeKRW converts KRW-denominated prices to USD.
func normalizeKRW(quote *Quote) {
	quote.CurrentPrice *= krwToUSD
	if quote.HistoricalPrice != nil {
		converted := *quote.HistoricalPrice * krwToUSD
		quote.HistoricalPrice = &converted
	}
}

func dedupe(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		if _, ok := seen[symbol]; ok {
			continue
		}
		seen[symbol] = struct{}{}
		out = append(out, symbol)
	}
	return out
}
