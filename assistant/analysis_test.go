package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicefin/voicefin/market"
	"github.com/voicefin/voicefin/portfolio"
)

func fptr(v float64) *float64 { return &v }

func TestAnalyzePortfolioValuation(t *testing.T) {
	marketData := map[string]*market.Quote{
		"AAPL": {CurrentPrice: 150},
	}
	data := portfolio.Data{Holdings: map[string]float64{"AAPL": 10}}

	got := Analyze(marketData, data, []string{IntentPortfolio}, nil, "show my portfolio")

	require.Contains(t, got.PortfolioMetrics.Holdings, "AAPL")
	holding := got.PortfolioMetrics.Holdings["AAPL"]
	assert.Equal(t, 1500.0, holding.Value)
	assert.Equal(t, "100.00%", holding.Allocation)
	assert.Equal(t, 1500.0, got.PortfolioMetrics.TotalValue)
}

func TestAnalyzeAllocations(t *testing.T) {
	marketData := map[string]*market.Quote{
		"AAPL": {CurrentPrice: 150},
		"MSFT": {CurrentPrice: 100},
	}
	data := portfolio.Data{Holdings: map[string]float64{"AAPL": 10, "MSFT": 10}}

	got := Analyze(marketData, data, []string{IntentPortfolio}, nil, "my holdings")

	assert.Equal(t, 2500.0, got.PortfolioMetrics.TotalValue)
	assert.Equal(t, "60.00%", got.PortfolioMetrics.Holdings["AAPL"].Allocation)
	assert.Equal(t, "40.00%", got.PortfolioMetrics.Holdings["MSFT"].Allocation)
}

func TestAnalyzeDefaultPriceOnMissingQuote(t *testing.T) {
	data := portfolio.Data{Holdings: map[string]float64{"TSLA": 5}}

	got := Analyze(nil, data, []string{IntentPortfolio}, nil, "my portfolio")

	holding := got.PortfolioMetrics.Holdings["TSLA"]
	assert.Equal(t, 500.0, holding.Value)
	assert.Equal(t, "Using default price due to missing data", holding.Error)
}

func TestAnalyzePortfolioAverages(t *testing.T) {
	marketData := map[string]*market.Quote{
		"AAPL": {CurrentPrice: 150, PERatio: fptr(20), Beta: fptr(1.0)},
		"MSFT": {CurrentPrice: 100, PERatio: fptr(40), Beta: fptr(2.0)},
	}
	data := portfolio.Data{Holdings: map[string]float64{"AAPL": 1, "MSFT": 1}}

	got := Analyze(marketData, data, []string{IntentPortfolio}, nil, "my portfolio")

	require.NotNil(t, got.PortfolioMetrics.PortfolioPE)
	assert.Equal(t, 30.0, *got.PortfolioMetrics.PortfolioPE)
	require.NotNil(t, got.PortfolioMetrics.PortfolioBeta)
	assert.Equal(t, 1.5, *got.PortfolioMetrics.PortfolioBeta)
}

func TestAnalyzeSellCandidates(t *testing.T) {
	marketData := map[string]*market.Quote{
		"AAPL": {CurrentPrice: 150, PERatio: fptr(35)},
		"MSFT": {CurrentPrice: 100, PERatio: fptr(20), Beta: fptr(1.0), Volatility: fptr(0.1)},
		"TSLA": {CurrentPrice: 200, Volatility: fptr(0.6), Beta: fptr(1.6)},
	}
	data := portfolio.Data{Holdings: map[string]float64{"AAPL": 1, "MSFT": 1, "TSLA": 1}}

	got := Analyze(marketData, data, []string{IntentRecommend}, nil, "should I sell anything")

	require.Len(t, got.Recommendations, 2)
	assert.Equal(t, "AAPL", got.Recommendations[0].Ticker)
	assert.Equal(t, "sell", got.Recommendations[0].Action)
	assert.Equal(t, "high PE (35.00)", got.Recommendations[0].Reason)
	assert.Equal(t, "TSLA", got.Recommendations[1].Ticker)
	assert.Equal(t, "high volatility (0.60), high beta (1.60)", got.Recommendations[1].Reason)
}

func TestAnalyzeSellNoCandidates(t *testing.T) {
	marketData := map[string]*market.Quote{
		"MSFT": {CurrentPrice: 100, PERatio: fptr(20), Beta: fptr(1.0), Volatility: fptr(0.1)},
	}
	data := portfolio.Data{Holdings: map[string]float64{"MSFT": 1}}

	got := Analyze(marketData, data, []string{IntentRecommend}, nil, "should I sell anything")

	require.Len(t, got.Recommendations, 1)
	assert.Equal(t, "hold", got.Recommendations[0].Action)
	assert.Empty(t, got.Recommendations[0].Ticker)
}

func TestAnalyzeBuyAdvice(t *testing.T) {
	got := Analyze(nil, portfolio.Data{}, []string{IntentRecommend}, nil, "what should I buy")

	require.Len(t, got.Recommendations, 1)
	assert.Equal(t, "consult", got.Recommendations[0].Action)
	assert.Empty(t, got.Recommendations[0].Ticker)
}

func TestAnalyzeCompare(t *testing.T) {
	marketData := map[string]*market.Quote{
		"AAPL": {CurrentPrice: 150, PERatio: fptr(25)},
	}

	got := Analyze(marketData, portfolio.Data{}, []string{IntentCompare}, []string{"AAPL", "MSFT"}, "compare apple and microsoft")

	require.Len(t, got.Comparisons, 2)
	assert.Equal(t, 150.0, got.Comparisons["AAPL"].CurrentPrice)
	// Missing quote falls back to the default price.
	assert.Equal(t, 100.0, got.Comparisons["MSFT"].CurrentPrice)
	assert.Nil(t, got.Comparisons["MSFT"].PERatio)
}

func TestAnalyzeIsPure(t *testing.T) {
	quote := &market.Quote{CurrentPrice: 150}
	marketData := map[string]*market.Quote{"AAPL": quote}
	data := portfolio.Data{Holdings: map[string]float64{"AAPL": 10}}

	_ = Analyze(marketData, data, []string{IntentPortfolio}, nil, "my portfolio")

	assert.Equal(t, &market.Quote{CurrentPrice: 150}, quote)
	assert.Equal(t, map[string]float64{"AAPL": 10}, data.Holdings)
}

func TestAnalyzeSkipsUnrequestedSections(t *testing.T) {
	got := Analyze(nil, portfolio.Data{}, []string{IntentPrice}, []string{"AAPL"}, "apple price")

	assert.Empty(t, got.PortfolioMetrics.Holdings)
	assert.Empty(t, got.Comparisons)
	assert.Empty(t, got.Recommendations)
}
