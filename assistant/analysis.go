package assistant

import (
	"fmt"
	"sort"
	"strings"

	"github.com/voicefin/voicefin/market"
	"github.com/voicefin/voicefin/portfolio"
)

// defaultPrice stands in for a symbol whose quote is missing so portfolio
// math still produces a complete result.
const defaultPrice = 100.0

// Sell-candidate thresholds.
const (
	sellPEThreshold         = 30.0
	sellVolatilityThreshold = 0.5
	sellBetaThreshold       = 1.5
)

// Holding is one position valued against current market data.
type Holding struct {
	Shares     float64  `json:"shares"`
	Value      float64  `json:"value"`
	PERatio    *float64 `json:"pe_ratio,omitempty"`
	Beta       *float64 `json:"beta,omitempty"`
	Volatility *float64 `json:"volatility,omitempty"`
	Allocation string   `json:"allocation"`
	Error      string   `json:"error,omitempty"`
}

// PortfolioMetrics aggregates the valued holdings.
type PortfolioMetrics struct {
	Holdings      map[string]Holding `json:"holdings"`
	TotalValue    float64            `json:"total_value"`
	PortfolioPE   *float64           `json:"portfolio_pe,omitempty"`
	PortfolioBeta *float64           `json:"portfolio_beta,omitempty"`
}

// Comparison is the trimmed per-company record used for side-by-side
// questions.
type Comparison struct {
	CurrentPrice float64  `json:"current_price"`
	PERatio      *float64 `json:"pe_ratio,omitempty"`
	Beta         *float64 `json:"beta,omitempty"`
}

// Recommendation is a single buy/sell suggestion. Ticker is empty for
// portfolio-wide advice.
type Recommendation struct {
	Ticker string `json:"ticker,omitempty"`
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// Analysis is the full output of Analyze. Sections the intents did not ask
// for stay at their zero values.
type Analysis struct {
	PortfolioMetrics PortfolioMetrics      `json:"portfolio_metrics"`
	Comparisons      map[string]Comparison `json:"comparisons,omitempty"`
	Recommendations  []Recommendation      `json:"recommendations,omitempty"`
}

// Analyze derives portfolio metrics, comparisons and recommendations from
// market data. It is a pure function of its inputs; quotes with errors or
// missing fields degrade to defaults instead of failing the run.
func Analyze(marketData map[string]*market.Quote, portfolioData portfolio.Data, intents, companies []string, transcript string) Analysis {
	analysis := Analysis{}

	if hasIntent(intents, IntentPortfolio) || hasIntent(intents, IntentRecommend) {
		analysis.PortfolioMetrics = analyzePortfolio(marketData, portfolioData)
	}
	if hasIntent(intents, IntentCompare) {
		analysis.Comparisons = compareCompanies(marketData, companies)
	}
	if hasIntent(intents, IntentRecommend) {
		analysis.Recommendations = recommend(analysis.PortfolioMetrics, transcript)
	}
	return analysis
}

func analyzePortfolio(marketData map[string]*market.Quote, portfolioData portfolio.Data) PortfolioMetrics {
	metrics := PortfolioMetrics{Holdings: map[string]Holding{}}
	var peValues, betaValues []float64

	tickers := make([]string, 0, len(portfolioData.Holdings))
	for ticker := range portfolioData.Holdings {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	for _, ticker := range tickers {
		shares := portfolioData.Holdings[ticker]
		quote := marketData[ticker]

		holding := Holding{Shares: shares}
		price := 0.0
		if quote != nil {
			price = quote.CurrentPrice
			holding.PERatio = quote.PERatio
			holding.Beta = quote.Beta
			holding.Volatility = quote.Volatility
			holding.Error = quote.Error
		}
		if price == 0 {
			price = defaultPrice
			if holding.Error == "" {
				holding.Error = "Using default price due to missing data"
			}
		}
		holding.Value = shares * price
		metrics.TotalValue += holding.Value
		metrics.Holdings[ticker] = holding

		if holding.PERatio != nil {
			peValues = append(peValues, *holding.PERatio)
		}
		if holding.Beta != nil {
			betaValues = append(betaValues, *holding.Beta)
		}
	}

	for ticker, holding := range metrics.Holdings {
		allocation := 0.0
		if metrics.TotalValue > 0 {
			allocation = holding.Value / metrics.TotalValue * 100
		}
		holding.Allocation = fmt.Sprintf("%.2f%%", allocation)
		metrics.Holdings[ticker] = holding
	}

	if avg, ok := mean(peValues); ok {
		metrics.PortfolioPE = &avg
	}
	if avg, ok := mean(betaValues); ok {
		metrics.PortfolioBeta = &avg
	}
	return metrics
}

func compareCompanies(marketData map[string]*market.Quote, companies []string) map[string]Comparison {
	comparisons := make(map[string]Comparison, len(companies))
	for _, ticker := range companies {
		comparison := Comparison{CurrentPrice: defaultPrice}
		if quote := marketData[ticker]; quote != nil {
			if quote.CurrentPrice != 0 {
				comparison.CurrentPrice = quote.CurrentPrice
			}
			comparison.PERatio = quote.PERatio
			comparison.Beta = quote.Beta
		}
		comparisons[ticker] = comparison
	}
	return comparisons
}

func recommend(metrics PortfolioMetrics, transcript string) []Recommendation {
	lowered := strings.ToLower(transcript)
	switch {
	case strings.Contains(lowered, "sell"):
		return sellCandidates(metrics)
	case strings.Contains(lowered, "buy"):
		return []Recommendation{{
			Action: "consult",
			Reason: "Consult a financial advisor for personalized buy recommendations.",
		}}
	}
	return nil
}

func sellCandidates(metrics PortfolioMetrics) []Recommendation {
	tickers := make([]string, 0, len(metrics.Holdings))
	for ticker := range metrics.Holdings {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	var recs []Recommendation
	for _, ticker := range tickers {
		holding := metrics.Holdings[ticker]
		var reasons []string
		if holding.PERatio != nil && *holding.PERatio > sellPEThreshold {
			reasons = append(reasons, fmt.Sprintf("high PE (%.2f)", *holding.PERatio))
		}
		if holding.Volatility != nil && *holding.Volatility > sellVolatilityThreshold {
			reasons = append(reasons, fmt.Sprintf("high volatility (%.2f)", *holding.Volatility))
		}
		if holding.Beta != nil && *holding.Beta > sellBetaThreshold {
			reasons = append(reasons, fmt.Sprintf("high beta (%.2f)", *holding.Beta))
		}
		if len(reasons) > 0 {
			recs = append(recs, Recommendation{
				Ticker: ticker,
				Action: "sell",
				Reason: strings.Join(reasons, ", "),
			})
		}
	}
	if len(recs) == 0 {
		recs = append(recs, Recommendation{
			Action: "hold",
			Reason: "No holdings currently meet the sell criteria.",
		})
	}
	return recs
}

func mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}
