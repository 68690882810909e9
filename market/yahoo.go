package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

var _ Provider = (*YahooClient)(nil)

// YahooClient is the fallback quote provider, backed by the public chart
// endpoint. It fills price, change and a historical close; fundamentals
// stay unknown on the fallback path.
type YahooClient struct {
	baseURL    string
	httpClient *http.Client
}

// YahooOption configures a YahooClient.
type YahooOption func(*YahooClient)

// WithYahooBaseURL overrides the API endpoint.
func WithYahooBaseURL(baseURL string) YahooOption {
	return func(c *YahooClient) {
		c.baseURL = baseURL
	}
}

// WithYahooHTTPClient overrides the HTTP client.
func WithYahooHTTPClient(client *http.Client) YahooOption {
	return func(c *YahooClient) {
		c.httpClient = client
	}
}

// NewYahooClient creates a fallback client.
func NewYahooClient(opts ...YahooOption) *YahooClient {
	c := &YahooClient{
		baseURL:    defaultYahooBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Provider.
func (c *YahooClient) Name() string {
	return "Yahoo"
}

type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Open  []float64 `json:"open"`
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Quote implements Provider.
func (c *YahooClient) Quote(ctx context.Context, symbol string, histDays int) (*Quote, error) {
	today, err := c.chart(ctx, symbol, "1d")
	if err != nil {
		return nil, err
	}
	opens, closes := today.series()
	if len(closes) == 0 {
		return nil, fmt.Errorf("yahoo: no price data for %s", symbol)
	}
	quote := &Quote{
		CurrentPrice:  closes[len(closes)-1],
		ChangePercent: "0%",
		Timestamp:     time.Now().Format("2006-01-02"),
	}
	if len(opens) > 0 && opens[0] != 0 {
		quote.ChangePercent = fmt.Sprintf("%.2f%%", (closes[len(closes)-1]-opens[0])/opens[0]*100)
	}

	if histDays > 0 {
		hist, err := c.chart(ctx, symbol, rangeForDays(histDays))
		if err == nil {
			if _, histCloses := hist.series(); len(histCloses) > 0 {
				first := histCloses[0]
				quote.HistoricalPrice = &first
			}
		}
	}
	return quote, nil
}

func (c *YahooClient) chart(ctx context.Context, symbol, chartRange string) (*yahooChart, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d", c.baseURL, symbol, chartRange)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("yahoo request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: unexpected status %d", resp.StatusCode)
	}
	var chart yahooChart
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo: %s", chart.Chart.Error.Description)
	}
	return &chart, nil
}

func (c *yahooChart) series() (opens, closes []float64) {
	if len(c.Chart.Result) == 0 || len(c.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}
	q := c.Chart.Result[0].Indicators.Quote[0]
	return q.Open, q.Close
}

func rangeForDays(days int) string {
	switch {
	case days <= 1:
		return "1d"
	case days <= 7:
		return "5d"
	case days <= 30:
		return "1mo"
	default:
		return "1y"
	}
}
