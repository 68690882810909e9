package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultAlphaVantageBaseURL = "https://www.alphavantage.co"

var _ Provider = (*AlphaVantageClient)(nil)

// AlphaVantageClient is the primary quote provider.
type AlphaVantageClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// AlphaVantageOption configures an AlphaVantageClient.
type AlphaVantageOption func(*AlphaVantageClient)

// WithAlphaVantageBaseURL overrides the API endpoint.
func WithAlphaVantageBaseURL(baseURL string) AlphaVantageOption {
	return func(c *AlphaVantageClient) {
		c.baseURL = baseURL
	}
}

// WithAlphaVantageHTTPClient overrides the HTTP client.
func WithAlphaVantageHTTPClient(client *http.Client) AlphaVantageOption {
	return func(c *AlphaVantageClient) {
		c.httpClient = client
	}
}

// NewAlphaVantageClient creates a client with the given API key.
func NewAlphaVantageClient(apiKey string, opts ...AlphaVantageOption) *AlphaVantageClient {
	c := &AlphaVantageClient{
		apiKey:     apiKey,
		baseURL:    defaultAlphaVantageBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Provider.
func (c *AlphaVantageClient) Name() string {
	return "AlphaVantage"
}

type avGlobalQuote struct {
	GlobalQuote map[string]string `json:"Global Quote"`
}

type avOverview struct {
	PERatio    string `json:"PERatio"`
	Beta       string `json:"Beta"`
	Volatility string `json:"Volatility"`
}

type avDaily struct {
	TimeSeries map[string]map[string]string `json:"Time Series (Daily)"`
}

// Quote implements Provider. It combines the GLOBAL_QUOTE, OVERVIEW and,
// when histDays > 0, TIME_SERIES_DAILY endpoints.
func (c *AlphaVantageClient) Quote(ctx context.Context, symbol string, histDays int) (*Quote, error) {
	avSymbol := symbol
	if !strings.Contains(avSymbol, ".") {
		avSymbol += ".US"
	}

	var raw avGlobalQuote
	if err := c.get(ctx, url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {avSymbol},
	}, &raw); err != nil {
		return nil, err
	}
	if len(raw.GlobalQuote) == 0 {
		return nil, fmt.Errorf("alphavantage: no data in Global Quote for %s", symbol)
	}
	price, err := strconv.ParseFloat(raw.GlobalQuote["05. price"], 64)
	if err != nil {
		return nil, fmt.Errorf("alphavantage: bad price for %s: %w", symbol, err)
	}
	quote := &Quote{
		CurrentPrice:  price,
		ChangePercent: raw.GlobalQuote["10. change percent"],
		Timestamp:     raw.GlobalQuote["07. latest trading day"],
	}
	if quote.ChangePercent == "" {
		quote.ChangePercent = "0%"
	}
	if quote.Timestamp == "" {
		quote.Timestamp = time.Now().Format("2006-01-02")
	}

	if histDays > 0 {
		var daily avDaily
		if err := c.get(ctx, url.Values{
			"function": {"TIME_SERIES_DAILY"},
			"symbol":   {avSymbol},
		}, &daily); err == nil {
			date := time.Now().AddDate(0, 0, -histDays).Format("2006-01-02")
			if day, ok := daily.TimeSeries[date]; ok {
				if close, err := strconv.ParseFloat(day["4. close"], 64); err == nil {
					quote.HistoricalPrice = &close
				}
			}
		}
	}

	var overview avOverview
	if err := c.get(ctx, url.Values{
		"function": {"OVERVIEW"},
		"symbol":   {avSymbol},
	}, &overview); err == nil {
		quote.PERatio = parseAVFloat(overview.PERatio)
		quote.Beta = parseAVFloat(overview.Beta)
		quote.Volatility = parseAVFloat(overview.Volatility)
	}
	return quote, nil
}

func (c *AlphaVantageClient) get(ctx context.Context, params url.Values, out any) error {
	params.Set("apikey", c.apiKey)
	endpoint := fmt.Sprintf("%s/query?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("alphavantage request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("alphavantage fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("alphavantage: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("alphavantage decode: %w", err)
	}
	return nil
}

// parseAVFloat converts Alpha Vantage numeric strings. The API reports
// missing values as "None" or an empty string.
func parseAVFloat(s string) *float64 {
	if s == "" || s == "None" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
