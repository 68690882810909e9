// Package news fetches recent articles for companies from NewsAPI.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/voicefin/voicefin/log"
)

const (
	defaultBaseURL = "https://newsapi.org"

	// maxArticlesPerCompany bounds each company's article list.
	maxArticlesPerCompany = 5

	// lookback is how far back the search reaches.
	lookback = 30 * 24 * time.Hour
)

// Article is one news item.
type Article struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// Client talks to NewsAPI.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient creates a news client with the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type everythingResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
	} `json:"articles"`
}

// FetchAll fetches articles for every company. A per-company failure
// degrades to an empty slice; FetchAll itself never fails.
func (c *Client) FetchAll(ctx context.Context, companies []string) map[string][]Article {
	newsData := make(map[string][]Article, len(companies))
	for _, company := range companies {
		articles, err := c.fetch(ctx, company)
		if err != nil {
			log.Warnf("news fetch for %s failed: %v", company, err)
			newsData[company] = []Article{}
			continue
		}
		newsData[company] = articles
	}
	return newsData
}

func (c *Client) fetch(ctx context.Context, company string) ([]Article, error) {
	params := url.Values{
		"q":      {company},
		"apiKey": {c.apiKey},
		"from":   {time.Now().Add(-lookback).Format("2006-01-02")},
		"sortBy": {"relevancy"},
	}
	endpoint := fmt.Sprintf("%s/v2/everything?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi fetch: %w", err)
	}
	defer resp.Body.Close()

	var raw everythingResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("newsapi decode: %w", err)
	}
	if raw.Status != "ok" {
		return nil, fmt.Errorf("newsapi: %s", raw.Message)
	}

	limit := len(raw.Articles)
	if limit > maxArticlesPerCompany {
		limit = maxArticlesPerCompany
	}
	articles := make([]Article, 0, limit)
	for _, item := range raw.Articles[:limit] {
		articles = append(articles, Article{
			Title:   item.Title,
			Content: item.Description,
			URL:     item.URL,
		})
	}
	return articles, nil
}
