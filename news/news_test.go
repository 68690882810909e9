package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func articlesJSON(n int) string {
	items := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, fmt.Sprintf(
			`{"title": "Headline %d", "description": "Body %d", "url": "https://example.com/%d"}`, i, i, i))
	}
	return fmt.Sprintf(`{"status": "ok", "articles": [%s]}`, strings.Join(items, ","))
}

func TestFetchAll(t *testing.T) {
	var queries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/everything", r.URL.Path)
		query := r.URL.Query()
		queries = append(queries, query.Get("q"))
		assert.Equal(t, "test-key", query.Get("apiKey"))
		assert.Equal(t, "relevancy", query.Get("sortBy"))
		assert.Equal(t, time.Now().Add(-30*24*time.Hour).Format("2006-01-02"), query.Get("from"))
		fmt.Fprint(w, articlesJSON(2))
	}))
	defer server.Close()

	c := NewClient("test-key", WithBaseURL(server.URL))
	got := c.FetchAll(context.Background(), []string{"AAPL", "MSFT"})

	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, queries)
	require.Len(t, got["AAPL"], 2)
	assert.Equal(t, "Headline 1", got["AAPL"][0].Title)
	assert.Equal(t, "Body 1", got["AAPL"][0].Content)
	assert.Equal(t, "https://example.com/1", got["AAPL"][0].URL)
}

func TestFetchAllCapsArticles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, articlesJSON(9))
	}))
	defer server.Close()

	c := NewClient("test-key", WithBaseURL(server.URL))
	got := c.FetchAll(context.Background(), []string{"AAPL"})

	assert.Len(t, got["AAPL"], 5)
}

func TestFetchAllDegradesPerCompany(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "MSFT" {
			fmt.Fprint(w, `{"status": "error", "message": "rate limited"}`)
			return
		}
		fmt.Fprint(w, articlesJSON(1))
	}))
	defer server.Close()

	c := NewClient("test-key", WithBaseURL(server.URL))
	got := c.FetchAll(context.Background(), []string{"AAPL", "MSFT"})

	assert.Len(t, got["AAPL"], 1)
	require.Contains(t, got, "MSFT")
	assert.Empty(t, got["MSFT"])
}

func TestFetchAllNoCompanies(t *testing.T) {
	c := NewClient("test-key")
	got := c.FetchAll(context.Background(), nil)
	assert.Empty(t, got)
}
