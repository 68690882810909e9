package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "text-embedding-3-small", payload["model"])
		assert.Equal(t, []any{"query", "candidate"}, payload["input"])

		w.Header().Set("Content-Type", "application/json")
		// Out-of-order data must land at the right index.
		fmt.Fprint(w, `{"data": [
			{"index": 1, "embedding": [0.4, 0.5, 0.6]},
			{"index": 0, "embedding": [0.1, 0.2, 0.3]}
		]}`)
	}))
	defer server.Close()

	e := NewOpenAIEmbedder(WithAPIKey("sk-test"), WithBaseURL(server.URL+"/"))
	got, err := e.Embed(context.Background(), []string{"query", "candidate"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, got[0])
	assert.Equal(t, []float64{0.4, 0.5, 0.6}, got[1])
}

func TestEmbedNoTexts(t *testing.T) {
	e := NewOpenAIEmbedder(WithAPIKey("sk-test"))
	got, err := e.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}
