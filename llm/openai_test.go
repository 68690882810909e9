package llm

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

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "gpt-4o-mini", payload["model"])

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices": [{"message": {"role": "assistant", "content": "  Apple closed at $150.25.  "}}]}`)
	}))
	defer server.Close()

	g := NewOpenAIGenerator(WithAPIKey("sk-test"), WithBaseURL(server.URL+"/"))
	got, err := g.Generate(context.Background(), "summarize apple")
	require.NoError(t, err)
	assert.Equal(t, "Apple closed at $150.25.", got)
}

func TestGenerateNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices": []}`)
	}))
	defer server.Close()

	g := NewOpenAIGenerator(WithAPIKey("sk-test"), WithBaseURL(server.URL+"/"))
	_, err := g.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"message": "boom"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	g := NewOpenAIGenerator(WithAPIKey("sk-test"), WithBaseURL(server.URL+"/"))
	_, err := g.Generate(context.Background(), "prompt")
	assert.Error(t, err)
}
