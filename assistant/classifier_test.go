package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTickers = map[string]string{
	"apple":     "AAPL",
	"microsoft": "MSFT",
	"tesla":     "TSLA",
	"samsung":   "005930.KS",
}

type stubGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

func TestClassifyKeywords(t *testing.T) {
	c := NewClassifier(testTickers)

	tests := []struct {
		name      string
		transcript string
		intents   []string
		companies []string
	}{
		{
			name:       "price",
			transcript: "What is the price of Apple stock?",
			intents:    []string{IntentPrice},
			companies:  []string{"AAPL"},
		},
		{
			name:       "portfolio",
			transcript: "Show my portfolio balance",
			intents:    []string{IntentPortfolio},
		},
		{
			name:       "compare",
			transcript: "Compare Apple versus Microsoft",
			intents:    []string{IntentCompare},
			companies:  []string{"AAPL", "MSFT"},
		},
		{
			name:       "recommend",
			transcript: "Should I sell my Tesla shares?",
			intents:    []string{IntentRecommend},
			companies:  []string{"TSLA"},
		},
		{
			name:       "multi intent",
			transcript: "What is the stock price and should I sell?",
			intents:    []string{IntentRecommend, IntentPrice},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(context.Background(), tt.transcript)
			assert.Equal(t, tt.intents, got.Intents)
			assert.Equal(t, tt.companies, got.Companies)
			assert.Empty(t, got.Err)
		})
	}
}

func TestClassifyTickerMention(t *testing.T) {
	c := NewClassifier(testTickers)

	tests := []struct {
		transcript string
		companies  []string
	}{
		{"what is the price of AAPL stock", []string{"AAPL"}},
		{"compare aapl versus msft", []string{"AAPL", "MSFT"}},
		{"how much is 005930.KS stock worth", []string{"005930.KS"}},
	}
	for _, tt := range tests {
		got := c.Classify(context.Background(), tt.transcript)
		assert.Equal(t, tt.companies, got.Companies, "transcript %q", tt.transcript)
	}
}

func TestClassifyTimeQuery(t *testing.T) {
	c := NewClassifier(testTickers)
	got := c.Classify(context.Background(), "Apple stock price 3 weeks ago")
	assert.Equal(t, "3 weeks ago", got.TimeQuery)
}

func TestClassifyEmptyTranscript(t *testing.T) {
	c := NewClassifier(testTickers)
	got := c.Classify(context.Background(), "   ")
	assert.Equal(t, []string{IntentError}, got.Intents)
	assert.Equal(t, "No transcript generated from audio.", got.Err)
}

func TestClassifyNoMatch(t *testing.T) {
	c := NewClassifier(testTickers)
	got := c.Classify(context.Background(), "tell me a joke")
	assert.Equal(t, []string{IntentError}, got.Intents)
	assert.Equal(t, "Intent classification failed", got.Err)
}

func TestClassifyModelPassUnion(t *testing.T) {
	gen := &stubGenerator{
		reply: `{"intents": ["compare"], "companies": ["microsoft"], "time_query": ""}`,
	}
	c := NewClassifier(testTickers, WithGenerator(gen))

	got := c.Classify(context.Background(), "how does apple stack up")
	require.Len(t, gen.prompts, 1)
	assert.Equal(t, []string{IntentCompare}, got.Intents)
	assert.Equal(t, []string{"AAPL", "MSFT"}, got.Companies)
}

func TestClassifyRepairsModelOutput(t *testing.T) {
	gen := &stubGenerator{
		reply: "```json\n{\"intents\": [\"price\"], \"companies\": [\"AAPL\"],}\n```",
	}
	c := NewClassifier(testTickers, WithGenerator(gen))

	got := c.Classify(context.Background(), "how is the market")
	assert.Equal(t, []string{IntentPrice}, got.Intents)
	assert.Equal(t, []string{"AAPL"}, got.Companies)
}

func TestClassifyModelFailureKeepsKeywordResult(t *testing.T) {
	gen := &stubGenerator{err: errors.New("model unavailable")}
	c := NewClassifier(testTickers, WithGenerator(gen))

	got := c.Classify(context.Background(), "what is the price of apple")
	assert.Equal(t, []string{IntentPrice}, got.Intents)
	assert.Equal(t, []string{"AAPL"}, got.Companies)
	assert.Empty(t, got.Err)
}

func TestClassifyIgnoresUnknownModelLabels(t *testing.T) {
	gen := &stubGenerator{
		reply: `{"intents": ["price", "weather"], "companies": ["enron", "TSLA"]}`,
	}
	c := NewClassifier(testTickers, WithGenerator(gen))

	got := c.Classify(context.Background(), "how is tesla doing")
	assert.Equal(t, []string{IntentPrice}, got.Intents)
	assert.Equal(t, []string{"TSLA"}, got.Companies)
}
