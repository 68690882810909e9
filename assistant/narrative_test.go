package assistant

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicefin/voicefin/market"
	"github.com/voicefin/voicefin/retrieval"
)

// countingGenerator numbers its replies so segment order is observable.
type countingGenerator struct {
	prompts []string
}

func (c *countingGenerator) Generate(_ context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	return fmt.Sprintf("segment %d", len(c.prompts)), nil
}

func TestNarrateIntentOrder(t *testing.T) {
	gen := &countingGenerator{}
	n := NewNarrator(gen, nil)

	got := n.Narrate(context.Background(), NarrativeInput{
		Intents:    []string{IntentPrice, IntentPortfolio},
		Transcript: "apple price and my portfolio",
	})

	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[0], "portfolio")
	assert.Contains(t, gen.prompts[1], "stock data")
	assert.Equal(t, "segment 1 segment 2", got)
}

func TestNarrateSegmentFailurePlaceholder(t *testing.T) {
	gen := &stubGenerator{err: errors.New("model down")}
	n := NewNarrator(gen, nil)

	got := n.Narrate(context.Background(), NarrativeInput{
		Intents:    []string{IntentPrice},
		Transcript: "apple price",
	})

	assert.Equal(t, "Error generating response for price.", got)
}

func TestNarrateFallbackWhenNoIntents(t *testing.T) {
	gen := &stubGenerator{reply: "unused"}
	n := NewNarrator(gen, nil)

	got := n.Narrate(context.Background(), NarrativeInput{Transcript: "hello"})

	assert.Equal(t, fallbackNarrative, got)
	assert.Empty(t, gen.prompts)
}

func TestNarratePriceIncludesNewsForWhyQuestions(t *testing.T) {
	gen := &countingGenerator{}
	n := NewNarrator(gen, nil)

	docs := []retrieval.Document{{
		Content:  "Supply chain issues hit production.",
		Metadata: retrieval.Metadata{Company: "AAPL", Title: "Production woes"},
	}}
	n.Narrate(context.Background(), NarrativeInput{
		Intents:    []string{IntentPrice},
		Transcript: "why is apple stock falling",
		Documents:  docs,
	})

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Relevant news")
	assert.Contains(t, gen.prompts[0], "Production woes")
}

func TestNarratePriceOmitsNewsWithoutTrigger(t *testing.T) {
	gen := &countingGenerator{}
	n := NewNarrator(gen, nil)

	docs := []retrieval.Document{{Content: "irrelevant"}}
	n.Narrate(context.Background(), NarrativeInput{
		Intents:    []string{IntentPrice},
		Transcript: "what is the apple stock price",
		Documents:  docs,
	})

	require.Len(t, gen.prompts, 1)
	assert.NotContains(t, gen.prompts[0], "Relevant news")
}

func TestNarrateUsesDisplayNames(t *testing.T) {
	gen := &countingGenerator{}
	n := NewNarrator(gen, map[string]string{"AAPL": "Apple"})

	n.Narrate(context.Background(), NarrativeInput{
		Intents:    []string{IntentPrice},
		Transcript: "apple stock price",
		MarketData: map[string]*market.Quote{"AAPL": {CurrentPrice: 150}},
	})

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], `"Apple"`)
	assert.NotContains(t, gen.prompts[0], `"AAPL"`)
}

func TestNarrateErrorIntent(t *testing.T) {
	gen := &countingGenerator{}
	n := NewNarrator(gen, nil)

	n.Narrate(context.Background(), NarrativeInput{
		Intents: []string{IntentError},
		Err:     "No transcript generated from audio.",
	})

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "No transcript generated from audio.")
}
