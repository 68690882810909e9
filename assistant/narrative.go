package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/voicefin/voicefin/llm"
	"github.com/voicefin/voicefin/log"
	"github.com/voicefin/voicefin/market"
	"github.com/voicefin/voicefin/retrieval"
)

const fallbackNarrative = "Sorry, I couldn't process your query. Please try rephrasing."

// newsTriggerWords mark a price question as a "why" question that needs
// news context in both routing and narration.
var newsTriggerWords = []string{"why", "rising", "falling", "up", "down"}

// wantsNewsContext reports whether the transcript asks for the cause of a
// price movement rather than just the number.
func wantsNewsContext(transcript string) bool {
	lowered := strings.ToLower(transcript)
	for _, word := range newsTriggerWords {
		if strings.Contains(lowered, word) {
			return true
		}
	}
	return false
}

// NarrativeInput carries everything one narration needs.
type NarrativeInput struct {
	Intents    []string
	Transcript string
	MarketData map[string]*market.Quote
	Analysis   Analysis
	Documents  []retrieval.Document
	Err        string
}

// Narrator turns analysis results into spoken-style text, one segment per
// intent, in a fixed intent order. A failed segment degrades to a
// placeholder; the narrative is never empty.
type Narrator struct {
	generator    llm.Generator
	displayNames map[string]string // ticker -> company name
}

// NewNarrator builds a narrator. displayNames maps tickers to the names
// used in prompts so the model speaks about companies, not symbols.
func NewNarrator(generator llm.Generator, displayNames map[string]string) *Narrator {
	return &Narrator{generator: generator, displayNames: displayNames}
}

// Narrate produces the narrative for one run.
func (n *Narrator) Narrate(ctx context.Context, input NarrativeInput) string {
	var segments []string
	for _, intent := range intentOrder {
		if !hasIntent(input.Intents, intent) {
			continue
		}
		prompt := n.buildPrompt(intent, input)
		segment, err := n.generator.Generate(ctx, prompt)
		if err != nil || strings.TrimSpace(segment) == "" {
			log.Warnf("narrator: %s segment failed: %v", intent, err)
			segment = fmt.Sprintf("Error generating response for %s.", intent)
		}
		segments = append(segments, strings.TrimSpace(segment))
	}
	if len(segments) == 0 {
		return fallbackNarrative
	}
	return strings.Join(segments, " ")
}

// promptStyle is prepended to every segment prompt: the reply is spoken
// aloud, so it must stay short and use company names, not symbols.
const promptStyle = "You are a financial advisor speaking aloud. Answer in under 100 words, conversationally, using company names rather than ticker symbols."

func (n *Narrator) buildPrompt(intent string, input NarrativeInput) string {
	switch intent {
	case IntentPrice:
		prompt := fmt.Sprintf(
			"%s\nSummarize the following stock data for the question %q:\n%s",
			promptStyle, input.Transcript, n.formatMarketData(input.MarketData))
		if wantsNewsContext(input.Transcript) && len(input.Documents) > 0 {
			prompt += fmt.Sprintf("\nRelevant news:\n%s", formatDocuments(input.Documents))
		}
		return prompt
	case IntentPortfolio:
		return fmt.Sprintf(
			"%s\nSummarize this portfolio for the question %q:\n%s",
			promptStyle, input.Transcript, n.formatPortfolio(input.Analysis.PortfolioMetrics))
	case IntentCompare:
		return fmt.Sprintf(
			"%s\nCompare these companies for the question %q:\n%s",
			promptStyle, input.Transcript, n.formatComparisons(input.Analysis.Comparisons))
	case IntentRecommend:
		return fmt.Sprintf(
			"%s\nExplain these recommendations for the question %q. Do not invent new advice:\n%s",
			promptStyle, input.Transcript, n.formatRecommendations(input.Analysis.Recommendations))
	case IntentError:
		return fmt.Sprintf(
			"%s\nPolitely explain to the user that their request could not be handled: %s",
			promptStyle, input.Err)
	}
	return fmt.Sprintf("%s\nPolitely answer the user query: %q", promptStyle, input.Transcript)
}

// displayName resolves a ticker to its company name, falling back to the
// ticker itself.
func (n *Narrator) displayName(ticker string) string {
	if name, ok := n.displayNames[ticker]; ok {
		return name
	}
	return ticker
}

func (n *Narrator) formatMarketData(data map[string]*market.Quote) string {
	named := make(map[string]*market.Quote, len(data))
	for ticker, quote := range data {
		named[n.displayName(ticker)] = quote
	}
	return toJSON(named)
}

func (n *Narrator) formatPortfolio(metrics PortfolioMetrics) string {
	holdings := make(map[string]Holding, len(metrics.Holdings))
	for ticker, holding := range metrics.Holdings {
		holdings[n.displayName(ticker)] = holding
	}
	renamed := metrics
	renamed.Holdings = holdings
	return toJSON(renamed)
}

func (n *Narrator) formatComparisons(comparisons map[string]Comparison) string {
	named := make(map[string]Comparison, len(comparisons))
	for ticker, comparison := range comparisons {
		named[n.displayName(ticker)] = comparison
	}
	return toJSON(named)
}

func (n *Narrator) formatRecommendations(recs []Recommendation) string {
	renamed := make([]Recommendation, 0, len(recs))
	for _, rec := range recs {
		if rec.Ticker != "" {
			rec.Ticker = n.displayName(rec.Ticker)
		}
		renamed = append(renamed, rec)
	}
	return toJSON(renamed)
}

func formatDocuments(docs []retrieval.Document) string {
	var b strings.Builder
	for i, doc := range docs {
		fmt.Fprintf(&b, "%d. [%s] %s: %s\n", i+1, doc.Metadata.Company, doc.Metadata.Title, doc.Content)
	}
	return b.String()
}

func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
