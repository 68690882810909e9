package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/voicefin/voicefin/llm"
	"github.com/voicefin/voicefin/log"
)

// Keyword lists for the deterministic classification pass. A transcript
// matches an intent when any keyword appears as a substring of the
// lowercased text.
var intentKeywords = map[string][]string{
	IntentPortfolio: {"portfolio", "balance", "holdings", "investment"},
	IntentCompare:   {"compare", "versus", "vs"},
	IntentRecommend: {"recommend", "sell", "buy", "should i"},
	IntentPrice:     {"price", "stock", "value", "cost"},
}

// intentOrder fixes the order intents appear in the result regardless of
// which pass produced them.
var intentOrder = []string{IntentPortfolio, IntentCompare, IntentRecommend, IntentPrice, IntentError}

var timeQueryPattern = regexp.MustCompile(`(\d+)\s*(day|week|month|year)s?\s*ago`)

const classifyPromptTemplate = `Analyze the following user query about financial markets and classify it.

Query: %q

Known companies and their tickers: %s

Respond with a single JSON object, no prose:
{"intents": ["price"|"portfolio"|"compare"|"recommend"], "companies": ["<ticker>"], "time_query": "<relative time phrase or empty>"}`

// Classification is the outcome of classifying one transcript.
type Classification struct {
	Intents   []string
	Companies []string
	TimeQuery string
	Err       string
}

// Classifier extracts intents, company tickers and a relative time phrase
// from a transcript. A keyword pass always runs; a model-assisted pass
// refines it when a generator is configured. The classifier never fails a
// run: when nothing can be extracted it reports the error intent.
type Classifier struct {
	generator llm.Generator
	tickers   map[string]string // lowercased company name -> ticker
	names     []string          // sorted keys of tickers
	symbols   []string          // sorted lowercased ticker values
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithGenerator enables the model-assisted pass.
func WithGenerator(g llm.Generator) ClassifierOption {
	return func(c *Classifier) { c.generator = g }
}

// NewClassifier builds a classifier over the company-to-ticker map.
func NewClassifier(tickerMap map[string]string, opts ...ClassifierOption) *Classifier {
	c := &Classifier{tickers: make(map[string]string, len(tickerMap))}
	for name, ticker := range tickerMap {
		c.tickers[strings.ToLower(name)] = strings.ToUpper(ticker)
	}
	c.names = make([]string, 0, len(c.tickers))
	for name := range c.tickers {
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)
	seen := make(map[string]bool, len(c.tickers))
	for _, ticker := range c.tickers {
		lowered := strings.ToLower(ticker)
		if !seen[lowered] {
			seen[lowered] = true
			c.symbols = append(c.symbols, lowered)
		}
	}
	sort.Strings(c.symbols)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify runs both passes over transcript and unions their results.
func (c *Classifier) Classify(ctx context.Context, transcript string) Classification {
	if strings.TrimSpace(transcript) == "" {
		return Classification{
			Intents: []string{IntentError},
			Err:     "No transcript generated from audio.",
		}
	}

	lowered := strings.ToLower(transcript)
	intents := map[string]bool{}
	companies := map[string]bool{}

	for intent, keywords := range intentKeywords {
		for _, keyword := range keywords {
			if strings.Contains(lowered, keyword) {
				intents[intent] = true
				break
			}
		}
	}
	// A transcript can name a company either way: by name or by symbol.
	for _, name := range c.names {
		if strings.Contains(lowered, name) {
			companies[c.tickers[name]] = true
		}
	}
	for _, symbol := range c.symbols {
		if strings.Contains(lowered, symbol) {
			companies[strings.ToUpper(symbol)] = true
		}
	}

	timeQuery := ""
	if m := timeQueryPattern.FindString(lowered); m != "" {
		timeQuery = m
	}

	if c.generator != nil {
		refined := c.refine(ctx, transcript)
		for _, intent := range refined.Intents {
			intents[intent] = true
		}
		for _, ticker := range refined.Companies {
			companies[ticker] = true
		}
		if timeQuery == "" {
			timeQuery = refined.TimeQuery
		}
	}

	result := Classification{TimeQuery: timeQuery}
	for _, intent := range intentOrder {
		if intent != IntentError && intents[intent] {
			result.Intents = append(result.Intents, intent)
		}
	}
	for ticker := range companies {
		result.Companies = append(result.Companies, ticker)
	}
	sort.Strings(result.Companies)

	if len(result.Intents) == 0 {
		result.Intents = []string{IntentError}
		result.Err = "Intent classification failed"
	}
	return result
}

// refine asks the generator for a structured classification and tolerates
// malformed output by repairing it before a second parse. Any failure
// yields an empty refinement; the keyword pass already holds the floor.
func (c *Classifier) refine(ctx context.Context, transcript string) Classification {
	known := make([]string, 0, len(c.names))
	for _, name := range c.names {
		known = append(known, fmt.Sprintf("%s=%s", name, c.tickers[name]))
	}
	prompt := fmt.Sprintf(classifyPromptTemplate, transcript, strings.Join(known, ", "))

	content, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		log.Warnf("classifier: model pass failed: %v", err)
		return Classification{}
	}
	content = stripCodeFence(content)

	var parsed struct {
		Intents   []string `json:"intents"`
		Companies []string `json:"companies"`
		TimeQuery string   `json:"time_query"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(content)
		if repairErr != nil {
			log.Warnf("classifier: unparseable model output: %v", err)
			return Classification{}
		}
		if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
			log.Warnf("classifier: unparseable model output after repair: %v", err)
			return Classification{}
		}
	}

	refined := Classification{TimeQuery: strings.TrimSpace(parsed.TimeQuery)}
	for _, intent := range parsed.Intents {
		intent = strings.ToLower(strings.TrimSpace(intent))
		switch intent {
		case IntentPrice, IntentPortfolio, IntentCompare, IntentRecommend:
			refined.Intents = append(refined.Intents, intent)
		}
	}
	for _, company := range parsed.Companies {
		if ticker := c.resolveTicker(company); ticker != "" {
			refined.Companies = append(refined.Companies, ticker)
		}
	}
	return refined
}

// resolveTicker maps a model-reported company to a ticker from the known
// map. It accepts either a company name or a ticker already in the map.
func (c *Classifier) resolveTicker(company string) string {
	company = strings.TrimSpace(company)
	if company == "" {
		return ""
	}
	if ticker, ok := c.tickers[strings.ToLower(company)]; ok {
		return ticker
	}
	upper := strings.ToUpper(company)
	for _, ticker := range c.tickers {
		if ticker == upper {
			return ticker
		}
	}
	return ""
}

// stripCodeFence removes a surrounding markdown code fence if present.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
