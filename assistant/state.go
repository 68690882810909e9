// Package assistant implements the voice-driven financial assistant: the
// shared state schema, the intent and company classifier, the workflow
// graph and the stages it threads the state through.
package assistant

import (
	"reflect"

	"github.com/voicefin/voicefin/graph"
	"github.com/voicefin/voicefin/market"
	"github.com/voicefin/voicefin/news"
	"github.com/voicefin/voicefin/portfolio"
	"github.com/voicefin/voicefin/retrieval"
)

// Intent labels. The set is closed; IntentError is the failure sentinel.
const (
	IntentPrice     = "price"
	IntentPortfolio = "portfolio"
	IntentCompare   = "compare"
	IntentRecommend = "recommend"
	IntentError     = "error"
)

// State keys for the fields threaded through a run.
const (
	StateKeyTranscript    = "transcript"
	StateKeyCompanies     = "companies"
	StateKeyIntents       = "intents"
	StateKeyMarketData    = "market_data"
	StateKeyNewsData      = "news_data"
	StateKeyRetrievedDocs = "retrieved_docs"
	StateKeyPortfolioData = "portfolio_data"
	StateKeyAnalysis      = "analysis"
	StateKeyNarrative     = "narrative"
	StateKeyAudioInput    = "audio_input"
	StateKeyAudioOutput   = "audio_output"
	StateKeyTimeQuery     = "time_query"
	StateKeyError         = "error"
)

// NewStateSchema declares every field of the assistant state with its type
// and merge behavior. Stages return partial updates; the merge never erases
// fields a stage did not mention. The error field keeps the first
// unrecoverable error of the run.
func NewStateSchema() *graph.StateSchema {
	schema := graph.NewStateSchema()
	schema.AddField(StateKeyTranscript, graph.StateField{
		Type: reflect.TypeOf(""),
	})
	schema.AddField(StateKeyCompanies, graph.StateField{
		Type:    reflect.TypeOf([]string{}),
		Default: func() any { return []string{} },
	})
	schema.AddField(StateKeyIntents, graph.StateField{
		Type:    reflect.TypeOf([]string{}),
		Default: func() any { return []string{} },
	})
	schema.AddField(StateKeyMarketData, graph.StateField{
		Type:    reflect.TypeOf(map[string]*market.Quote{}),
		Default: func() any { return map[string]*market.Quote{} },
	})
	schema.AddField(StateKeyNewsData, graph.StateField{
		Type:    reflect.TypeOf(map[string][]news.Article{}),
		Default: func() any { return map[string][]news.Article{} },
	})
	schema.AddField(StateKeyRetrievedDocs, graph.StateField{
		Type:    reflect.TypeOf([]retrieval.Document{}),
		Default: func() any { return []retrieval.Document{} },
	})
	schema.AddField(StateKeyPortfolioData, graph.StateField{
		Type:    reflect.TypeOf(portfolio.Data{}),
		Default: func() any { return portfolio.Data{Holdings: map[string]float64{}} },
	})
	schema.AddField(StateKeyAnalysis, graph.StateField{
		Type: reflect.TypeOf(Analysis{}),
	})
	schema.AddField(StateKeyNarrative, graph.StateField{
		Type: reflect.TypeOf(""),
	})
	schema.AddField(StateKeyAudioInput, graph.StateField{
		Type: reflect.TypeOf(""),
	})
	schema.AddField(StateKeyAudioOutput, graph.StateField{
		Type: reflect.TypeOf(""),
	})
	schema.AddField(StateKeyTimeQuery, graph.StateField{
		Type: reflect.TypeOf(""),
	})
	schema.AddField(StateKeyError, graph.StateField{
		Type:    reflect.TypeOf(""),
		Reducer: graph.KeepFirstStringReducer,
	})
	return schema
}

// Typed accessors. Every downstream stage must tolerate any upstream field
// at its zero value, so each accessor degrades to the zero value on a
// missing or mistyped entry.

func transcriptFrom(state graph.State) string {
	v, _ := state[StateKeyTranscript].(string)
	return v
}

func companiesFrom(state graph.State) []string {
	v, _ := state[StateKeyCompanies].([]string)
	return v
}

func intentsFrom(state graph.State) []string {
	v, _ := state[StateKeyIntents].([]string)
	return v
}

func marketDataFrom(state graph.State) map[string]*market.Quote {
	v, _ := state[StateKeyMarketData].(map[string]*market.Quote)
	return v
}

func newsDataFrom(state graph.State) map[string][]news.Article {
	v, _ := state[StateKeyNewsData].(map[string][]news.Article)
	return v
}

func docsFrom(state graph.State) []retrieval.Document {
	v, _ := state[StateKeyRetrievedDocs].([]retrieval.Document)
	return v
}

func portfolioFrom(state graph.State) portfolio.Data {
	v, ok := state[StateKeyPortfolioData].(portfolio.Data)
	if !ok {
		return portfolio.Data{Holdings: map[string]float64{}}
	}
	return v
}

func analysisFrom(state graph.State) Analysis {
	v, _ := state[StateKeyAnalysis].(Analysis)
	return v
}

func narrativeFrom(state graph.State) string {
	v, _ := state[StateKeyNarrative].(string)
	return v
}

func audioInputFrom(state graph.State) string {
	v, _ := state[StateKeyAudioInput].(string)
	return v
}

func timeQueryFrom(state graph.State) string {
	v, _ := state[StateKeyTimeQuery].(string)
	return v
}

// hasIntent reports whether intent is a member of intents.
func hasIntent(intents []string, intent string) bool {
	for _, candidate := range intents {
		if candidate == intent {
			return true
		}
	}
	return false
}
