package assistant

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/voicefin/voicefin/artifact"
	"github.com/voicefin/voicefin/graph"
	"github.com/voicefin/voicefin/log"
	"github.com/voicefin/voicefin/retrieval"
)

// Stage functions return partial state deltas. Provider failures become
// state, not node errors, so a single bad call never aborts the run.

func (a *Assistant) transcribeStage(ctx context.Context, state graph.State) (graph.State, error) {
	if transcriptFrom(state) != "" {
		// Text mode, nothing to transcribe.
		return graph.State{}, nil
	}
	audioPath := audioInputFrom(state)
	if audioPath == "" || a.deps.Voice == nil {
		return graph.State{
			StateKeyTranscript: "",
			StateKeyError:      "No transcript generated from audio.",
		}, nil
	}
	transcript, err := a.deps.Voice.Transcribe(ctx, audioPath)
	if err != nil {
		log.Warnf("transcribe: %v", err)
		return graph.State{
			StateKeyTranscript: "",
			StateKeyError:      "No transcript generated from audio.",
		}, nil
	}
	return graph.State{StateKeyTranscript: transcript}, nil
}

func (a *Assistant) classifyStage(ctx context.Context, state graph.State) (graph.State, error) {
	classification := a.deps.Classifier.Classify(ctx, transcriptFrom(state))
	delta := graph.State{
		StateKeyIntents:   classification.Intents,
		StateKeyCompanies: classification.Companies,
		StateKeyTimeQuery: classification.TimeQuery,
	}
	if classification.Err != "" {
		delta[StateKeyError] = classification.Err
	}
	return delta, nil
}

func (a *Assistant) loadPortfolioStage(_ context.Context, _ graph.State) (graph.State, error) {
	if a.deps.Portfolio == nil {
		return graph.State{}, nil
	}
	data, err := a.deps.Portfolio.Load()
	if err != nil {
		log.Warnf("load portfolio: %v", err)
		return graph.State{
			StateKeyPortfolioData: data,
			StateKeyError:         err.Error(),
		}, nil
	}
	return graph.State{StateKeyPortfolioData: data}, nil
}

func (a *Assistant) fetchNewsStage(ctx context.Context, state graph.State) (graph.State, error) {
	if a.deps.News == nil {
		return graph.State{}, nil
	}
	return graph.State{
		StateKeyNewsData: a.deps.News.FetchAll(ctx, companiesFrom(state)),
	}, nil
}

func (a *Assistant) fetchMarketStage(ctx context.Context, state graph.State) (graph.State, error) {
	if a.deps.Market == nil {
		return graph.State{}, nil
	}
	symbols := marketSymbols(state)
	if len(symbols) == 0 {
		return graph.State{}, nil
	}
	return graph.State{
		StateKeyMarketData: a.deps.Market.Fetch(ctx, symbols, timeQueryFrom(state)),
	}, nil
}

// marketSymbols is the union of the classified companies and, for
// portfolio questions, every held ticker.
func marketSymbols(state graph.State) []string {
	symbols := append([]string{}, companiesFrom(state)...)
	if hasIntent(intentsFrom(state), IntentPortfolio) {
		seen := make(map[string]bool, len(symbols))
		for _, symbol := range symbols {
			seen[symbol] = true
		}
		held := make([]string, 0)
		for ticker := range portfolioFrom(state).Holdings {
			if !seen[ticker] {
				held = append(held, ticker)
			}
		}
		sort.Strings(held)
		symbols = append(symbols, held...)
	}
	return symbols
}

func (a *Assistant) retrieveStage(ctx context.Context, state graph.State) (graph.State, error) {
	if a.deps.Retriever == nil {
		return graph.State{StateKeyRetrievedDocs: []retrieval.Document{}}, nil
	}
	return graph.State{
		StateKeyRetrievedDocs: a.deps.Retriever.Retrieve(ctx, newsDataFrom(state), transcriptFrom(state)),
	}, nil
}

func (a *Assistant) analyzeStage(_ context.Context, state graph.State) (graph.State, error) {
	analysis := Analyze(
		marketDataFrom(state),
		portfolioFrom(state),
		intentsFrom(state),
		companiesFrom(state),
		transcriptFrom(state),
	)
	return graph.State{StateKeyAnalysis: analysis}, nil
}

func (a *Assistant) narrateStage(ctx context.Context, state graph.State) (graph.State, error) {
	errText, _ := state[StateKeyError].(string)
	narrative := a.deps.Narrator.Narrate(ctx, NarrativeInput{
		Intents:    intentsFrom(state),
		Transcript: transcriptFrom(state),
		MarketData: marketDataFrom(state),
		Analysis:   analysisFrom(state),
		Documents:  docsFrom(state),
		Err:        errText,
	})
	return graph.State{StateKeyNarrative: narrative}, nil
}

func (a *Assistant) synthesizeStage(ctx context.Context, state graph.State) (graph.State, error) {
	if a.deps.Voice == nil || a.deps.Artifacts == nil {
		return graph.State{StateKeyAudioOutput: ""}, nil
	}
	audio, err := a.deps.Voice.Synthesize(ctx, narrativeFrom(state))
	if err != nil {
		log.Warnf("synthesize: %v", err)
		return graph.State{
			StateKeyAudioOutput: "",
			StateKeyError:       err.Error(),
		}, nil
	}
	key := uuid.NewString() + ".mp3"
	if err := a.deps.Artifacts.Save(ctx, key, &artifact.Artifact{
		Data:     audio,
		MimeType: "audio/mpeg",
		Name:     key,
	}); err != nil {
		log.Warnf("save audio artifact: %v", err)
		return graph.State{
			StateKeyAudioOutput: "",
			StateKeyError:       err.Error(),
		}, nil
	}
	return graph.State{StateKeyAudioOutput: key}, nil
}
