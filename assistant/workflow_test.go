package assistant

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicefin/voicefin/artifact/inmemory"
	"github.com/voicefin/voicefin/graph"
	"github.com/voicefin/voicefin/market"
	"github.com/voicefin/voicefin/portfolio"
)

type stubVoice struct {
	transcript    string
	transcribeErr error
	audio         []byte
	synthesizeErr error
}

func (s *stubVoice) Transcribe(context.Context, string) (string, error) {
	return s.transcript, s.transcribeErr
}

func (s *stubVoice) Synthesize(context.Context, string) ([]byte, error) {
	return s.audio, s.synthesizeErr
}

type stubMarketProvider struct {
	quotes map[string]*market.Quote
	calls  []string
}

func (p *stubMarketProvider) Name() string { return "stub" }

func (p *stubMarketProvider) Quote(_ context.Context, symbol string, _ int) (*market.Quote, error) {
	p.calls = append(p.calls, symbol)
	if quote, ok := p.quotes[symbol]; ok {
		return quote, nil
	}
	return nil, errors.New("unknown symbol")
}

func testDeps(provider *stubMarketProvider, voiceStub *stubVoice) Deps {
	deps := Deps{
		Classifier: NewClassifier(testTickers),
		Narrator:   NewNarrator(&countingGenerator{}, nil),
		Voice:      voiceStub,
	}
	if provider != nil {
		deps.Market = market.NewService(provider, nil, market.WithRetryDelay(0))
	}
	return deps
}

func TestRouteAfterPortfolio(t *testing.T) {
	tests := []struct {
		name       string
		intents    []string
		transcript string
		want       string
	}{
		{"price why question", []string{IntentPrice}, "why is apple stock falling", NodeFetchNews},
		{"price direction question", []string{IntentPrice}, "is tesla stock up today", NodeFetchNews},
		{"plain price question", []string{IntentPrice}, "what is the apple stock price", NodeFetchMarket},
		{"portfolio with trigger word", []string{IntentPortfolio}, "why is my portfolio balance low", NodeFetchMarket},
		{"no intents", nil, "why though", NodeFetchMarket},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := graph.State{
				StateKeyIntents:    tt.intents,
				StateKeyTranscript: tt.transcript,
			}
			got, err := routeAfterPortfolio(context.Background(), state)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunTextEndToEnd(t *testing.T) {
	provider := &stubMarketProvider{quotes: map[string]*market.Quote{
		"AAPL": {CurrentPrice: 150},
	}}
	a, err := New(testDeps(provider, nil))
	require.NoError(t, err)

	result, err := a.RunText(context.Background(), "what is the price of apple stock")
	require.NoError(t, err)

	assert.Equal(t, "what is the price of apple stock", result.Transcript)
	assert.NotEmpty(t, result.Narrative)
	assert.Empty(t, result.Err)
	assert.Equal(t, []string{"AAPL"}, provider.calls)
}

func TestNewsPathStillFetchesMarketData(t *testing.T) {
	provider := &stubMarketProvider{quotes: map[string]*market.Quote{
		"AAPL": {CurrentPrice: 150},
	}}
	a, err := New(testDeps(provider, nil))
	require.NoError(t, err)

	final, err := a.executor.Execute(context.Background(), graph.State{
		StateKeyTranscript: "why is apple stock falling",
	}, "test-run")
	require.NoError(t, err)

	marketData := marketDataFrom(final)
	require.Contains(t, marketData, "AAPL")
	assert.Equal(t, 150.0, marketData["AAPL"].CurrentPrice)
}

func TestPortfolioLoadFailureRecordedInState(t *testing.T) {
	deps := testDeps(nil, nil)
	deps.Portfolio = portfolio.NewLoader(filepath.Join(t.TempDir(), "absent.json"))

	a, err := New(deps)
	require.NoError(t, err)

	final, err := a.executor.Execute(context.Background(), graph.State{
		StateKeyTranscript: "show my portfolio balance",
	}, "test-run")
	require.NoError(t, err)

	errText, _ := final[StateKeyError].(string)
	assert.Contains(t, errText, "absent.json")
	assert.Empty(t, portfolioFrom(final).Holdings)
}

func TestRunTranscriptionFailure(t *testing.T) {
	voiceStub := &stubVoice{transcribeErr: errors.New("upload rejected")}
	a, err := New(testDeps(nil, voiceStub))
	require.NoError(t, err)

	result, err := a.Run(context.Background(), "query.wav")
	require.NoError(t, err)

	assert.Equal(t, "No transcript generated from audio.", result.Err)
	assert.NotEmpty(t, result.Narrative)
}

func TestRunSavesAudioArtifact(t *testing.T) {
	voiceStub := &stubVoice{
		transcript: "what is the price of apple stock",
		audio:      []byte("mp3-bytes"),
	}
	provider := &stubMarketProvider{quotes: map[string]*market.Quote{
		"AAPL": {CurrentPrice: 150},
	}}
	deps := testDeps(provider, voiceStub)
	store := inmemory.NewStore()
	deps.Artifacts = store

	a, err := New(deps)
	require.NoError(t, err)

	result, err := a.Run(context.Background(), "query.wav")
	require.NoError(t, err)

	require.True(t, strings.HasSuffix(result.AudioOutput, ".mp3"))
	keys, err := store.ListKeys(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{result.AudioOutput}, keys)

	saved, err := store.Load(context.Background(), result.AudioOutput)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), saved.Data)
	assert.Equal(t, "audio/mpeg", saved.MimeType)
}

func TestRunSynthesisFailureKeepsNarrative(t *testing.T) {
	voiceStub := &stubVoice{
		transcript:    "what is the price of apple stock",
		synthesizeErr: errors.New("region rejected"),
	}
	deps := testDeps(nil, voiceStub)
	deps.Artifacts = inmemory.NewStore()

	a, err := New(deps)
	require.NoError(t, err)

	result, err := a.Run(context.Background(), "query.wav")
	require.NoError(t, err)

	assert.NotEmpty(t, result.Narrative)
	assert.Empty(t, result.AudioOutput)
	assert.Equal(t, "region rejected", result.Err)
}

func TestMarketSymbolsUnionWithHoldings(t *testing.T) {
	state := graph.State{
		StateKeyIntents:   []string{IntentPortfolio},
		StateKeyCompanies: []string{"AAPL"},
		StateKeyPortfolioData: portfolio.Data{
			Holdings: map[string]float64{"MSFT": 5, "AAPL": 1, "TSLA": 2},
		},
	}
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, marketSymbols(state))
}

func TestMarketSymbolsIgnoresHoldingsWithoutPortfolioIntent(t *testing.T) {
	state := graph.State{
		StateKeyIntents:   []string{IntentPrice},
		StateKeyCompanies: []string{"AAPL"},
		StateKeyPortfolioData: portfolio.Data{
			Holdings: map[string]float64{"MSFT": 5},
		},
	}
	assert.Equal(t, []string{"AAPL"}, marketSymbols(state))
}
