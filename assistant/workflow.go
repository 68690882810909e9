package assistant

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/voicefin/voicefin/artifact"
	"github.com/voicefin/voicefin/graph"
	"github.com/voicefin/voicefin/market"
	"github.com/voicefin/voicefin/news"
	"github.com/voicefin/voicefin/portfolio"
	"github.com/voicefin/voicefin/retrieval"
	"github.com/voicefin/voicefin/voice"
)

// Node IDs of the assistant workflow.
const (
	NodeTranscribe    = "transcribe"
	NodeClassify      = "classify"
	NodeLoadPortfolio = "load_portfolio"
	NodeFetchNews     = "fetch_news"
	NodeFetchMarket   = "fetch_market"
	NodeRetrieve      = "retrieve"
	NodeAnalyze       = "analyze"
	NodeNarrate       = "narrate"
	NodeSynthesize    = "synthesize"
)

// Deps are the collaborators the workflow stages bind to. Classifier and
// Narrator are required; the rest may be nil, in which case the owning
// stage degrades instead of failing the run.
type Deps struct {
	Classifier *Classifier
	Narrator   *Narrator
	Voice      voice.Service
	Market     *market.Service
	News       *news.Client
	Retriever  *retrieval.Retriever
	Portfolio  *portfolio.Loader
	Artifacts  artifact.Store
}

// Assistant owns the compiled workflow graph and runs one utterance per
// Run call.
type Assistant struct {
	deps     Deps
	executor *graph.Executor
}

// Result is the user-facing outcome of one run.
type Result struct {
	Transcript  string
	Narrative   string
	AudioOutput string
	Err         string
}

// New wires the workflow graph:
//
//	transcribe -> classify -> load_portfolio -> {fetch_news ->} fetch_market
//	           -> retrieve -> analyze -> narrate -> synthesize
//
// The conditional fork after load_portfolio takes the news path only for
// "why is the price moving" questions; both paths converge before
// retrieval so market data is always populated.
func New(deps Deps) (*Assistant, error) {
	if deps.Classifier == nil {
		return nil, errors.New("assistant: classifier is required")
	}
	if deps.Narrator == nil {
		return nil, errors.New("assistant: narrator is required")
	}
	a := &Assistant{deps: deps}

	g, err := graph.NewStateGraph(NewStateSchema()).
		AddNode(NodeTranscribe, a.transcribeStage).
		AddNode(NodeClassify, a.classifyStage).
		AddNode(NodeLoadPortfolio, a.loadPortfolioStage).
		AddNode(NodeFetchNews, a.fetchNewsStage).
		AddNode(NodeFetchMarket, a.fetchMarketStage).
		AddNode(NodeRetrieve, a.retrieveStage).
		AddNode(NodeAnalyze, a.analyzeStage).
		AddNode(NodeNarrate, a.narrateStage).
		AddNode(NodeSynthesize, a.synthesizeStage).
		SetEntryPoint(NodeTranscribe).
		AddEdge(NodeTranscribe, NodeClassify).
		AddEdge(NodeClassify, NodeLoadPortfolio).
		AddConditionalEdges(NodeLoadPortfolio, routeAfterPortfolio, map[string]string{
			NodeFetchNews:   NodeFetchNews,
			NodeFetchMarket: NodeFetchMarket,
		}).
		AddEdge(NodeFetchNews, NodeFetchMarket).
		AddEdge(NodeFetchMarket, NodeRetrieve).
		AddEdge(NodeRetrieve, NodeAnalyze).
		AddEdge(NodeAnalyze, NodeNarrate).
		AddEdge(NodeNarrate, NodeSynthesize).
		SetFinishPoint(NodeSynthesize).
		Compile()
	if err != nil {
		return nil, err
	}

	executor, err := graph.NewExecutor(g)
	if err != nil {
		return nil, err
	}
	a.executor = executor
	return a, nil
}

// routeAfterPortfolio picks the news path for price questions that ask
// about the cause or direction of a move, the direct market path otherwise.
func routeAfterPortfolio(_ context.Context, state graph.State) (string, error) {
	if hasIntent(intentsFrom(state), IntentPrice) && wantsNewsContext(transcriptFrom(state)) {
		return NodeFetchNews, nil
	}
	return NodeFetchMarket, nil
}

// Run processes one recorded utterance end to end.
func (a *Assistant) Run(ctx context.Context, audioPath string) (Result, error) {
	return a.run(ctx, graph.State{StateKeyAudioInput: audioPath})
}

// RunText processes an already transcribed query, bypassing speech-to-text.
func (a *Assistant) RunText(ctx context.Context, query string) (Result, error) {
	return a.run(ctx, graph.State{StateKeyTranscript: query})
}

func (a *Assistant) run(ctx context.Context, initial graph.State) (Result, error) {
	final, err := a.executor.Execute(ctx, initial, uuid.NewString())
	if err != nil {
		return Result{}, err
	}
	result := Result{
		Transcript: transcriptFrom(final),
		Narrative:  narrativeFrom(final),
	}
	if v, ok := final[StateKeyAudioOutput].(string); ok {
		result.AudioOutput = v
	}
	if v, ok := final[StateKeyError].(string); ok {
		result.Err = v
	}
	return result, nil
}
