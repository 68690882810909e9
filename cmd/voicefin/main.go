// Command voicefin answers one spoken or typed financial query per
// invocation: transcribe, classify, fetch data, analyze, narrate and speak
// the answer back.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/voicefin/voicefin/artifact"
	"github.com/voicefin/voicefin/artifact/cos"
	"github.com/voicefin/voicefin/artifact/local"
	"github.com/voicefin/voicefin/assistant"
	"github.com/voicefin/voicefin/config"
	"github.com/voicefin/voicefin/embedding"
	"github.com/voicefin/voicefin/llm"
	"github.com/voicefin/voicefin/log"
	"github.com/voicefin/voicefin/market"
	"github.com/voicefin/voicefin/news"
	"github.com/voicefin/voicefin/portfolio"
	"github.com/voicefin/voicefin/retrieval"
	"github.com/voicefin/voicefin/telemetry/trace"
	"github.com/voicefin/voicefin/voice"
	"github.com/voicefin/voicefin/voice/assemblyai"
	"github.com/voicefin/voicefin/voice/polly"
)

var (
	configPath    string
	audioPath     string
	textQuery     string
	traceEndpoint string
)

func main() {
	root := &cobra.Command{
		Use:          "voicefin",
		Short:        "Voice-driven financial assistant",
		Long:         "voicefin answers questions about stock prices, portfolios and recommendations, spoken or typed.",
		SilenceUsage: true,
		RunE:         run,
	}
	root.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the configuration file")
	root.Flags().StringVarP(&audioPath, "audio", "a", "", "recorded query to process")
	root.Flags().StringVarP(&textQuery, "text", "t", "", "typed query to process instead of audio")
	root.Flags().StringVar(&traceEndpoint, "trace-endpoint", "", "OTLP endpoint for traces")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if audioPath == "" && textQuery == "" {
		return fmt.Errorf("one of --audio or --text is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log.SetLevel(cfg.LogLevel)
	ctx := cmd.Context()

	if traceEndpoint != "" {
		clean, err := trace.Start(ctx,
			trace.WithEndpoint(traceEndpoint),
			trace.WithServiceName("voicefin"),
		)
		if err != nil {
			return err
		}
		defer func() {
			if err := clean(); err != nil {
				log.Warnf("trace shutdown: %v", err)
			}
		}()
	}

	a, err := buildAssistant(cfg)
	if err != nil {
		return err
	}

	var result assistant.Result
	if textQuery != "" {
		result, err = a.RunText(ctx, textQuery)
	} else {
		result, err = a.Run(ctx, audioPath)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Transcript: %s\n", result.Transcript)
	fmt.Printf("Answer: %s\n", result.Narrative)
	if result.AudioOutput != "" {
		location := result.AudioOutput
		if cfg.Artifacts.Backend == config.ArtifactBackendLocal {
			location = filepath.Join(cfg.AudioDir, result.AudioOutput)
		}
		fmt.Printf("Audio: %s\n", location)
	}
	if result.Err != "" {
		fmt.Printf("Warning: %s\n", result.Err)
	}
	return nil
}

func buildAssistant(cfg *config.Config) (*assistant.Assistant, error) {
	generator := llm.NewOpenAIGenerator(
		llm.WithModel(cfg.LLM.Model),
		llm.WithAPIKey(cfg.LLM.APIKey),
		llm.WithBaseURL(cfg.LLM.BaseURL),
	)
	embedder := embedding.NewOpenAIEmbedder(
		embedding.WithModel(cfg.LLM.EmbeddingModel),
		embedding.WithAPIKey(cfg.LLM.APIKey),
		embedding.WithBaseURL(cfg.LLM.BaseURL),
	)

	store, err := buildArtifactStore(cfg)
	if err != nil {
		return nil, err
	}

	deps := assistant.Deps{
		Classifier: assistant.NewClassifier(cfg.TickerMap, assistant.WithGenerator(generator)),
		Narrator:   assistant.NewNarrator(generator, cfg.ReverseTickerMap()),
		Retriever:  retrieval.NewRetriever(embedder),
		Portfolio:  portfolio.NewLoader(cfg.PortfolioPath),
		Artifacts:  store,
	}

	if cfg.Providers.AlphaVantageKey != "" {
		deps.Market = market.NewService(
			market.NewAlphaVantageClient(cfg.Providers.AlphaVantageKey),
			market.NewYahooClient(),
		)
	} else {
		log.Warnf("no Alpha Vantage key configured, using Yahoo only")
		deps.Market = market.NewService(market.NewYahooClient(), nil)
	}
	if cfg.Providers.NewsAPIKey != "" {
		deps.News = news.NewClient(cfg.Providers.NewsAPIKey)
	}
	if cfg.Voice.AssemblyAIKey != "" {
		deps.Voice = voice.NewService(
			assemblyai.NewClient(cfg.Voice.AssemblyAIKey),
			polly.NewSynthesizer(
				cfg.Voice.Region,
				cfg.Voice.AWSAccessKeyID,
				cfg.Voice.AWSSecretAccessKey,
				pollyVoiceOpts(cfg)...,
			),
		)
	}

	return assistant.New(deps)
}

func buildArtifactStore(cfg *config.Config) (artifact.Store, error) {
	if cfg.Artifacts.Backend == config.ArtifactBackendCOS {
		return cos.NewStore(cfg.Artifacts.COSBucketURL, cos.WithPrefix(cfg.Artifacts.COSPrefix))
	}
	return local.NewStore(cfg.AudioDir)
}

func pollyVoiceOpts(cfg *config.Config) []polly.Option {
	if cfg.Voice.VoiceID == "" {
		return nil
	}
	return []polly.Option{polly.WithVoiceID(cfg.Voice.VoiceID)}
}
