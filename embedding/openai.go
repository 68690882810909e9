package embedding

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/voicefin/voicefin/log"
)

var _ Embedder = (*OpenAIEmbedder)(nil)

// DefaultModel is the default embedding model.
const DefaultModel = "text-embedding-3-small"

// OpenAIEmbedder implements Embedder against an OpenAI-compatible API.
type OpenAIEmbedder struct {
	client  openai.Client
	model   string
	apiKey  string
	baseURL string
}

// Option configures an OpenAIEmbedder.
type Option func(*OpenAIEmbedder)

// WithModel sets the embedding model to use.
func WithModel(model string) Option {
	return func(e *OpenAIEmbedder) {
		e.model = model
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(apiKey string) Option {
	return func(e *OpenAIEmbedder) {
		e.apiKey = apiKey
	}
}

// WithBaseURL points the client at a compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return func(e *OpenAIEmbedder) {
		e.baseURL = baseURL
	}
}

// NewOpenAIEmbedder creates an embedder with the given options.
func NewOpenAIEmbedder(opts ...Option) *OpenAIEmbedder {
	e := &OpenAIEmbedder{
		model: DefaultModel,
	}
	for _, opt := range opts {
		opt(e)
	}
	var clientOpts []option.RequestOption
	if e.apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(e.apiKey))
	}
	if e.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(e.baseURL))
	}
	e.client = openai.NewClient(clientOpts...)
	return e
}

// Embed generates embeddings for all texts in a single request.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	response, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model:          openai.EmbeddingModel(e.model),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(response.Data) != len(texts) {
		log.Warnf("embedding response size mismatch: want %d, got %d", len(texts), len(response.Data))
	}
	vectors := make([][]float64, len(texts))
	for _, item := range response.Data {
		if int(item.Index) < len(vectors) {
			vectors[item.Index] = item.Embedding
		}
	}
	return vectors, nil
}
