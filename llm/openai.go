package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var _ Generator = (*OpenAIGenerator)(nil)

// DefaultModel is the default chat model.
const DefaultModel = "gpt-4o-mini"

// OpenAIGenerator implements Generator against an OpenAI-compatible API.
type OpenAIGenerator struct {
	client  openai.Client
	model   string
	apiKey  string
	baseURL string
}

// Option configures an OpenAIGenerator.
type Option func(*OpenAIGenerator)

// WithModel sets the chat model to use.
func WithModel(model string) Option {
	return func(g *OpenAIGenerator) {
		g.model = model
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(apiKey string) Option {
	return func(g *OpenAIGenerator) {
		g.apiKey = apiKey
	}
}

// WithBaseURL points the client at a compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return func(g *OpenAIGenerator) {
		g.baseURL = baseURL
	}
}

// NewOpenAIGenerator creates a generator with the given options.
func NewOpenAIGenerator(opts ...Option) *OpenAIGenerator {
	g := &OpenAIGenerator{
		model: DefaultModel,
	}
	for _, opt := range opts {
		opt(g)
	}
	var clientOpts []option.RequestOption
	if g.apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(g.apiKey))
	}
	if g.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(g.baseURL))
	}
	g.client = openai.NewClient(clientOpts...)
	return g
}

// Generate runs a single non-streaming chat completion and returns the
// first choice's content.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(g.model),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
