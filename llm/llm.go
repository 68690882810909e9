// Package llm provides the hosted text-generation capability consumed by
// the classifier and narrative stages.
package llm

import "context"

// Generator produces text for a prompt. Implementations talk to a hosted
// model; callers treat any error as a recoverable provider failure.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
