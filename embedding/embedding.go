// Package embedding provides text embedding for document retrieval.
package embedding

import "context"

// Embedder generates embedding vectors for texts.
//
// System-level failures (network, invalid parameters) are returned as
// errors. API-level failures surface as empty vectors so that callers can
// degrade instead of aborting.
type Embedder interface {
	// Embed generates one embedding vector per input text, in order.
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}
