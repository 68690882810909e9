// Package retrieval ranks news documents against the user's query by
// embedding both into the same vector space and scoring cosine similarity.
package retrieval

import (
	"context"
	"math"
	"sort"

	"github.com/voicefin/voicefin/embedding"
	"github.com/voicefin/voicefin/log"
	"github.com/voicefin/voicefin/news"
)

// defaultTopK is how many documents a retrieval returns at most.
const defaultTopK = 3

// Metadata identifies where a document came from.
type Metadata struct {
	Company string `json:"company"`
	Title   string `json:"title"`
	URL     string `json:"url"`
}

// Document is one ranked retrieval result.
type Document struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
	Score    float64  `json:"score"`
}

// Retriever indexes news articles and retrieves the most relevant ones.
type Retriever struct {
	embedder embedding.Embedder
	topK     int
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithTopK overrides how many documents are returned.
func WithTopK(topK int) Option {
	return func(r *Retriever) {
		if topK > 0 {
			r.topK = topK
		}
	}
}

// NewRetriever creates a retriever backed by the given embedder.
func NewRetriever(embedder embedding.Embedder, opts ...Option) *Retriever {
	r := &Retriever{
		embedder: embedder,
		topK:     defaultTopK,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve flattens the news data, embeds candidates and query, and returns
// the top-k documents by descending cosine similarity. With no candidates
// the embedder is never invoked. Embedding failures degrade to an empty
// result.
func (r *Retriever) Retrieve(ctx context.Context, newsData map[string][]news.Article, query string) []Document {
	companies := make([]string, 0, len(newsData))
	for company := range newsData {
		companies = append(companies, company)
	}
	sort.Strings(companies)

	var contents []string
	var metadata []Metadata
	for _, company := range companies {
		for _, article := range newsData[company] {
			if article.Content == "" {
				continue
			}
			contents = append(contents, article.Content)
			metadata = append(metadata, Metadata{
				Company: company,
				Title:   article.Title,
				URL:     article.URL,
			})
		}
	}
	if len(contents) == 0 {
		return []Document{}
	}

	// One request embeds the query together with every candidate.
	vectors, err := r.embedder.Embed(ctx, append([]string{query}, contents...))
	if err != nil {
		log.Warnf("retrieval embedding failed: %v", err)
		return []Document{}
	}
	if len(vectors) != len(contents)+1 {
		log.Warnf("retrieval embedding returned %d vectors, want %d", len(vectors), len(contents)+1)
		return []Document{}
	}
	queryVector := vectors[0]

	docs := make([]Document, len(contents))
	for i, content := range contents {
		docs[i] = Document{
			Content:  content,
			Metadata: metadata[i],
			Score:    cosineSimilarity(queryVector, vectors[i+1]),
		}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Score > docs[j].Score
	})
	if len(docs) > r.topK {
		docs = docs[:r.topK]
	}
	return docs
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}
	var dotProduct, normA, normB float64
	for i := 0; i < len(a); i++ {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
