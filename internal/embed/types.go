// Package embed is the embedding provider boundary for the semantic
// channel. Two providers exist: Ollama over its local HTTP API, and a
// deterministic hash-based static embedder for offline use and tests.
//
// Embedding failures are terminal. A build that cannot embed a batch
// aborts rather than writing a vector snapshot with silent holes, and
// there is no retry layer here: the caller decides whether to re-run.
package embed

import (
	"context"
	"math"
	"time"
)

const (
	// MinBatchSize is the minimum allowed batch size.
	MinBatchSize = 1

	// MaxBatchSize caps batch size to bound request payloads.
	MaxBatchSize = 256

	// DefaultBatchSize matches what local Ollama handles comfortably.
	DefaultBatchSize = 64

	// DefaultTimeout is the per-request timeout for embedding calls.
	// First calls can be slow when Ollama still has to load the model.
	DefaultTimeout = 120 * time.Second

	// DefaultOllamaHost is the default Ollama API endpoint.
	DefaultOllamaHost = "http://localhost:11434"

	// DefaultOllamaModel is the default embedding model. bge-m3 is
	// multilingual, which the zh/en corpus depends on.
	DefaultOllamaModel = "bge-m3"

	// StaticDimensions is the embedding dimension of the static embedder.
	StaticDimensions = 256
)

// Embedder generates vector embeddings for text. All returned vectors
// are unit-normalized.
type Embedder interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier recorded in snapshots.
	ModelName() string

	// Available reports whether the provider is ready to serve.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// normalizeVector scales v to unit length. Zero vectors pass through.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}
	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
