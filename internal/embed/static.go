package embed

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"
	"sync"

	"github.com/scholium/scholium/internal/errors"
)

func errClosed() error {
	return errors.New(errors.ErrCodeEmbedFailed, "embedder is closed", nil)
}

// StaticEmbedder generates hash-based embeddings without any network or
// model download. Semantic quality is far below a real model, but the
// output is deterministic, which makes it usable offline and in tests.
type StaticEmbedder struct {
	mu     sync.RWMutex
	closed bool
}

var _ Embedder = (*StaticEmbedder)(nil)

const (
	tokenWeight  = 0.7
	bigramWeight = 0.3
)

var latinTokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

// NewStaticEmbedder creates a static embedder.
func NewStaticEmbedder() *StaticEmbedder {
	return &StaticEmbedder{}
}

// Embed generates the embedding for a single text.
func (e *StaticEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return nil, errClosed()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, StaticDimensions), nil
	}
	return normalizeVector(e.generateVector(trimmed)), nil
}

// EmbedBatch generates embeddings for multiple texts.
func (e *StaticEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		results[i] = vec
	}
	return results, nil
}

// generateVector hashes Latin words and CJK character bigrams into a
// fixed-size bag-of-features vector. Bigrams carry the CJK signal since
// there is no segmentation here.
func (e *StaticEmbedder) generateVector(text string) []float32 {
	vector := make([]float32, StaticDimensions)

	for _, word := range latinTokenRegex.FindAllString(text, -1) {
		if len(word) < 2 {
			continue
		}
		vector[hashToIndex(strings.ToLower(word))] += tokenWeight
	}

	runes := []rune(text)
	for i := 0; i+1 < len(runes); i++ {
		if isCJK(runes[i]) && isCJK(runes[i+1]) {
			vector[hashToIndex(string(runes[i:i+2]))] += bigramWeight
		}
	}
	return vector
}

func hashToIndex(s string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32() % uint32(StaticDimensions))
}

func isCJK(r rune) bool {
	return r >= 0x4e00 && r <= 0x9fff
}

// Dimensions returns the embedding dimension.
func (e *StaticEmbedder) Dimensions() int { return StaticDimensions }

// ModelName returns the static model identifier.
func (e *StaticEmbedder) ModelName() string { return "static-256" }

// Available always reports true; the static embedder has no backend.
func (e *StaticEmbedder) Available(ctx context.Context) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.closed
}

// Close marks the embedder closed.
func (e *StaticEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
