package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholium/scholium/internal/errors"
)

// fakeOllama serves /api/tags and /api/embed like a local Ollama.
func fakeOllama(t *testing.T, dims int, failEmbed bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]string{{"name": "bge-m3:latest"}},
		})
	})
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		if failEmbed {
			http.Error(w, "model crashed", http.StatusInternalServerError)
			return
		}
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		count := 1
		if arr, ok := req.Input.([]any); ok {
			count = len(arr)
		}
		embeddings := make([][]float64, count)
		for i := range embeddings {
			vec := make([]float64, dims)
			vec[i%dims] = 1.0
			embeddings[i] = vec
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaEmbedder_HealthCheckResolvesModelAndDims(t *testing.T) {
	srv := fakeOllama(t, 8, false)

	e, err := NewOllamaEmbedder(context.Background(), OllamaConfig{
		Host:  srv.URL,
		Model: "bge-m3",
	})
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	assert.Equal(t, "bge-m3:latest", e.ModelName())
	assert.Equal(t, 8, e.Dimensions())
	assert.True(t, e.Available(context.Background()))
}

func TestOllamaEmbedder_MissingModelIsUnavailable(t *testing.T) {
	srv := fakeOllama(t, 8, false)

	_, err := NewOllamaEmbedder(context.Background(), OllamaConfig{
		Host:  srv.URL,
		Model: "nonexistent-model",
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeEmbedUnavailable, errors.GetCode(err))
}

func TestOllamaEmbedder_EmbedBatchOrderAndNormalization(t *testing.T) {
	srv := fakeOllama(t, 4, false)

	e, err := NewOllamaEmbedder(context.Background(), OllamaConfig{
		Host:       srv.URL,
		Model:      "bge-m3",
		Dimensions: 4,
	})
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	vecs, err := e.EmbedBatch(context.Background(), []string{"one", "  ", "three"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	// Blank input never reaches the API and stays a zero vector.
	for _, v := range vecs[1] {
		assert.Zero(t, v)
	}
	assert.InDelta(t, 1.0, float64(vecs[0][0]), 1e-6)
}

func TestOllamaEmbedder_FailedBatchIsTerminal(t *testing.T) {
	srv := fakeOllama(t, 4, true)

	e, err := NewOllamaEmbedder(context.Background(), OllamaConfig{
		Host:            srv.URL,
		Model:           "bge-m3",
		Dimensions:      4,
		SkipHealthCheck: true,
		Timeout:         5 * time.Second,
	})
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	_, err = e.EmbedBatch(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeEmbedFailed, errors.GetCode(err))
	assert.True(t, errors.IsFatal(err))
}

func TestOllamaEmbedder_ClosedRejectsCalls(t *testing.T) {
	e, err := NewOllamaEmbedder(context.Background(), OllamaConfig{
		SkipHealthCheck: true,
		Dimensions:      4,
	})
	require.NoError(t, err)
	require.NoError(t, e.Close())

	_, err = e.Embed(context.Background(), "text")
	assert.Error(t, err)
	assert.False(t, e.Available(context.Background()))
}
