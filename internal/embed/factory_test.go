package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholium/scholium/internal/config"
	"github.com/scholium/scholium/internal/errors"
)

func TestNew_StaticProvider(t *testing.T) {
	e, err := New(context.Background(), config.EmbeddingsConfig{Provider: "static"})
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	assert.Equal(t, "static-256", e.ModelName())
	assert.Equal(t, StaticDimensions, e.Dimensions())
	// The factory always wraps the provider in the query cache.
	_, ok := e.(*CachedEmbedder)
	assert.True(t, ok)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.EmbeddingsConfig{Provider: "cloud"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetCode(err))
}

func TestNew_BadTimeout(t *testing.T) {
	_, err := New(context.Background(), config.EmbeddingsConfig{
		Provider:       "ollama",
		RequestTimeout: "soon",
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetCode(err))
}
