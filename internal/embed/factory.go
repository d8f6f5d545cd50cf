package embed

import (
	"context"
	"log/slog"
	"time"

	"github.com/scholium/scholium/internal/config"
	"github.com/scholium/scholium/internal/errors"
)

// New builds the embedder stack described by cfg: the configured
// provider wrapped in the query cache. Callers own the returned
// embedder and must Close it.
func New(ctx context.Context, cfg config.EmbeddingsConfig) (Embedder, error) {
	inner, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	slog.Debug("embedder ready",
		slog.String("provider", cfg.Provider),
		slog.String("model", inner.ModelName()),
		slog.Int("dimensions", inner.Dimensions()))
	return NewCachedEmbedder(inner, cfg.CacheSize), nil
}

func newProvider(ctx context.Context, cfg config.EmbeddingsConfig) (Embedder, error) {
	switch cfg.Provider {
	case "", "ollama":
		timeout, err := parseTimeout(cfg.RequestTimeout)
		if err != nil {
			return nil, err
		}
		return NewOllamaEmbedder(ctx, OllamaConfig{
			Host:       cfg.OllamaHost,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			BatchSize:  cfg.BatchSize,
			Timeout:    timeout,
		})
	case "static":
		return NewStaticEmbedder(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeConfigInvalid,
			"unknown embeddings provider %q (want ollama or static)", cfg.Provider)
	}
}

func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeConfigInvalid, err).
			WithDetail("embeddings.request_timeout", s)
	}
	return d, nil
}
