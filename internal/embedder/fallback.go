package embedder

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/knowhub/knowhub-go/internal/rag"
)

// FallbackEmbedder implements rag.Embedder by delegating to a remote embedder
// and degrading to the deterministic hashing embedder on any failure.
// Callers therefore always receive embeddings; remote errors are logged,
// never surfaced. When no remote is configured the hashing embedder is used
// directly.
type FallbackEmbedder struct {
	// remote is the preferred embedder; nil when no provider is configured.
	remote rag.Embedder

	// local is the always-available hashing embedder.
	local *HashEmbedder

	// log records each degradation with its cause.
	log *slog.Logger
}

// NewFallbackEmbedder constructs a FallbackEmbedder. remote may be nil.
func NewFallbackEmbedder(remote rag.Embedder, local *HashEmbedder, log *slog.Logger) *FallbackEmbedder {
	if local == nil {
		local = NewHashEmbedder(0)
	}
	if log == nil {
		log = slog.Default()
	}
	return &FallbackEmbedder{remote: remote, local: local, log: log}
}

// NewFromEnv constructs the embedding provider from environment variables,
// read once at startup:
//
//	OPENAI_API_KEY     — enables the remote OpenAI embedder when non-empty
//	OPENAI_API_BASE    — API base URL (default: https://api.openai.com/v1)
//	EMBED_MODEL        — embedding model (default: text-embedding-3-small)
//	FALLBACK_EMBED_DIM — hashing embedder vector size (default: 1536)
func NewFromEnv(log *slog.Logger) *FallbackEmbedder {
	dim := DefaultFallbackDim
	if v := os.Getenv("FALLBACK_EMBED_DIM"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			dim = i
		}
	}
	local := NewHashEmbedder(dim)

	var remote rag.Embedder
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		remote = NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL: os.Getenv("OPENAI_API_BASE"),
			APIKey:  apiKey,
			Model:   os.Getenv("EMBED_MODEL"),
		})
	}

	return NewFallbackEmbedder(remote, local, log)
}

// Embed returns remote embeddings when available, hashing embeddings
// otherwise. The error return exists only to satisfy rag.Embedder; it is
// always nil.
func (e *FallbackEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.remote != nil {
		vecs, err := e.remote.Embed(ctx, texts)
		if err == nil {
			return vecs, nil
		}
		e.log.Warn("embedder: remote provider failed, falling back to hashing embedder",
			slog.Int("texts", len(texts)),
			slog.Any("error", err),
		)
	}
	return e.local.Embed(ctx, texts)
}
