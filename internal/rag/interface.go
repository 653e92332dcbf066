// Package rag defines the interfaces for retrieval-augmented generation
// components: vector storage and embedding. Concrete implementations
// (Qdrant, OpenAI, the offline hashing embedder) satisfy these interfaces
// so the answer layer never depends on a specific backend.
package rag

import (
	"context"
)

// Hit is a single vector search result: the stored chunk metadata plus the
// cosine similarity score assigned by the store.
type Hit struct {
	// Meta is the payload stored alongside the vector at ingestion time.
	// Ingested chunks always carry at least "owner", "source", "chunk"
	// and "text"; foreign collections may use different keys.
	Meta map[string]any

	// Score is the cosine similarity of this hit (best ≈ 1.0).
	Score float32
}

// VectorStore is the interface for persisting and searching chunk embeddings.
// Implementations must be safe to call from multiple goroutines.
type VectorStore interface {
	// Upsert stores a batch of embeddings with their metadata payloads.
	// The metas slice must be parallel to vectors — metas[i] describes
	// vectors[i]. Each point receives a fresh unique identifier. The backing
	// collection is created on first use with the vectors' dimensionality;
	// an upsert failure against an existing collection (e.g. dimension
	// mismatch after a model change) recreates the collection and retries once.
	Upsert(ctx context.Context, vectors [][]float32, metas []map[string]any) error

	// Search returns the top-k nearest neighbours of queryVec by cosine
	// similarity, best score first. It returns an empty slice — never an
	// error — on backend failure or when the collection had to be freshly
	// created (no data yet). Failures are logged, not surfaced.
	Search(ctx context.Context, queryVec []float32, topK int) []Hit

	// DeleteBySource removes all points whose "source" payload equals source.
	// Best effort: failures are returned for logging but the store stays usable.
	DeleteBySource(ctx context.Context, source string) error

	// Close releases any resources held by the store.
	Close() error
}

// Embedder is the interface for converting text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
