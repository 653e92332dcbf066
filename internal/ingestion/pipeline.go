// Package ingestion implements the document ingestion pipeline.
// It reads an uploaded file's text, splits it into fixed-size overlapping
// chunks, embeds each chunk, and upserts the vectors with their metadata
// into the vector store. The pipeline is invoked after every upload, by
// POST /documents/reingest, and by the `knowhub ingest` CLI command.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/knowhub/knowhub-go/internal/rag"
)

// Default chunking geometry: the unit of embedding and retrieval is an
// 800-character slice overlapping its predecessor by 120 characters.
const (
	defaultChunkSize    = 800
	defaultChunkOverlap = 120
)

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// ChunkSize is the maximum number of characters per chunk.
	// Defaults to 800 if zero.
	ChunkSize int

	// ChunkOverlap is the number of characters shared by consecutive chunks.
	// Defaults to 120 if zero.
	ChunkOverlap int

	// Logger records pipeline progress. If nil, slog.Default is used.
	Logger *slog.Logger
}

// Pipeline orchestrates the read → chunk → embed → upsert flow for one file.
type Pipeline struct {
	// embedder converts text chunks into dense vector embeddings.
	embedder rag.Embedder

	// store persists the embedded chunks.
	store rag.VectorStore

	// cfg holds the resolved pipeline configuration.
	cfg *Config

	// log records pipeline progress.
	log *slog.Logger
}

// NewPipeline constructs a Pipeline from the provided dependencies and config.
func NewPipeline(embedder rag.Embedder, store rag.VectorStore, cfg *Config) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("ingestion: store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 10
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Pipeline{embedder: embedder, store: store, cfg: cfg, log: log}, nil
}

// IngestFile reads, chunks, embeds, and stores one file on behalf of owner.
// Each chunk's metadata carries the owner, the source path, the chunk
// sequence index, and the chunk text itself. Returns the number of chunks
// ingested.
func (p *Pipeline) IngestFile(ctx context.Context, path, owner string) (int, error) {
	text, err := extractText(path)
	if err != nil {
		return 0, fmt.Errorf("ingestion: read %s: %w", path, err)
	}

	chunks := Chunk(text, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	if len(chunks) == 0 {
		p.log.Info("ingestion: file produced no chunks", slog.String("path", path))
		return 0, nil
	}

	embeddings, err := p.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("ingestion: embedding failed for %s: %w", path, err)
	}

	metas := make([]map[string]any, len(chunks))
	for i, chunk := range chunks {
		metas[i] = map[string]any{
			"owner":  owner,
			"source": path,
			"chunk":  i,
			"text":   chunk,
		}
	}

	if err := p.store.Upsert(ctx, embeddings, metas); err != nil {
		return 0, fmt.Errorf("ingestion: upsert failed for %s: %w", path, err)
	}

	p.log.Info("ingestion: file ingested",
		slog.String("path", path),
		slog.String("owner", owner),
		slog.Int("chunks", len(chunks)),
	)
	return len(chunks), nil
}

// extractText reads the file's content as UTF-8 text. Format-specific
// extraction (PDF, Office documents) is out of scope here; binary files
// simply yield noisy text that embeds poorly but harmlessly.
func extractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Chunk splits text into size-character slices overlapping by overlap
// characters. The final chunk is whatever remains and may be shorter.
func Chunk(text string, size, overlap int) []string {
	if len(text) == 0 || size <= 0 {
		return nil
	}
	if overlap >= size {
		overlap = 0
	}

	var chunks []string
	for start := 0; start < len(text); start += size - overlap {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
	}
	return chunks
}
