package rag

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// DefaultCollection is the Qdrant collection used when none is configured.
const DefaultCollection = "ai_knowledge_hub"

// QdrantConfig holds connection parameters for a Qdrant vector store instance.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the Qdrant collection name to use.
	Collection string

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool

	// Logger records swallowed backend failures. If nil, slog.Default is used.
	Logger *slog.Logger
}

// ParseQdrantURL converts a QDRANT_URL value (e.g. "http://qdrant:6334" or
// "https://xyz.cloud.qdrant.io") into host, gRPC port, and TLS flag.
// A missing port defaults to 6334; an https scheme enables TLS.
func ParseQdrantURL(raw string) (host string, port int, useTLS bool, err error) {
	if raw == "" {
		return "localhost", 6334, false, nil
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, false, fmt.Errorf("qdrant: invalid URL %q: %w", raw, err)
	}
	host = u.Hostname()
	if host == "" {
		return "", 0, false, fmt.Errorf("qdrant: invalid URL %q: missing host", raw)
	}
	port = 6334
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, false, fmt.Errorf("qdrant: invalid port in URL %q: %w", raw, err)
		}
	}
	return host, port, u.Scheme == "https", nil
}

// QdrantStore implements VectorStore backed by a Qdrant instance.
// The collection is created lazily on first upsert or search, sized to the
// dimensionality of the vectors actually seen.
type QdrantStore struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// cfg holds the resolved configuration for this store.
	cfg *QdrantConfig

	// log records swallowed backend failures.
	log *slog.Logger
}

// NewQdrantStore creates a new QdrantStore. The connection is established
// lazily by the gRPC client; collection creation is deferred until the first
// operation so the store can size it to the embeddings in use.
func NewQdrantStore(cfg *QdrantConfig) (*QdrantStore, error) {
	if cfg == nil {
		cfg = &QdrantConfig{}
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	return &QdrantStore{client: client, cfg: cfg, log: log}, nil
}

// ensureCollection creates the collection with the given dimensionality if it
// does not already exist. Returns true when the collection was just created
// (and therefore holds no data).
func (s *QdrantStore) ensureCollection(ctx context.Context, dim uint64) (created bool, err error) {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return false, fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if exists {
		return false, nil
	}

	if err := s.createCollection(ctx, dim); err != nil {
		return false, err
	}
	return true, nil
}

// createCollection creates the collection with cosine distance.
func (s *QdrantStore) createCollection(ctx context.Context, dim uint64) error {
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dim,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection %q: %w", s.cfg.Collection, err)
	}
	return nil
}

// recreateCollection drops and recreates the collection. Used when an upsert
// fails against an existing collection, typically after the embedding
// dimensionality changed.
func (s *QdrantStore) recreateCollection(ctx context.Context, dim uint64) error {
	if err := s.client.DeleteCollection(ctx, s.cfg.Collection); err != nil {
		// The collection may not exist; creation below is what matters.
		s.log.Warn("qdrant: delete collection before recreate failed",
			slog.String("collection", s.cfg.Collection),
			slog.Any("error", err),
		)
	}
	return s.createCollection(ctx, dim)
}

// Upsert stores a batch of embeddings with their metadata payloads.
// Each point gets a fresh UUID. If the upsert fails against an existing
// collection the collection is recreated at the vectors' dimensionality and
// the upsert retried once.
func (s *QdrantStore) Upsert(ctx context.Context, vectors [][]float32, metas []map[string]any) error {
	if len(vectors) == 0 {
		return nil
	}
	if len(vectors) != len(metas) {
		return fmt.Errorf("qdrant: %d vectors but %d metadata payloads", len(vectors), len(metas))
	}

	dim := uint64(len(vectors[0]))
	if _, err := s.ensureCollection(ctx, dim); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, 0, len(vectors))
	for i, vec := range vectors {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(uuid.NewString()),
			Vectors: qdrant.NewVectors(vec...),
			Payload: qdrant.NewValueMap(metas[i]),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Points:         points,
	})
	if err == nil {
		return nil
	}

	// Existing collection rejected the batch — most likely a dimension
	// mismatch after an embedding model change. Recreate and retry once.
	s.log.Warn("qdrant: upsert failed, recreating collection and retrying",
		slog.String("collection", s.cfg.Collection),
		slog.Uint64("dim", dim),
		slog.Any("error", err),
	)
	if err := s.recreateCollection(ctx, dim); err != nil {
		return err
	}
	if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("qdrant: upsert retry failed: %w", err)
	}
	return nil
}

// Search performs a cosine similarity search and returns the top-k results,
// best score first. Per the store contract it never fails: a freshly created
// (empty) collection or any backend error yields an empty result, with the
// error logged.
func (s *QdrantStore) Search(ctx context.Context, queryVec []float32, topK int) []Hit {
	if len(queryVec) == 0 || topK <= 0 {
		return nil
	}

	created, err := s.ensureCollection(ctx, uint64(len(queryVec)))
	if err != nil {
		s.log.Warn("qdrant: search skipped, collection unavailable", slog.Any("error", err))
		return nil
	}
	if created {
		// Brand-new collection has no points to search.
		return nil
	}

	limit := uint64(topK)
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(queryVec...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		s.log.Warn("qdrant: search failed",
			slog.String("collection", s.cfg.Collection),
			slog.Any("error", err),
		)
		return nil
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{
			Meta:  payloadToMeta(r.Payload),
			Score: r.Score,
		})
	}
	return hits
}

// DeleteBySource removes all points whose "source" payload matches source.
func (s *QdrantStore) DeleteBySource(ctx context.Context, source string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.cfg.Collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("source", source),
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: delete by source %q failed: %w", source, err)
	}
	return nil
}

// Ping calls the Qdrant HealthCheck RPC. Used by the readiness endpoint.
func (s *QdrantStore) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant: health check failed: %w", err)
	}
	return nil
}

// Close closes the underlying Qdrant gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// payloadToMeta converts a Qdrant payload into a plain metadata map.
// Nested structs and lists are not produced by the ingestion pipeline and
// are dropped.
func payloadToMeta(payload map[string]*qdrant.Value) map[string]any {
	meta := make(map[string]any, len(payload))
	for k, v := range payload {
		switch kind := v.GetKind().(type) {
		case *qdrant.Value_StringValue:
			meta[k] = kind.StringValue
		case *qdrant.Value_IntegerValue:
			meta[k] = kind.IntegerValue
		case *qdrant.Value_DoubleValue:
			meta[k] = kind.DoubleValue
		case *qdrant.Value_BoolValue:
			meta[k] = kind.BoolValue
		}
	}
	return meta
}
