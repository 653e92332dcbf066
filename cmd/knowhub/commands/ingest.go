package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/knowhub/knowhub-go/internal/embedder"
	"github.com/knowhub/knowhub-go/internal/ingestion"
	"github.com/knowhub/knowhub-go/internal/logging"
)

// NewIngestCmd constructs the `knowhub ingest` command, which indexes files
// into the vector store without going through the HTTP API.
func NewIngestCmd() *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest documents into the vector store",
		Long: `Chunk, embed, and upsert the given files into the Qdrant vector store.

Relevant environment variables:
  QDRANT_URL           Qdrant endpoint (default: localhost:6334)
  QDRANT_COLLECTION    Collection name (default: ai_knowledge_hub)
  QDRANT_API_KEY       Optional API key for authenticated clusters
  OPENAI_API_KEY       Embedding backend key; absent uses the hashing fallback
  EMBED_MODEL          Remote embedding model (default: text-embedding-3-small)

Examples:
  knowhub ingest notes.txt
  knowhub ingest docs/*.md --owner alice`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.NewFromEnv()
			ctx = logging.WithLogger(ctx, log)

			emb := embedder.NewFromEnv(log)

			vectors, err := openVectorStore(log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer func() { _ = vectors.Close() }()

			pipeline, err := ingestion.NewPipeline(emb, vectors, &ingestion.Config{Logger: log})
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			total := 0
			for _, path := range args {
				chunks, err := pipeline.IngestFile(ctx, path, owner)
				if err != nil {
					return fmt.Errorf("ingest: %s: %w", path, err)
				}
				log.Info("file ingested", slog.String("path", path), slog.Int("chunks", chunks))
				total += chunks
			}

			fmt.Printf("ingested %d file(s), %d chunk(s)\n", len(args), total)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "dev", "Owner recorded in chunk metadata")

	return cmd
}
