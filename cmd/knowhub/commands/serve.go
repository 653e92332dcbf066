package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/knowhub/knowhub-go/internal/answer"
	"github.com/knowhub/knowhub-go/internal/docindex"
	"github.com/knowhub/knowhub-go/internal/embedder"
	"github.com/knowhub/knowhub-go/internal/ingestion"
	"github.com/knowhub/knowhub-go/internal/llm"
	"github.com/knowhub/knowhub-go/internal/logging"
	"github.com/knowhub/knowhub-go/internal/rag"
	"github.com/knowhub/knowhub-go/internal/server"
	"github.com/knowhub/knowhub-go/internal/store"
	"github.com/knowhub/knowhub-go/internal/watcher"
)

// NewServeCmd constructs the `knowhub serve` command, which starts the HTTP
// API server.
func NewServeCmd() *cobra.Command {
	var host string
	var port int
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the KnowHub HTTP API server",
		Long: `Start the KnowHub HTTP API server.

The server exposes the chat endpoint with intent routing, the document
upload endpoints, and the operational endpoints (health, readiness,
Prometheus metrics).

Examples:
  knowhub serve
  knowhub serve --port 9000
  knowhub serve --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.NewFromEnv()
			ctx = logging.WithLogger(ctx, log)

			emb := embedder.NewFromEnv(log)
			chat := llm.NewFromEnv(log)

			vectors, err := openVectorStore(log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() { _ = vectors.Close() }()

			var web answer.WebSearcher
			if key := os.Getenv("SERPAPI_API_KEY"); key != "" {
				web = answer.NewSerpClient(key, log)
				log.Info("web search enabled")
			} else {
				log.Info("web search disabled", slog.String("reason", "SERPAPI_API_KEY not set"))
			}

			router, err := answer.NewRouter(&answer.Config{
				Embedder: emb,
				Store:    vectors,
				Chat:     chat,
				Web:      web,
				Logger:   log,
			})
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			docs, err := docindex.New(os.Getenv("DATA_DIR"))
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			pipeline, err := ingestion.NewPipeline(emb, vectors, &ingestion.Config{Logger: log})
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			history := openHistory(log)
			if history != nil {
				defer func() { _ = history.Close() }()
			}

			pingers := []server.Pinger{server.NewQdrantPinger(vectors)}
			if key := os.Getenv("OPENAI_API_KEY"); key != "" {
				base := os.Getenv("OPENAI_API_BASE")
				if base == "" {
					base = "https://api.openai.com/v1"
				}
				pingers = append(pingers, server.NewOpenAIPinger(base, key))
			}

			if watch {
				w, err := watcher.New(docs.Dir(), &uploadsHandler{
					pipeline: pipeline,
					vectors:  vectors,
					log:      log,
				}, log)
				if err != nil {
					return fmt.Errorf("serve: %w", err)
				}
				go func() { _ = w.Run(ctx) }()
			}

			srv, err := server.New(server.Deps{
				Router:   router,
				Ingester: pipeline,
				Docs:     docs,
				Vectors:  vectors,
				History:  history,
			}, &server.Config{
				Host:    resolveHost(host),
				Port:    resolvePort(port),
				Logger:  log,
				Pingers: pingers,
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Host address to bind to (default: KNOWHUB_HOST or 127.0.0.1)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "TCP port to listen on (default: KNOWHUB_PORT or 8000)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Re-ingest files dropped into the uploads directory")

	return cmd
}

// openVectorStore builds the Qdrant client from QDRANT_URL and related env vars.
func openVectorStore(log *slog.Logger) (*rag.QdrantStore, error) {
	host, port, useTLS, err := rag.ParseQdrantURL(os.Getenv("QDRANT_URL"))
	if err != nil {
		return nil, err
	}
	return rag.NewQdrantStore(&rag.QdrantConfig{
		Host:       host,
		Port:       port,
		Collection: os.Getenv("QDRANT_COLLECTION"),
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     useTLS,
		Logger:     log,
	})
}

// openHistory opens the query history store. KNOWHUB_HISTORY_DB overrides the
// default path (~/.knowhub/history.db); "disabled" turns history off. Any
// failure degrades to no history rather than blocking startup.
func openHistory(log *slog.Logger) store.HistoryStore {
	dbPath := os.Getenv("KNOWHUB_HISTORY_DB")
	if dbPath == "disabled" {
		log.Info("history: disabled via KNOWHUB_HISTORY_DB=disabled")
		return nil
	}
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			log.Warn("history: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil
		}
	}
	hs, err := store.Open(dbPath)
	if err != nil {
		log.Warn("history: failed to open store, disabling", slog.Any("error", err))
		return nil
	}
	log.Info("history: store opened", slog.String("path", dbPath))
	return hs
}

// resolveHost applies the flag > env > default precedence for the bind host.
func resolveHost(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv("KNOWHUB_HOST"); env != "" {
		return env
	}
	return "127.0.0.1"
}

// resolvePort applies the flag > env > default precedence for the bind port.
func resolvePort(flag int) int {
	if flag != 0 {
		return flag
	}
	if env := os.Getenv("KNOWHUB_PORT"); env != "" {
		if p, err := strconv.Atoi(env); err == nil && p > 0 {
			return p
		}
	}
	return 8000
}

// uploadsHandler reacts to files dropped into the uploads directory while
// the server runs with --watch.
type uploadsHandler struct {
	pipeline *ingestion.Pipeline
	vectors  *rag.QdrantStore
	log      *slog.Logger
}

// OnChange re-ingests a created or rewritten file.
func (h *uploadsHandler) OnChange(ctx context.Context, path string) {
	chunks, err := h.pipeline.IngestFile(ctx, path, "dev")
	if err != nil {
		h.log.Warn("watcher: ingest failed", slog.String("path", path), slog.Any("error", err))
		return
	}
	h.log.Info("watcher: file ingested", slog.String("path", path), slog.Int("chunks", chunks))
}

// OnRemove cleans the deleted file's chunks out of the vector store.
func (h *uploadsHandler) OnRemove(ctx context.Context, path string) {
	if err := h.vectors.DeleteBySource(ctx, path); err != nil {
		h.log.Warn("watcher: vector cleanup failed", slog.String("path", path), slog.Any("error", err))
	}
}
