package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/knowhub/knowhub-go/internal/answer"
	"github.com/knowhub/knowhub-go/internal/docindex"
	"github.com/knowhub/knowhub-go/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8000).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	// Must cover the 120s chat completion timeout plus slack.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, slog.Default is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /ready.
	// If empty, /ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
}

// answerer is the interface handleChat calls to resolve a query.
// *answer.Router satisfies it; tests inject a fake.
type answerer interface {
	// Answer resolves query into a response and reports the detected intent.
	Answer(ctx context.Context, query string, topK int) (answer.ChatResponse, answer.Intent)
}

// ingester is the interface the document handlers call to (re)index a file.
// *ingestion.Pipeline satisfies it; tests inject a fake.
type ingester interface {
	// IngestFile chunks, embeds, and upserts one file. Returns the chunk count.
	IngestFile(ctx context.Context, path, owner string) (int, error)
}

// vectorCleaner removes indexed chunks when their source file is deleted.
// *rag.QdrantStore satisfies it; tests inject a fake.
type vectorCleaner interface {
	// DeleteBySource removes all points whose source metadata matches.
	DeleteBySource(ctx context.Context, source string) error
}

// Deps are the collaborators the server routes requests to.
type Deps struct {
	// Router resolves chat queries.
	Router answerer
	// Ingester indexes uploaded documents.
	Ingester ingester
	// Docs is the upload directory and its JSON index.
	Docs *docindex.Store
	// Vectors cleans up indexed chunks on document deletion.
	Vectors vectorCleaner
	// History persists answered queries. Nil disables history.
	History store.HistoryStore
}

// Server is the HTTP server for the knowledge hub API.
type Server struct {
	// deps holds the wired collaborators.
	deps Deps
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /ready.
	pingers []Pinger
	// metrics holds the Prometheus instruments owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// chatRequest is the JSON body for POST /chat.
type chatRequest struct {
	// Query is the user's natural language question.
	Query string `json:"query"`
	// TopK is the requested retrieval depth. Defaults to 5.
	TopK int `json:"top_k"`
}

// chatResponse is the JSON response for POST /chat.
type chatResponse struct {
	// Answer is the final answer text.
	Answer string `json:"answer"`
	// Citations lists the sources consulted, first-seen order.
	Citations []answer.Citation `json:"citations"`
}

// historyResponse is the JSON response for GET /chat/history.
type historyResponse struct {
	// Items are recent answered queries, newest first.
	Items []store.Entry `json:"items"`
}

// uploadResponse is the JSON response for the document upload endpoints.
type uploadResponse struct {
	// Status is "uploaded", "skipped", or "replaced".
	Status string `json:"status"`
	// File describes the stored document.
	File docindex.FileMeta `json:"file"`
}

// uploadURLRequest is the JSON body for POST /documents/upload-url.
type uploadURLRequest struct {
	// URL is the remote location to import.
	URL string `json:"url"`
}

// listResponse is the JSON response for GET /documents.
type listResponse struct {
	// Items are the stored documents, newest first.
	Items []docindex.ListItem `json:"items"`
}

// checkResponse is the JSON response for GET /documents/check.
type checkResponse struct {
	// Exists reports whether the named document is stored.
	Exists bool `json:"exists"`
}

// reingestResponse is the JSON response for POST /documents/reingest.
type reingestResponse struct {
	// Ingested is the number of files successfully re-indexed.
	Ingested int `json:"ingested"`
}

// okResponse is the JSON response for DELETE /documents/{filename}.
type okResponse struct {
	OK bool `json:"ok"`
}
