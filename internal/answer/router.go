package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knowhub/knowhub-go/internal/rag"
)

// System prompts per strategy. Kept in Czech to match the primary
// deployment language; the model is instructed to answer in the language
// of the query either way.
const (
	// GeneralSystem steers plain chat completions with no context.
	GeneralSystem = "Jsi užitečný, přátelský asistent. Mluv přirozeně v jazyce dotazu. " +
		"Buď stručný, ale užitečný."

	// RAGSystem steers retrieval-augmented completions.
	RAGSystem = "Jsi užitečný asistent. Odpovídej přirozeně v jazyce dotazu. " +
		"Použij poskytnutý kontext jako zdroj faktů. Nekopíruj technické značky, cesty k souborům ani chunk ID. " +
		"Když něco v kontextu chybí, řekni to."

	// WebSystem steers completions grounded on web search excerpts.
	WebSystem = "Jsi vyhledávací asistent. Máš k dispozici krátké výtahy z výsledků hledání z webu. " +
		"Odpověz věcně v jazyce dotazu a drž se faktů."
)

// ragContextHits caps how many retrieval hits feed the context block.
const ragContextHits = 6

// ragMinTopK is the retrieval floor: the store is always asked for at least
// this many neighbours regardless of the requested top_k.
const ragMinTopK = 8

// Citation references a source document that contributed to an answer.
type Citation struct {
	// Source is the display name: a file basename or a web domain.
	Source string `json:"source"`
	// Snippet is an optional short excerpt (web results use the title).
	Snippet string `json:"snippet,omitempty"`
	// Score is the similarity score of the contributing hit, when known.
	Score *float64 `json:"score,omitempty"`
}

// ChatResponse is the final answer with its supporting citations.
type ChatResponse struct {
	// Answer is the composed answer text.
	Answer string `json:"answer"`
	// Citations lists contributing sources, deduplicated by source name.
	// Always non-nil so the JSON encodes as an array.
	Citations []Citation `json:"citations"`
}

// Completer is the chat completion contract the Router depends on.
// *llm.Client satisfies it; tests inject a fake.
type Completer interface {
	// Chat returns the completion for the system+user prompts. Never fails.
	Chat(ctx context.Context, system, user string) string
}

// Router classifies queries and dispatches them to the matching answer
// strategy. It holds no per-request state and is safe for concurrent use.
type Router struct {
	// embedder converts the query into a vector for retrieval intents.
	embedder rag.Embedder
	// store performs the vector similarity search.
	store rag.VectorStore
	// chat produces natural-language answers.
	chat Completer
	// web is the external search provider; nil disables the web strategy.
	web WebSearcher
	// now supplies the clock for the time intent, injectable in tests.
	now func() time.Time
	// log records degradations inside the answer pipeline.
	log *slog.Logger
}

// Config holds the dependencies for constructing a Router.
type Config struct {
	// Embedder converts query text into vectors. Required.
	Embedder rag.Embedder
	// Store performs vector search. Required.
	Store rag.VectorStore
	// Chat produces completions. Required.
	Chat Completer
	// Web is the external search provider. Optional.
	Web WebSearcher
	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
	// Logger records degradations. If nil, slog.Default is used.
	Logger *slog.Logger
}

// NewRouter constructs a Router from the provided dependencies.
func NewRouter(cfg *Config) (*Router, error) {
	if cfg == nil || cfg.Embedder == nil {
		return nil, fmt.Errorf("answer: embedder must not be nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("answer: store must not be nil")
	}
	if cfg.Chat == nil {
		return nil, fmt.Errorf("answer: chat completer must not be nil")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		embedder: cfg.Embedder,
		store:    cfg.Store,
		chat:     cfg.Chat,
		web:      cfg.Web,
		now:      now,
		log:      log,
	}, nil
}

// Answer classifies the query and produces the final response. It never
// fails: every failure path degrades to a fixed message or a fallback
// strategy, so the handler always has an answer to return.
func (r *Router) Answer(ctx context.Context, query string, topK int) (ChatResponse, Intent) {
	query = strings.TrimSpace(query)
	intent := Detect(query)

	switch intent {
	case IntentCalc:
		return ChatResponse{Answer: CalcAnswer(query), Citations: []Citation{}}, intent
	case IntentTime:
		return ChatResponse{Answer: timeAnswer(r.now()), Citations: []Citation{}}, intent
	case IntentWeb:
		return r.webAnswer(ctx, query), intent
	}

	qvec, ok := r.embedQuery(ctx, query)
	if !ok {
		// Embedding is contractually infallible; guard anyway so a broken
		// injected embedder degrades to plain chat instead of a panic.
		return r.generalAnswer(ctx, query), intent
	}

	if intent == IntentContact {
		if resp, found := r.contactAnswer(ctx, qvec); found {
			return resp, intent
		}
	}

	return r.ragAnswer(ctx, query, qvec, topK), intent
}

// embedQuery embeds the query text, reporting failure instead of raising.
func (r *Router) embedQuery(ctx context.Context, query string) ([]float32, bool) {
	vecs, err := r.embedder.Embed(ctx, []string{query})
	if err != nil || len(vecs) == 0 {
		r.log.Warn("answer: query embedding failed", slog.Any("error", err))
		return nil, false
	}
	return vecs[0], true
}

// ragAnswer composes a retrieval-augmented answer: search, build the context
// block from usable hits, collect deduplicated citations, complete, sanitize.
// With no usable context it degrades to a plain chat completion.
func (r *Router) ragAnswer(ctx context.Context, query string, qvec []float32, topK int) ChatResponse {
	hits := r.store.Search(ctx, qvec, max(ragMinTopK, topK))
	if len(hits) > ragContextHits {
		hits = hits[:ragContextHits]
	}

	var contextParts []string
	citations := []Citation{}
	seen := make(map[string]bool)

	for _, h := range hits {
		text := strings.TrimSpace(hitText(h.Meta))
		if text == "" {
			continue
		}
		contextParts = append(contextParts, text)

		fname := hitSourceName(h.Meta)
		if fname != "" && !seen[fname] {
			seen[fname] = true
			score := float64(h.Score)
			citations = append(citations, Citation{Source: fname, Score: &score})
		}
	}

	if len(contextParts) == 0 {
		return r.generalAnswer(ctx, query)
	}

	answer := strings.TrimSpace(r.chat.Chat(ctx, RAGSystem, buildRAGPrompt(contextParts, query)))
	return ChatResponse{
		Answer:    sanitizeAnswer(answer),
		Citations: citations,
	}
}

// generalAnswer is the no-context fallback: a plain chat completion on the
// raw query with empty citations.
func (r *Router) generalAnswer(ctx context.Context, query string) ChatResponse {
	return ChatResponse{
		Answer:    strings.TrimSpace(r.chat.Chat(ctx, GeneralSystem, query)),
		Citations: []Citation{},
	}
}

// webAnswer builds a numbered context block from external search results and
// asks the model to synthesize an answer from it. Unconfigured or empty
// search degrades to a fixed message with no citations.
func (r *Router) webAnswer(ctx context.Context, query string) ChatResponse {
	var results []WebResult
	if r.web != nil {
		results = r.web.Search(ctx, query, defaultWebResults)
	}
	if len(results) == 0 {
		return ChatResponse{Answer: WebUnavailable, Citations: []Citation{}}
	}

	parts := make([]string, 0, len(results))
	citations := make([]Citation, 0, len(results))
	for i, res := range results {
		parts = append(parts, fmt.Sprintf("[%d] %s\n%s\nURL: %s", i+1, res.Title, res.Snippet, res.URL))
		citations = append(citations, Citation{Source: domainOf(res.URL), Snippet: res.Title})
	}

	prompt := "VSTUPNÍ VÝSLEDKY:\n" + strings.Join(parts, "\n\n") +
		"\n\nOTÁZKA: " + query + "\n\nODPOVĚZ SROZUMITELNĚ:"
	answer := strings.TrimSpace(r.chat.Chat(ctx, WebSystem, prompt))

	return ChatResponse{Answer: answer, Citations: citations}
}
