package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Pinger is the interface implemented by any dependency that can report its
// own reachability. Each implementation must return nil when the dependency
// is healthy and a descriptive error otherwise.
// Implementations must be safe to call from multiple goroutines.
type Pinger interface {
	// Ping checks whether the dependency is reachable within the given context.
	// Returns nil on success, a descriptive error on failure.
	Ping(ctx context.Context) error

	// Name returns a short human-readable label used in readiness responses
	// (e.g. "qdrant", "openai").
	Name() string
}

// vectorPinger adapts anything exposing a Ping method into a named Pinger.
// The Qdrant store satisfies the embedded interface via its HealthCheck RPC.
type vectorPinger struct {
	ping func(ctx context.Context) error
}

// NewQdrantPinger constructs the readiness probe for the vector store.
func NewQdrantPinger(store interface{ Ping(ctx context.Context) error }) Pinger {
	return &vectorPinger{ping: store.Ping}
}

// Name returns the dependency label used in readiness responses.
func (p *vectorPinger) Name() string { return "qdrant" }

// Ping calls the store's health check. The store already wraps its
// failures with context, so the error passes through untouched.
func (p *vectorPinger) Ping(ctx context.Context) error {
	return p.ping(ctx)
}

// OpenAIPinger probes the chat/embeddings backend with a GET on its models
// listing, which validates both reachability and the API key without
// consuming tokens.
type OpenAIPinger struct {
	// baseURL is the API base, e.g. https://api.openai.com/v1.
	baseURL string
	// apiKey is sent as the bearer token.
	apiKey string
	// client is the HTTP client used for probes.
	client *http.Client
}

// NewOpenAIPinger constructs a probe against baseURL with apiKey.
func NewOpenAIPinger(baseURL, apiKey string) *OpenAIPinger {
	return &OpenAIPinger{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

// Name returns the dependency label used in readiness responses.
func (p *OpenAIPinger) Name() string { return "openai" }

// Ping issues GET {base}/models and treats any 2xx as healthy.
func (p *OpenAIPinger) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
