// Package llm provides the chat completion provider: the OpenAI chat
// completions REST API when a key is configured, degrading to a local
// extractive answerer otherwise. Chat never fails — provider errors are
// logged and answered by the fallback so the caller always gets a string.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// chatTimeout is the fixed timeout for remote chat completion calls.
const chatTimeout = 120 * time.Second

// chatTemperature keeps answers close to the supplied context.
const chatTemperature = 0.2

// Client is the chat completion provider. It is safe for concurrent use.
type Client struct {
	// baseURL is the API base (e.g. "https://api.openai.com/v1").
	baseURL string
	// apiKey is the Bearer token; empty disables the remote provider.
	apiKey string
	// model is the chat model name (e.g. "gpt-4o-mini").
	model string
	// httpClient is the shared HTTP client with a fixed timeout.
	httpClient *http.Client
	// log records fallback degradations.
	log *slog.Logger
}

// Config holds the settings for constructing a Client.
type Config struct {
	// BaseURL is the API base URL (default: "https://api.openai.com/v1").
	BaseURL string
	// APIKey enables the remote provider when non-empty.
	APIKey string
	// Model is the chat model name (default: "gpt-4o-mini").
	Model string
	// Logger records degradations. If nil, slog.Default is used.
	Logger *slog.Logger
}

// New constructs a Client from the given config.
func New(cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		model:      model,
		httpClient: &http.Client{Timeout: chatTimeout},
		log:        log,
	}
}

// NewFromEnv constructs the chat provider from environment variables, read
// once at startup: OPENAI_API_KEY, OPENAI_API_BASE, CHAT_MODEL.
func NewFromEnv(log *slog.Logger) *Client {
	return New(&Config{
		BaseURL: os.Getenv("OPENAI_API_BASE"),
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		Model:   os.Getenv("CHAT_MODEL"),
		Logger:  log,
	})
}

// chatMessage is one entry of the messages array sent to the API.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the JSON body sent to the chat completions endpoint.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// chatResponse is the JSON body returned from the chat completions endpoint.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Chat returns the model's answer for the given system and user prompts.
// It never fails: when the remote provider is unconfigured or errors, the
// extractive fallback answers from the context section of the user prompt.
func (c *Client) Chat(ctx context.Context, system, user string) string {
	if c.apiKey != "" {
		answer, err := c.remoteChat(ctx, system, user)
		if err == nil {
			return answer
		}
		c.log.Warn("llm: remote chat completion failed, using extractive fallback",
			slog.String("model", c.model),
			slog.Any("error", err),
		)
	}
	return extractiveChat(user)
}

// remoteChat performs one chat completions API call.
func (c *Client) remoteChat(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: chatTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("llm: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if result.Error != nil {
			msg = result.Error.Message
		}
		return "", fmt.Errorf("llm: %s", msg)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("llm: response contained no choices")
	}
	return result.Choices[0].Message.Content, nil
}
