package answer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

// webSearchTimeout is the fixed timeout for external search calls.
const webSearchTimeout = 20 * time.Second

// defaultWebResults caps how many organic results a web answer uses.
const defaultWebResults = 6

// WebUnavailable is the fixed reply when the search provider is
// unconfigured or returned nothing.
const WebUnavailable = "Webové vyhledávání není nakonfigurované (chybí SERPAPI_API_KEY), nebo se nepodařilo najít výsledky."

// WebResult is one external search result.
type WebResult struct {
	// Title is the result headline.
	Title string
	// Snippet is the short excerpt shown under the headline.
	Snippet string
	// URL is the result link.
	URL string
}

// WebSearcher is the external search provider contract. Implementations
// return at most num results and swallow all failures — a provider error
// means an empty slice, never a raised error.
type WebSearcher interface {
	Search(ctx context.Context, query string, num int) []WebResult
}

// SerpClient implements WebSearcher against the SerpAPI Google engine.
type SerpClient struct {
	// apiKey is the SerpAPI key; empty disables the client.
	apiKey string
	// endpoint is the search URL, overridable in tests.
	endpoint string
	// httpClient is the shared HTTP client with a fixed timeout.
	httpClient *http.Client
	// log records swallowed provider failures.
	log *slog.Logger
}

// NewSerpClient constructs a SerpClient. An empty apiKey yields a client
// that always returns no results.
func NewSerpClient(apiKey string, log *slog.Logger) *SerpClient {
	if log == nil {
		log = slog.Default()
	}
	return &SerpClient{
		apiKey:     apiKey,
		endpoint:   "https://serpapi.com/search.json",
		httpClient: &http.Client{Timeout: webSearchTimeout},
		log:        log,
	}
}

// serpResponse is the subset of the SerpAPI response we consume.
type serpResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"organic_results"`
}

// Search queries SerpAPI for up to num organic results. All failures
// degrade to an empty result set with a structured WARN log.
func (c *SerpClient) Search(ctx context.Context, query string, num int) []WebResult {
	if c.apiKey == "" {
		return nil
	}
	if num <= 0 {
		num = defaultWebResults
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("api_key", c.apiKey)
	params.Set("num", fmt.Sprintf("%d", num))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		c.log.Warn("websearch: create request failed", slog.Any("error", err))
		return nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("websearch: request failed", slog.Any("error", err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("websearch: unexpected status", slog.Int("status", resp.StatusCode))
		return nil
	}

	var data serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		c.log.Warn("websearch: decode response failed", slog.Any("error", err))
		return nil
	}

	results := make([]WebResult, 0, num)
	for _, r := range data.OrganicResults {
		if len(results) == num {
			break
		}
		results = append(results, WebResult{Title: r.Title, Snippet: r.Snippet, URL: r.Link})
	}
	return results
}

// domainRe extracts the host part of an http(s) URL for citation labels.
var domainRe = regexp.MustCompile(`https?://([^/]+)/?`)

// domainOf returns the host of rawURL, or rawURL itself when it does not
// parse as an http(s) URL.
func domainOf(rawURL string) string {
	if m := domainRe.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	return rawURL
}
