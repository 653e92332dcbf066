package answer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerpClient_Search(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "google", r.URL.Query().Get("engine"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "počasí praha", r.URL.Query().Get("q"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"organic_results":[
			{"title":"Počasí","snippet":"Slunečno","link":"https://pocasi.cz/praha"},
			{"title":"Jiné","snippet":"Déšť","link":"https://example.com/x"}
		]}`)
	}))
	defer srv.Close()

	c := NewSerpClient("test-key", nil)
	c.endpoint = srv.URL

	results := c.Search(context.Background(), "počasí praha", 6)

	require.Len(t, results, 2)
	assert.Equal(t, "Počasí", results[0].Title)
	assert.Equal(t, "https://pocasi.cz/praha", results[0].URL)
}

func TestSerpClient_ResultCap(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"organic_results":[
			{"title":"1","link":"https://a.cz"},
			{"title":"2","link":"https://b.cz"},
			{"title":"3","link":"https://c.cz"}
		]}`)
	}))
	defer srv.Close()

	c := NewSerpClient("test-key", nil)
	c.endpoint = srv.URL

	assert.Len(t, c.Search(context.Background(), "q", 2), 2)
}

// TestSerpClient_FailuresReturnEmpty verifies every failure mode degrades to
// an empty result set rather than an error.
func TestSerpClient_FailuresReturnEmpty(t *testing.T) {
	t.Parallel()

	t.Run("no api key", func(t *testing.T) {
		t.Parallel()
		c := NewSerpClient("", nil)
		assert.Nil(t, c.Search(context.Background(), "q", 6))
	})

	t.Run("server error", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := NewSerpClient("test-key", nil)
		c.endpoint = srv.URL
		assert.Nil(t, c.Search(context.Background(), "q", 6))
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "not json")
		}))
		defer srv.Close()

		c := NewSerpClient("test-key", nil)
		c.endpoint = srv.URL
		assert.Nil(t, c.Search(context.Background(), "q", 6))
	})

	t.Run("unreachable host", func(t *testing.T) {
		t.Parallel()
		c := NewSerpClient("test-key", nil)
		c.endpoint = "http://127.0.0.1:1"
		assert.Nil(t, c.Search(context.Background(), "q", 6))
	})
}

func TestDomainOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "example.com", domainOf("https://example.com/path?x=1"))
	assert.Equal(t, "example.com:8080", domainOf("http://example.com:8080/"))
	assert.Equal(t, "not a url", domainOf("not a url"))
}
