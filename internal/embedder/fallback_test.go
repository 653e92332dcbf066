package embedder

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIEmbedder_PlacesByIndex(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		// Out-of-order data exercises the place-by-index logic.
		fmt.Fprint(w, `{"data":[
			{"index":1,"embedding":[0.4,0.5]},
			{"index":0,"embedding":[0.1,0.2]}
		]}`)
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(&OpenAIConfig{BaseURL: srv.URL, APIKey: "test-key"})

	vecs, err := e.Embed(context.Background(), []string{"první", "druhý"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{0.1, 0.2}, vecs[0])
	assert.Equal(t, []float32{0.4, 0.5}, vecs[1])
}

func TestOpenAIEmbedder_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key"}}`)
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(&OpenAIConfig{BaseURL: srv.URL, APIKey: "bad"})

	_, err := e.Embed(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
}

func TestOpenAIEmbedder_CountMismatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":[{"index":0,"embedding":[0.1]}]}`)
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(&OpenAIConfig{BaseURL: srv.URL, APIKey: "k"})

	_, err := e.Embed(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestFallbackEmbedder_UsesRemoteWhenHealthy(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":[{"index":0,"embedding":[0.7,0.7]}]}`)
	}))
	defer srv.Close()

	remote := NewOpenAIEmbedder(&OpenAIConfig{BaseURL: srv.URL, APIKey: "k"})
	e := NewFallbackEmbedder(remote, NewHashEmbedder(2), nil)

	vecs, err := e.Embed(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, []float32{0.7, 0.7}, vecs[0])
}

func TestFallbackEmbedder_DegradesOnRemoteFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	remote := NewOpenAIEmbedder(&OpenAIConfig{BaseURL: srv.URL, APIKey: "k"})
	local := NewHashEmbedder(16)
	e := NewFallbackEmbedder(remote, local, nil)

	got, err := e.Embed(context.Background(), []string{"stejný text"})
	require.NoError(t, err, "fallback path must not surface the remote error")

	want, _ := local.Embed(context.Background(), []string{"stejný text"})
	assert.Equal(t, want[0], got[0], "degraded output comes from the hashing embedder")
}

func TestFallbackEmbedder_NoRemoteConfigured(t *testing.T) {
	t.Parallel()

	local := NewHashEmbedder(16)
	e := NewFallbackEmbedder(nil, local, nil)

	got, err := e.Embed(context.Background(), []string{"text"})
	require.NoError(t, err)

	want, _ := local.Embed(context.Background(), []string{"text"})
	assert.Equal(t, want[0], got[0])
}
