package embedder

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedder_Deterministic(t *testing.T) {
	t.Parallel()

	e := NewHashEmbedder(64)

	a, err := e.Embed(context.Background(), []string{"firemní směrnice pro dovolenou"})
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), []string{"firemní směrnice pro dovolenou"})
	require.NoError(t, err)

	assert.Equal(t, a[0], b[0], "same text must hash to the same vector")
}

func TestHashEmbedder_UnitNorm(t *testing.T) {
	t.Parallel()

	e := NewHashEmbedder(128)

	vecs, err := e.Embed(context.Background(), []string{"one two three four five"})
	require.NoError(t, err)

	var norm float64
	for _, v := range vecs[0] {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5, "non-empty token set yields a unit vector")
}

func TestHashEmbedder_EmptyText(t *testing.T) {
	t.Parallel()

	e := NewHashEmbedder(32)

	vecs, err := e.Embed(context.Background(), []string{""})
	require.NoError(t, err)
	require.Len(t, vecs[0], 32)

	for _, v := range vecs[0] {
		assert.Zero(t, v, "no tokens means the zero vector, not NaN")
	}
}

func TestHashEmbedder_CaseInsensitive(t *testing.T) {
	t.Parallel()

	e := NewHashEmbedder(64)

	vecs, err := e.Embed(context.Background(), []string{"Hello World", "hello world"})
	require.NoError(t, err)
	assert.Equal(t, vecs[0], vecs[1])
}

func TestHashEmbedder_Dimension(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 256, NewHashEmbedder(256).Dim())
	assert.Equal(t, DefaultFallbackDim, NewHashEmbedder(0).Dim())
	assert.Equal(t, DefaultFallbackDim, NewHashEmbedder(-5).Dim())

	vecs, err := NewHashEmbedder(256).Embed(context.Background(), []string{"x", "y"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Len(t, vecs[0], 256)
	assert.Len(t, vecs[1], 256)
}

func TestHashEmbedder_DistinctTextsDiffer(t *testing.T) {
	t.Parallel()

	e := NewHashEmbedder(512)

	vecs, err := e.Embed(context.Background(), []string{"kočka sedí na okně", "úplně jiný obsah dokumentu"})
	require.NoError(t, err)
	assert.NotEqual(t, vecs[0], vecs[1])
}
