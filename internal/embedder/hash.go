package embedder

import (
	"context"
	"crypto/sha256"
	"math"
	"math/big"
	"regexp"
	"strings"
)

// DefaultFallbackDim is the vector size of the hashing embedder when
// FALLBACK_EMBED_DIM is not set. It matches text-embedding-3-small so a
// collection created offline stays usable once a real key is configured.
const DefaultFallbackDim = 1536

// tokenRe splits text into word-like tokens for hashing. Letters and digits
// in any script, underscore, hyphen and apostrophe.
var tokenRe = regexp.MustCompile(`[\p{L}\p{N}_\-']+`)

// HashEmbedder implements rag.Embedder with a deterministic token-hashing
// scheme: each token of the lowercased text is hashed into one of dim buckets
// and the resulting count vector is L2-normalized.
//
// The output carries no semantic meaning — two texts are similar only when
// they share literal tokens. It exists so the system stays functional with no
// remote provider configured; tests must treat it as a functional stub and
// never assert retrieval relevance.
type HashEmbedder struct {
	// dim is the fixed output vector length.
	dim int
}

// NewHashEmbedder constructs a HashEmbedder with the given vector size.
// Non-positive dim falls back to DefaultFallbackDim.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultFallbackDim
	}
	return &HashEmbedder{dim: dim}
}

// Dim returns the fixed output vector length.
func (e *HashEmbedder) Dim() int { return e.dim }

// Embed hashes each text into a fixed-dimension unit vector. It never fails;
// the error return exists only to satisfy rag.Embedder.
func (e *HashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embedOne(t)
	}
	return out, nil
}

// embedOne builds the L2-normalized bucket-count vector for a single text.
func (e *HashEmbedder) embedOne(text string) []float32 {
	vec := make([]float64, e.dim)
	dim := big.NewInt(int64(e.dim))

	for _, tok := range tokenRe.FindAllString(strings.ToLower(text), -1) {
		sum := sha256.Sum256([]byte(tok))
		bucket := new(big.Int).Mod(new(big.Int).SetBytes(sum[:]), dim).Int64()
		vec[bucket]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1.0
	}

	out := make([]float32, e.dim)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}
