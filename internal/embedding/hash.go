package embedding

import (
	"crypto/sha256"
	"encoding/binary"
	"regexp"
	"strings"

	"videoqa/internal/similarity"
)

// DefaultFallbackDim matches the dimension of the primary embedding model so
// vectors from either mode are interchangeable in shape.
const DefaultFallbackDim = 384

var tokenPattern = regexp.MustCompile(`[a-z0-9_]+`)

// HashEmbedder is a deterministic, model-free text embedder: each token is
// hashed into a slot of a fixed-size vector with a hash-derived sign, then
// the vector is L2-normalized. It is an order-independent random-projection
// embedding that exists to keep search functional when no learned model is
// available, not to be semantically strong.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a hash embedder with the given dimension.
// Non-positive dimensions fall back to DefaultFallbackDim.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultFallbackDim
	}
	return &HashEmbedder{dim: dim}
}

// Dimension returns the fixed length of produced vectors.
func (e *HashEmbedder) Dimension() int { return e.dim }

// Encode embeds a single text. Identical token multisets always produce the
// identical vector, across calls and process restarts. Text with no tokens
// yields the zero vector.
func (e *HashEmbedder) Encode(text string) []float32 {
	vec := make([]float32, e.dim)
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		return vec
	}

	for _, token := range tokens {
		digest := sha256.Sum256([]byte(token))
		idx := int(binary.LittleEndian.Uint32(digest[:4])) % e.dim
		if digest[4]%2 == 0 {
			vec[idx]++
		} else {
			vec[idx]--
		}
	}

	similarity.Normalize(vec)
	return vec
}
