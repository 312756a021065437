package similarity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosine(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		v := []float32{0.3, 0.4, 0.5}
		assert.InDelta(t, 1.0, Cosine(v, v), 1e-9)
	})

	t.Run("orthogonal vectors", func(t *testing.T) {
		assert.InDelta(t, 0.0, Cosine([]float32{1, 0, 0}, []float32{0, 1, 0}), 1e-9)
	})

	t.Run("opposite vectors", func(t *testing.T) {
		assert.InDelta(t, -1.0, Cosine([]float32{1, 2}, []float32{-1, -2}), 1e-9)
	})

	t.Run("length mismatch ranks last", func(t *testing.T) {
		assert.Equal(t, -1.0, Cosine([]float32{1, 0, 0}, []float32{1, 0}))
		assert.Equal(t, -1.0, Cosine([]float32{1, 0}, []float32{1, 0, 0}))
	})

	t.Run("zero norm ranks last", func(t *testing.T) {
		assert.Equal(t, -1.0, Cosine([]float32{0, 0, 0}, []float32{1, 0, 0}))
		assert.Equal(t, -1.0, Cosine([]float32{1, 0, 0}, []float32{0, 0, 0}))
	})

	t.Run("empty vectors rank last", func(t *testing.T) {
		assert.Equal(t, -1.0, Cosine(nil, nil))
	})
}

func TestTopK(t *testing.T) {
	scores := []float64{0.2, 0.9, 0.9, -1, 0.5}

	assert.Equal(t, []int{1, 2, 4}, TopK(scores, 3), "descending, ties keep input order")
	assert.Equal(t, []int{1, 2, 4, 0, 3}, TopK(scores, 10), "k beyond length returns all")
	assert.Empty(t, TopK(scores, 0))
	assert.Empty(t, TopK(nil, 5))
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	Normalize(v)
	assert.InDelta(t, 1.0, Norm(v), 1e-6)
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)

	zero := []float32{0, 0}
	Normalize(zero)
	assert.Equal(t, []float32{0, 0}, zero)
}

func TestDot(t *testing.T) {
	assert.InDelta(t, 11.0, Dot([]float32{1, 2}, []float32{3, 4}), 1e-9)
	assert.Equal(t, 0.0, Dot([]float32{1}, []float32{1, 2}))
}

func TestNorm(t *testing.T) {
	assert.InDelta(t, 5.0, Norm([]float32{3, 4}), 1e-9)
	assert.True(t, math.Abs(Norm(nil)) < 1e-12)
}
