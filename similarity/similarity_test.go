package similarity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test similarity functions with known vectors
func TestSimilarityFunctions(t *testing.T) {
	vec1 := []float32{1, 0, 0}
	vec2 := []float32{0, 1, 0}
	vec3 := []float32{1, 0, 0} // Same as vec1
	opposite := []float32{-1, 0, 0}

	t.Run("DotProduct", func(t *testing.T) {
		assert.Equal(t, 0.0, DotProduct(vec1, vec2))
		assert.Equal(t, 1.0, DotProduct(vec1, vec3))
		assert.Equal(t, 0.0, DotProduct([]float32{}, []float32{}))
		assert.Equal(t, 0.0, DotProduct(vec1, []float32{1, 0}))
	})

	t.Run("CosineDistance", func(t *testing.T) {
		assert.InDelta(t, 0.0, CosineDistance(vec1, vec3), 1e-9)
		assert.InDelta(t, 1.0, CosineDistance(vec1, vec2), 1e-9)
		assert.InDelta(t, 2.0, CosineDistance(vec1, opposite), 1e-9)
	})

	t.Run("Norm", func(t *testing.T) {
		assert.InDelta(t, 5.0, Norm([]float32{3, 4}), 1e-9)
		assert.True(t, IsNormalized(vec1))
		assert.False(t, IsNormalized([]float32{3, 4}))
		assert.False(t, IsNormalized(nil))
	})

	t.Run("Normalize", func(t *testing.T) {
		n := Normalize([]float32{3, 4})
		assert.InDelta(t, 0.6, n[0], 1e-6)
		assert.InDelta(t, 0.8, n[1], 1e-6)
		assert.True(t, IsNormalized(n))

		zero := Normalize([]float32{0, 0})
		assert.Equal(t, []float32{0, 0}, zero)
	})

	t.Run("NormalizeLargeDimension", func(t *testing.T) {
		v := make([]float32, 1536)
		for i := range v {
			v[i] = float32(math.Sin(float64(i)))
		}
		assert.True(t, IsNormalized(Normalize(v)))
	})
}
