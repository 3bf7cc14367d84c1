package embedstore

import (
	"fmt"

	"github.com/ForrestTrepte/SoCloverAI/similarity"
	"github.com/ForrestTrepte/SoCloverAI/types"
)

// Matrix is an immutable sequence of (word, unit vector) rows aligned with
// vocabulary rank. It is safe for concurrent readers.
type Matrix struct {
	words   []string
	vectors []types.Vector
	dim     int
}

// NewMatrix validates and wraps words and vectors. Every vector must share
// one dimension and have unit norm.
func NewMatrix(words []string, vectors []types.Vector) (*Matrix, error) {
	if len(words) != len(vectors) {
		return nil, fmt.Errorf("%w: %d words but %d embedding rows", types.ErrDataIntegrity, len(words), len(vectors))
	}
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: row %d (%q) has dimension %d, expected %d", types.ErrDataIntegrity, i, words[i], len(v), dim)
		}
		if !similarity.IsNormalized(v) {
			return nil, fmt.Errorf("%w: row %d (%q) has norm %g", types.ErrNotNormalized, i, words[i], similarity.Norm(v))
		}
	}
	return &Matrix{words: words, vectors: vectors, dim: dim}, nil
}

// Len returns the number of rows.
func (m *Matrix) Len() int { return len(m.words) }

// Dim returns the vector dimension.
func (m *Matrix) Dim() int { return m.dim }

// Word returns the word at rank i.
func (m *Matrix) Word(i int) string { return m.words[i] }

// Vector returns the vector at rank i. Callers must not modify it.
func (m *Matrix) Vector(i int) types.Vector { return m.vectors[i] }

// Prefix returns the first n rows, sharing storage with m.
func (m *Matrix) Prefix(n int) *Matrix {
	if n >= len(m.words) {
		return m
	}
	return &Matrix{words: m.words[:n:n], vectors: m.vectors[:n:n], dim: m.dim}
}
