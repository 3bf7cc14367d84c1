// Package search finds vocabulary words whose embeddings lie close to a set of
// probe vectors and aggregates the candidates for a word pair.
package search

import (
	"cmp"
	"context"
	"fmt"
	"runtime"
	"slices"

	"github.com/ForrestTrepte/SoCloverAI/embedstore"
	"github.com/ForrestTrepte/SoCloverAI/similarity"
	"github.com/ForrestTrepte/SoCloverAI/types"
	"golang.org/x/sync/errgroup"
)

// minChunk is the smallest number of rows scored by one goroutine.
const minChunk = 4096

// Index answers nearest-neighbor queries over an embedding matrix. It never
// modifies the matrix and is safe for concurrent use.
type Index struct {
	matrix  *embedstore.Matrix
	workers int
}

// NewIndex creates an index over m.
func NewIndex(m *embedstore.Matrix) *Index {
	return &Index{matrix: m, workers: runtime.GOMAXPROCS(0)}
}

// Len returns the number of indexed words.
func (x *Index) Len() int {
	return x.matrix.Len()
}

// FindNear returns the k words closest to all probes, ascending by distance.
// A word's distance is its cosine distance to the farthest probe, so words
// must be near every probe to rank well. Ties keep vocabulary order.
func (x *Index) FindNear(ctx context.Context, probes []types.Vector, k int) ([]types.Candidate, error) {
	if len(probes) == 0 {
		return nil, fmt.Errorf("%w: at least one probe is required", types.ErrConfiguration)
	}
	for i, p := range probes {
		if len(p) != x.matrix.Dim() {
			return nil, fmt.Errorf("%w: probe %d has dimension %d, index has %d", types.ErrDataIntegrity, i, len(p), x.matrix.Dim())
		}
		if !similarity.IsNormalized(p) {
			return nil, fmt.Errorf("%w: probe %d has norm %g", types.ErrNotNormalized, i, similarity.Norm(p))
		}
	}
	n := x.matrix.Len()
	if k <= 0 || n == 0 {
		return []types.Candidate{}, nil
	}
	k = min(k, n)

	distances, err := x.score(ctx, probes)
	if err != nil {
		return nil, err
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		if c := cmp.Compare(distances[a], distances[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	out := make([]types.Candidate, k)
	for i, row := range order[:k] {
		out[i] = types.Candidate{Word: x.matrix.Word(row), Distance: distances[row]}
	}
	return out, nil
}

// score computes the max-fused distance of every row, splitting rows across workers.
func (x *Index) score(ctx context.Context, probes []types.Vector) ([]float64, error) {
	n := x.matrix.Len()
	distances := make([]float64, n)

	chunk := max(minChunk, (n+x.workers-1)/x.workers)
	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for row := start; row < end; row++ {
				v := x.matrix.Vector(row)
				worst := similarity.CosineDistance(v, probes[0])
				for _, p := range probes[1:] {
					worst = max(worst, similarity.CosineDistance(v, p))
				}
				distances[row] = worst
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return distances, nil
}
