package search

import (
	"context"
	"math"
	"testing"

	"github.com/ForrestTrepte/SoCloverAI/embedstore"
	"github.com/ForrestTrepte/SoCloverAI/similarity"
	"github.com/ForrestTrepte/SoCloverAI/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unit(v ...float32) types.Vector {
	return similarity.Normalize(v)
}

// angle returns the unit vector at deg degrees in the plane.
func angle(deg float64) types.Vector {
	rad := deg * math.Pi / 180
	return unit(float32(math.Cos(rad)), float32(math.Sin(rad)))
}

func newIndex(t *testing.T, words []string, vectors []types.Vector) *Index {
	t.Helper()
	m, err := embedstore.NewMatrix(words, vectors)
	require.NoError(t, err)
	return NewIndex(m)
}

func TestFindNear_singleProbe(t *testing.T) {
	index := newIndex(t,
		[]string{"north", "east", "northeast", "south"},
		[]types.Vector{angle(90), angle(0), angle(45), angle(270)},
	)

	got, err := index.FindNear(context.Background(), []types.Vector{angle(80)}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "north", got[0].Word)
	assert.InDelta(t, 1-math.Cos(10*math.Pi/180), got[0].Distance, 1e-6)

	all, err := index.FindNear(context.Background(), []types.Vector{angle(80)}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"north", "northeast", "east", "south"}, Words(all))
}

func TestFindNear_tiesKeepVocabularyOrder(t *testing.T) {
	index := newIndex(t,
		[]string{"far", "first", "second"},
		[]types.Vector{angle(180), angle(10), angle(10)},
	)
	got, err := index.FindNear(context.Background(), []types.Vector{angle(10)}, 1)
	require.NoError(t, err)
	assert.Equal(t, "first", got[0].Word)

	got, err = index.FindNear(context.Background(), []types.Vector{angle(10)}, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "far"}, Words(got))
}

func TestFindNear_maxFusion(t *testing.T) {
	// A is 0.1 from the first probe and 0.9 from the second; B is 0.5 from both.
	probe1 := unit(1, 0, 0)
	probe2 := unit(0, 1, 0)
	a := unit(0.9, 0.1, float32(math.Sqrt(1-0.81-0.01)))
	b := unit(0.5, 0.5, float32(math.Sqrt(0.5)))
	index := newIndex(t, []string{"A", "B"}, []types.Vector{a, b})

	got, err := index.FindNear(context.Background(), []types.Vector{probe1, probe2}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, Words(got))
	assert.InDelta(t, 0.5, got[0].Distance, 1e-6)
	assert.InDelta(t, 0.9, got[1].Distance, 1e-6)
}

func TestFindNear_validation(t *testing.T) {
	index := newIndex(t, []string{"x"}, []types.Vector{unit(1, 0)})
	ctx := context.Background()

	_, err := index.FindNear(ctx, nil, 1)
	assert.ErrorIs(t, err, types.ErrConfiguration)

	_, err = index.FindNear(ctx, []types.Vector{unit(1, 0, 0)}, 1)
	assert.ErrorIs(t, err, types.ErrDataIntegrity)

	_, err = index.FindNear(ctx, []types.Vector{{3, 4}}, 1)
	assert.ErrorIs(t, err, types.ErrNotNormalized)

	got, err := index.FindNear(ctx, []types.Vector{unit(1, 0)}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindNear_spansWorkers(t *testing.T) {
	n := minChunk*2 + 17
	words := make([]string, n)
	vectors := make([]types.Vector, n)
	for i := range words {
		words[i] = string(rune('a'+i%26)) + string(rune('a'+i/26%26)) + string(rune('a'+i/676))
		vectors[i] = angle(float64(i%360) + 0.5)
	}
	vectors[n-1] = angle(200)
	index := newIndex(t, words, vectors)
	index.workers = 4

	got, err := index.FindNear(context.Background(), []types.Vector{angle(200)}, 1)
	require.NoError(t, err)
	assert.Equal(t, words[n-1], got[0].Word)
}

func TestCandidateSet(t *testing.T) {
	set := NewCandidateSet()
	set.Add(types.Candidate{Word: "x", Distance: 0.3})
	set.Add(types.Candidate{Word: "x", Distance: 0.1})
	set.Add(types.Candidate{Word: "x", Distance: 0.2})
	assert.Equal(t, []types.Candidate{{Word: "x", Distance: 0.1}}, set.Sorted())

	set.AddAll([]types.Candidate{{Word: "b", Distance: 0.5}, {Word: "a", Distance: 0.5}, {Word: "c", Distance: 0.05}})
	assert.Equal(t, []string{"c", "x", "b", "a"}, Words(set.Sorted()))
	assert.Equal(t, 4, set.Len())

	d, ok := set.Distance("b")
	assert.True(t, ok)
	assert.Equal(t, 0.5, d)
	_, ok = set.Distance("zzz")
	assert.False(t, ok)
}

// fakeEmbedder serves fixed document embeddings and a fixed matrix.
type fakeEmbedder struct {
	docs   map[string]types.Vector
	matrix *embedstore.Matrix
	asked  []string
}

func (e *fakeEmbedder) Embeddings(ctx context.Context, documents []string) ([]types.Vector, error) {
	e.asked = append(e.asked, documents...)
	out := make([]types.Vector, len(documents))
	for i, d := range documents {
		out[i] = e.docs[d]
	}
	return out, nil
}

func (e *fakeEmbedder) CommonWordEmbeddings(ctx context.Context, n int) (*embedstore.Matrix, error) {
	return e.matrix.Prefix(n), nil
}

func newPairEmbedder(t *testing.T) *fakeEmbedder {
	t.Helper()
	m, err := embedstore.NewMatrix(
		[]string{"apple", "apples", "orchard", "pie", "forest", "zebra"},
		[]types.Vector{angle(0), angle(5), angle(45), angle(10), angle(88), angle(180)},
	)
	require.NoError(t, err)
	return &fakeEmbedder{
		matrix: m,
		docs: map[string]types.Vector{
			"apple":      angle(0),
			"tree":       angle(90),
			"apple tree": angle(30),
			"tree apple": angle(60),
		},
	}
}

func TestFindNearPair(t *testing.T) {
	embedder := newPairEmbedder(t)
	agg, err := NewAggregator(AggregatorConfig{Embedder: embedder, Words: 6})
	require.NoError(t, err)

	got, err := agg.FindNearPair(context.Background(), "apple", "tree")
	require.NoError(t, err)
	assert.Equal(t, []string{"orchard", "pie", "forest", "zebra"}, got)
	assert.Equal(t, []string{"apple", "tree", "apple tree", "tree apple"}, embedder.asked)
}

func TestFindNearPair_eitherOrder(t *testing.T) {
	embedder := newPairEmbedder(t)
	m, err := embedstore.NewMatrix(
		[]string{"apple", "tree", "apples", "orchard", "trees", "pie", "forest", "zebra"},
		[]types.Vector{angle(0), angle(90), angle(5), angle(45), angle(91), angle(10), angle(88), angle(180)},
	)
	require.NoError(t, err)
	embedder.matrix = m

	agg, err := NewAggregator(AggregatorConfig{Embedder: embedder, Words: m.Len()})
	require.NoError(t, err)

	for _, pair := range [][2]string{{"apple", "tree"}, {"tree", "apple"}} {
		t.Run(pair[0]+"_"+pair[1], func(t *testing.T) {
			got, err := agg.FindNearPair(context.Background(), pair[0], pair[1])
			require.NoError(t, err)
			assert.Equal(t, []string{"orchard", "pie", "forest", "zebra"}, got)
			for _, excluded := range []string{"apple", "apples", "tree", "trees"} {
				assert.NotContains(t, got, excluded)
			}
		})
	}
}

func TestFindNearPair_perSearchLimit(t *testing.T) {
	agg, err := NewAggregator(AggregatorConfig{Embedder: newPairEmbedder(t), Words: 6, PerSearch: 3})
	require.NoError(t, err)

	got, err := agg.FindNearPair(context.Background(), "apple", "tree")
	require.NoError(t, err)
	assert.Equal(t, []string{"orchard", "pie", "forest"}, got)
	assert.NotContains(t, got, "zebra")
}
