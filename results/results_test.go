package results

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustedScore(t *testing.T) {
	cases := []struct {
		score, legality, want float64
	}{
		{4, 2, 4},
		{4, 3, 4},
		{4, 1.5, 2},
		{1.5, 1, 1.5},
		{4, 0.9, -1},
		{0, 0, -1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, AdjustedScore(c.score, c.legality), "score %v legality %v", c.score, c.legality)
	}
}

func TestPercentiles(t *testing.T) {
	got := Percentiles([]float64{4, 1, 3, 2}, []float64{0, 10, 50, 90, 100})
	assert.InDeltaSlice(t, []float64{1, 1.3, 2.5, 3.7, 4}, got, 1e-9)

	got = Percentiles([]float64{7}, []float64{10, 90})
	assert.Equal(t, []float64{7, 7}, got)

	assert.True(t, math.IsNaN(Percentiles(nil, []float64{50})[0]))
}

func TestConfigurationSummary(t *testing.T) {
	cfg := Configuration{
		Method:      "m09_embeddings",
		Temperature: 0.5,
		Trials: []Clue{
			{Word0: "apple", Word1: "tree", Clue: "orchard", Rating: &Rating{Score: 3, Legality: 2}},
			{Word0: "apple", Word1: "tree", Clue: "pie", Rating: &Rating{Score: 1, Legality: 2}},
			{Word0: "apple", Word1: "tree", Clue: "unrated"},
		},
	}
	assert.Equal(t, []float64{3, 1}, cfg.Scores())
	assert.Equal(t, "m09_embeddings, 0.5, 1.20, 2.00, 2.80", cfg.Summary())
	assert.Equal(t, "Method, Temperature, 10%, 50%, 90%", SummaryHeader())
}

func TestApplyRatings(t *testing.T) {
	r := &Results{Configurations: []Configuration{
		{Method: "a", Trials: []Clue{{Word0: "x", Word1: "y", Clue: "z"}, {Word0: "x", Word1: "y", Clue: "w"}}},
		{Method: "b", Trials: []Clue{{Word0: "x", Word1: "y", Clue: "w"}}},
	}}
	unrated := r.ApplyRatings(map[EvaluationKey]Rating{{"x", "y", "z"}: {Score: 2, Legality: 2}})

	assert.Equal(t, []EvaluationKey{{"x", "y", "w"}}, unrated)
	require.NotNil(t, r.Configurations[0].Trials[0].Rating)
	assert.Equal(t, 2.0, r.Configurations[0].Trials[0].Rating.Score)
	assert.Nil(t, r.Configurations[1].Trials[0].Rating)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	r := &Results{Configurations: []Configuration{{Method: "m01_direct", Temperature: 0.9, Trials: []Clue{{Word0: "a", Word1: "b", Clue: "c"}}}}}
	require.NoError(t, r.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, r, loaded)
}
