// Package results holds generated clues, their human ratings and the
// percentile summaries used to compare generation methods.
package results

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"
)

// SummaryPercentiles are the percentiles reported per configuration.
var SummaryPercentiles = []float64{10, 50, 90}

// Rating is a human evaluation of a clue.
type Rating struct {
	Score    float64 `json:"score"`
	Legality float64 `json:"legality"`
}

// AdjustedScore caps the score of questionable clues and marks illegal ones.
func (r Rating) AdjustedScore() float64 {
	return AdjustedScore(r.Score, r.Legality)
}

// AdjustedScore returns score for fully legal clues (legality >= 2), at most
// 2.0 for borderline clues (1 <= legality < 2) and -1.0 for illegal clues.
func AdjustedScore(score, legality float64) float64 {
	switch {
	case legality >= 2:
		return score
	case legality >= 1:
		return math.Min(score, 2.0)
	default:
		return -1.0
	}
}

// Clue is one candidate clue produced for a word pair.
type Clue struct {
	Word0  string  `json:"Word0"`
	Word1  string  `json:"Word1"`
	Clue   string  `json:"Clue"`
	Rating *Rating `json:"Rating,omitempty"`
}

// EvaluationKey identifies a clue independent of the run that produced it.
type EvaluationKey struct {
	Word0, Word1, Clue string
}

// Key returns the evaluation key of c.
func (c Clue) Key() EvaluationKey {
	return EvaluationKey{Word0: c.Word0, Word1: c.Word1, Clue: c.Clue}
}

// Configuration is every clue produced by one method at one temperature.
type Configuration struct {
	Method      string  `json:"method"`
	Temperature float64 `json:"temperature"`
	Trials      []Clue  `json:"trials"`
}

// Scores returns the adjusted scores of the rated clues.
func (c Configuration) Scores() []float64 {
	scores := make([]float64, 0, len(c.Trials))
	for _, clue := range c.Trials {
		if clue.Rating != nil {
			scores = append(scores, clue.Rating.AdjustedScore())
		}
	}
	return scores
}

// Summary renders "method, temperature, p10, p50, p90".
func (c Configuration) Summary() string {
	parts := []string{c.Method, fmt.Sprint(c.Temperature)}
	for _, p := range Percentiles(c.Scores(), SummaryPercentiles) {
		parts = append(parts, fmt.Sprintf("%.2f", p))
	}
	return strings.Join(parts, ", ")
}

// Results is the output of a generation sweep.
type Results struct {
	Configurations []Configuration `json:"configurations"`
}

// SummaryHeader is the header line matching Configuration.Summary.
func SummaryHeader() string {
	parts := []string{"Method", "Temperature"}
	for _, p := range SummaryPercentiles {
		parts = append(parts, fmt.Sprintf("%g%%", p))
	}
	return strings.Join(parts, ", ")
}

// ApplyRatings copies ratings onto matching clues and returns the keys of
// clues that have no rating yet, each once, in first-seen order.
func (r *Results) ApplyRatings(ratings map[EvaluationKey]Rating) []EvaluationKey {
	var unrated []EvaluationKey
	seen := make(map[EvaluationKey]bool)
	for i := range r.Configurations {
		trials := r.Configurations[i].Trials
		for j := range trials {
			key := trials[j].Key()
			if rating, ok := ratings[key]; ok {
				trials[j].Rating = &rating
				continue
			}
			if !seen[key] {
				seen[key] = true
				unrated = append(unrated, key)
			}
		}
	}
	return unrated
}

// Percentiles returns the requested percentiles of values using linear
// interpolation between closest ranks. An empty input yields NaN.
func Percentiles(values []float64, ps []float64) []float64 {
	out := make([]float64, len(ps))
	if len(values) == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	last := float64(len(sorted) - 1)
	for i, p := range ps {
		rank := p / 100 * last
		lo := int(math.Floor(rank))
		hi := int(math.Ceil(rank))
		frac := rank - float64(lo)
		out[i] = sorted[lo] + (sorted[hi]-sorted[lo])*frac
	}
	return out
}

// Save writes r as indented JSON.
func (r *Results) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads results written by Save.
func Load(path string) (*Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Results
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode results %s: %w", path, err)
	}
	return &r, nil
}
