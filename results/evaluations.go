package results

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
)

// Evaluation is a clue in the evaluations file. A nil Rating is a stub
// awaiting a human rater.
type Evaluation struct {
	Word0  string  `json:"Word0"`
	Word1  string  `json:"Word1"`
	Clue   string  `json:"Clue"`
	Rating *Rating `json:"Rating"`
}

// Evaluations maps each rated or pending clue to its rating.
type Evaluations map[EvaluationKey]*Rating

type evaluationsFile struct {
	Clues []Evaluation `json:"clues"`
}

// LoadEvaluations reads an evaluations file. A missing file yields an empty set.
func LoadEvaluations(path string) (Evaluations, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Evaluations{}, nil
	}
	if err != nil {
		return nil, err
	}
	var f evaluationsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode evaluations %s: %w", path, err)
	}
	evals := make(Evaluations, len(f.Clues))
	for _, c := range f.Clues {
		evals[EvaluationKey{Word0: c.Word0, Word1: c.Word1, Clue: c.Clue}] = c.Rating
	}
	return evals, nil
}

// Save writes the evaluations sorted by word pair and clue.
func (e Evaluations) Save(path string) error {
	f := evaluationsFile{Clues: make([]Evaluation, 0, len(e))}
	for k, r := range e {
		f.Clues = append(f.Clues, Evaluation{Word0: k.Word0, Word1: k.Word1, Clue: k.Clue, Rating: r})
	}
	slices.SortFunc(f.Clues, func(a, b Evaluation) int {
		return cmp.Or(cmp.Compare(a.Word0, b.Word0), cmp.Compare(a.Word1, b.Word1), cmp.Compare(a.Clue, b.Clue))
	})
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode evaluations: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// AddPending adds a stub for every clue in r that has no rating and returns
// the unrated keys in first-seen order.
func (e Evaluations) AddPending(r *Results) []EvaluationKey {
	var pending []EvaluationKey
	seen := make(map[EvaluationKey]bool)
	for _, c := range r.Configurations {
		for _, clue := range c.Trials {
			key := clue.Key()
			if e[key] != nil || seen[key] {
				continue
			}
			seen[key] = true
			e[key] = nil
			pending = append(pending, key)
		}
	}
	return pending
}

// Ratings returns the completed ratings.
func (e Evaluations) Ratings() map[EvaluationKey]Rating {
	out := make(map[EvaluationKey]Rating, len(e))
	for k, r := range e {
		if r != nil {
			out[k] = *r
		}
	}
	return out
}
