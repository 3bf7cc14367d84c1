package search

import (
	"slices"

	"github.com/ForrestTrepte/SoCloverAI/types"
)

// CandidateSet merges candidates from several searches, keeping the smallest
// distance seen for each word.
type CandidateSet struct {
	index map[string]int
	items []types.Candidate
}

// NewCandidateSet creates an empty set.
func NewCandidateSet() *CandidateSet {
	return &CandidateSet{index: make(map[string]int)}
}

// Add inserts c, or lowers the stored distance of c.Word if c is closer.
func (s *CandidateSet) Add(c types.Candidate) {
	if i, ok := s.index[c.Word]; ok {
		if c.Distance < s.items[i].Distance {
			s.items[i].Distance = c.Distance
		}
		return
	}
	s.index[c.Word] = len(s.items)
	s.items = append(s.items, c)
}

// AddAll adds every candidate in cs.
func (s *CandidateSet) AddAll(cs []types.Candidate) {
	for _, c := range cs {
		s.Add(c)
	}
}

// Len returns the number of distinct words.
func (s *CandidateSet) Len() int {
	return len(s.items)
}

// Distance returns the stored distance of word.
func (s *CandidateSet) Distance(word string) (float64, bool) {
	i, ok := s.index[word]
	if !ok {
		return 0, false
	}
	return s.items[i].Distance, true
}

// Sorted returns the candidates ascending by distance; equal distances keep
// first-insertion order.
func (s *CandidateSet) Sorted() []types.Candidate {
	out := slices.Clone(s.items)
	slices.SortStableFunc(out, func(a, b types.Candidate) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return 0
	})
	return out
}

// Words returns the words of cs in order.
func Words(cs []types.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Word
	}
	return out
}
