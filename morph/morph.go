// Package morph removes clue candidates that are merely inflectional or
// derivational variants of a word in the pair.
package morph

import (
	"strings"

	"github.com/ForrestTrepte/SoCloverAI/types"
	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/english"
)

// StemProvider approximates the surface forms of a word with the word itself
// and its English (Porter2) snowball stem. Substring matching against the stem
// catches inflections ("apples") and derivations ("presidency", "preside").
type StemProvider struct{}

// FormsOf returns the lowercase word and its stem.
func (StemProvider) FormsOf(word string) []string {
	lower := strings.ToLower(word)
	if lower == "" {
		return nil
	}
	env := snowballstem.NewEnv(lower)
	english.Stem(env)
	stem := env.Current()
	if stem == "" || stem == lower {
		return []string{lower}
	}
	return []string{lower, stem}
}

// Filter removes word forms using a morphology provider.
type Filter struct {
	provider types.MorphologyProvider
}

// NewFilter creates a filter. A nil provider uses StemProvider.
func NewFilter(provider types.MorphologyProvider) *Filter {
	if provider == nil {
		provider = StemProvider{}
	}
	return &Filter{provider: provider}
}

// RemoveWordFormsOf returns candidates, in order, without any candidate that
// is a form of base. A candidate is removed when a form of base is a
// case-insensitive substring of it, or a form of it is a substring of base.
func (f *Filter) RemoveWordFormsOf(base string, candidates []string) []string {
	baseLower := strings.ToLower(base)
	baseForms := lowerAll(f.provider.FormsOf(base))

	kept := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if !f.isFormOf(baseLower, baseForms, candidate) {
			kept = append(kept, candidate)
		}
	}
	return kept
}

func (f *Filter) isFormOf(baseLower string, baseForms []string, candidate string) bool {
	candidateLower := strings.ToLower(candidate)
	for _, form := range baseForms {
		if form != "" && strings.Contains(candidateLower, form) {
			return true
		}
	}
	for _, form := range lowerAll(f.provider.FormsOf(candidate)) {
		if form != "" && strings.Contains(baseLower, form) {
			return true
		}
	}
	return false
}

// RemoveWordFormsOf filters candidates with the default StemProvider.
func RemoveWordFormsOf(base string, candidates []string) []string {
	return NewFilter(nil).RemoveWordFormsOf(base, candidates)
}

func lowerAll(forms []string) []string {
	out := make([]string, len(forms))
	for i, form := range forms {
		out[i] = strings.ToLower(form)
	}
	return out
}
