// Package generate runs clue generation methods over word pairs,
// temperatures and trials.
package generate

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/ForrestTrepte/SoCloverAI/callcache"
	"github.com/ForrestTrepte/SoCloverAI/types"
)

// EmbeddingMethodName is the name of the embedding search method.
const EmbeddingMethodName = "m09_embeddings"

// DirectTemplate asks for a single clue in the "Best: CLUE" format.
const DirectTemplate = `
You are playing the game So Clover. Create clues for the following word pair:
{word0} {word1}

Output your clue CLUE in the following format:
Best: CLUE

Your clue should be a single word. Use lowercase unless it is a proper noun or capitalization the word would help the guesser understand the clue.
`

// BuiltinPrompts maps method names to the prompt templates shipped with the engine.
var BuiltinPrompts = map[string]string{
	"m01_direct": DirectTemplate,
}

// Method produces candidate clues for a pair.
type Method interface {
	Name() string
	Generate(ctx context.Context, temperature float64, trial int, pair types.Pair) ([]string, error)
}

var bestRe = regexp.MustCompile(`Best: (.*)`)

// ParseClue extracts the clue from a model response: the text after
// "Best: ", or the whole response when it is a single token.
func ParseClue(output string) (string, bool) {
	if m := bestRe.FindStringSubmatch(output); m != nil {
		return m[1], true
	}
	if fields := strings.Fields(output); len(fields) == 1 {
		return fields[0], true
	}
	return "", false
}

// PromptMethod fills a prompt template with the pair and asks a generator,
// memoizing each (trial, prompt, target) call.
type PromptMethod struct {
	name      string
	template  string
	generator types.Generator
	memo      *callcache.Memo
}

// NewPromptMethod creates a prompt method. The template may reference
// {word0} and {word1}.
func NewPromptMethod(name, template string, generator types.Generator, memo *callcache.Memo) (*PromptMethod, error) {
	if generator == nil {
		return nil, errors.New("generator cannot be nil")
	}
	if memo == nil {
		return nil, errors.New("memo cannot be nil")
	}
	return &PromptMethod{
		name:      name,
		template:  strings.TrimSpace(template),
		generator: generator,
		memo:      memo,
	}, nil
}

func (m *PromptMethod) Name() string { return m.name }

// Prompt renders the template for pair.
func (m *PromptMethod) Prompt(pair types.Pair) string {
	return strings.NewReplacer("{word0}", pair[0], "{word1}", pair[1]).Replace(m.template)
}

// Generate returns the parsed clue of every response; unparseable responses are dropped.
func (m *PromptMethod) Generate(ctx context.Context, temperature float64, trial int, pair types.Pair) ([]string, error) {
	prompt := m.Prompt(pair)
	key := callcache.NewKey(trial, prompt, m.generator.Target().WithTemperature(temperature))

	responses, err := m.memo.Do(ctx, key, func(ctx context.Context) ([]string, error) {
		return m.generator.Generate(ctx, temperature, prompt)
	})
	if err != nil {
		return nil, err
	}

	clues := make([]string, 0, len(responses))
	for _, r := range responses {
		if clue, ok := ParseClue(r); ok {
			clues = append(clues, clue)
		}
	}
	return clues, nil
}

// PairSearcher finds clue candidates by embedding search.
// *search.Aggregator implements it.
type PairSearcher interface {
	FindNearPair(ctx context.Context, word0, word1 string) ([]string, error)
}

// EmbeddingMethod returns the embedding search candidates. Temperature and
// trial do not affect it.
type EmbeddingMethod struct {
	searcher PairSearcher
}

// NewEmbeddingMethod creates the embedding search method.
func NewEmbeddingMethod(searcher PairSearcher) *EmbeddingMethod {
	return &EmbeddingMethod{searcher: searcher}
}

func (m *EmbeddingMethod) Name() string { return EmbeddingMethodName }

func (m *EmbeddingMethod) Generate(ctx context.Context, temperature float64, trial int, pair types.Pair) ([]string, error) {
	return m.searcher.FindNearPair(ctx, pair[0], pair[1])
}
