package tokenizer

import (
	"context"
	"strings"

	"github.com/tiktoken-go/tokenizer"
)

// OpenAITokenizer counts tokens locally with tiktoken
type OpenAITokenizer struct {
	codec tokenizer.Codec
}

// NewOpenAITokenizer creates a tokenizer using the encoding of model.
// Models tiktoken does not know fall back to o200k_base for the gpt-4o and
// o-series families and cl100k_base otherwise.
func NewOpenAITokenizer(model string) (*OpenAITokenizer, error) {
	codec, err := tokenizer.ForModel(tokenizer.Model(model))
	if err != nil {
		codec, err = tokenizer.Get(fallbackEncoding(model))
		if err != nil {
			return nil, err
		}
	}
	return &OpenAITokenizer{codec: codec}, nil
}

func fallbackEncoding(model string) tokenizer.Encoding {
	for _, prefix := range []string{"gpt-4o", "gpt-4.1", "gpt-5", "o1", "o3", "o4"} {
		if strings.HasPrefix(model, prefix) {
			return tokenizer.O200kBase
		}
	}
	return tokenizer.Cl100kBase
}

// CountTokens counts tokens in text
// This is a local, fast operation that doesn't require an API call
func (t *OpenAITokenizer) CountTokens(ctx context.Context, text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	ids, _, err := t.codec.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}
