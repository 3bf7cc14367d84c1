package usage

import "github.com/ForrestTrepte/SoCloverAI/types"

// Price is the cost of a model in USD per 1000 tokens.
type Price struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

// PriceTable maps model names to prices.
type PriceTable map[string]Price

// DefaultPrices returns the built-in price table.
func DefaultPrices() PriceTable {
	return PriceTable{
		"gpt-4-1106-preview":     {Input: 0.01, Output: 0.03},
		"gpt-4":                  {Input: 0.03, Output: 0.06},
		"gpt-4-32k":              {Input: 0.06, Output: 0.12},
		"gpt-3.5-turbo":          {Input: 0.0030, Output: 0.0060},
		"gpt-3.5-turbo-1106":     {Input: 0.0010, Output: 0.0020},
		"gpt-3.5-turbo-instruct": {Input: 0.0015, Output: 0.0020},
		"text-embedding-ada-002": {Input: 0.0001},
		"text-embedding-3-small": {Input: 0.00002},
		"text-embedding-3-large": {Input: 0.00013},
	}
}

// With returns a copy of t with overrides applied.
func (t PriceTable) With(overrides PriceTable) PriceTable {
	out := make(PriceTable, len(t)+len(overrides))
	for model, p := range t {
		out[model] = p
	}
	for model, p := range overrides {
		out[model] = p
	}
	return out
}

// UnknownModelError reports a model missing from the price table.
// It matches types.ErrCostEstimation.
type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string {
	return "unknown model name: " + e.Model
}

func (e *UnknownModelError) Is(target error) bool {
	return target == types.ErrCostEstimation
}

// Cost prices s for model.
func (t PriceTable) Cost(model string, s Stat) (float64, error) {
	p, ok := t[model]
	if !ok {
		return 0, &UnknownModelError{Model: model}
	}
	return (float64(s.InputTokens)*p.Input + float64(s.OutputTokens)*p.Output) / 1000, nil
}
