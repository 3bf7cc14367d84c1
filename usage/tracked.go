package usage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ForrestTrepte/SoCloverAI/callcache"
	"github.com/ForrestTrepte/SoCloverAI/logging"
	"github.com/ForrestTrepte/SoCloverAI/tokenizer"
	"github.com/ForrestTrepte/SoCloverAI/types"
	"go.uber.org/zap"
)

// CounterSource resolves a model name to its token counter.
// *tokenizer.Registry implements it.
type CounterSource interface {
	For(model string) (tokenizer.Counter, error)
}

// TrackedCache wraps a call cache and records every hit and every update
// (a miss that was filled) with the accountant. Token counting never fails a
// lookup or an update: when a model's counter errors, the local tiktoken
// approximation is recorded instead. Embedding documents are always counted
// locally.
type TrackedCache struct {
	inner      callcache.Cache
	accountant *Accountant
	counters   CounterSource
	local      tokenizer.Counter
	logger     *zap.Logger

	warned sync.Map
}

// NewTrackedCache wraps inner.
func NewTrackedCache(inner callcache.Cache, accountant *Accountant, counters CounterSource, logger *zap.Logger) (*TrackedCache, error) {
	if inner == nil {
		return nil, errors.New("inner cache cannot be nil")
	}
	if accountant == nil {
		return nil, errors.New("accountant cannot be nil")
	}
	if counters == nil {
		return nil, errors.New("token counters cannot be nil")
	}
	local, err := tokenizer.NewOpenAITokenizer("")
	if err != nil {
		return nil, fmt.Errorf("failed to load local tokenizer: %w", err)
	}
	return &TrackedCache{
		inner:      inner,
		accountant: accountant,
		counters:   counters,
		local:      local,
		logger:     logging.OrNop(logger),
	}, nil
}

// Accountant returns the accountant records are sent to.
func (c *TrackedCache) Accountant() *Accountant {
	return c.accountant
}

// Lookup forwards to the wrapped cache and records a hit when found.
func (c *TrackedCache) Lookup(ctx context.Context, key callcache.Key) ([]string, bool, error) {
	responses, found, err := c.inner.Lookup(ctx, key)
	if err != nil || !found {
		return responses, found, err
	}
	if err := c.record(ctx, key, responses, true); err != nil {
		return nil, false, err
	}
	return responses, true, nil
}

// Update forwards to the wrapped cache and records a miss.
func (c *TrackedCache) Update(ctx context.Context, key callcache.Key, responses []string) error {
	if err := c.inner.Update(ctx, key, responses); err != nil {
		return err
	}
	return c.record(ctx, key, responses, false)
}

func (c *TrackedCache) record(ctx context.Context, key callcache.Key, responses []string, hit bool) error {
	model, err := key.ResolveModel()
	if err != nil {
		return err
	}

	counter := c.local
	if key.Kind != types.KindEmbedding {
		if counter, err = c.counters.For(model); err != nil {
			c.warn(model, fmt.Errorf("no tokenizer for model %s: %w", model, err))
			counter = c.local
		}
	}

	input := c.count(ctx, model, counter, key.Fingerprint)
	output := 0
	if key.Kind != types.KindEmbedding {
		for _, r := range responses {
			output += c.count(ctx, model, counter, r)
		}
	}

	c.accountant.Record(model, hit, input, output)
	return nil
}

// count returns the tokens of text, approximating locally when counter fails.
func (c *TrackedCache) count(ctx context.Context, model string, counter tokenizer.Counter, text string) int {
	n, err := counter.CountTokens(ctx, text)
	if err == nil {
		return n
	}
	c.warn(model, err)
	if counter == c.local {
		return 0
	}
	n, err = c.local.CountTokens(ctx, text)
	if err != nil {
		return 0
	}
	return n
}

// warn logs the first counting failure per model.
func (c *TrackedCache) warn(model string, err error) {
	if _, seen := c.warned.LoadOrStore(model, true); seen {
		return
	}
	c.logger.Warn("token counting failed, using local approximation",
		zap.String("model", model),
		zap.Error(err),
	)
}
