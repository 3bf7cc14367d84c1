// Package usage tallies call counts, token counts and estimated cost per
// model, separated by call cache hits and misses.
package usage

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Stat accumulates calls and tokens.
type Stat struct {
	Count        int
	InputTokens  int
	OutputTokens int
}

func (s *Stat) add(input, output int) {
	s.Count++
	s.InputTokens += input
	s.OutputTokens += output
}

func (s Stat) plus(o Stat) Stat {
	return Stat{
		Count:        s.Count + o.Count,
		InputTokens:  s.InputTokens + o.InputTokens,
		OutputTokens: s.OutputTokens + o.OutputTokens,
	}
}

// Stats is a snapshot of the accountant.
type Stats struct {
	Hits   map[string]Stat
	Misses map[string]Stat
}

// HitTotal sums hits over all models.
func (s Stats) HitTotal() Stat { return total(s.Hits) }

// MissTotal sums misses over all models.
func (s Stats) MissTotal() Stat { return total(s.Misses) }

func total(byModel map[string]Stat) Stat {
	var t Stat
	for _, s := range byModel {
		t = t.plus(s)
	}
	return t
}

// Accountant accumulates usage until Clear is called. It is safe for
// concurrent use.
type Accountant struct {
	prices  PriceTable
	metrics *Metrics

	mu     sync.Mutex
	hits   map[string]*Stat
	misses map[string]*Stat
}

// NewAccountant creates an accountant. A nil price table uses DefaultPrices;
// metrics may be nil.
func NewAccountant(prices PriceTable, metrics *Metrics) *Accountant {
	if prices == nil {
		prices = DefaultPrices()
	}
	return &Accountant{
		prices:  prices,
		metrics: metrics,
		hits:    make(map[string]*Stat),
		misses:  make(map[string]*Stat),
	}
}

// Record adds one call of model with the given token counts.
func (a *Accountant) Record(model string, hit bool, inputTokens, outputTokens int) {
	a.mu.Lock()
	bucket := a.misses
	if hit {
		bucket = a.hits
	}
	s, ok := bucket[model]
	if !ok {
		s = &Stat{}
		bucket[model] = s
	}
	s.add(inputTokens, outputTokens)
	a.mu.Unlock()

	a.metrics.observe(model, hit, inputTokens, outputTokens)
}

// Stats returns a snapshot of the accumulated usage.
func (a *Accountant) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Stats{Hits: snapshot(a.hits), Misses: snapshot(a.misses)}
}

func snapshot(m map[string]*Stat) map[string]Stat {
	out := make(map[string]Stat, len(m))
	for model, s := range m {
		out[model] = *s
	}
	return out
}

// Clear resets all counts.
func (a *Accountant) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hits = make(map[string]*Stat)
	a.misses = make(map[string]*Stat)
}

// Cost returns the estimated cost of misses alone and of all calls. Models
// are priced in name order so the first unpriced model is reported
// deterministically.
func (a *Accountant) Cost() (newCost, totalCost float64, err error) {
	stats := a.Stats()
	for _, model := range slices.Sorted(maps.Keys(stats.Misses)) {
		c, err := a.prices.Cost(model, stats.Misses[model])
		if err != nil {
			return 0, 0, err
		}
		newCost += c
		totalCost += c
	}
	for _, model := range slices.Sorted(maps.Keys(stats.Hits)) {
		c, err := a.prices.Cost(model, stats.Hits[model])
		if err != nil {
			return 0, 0, err
		}
		totalCost += c
	}
	return newCost, totalCost, nil
}

// Summary renders hit and miss counts, token counts and estimated cost.
// An unpriced model replaces the cost line with a notice.
func (a *Accountant) Summary() string {
	stats := a.Stats()
	hits, misses := stats.HitTotal(), stats.MissTotal()
	all := hits.plus(misses)

	var b strings.Builder
	fmt.Fprintf(&b, "LLM Cache: %d hits, %d misses\n", hits.Count, misses.Count)
	fmt.Fprintf(&b, "           %d new input tokens, %d new output tokens, %d total input tokens, %d total output tokens\n",
		misses.InputTokens, misses.OutputTokens, all.InputTokens, all.OutputTokens)

	newCost, totalCost, err := a.Cost()
	if err != nil {
		fmt.Fprintf(&b, "           Can't estimate cost: %v\n", err)
	} else {
		fmt.Fprintf(&b, "           new (this run) API cost: $%.2f, total (including previously-cached runs) API cost: $%.2f\n",
			newCost, totalCost)
	}
	return b.String()
}
