// Package suggest generates replacement phrasings and clarification
// questions for confirmed-ambiguous terms, batched with the same ordered
// fan-out discipline as the context evaluator.
package suggest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/reqclarity/reqclarity/internal/llm"
	"github.com/reqclarity/reqclarity/internal/model"
)

// Item is one confirmed-ambiguous term
type Item struct {
	Term     string
	FullText string
	Sentence string
}

// FallbackSet is the per-term result when generation is unavailable or the
// backend's output failed validation: no suggestions, generic prompt.
func FallbackSet(term string) model.SuggestionSet {
	return model.SuggestionSet{
		Suggestions:         []string{},
		ClarificationPrompt: model.GenericClarificationPrompt(term),
	}
}

// Stats holds cumulative request counters for observability
type Stats struct {
	Requests     int64
	TotalLatency time.Duration
}

// Generator produces suggestion sets concurrently against the generation backend
type Generator struct {
	provider   llm.Provider
	maxWorkers int

	requests  atomic.Int64
	latencyNS atomic.Int64
}

// NewGenerator creates a generator with the given fan-out bound
func NewGenerator(provider llm.Provider, maxWorkers int) *Generator {
	if maxWorkers <= 0 {
		maxWorkers = 8
	}
	return &Generator{
		provider:   provider,
		maxWorkers: maxWorkers,
	}
}

// GenerateBatch produces one suggestion set per item, in input order. An
// item whose response fails validation gets the generic fallback; only a
// batch where every call failed returns an error.
func (g *Generator) GenerateBatch(ctx context.Context, items []Item) ([]model.SuggestionSet, error) {
	if g.provider == nil {
		return nil, fmt.Errorf("generate batch: %w", model.ErrBackendUnavailable)
	}
	if len(items) == 0 {
		return []model.SuggestionSet{}, nil
	}

	sets := make([]model.SuggestionSet, len(items))
	var failed atomic.Int64
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, g.maxWorkers)

	for i, item := range items {
		wg.Add(1)
		go func(idx int, it Item) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				failed.Add(1)
				sets[idx] = FallbackSet(it.Term)
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			start := time.Now()
			set, err := g.provider.GenerateSuggestions(ctx, llm.SuggestionRequest{
				Term:     it.Term,
				FullText: it.FullText,
				Sentence: it.Sentence,
			})
			g.requests.Add(1)
			g.latencyNS.Add(int64(time.Since(start)))

			if err != nil {
				failed.Add(1)
				sets[idx] = FallbackSet(it.Term)
				return
			}
			sets[idx] = set
		}(i, item)
	}

	wg.Wait()

	if int(failed.Load()) == len(items) {
		return nil, fmt.Errorf("generate batch: all %d generations failed", len(items))
	}
	return sets, nil
}

// Stats returns cumulative request count and latency
func (g *Generator) Stats() Stats {
	return Stats{
		Requests:     g.requests.Load(),
		TotalLatency: time.Duration(g.latencyNS.Load()),
	}
}
