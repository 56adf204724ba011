// Package evaluate performs batched contextual ambiguity judgment. Items
// are dispatched to the reasoning backend concurrently and reassembled in
// input order; the pipeline zips results back onto candidates by position.
package evaluate

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/reqclarity/reqclarity/internal/llm"
	"github.com/reqclarity/reqclarity/internal/model"
)

// Item is one candidate term with its context
type Item struct {
	Term          string
	Sentence      string
	ContextWindow string
}

// FallbackJudgment is substituted for every item when the whole batch fails.
// Fail-safe toward over-flagging: a candidate is never silently dropped.
func FallbackJudgment() model.Judgment {
	return model.Judgment{
		IsAmbiguous: true,
		Confidence:  0.7,
		Reasoning:   "Evaluation failed, flagged by lexicon",
	}
}

// LexiconOnlyJudgment is the default when no reasoning backend is configured
func LexiconOnlyJudgment() model.Judgment {
	return model.Judgment{
		IsAmbiguous: true,
		Confidence:  0.7,
		Reasoning:   "Flagged by lexicon (LLM analysis not available)",
	}
}

// neutralJudgment replaces a single malformed backend response without
// aborting the rest of the batch
func neutralJudgment() model.Judgment {
	return model.Judgment{
		IsAmbiguous: true,
		Confidence:  0.5,
		Reasoning:   "Invalid response from LLM",
	}
}

// Stats holds cumulative request counters for observability
type Stats struct {
	Requests     int64
	TotalLatency time.Duration
}

// Evaluator judges candidate terms concurrently against the reasoning backend
type Evaluator struct {
	provider   llm.Provider
	maxWorkers int

	requests  atomic.Int64
	latencyNS atomic.Int64
}

// NewEvaluator creates an evaluator with the given fan-out bound
func NewEvaluator(provider llm.Provider, maxWorkers int) *Evaluator {
	if maxWorkers <= 0 {
		maxWorkers = 8
	}
	return &Evaluator{
		provider:   provider,
		maxWorkers: maxWorkers,
	}
}

// EvaluateBatch judges every item and returns judgments in input order.
// A malformed response for one item is replaced with a neutral fallback;
// only a batch where every call failed returns an error, so the caller can
// apply the fixed fallback judgment to all candidates.
func (e *Evaluator) EvaluateBatch(ctx context.Context, items []Item) ([]model.Judgment, error) {
	if e.provider == nil {
		return nil, fmt.Errorf("evaluate batch: %w", model.ErrBackendUnavailable)
	}
	if len(items) == 0 {
		return []model.Judgment{}, nil
	}

	judgments := make([]model.Judgment, len(items))
	var failed atomic.Int64
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, e.maxWorkers)

	for i, item := range items {
		wg.Add(1)
		go func(idx int, it Item) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				failed.Add(1)
				judgments[idx] = neutralJudgment()
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			start := time.Now()
			judgment, err := e.provider.EvaluateTerm(ctx, llm.EvaluationRequest{
				Term:          it.Term,
				Sentence:      it.Sentence,
				ContextWindow: it.ContextWindow,
			})
			e.requests.Add(1)
			e.latencyNS.Add(int64(time.Since(start)))

			if err != nil {
				failed.Add(1)
				judgments[idx] = neutralJudgment()
				return
			}
			judgment.Confidence = llm.ClampConfidence(judgment.Confidence)
			judgments[idx] = judgment
		}(i, item)
	}

	wg.Wait()

	if int(failed.Load()) == len(items) {
		return nil, fmt.Errorf("evaluate batch: all %d evaluations failed", len(items))
	}
	return judgments, nil
}

// Stats returns cumulative request count and latency
func (e *Evaluator) Stats() Stats {
	return Stats{
		Requests:     e.requests.Load(),
		TotalLatency: time.Duration(e.latencyNS.Load()),
	}
}
