// Package pipeline orchestrates the ambiguity detection stages: lexicon
// detection, semantic matching, batched contextual evaluation, batched
// suggestion generation, and atomic persistence of the merged result.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/reqclarity/reqclarity/internal/detect"
	"github.com/reqclarity/reqclarity/internal/evaluate"
	"github.com/reqclarity/reqclarity/internal/llm"
	"github.com/reqclarity/reqclarity/internal/model"
	"github.com/reqclarity/reqclarity/internal/semantic"
	"github.com/reqclarity/reqclarity/internal/store"
	"github.com/reqclarity/reqclarity/internal/suggest"
	"github.com/reqclarity/reqclarity/internal/worker"
)

// Pipeline wires the detection stages together. Stages degrade
// independently: without a reasoning backend every lexicon hit is flagged
// with a fixed judgment, and without embeddings the semantic stage is
// skipped entirely.
type Pipeline struct {
	store     *store.Store
	detector  *detect.Detector
	matcher   *semantic.Matcher
	evaluator *evaluate.Evaluator
	generator *suggest.Generator
	limiter   *worker.Limiter
	provider  llm.Provider

	threshold    float64
	batchWorkers int
	verbose      bool
}

// Options carries the tunables for constructing a Pipeline
type Options struct {
	SemanticThreshold float64
	EvaluationWorkers int
	SuggestionWorkers int
	BatchWorkers      int
	Verbose           bool
}

// New wires a pipeline from its collaborators. provider and limiter may be
// nil: a nil provider means lexicon-only mode, a nil limiter disables rate
// limiting.
func New(s *store.Store, detector *detect.Detector, matcher *semantic.Matcher, provider llm.Provider, limiter *worker.Limiter, opts Options) *Pipeline {
	if opts.BatchWorkers <= 0 {
		opts.BatchWorkers = 4
	}
	return &Pipeline{
		store:        s,
		detector:     detector,
		matcher:      matcher,
		evaluator:    evaluate.NewEvaluator(provider, opts.EvaluationWorkers),
		generator:    suggest.NewGenerator(provider, opts.SuggestionWorkers),
		limiter:      limiter,
		provider:     provider,
		threshold:    opts.SemanticThreshold,
		batchWorkers: opts.BatchWorkers,
		verbose:      opts.Verbose,
	}
}

// Analyze runs the full detection pipeline over text and persists the
// result. requirementID links the analysis to a stored requirement when not
// nil. useLLM false forces lexicon-only mode even when a backend is
// configured.
func (p *Pipeline) Analyze(ctx context.Context, text string, requirementID *int64, owner string, useLLM bool) (*model.Analysis, error) {
	if p.limiter != nil && !p.limiter.Allow(owner) {
		return nil, fmt.Errorf("analyze: %w", model.ErrRateLimited)
	}

	text, err := llm.SanitizeText(text, llm.MaxTextLength)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	candidates, _, err := p.detector.Detect(text, owner)
	if err != nil {
		return nil, fmt.Errorf("lexicon detection: %w", err)
	}

	llmActive := useLLM && p.provider != nil

	// Semantic matching runs whenever embeddings are available, independent
	// of useLLM: in lexicon-only mode its hits carry the fixed judgment too.
	if p.matcher != nil && p.matcher.Available() {
		similar, err := p.matcher.FindSimilar(ctx, text, owner, p.threshold, false)
		if err != nil {
			// Semantic matching is best-effort; lexicon hits still stand
			if p.verbose {
				fmt.Fprintf(os.Stderr, "Warning: semantic matching failed: %v\n", err)
			}
		} else {
			candidates = mergeCandidates(candidates, similar, text)
		}
	}

	judgments := p.judge(ctx, text, candidates, llmActive)

	// Keep only candidates judged ambiguous in context
	var flagged []model.CandidateTerm
	var flaggedJudgments []model.Judgment
	for i, c := range candidates {
		if judgments[i].IsAmbiguous {
			flagged = append(flagged, c)
			flaggedJudgments = append(flaggedJudgments, judgments[i])
		}
	}

	suggestions := p.suggestAll(ctx, text, flagged, llmActive)

	terms := make([]model.EvaluatedTerm, len(flagged))
	for i, c := range flagged {
		terms[i] = model.EvaluatedTerm{
			CandidateTerm:         c,
			IsAmbiguous:           true,
			Confidence:            flaggedJudgments[i].Confidence,
			Reasoning:             flaggedJudgments[i].Reasoning,
			SuggestedReplacements: suggestions[i].Suggestions,
			ClarificationPrompt:   suggestions[i].ClarificationPrompt,
			Status:                model.TermStatusPending,
		}
	}

	analysis, err := p.store.SaveAnalysis(text, requirementID, owner, terms)
	if err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}
	return analysis, nil
}

// AnalyzeRequirement loads a stored requirement and analyzes its combined
// title and description text.
func (p *Pipeline) AnalyzeRequirement(ctx context.Context, requirementID int64, owner string, useLLM bool) (*model.Analysis, error) {
	req, err := p.store.GetRequirement(requirementID, owner)
	if err != nil {
		return nil, err
	}
	return p.Analyze(ctx, req.AnalysisText(), &requirementID, owner, useLLM)
}

// AnalyzeBatch analyzes multiple requirements concurrently. Results come
// back in input order; a failing requirement carries its error without
// aborting the rest.
func (p *Pipeline) AnalyzeBatch(ctx context.Context, requirementIDs []int64, owner string, useLLM bool) []*worker.AnalysisResult {
	processor := worker.NewBatchProcessor(p, p.batchWorkers)
	return processor.Process(ctx, requirementIDs, owner, useLLM)
}

// RetryWithLLM re-runs a previously saved lexicon-only analysis with the
// reasoning backend. The old analysis is replaced.
func (p *Pipeline) RetryWithLLM(ctx context.Context, analysisID int64, owner string) (*model.Analysis, error) {
	if p.provider == nil {
		return nil, fmt.Errorf("retry analysis %d: %w", analysisID, model.ErrBackendUnavailable)
	}

	old, err := p.store.GetAnalysis(analysisID, owner)
	if err != nil {
		return nil, err
	}

	if err := p.store.DeleteAnalysis(analysisID, owner); err != nil {
		return nil, fmt.Errorf("replace analysis %d: %w", analysisID, err)
	}
	return p.Analyze(ctx, old.OriginalText, old.RequirementID, owner, true)
}

// Stats reports cumulative backend usage across the batch components
func (p *Pipeline) Stats(ctx context.Context) model.PipelineStats {
	evalStats := p.evaluator.Stats()
	suggStats := p.generator.Stats()
	return model.PipelineStats{
		LLMAvailable:        p.provider != nil && p.provider.IsAvailable(ctx),
		EmbeddingsAvailable: p.matcher != nil && p.matcher.Available(),
		EvaluationRequests:  evalStats.Requests,
		EvaluationLatency:   evalStats.TotalLatency,
		SuggestionRequests:  suggStats.Requests,
		SuggestionLatency:   suggStats.TotalLatency,
	}
}

// judge returns one judgment per candidate, in candidate order. With no
// active backend every candidate gets the lexicon-only judgment; a total
// batch failure substitutes the fixed fallback so no candidate is dropped.
func (p *Pipeline) judge(ctx context.Context, text string, candidates []model.CandidateTerm, llmActive bool) []model.Judgment {
	judgments := make([]model.Judgment, len(candidates))

	if !llmActive {
		for i := range judgments {
			judgments[i] = evaluate.LexiconOnlyJudgment()
		}
		return judgments
	}

	items := make([]evaluate.Item, len(candidates))
	for i, c := range candidates {
		items[i] = evaluate.Item{
			Term:          c.Term,
			Sentence:      c.SentenceContext,
			ContextWindow: detect.ContextWindow(text, c.PositionStart, c.PositionEnd, detect.DefaultContextWindow),
		}
	}

	result, err := p.evaluator.EvaluateBatch(ctx, items)
	if err != nil {
		if p.verbose {
			fmt.Fprintf(os.Stderr, "Warning: context evaluation failed: %v\n", err)
		}
		for i := range judgments {
			judgments[i] = evaluate.FallbackJudgment()
		}
		return judgments
	}
	return result
}

// suggestAll returns one suggestion set per flagged term, in term order.
// Unavailable or failed generation yields the generic fallback per term.
func (p *Pipeline) suggestAll(ctx context.Context, text string, flagged []model.CandidateTerm, llmActive bool) []model.SuggestionSet {
	suggestions := make([]model.SuggestionSet, len(flagged))

	if !llmActive || len(flagged) == 0 {
		for i, c := range flagged {
			suggestions[i] = suggest.FallbackSet(c.Term)
		}
		return suggestions
	}

	items := make([]suggest.Item, len(flagged))
	for i, c := range flagged {
		items[i] = suggest.Item{
			Term:     c.Term,
			FullText: text,
			Sentence: c.SentenceContext,
		}
	}

	result, err := p.generator.GenerateBatch(ctx, items)
	if err != nil {
		if p.verbose {
			fmt.Fprintf(os.Stderr, "Warning: suggestion generation failed: %v\n", err)
		}
		for i, c := range flagged {
			suggestions[i] = suggest.FallbackSet(c.Term)
		}
		return suggestions
	}
	return result
}

// mergeCandidates combines lexicon and semantic detections. When both flag
// the same (start, end) span the lexicon detection wins; the merged list is
// sorted by position. Semantic candidates get their sentence context filled
// from the source text.
func mergeCandidates(lexical, semanticHits []model.CandidateTerm, text string) []model.CandidateTerm {
	type span struct{ start, end int }
	seen := make(map[span]bool, len(lexical))
	for _, c := range lexical {
		seen[span{c.PositionStart, c.PositionEnd}] = true
	}

	merged := lexical
	sentences := detect.SegmentSentences(text)
	for _, c := range semanticHits {
		if seen[span{c.PositionStart, c.PositionEnd}] {
			continue
		}
		seen[span{c.PositionStart, c.PositionEnd}] = true
		if c.SentenceContext == "" {
			c.SentenceContext = detect.SentenceForPosition(c.PositionStart, sentences, text)
		}
		merged = append(merged, c)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].PositionStart != merged[j].PositionStart {
			return merged[i].PositionStart < merged[j].PositionStart
		}
		return merged[i].PositionEnd < merged[j].PositionEnd
	})
	return merged
}
