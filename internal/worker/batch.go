package worker

import (
	"context"

	"github.com/reqclarity/reqclarity/internal/model"
)

// Analyzer runs an ambiguity analysis for a single stored requirement
type Analyzer interface {
	AnalyzeRequirement(ctx context.Context, requirementID int64, owner string, useLLM bool) (*model.Analysis, error)
}

// AnalysisJob analyzes one requirement as part of a batch
type AnalysisJob struct {
	Index         int
	RequirementID int64
	Owner         string
	UseLLM        bool
	Analyzer      Analyzer
}

// Execute runs the analysis job
func (j *AnalysisJob) Execute(ctx context.Context) Result {
	analysis, err := j.Analyzer.AnalyzeRequirement(ctx, j.RequirementID, j.Owner, j.UseLLM)
	return &AnalysisResult{
		Index:         j.Index,
		RequirementID: j.RequirementID,
		Analysis:      analysis,
		Err:           err,
	}
}

// AnalysisResult is the outcome of one requirement analysis in a batch
type AnalysisResult struct {
	Index         int
	RequirementID int64
	Analysis      *model.Analysis
	Err           error
}

// GetError returns the error from the analysis
func (r *AnalysisResult) GetError() error {
	return r.Err
}

// GetIndex returns the job's position in the submitted batch
func (r *AnalysisResult) GetIndex() int {
	return r.Index
}

// BatchProcessor analyzes multiple requirements concurrently. Failures are
// per-requirement: a failing id produces a result carrying its error and
// never aborts the rest of the batch.
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a batch processor with the given concurrency
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// Process analyzes all requirement ids, returning results in input order
func (b *BatchProcessor) Process(ctx context.Context, requirementIDs []int64, owner string, useLLM bool) []*AnalysisResult {
	if len(requirementIDs) == 0 {
		return []*AnalysisResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for i, id := range requirementIDs {
		pool.Submit(&AnalysisJob{
			Index:         i,
			RequirementID: id,
			Owner:         owner,
			UseLLM:        useLLM,
			Analyzer:      b.analyzer,
		})
	}

	results := pool.Wait()

	analysisResults := make([]*AnalysisResult, len(results))
	for i, result := range results {
		analysisResults[i] = result.(*AnalysisResult)
	}
	return analysisResults
}
