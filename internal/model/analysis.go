package model

import "time"

// AnalysisStatus is the lifecycle state of an analysis
type AnalysisStatus string

const (
	AnalysisStatusPending    AnalysisStatus = "pending"
	AnalysisStatusInProgress AnalysisStatus = "in_progress"
	AnalysisStatusCompleted  AnalysisStatus = "completed"
)

// Analysis is the persistence root for one pipeline run
type Analysis struct {
	ID                int64          `json:"id"`
	RequirementID     *int64         `json:"requirement_id,omitempty"` // Optional link to a source requirement
	OwnerID           string         `json:"owner_id,omitempty"`
	OriginalText      string         `json:"original_text"` // Verbatim analyzed text
	AnalyzedAt        time.Time      `json:"analyzed_at"`
	TotalTermsFlagged int            `json:"total_terms_flagged"`
	TermsResolved     int            `json:"terms_resolved"`
	Status            AnalysisStatus `json:"status"`

	Terms []EvaluatedTerm `json:"terms"`
}

// ComputeStatus derives the analysis status from resolution progress.
// completed iff terms_resolved >= total_terms_flagged, pending when nothing
// is resolved yet, in_progress otherwise.
func ComputeStatus(totalFlagged, resolved int) AnalysisStatus {
	if resolved >= totalFlagged {
		return AnalysisStatusCompleted
	}
	if resolved == 0 {
		return AnalysisStatusPending
	}
	return AnalysisStatusInProgress
}

// Clarification records one resolution of an ambiguous term
type Clarification struct {
	ID            int64     `json:"id"`
	TermID        int64     `json:"term_id"`
	RequirementID *int64    `json:"requirement_id,omitempty"`
	OwnerID       string    `json:"owner_id,omitempty"`
	OriginalText  string    `json:"original_text"`
	ClarifiedText string    `json:"clarified_text"`
	Action        string    `json:"action"` // "replace" or "append"
	ClarifiedAt   time.Time `json:"clarified_at"`
}

// Clarification actions
const (
	ClarifyActionReplace = "replace"
	ClarifyActionAppend  = "append"
)

// PipelineStats aggregates observability counters across the batch components
type PipelineStats struct {
	LLMAvailable        bool          `json:"llm_available"`
	EmbeddingsAvailable bool          `json:"embeddings_available"`
	EvaluationRequests  int64         `json:"evaluation_requests"`
	EvaluationLatency   time.Duration `json:"evaluation_latency"`
	SuggestionRequests  int64         `json:"suggestion_requests"`
	SuggestionLatency   time.Duration `json:"suggestion_latency"`
}
