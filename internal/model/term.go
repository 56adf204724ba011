package model

// DetectionMethod identifies which stage of the pipeline flagged a term
type DetectionMethod string

const (
	DetectionLexiconExact       DetectionMethod = "lexicon_exact"       // Surface-literal lexicon match
	DetectionSemanticSimilarity DetectionMethod = "semantic_similarity" // Embedding similarity to a lexicon term
)

// CandidateTerm is a text span flagged for possible ambiguity, prior to adjudication
type CandidateTerm struct {
	Term            string          `json:"term"`                          // Literal surface text as found
	PositionStart   int             `json:"position_start"`                // Character offset, inclusive
	PositionEnd     int             `json:"position_end"`                  // Character offset, exclusive
	SentenceContext string          `json:"sentence_context"`              // Full sentence containing the term
	DetectionMethod DetectionMethod `json:"detection_method"`

	// Populated for semantic detections only
	MatchedLexiconTerm string  `json:"matched_lexicon_term,omitempty"`
	SimilarityScore    float64 `json:"similarity_score,omitempty"` // 0.0-1.0
}

// TermStatus is the lifecycle state of an evaluated term
type TermStatus string

const (
	TermStatusPending   TermStatus = "pending"
	TermStatusClarified TermStatus = "clarified"
)

// Judgment is the contextual ambiguity verdict for a single candidate
type Judgment struct {
	IsAmbiguous bool    `json:"is_ambiguous"`
	Confidence  float64 `json:"confidence"` // Clamped to [0.0, 1.0]
	Reasoning   string  `json:"reasoning"`  // Short justification, bounded length
}

// SuggestionSet holds generated replacements and the clarification question
type SuggestionSet struct {
	Suggestions         []string `json:"suggestions"`          // 2-5 replacement phrasings, empty on fallback
	ClarificationPrompt string   `json:"clarification_prompt"` // Exactly one question
}

// EvaluatedTerm is a candidate after contextual judgment
type EvaluatedTerm struct {
	CandidateTerm

	ID                    int64      `json:"id,omitempty"` // Assigned by the store
	IsAmbiguous           bool       `json:"is_ambiguous"`
	Confidence            float64    `json:"confidence"`
	Reasoning             string     `json:"reasoning"`
	SuggestedReplacements []string   `json:"suggested_replacements"`
	ClarificationPrompt   string     `json:"clarification_prompt"`
	Status                TermStatus `json:"status"`
}

// GenericClarificationPrompt is the fallback question used when suggestion
// generation is unavailable or produced an invalid result.
func GenericClarificationPrompt(term string) string {
	return "What specific, measurable criteria do you mean by '" + term + "'?"
}
