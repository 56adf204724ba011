package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/reqclarity/reqclarity/internal/model"
)

// SaveAnalysis persists an analysis header plus all its terms in a single
// transaction. The header counters and status are derived here: flagged =
// number of terms, resolved = 0, status = pending if any terms else completed.
func (s *Store) SaveAnalysis(text string, requirementID *int64, owner string, terms []model.EvaluatedTerm) (*model.Analysis, error) {
	analysis := &model.Analysis{
		RequirementID:     requirementID,
		OwnerID:           owner,
		OriginalText:      text,
		AnalyzedAt:        time.Now().UTC(),
		TotalTermsFlagged: len(terms),
		TermsResolved:     0,
		Status:            model.AnalysisStatusPending,
	}
	if len(terms) == 0 {
		analysis.Status = model.AnalysisStatusCompleted
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(
		`INSERT INTO ambiguity_analyses(requirement_id, owner_id, original_text, analyzed_at, total_terms_flagged, terms_resolved, status)
		 VALUES(?,?,?,?,?,?,?)`,
		requirementID, owner, text, analysis.AnalyzedAt, analysis.TotalTermsFlagged, 0, string(analysis.Status),
	)
	if err != nil {
		return nil, fmt.Errorf("insert analysis: %w", err)
	}

	analysis.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("analysis id: %w", err)
	}

	for i := range terms {
		term := terms[i]
		term.Status = model.TermStatusPending

		replacements, err := json.Marshal(term.SuggestedReplacements)
		if err != nil {
			return nil, fmt.Errorf("marshal replacements: %w", err)
		}

		termRes, err := tx.Exec(
			`INSERT INTO ambiguous_terms(analysis_id, term, position_start, position_end, sentence_context,
			   detection_method, matched_lexicon_term, similarity_score, is_ambiguous, confidence, reasoning,
			   clarification_prompt, suggested_replacements, status, created_at)
			 VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			analysis.ID, term.Term, term.PositionStart, term.PositionEnd, term.SentenceContext,
			string(term.DetectionMethod), term.MatchedLexiconTerm, term.SimilarityScore,
			term.IsAmbiguous, term.Confidence, term.Reasoning,
			term.ClarificationPrompt, string(replacements), string(term.Status), analysis.AnalyzedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("insert term %q: %w", term.Term, err)
		}
		term.ID, err = termRes.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("term id: %w", err)
		}
		analysis.Terms = append(analysis.Terms, term)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit analysis: %w", err)
	}
	return analysis, nil
}

// GetAnalysis fetches an analysis with its terms, enforcing owner scope
func (s *Store) GetAnalysis(id int64, owner string) (*model.Analysis, error) {
	var a model.Analysis
	var reqID sql.NullInt64
	var ownerID sql.NullString
	var status string

	err := s.db.QueryRow(
		`SELECT id, requirement_id, owner_id, original_text, analyzed_at, total_terms_flagged, terms_resolved, status
		 FROM ambiguity_analyses WHERE id = ?`, id,
	).Scan(&a.ID, &reqID, &ownerID, &a.OriginalText, &a.AnalyzedAt, &a.TotalTermsFlagged, &a.TermsResolved, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query analysis: %w", err)
	}

	if reqID.Valid {
		a.RequirementID = &reqID.Int64
	}
	a.OwnerID = ownerID.String
	a.Status = model.AnalysisStatus(status)

	if owner != "" && a.OwnerID != owner {
		return nil, fmt.Errorf("analysis %d: %w", id, model.ErrAccessDenied)
	}

	a.Terms, err = s.termsForAnalysis(a.ID)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) termsForAnalysis(analysisID int64) ([]model.EvaluatedTerm, error) {
	rows, err := s.db.Query(
		`SELECT id, term, position_start, position_end, sentence_context, detection_method,
		        matched_lexicon_term, similarity_score, is_ambiguous, confidence, reasoning,
		        clarification_prompt, suggested_replacements, status
		 FROM ambiguous_terms WHERE analysis_id = ? ORDER BY position_start, id`, analysisID,
	)
	if err != nil {
		return nil, fmt.Errorf("query terms: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var terms []model.EvaluatedTerm
	for rows.Next() {
		var t model.EvaluatedTerm
		var sentence, method, matched, reasoning, prompt, replacements, status sql.NullString
		var similarity sql.NullFloat64

		if err := rows.Scan(&t.ID, &t.Term, &t.PositionStart, &t.PositionEnd, &sentence, &method,
			&matched, &similarity, &t.IsAmbiguous, &t.Confidence, &reasoning,
			&prompt, &replacements, &status); err != nil {
			return nil, fmt.Errorf("scan term: %w", err)
		}

		t.SentenceContext = sentence.String
		t.DetectionMethod = model.DetectionMethod(method.String)
		t.MatchedLexiconTerm = matched.String
		t.SimilarityScore = similarity.Float64
		t.Reasoning = reasoning.String
		t.ClarificationPrompt = prompt.String
		t.Status = model.TermStatus(status.String)

		if replacements.String != "" {
			if err := json.Unmarshal([]byte(replacements.String), &t.SuggestedReplacements); err != nil {
				return nil, fmt.Errorf("unmarshal replacements: %w", err)
			}
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

// DeleteAnalysis removes an analysis and (via cascade) its terms
func (s *Store) DeleteAnalysis(id int64, owner string) error {
	// Scope check first so a mismatched owner gets ErrAccessDenied, not a silent no-op
	if _, err := s.GetAnalysis(id, owner); err != nil {
		return err
	}

	if _, err := s.db.Exec(`DELETE FROM ambiguity_analyses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}
	return nil
}

// SubmitClarification resolves one term of an analysis: records a history
// row, marks the term clarified, recomputes the analysis counters/status,
// and applies the replace/append action to the linked requirement if any.
// The whole update is one transaction.
func (s *Store) SubmitClarification(analysisID, termID int64, clarifiedText, action, owner string) (*model.Analysis, error) {
	if action != model.ClarifyActionReplace && action != model.ClarifyActionAppend {
		return nil, fmt.Errorf("unknown clarification action %q", action)
	}

	analysis, err := s.GetAnalysis(analysisID, owner)
	if err != nil {
		return nil, err
	}

	var term *model.EvaluatedTerm
	for i := range analysis.Terms {
		if analysis.Terms[i].ID == termID {
			term = &analysis.Terms[i]
			break
		}
	}
	if term == nil {
		return nil, fmt.Errorf("term %d in analysis %d: %w", termID, analysisID, model.ErrNotFound)
	}

	// Read the linked requirement before opening the transaction: the pool is
	// capped at one connection, so a read inside the tx would deadlock.
	var req *model.Requirement
	if analysis.RequirementID != nil {
		req, err = s.GetRequirement(*analysis.RequirementID, owner)
		if err != nil {
			return nil, err
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	if _, err := tx.Exec(
		`INSERT INTO clarification_history(term_id, requirement_id, owner_id, original_text, clarified_text, action, clarified_at)
		 VALUES(?,?,?,?,?,?,?)`,
		termID, analysis.RequirementID, owner, analysis.OriginalText, clarifiedText, action, now,
	); err != nil {
		return nil, fmt.Errorf("insert clarification: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE ambiguous_terms SET status = ? WHERE id = ?`,
		string(model.TermStatusClarified), termID,
	); err != nil {
		return nil, fmt.Errorf("update term status: %w", err)
	}

	resolved := 0
	for _, t := range analysis.Terms {
		if t.ID == termID || t.Status == model.TermStatusClarified {
			resolved++
		}
	}
	status := model.ComputeStatus(analysis.TotalTermsFlagged, resolved)
	// A clarification always counts as progress even when it is the first one
	if status == model.AnalysisStatusPending {
		status = model.AnalysisStatusInProgress
	}

	if _, err := tx.Exec(
		`UPDATE ambiguity_analyses SET terms_resolved = ?, status = ? WHERE id = ?`,
		resolved, string(status), analysisID,
	); err != nil {
		return nil, fmt.Errorf("update analysis progress: %w", err)
	}

	// Apply the action to the linked requirement, if any
	if req != nil {
		title, description := req.Title, req.Description
		switch action {
		case model.ClarifyActionReplace:
			title = strings.ReplaceAll(title, term.Term, clarifiedText)
			description = strings.ReplaceAll(description, term.Term, clarifiedText)
		case model.ClarifyActionAppend:
			note := fmt.Sprintf("\n\nClarification: '%s' means %s", term.Term, clarifiedText)
			description += note
		}

		if err := updateRequirementText(tx, req.ID, title, description); err != nil {
			return nil, fmt.Errorf("apply clarification: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit clarification: %w", err)
	}

	return s.GetAnalysis(analysisID, owner)
}
