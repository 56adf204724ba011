package store

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reqclarity/reqclarity/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func flaggedTerm(term string, start int) model.EvaluatedTerm {
	return model.EvaluatedTerm{
		CandidateTerm: model.CandidateTerm{
			Term:            term,
			PositionStart:   start,
			PositionEnd:     start + len(term),
			SentenceContext: "The system is " + term + ".",
			DetectionMethod: model.DetectionLexiconExact,
		},
		IsAmbiguous:           true,
		Confidence:            0.9,
		Reasoning:             "No measurable criteria",
		SuggestedReplacements: []string{"responds within 200ms"},
		ClarificationPrompt:   "What specific, measurable criteria do you mean by '" + term + "'?",
		Status:                model.TermStatusPending,
	}
}

func TestStore_SaveAnalysis_Roundtrip(t *testing.T) {
	s := newTestStore(t)

	saved, err := s.SaveAnalysis("The system is fast.", nil, "alice", []model.EvaluatedTerm{flaggedTerm("fast", 14)})
	if err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	if saved.ID == 0 {
		t.Error("Expected analysis id to be assigned")
	}
	if saved.Status != model.AnalysisStatusPending {
		t.Errorf("Expected status pending, got %s", saved.Status)
	}
	if saved.TotalTermsFlagged != 1 || saved.TermsResolved != 0 {
		t.Errorf("Counters: flagged=%d resolved=%d", saved.TotalTermsFlagged, saved.TermsResolved)
	}

	got, err := s.GetAnalysis(saved.ID, "alice")
	if err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
	if got.OriginalText != "The system is fast." {
		t.Errorf("Original text: %q", got.OriginalText)
	}
	if len(got.Terms) != 1 {
		t.Fatalf("Expected 1 term, got %d", len(got.Terms))
	}
	term := got.Terms[0]
	if term.Term != "fast" || term.PositionStart != 14 || term.PositionEnd != 18 {
		t.Errorf("Term roundtrip: %+v", term)
	}
	if len(term.SuggestedReplacements) != 1 || term.SuggestedReplacements[0] != "responds within 200ms" {
		t.Errorf("Replacements roundtrip: %v", term.SuggestedReplacements)
	}
	if term.Status != model.TermStatusPending {
		t.Errorf("Term status: %s", term.Status)
	}
}

func TestStore_SaveAnalysis_NoTermsIsCompleted(t *testing.T) {
	s := newTestStore(t)

	saved, err := s.SaveAnalysis("All criteria are measurable.", nil, "", nil)
	if err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	if saved.Status != model.AnalysisStatusCompleted {
		t.Errorf("Analysis with no flagged terms should be completed, got %s", saved.Status)
	}
}

func TestStore_GetAnalysis_Scope(t *testing.T) {
	s := newTestStore(t)

	saved, err := s.SaveAnalysis("text", nil, "alice", nil)
	if err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	if _, err := s.GetAnalysis(saved.ID, "bob"); !errors.Is(err, model.ErrAccessDenied) {
		t.Errorf("Expected ErrAccessDenied for wrong owner, got %v", err)
	}
	if _, err := s.GetAnalysis(9999, "alice"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing id, got %v", err)
	}
	// Empty owner bypasses the scope check
	if _, err := s.GetAnalysis(saved.ID, ""); err != nil {
		t.Errorf("Empty owner scope should read any analysis, got %v", err)
	}
}

func TestStore_SubmitClarification_StatusProgression(t *testing.T) {
	s := newTestStore(t)

	terms := []model.EvaluatedTerm{
		flaggedTerm("fast", 0),
		flaggedTerm("secure", 10),
		flaggedTerm("scalable", 20),
	}
	saved, err := s.SaveAnalysis("fast then secure then scalable", nil, "alice", terms)
	if err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	// First clarification: pending -> in_progress
	a, err := s.SubmitClarification(saved.ID, saved.Terms[0].ID, "responds within 200ms", model.ClarifyActionAppend, "alice")
	if err != nil {
		t.Fatalf("SubmitClarification: %v", err)
	}
	if a.TermsResolved != 1 || a.Status != model.AnalysisStatusInProgress {
		t.Errorf("After 1/3: resolved=%d status=%s", a.TermsResolved, a.Status)
	}

	// Second: still in_progress
	a, err = s.SubmitClarification(saved.ID, saved.Terms[1].ID, "TLS 1.3 with mutual auth", model.ClarifyActionAppend, "alice")
	if err != nil {
		t.Fatalf("SubmitClarification: %v", err)
	}
	if a.TermsResolved != 2 || a.Status != model.AnalysisStatusInProgress {
		t.Errorf("After 2/3: resolved=%d status=%s", a.TermsResolved, a.Status)
	}

	// Third: completed
	a, err = s.SubmitClarification(saved.ID, saved.Terms[2].ID, "handles 10k concurrent users", model.ClarifyActionAppend, "alice")
	if err != nil {
		t.Fatalf("SubmitClarification: %v", err)
	}
	if a.TermsResolved != 3 || a.Status != model.AnalysisStatusCompleted {
		t.Errorf("After 3/3: resolved=%d status=%s", a.TermsResolved, a.Status)
	}
	if a.Terms[2].Status != model.TermStatusClarified {
		t.Errorf("Clarified term status: %s", a.Terms[2].Status)
	}
}

func TestStore_SubmitClarification_ReplaceUpdatesRequirement(t *testing.T) {
	s := newTestStore(t)

	req, err := s.CreateRequirement(model.Requirement{
		Title:       "Fast login",
		Description: "Login must be fast for all users.",
		OwnerID:     "alice",
	})
	if err != nil {
		t.Fatalf("CreateRequirement: %v", err)
	}

	saved, err := s.SaveAnalysis(req.AnalysisText(), &req.ID, "alice", []model.EvaluatedTerm{flaggedTerm("fast", 25)})
	if err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	if _, err := s.SubmitClarification(saved.ID, saved.Terms[0].ID, "completes within 2 seconds", model.ClarifyActionReplace, "alice"); err != nil {
		t.Fatalf("SubmitClarification: %v", err)
	}

	updated, err := s.GetRequirement(req.ID, "alice")
	if err != nil {
		t.Fatalf("GetRequirement: %v", err)
	}
	if !strings.Contains(updated.Description, "completes within 2 seconds") {
		t.Errorf("Replacement not applied: %q", updated.Description)
	}
	if strings.Contains(updated.Description, "fast") {
		t.Errorf("Original term should be replaced: %q", updated.Description)
	}
}

func TestStore_SubmitClarification_AppendAddsNote(t *testing.T) {
	s := newTestStore(t)

	req, err := s.CreateRequirement(model.Requirement{
		Title:       "Search",
		Description: "Search must be fast.",
		OwnerID:     "alice",
	})
	if err != nil {
		t.Fatalf("CreateRequirement: %v", err)
	}

	saved, err := s.SaveAnalysis(req.AnalysisText(), &req.ID, "alice", []model.EvaluatedTerm{flaggedTerm("fast", 22)})
	if err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	if _, err := s.SubmitClarification(saved.ID, saved.Terms[0].ID, "under 300ms at p95", model.ClarifyActionAppend, "alice"); err != nil {
		t.Fatalf("SubmitClarification: %v", err)
	}

	updated, err := s.GetRequirement(req.ID, "alice")
	if err != nil {
		t.Fatalf("GetRequirement: %v", err)
	}
	want := "Clarification: 'fast' means under 300ms at p95"
	if !strings.Contains(updated.Description, want) {
		t.Errorf("Expected note %q in %q", want, updated.Description)
	}
	if !strings.Contains(updated.Description, "Search must be fast.") {
		t.Errorf("Append must keep the original text: %q", updated.Description)
	}
}

func TestStore_SubmitClarification_UnknownTerm(t *testing.T) {
	s := newTestStore(t)

	saved, err := s.SaveAnalysis("text", nil, "", []model.EvaluatedTerm{flaggedTerm("fast", 0)})
	if err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	if _, err := s.SubmitClarification(saved.ID, 9999, "x", model.ClarifyActionAppend, ""); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown term, got %v", err)
	}
	if _, err := s.SubmitClarification(saved.ID, saved.Terms[0].ID, "x", "overwrite", ""); err == nil {
		t.Error("Expected error for unknown action")
	}
}

func TestStore_DeleteAnalysis(t *testing.T) {
	s := newTestStore(t)

	saved, err := s.SaveAnalysis("text", nil, "alice", []model.EvaluatedTerm{flaggedTerm("fast", 0)})
	if err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	if err := s.DeleteAnalysis(saved.ID, "bob"); !errors.Is(err, model.ErrAccessDenied) {
		t.Errorf("Expected ErrAccessDenied, got %v", err)
	}
	if err := s.DeleteAnalysis(saved.ID, "alice"); err != nil {
		t.Fatalf("DeleteAnalysis: %v", err)
	}
	if _, err := s.GetAnalysis(saved.ID, "alice"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestStore_CreateRequirement_GeneratesReqID(t *testing.T) {
	s := newTestStore(t)

	// Callers rarely carry an external id; two requirements for one owner
	// must still satisfy the per-owner req_id uniqueness.
	first, err := s.CreateRequirement(model.Requirement{Title: "Login", OwnerID: "alice"})
	if err != nil {
		t.Fatalf("CreateRequirement: %v", err)
	}
	second, err := s.CreateRequirement(model.Requirement{Title: "Search", OwnerID: "alice"})
	if err != nil {
		t.Fatalf("Second requirement for the same owner: %v", err)
	}

	if first.ReqID == "" || second.ReqID == "" {
		t.Errorf("Empty ReqID should be generated: %q, %q", first.ReqID, second.ReqID)
	}
	if first.ReqID == second.ReqID {
		t.Errorf("Generated ReqIDs must differ, both %q", first.ReqID)
	}

	// An explicit id is kept as given
	explicit, err := s.CreateRequirement(model.Requirement{ReqID: "REQ-42", Title: "Export", OwnerID: "alice"})
	if err != nil {
		t.Fatalf("CreateRequirement: %v", err)
	}
	if explicit.ReqID != "REQ-42" {
		t.Errorf("Explicit ReqID overwritten: %q", explicit.ReqID)
	}
}

func TestStore_UpdateRequirementText(t *testing.T) {
	s := newTestStore(t)

	req, err := s.CreateRequirement(model.Requirement{
		Title:       "Fast login",
		Description: "Login must be fast.",
		OwnerID:     "alice",
	})
	if err != nil {
		t.Fatalf("CreateRequirement: %v", err)
	}

	if err := s.UpdateRequirementText(req.ID, "Quick login", "Login completes within 300ms."); err != nil {
		t.Fatalf("UpdateRequirementText: %v", err)
	}
	got, err := s.GetRequirement(req.ID, "alice")
	if err != nil {
		t.Fatalf("GetRequirement: %v", err)
	}
	if got.Title != "Quick login" || got.Description != "Login completes within 300ms." {
		t.Errorf("Update not applied: %+v", got)
	}

	if err := s.UpdateRequirementText(404, "x", "y"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestStore_Requirement_Scope(t *testing.T) {
	s := newTestStore(t)

	req, err := s.CreateRequirement(model.Requirement{Title: "R", OwnerID: "alice"})
	if err != nil {
		t.Fatalf("CreateRequirement: %v", err)
	}

	if _, err := s.GetRequirement(req.ID, "bob"); !errors.Is(err, model.ErrAccessDenied) {
		t.Errorf("Expected ErrAccessDenied, got %v", err)
	}
	if _, err := s.GetRequirement(404, "alice"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
