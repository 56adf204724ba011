package evaluate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/reqclarity/reqclarity/internal/llm"
	"github.com/reqclarity/reqclarity/internal/model"
)

// mockProvider judges terms by a canned table and can fail selectively
type mockProvider struct {
	judgments map[string]model.Judgment
	failTerms map[string]bool
	failAll   bool
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) EvaluateTerm(ctx context.Context, req llm.EvaluationRequest) (model.Judgment, error) {
	if m.failAll || m.failTerms[req.Term] {
		return model.Judgment{}, fmt.Errorf("backend error for %q", req.Term)
	}
	if j, ok := m.judgments[req.Term]; ok {
		return j, nil
	}
	return model.Judgment{IsAmbiguous: true, Confidence: 0.8, Reasoning: "ambiguous"}, nil
}

func (m *mockProvider) GenerateSuggestions(ctx context.Context, req llm.SuggestionRequest) (model.SuggestionSet, error) {
	return model.SuggestionSet{}, nil
}

func (m *mockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("not supported")
}

func (m *mockProvider) SupportsEmbeddings() bool           { return false }
func (m *mockProvider) IsAvailable(ctx context.Context) bool { return true }

func TestEvaluator_EvaluateBatch_PreservesOrder(t *testing.T) {
	provider := &mockProvider{judgments: map[string]model.Judgment{
		"fast":     {IsAmbiguous: true, Confidence: 0.9, Reasoning: "fast reasoning"},
		"secure":   {IsAmbiguous: false, Confidence: 0.95, Reasoning: "secure reasoning"},
		"scalable": {IsAmbiguous: true, Confidence: 0.7, Reasoning: "scalable reasoning"},
	}}

	e := NewEvaluator(provider, 2)
	items := []Item{
		{Term: "fast", Sentence: "s1"},
		{Term: "secure", Sentence: "s2"},
		{Term: "scalable", Sentence: "s3"},
	}

	judgments, err := e.EvaluateBatch(context.Background(), items)
	if err != nil {
		t.Fatalf("EvaluateBatch: %v", err)
	}
	if len(judgments) != 3 {
		t.Fatalf("Expected 3 judgments, got %d", len(judgments))
	}

	// Results must line up with input positions despite concurrent dispatch
	for i, term := range []string{"fast", "secure", "scalable"} {
		if !strings.HasPrefix(judgments[i].Reasoning, term) {
			t.Errorf("Judgment %d: expected reasoning for %q, got %q", i, term, judgments[i].Reasoning)
		}
	}
	if judgments[1].IsAmbiguous {
		t.Error("Judgment for clear term should not be ambiguous")
	}
}

func TestEvaluator_EvaluateBatch_SingleFailureIsNeutral(t *testing.T) {
	provider := &mockProvider{
		judgments: map[string]model.Judgment{
			"fast": {IsAmbiguous: true, Confidence: 0.9, Reasoning: "fine"},
		},
		failTerms: map[string]bool{"secure": true},
	}

	e := NewEvaluator(provider, 4)
	judgments, err := e.EvaluateBatch(context.Background(), []Item{
		{Term: "fast"},
		{Term: "secure"},
	})
	if err != nil {
		t.Fatalf("Partial failure must not abort the batch: %v", err)
	}

	got := judgments[1]
	if !got.IsAmbiguous || got.Confidence != 0.5 || got.Reasoning != "Invalid response from LLM" {
		t.Errorf("Expected neutral fallback, got %+v", got)
	}
	if judgments[0].Reasoning != "fine" {
		t.Errorf("Healthy item affected by sibling failure: %+v", judgments[0])
	}
}

func TestEvaluator_EvaluateBatch_TotalFailure(t *testing.T) {
	provider := &mockProvider{failAll: true}

	e := NewEvaluator(provider, 4)
	_, err := e.EvaluateBatch(context.Background(), []Item{
		{Term: "fast"}, {Term: "secure"}, {Term: "scalable"},
	})
	if err == nil {
		t.Fatal("Expected error when every evaluation fails")
	}

	// Caller substitutes the fixed fallback for all candidates
	fb := FallbackJudgment()
	if !fb.IsAmbiguous || fb.Confidence != 0.7 || fb.Reasoning != "Evaluation failed, flagged by lexicon" {
		t.Errorf("Unexpected fallback judgment: %+v", fb)
	}
}

func TestEvaluator_EvaluateBatch_NilProvider(t *testing.T) {
	e := NewEvaluator(nil, 4)
	_, err := e.EvaluateBatch(context.Background(), []Item{{Term: "fast"}})
	if !errors.Is(err, model.ErrBackendUnavailable) {
		t.Errorf("Expected ErrBackendUnavailable, got %v", err)
	}
}

func TestEvaluator_EvaluateBatch_Empty(t *testing.T) {
	e := NewEvaluator(&mockProvider{}, 4)
	judgments, err := e.EvaluateBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EvaluateBatch: %v", err)
	}
	if len(judgments) != 0 {
		t.Errorf("Expected empty result, got %d", len(judgments))
	}
}

func TestEvaluator_EvaluateBatch_ClampsConfidence(t *testing.T) {
	provider := &mockProvider{judgments: map[string]model.Judgment{
		"fast": {IsAmbiguous: true, Confidence: 3.2, Reasoning: "overconfident"},
	}}

	e := NewEvaluator(provider, 1)
	judgments, err := e.EvaluateBatch(context.Background(), []Item{{Term: "fast"}})
	if err != nil {
		t.Fatalf("EvaluateBatch: %v", err)
	}
	if judgments[0].Confidence != 1.0 {
		t.Errorf("Confidence should clamp to 1.0, got %f", judgments[0].Confidence)
	}
}

func TestLexiconOnlyJudgment(t *testing.T) {
	j := LexiconOnlyJudgment()
	if !j.IsAmbiguous || j.Confidence != 0.7 || j.Reasoning != "Flagged by lexicon (LLM analysis not available)" {
		t.Errorf("Unexpected lexicon-only judgment: %+v", j)
	}
}

func TestEvaluator_Stats(t *testing.T) {
	provider := &mockProvider{}
	e := NewEvaluator(provider, 2)

	if _, err := e.EvaluateBatch(context.Background(), []Item{{Term: "a"}, {Term: "b"}}); err != nil {
		t.Fatalf("EvaluateBatch: %v", err)
	}
	if stats := e.Stats(); stats.Requests != 2 {
		t.Errorf("Expected 2 requests counted, got %d", stats.Requests)
	}
}
