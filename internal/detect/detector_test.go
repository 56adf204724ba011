package detect

import (
	"path/filepath"
	"testing"
	"unicode/utf8"

	"github.com/reqclarity/reqclarity/internal/lexicon"
	"github.com/reqclarity/reqclarity/internal/model"
	"github.com/reqclarity/reqclarity/internal/store"
)

func newTestDetector(t *testing.T) (*Detector, *lexicon.Manager) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	lex := lexicon.NewManager(s)
	if _, err := lex.Seed(); err != nil {
		t.Fatalf("seed lexicon: %v", err)
	}
	return NewDetector(lex), lex
}

func TestDetector_Detect_LexiconMatch(t *testing.T) {
	d, _ := newTestDetector(t)

	text := "The system is fast."
	candidates, _, err := d.Detect(text, "")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}

	c := candidates[0]
	if c.Term != "fast" {
		t.Errorf("Expected term %q, got %q", "fast", c.Term)
	}
	if c.PositionStart != 14 || c.PositionEnd != 18 {
		t.Errorf("Expected span [14,18), got [%d,%d)", c.PositionStart, c.PositionEnd)
	}
	if text[c.PositionStart:c.PositionEnd] != c.Term {
		t.Errorf("Span does not slice back to the term: %q", text[c.PositionStart:c.PositionEnd])
	}
	if c.SentenceContext != "The system is fast." {
		t.Errorf("Unexpected sentence context: %q", c.SentenceContext)
	}
	if c.DetectionMethod != model.DetectionLexiconExact {
		t.Errorf("Expected detection method %q, got %q", model.DetectionLexiconExact, c.DetectionMethod)
	}
}

func TestDetector_Detect_WholeWordsOnly(t *testing.T) {
	d, _ := newTestDetector(t)

	// "fasten" contains "fast" but is not a whole-word match
	candidates, _, err := d.Detect("Please fasten the bracket securely.", "")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	for _, c := range candidates {
		if c.Term == "fasten" {
			t.Errorf("Substring %q should not match lexicon term %q", "fasten", "fast")
		}
	}
}

func TestDetector_Detect_CaseInsensitivePreservesSurface(t *testing.T) {
	d, _ := newTestDetector(t)

	candidates, _, err := d.Detect("The response must be FAST.", "")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Term != "FAST" {
		t.Errorf("Expected surface form %q preserved, got %q", "FAST", candidates[0].Term)
	}
}

func TestDetector_Detect_MultipleOccurrences(t *testing.T) {
	d, _ := newTestDetector(t)

	candidates, _, err := d.Detect("It must be fast. Really fast.", "")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].PositionStart >= candidates[1].PositionStart {
		t.Error("Candidates should come back in position order")
	}
	if candidates[0].SentenceContext != "It must be fast." {
		t.Errorf("First occurrence sentence: %q", candidates[0].SentenceContext)
	}
	if candidates[1].SentenceContext != "Really fast." {
		t.Errorf("Second occurrence sentence: %q", candidates[1].SentenceContext)
	}
}

func TestDetector_Detect_OwnerExcludeWins(t *testing.T) {
	d, lex := newTestDetector(t)

	if err := lex.AddExclude("fast", "alice"); err != nil {
		t.Fatalf("AddExclude: %v", err)
	}

	candidates, _, err := d.Detect("The system is fast.", "alice")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("Excluded term should not be detected, got %d candidates", len(candidates))
	}

	// Other owners still see the global term
	candidates, _, err = d.Detect("The system is fast.", "bob")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(candidates) != 1 {
		t.Errorf("Exclusion must not leak to other owners, got %d candidates", len(candidates))
	}
}

func TestSegmentSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "simple",
			text: "First sentence. Second sentence.",
			want: []string{"First sentence.", "Second sentence."},
		},
		{
			name: "mixed terminators",
			text: "Is it fast? It must be! Yes.",
			want: []string{"Is it fast?", "It must be!", "Yes."},
		},
		{
			name: "abbreviation guard",
			text: "Use caching (e.g. Redis) for speed. Done.",
			want: []string{"Use caching (e.g. Redis) for speed.", "Done."},
		},
		{
			name: "decimal number",
			text: "Latency under 3.5 seconds. Always.",
			want: []string{"Latency under 3.5 seconds.", "Always."},
		},
		{
			name: "trailing text without terminator",
			text: "Complete sentence. Trailing fragment",
			want: []string{"Complete sentence.", "Trailing fragment"},
		},
		{
			name: "empty",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SegmentSentences(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d sentences, got %d: %+v", len(tt.want), len(got), got)
			}
			for i, s := range got {
				if s.Text != tt.want[i] {
					t.Errorf("Sentence %d: expected %q, got %q", i, tt.want[i], s.Text)
				}
				if s.Start < 0 || s.End > len(tt.text) || s.Start >= s.End {
					t.Errorf("Sentence %d has invalid span [%d,%d)", i, s.Start, s.End)
				}
			}
		})
	}
}

func TestSentenceForPosition_Fallbacks(t *testing.T) {
	text := "One. Two."
	sentences := SegmentSentences(text)

	if got := SentenceForPosition(6, sentences, text); got != "Two." {
		t.Errorf("Expected containing sentence %q, got %q", "Two.", got)
	}

	// A position past the last span falls back to the nearest preceding sentence
	if got := SentenceForPosition(50, sentences, text); got != "Two." {
		t.Errorf("Expected preceding sentence %q, got %q", "Two.", got)
	}

	// No sentences at all falls back to the whole text
	if got := SentenceForPosition(0, nil, text); got != text {
		t.Errorf("Expected whole text fallback, got %q", got)
	}
}

func TestContextWindow_Clamping(t *testing.T) {
	text := "short text"

	if got := ContextWindow(text, 0, 5, 100); got != text {
		t.Errorf("Window should clamp to text bounds, got %q", got)
	}

	long := "aaaa target bbbb"
	if got := ContextWindow(long, 5, 11, 2); got != "a target b" {
		t.Errorf("Expected %q, got %q", "a target b", got)
	}
}

func TestContextWindow_RuneBoundaries(t *testing.T) {
	// Both window edges land mid-rune ("é" is two bytes); the window must
	// shift to the next boundary instead of emitting invalid UTF-8.
	text := "aé fast éb"
	got := ContextWindow(text, 4, 8, 2)

	if !utf8.ValidString(got) {
		t.Fatalf("Window split a rune: %q", got)
	}
	if got != " fast é" {
		t.Errorf("Expected %q, got %q", " fast é", got)
	}
}

func TestTokenize_SkipsShortTokens(t *testing.T) {
	tokens := Tokenize("it is a fast UI", 2)

	for _, tok := range tokens {
		if len(tok.Term) <= 2 {
			t.Errorf("Token %q should have been skipped", tok.Term)
		}
	}
	if len(tokens) != 1 || tokens[0].Term != "fast" {
		t.Errorf("Expected only %q, got %+v", "fast", tokens)
	}
}

func TestTokenize_HyphenatedWord(t *testing.T) {
	tokens := Tokenize("must be user-friendly", 2)

	found := false
	for _, tok := range tokens {
		if tok.Term == "user-friendly" {
			found = true
		}
	}
	if !found {
		t.Errorf("Hyphenated word should stay one token, got %+v", tokens)
	}
}
