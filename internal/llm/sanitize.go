package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/reqclarity/reqclarity/internal/model"
)

// MaxTextLength bounds any text accepted for analysis
const MaxTextLength = 50000

// maxReasoningLength bounds the reasoning string kept on an evaluated term
const maxReasoningLength = 1000

// maxSuggestionLength bounds a single suggestion or clarification prompt
const maxSuggestionLength = 500

// minSuggestionLength drops trivially short suggestions
const minSuggestionLength = 5

var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?i)<iframe[^>]*>`),
}

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+previous\s+instructions`),
	regexp.MustCompile(`(?i)disregard\s+all\s+previous`),
	regexp.MustCompile(`(?i)forget\s+everything`),
	regexp.MustCompile(`(?i)new\s+instructions:`),
	regexp.MustCompile(`(?i)system\s*:`),
	regexp.MustCompile(`(?i)assistant\s*:`),
}

var collapseNewlines = regexp.MustCompile(`\n{3,}`)

// SanitizeText validates and cleans text input for analysis: strips
// non-printable characters, enforces the length cap, and rejects content
// matching known injection patterns.
func SanitizeText(text string, maxLength int) (string, error) {
	if maxLength <= 0 {
		maxLength = MaxTextLength
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("text cannot be empty")
	}

	var b strings.Builder
	for _, r := range text {
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			b.WriteRune(r)
		}
	}
	sanitized := b.String()

	if len(sanitized) > maxLength {
		return "", fmt.Errorf("text exceeds maximum length of %d characters", maxLength)
	}

	for _, p := range suspiciousPatterns {
		if p.MatchString(sanitized) {
			return "", fmt.Errorf("text contains potentially malicious content")
		}
	}

	return strings.TrimSpace(sanitized), nil
}

// SanitizeForPrompt scrubs text before interpolating it into an LLM prompt.
// Known prompt-injection phrases are redacted rather than rejected so an
// analysis run still completes on hostile input.
func SanitizeForPrompt(text string) string {
	sanitized := collapseNewlines.ReplaceAllString(text, "\n\n")
	for _, p := range injectionPatterns {
		sanitized = p.ReplaceAllString(sanitized, "[REDACTED]")
	}
	return sanitized
}

// ParseJudgment extracts and validates a Judgment from a raw LLM response.
// Confidence is clamped to [0, 1]; reasoning is sanitized and bounded.
func ParseJudgment(raw string) (model.Judgment, error) {
	payload := extractJSON(raw)

	var decoded struct {
		IsAmbiguous *bool    `json:"is_ambiguous"`
		Confidence  *float64 `json:"confidence"`
		Reasoning   string   `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return model.Judgment{}, fmt.Errorf("parse judgment: %w", err)
	}
	if decoded.IsAmbiguous == nil {
		return model.Judgment{}, fmt.Errorf("judgment missing is_ambiguous")
	}
	if decoded.Confidence == nil {
		return model.Judgment{}, fmt.Errorf("judgment missing confidence")
	}

	reasoning, err := SanitizeText(decoded.Reasoning, maxReasoningLength)
	if err != nil {
		return model.Judgment{}, fmt.Errorf("judgment reasoning: %w", err)
	}

	return model.Judgment{
		IsAmbiguous: *decoded.IsAmbiguous,
		Confidence:  ClampConfidence(*decoded.Confidence),
		Reasoning:   reasoning,
	}, nil
}

// ParseSuggestionSet extracts and validates a SuggestionSet from a raw LLM
// response. Blank or too-short suggestions are discarded; fewer than 2
// surviving suggestions is an error so the caller can apply its fallback.
func ParseSuggestionSet(raw string) (model.SuggestionSet, error) {
	payload := extractJSON(raw)

	var decoded struct {
		Suggestions         []string `json:"suggestions"`
		ClarificationPrompt string   `json:"clarification_prompt"`
	}
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return model.SuggestionSet{}, fmt.Errorf("parse suggestions: %w", err)
	}

	var valid []string
	for _, s := range decoded.Suggestions {
		sanitized, err := SanitizeText(s, maxSuggestionLength)
		if err != nil {
			continue
		}
		if len(sanitized) >= minSuggestionLength {
			valid = append(valid, sanitized)
		}
	}
	if len(valid) < 2 {
		return model.SuggestionSet{}, fmt.Errorf("need at least 2 valid suggestions, got %d", len(valid))
	}
	if len(valid) > 5 {
		valid = valid[:5]
	}

	prompt, err := validateClarificationPrompt(decoded.ClarificationPrompt)
	if err != nil {
		return model.SuggestionSet{}, err
	}

	return model.SuggestionSet{
		Suggestions:         valid,
		ClarificationPrompt: prompt,
	}, nil
}

func validateClarificationPrompt(prompt string) (string, error) {
	sanitized, err := SanitizeText(prompt, maxSuggestionLength)
	if err != nil {
		return "", fmt.Errorf("clarification prompt: %w", err)
	}

	sanitized = strings.Trim(sanitized, `"'`)
	if len(sanitized) < 10 {
		return "", fmt.Errorf("clarification prompt too short")
	}
	return sanitized, nil
}

// ClampConfidence forces a confidence score into [0.0, 1.0]
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// extractJSON strips markdown fences and surrounding prose, returning the
// outermost JSON object in the response.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
