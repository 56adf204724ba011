package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/reqclarity/reqclarity/internal/model"
)

// Renderer writes analysis results as JSON, Markdown, or a terminal summary
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer. includeFooter controls the attribution
// line at the end of Markdown reports.
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the analysis as indented JSON. An empty path writes to
// stdout.
func (r *Renderer) RenderJSON(analysis *model.Analysis, path string) error {
	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	if path == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write JSON report: %w", err)
	}
	return nil
}

// RenderMarkdown writes the analysis as a Markdown report. An empty path
// writes to stdout.
func (r *Renderer) RenderMarkdown(analysis *model.Analysis, path string) error {
	var out io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create Markdown report: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	fmt.Fprintf(out, "# Ambiguity Analysis #%d\n\n", analysis.ID)
	fmt.Fprintf(out, "- **Analyzed:** %s\n", analysis.AnalyzedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "- **Status:** %s\n", analysis.Status)
	fmt.Fprintf(out, "- **Terms flagged:** %d\n", analysis.TotalTermsFlagged)
	fmt.Fprintf(out, "- **Terms resolved:** %d\n\n", analysis.TermsResolved)

	fmt.Fprintf(out, "## Analyzed Text\n\n> %s\n\n", strings.ReplaceAll(analysis.OriginalText, "\n", "\n> "))

	if len(analysis.Terms) == 0 {
		fmt.Fprintf(out, "No ambiguous terms found.\n")
	} else {
		fmt.Fprintf(out, "## Flagged Terms\n\n")
		for _, t := range analysis.Terms {
			fmt.Fprintf(out, "### %q (chars %d-%d)\n\n", t.Term, t.PositionStart, t.PositionEnd)
			fmt.Fprintf(out, "- **Detection:** %s", t.DetectionMethod)
			if t.DetectionMethod == model.DetectionSemanticSimilarity {
				fmt.Fprintf(out, " (similar to %q, score %.2f)", t.MatchedLexiconTerm, t.SimilarityScore)
			}
			fmt.Fprintf(out, "\n- **Confidence:** %.2f\n", t.Confidence)
			fmt.Fprintf(out, "- **Status:** %s\n", t.Status)
			if t.Reasoning != "" {
				fmt.Fprintf(out, "- **Reasoning:** %s\n", t.Reasoning)
			}
			if len(t.SuggestedReplacements) > 0 {
				fmt.Fprintf(out, "- **Suggestions:**\n")
				for _, s := range t.SuggestedReplacements {
					fmt.Fprintf(out, "  - %s\n", s)
				}
			}
			if t.ClarificationPrompt != "" {
				fmt.Fprintf(out, "- **Clarification:** %s\n", t.ClarificationPrompt)
			}
			fmt.Fprintln(out)
		}
	}

	if r.includeFooter {
		fmt.Fprintf(out, "---\n_Generated by ReqClarity_\n")
	}
	return nil
}

// RenderSummary prints a short terminal summary of the analysis
func (r *Renderer) RenderSummary(analysis *model.Analysis) {
	fmt.Printf("Analysis #%d: %d term(s) flagged, %d resolved [%s]\n",
		analysis.ID, analysis.TotalTermsFlagged, analysis.TermsResolved, analysis.Status)

	for _, t := range analysis.Terms {
		marker := "?"
		if t.Status == model.TermStatusClarified {
			marker = "✓"
		}
		fmt.Printf("  %s %q (%.2f, %s)\n", marker, t.Term, t.Confidence, t.DetectionMethod)
		if t.ClarificationPrompt != "" && t.Status == model.TermStatusPending {
			fmt.Printf("    → %s\n", t.ClarificationPrompt)
		}
	}
}
