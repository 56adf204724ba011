package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/reqclarity/reqclarity/internal/fetch"
	"github.com/reqclarity/reqclarity/internal/model"
)

var (
	inFile      string
	inURL       string
	reqID       int64
	owner       string
	saveReq     bool
	outJSON     string
	outMD       string
	noFooter    bool
	noSemantic  bool
	threshold   float64
	timeout     time.Duration
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [text]",
	Short: "Analyze requirements text for ambiguous language",
	Long: `Analyze scans requirements text and flags ambiguous terms:
- Exact matches against the ambiguity lexicon
- Semantically similar words via embeddings (with --llm)
- Contextual judgment and rewrite suggestions (with --llm)

The text comes from the argument, a file, a URL, or a stored requirement.

Example:
  reqclarity analyze "The system should be fast and user-friendly"
  reqclarity analyze --file requirements.md --llm
  reqclarity analyze --url https://wiki.example.com/requirements --llm --llm-provider ollama
  reqclarity analyze --req 42 --owner alice --llm`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Input flags
	analyzeCmd.Flags().StringVar(&inFile, "file", "", "read text from file")
	analyzeCmd.Flags().StringVar(&inURL, "url", "", "fetch text from URL (visible text of HTML pages)")
	analyzeCmd.Flags().Int64Var(&reqID, "req", 0, "analyze a stored requirement by id")
	analyzeCmd.Flags().StringVar(&owner, "owner", "", "owner scope for lexicon and stored data")
	analyzeCmd.Flags().BoolVar(&saveReq, "store", false, "store the text as a requirement before analyzing")

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Detection flags
	analyzeCmd.Flags().BoolVar(&noSemantic, "no-semantic", false, "disable embedding-based semantic matching")
	analyzeCmd.Flags().Float64Var(&threshold, "threshold", 0, "semantic similarity threshold override (0 = config default)")
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall analysis timeout")

	// LLM flags
	analyzeCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM evaluation and suggestions")
	analyzeCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	analyzeCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (provider default when empty)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg := loadConfig()
	cfg.Output.IncludeFooter = !noFooter
	if noSemantic {
		cfg.Semantic.Enabled = false
	}
	if threshold > 0 {
		cfg.Semantic.Threshold = threshold
	}
	if llmEnabled {
		if err := configureLLM(cfg, llmProvider, llmModel); err != nil {
			return err
		}
	} else {
		cfg.LLM.Provider = ""
	}

	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	var analysis *model.Analysis
	if reqID > 0 {
		analysis, err = eng.pipe.AnalyzeRequirement(ctx, reqID, owner, llmEnabled)
	} else {
		text, terr := resolveText(ctx, cfg, args)
		if terr != nil {
			return terr
		}

		var linkedID *int64
		if saveReq {
			req, serr := eng.store.CreateRequirement(model.Requirement{
				Title:       firstLine(text),
				Description: text,
				OwnerID:     owner,
			})
			if serr != nil {
				return fmt.Errorf("store requirement: %w", serr)
			}
			linkedID = &req.ID
			if verbose {
				fmt.Fprintf(os.Stderr, "Stored requirement #%d\n", req.ID)
			}
		}
		analysis, err = eng.pipe.Analyze(ctx, text, linkedID, owner, llmEnabled)
	}
	if err != nil {
		if errors.Is(err, model.ErrRateLimited) {
			return fmt.Errorf("rate limit exceeded for owner %q", owner)
		}
		return fmt.Errorf("analysis failed: %w", err)
	}

	if outJSON != "" {
		if err := eng.renderer.RenderJSON(analysis, outJSON); err != nil {
			return err
		}
	}
	if outMD != "" {
		if err := eng.renderer.RenderMarkdown(analysis, outMD); err != nil {
			return err
		}
	}
	eng.renderer.RenderSummary(analysis)
	return nil
}

// resolveText picks the analysis text from the argument, --file, or --url
func resolveText(ctx context.Context, cfg *model.Config, args []string) (string, error) {
	sources := 0
	if len(args) == 1 {
		sources++
	}
	if inFile != "" {
		sources++
	}
	if inURL != "" {
		sources++
	}
	if sources != 1 {
		return "", fmt.Errorf("provide exactly one of: text argument, --file, --url, or --req")
	}

	switch {
	case inFile != "":
		data, err := os.ReadFile(inFile)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", inFile, err)
		}
		return string(data), nil
	case inURL != "":
		if verbose {
			fmt.Fprintf(os.Stderr, "Fetching: %s\n", inURL)
		}
		return fetch.New(cfg.HTTP).FetchText(ctx, inURL)
	default:
		return args[0], nil
	}
}

func firstLine(text string) string {
	line := strings.TrimSpace(text)
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	if len(line) > 120 {
		line = line[:120]
	}
	return strings.TrimSpace(line)
}
