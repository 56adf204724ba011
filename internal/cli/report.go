package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/reqclarity/reqclarity/internal/model"
)

var (
	reportOwner string
	reportJSON  string
	reportMD    string
	retryLLM    bool
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report <analysis-id>",
	Short: "Show a saved ambiguity analysis",
	Long: `Report renders a previously saved analysis with all flagged terms,
their judgments, suggestions, and clarification state.

With --retry-llm a lexicon-only analysis is re-run through the configured
LLM backend and replaced.

Example:
  reqclarity report 7
  reqclarity report 7 --md report.md --json report.json
  reqclarity report 7 --retry-llm --llm-provider ollama`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportOwner, "owner", "", "owner scope")
	reportCmd.Flags().StringVar(&reportJSON, "json", "", "output JSON path (optional)")
	reportCmd.Flags().StringVar(&reportMD, "md", "", "output Markdown path (optional)")
	reportCmd.Flags().BoolVar(&retryLLM, "retry-llm", false, "re-run the analysis with the LLM backend")
	reportCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider for --retry-llm (openai, ollama)")
	reportCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model for --retry-llm")
}

func runReport(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid analysis id %q", args[0])
	}

	cfg := loadConfig()
	if retryLLM {
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
	if retryLLM {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		analysis, err = eng.pipe.RetryWithLLM(ctx, id, reportOwner)
	} else {
		analysis, err = eng.store.GetAnalysis(id, reportOwner)
	}
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNotFound):
			return fmt.Errorf("analysis %d not found", id)
		case errors.Is(err, model.ErrAccessDenied):
			return fmt.Errorf("analysis %d does not belong to owner %q", id, reportOwner)
		case errors.Is(err, model.ErrBackendUnavailable):
			return fmt.Errorf("no LLM backend configured; set --llm-provider or the config file")
		default:
			return fmt.Errorf("report failed: %w", err)
		}
	}

	if reportJSON != "" {
		if err := eng.renderer.RenderJSON(analysis, reportJSON); err != nil {
			return err
		}
	}
	if reportMD != "" {
		if err := eng.renderer.RenderMarkdown(analysis, reportMD); err != nil {
			return err
		}
	}
	if reportJSON == "" && reportMD == "" {
		return eng.renderer.RenderMarkdown(analysis, "")
	}
	eng.renderer.RenderSummary(analysis)
	return nil
}
