package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var (
	batchTimeout time.Duration
	batchWorkers int
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <requirement-id>...",
	Short: "Analyze multiple stored requirements in parallel",
	Long: `Batch analyzes stored requirements concurrently:
- Each requirement runs through the full detection pipeline
- A failing requirement is reported and skipped, never aborts the batch
- Results print in the order the ids were given

Example:
  reqclarity batch 1 2 3
  reqclarity batch 1 2 3 --llm --workers 8
  reqclarity batch 4 5 --owner alice --timeout 5m`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "concurrent analyses (0 = config default)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&owner, "owner", "", "owner scope for stored requirements")

	// LLM flags
	batchCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM evaluation and suggestions")
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (provider default when empty)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid requirement id %q", arg)
		}
		ids = append(ids, id)
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg := loadConfig()
	if batchWorkers > 0 {
		cfg.Concurrency.BatchWorkers = batchWorkers
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

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing %d requirement(s) with %d worker(s)\n\n", len(ids), cfg.Concurrency.BatchWorkers)
	}

	results := eng.pipe.AnalyzeBatch(ctx, ids, owner, llmEnabled)

	succeeded := 0
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "✗ requirement %d: %v\n", res.RequirementID, res.Err)
			continue
		}
		succeeded++
		fmt.Printf("requirement %d → ", res.RequirementID)
		eng.renderer.RenderSummary(res.Analysis)
	}

	fmt.Printf("\n%d/%d requirement(s) analyzed\n", succeeded, len(ids))
	if succeeded < len(ids) {
		return fmt.Errorf("%d requirement(s) failed", len(ids)-succeeded)
	}
	return nil
}
