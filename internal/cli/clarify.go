package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reqclarity/reqclarity/internal/model"
)

var (
	clarifyAnalysisID int64
	clarifyTermID     int64
	clarifyAction     string
	clarifyOwner      string
)

// clarifyCmd represents the clarify command
var clarifyCmd = &cobra.Command{
	Use:   "clarify <clarified-text>",
	Short: "Resolve a flagged term with clarified wording",
	Long: `Clarify records a resolution for one flagged term of an analysis.

The term moves to clarified, the analysis resolution count and status are
recomputed, and the clarification is kept in history. With --action replace
the term's occurrences in the linked requirement text are replaced with the
clarified wording; --action append adds it as a clarification note.

Example:
  reqclarity clarify "responds within 200ms" --analysis 7 --term 21 --action replace
  reqclarity clarify "99.9%% uptime measured monthly" --analysis 7 --term 22`,
	Args: cobra.ExactArgs(1),
	RunE: runClarify,
}

func init() {
	rootCmd.AddCommand(clarifyCmd)

	clarifyCmd.Flags().Int64Var(&clarifyAnalysisID, "analysis", 0, "analysis id (required)")
	clarifyCmd.Flags().Int64Var(&clarifyTermID, "term", 0, "flagged term id (required)")
	clarifyCmd.Flags().StringVar(&clarifyAction, "action", model.ClarifyActionAppend, "how to apply to the linked requirement: replace or append")
	clarifyCmd.Flags().StringVar(&clarifyOwner, "owner", "", "owner scope")
	_ = clarifyCmd.MarkFlagRequired("analysis")
	_ = clarifyCmd.MarkFlagRequired("term")
}

func runClarify(cmd *cobra.Command, args []string) error {
	if clarifyAction != model.ClarifyActionReplace && clarifyAction != model.ClarifyActionAppend {
		return fmt.Errorf("invalid --action %q: use replace or append", clarifyAction)
	}

	eng, err := buildEngine(loadConfig())
	if err != nil {
		return err
	}
	defer eng.Close()

	analysis, err := eng.store.SubmitClarification(clarifyAnalysisID, clarifyTermID, args[0], clarifyAction, clarifyOwner)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNotFound):
			return fmt.Errorf("analysis %d / term %d not found", clarifyAnalysisID, clarifyTermID)
		case errors.Is(err, model.ErrAccessDenied):
			return fmt.Errorf("analysis %d does not belong to owner %q", clarifyAnalysisID, clarifyOwner)
		default:
			return fmt.Errorf("clarify failed: %w", err)
		}
	}

	eng.renderer.RenderSummary(analysis)
	return nil
}
