package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reqclarity/reqclarity/internal/model"
)

var lexOwner string

// lexiconCmd groups lexicon management subcommands
var lexiconCmd = &cobra.Command{
	Use:   "lexicon",
	Short: "Manage the ambiguity lexicon",
	Long: `Manage the ambiguity lexicon used for exact-match detection.

The effective lexicon for an owner is the global set plus the owner's
custom included terms, minus the owner's excluded terms. Exclusion always
wins over inclusion.`,
}

var lexiconListCmd = &cobra.Command{
	Use:   "list",
	Short: "List lexicon entries visible to the owner scope",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine(loadConfig())
		if err != nil {
			return err
		}
		defer eng.Close()

		entries, err := eng.lexicon.Entries(lexOwner)
		if err != nil {
			return fmt.Errorf("list lexicon: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TERM\tTYPE\tCATEGORY\tOWNER")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Term, e.Type, e.Category, e.OwnerID)
		}
		return w.Flush()
	},
}

var lexiconAddCmd = &cobra.Command{
	Use:   "add <term>",
	Short: "Add a custom ambiguous term for the owner scope",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine(loadConfig())
		if err != nil {
			return err
		}
		defer eng.Close()

		if err := eng.lexicon.AddInclude(args[0], lexOwner); err != nil {
			return fmt.Errorf("add term: %w", err)
		}
		fmt.Printf("Added %q to the lexicon for owner %q\n", args[0], lexOwner)
		return nil
	},
}

var lexiconExcludeCmd = &cobra.Command{
	Use:   "exclude <term>",
	Short: "Exclude a term from detection for the owner scope",
	Long: `Exclude suppresses a term for this owner even when the global
lexicon contains it. Use it for domain vocabulary that is precise in
your context (e.g. "robust" in a statistics project).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine(loadConfig())
		if err != nil {
			return err
		}
		defer eng.Close()

		if err := eng.lexicon.AddExclude(args[0], lexOwner); err != nil {
			return fmt.Errorf("exclude term: %w", err)
		}
		fmt.Printf("Excluded %q from detection for owner %q\n", args[0], lexOwner)
		return nil
	},
}

var lexiconRemoveCmd = &cobra.Command{
	Use:   "remove <term>",
	Short: "Remove a custom included or excluded term",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine(loadConfig())
		if err != nil {
			return err
		}
		defer eng.Close()

		entryType := model.LexiconCustomInclude
		if excluded, _ := cmd.Flags().GetBool("excluded"); excluded {
			entryType = model.LexiconCustomExclude
		}
		if err := eng.lexicon.Remove(args[0], entryType, lexOwner); err != nil {
			return fmt.Errorf("remove term: %w", err)
		}
		fmt.Printf("Removed %q (%s) for owner %q\n", args[0], entryType, lexOwner)
		return nil
	},
}

var lexiconSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the global lexicon with the default term set",
	Long:  `Insert the curated default ambiguous terms. Safe to run repeatedly: existing entries are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// buildEngine seeds on open; report the count explicitly here
		eng, err := buildEngine(loadConfig())
		if err != nil {
			return err
		}
		defer eng.Close()

		n, err := eng.store.CountLexicon()
		if err != nil {
			return fmt.Errorf("count lexicon: %w", err)
		}
		fmt.Printf("Lexicon ready: %d entries\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lexiconCmd)

	lexiconCmd.PersistentFlags().StringVar(&lexOwner, "owner", "", "owner scope for custom entries")

	lexiconRemoveCmd.Flags().Bool("excluded", false, "remove an excluded term instead of an included one")

	lexiconCmd.AddCommand(lexiconListCmd)
	lexiconCmd.AddCommand(lexiconAddCmd)
	lexiconCmd.AddCommand(lexiconExcludeCmd)
	lexiconCmd.AddCommand(lexiconRemoveCmd)
	lexiconCmd.AddCommand(lexiconSeedCmd)
}
