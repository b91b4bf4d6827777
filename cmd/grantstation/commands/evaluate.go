package commands

import (
	"github.com/jderrod/GrantStationTool/internal/report"
	"github.com/jderrod/GrantStationTool/internal/search"
	"github.com/spf13/cobra"
)

var (
	evaluateInput  string
	evaluateFilter string
	evaluateSave   bool
)

func init() {
	evaluateCmd.Flags().StringVar(&evaluateInput, "input", report.RunFile, "results.json written by 'search --save'.")
	evaluateCmd.Flags().StringVar(&evaluateFilter, "filter", "", "Saved filter to apply; empty keeps everything.")
	evaluateCmd.Flags().BoolVar(&evaluateSave, "save", false, "Write the re-filtered exports to output.dir.")
	rootCmd.AddCommand(evaluateCmd)
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [--input results.json] [--filter <name>]",
	Short: "Re-applies a saved filter to previously scraped results without logging in.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := search.LoadRun(evaluateInput)
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		rule, err := lookupRule(store, evaluateFilter)
		if err != nil {
			return err
		}

		search.NewPipeline(nil, cfg.Evaluator()).Apply(run, rule, debug)

		if err := report.Render(cmd.OutOrStdout(), run, debug); err != nil {
			return err
		}
		if evaluateSave {
			return report.Save(cfg.Output.Dir, run)
		}
		return nil
	},
}
