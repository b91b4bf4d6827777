package commands

import (
	"fmt"

	"github.com/jderrod/GrantStationTool/internal/filter"
	"github.com/jderrod/GrantStationTool/internal/report"
	"github.com/spf13/cobra"
)

var filterInput filter.RuleInput

func init() {
	flags := filtersAddCmd.Flags()
	flags.StringVar(&filterInput.Name, "name", "", "Filter name (replaces an existing filter with the same name).")
	flags.StringVar(&filterInput.Keywords, "keywords", "", "Comma separated keywords; every keyword must appear.")
	flags.StringVar(&filterInput.MinAmount, "min", "", "Minimum award amount, e.g. 100000 or $100,000.")
	flags.StringVar(&filterInput.MaxAmount, "max", "", "Maximum award amount.")
	flags.StringVar(&filterInput.StartDate, "start", "", "Earliest post date (YYYY-MM-DD).")
	flags.StringVar(&filterInput.EndDate, "end", "", "Latest close date (YYYY-MM-DD).")
	_ = filtersAddCmd.MarkFlagRequired("name")

	filtersCmd.AddCommand(filtersListCmd, filtersAddCmd, filtersRemoveCmd, filtersResetCmd)
	rootCmd.AddCommand(filtersCmd)
}

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Manages saved search filters.",
}

var filtersListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists saved filters.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		rules := make([]filter.Rule, 0, store.Len())
		for _, name := range store.Names() {
			r, _ := store.Get(name)
			rules = append(rules, r)
		}
		report.FilterTable(cmd.OutOrStdout(), rules)
		return nil
	},
}

var filtersAddCmd = &cobra.Command{
	Use:   "add --name <name> [--keywords a,b] [--min n] [--max n] [--start date] [--end date]",
	Short: "Saves a filter.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rule, err := filter.ParseRule(filterInput)
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		if err := store.Add(rule); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved filter %q\n", rule.Name)
		return nil
	},
}

var filtersRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Deletes a saved filter.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		removed, err := store.Remove(args[0])
		if err != nil {
			return err
		}
		if !removed {
			fmt.Fprintf(cmd.OutOrStdout(), "No filter named %q\n", args[0])
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed filter %q\n", args[0])
		return nil
	},
}

var filtersResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Replaces every saved filter with the default set.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := filter.NewStore(cfg.Filters.Path)
		if err := store.Reseed(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %d default filters\n", store.Len())
		return nil
	},
}
