package commands

import (
	"errors"
	"fmt"
	"log"

	"github.com/jderrod/GrantStationTool/internal/ingest"
	"github.com/jderrod/GrantStationTool/internal/report"
	"github.com/jderrod/GrantStationTool/internal/search"
	"github.com/spf13/cobra"
)

var (
	searchURLs   []string
	searchFilter string
	searchSave   bool
)

func init() {
	searchCmd.Flags().StringArrayVar(&searchURLs, "url", nil, "Search results URL to scrape (repeatable).")
	searchCmd.Flags().StringVar(&searchFilter, "filter", "", "Saved filter to apply.")
	searchCmd.Flags().BoolVar(&searchSave, "save", false, "Write filtered_results.txt, all_results.txt and results.json to output.dir.")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search [keyword...] [--url <search url>] [--filter <name>] [--save]",
	Short: "Logs in, scrapes every search URL and shows all and filtered results.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		portal, err := cfg.PortalConfig()
		if err != nil {
			return err
		}

		urls := append([]string{}, searchURLs...)
		for _, keyword := range args {
			urls = append(urls, portal.SearchURL(keyword))
		}
		if len(urls) == 0 {
			return errors.New("give at least one keyword or --url")
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		rule, err := lookupRule(store, searchFilter)
		if err != nil {
			return err
		}

		session, err := ingest.NewSession(portal)
		if err != nil {
			return err
		}
		username, password, credErr := cfg.RequireCredentials()
		if err := session.Ensure(ctx, cfg.Cookies.Path, username, password); err != nil {
			if credErr != nil && errors.Is(err, ingest.ErrInvalidCredentials) {
				return credErr
			}
			return fmt.Errorf("login: %w", err)
		}

		scraper := ingest.NewScraper(portal, session.Jar())
		scraper.Debug = debug

		pipeline := search.NewPipeline(scraper, cfg.Evaluator())
		run, err := pipeline.Run(ctx, search.Request{URLs: urls, Rule: rule, Debug: debug})
		if err != nil {
			return err
		}

		if err := report.Render(cmd.OutOrStdout(), run, debug); err != nil {
			return err
		}

		if searchSave {
			if err := report.Save(cfg.Output.Dir, run); err != nil {
				log.Printf("[Report] Error saving results: %v", err)
				return err
			}
		}
		return nil
	},
}
