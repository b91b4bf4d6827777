package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jderrod/GrantStationTool/internal/config"
	"github.com/jderrod/GrantStationTool/internal/filter"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	configPath string
	debug      bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "grantstation",
	Short:         "grantstation searches GrantStation's federal grant listings and filters them with saved rules.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(debug)

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to the YAML config file.")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Show extraction and filter traces.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
	log.SetFlags(0)
}

// openStore loads the filter file. A corrupt file is reported and the empty
// store is returned so listing and adding still work.
func openStore() (*filter.Store, error) {
	store, err := filter.Open(cfg.Filters.Path)
	var loadErr *filter.StoreLoadError
	if errors.As(err, &loadErr) {
		log.Printf("[Filters] Warning: %v; starting with no filters (run 'grantstation filters reset' to restore defaults)", err)
		return store, nil
	}
	return store, err
}

// lookupRule returns nil when name is empty.
func lookupRule(store *filter.Store, name string) (*filter.Rule, error) {
	if name == "" {
		return nil, nil
	}
	rule, err := store.Lookup(name)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}
