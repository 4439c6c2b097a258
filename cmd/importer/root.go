package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/samirrijal/sacredsites/internal/adapters/wordpress"
	"github.com/samirrijal/sacredsites/internal/core/domain"
	"github.com/samirrijal/sacredsites/internal/pkg/config"
	"github.com/samirrijal/sacredsites/internal/pkg/logging"
)

var (
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "importer",
	Short:         "Import heritage sites into the directory",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load("sacredsites-importer")
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		logging.Setup(level, cfg.Log.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Import source names, as recorded on events and metrics.
const (
	sourceWordPress = "wordpress"
	sourceFile      = "file"
)

func newWordPressClient(c config.WordPressConfig) (*wordpress.Client, error) {
	return wordpress.New(wordpress.Config{
		BaseURL:           c.BaseURL,
		PostTypes:         c.PostTypes,
		PerPage:           c.PerPage,
		Concurrency:       c.Concurrency,
		RequestsPerSecond: c.RequestsPerSecond,
		Timeout:           time.Duration(c.Timeout) * time.Second,
		Categories:        wordpress.CategoryTable(c.Categories),
		DefaultCategory:   domain.Category(c.DefaultCategory),
	})
}
