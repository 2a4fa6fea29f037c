// Package cli implements the harvester command line interface.
//
// Commands are wired against the core services through the driving
// ports; adapter selection (store backend, embedding and LLM provider)
// comes from the TOML config store.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/insight-labs/harvester/internal/adapters/driven/config/file"
	"github.com/insight-labs/harvester/internal/core/ports/driven"
	"github.com/insight-labs/harvester/internal/logger"
)

var (
	// version is stamped by main.
	version = "dev"

	verbose   bool
	configDir string

	// cfg is the loaded configuration, available to all commands.
	cfg driven.ConfigStore
)

var rootCmd = &cobra.Command{
	Use:   "harvester",
	Short: "Harvest, enrich and search technology articles",
	Long: `harvester crawls technology articles for configured keywords,
enriches them with LLM-generated metadata, renders them as markdown
pages and indexes them for embedding-based semantic search.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)

		store, err := file.NewConfigStore(configDir)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = store
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default ~/.harvester)")
}

// Execute runs the CLI with the given version string.
func Execute(v string) {
	version = v

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
