package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	query, err := newQueryService()
	if err != nil {
		return err
	}

	stats, err := query.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	cmd.Printf("Articles:   %d\n", stats.TotalArticles)
	cmd.Printf("Embeddings: %d\n", stats.TotalEmbeddings)
	if !stats.LastUpdated.IsZero() {
		cmd.Printf("Updated:    %s\n", stats.LastUpdated.Format("2006-01-02 15:04:05 UTC"))
	}
	return nil
}
