package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	harvestKeywords   []string
	harvestMaxResults int
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Run the full harvest pipeline",
	Long: `Runs the complete pipeline: crawl the configured keywords, extract
article content, enrich it with LLM metadata, write markdown pages and
ingest them into the search index.`,
	RunE: runHarvest,
}

func init() {
	harvestCmd.Flags().StringSliceVarP(&harvestKeywords, "keyword", "k", nil, "keywords to harvest (default from config)")
	harvestCmd.Flags().IntVar(&harvestMaxResults, "max-results", 0, "max results per keyword (default from config)")
	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	harvester, err := newHarvestService(ctx, harvestKeywords, harvestMaxResults)
	if err != nil {
		return err
	}

	report := harvester.Run(ctx)

	cmd.Println("Harvest report:")
	for _, stage := range report.Stages {
		status := "ok"
		if stage.Err != nil {
			status = fmt.Sprintf("failed: %v", stage.Err)
		}
		cmd.Printf("  %-8s items=%d errors=%d %s\n", stage.Stage, stage.Items, stage.Errors, status)
	}
	if report.Ingest != nil {
		cmd.Printf("  ingested=%d skipped=%d failed=%d\n",
			report.Ingest.Ingested, report.Ingest.Skipped, report.Ingest.Failed)
	}

	if report.Failed() {
		return fmt.Errorf("harvest finished with a failed stage")
	}
	return nil
}
