package cli

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/insight-labs/harvester/internal/core/domain"
)

var (
	searchLimit     int
	searchThreshold float64
	searchJSON      bool
)

// Result rendering styles.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	scoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6E3A1"))

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))

	previewStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CDD6F4")).
			PaddingLeft(6)
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search ingested articles by meaning",
	Long: `Embeds the query and returns articles ranked by cosine similarity.
Results below the similarity threshold are filtered out.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultLimit, "maximum number of results")
	searchCmd.Flags().Float64VarP(&searchThreshold, "threshold", "t", domain.DefaultThreshold, "minimum similarity in [0,1]")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query, err := newQueryService()
	if err != nil {
		return err
	}

	resp, err := query.Search(cmd.Context(), args[0], searchLimit, searchThreshold)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, resp)
	}
	return outputSearchResults(cmd, resp)
}

func outputSearchJSON(cmd *cobra.Command, resp *domain.SearchResponse) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchResults(cmd *cobra.Command, resp *domain.SearchResponse) error {
	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("%d results in %.1fms:\n\n", resp.TotalResults, resp.SearchTimeMS)
	for i, result := range resp.Results {
		title := result.Title
		if title == "" {
			title = result.ID
		}

		cmd.Printf("  [%d] %s %s\n", i+1,
			titleStyle.Render(title),
			scoreStyle.Render(fmt.Sprintf("(%.2f)", result.Similarity)))
		cmd.Printf("      %s\n", pathStyle.Render(result.Path))
		if result.TextPreview != "" {
			cmd.Println(previewStyle.Render(result.TextPreview))
		}
		cmd.Println()
	}
	return nil
}
