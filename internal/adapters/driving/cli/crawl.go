package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/insight-labs/harvester/internal/core/domain"
)

var (
	crawlKeywords   []string
	crawlMaxResults int
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl keyword feeds and list discovered articles",
	Long: `Searches the configured feed for each keyword and prints the
discovered article URLs without extracting or ingesting them.
Useful for checking feed credentials and keyword coverage.`,
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().StringSliceVarP(&crawlKeywords, "keyword", "k", nil, "keywords to crawl (default from config)")
	crawlCmd.Flags().IntVar(&crawlMaxResults, "max-results", 0, "max results per keyword (default from config)")
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	feed, err := buildFeed(ctx)
	if err != nil {
		return err
	}

	keywords := crawlKeywords
	if len(keywords) == 0 {
		keywords = cfg.GetStringSlice("search.keywords")
	}
	if len(keywords) == 0 {
		return fmt.Errorf("no keywords configured, set search.keywords or pass --keyword")
	}

	maxResults := crawlMaxResults
	if maxResults == 0 {
		maxResults = cfg.GetInt("search.max_results")
	}

	seen := make(map[string]bool)
	var items []domain.FeedItem
	for _, keyword := range keywords {
		found, err := feed.Search(ctx, keyword, maxResults)
		if err != nil {
			cmd.PrintErrf("Warning: %v\n", err)
			continue
		}
		for _, item := range found {
			if seen[item.URL] {
				continue
			}
			seen[item.URL] = true
			items = append(items, item)
		}
	}

	if len(items) == 0 {
		cmd.Println("No articles found.")
		return nil
	}

	cmd.Printf("Found %d articles:\n\n", len(items))
	for _, item := range items {
		cmd.Printf("  [%s] %s\n      %s\n", item.Keyword, item.Title, item.URL)
	}
	return nil
}
