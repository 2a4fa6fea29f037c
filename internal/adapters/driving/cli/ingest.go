package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/insight-labs/harvester/internal/core/domain"
	"github.com/insight-labs/harvester/internal/core/ports/driving"
	"github.com/insight-labs/harvester/internal/logger"
	"github.com/insight-labs/harvester/internal/normalisers/markdown"
)

// watchDebounce batches rapid editor save events per file.
const watchDebounce = 500 * time.Millisecond

var ingestWatch bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Ingest markdown files into the search index",
	Long: `Walks the directory for markdown files, fingerprints each one and
embeds any that are new or changed. Unchanged files are skipped.

With --watch, stays running and re-ingests files as they change.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "watch the directory and re-ingest on change")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	dir := contentDir()
	if len(args) > 0 {
		dir = args[0]
	}

	ingestor, err := newIngestService()
	if err != nil {
		return err
	}

	summary, err := ingestor.IngestDir(cmd.Context(), dir)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", dir, err)
	}
	printSummary(cmd, summary)

	if !ingestWatch {
		return nil
	}
	return watchDir(cmd, ingestor, dir)
}

func printSummary(cmd *cobra.Command, summary *domain.IngestSummary) {
	cmd.Printf("Processed %d files: %d ingested, %d skipped, %d failed\n",
		summary.Total, summary.Ingested, summary.Skipped, summary.Failed)
}

// watchDir re-ingests markdown files as they change, debounced per path.
func watchDir(cmd *cobra.Command, ingestor driving.Ingestor, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	cmd.Printf("Watching %s for changes...\n", dir)

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	pending := make(map[string]bool)

	for {
		select {
		case <-cmd.Context().Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			// New subdirectories need their own watch
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if err := addWatchDirs(watcher, event.Name); err != nil {
					logger.Warn("watch %s: %v", event.Name, err)
				}
				continue
			}

			if !strings.EqualFold(filepath.Ext(event.Name), ".md") {
				continue
			}
			pending[event.Name] = true
			timer.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)

		case <-timer.C:
			for path := range pending {
				ingestFile(cmd, ingestor, path)
			}
			pending = make(map[string]bool)
		}
	}
}

// ingestFile reads and ingests a single markdown file.
func ingestFile(cmd *cobra.Command, ingestor driving.Ingestor, path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("read %s: %v", path, err)
		return
	}

	result := ingestor.Ingest(cmd.Context(), markdown.Normalise(string(raw), path))
	if result.Err != nil {
		cmd.PrintErrf("Failed: %s: %v\n", path, result.Err)
		return
	}
	cmd.Printf("%s: %s\n", result.Outcome, path)
}

// addWatchDirs registers dir and its subdirectories with the watcher.
func addWatchDirs(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
