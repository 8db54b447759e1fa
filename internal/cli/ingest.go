package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"ragstore/config"
	"ragstore/internal/adapter/fs"
	"ragstore/internal/adapter/snapshot"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Snapshot a directory of text files as the corpus",
	Long: `Read the text files under the given directory and store them as the
retrieval corpus. The snapshot lives in .ragstore/corpus.db within the
corpus directory; embeddings are computed when the corpus is loaded.

Examples:
  ragstore ingest .               # Ingest the current directory
  ragstore ingest /path/to/notes  # Ingest a specific directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := rootDir
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	if err := config.EnsureDir(path); err != nil {
		return fmt.Errorf("failed to create .ragstore directory: %w", err)
	}

	walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes, cfg.Ingest.MaxFileBytes)

	fmt.Printf("Scanning %s...\n", path)

	var bar *progressbar.ProgressBar
	docs, err := walker.LoadDocuments(path, func(loaded, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		bar.Set(loaded)
	})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	snapPath := cfg.SnapshotPath(path)
	snap, err := snapshot.Open(snapPath)
	if err != nil {
		return fmt.Errorf("failed to open corpus snapshot: %w", err)
	}
	defer snap.Close()

	if err := snap.Save(docs); err != nil {
		return fmt.Errorf("failed to save corpus: %w", err)
	}

	fmt.Printf("\nIngest complete:\n")
	fmt.Printf("  Documents: %d\n", len(docs))
	fmt.Printf("\nCorpus stored at: %s\n", snapPath)
	return nil
}
