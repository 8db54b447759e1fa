package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		retriever, _, err := openRetriever()
		if err != nil {
			return err
		}

		stats := retriever.Stats()
		fmt.Printf("Documents:           %d\n", stats.DocumentCount)
		fmt.Printf("Embedding dimension: %d\n", cfg.Store.EmbeddingDimension)
		fmt.Printf("Snapshot:            %s\n", cfg.SnapshotPath(rootDir))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
