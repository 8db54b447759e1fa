package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var promptQuery string

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print a context-augmented prompt for a query",
	Long: `Retrieve context for the query and print the assembled prompt:
the formatted context block, a grounding instruction, then the query.

Examples:
  ragstore prompt -q "How does the retry logic work?"
  ragstore prompt -q "deployment steps" --method keyword`,
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVarP(&promptQuery, "query", "q", "", "query to augment (required)")
	promptCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of context documents (default from config)")
	promptCmd.Flags().StringVar(&queryMethod, "method", "", "search method: semantic, keyword, hybrid (default from config)")
	promptCmd.Flags().Float64Var(&queryThreshold, "threshold", -1, "minimum similarity (default from config)")
	promptCmd.MarkFlagRequired("query")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	retriever, _, err := openRetriever()
	if err != nil {
		return err
	}

	prompt, _, err := retriever.AugmentPrompt(promptQuery, retrieveOptions())
	if err != nil {
		return fmt.Errorf("prompt assembly failed: %w", err)
	}

	fmt.Println(prompt)
	return nil
}
