package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"ragstore/internal/domain"
	"ragstore/internal/usecase"
)

var (
	queryText      string
	queryTopK      int
	queryMethod    string
	queryThreshold float64
	queryMetadata  bool
	queryJSON      bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Retrieve ranked documents for a query",
	Long: `Search the ingested corpus and print the ranked results.

Examples:
  ragstore query -q "vector similarity"
  ragstore query -q "error handling" --method hybrid --top-k 10 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().StringVar(&queryMethod, "method", "", "search method: semantic, keyword, hybrid (default from config)")
	queryCmd.Flags().Float64Var(&queryThreshold, "threshold", -1, "minimum similarity (default from config)")
	queryCmd.Flags().BoolVar(&queryMetadata, "metadata", false, "include document metadata")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

// retrieveOptions merges config defaults with command-line overrides.
func retrieveOptions() usecase.RetrieveOptions {
	opts := usecase.RetrieveOptions{
		TopK:                cfg.Retrieve.TopK,
		SimilarityThreshold: cfg.Retrieve.SimilarityThreshold,
		IncludeMetadata:     cfg.Retrieve.IncludeMetadata,
		SearchMethod:        domain.SearchMethod(cfg.Retrieve.SearchMethod),
	}
	if queryTopK > 0 {
		opts.TopK = queryTopK
	}
	if queryMethod != "" {
		opts.SearchMethod = domain.SearchMethod(queryMethod)
	}
	if queryThreshold >= 0 {
		opts.SimilarityThreshold = queryThreshold
	}
	if queryMetadata {
		opts.IncludeMetadata = true
	}
	return opts
}

func runQuery(cmd *cobra.Command, args []string) error {
	retriever, _, err := openRetriever()
	if err != nil {
		return err
	}

	ctx, err := retriever.Retrieve(queryText, retrieveOptions())
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if queryJSON {
		output, _ := json.MarshalIndent(resultJSON(ctx), "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(ctx.Documents) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results for: %s (%dms)\n\n", ctx.TotalCount, ctx.Query, ctx.RetrievalTime)
	for _, doc := range ctx.Documents {
		fmt.Printf("--- [%d] %s (similarity: %.2f) ---\n", doc.Rank, doc.ID, doc.Similarity)
		text := doc.Content
		if len(text) > 500 {
			text = text[:500] + "..."
		}
		fmt.Println(text)
		if doc.Metadata != nil {
			fmt.Printf("metadata: %v\n", doc.Metadata)
		}
		fmt.Println()
	}

	return nil
}

// contextJSON is the wire shape of a retrieved context for --json output.
type contextJSON struct {
	Query         string         `json:"query"`
	Documents     []documentJSON `json:"documents"`
	TotalCount    int            `json:"total_count"`
	RetrievalTime int64          `json:"retrieval_time_ms"`
}

type documentJSON struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Similarity float64        `json:"similarity"`
	Rank       int            `json:"rank"`
}

func resultJSON(ctx domain.RetrievedContext) contextJSON {
	out := contextJSON{
		Query:         ctx.Query,
		Documents:     make([]documentJSON, len(ctx.Documents)),
		TotalCount:    ctx.TotalCount,
		RetrievalTime: ctx.RetrievalTime,
	}
	for i, doc := range ctx.Documents {
		out.Documents[i] = documentJSON{
			ID:         doc.ID,
			Content:    doc.Content,
			Metadata:   doc.Metadata,
			Similarity: doc.Similarity,
			Rank:       doc.Rank,
		}
	}
	return out
}
