package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"ragstore/config"
	"ragstore/internal/adapter/docstore"
	"ragstore/internal/adapter/embedding"
	"ragstore/internal/adapter/snapshot"
	"ragstore/internal/domain"
	"ragstore/internal/port"
	"ragstore/internal/usecase"
)

// setupEmbedder creates the embedder selected by config.
func setupEmbedder(cfg *config.Config) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "", "hashed":
		return embedding.NewHashedEmbedder(cfg.Store.EmbeddingDimension), nil
	case "openai":
		return embedding.NewOpenAIEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model)
	case "ollama":
		return embedding.NewOllamaEmbedder(cfg.Embedding.Model, cfg.Embedding.BaseURL)
	}
	return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
}

func main() {
	corpusPath := flag.String("dir", ".", "Path to ingested corpus directory")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 10, "Number of results")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -dir ./corpus -q \"query\"")
		fmt.Println("\nTests:")
		fmt.Println("  1. Corpus rehydration (snapshot load, embedding)")
		fmt.Println("  2. Retrieval latency per search method")
		fmt.Println("  3. Result agreement between methods")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*corpusPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	snap, err := snapshot.Open(cfg.SnapshotPath(*corpusPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening corpus: %v\n", err)
		os.Exit(1)
	}
	docs, err := snap.Load()
	snap.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading corpus: %v\n", err)
		os.Exit(1)
	}

	embedder, err := setupEmbedder(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedder not available: %v\n", err)
		os.Exit(1)
	}
	store := docstore.NewStore(embedder)

	loadStart := time.Now()
	if err := store.AddDocuments(docs); err != nil {
		fmt.Fprintf(os.Stderr, "Error rehydrating corpus: %v\n", err)
		os.Exit(1)
	}
	loadTime := time.Since(loadStart)

	retriever := usecase.NewRetriever(store)
	retriever.SetSemanticWeight(cfg.Retrieve.SemanticWeight)

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Documents:  %d (embedded in %v)\n", store.Count(), loadTime.Round(time.Millisecond))
	fmt.Printf("Model:      %s\n", embedder.ModelName())
	fmt.Printf("Dimension:  %d\n", embedder.Dimension())
	fmt.Println()
	fmt.Printf("Query: %q\n", *query)

	methods := []domain.SearchMethod{domain.SearchSemantic, domain.SearchKeyword, domain.SearchHybrid}
	resultsByMethod := make(map[domain.SearchMethod]domain.RetrievedContext, len(methods))

	for _, method := range methods {
		fmt.Println(strings.Repeat("-", 70))
		fmt.Printf("Method: %s\n\n", method)

		ctx, err := retriever.Retrieve(*query, usecase.RetrieveOptions{
			TopK:         *topK,
			SearchMethod: method,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
			os.Exit(1)
		}
		resultsByMethod[method] = ctx

		fmt.Printf("%d result(s) in %dms\n", ctx.TotalCount, ctx.RetrievalTime)
		for _, doc := range ctx.Documents {
			preview := strings.ReplaceAll(doc.Content, "\n", " ")
			if len(preview) > 120 {
				preview = preview[:120] + "..."
			}
			fmt.Printf("%d. [%.3f] %s\n", doc.Rank, doc.Similarity, doc.ID)
			fmt.Printf("   %s\n", preview)
		}
	}

	fmt.Println(strings.Repeat("=", 70))
	fmt.Println("METHOD AGREEMENT:")
	semantic := resultsByMethod[domain.SearchSemantic]
	keyword := resultsByMethod[domain.SearchKeyword]
	hybrid := resultsByMethod[domain.SearchHybrid]
	fmt.Printf("  semantic/keyword overlap: %d\n", overlap(semantic, keyword))
	fmt.Printf("  semantic/hybrid overlap:  %d\n", overlap(semantic, hybrid))
	fmt.Printf("  keyword/hybrid overlap:   %d\n", overlap(keyword, hybrid))
}

func overlap(a, b domain.RetrievedContext) int {
	seen := make(map[string]bool, len(a.Documents))
	for _, doc := range a.Documents {
		seen[doc.ID] = true
	}
	n := 0
	for _, doc := range b.Documents {
		if seen[doc.ID] {
			n++
		}
	}
	return n
}
