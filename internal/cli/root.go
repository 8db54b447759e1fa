package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"ragstore/config"
	"ragstore/internal/adapter/cache"
	"ragstore/internal/adapter/docstore"
	"ragstore/internal/adapter/embedding"
	"ragstore/internal/adapter/snapshot"
	"ragstore/internal/port"
	"ragstore/internal/usecase"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "ragstore",
	Short: "In-memory RAG document store and retriever",
	Long: `ragstore keeps a corpus of text documents, searches it with semantic,
keyword, or hybrid retrieval, and assembles retrieved context into
model-ready prompts.

Example usage:
  ragstore ingest ./docs              # Snapshot a directory of text files
  ragstore query -q "vector search"   # Retrieve ranked context
  ragstore prompt -q "how does X work?"  # Print an augmented prompt`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./ragstore.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "corpus directory (default is current directory)")
}

// newEmbedder creates the embedder selected by config.
func newEmbedder(cfg *config.Config) (port.Embedder, error) {
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

// openRetriever rehydrates the snapshotted corpus into a fresh in-memory
// store and wraps it in a configured retriever.
func openRetriever() (*usecase.Retriever, *docstore.Store, error) {
	snapPath := cfg.SnapshotPath(rootDir)
	if _, err := os.Stat(snapPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("no corpus found. Run 'ragstore ingest' first")
	}

	snap, err := snapshot.Open(snapPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open corpus snapshot: %w", err)
	}
	defer snap.Close()

	docs, err := snap.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load corpus snapshot: %w", err)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}

	store := docstore.NewStore(embedder)
	if err := store.AddDocuments(docs); err != nil {
		return nil, nil, fmt.Errorf("failed to rehydrate corpus: %w", err)
	}

	retriever := usecase.NewRetriever(store)
	retriever.SetSemanticWeight(cfg.Retrieve.SemanticWeight)
	if cfg.Retrieve.CacheSize > 0 {
		ttl := time.Duration(cfg.Retrieve.CacheTTLSeconds) * time.Second
		retriever.SetCache(cache.NewRetrievalCache(cfg.Retrieve.CacheSize, ttl))
	}

	return retriever, store, nil
}
