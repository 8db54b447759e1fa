package usecase

import (
	"testing"
	"time"

	"ragstore/internal/adapter/cache"
	"ragstore/internal/adapter/docstore"
	"ragstore/internal/adapter/embedding"
	"ragstore/internal/domain"
)

func newTestRetriever(t *testing.T) (*Retriever, *docstore.Store) {
	t.Helper()
	store := docstore.NewStore(embedding.NewHashedEmbedder(256))
	return NewRetriever(store), store
}

func seedMLCorpus(t *testing.T, r *Retriever) {
	t.Helper()
	err := r.AddDocuments([]domain.Document{
		{ID: "ml1", Content: "Machine learning models are trained on labeled data", Metadata: map[string]any{"topic": "ml"}},
		{ID: "ml2", Content: "Neural networks consist of layers of connected neurons", Metadata: map[string]any{"topic": "dl"}},
		{ID: "ml3", Content: "Gradient descent minimizes the training loss function", Metadata: map[string]any{"topic": "opt"}},
		{ID: "ml4", Content: "Transformers use attention to process token sequences", Metadata: map[string]any{"topic": "nlp"}},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestRetrieveDefaults(t *testing.T) {
	r, _ := newTestRetriever(t)
	for i := 0; i < 10; i++ {
		if err := r.AddDocuments([]domain.Document{
			{ID: string(rune('a' + i)), Content: "shared corpus words here"},
		}); err != nil {
			t.Fatal(err)
		}
	}

	ctx, err := r.Retrieve("shared corpus words", RetrieveOptions{})
	if err != nil {
		t.Fatal(err)
	}

	if len(ctx.Documents) != DefaultTopK {
		t.Errorf("expected default topK=%d results, got %d", DefaultTopK, len(ctx.Documents))
	}
	if ctx.Query != "shared corpus words" {
		t.Errorf("context must carry the original query, got %q", ctx.Query)
	}
	if ctx.TotalCount != len(ctx.Documents) {
		t.Errorf("totalCount %d != documents %d", ctx.TotalCount, len(ctx.Documents))
	}
	if ctx.RetrievalTime < 0 {
		t.Errorf("retrieval time must be >= 0, got %d", ctx.RetrievalTime)
	}
	for _, doc := range ctx.Documents {
		if doc.Metadata != nil {
			t.Error("metadata must be stripped by default")
		}
	}
}

func TestRetrieveThreshold(t *testing.T) {
	r, _ := newTestRetriever(t)
	seedMLCorpus(t, r)

	ctx, err := r.Retrieve("unrelated query about food recipes", RetrieveOptions{
		TopK:                10,
		SimilarityThreshold: 0.9,
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, doc := range ctx.Documents {
		if doc.Similarity < 0.9 {
			t.Errorf("document %s below threshold: %f", doc.ID, doc.Similarity)
		}
	}
	if len(ctx.Documents) > 1 {
		t.Errorf("expected zero or very few results for an off-topic high-threshold query, got %d", len(ctx.Documents))
	}
}

func TestRetrieveRanksContiguousAfterFilter(t *testing.T) {
	r, _ := newTestRetriever(t)
	err := r.AddDocuments([]domain.Document{
		{ID: "exact", Content: "alpha beta gamma"},
		{ID: "partial", Content: "alpha unrelated filler words"},
		{ID: "far", Content: "totally different content"},
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, err := r.Retrieve("alpha beta gamma", RetrieveOptions{
		TopK:                10,
		SimilarityThreshold: 0.4,
		SearchMethod:        domain.SearchSemantic,
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(ctx.Documents) == 0 {
		t.Fatal("expected at least the exact match to pass the threshold")
	}
	for i, doc := range ctx.Documents {
		if doc.Rank != i+1 {
			t.Errorf("rank gap after filtering: position %d has rank %d", i, doc.Rank)
		}
	}
}

func TestRetrieveIncludeMetadata(t *testing.T) {
	r, _ := newTestRetriever(t)
	seedMLCorpus(t, r)

	ctx, err := r.Retrieve("machine learning training", RetrieveOptions{
		TopK:            2,
		IncludeMetadata: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(ctx.Documents) == 0 {
		t.Fatal("expected results")
	}
	for _, doc := range ctx.Documents {
		if doc.Metadata == nil {
			t.Errorf("expected metadata on %s", doc.ID)
		}
	}
}

func TestRetrieveKeywordMethod(t *testing.T) {
	r, _ := newTestRetriever(t)
	err := r.AddDocuments([]domain.Document{
		{ID: "doc1", Content: "The cat sat on the mat"},
		{ID: "doc2", Content: "A dog played in the park"},
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, err := r.Retrieve("cat", RetrieveOptions{TopK: 10, SearchMethod: domain.SearchKeyword})
	if err != nil {
		t.Fatal(err)
	}

	if len(ctx.Documents) != 1 || ctx.Documents[0].ID != "doc1" {
		t.Errorf("expected only doc1 for keyword 'cat', got %v", ctx.Documents)
	}
}

func TestRetrieveUnknownMethod(t *testing.T) {
	r, _ := newTestRetriever(t)

	if _, err := r.Retrieve("q", RetrieveOptions{SearchMethod: "fuzzy"}); err == nil {
		t.Error("expected error for unknown search method")
	}
}

func TestHybridSurfacesBothSignals(t *testing.T) {
	r, _ := newTestRetriever(t)

	// lexical: every query token present verbatim, but diluted for cosine.
	// stemmed: punctuation breaks whitespace tokens, so keyword scores it
	// zero while the embedder still matches its terms.
	err := r.AddDocuments([]domain.Document{
		{ID: "lexical", Content: "cat sat mat among very many other unrelated diluting filler words spread throughout the body"},
		{ID: "stemmed", Content: "cat, sat; mat."},
		{ID: "noise1", Content: "completely disjoint subject one"},
		{ID: "noise2", Content: "another disjoint subject two"},
	})
	if err != nil {
		t.Fatal(err)
	}

	semantic, err := r.Retrieve("cat sat mat", RetrieveOptions{TopK: 1, SearchMethod: domain.SearchSemantic})
	if err != nil {
		t.Fatal(err)
	}
	keyword, err := r.Retrieve("cat sat mat", RetrieveOptions{TopK: 1, SearchMethod: domain.SearchKeyword})
	if err != nil {
		t.Fatal(err)
	}

	if semantic.Documents[0].ID != "stemmed" {
		t.Fatalf("expected semantic top-1 to be 'stemmed', got %s", semantic.Documents[0].ID)
	}
	if keyword.Documents[0].ID != "lexical" {
		t.Fatalf("expected keyword top-1 to be 'lexical', got %s", keyword.Documents[0].ID)
	}

	hybrid, err := r.Retrieve("cat sat mat", RetrieveOptions{TopK: 2, SearchMethod: domain.SearchHybrid})
	if err != nil {
		t.Fatal(err)
	}

	found := map[string]bool{}
	for _, doc := range hybrid.Documents {
		found[doc.ID] = true
	}
	if !found["lexical"] || !found["stemmed"] {
		t.Errorf("hybrid must surface both signals in top-2, got %v", hybrid.Documents)
	}
	for i := 1; i < len(hybrid.Documents); i++ {
		if hybrid.Documents[i].Similarity > hybrid.Documents[i-1].Similarity {
			t.Error("hybrid results not sorted by non-increasing similarity")
		}
	}
	for i, doc := range hybrid.Documents {
		if doc.Rank != i+1 {
			t.Errorf("hybrid rank gap at %d: %d", i, doc.Rank)
		}
		if doc.Similarity < 0 || doc.Similarity > 1 {
			t.Errorf("hybrid similarity out of [0,1]: %f", doc.Similarity)
		}
	}
}

func TestHybridDeduplicatesByID(t *testing.T) {
	r, _ := newTestRetriever(t)
	err := r.AddDocuments([]domain.Document{
		{ID: "both", Content: "cat mat"},
		{ID: "other", Content: "dog park"},
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, err := r.Retrieve("cat mat", RetrieveOptions{TopK: 10, SearchMethod: domain.SearchHybrid})
	if err != nil {
		t.Fatal(err)
	}

	seen := map[string]int{}
	for _, doc := range ctx.Documents {
		seen[doc.ID]++
	}
	if seen["both"] != 1 {
		t.Errorf("expected 'both' exactly once in fused results, got %d", seen["both"])
	}
}

func TestPassThroughsShareStoreState(t *testing.T) {
	r, store := newTestRetriever(t)

	if err := r.AddDocuments([]domain.Document{{ID: "doc1", Content: "hello"}}); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.GetDocument("doc1"); !ok {
		t.Error("add through retriever must be visible on the store")
	}

	if !r.RemoveDocument("doc1") {
		t.Error("expected removal to succeed")
	}
	if _, ok := store.GetDocument("doc1"); ok {
		t.Error("removal through retriever must be visible on the store")
	}
	if r.RemoveDocument("doc1") {
		t.Error("expected false for already-removed id")
	}

	if err := store.AddDocument(domain.Document{ID: "direct", Content: "direct write"}); err != nil {
		t.Fatal(err)
	}
	if got := r.Stats().DocumentCount; got != store.Count() {
		t.Errorf("stats %d must equal store count %d", got, store.Count())
	}
}

func TestRetrieveEmptyStore(t *testing.T) {
	r, _ := newTestRetriever(t)

	ctx, err := r.Retrieve("anything", RetrieveOptions{TopK: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(ctx.Documents) != 0 || ctx.TotalCount != 0 {
		t.Errorf("expected empty context on empty store, got %v", ctx)
	}
}

func TestHybridCacheReflectsWeightChange(t *testing.T) {
	corpus := []domain.Document{
		{ID: "lexical", Content: "cat sat mat among very many other unrelated diluting filler words spread throughout the body"},
		{ID: "noise", Content: "completely disjoint subject"},
	}

	r, _ := newTestRetriever(t)
	r.SetCache(cache.NewRetrievalCache(10, time.Minute))
	if err := r.AddDocuments(corpus); err != nil {
		t.Fatal(err)
	}

	opts := RetrieveOptions{TopK: 5, SearchMethod: domain.SearchHybrid}
	before, err := r.Retrieve("cat sat mat", opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(before.Documents) == 0 {
		t.Fatal("expected results")
	}

	r.SetSemanticWeight(0.1)
	after, err := r.Retrieve("cat sat mat", opts)
	if err != nil {
		t.Fatal(err)
	}

	// An identical retriever that never cached at the old weight gives the
	// scores the cached path must now match.
	fresh, _ := newTestRetriever(t)
	fresh.SetSemanticWeight(0.1)
	if err := fresh.AddDocuments(corpus); err != nil {
		t.Fatal(err)
	}
	want, err := fresh.Retrieve("cat sat mat", opts)
	if err != nil {
		t.Fatal(err)
	}

	if after.Documents[0].Similarity == before.Documents[0].Similarity {
		t.Errorf("weight change must rescore fused results, still %f", after.Documents[0].Similarity)
	}
	if after.Documents[0].Similarity != want.Documents[0].Similarity {
		t.Errorf("cached path diverged from fresh scoring at the same weight: %f != %f",
			after.Documents[0].Similarity, want.Documents[0].Similarity)
	}
}

func TestRetrieveCacheInvalidatesOnWrite(t *testing.T) {
	r, store := newTestRetriever(t)
	r.SetCache(cache.NewRetrievalCache(10, time.Minute))

	if err := r.AddDocuments([]domain.Document{{ID: "doc1", Content: "cat mat"}}); err != nil {
		t.Fatal(err)
	}

	first, err := r.Retrieve("cat", RetrieveOptions{TopK: 5, SearchMethod: domain.SearchKeyword})
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Documents) != 1 {
		t.Fatalf("expected 1 result, got %d", len(first.Documents))
	}

	// Cached repeat returns the same documents.
	second, err := r.Retrieve("cat", RetrieveOptions{TopK: 5, SearchMethod: domain.SearchKeyword})
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Documents) != 1 || second.Documents[0].ID != "doc1" {
		t.Errorf("cached retrieve diverged: %v", second.Documents)
	}

	// A direct store write must invalidate the cached entry.
	if err := store.AddDocument(domain.Document{ID: "doc2", Content: "cat nap"}); err != nil {
		t.Fatal(err)
	}

	third, err := r.Retrieve("cat", RetrieveOptions{TopK: 5, SearchMethod: domain.SearchKeyword})
	if err != nil {
		t.Fatal(err)
	}
	if len(third.Documents) != 2 {
		t.Errorf("expected stale cache entry discarded after write, got %d results", len(third.Documents))
	}
}
