package usecase

import (
	"fmt"
	"sort"
	"time"

	"ragstore/internal/adapter/cache"
	"ragstore/internal/adapter/docstore"
	"ragstore/internal/domain"
)

// DefaultTopK is the result count used when options leave TopK unset.
const DefaultTopK = 5

// defaultSemanticWeight is the fixed hybrid fusion weight: combined score =
// w*semantic + (1-w)*keyword. Equal weighting favors recall across both
// signals.
const defaultSemanticWeight = 0.5

// RetrieveOptions shapes a single retrieve call. The zero value means
// "all defaults": TopK 5, no similarity floor, metadata stripped,
// semantic search.
type RetrieveOptions struct {
	TopK                int
	SimilarityThreshold float64
	IncludeMetadata     bool
	SearchMethod        domain.SearchMethod
}

// Retriever turns a raw query into a ranked, formatted context. It holds a
// reference to the caller-owned store and never duplicates document state:
// a removal through the store is immediately visible here and vice versa.
type Retriever struct {
	store          *docstore.Store
	semanticWeight float64
	cache          *cache.RetrievalCache // optional
}

// NewRetriever creates a Retriever over the given store.
func NewRetriever(store *docstore.Store) *Retriever {
	return &Retriever{
		store:          store,
		semanticWeight: defaultSemanticWeight,
	}
}

// SetSemanticWeight overrides the hybrid fusion weight. Values outside (0,1)
// are ignored.
func (r *Retriever) SetSemanticWeight(w float64) {
	if w > 0 && w < 1 {
		r.semanticWeight = w
	}
}

// SetCache enables result caching. Entries are keyed on query, options, and
// the hybrid fusion weight, and tied to the store generation, so any document
// mutation or weight change invalidates.
func (r *Retriever) SetCache(c *cache.RetrievalCache) {
	r.cache = c
}

// Retrieve searches by the configured method, filters by the similarity
// threshold, and returns a ranked context.
func (r *Retriever) Retrieve(query string, opts RetrieveOptions) (domain.RetrievedContext, error) {
	start := time.Now()

	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	method := opts.SearchMethod
	if method == "" {
		method = domain.SearchSemantic
	}

	var key string
	var gen uint64
	if r.cache != nil {
		key = cache.Key(query, method, topK, opts.SimilarityThreshold, opts.IncludeMetadata, r.semanticWeight)
		gen = r.store.Generation()
		if docs, hit := r.cache.Get(key, gen); hit {
			return buildContext(query, docs, start), nil
		}
	}

	var docs []domain.RetrievedDocument
	var err error

	switch method {
	case domain.SearchSemantic:
		docs, err = r.store.Search(query, topK)
	case domain.SearchKeyword:
		docs, err = r.store.SearchKeyword(query, topK)
	case domain.SearchHybrid:
		docs, err = r.searchHybrid(query, topK)
	default:
		return domain.RetrievedContext{}, fmt.Errorf("unknown search method: %s", method)
	}
	if err != nil {
		return domain.RetrievedContext{}, err
	}

	// Filter strictly-below-threshold results, then reassign contiguous
	// ranks so filtered-out items leave no gaps.
	filtered := docs[:0]
	for _, doc := range docs {
		if doc.Similarity < opts.SimilarityThreshold {
			continue
		}
		if !opts.IncludeMetadata {
			doc.Metadata = nil
		}
		doc.Rank = len(filtered) + 1
		filtered = append(filtered, doc)
	}

	if r.cache != nil {
		r.cache.Put(key, gen, filtered)
	}

	return buildContext(query, filtered, start), nil
}

// searchHybrid runs both raw searches with a pool of topK candidates each
// and fuses them by a fixed weighted score sum, deduplicating by ID. Ties
// fall back to the store's insertion order, as in the raw searches.
func (r *Retriever) searchHybrid(query string, topK int) ([]domain.RetrievedDocument, error) {
	semantic, err := r.store.Search(query, topK)
	if err != nil {
		return nil, err
	}
	keyword, err := r.store.SearchKeyword(query, topK)
	if err != nil {
		return nil, err
	}

	type fusedDoc struct {
		doc      domain.RetrievedDocument
		semantic float64
		keyword  float64
		seq      uint64
	}

	fused := make(map[string]*fusedDoc)
	for _, doc := range semantic {
		seq, _ := r.store.Sequence(doc.ID)
		fused[doc.ID] = &fusedDoc{doc: doc, semantic: doc.Similarity, seq: seq}
	}
	for _, doc := range keyword {
		if f, ok := fused[doc.ID]; ok {
			f.keyword = doc.Similarity
			if f.doc.Metadata == nil {
				f.doc.Metadata = doc.Metadata
			}
			continue
		}
		seq, _ := r.store.Sequence(doc.ID)
		fused[doc.ID] = &fusedDoc{doc: doc, keyword: doc.Similarity, seq: seq}
	}

	results := make([]fusedDoc, 0, len(fused))
	for _, f := range fused {
		f.doc.Similarity = r.semanticWeight*f.semantic + (1-r.semanticWeight)*f.keyword
		results = append(results, *f)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].doc.Similarity != results[j].doc.Similarity {
			return results[i].doc.Similarity > results[j].doc.Similarity
		}
		return results[i].seq < results[j].seq
	})

	if len(results) > topK {
		results = results[:topK]
	}

	docs := make([]domain.RetrievedDocument, len(results))
	for i, f := range results {
		f.doc.Rank = i + 1
		docs[i] = f.doc
	}
	return docs, nil
}

func buildContext(query string, docs []domain.RetrievedDocument, start time.Time) domain.RetrievedContext {
	elapsed := time.Since(start).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	return domain.RetrievedContext{
		Query:         query,
		Documents:     docs,
		TotalCount:    len(docs),
		RetrievalTime: elapsed,
	}
}

// AddDocuments passes through to the underlying store.
func (r *Retriever) AddDocuments(docs []domain.Document) error {
	return r.store.AddDocuments(docs)
}

// RemoveDocument passes through to the underlying store.
func (r *Retriever) RemoveDocument(id string) bool {
	return r.store.DeleteDocument(id)
}

// RetrieverStats reports on the underlying store.
type RetrieverStats struct {
	DocumentCount int
}

// Stats always reflects the store's current count; there is no independent
// counter to go stale.
func (r *Retriever) Stats() RetrieverStats {
	return RetrieverStats{DocumentCount: r.store.Count()}
}
