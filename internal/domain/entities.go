package domain

// Document is a stored text with its embedding. The store owns the canonical
// copy; values handed back to callers are independent copies.
type Document struct {
	ID        string
	Content   string
	Metadata  map[string]any
	Embedding []float32
}

// DocumentUpdate is a partial update applied by ID. A nil field is left
// untouched; a supplied Content triggers re-embedding.
type DocumentUpdate struct {
	Content  *string
	Metadata map[string]any
}

// RetrievedDocument is a single ranked search result.
type RetrievedDocument struct {
	ID         string
	Content    string
	Metadata   map[string]any
	Similarity float64 // in [0,1]
	Rank       int     // 1-based, contiguous
}

// RetrievedContext is the result of one retrieve call.
type RetrievedContext struct {
	Query         string
	Documents     []RetrievedDocument // descending similarity
	TotalCount    int
	RetrievalTime int64 // elapsed milliseconds
}

// SearchMethod selects the retrieval strategy.
type SearchMethod string

const (
	SearchSemantic SearchMethod = "semantic"
	SearchKeyword  SearchMethod = "keyword"
	SearchHybrid   SearchMethod = "hybrid"
)

// CloneMetadata returns an independent shallow copy of a metadata map.
func CloneMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
