package port

import "ragstore/internal/domain"

// Searcher is the raw search surface of a document store.
type Searcher interface {
	// Search scores every stored document against the query embedding and
	// returns the top-k by descending cosine similarity.
	Search(query string, topK int) ([]domain.RetrievedDocument, error)

	// SearchKeyword scores documents by lexical term overlap with the query
	// and returns the top-k, excluding zero-score documents.
	SearchKeyword(query string, topK int) ([]domain.RetrievedDocument, error)
}
