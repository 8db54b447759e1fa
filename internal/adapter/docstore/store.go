package docstore

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"ragstore/internal/adapter/analyzer"
	"ragstore/internal/domain"
	"ragstore/internal/port"
)

// Store is the authoritative in-memory document collection. Embeddings are
// computed on write via the injected Embedder, so every stored document
// always carries a vector of the embedder's dimension. Mutations take the
// write lock and swap whole documents; searches take the read lock, so a
// reader never observes a partially written document.
type Store struct {
	mu        sync.RWMutex
	embedder  port.Embedder
	tokenizer *analyzer.Tokenizer
	docs      map[string]record
	nextSeq   uint64
	gen       uint64
}

var _ port.Searcher = (*Store)(nil)

// record pairs a document with its insertion sequence. The sequence breaks
// score ties (first inserted ranks higher) and survives overwrites.
type record struct {
	doc domain.Document
	seq uint64
}

// NewStore creates an empty store backed by the given embedder.
func NewStore(embedder port.Embedder) *Store {
	return &Store{
		embedder:  embedder,
		tokenizer: analyzer.NewTokenizer(),
		docs:      make(map[string]record),
	}
}

// AddDocument validates, embeds, and inserts the document. An existing ID is
// overwritten entirely: content, metadata, and embedding (no field merge).
// A missing ID is a structural error; empty content is allowed.
func (s *Store) AddDocument(doc domain.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document id is required")
	}

	vecs, err := s.embedder.Embed([]string{doc.Content})
	if err != nil {
		return fmt.Errorf("failed to embed document %s: %w", doc.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.nextSeq
	if existing, ok := s.docs[doc.ID]; ok {
		seq = existing.seq
	} else {
		s.nextSeq++
	}

	s.docs[doc.ID] = record{
		doc: domain.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Metadata:  domain.CloneMetadata(doc.Metadata),
			Embedding: vecs[0],
		},
		seq: seq,
	}
	s.gen++

	return nil
}

// AddDocuments adds each document in input order; a later duplicate ID wins.
// An empty slice is a no-op. The first structural error aborts the batch.
func (s *Store) AddDocuments(docs []domain.Document) error {
	for _, doc := range docs {
		if err := s.AddDocument(doc); err != nil {
			return err
		}
	}
	return nil
}

// GetDocument returns a copy of the stored document, including its
// embedding. The second return is false when the ID is unknown.
func (s *Store) GetDocument(id string) (domain.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.docs[id]
	if !ok {
		return domain.Document{}, false
	}
	return copyDocument(rec.doc), true
}

// UpdateDocument applies the supplied fields to an existing document and
// regenerates the embedding only when Content was supplied. Returns false
// when the ID is unknown; that is not an error.
func (s *Store) UpdateDocument(id string, update domain.DocumentUpdate) (bool, error) {
	// Embed outside the lock; the embedder is pure.
	var newEmbedding []float32
	if update.Content != nil {
		vecs, err := s.embedder.Embed([]string{*update.Content})
		if err != nil {
			return false, fmt.Errorf("failed to embed document %s: %w", id, err)
		}
		newEmbedding = vecs[0]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.docs[id]
	if !ok {
		return false, nil
	}

	if update.Content != nil {
		rec.doc.Content = *update.Content
		rec.doc.Embedding = newEmbedding
	}
	if update.Metadata != nil {
		rec.doc.Metadata = domain.CloneMetadata(update.Metadata)
	}

	s.docs[id] = rec
	s.gen++

	return true, nil
}

// DeleteDocument removes the document. Returns false when the ID is unknown.
// Other documents keep their relative order.
func (s *Store) DeleteDocument(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return false
	}
	delete(s.docs, id)
	s.gen++
	return true
}

// Count returns the current number of documents.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Sequence returns the insertion sequence of a document, used for
// deterministic tie-breaking in rank fusion.
func (s *Store) Sequence(id string) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.docs[id]
	if !ok {
		return 0, false
	}
	return rec.seq, true
}

// Generation returns a counter bumped on every successful mutation. Caches
// layered above the store compare generations to detect staleness.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// Search embeds the query and scores every document by cosine similarity,
// returning the top-k by descending score. Ties go to the earlier-inserted
// document. topK <= 0 or an empty store yields an empty result.
func (s *Store) Search(query string, topK int) ([]domain.RetrievedDocument, error) {
	if topK <= 0 {
		return nil, nil
	}

	vecs, err := s.embedder.Embed([]string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	queryVec := vecs[0]

	s.mu.RLock()
	defer s.mu.RUnlock()

	scores := make([]scoredRecord, 0, len(s.docs))
	for _, rec := range s.docs {
		scores = append(scores, scoredRecord{
			rec:   rec,
			score: clamp01(CosineSimilarity(queryVec, rec.doc.Embedding)),
		})
	}

	return rankResults(scores, topK), nil
}

// SearchKeyword scores each document by the fraction of distinct query
// tokens present in its token set. Documents scoring zero are excluded even
// when topK has room for them.
func (s *Store) SearchKeyword(query string, topK int) ([]domain.RetrievedDocument, error) {
	if topK <= 0 {
		return nil, nil
	}

	queryTokens := s.tokenizer.TokenSet(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	scores := make([]scoredRecord, 0, len(s.docs))
	for _, rec := range s.docs {
		docTokens := s.tokenizer.TokenSet(rec.doc.Content)

		matched := 0
		for tok := range queryTokens {
			if _, ok := docTokens[tok]; ok {
				matched++
			}
		}
		if matched == 0 {
			continue
		}

		scores = append(scores, scoredRecord{
			rec:   rec,
			score: float64(matched) / float64(len(queryTokens)),
		})
	}

	return rankResults(scores, topK), nil
}

type scoredRecord struct {
	rec   record
	score float64
}

// rankResults sorts by score descending with insertion-order tie-break,
// truncates to topK, and assigns contiguous 1-based ranks.
func rankResults(scores []scoredRecord, topK int) []domain.RetrievedDocument {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].rec.seq < scores[j].rec.seq
	})

	if len(scores) > topK {
		scores = scores[:topK]
	}

	results := make([]domain.RetrievedDocument, len(scores))
	for i, sc := range scores {
		results[i] = domain.RetrievedDocument{
			ID:         sc.rec.doc.ID,
			Content:    sc.rec.doc.Content,
			Metadata:   domain.CloneMetadata(sc.rec.doc.Metadata),
			Similarity: sc.score,
			Rank:       i + 1,
		}
	}
	return results
}

func copyDocument(doc domain.Document) domain.Document {
	out := domain.Document{
		ID:       doc.ID,
		Content:  doc.Content,
		Metadata: domain.CloneMetadata(doc.Metadata),
	}
	if doc.Embedding != nil {
		out.Embedding = make([]float32, len(doc.Embedding))
		copy(out.Embedding, doc.Embedding)
	}
	return out
}

// CosineSimilarity calculates the cosine similarity between two vectors.
// Similarity against the zero vector is defined as 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
