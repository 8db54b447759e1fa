package embedding

import (
	"hash/fnv"

	"ragstore/internal/adapter/analyzer"
)

const defaultDimension = 256

// HashedEmbedder maps text to a fixed-dimension bag-of-terms vector by
// hashing each term into a bucket. Fully deterministic, no I/O: the same
// text always produces the identical vector, and texts sharing more terms
// have higher cosine similarity. The empty string maps to the zero vector.
type HashedEmbedder struct {
	dimension int
}

// NewHashedEmbedder creates a hashed bag-of-terms embedder. A non-positive
// dimension falls back to the default.
func NewHashedEmbedder(dimension int) *HashedEmbedder {
	if dimension <= 0 {
		dimension = defaultDimension
	}
	return &HashedEmbedder{dimension: dimension}
}

// Embed generates one vector per input text. It never fails; the error
// return only satisfies the Embedder port.
func (e *HashedEmbedder) Embed(texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embedOne(text)
	}
	return vectors, nil
}

func (e *HashedEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dimension)
	for _, term := range analyzer.Terms(text) {
		h := fnv.New32a()
		h.Write([]byte(term))
		vec[int(h.Sum32())%e.dimension]++
	}
	return vec
}

func (e *HashedEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashedEmbedder) ModelName() string {
	return "hashed-bow"
}
