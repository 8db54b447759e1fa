package snapshot

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"
	"ragstore/internal/domain"
)

var bucketDocuments = []byte("documents")

// Bolt persists a document collection to a BoltDB file so a corpus survives
// between process runs. Only content and metadata are written; embeddings
// are recomputed when the documents are re-added to a store on load. The
// in-memory store itself stays persistence-free.
type Bolt struct {
	db *bbolt.DB
}

// storedDocument is the on-disk form of one document.
type storedDocument struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Seq      uint64         `json:"seq"`
}

// Open opens or creates a snapshot file.
func Open(path string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0644, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDocuments)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create documents bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Save replaces the snapshot contents with the given documents. The slice
// order is preserved so rehydration keeps insertion-order tie-breaks.
func (s *Bolt) Save(docs []domain.Document) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketDocuments); err != nil {
			return err
		}
		b, err := tx.CreateBucket(bucketDocuments)
		if err != nil {
			return err
		}

		for i, doc := range docs {
			if doc.ID == "" {
				return fmt.Errorf("document %d has no id", i)
			}
			data, err := json.Marshal(storedDocument{
				Content:  doc.Content,
				Metadata: doc.Metadata,
				Seq:      uint64(i),
			})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(doc.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load returns all snapshotted documents in their saved order, ready to be
// rehydrated into a store via AddDocuments.
func (s *Bolt) Load() ([]domain.Document, error) {
	type ordered struct {
		doc domain.Document
		seq uint64
	}
	var items []ordered

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDocuments)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var stored storedDocument
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("corrupt snapshot entry %s: %w", string(k), err)
			}
			items = append(items, ordered{
				doc: domain.Document{
					ID:       string(k),
					Content:  stored.Content,
					Metadata: stored.Metadata,
				},
				seq: stored.Seq,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].seq < items[j].seq
	})

	docs := make([]domain.Document, len(items))
	for i, item := range items {
		docs[i] = item.doc
	}
	return docs, nil
}

// Count returns the number of snapshotted documents.
func (s *Bolt) Count() (int, error) {
	count := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDocuments)
		if b == nil {
			return nil
		}
		count = b.Stats().KeyN
		return nil
	})
	return count, err
}

// Close closes the underlying database file.
func (s *Bolt) Close() error {
	return s.db.Close()
}
