// Package store defines the persistent vector store used by the venue index.
package store

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidDocument is returned when a document cannot be stored.
var ErrInvalidDocument = errors.New("invalid document")

// Metadata is the venue data returned alongside a hit.
type Metadata struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Map     string `json:"map"`
}

// Document is the unit stored in the index.
type Document struct {
	ID        string
	Text      string
	Metadata  Metadata
	Embedding []float32
}

// Hit is a document returned by a nearest-neighbour query.
type Hit struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
	Distance float64  `json:"distance"`
}

// VectorStore persists documents and answers nearest-neighbour queries.
// Implementations must be safe for concurrent use.
type VectorStore interface {
	// Name identifies the backend.
	Name() string

	// Upsert writes all documents in one transaction, replacing any with the same id.
	Upsert(ctx context.Context, docs []Document) error

	// Query returns up to k documents ordered by ascending cosine distance.
	Query(ctx context.Context, vec []float32, k int) ([]Hit, error)

	Delete(ctx context.Context, ids []string) error
	IDs(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Validate checks the invariants every stored document must satisfy.
func Validate(doc Document) error {
	if doc.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidDocument)
	}
	if doc.Text == "" {
		return fmt.Errorf("%w: %s has empty text", ErrInvalidDocument, doc.ID)
	}
	if len(doc.Embedding) == 0 {
		return fmt.Errorf("%w: %s has no embedding", ErrInvalidDocument, doc.ID)
	}
	for _, v := range doc.Embedding {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("%w: %s embedding contains invalid values", ErrInvalidDocument, doc.ID)
		}
	}
	return nil
}

// CosineDistance returns 1 - cosine similarity. Vectors of different
// length or zero magnitude are maximally distant.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
