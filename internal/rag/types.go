package rag

import (
	"errors"

	"github.com/mwiater/nabin/internal/rag/store"
)

// ErrEmptyQuery is returned when a search is issued without any query text.
var ErrEmptyQuery = errors.New("query is empty")

// RetrievalResult holds the nearest venues for one query, closest first.
type RetrievalResult struct {
	Query       string      `json:"query"`
	Hits        []store.Hit `json:"hits"`
	RetrievalMs int         `json:"retrieval_ms"`
}

// Empty reports whether the search matched nothing.
func (r RetrievalResult) Empty() bool {
	return len(r.Hits) == 0
}

// Texts returns the document texts in rank order.
func (r RetrievalResult) Texts() []string {
	texts := make([]string, 0, len(r.Hits))
	for _, hit := range r.Hits {
		texts = append(texts, hit.Text)
	}
	return texts
}

// Stats describes the state of the index.
type Stats struct {
	Documents  int    `json:"documents"`
	Store      string `json:"store"`
	Embedder   string `json:"embedder"`
	Collection string `json:"collection"`
	IDScheme   string `json:"id_scheme"`
}
