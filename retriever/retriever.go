// Package retriever answers queries against the vector store: embed, filtered
// similarity search, top-k truncation.
package retriever

import (
	"context"
	"errors"
	"log"
	"strings"

	"ragapi/model"
	"ragapi/store"
	"ragapi/types"
)

var (
	ErrBlankQuery = errors.New("query cannot be blank")
	ErrInvalidK   = errors.New("k must be a positive integer")
)

// BackendError hides embedding/storage failures behind a generic message.
// The cause stays reachable through Unwrap for logging.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return e.Op + " backend error"
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

type Retriever struct {
	store    store.DBStorer
	embedder model.EmbedderInterface
}

func New(s store.DBStorer, e model.EmbedderInterface) *Retriever {
	return &Retriever{
		store:    s,
		embedder: e,
	}
}

// Search embeds the query and returns up to k hits ordered by descending
// similarity, restricted to entries whose metadata contains the filter keys.
// Input is validated before the embedding call; an empty match is an empty
// list, not an error.
func (r *Retriever) Search(ctx context.Context, query string, k int, filter map[string]any) ([]types.SearchHit, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, ErrBlankQuery
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}

	vec, err := r.embedder.Embed(q)
	if err != nil {
		log.Printf("[RETRIEVER] embedding failed: %v", err)
		return nil, &BackendError{Op: "embedding", Err: err}
	}

	hits, err := r.store.Search(ctx, vec, k, filter)
	if err != nil {
		log.Printf("[RETRIEVER] similarity search failed: %v", err)
		return nil, &BackendError{Op: "search", Err: err}
	}
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}
