// Package retrieve supplies raw evidence documents for a query.
package retrieve

import (
	"context"

	"github.com/chaincontext/chaincontext/internal/model"
)

// Retriever finds evidence relevant to a query. Implementations own their
// own caching; returned items are scoped to one query's lifetime and are
// never mutated by the pipeline.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]model.EvidenceItem, error)
}
