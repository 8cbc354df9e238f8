// Package store persists answered queries for later audit.
package store

import (
	"context"

	"github.com/chaincontext/chaincontext/internal/model"
)

// QueryStore records answered queries. Recording is best effort from the
// pipeline's point of view; a store failure never fails an answer.
type QueryStore interface {
	RecordQuery(ctx context.Context, userID string, result *model.AnsweredResult) error
	Close(ctx context.Context) error
}
