package store

import (
	"context"
	"sync"

	"github.com/chaincontext/chaincontext/internal/model"
)

// MemoryStore keeps answered queries in memory. Used by tests and when no
// database is configured.
type MemoryStore struct {
	mu      sync.Mutex
	records []Record
}

// Record is one stored query with its submitting user.
type Record struct {
	UserID string
	Result *model.AnsweredResult
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// RecordQuery appends one answered query.
func (s *MemoryStore) RecordQuery(ctx context.Context, userID string, result *model.AnsweredResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, Record{UserID: userID, Result: result})
	return nil
}

// Records returns a copy of everything recorded so far.
func (s *MemoryStore) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
