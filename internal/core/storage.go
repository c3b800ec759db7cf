package core

import "context"

// MemoryStore persists the per-user memory record. Get returns (nil, nil)
// when no record exists for the user.
type MemoryStore interface {
	Get(ctx context.Context, userID string) (*MemoryRecord, error)
	Put(ctx context.Context, userID string, rec *MemoryRecord) error
	Delete(ctx context.Context, userID string) error
}
