package domain

import (
	"context"
	"io"
	"time"
)

// MidCache stores the last observed mid price per outcome. The hedge
// pipeline consults it before falling back to the configured default mid
// when the live book is empty or unreachable.
type MidCache interface {
	SetMid(ctx context.Context, outcomeID string, mid float64, ts time.Time) error
	GetMid(ctx context.Context, outcomeID string) (float64, time.Time, error)
}

// LockManager provides a distributed mutex. The merge loop takes a
// per-market lock so two bot processes never merge the same market's
// collateral concurrently.
type LockManager interface {
	// Acquire returns ErrLockHeld when another holder owns the lock.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// BlobWriter uploads an object to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}
