// Package checkpoint holds advisory sync state: per-scope watermarks,
// cached account snapshots and the liveness set of open tickets. It is an
// optimization layer only; the durable store never depends on it for
// correctness, so a cold or unavailable cache degrades gracefully.
package checkpoint

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is the cached view of an account used to skip store reads on the
// hot path.
type Snapshot struct {
	Balance     decimal.Decimal
	ChallengeId string
	Status      string
}

// Store is the checkpoint contract satisfied by the Redis and in-memory
// backends.
type Store interface {
	// Watermark returns the last successfully synced time for a scope.
	// ok is false when no watermark exists yet.
	Watermark(ctx context.Context, scope string) (t time.Time, ok bool, err error)

	// AdvanceWatermark moves the scope watermark forward. A value at or
	// behind the current watermark is ignored, so a slow concurrent writer
	// can never rewind progress.
	AdvanceWatermark(ctx context.Context, scope string, to time.Time) error

	// AccountSnapshot returns the cached account view, ok=false on miss.
	AccountSnapshot(ctx context.Context, login int64) (snap Snapshot, ok bool, err error)
	SetAccountSnapshot(ctx context.Context, login int64, snap Snapshot) error

	// SetLiveTickets atomically replaces the set of currently open tickets
	// for a scope. The TTL bounds staleness when the worker stops.
	SetLiveTickets(ctx context.Context, scope string, tickets []int64, ttl time.Duration) error

	// InvalidateStatus overwrites the cached status for a login so readers
	// stop seeing a stale active state.
	InvalidateStatus(ctx context.Context, login int64, status string) error

	Close()
}
