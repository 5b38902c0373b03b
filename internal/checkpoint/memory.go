package checkpoint

import (
	"context"
	"sync"
	"time"
)

// Compile-time check: *MemoryStore must satisfy Store.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is the cache-less backend: same semantics as Redis but
// process-local. Used in tests and deployments without a cache, where
// losing checkpoints on restart only costs a lookback re-sync.
type MemoryStore struct {
	mu         sync.Mutex
	watermarks map[string]time.Time
	snapshots  map[int64]Snapshot
	liveSets   map[string]liveSet
}

type liveSet struct {
	tickets   []int64
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		watermarks: make(map[string]time.Time),
		snapshots:  make(map[int64]Snapshot),
		liveSets:   make(map[string]liveSet),
	}
}

func (m *MemoryStore) Close() {}

func (m *MemoryStore) Watermark(_ context.Context, scope string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.watermarks[scope]
	return t, ok, nil
}

func (m *MemoryStore) AdvanceWatermark(_ context.Context, scope string, to time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.watermarks[scope]; ok && !to.After(current) {
		return nil
	}
	m.watermarks[scope] = to
	return nil
}

func (m *MemoryStore) AccountSnapshot(_ context.Context, login int64) (Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, ok := m.snapshots[login]
	return snap, ok, nil
}

func (m *MemoryStore) SetAccountSnapshot(_ context.Context, login int64, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots[login] = snap
	return nil
}

func (m *MemoryStore) SetLiveTickets(_ context.Context, scope string, tickets []int64, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]int64, len(tickets))
	copy(copied, tickets)
	m.liveSets[scope] = liveSet{tickets: copied, expiresAt: time.Now().Add(ttl)}
	return nil
}

// LiveTickets returns the non-expired liveness set for a scope.
func (m *MemoryStore) LiveTickets(scope string) ([]int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.liveSets[scope]
	if !ok || time.Now().After(set.expiresAt) {
		return nil, false
	}
	return set.tickets, true
}

func (m *MemoryStore) InvalidateStatus(_ context.Context, login int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, ok := m.snapshots[login]
	if !ok {
		snap = Snapshot{}
	}
	snap.Status = status
	m.snapshots[login] = snap
	return nil
}
