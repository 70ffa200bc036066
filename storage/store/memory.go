package store

import (
	"context"
	"sync"
	"time"

	"reqsync/internal/models"
)

// MemoryStore keeps records in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu         sync.RWMutex
	records    []*models.Record // insertion order, newest last
	index      map[string]*models.Record
	maxRecords int
}

// NewMemoryStore creates an empty store. maxRecords <= 0 means unbounded.
func NewMemoryStore(maxRecords int) *MemoryStore {
	return &MemoryStore{
		index:      make(map[string]*models.Record),
		maxRecords: maxRecords,
	}
}

func (m *MemoryStore) Append(_ context.Context, rec *models.Record) error {
	stored := copyRecord(rec)
	prepare(&stored)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.index[stored.ID]; ok {
		return ErrDuplicateID
	}
	if m.maxRecords > 0 && len(m.records) >= m.maxRecords {
		return ErrCapacityExceeded
	}
	m.records = append(m.records, &stored)
	m.index[stored.ID] = &stored
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := copyRecord(rec)
	return &c, nil
}

func (m *MemoryStore) List(_ context.Context) ([]models.Record, error) {
	return m.snapshot(func(*models.Record) bool { return true }), nil
}

func (m *MemoryStore) ListUnsynced(_ context.Context) ([]models.Record, error) {
	return m.snapshot((*models.Record).Unsynced), nil
}

// snapshot copies matching records newest first. Copies are taken under the
// read lock so callers never observe a half-applied mark.
func (m *MemoryStore) snapshot(keep func(*models.Record) bool) []models.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Record, 0, len(m.records))
	for i := len(m.records) - 1; i >= 0; i-- {
		if keep(m.records[i]) {
			out = append(out, copyRecord(m.records[i]))
		}
	}
	return out
}

func (m *MemoryStore) MarkSynced(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.index[id]
	if !ok || rec.SyncState != models.SyncPending {
		return nil
	}
	now := time.Now().UTC()
	rec.SyncState = models.SyncSynced
	rec.SyncedToRemote = true
	rec.SyncedAt = &now
	return nil
}

func (m *MemoryStore) MarkRejected(_ context.Context, id, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.index[id]
	if !ok || rec.SyncState != models.SyncPending {
		return nil
	}
	rec.SyncState = models.SyncRejected
	rec.RejectReason = reason
	return nil
}

func (m *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
