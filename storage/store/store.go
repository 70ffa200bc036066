// Package store holds submitted records locally until the remote system of record accepts them.
package store

import (
	"context"
	"errors"

	"reqsync/internal/models"
)

var (
	// ErrNotFound is returned by Get for an unknown record id.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateID is returned by Append when the id is already present.
	ErrDuplicateID = errors.New("record id already exists")
	// ErrCapacityExceeded is returned by Append when the store is full.
	ErrCapacityExceeded = errors.New("record store capacity exceeded")
)

// Store is the local record store shared by the ingestion path and the reconciler.
//
// Records are kept most-recent-first. A record's sync state only ever moves
// pending -> synced or pending -> rejected; both are terminal.
type Store interface {
	// Append inserts a new record at the head of the collection.
	Append(ctx context.Context, rec *models.Record) error
	// Get returns a copy of one record, or ErrNotFound.
	Get(ctx context.Context, id string) (*models.Record, error)
	// List returns a snapshot of every record, most recent first.
	List(ctx context.Context) ([]models.Record, error)
	// ListUnsynced returns a snapshot of the pending records, most recent first.
	// The snapshot does not reflect appends made after the call.
	ListUnsynced(ctx context.Context) ([]models.Record, error)
	// MarkSynced flags a pending record as accepted by the remote.
	// Unknown, synced and rejected records are left alone without error.
	MarkSynced(ctx context.Context, id string) error
	// MarkRejected moves a pending record to the terminal rejected state.
	// Unknown, synced and rejected records are left alone without error.
	MarkRejected(ctx context.Context, id, reason string) error
	// Close releases the underlying resources.
	Close() error
}

func copyRecord(r *models.Record) models.Record {
	c := *r
	if r.SyncedAt != nil {
		at := *r.SyncedAt
		c.SyncedAt = &at
	}
	return c
}

// prepare resets the sync fields of a record about to be appended.
// Only MarkSynced and MarkRejected move a record out of pending.
func prepare(rec *models.Record) {
	rec.SyncState = models.SyncPending
	rec.SyncedToRemote = false
	rec.SyncedAt = nil
	rec.RejectReason = ""
}
