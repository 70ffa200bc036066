package models

import "time"

// SyncState tracks a record's delivery to the remote system of record
type SyncState string

const (
	SyncPending  SyncState = "pending"  // not yet accepted, retried by the reconciler
	SyncSynced   SyncState = "synced"   // accepted by the remote, terminal
	SyncRejected SyncState = "rejected" // refused by the remote, terminal, never retried
)

// Valid reports whether s is one of the known sync states
func (s SyncState) Valid() bool {
	switch s {
	case SyncPending, SyncSynced, SyncRejected:
		return true
	}
	return false
}

// Lifecycle status values. Owned by the admin workflow; the sync engine never reads or changes them.
const (
	StatusNew        = "new"
	StatusProcessing = "processing"
	StatusAccepted   = "accepted"
	StatusRejected   = "rejected"
	StatusCompleted  = "completed"
)

// Payload holds the caller-supplied request fields
type Payload struct {
	Name     string `json:"name"`
	Mobile   string `json:"mobile"`
	Type     string `json:"type,omitempty"`
	Location string `json:"location,omitempty"`
	Size     string `json:"size,omitempty"`
	Price    string `json:"price,omitempty"`
	SaleType string `json:"saleType,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Record is one submitted request tracked by the local store
type Record struct {
	ID             string     `json:"id"`
	Payload        Payload    `json:"payload"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	SyncedToRemote bool       `json:"syncedToRemote"`
	SyncState      SyncState  `json:"syncState"`
	SyncedAt       *time.Time `json:"syncedAt,omitempty"`
	RejectReason   string     `json:"rejectReason,omitempty"`
}

// Unsynced reports whether the record still waits for remote acceptance
func (r *Record) Unsynced() bool {
	return r.SyncState == SyncPending
}
