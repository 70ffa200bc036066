package models

import "time"

// EventType names a record lifecycle transition published on the event topic
type EventType string

const (
	EventIngested EventType = "ingested"
	EventSynced   EventType = "synced"
	EventRejected EventType = "rejected"
)

// RecordEvent defines the message structure for record lifecycle notifications
// Used across ingestion, processing, and messaging layers
type RecordEvent struct {
	Type      EventType `json:"type"`
	RecordID  string    `json:"record_id"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp string    `json:"timestamp"` // RFC3339Nano, string for easy JSON serialization
}

// NewRecordEvent stamps an event with the current UTC time
func NewRecordEvent(t EventType, recordID, reason string) *RecordEvent {
	return &RecordEvent{
		Type:      t,
		RecordID:  recordID,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}
