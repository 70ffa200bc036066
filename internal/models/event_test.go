package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecordEvent(t *testing.T) {
	before := time.Now().UTC().Add(-time.Second)
	evt := NewRecordEvent(EventRejected, "rec-1", "mobile is invalid")

	assert.Equal(t, EventRejected, evt.Type)
	assert.Equal(t, "rec-1", evt.RecordID)
	assert.Equal(t, "mobile is invalid", evt.Reason)

	at, err := time.Parse(time.RFC3339Nano, evt.Timestamp)
	require.NoError(t, err)
	assert.True(t, at.After(before))
	assert.Equal(t, time.UTC, at.Location())
}
