package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Ar5h1a-M/LockedIn/internal/events"
	"github.com/Ar5h1a-M/LockedIn/internal/model"
)

func TestSessionCreatedEvent_Marshal(t *testing.T) {
	ev := events.SessionCreatedEvent{
		EventType: "session.created",
		EventID:   uuid.New(),
		SessionID: "s-1",
		GroupID:   "g-1",
		CreatorID: "u-1",
		StartAt:   "2025-01-01T10:00:00Z",
	}

	b, err := json.Marshal(ev)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, "session.created", decoded["event_type"])
	require.Equal(t, "g-1", decoded["group_id"])
}

func TestRSVPUpdatedEvent_Marshal(t *testing.T) {
	ev := events.RSVPUpdatedEvent{
		EventType: "session.rsvp",
		EventID:   uuid.New(),
		SessionID: "s-1",
		UserID:    "u-1",
		Status:    model.RSVPAccepted,
		UpdatedAt: time.Now(),
	}

	b, err := json.Marshal(ev)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, "session.rsvp", decoded["event_type"])
	require.Equal(t, "accepted", decoded["status"])
}
