package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/Ar5h1a-M/LockedIn/internal/model"
)

// EventPublisher announces planner actions after the backend has accepted
// them. Publishing is advisory; failures never affect the action itself.
type EventPublisher interface {
	PublishSessionCreated(session *model.Session) error
	PublishRSVPUpdated(sessionID, userID string, status model.RSVPStatus) error
}

type SessionCreatedEvent struct {
	EventType string    `json:"event_type"`
	EventID   uuid.UUID `json:"event_id"`
	SessionID string    `json:"session_id"`
	GroupID   string    `json:"group_id"`
	CreatorID string    `json:"creator_id"`
	StartAt   string    `json:"start_at"`
}

type RSVPUpdatedEvent struct {
	EventType string           `json:"event_type"`
	EventID   uuid.UUID        `json:"event_id"`
	SessionID string           `json:"session_id"`
	UserID    string           `json:"user_id"`
	Status    model.RSVPStatus `json:"status"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(natsURL string) (EventPublisher, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, err
	}
	return &NatsPublisher{conn: nc}, nil
}

func (p *NatsPublisher) publish(subject string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("marshalling event failed", "subject", subject, "error", err)
		return err
	}

	if err := p.conn.Publish(subject, payload); err != nil {
		slog.Error("publishing to NATS failed", "subject", subject, "error", err)
		return err
	}

	slog.Info("published event", "subject", subject)
	return nil
}

func (p *NatsPublisher) PublishSessionCreated(session *model.Session) error {
	return p.publish("session.created", SessionCreatedEvent{
		EventType: "session.created",
		EventID:   uuid.New(),
		SessionID: session.ID,
		GroupID:   session.GroupID,
		CreatorID: session.CreatorID,
		StartAt:   session.StartAt,
	})
}

func (p *NatsPublisher) PublishRSVPUpdated(sessionID, userID string, status model.RSVPStatus) error {
	return p.publish("session.rsvp", RSVPUpdatedEvent{
		EventType: "session.rsvp",
		EventID:   uuid.New(),
		SessionID: sessionID,
		UserID:    userID,
		Status:    status,
		UpdatedAt: time.Now(),
	})
}

// NoopPublisher is wired when no NATS URL is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishSessionCreated(*model.Session) error { return nil }

func (NoopPublisher) PublishRSVPUpdated(string, string, model.RSVPStatus) error { return nil }
