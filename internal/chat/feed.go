// Package chat relays the backend's group message feed to websocket
// subscribers. Delivery and storage of messages stay with the backend; this
// is a poll-and-push relay, kept on its own timer so it never contends with
// the scheduling logic.
package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/Ar5h1a-M/LockedIn/internal/backend"
	"github.com/Ar5h1a-M/LockedIn/internal/model"
)

const fetchLimit = 200

type WSMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Conn is the write side of a feed subscriber. *websocket.Conn satisfies it.
type Conn interface {
	WriteJSON(v any) error
}

type groupFeed struct {
	token  string
	lastID int64
	subs   map[uuid.UUID]Conn
}

type Feed struct {
	backend   backend.Client
	scheduler *gocron.Scheduler
	pollEvery time.Duration

	mu     sync.Mutex
	groups map[string]*groupFeed
}

func NewFeed(b backend.Client, pollEvery time.Duration) *Feed {
	scheduler := gocron.NewScheduler(time.UTC)
	// websocket conns forbid concurrent writers, so a poll run must never
	// overlap a slower previous run of the same job
	scheduler.SingletonModeAll()
	scheduler.StartAsync()

	return &Feed{
		backend:   b,
		scheduler: scheduler,
		pollEvery: pollEvery,
		groups:    make(map[string]*groupFeed),
	}
}

// Subscribe registers a websocket connection for a group's feed and returns
// its cleanup func. Polling for a group starts with its first subscriber and
// stops with its last. The most recent subscriber's token authenticates the
// polls.
func (f *Feed) Subscribe(groupID, token string, conn Conn) func() {
	id := uuid.New()

	f.mu.Lock()
	gf, ok := f.groups[groupID]
	if !ok {
		gf = &groupFeed{subs: make(map[uuid.UUID]Conn)}
		f.groups[groupID] = gf

		if _, err := f.scheduler.Every(f.pollEvery).Tag(feedTag(groupID)).Do(func() {
			f.poll(groupID)
		}); err != nil {
			slog.Error("scheduling message poll failed", "group_id", groupID, "error", err)
		}
	}
	gf.token = token
	gf.subs[id] = conn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		gf, ok := f.groups[groupID]
		if !ok {
			return
		}
		delete(gf.subs, id)
		if len(gf.subs) == 0 {
			if err := f.scheduler.RemoveByTag(feedTag(groupID)); err != nil {
				slog.Debug("removing message poll failed", "group_id", groupID, "error", err)
			}
			delete(f.groups, groupID)
		}
	}
}

func (f *Feed) poll(groupID string) {
	f.mu.Lock()
	gf, ok := f.groups[groupID]
	if !ok {
		f.mu.Unlock()
		return
	}
	token := gf.token
	lastID := gf.lastID
	f.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := f.backend.FetchMessages(ctx, token, groupID, fetchLimit)
	if err != nil {
		slog.Debug("message poll failed", "group_id", groupID, "error", err)
		return
	}

	fresh := make([]model.ChatMessage, 0, len(messages))
	maxID := lastID
	for _, m := range messages {
		if m.ID > lastID {
			fresh = append(fresh, m)
		}
		if m.ID > maxID {
			maxID = m.ID
		}
	}
	if len(fresh) == 0 {
		return
	}

	f.mu.Lock()
	gf, ok = f.groups[groupID]
	if !ok {
		f.mu.Unlock()
		return
	}
	gf.lastID = maxID
	conns := make(map[uuid.UUID]Conn, len(gf.subs))
	for id, conn := range gf.subs {
		conns[id] = conn
	}
	f.mu.Unlock()

	payload := WSMessage{Type: "messages", Data: fresh}
	for id, conn := range conns {
		if err := conn.WriteJSON(payload); err != nil {
			slog.Debug("dropping dead feed subscriber", "group_id", groupID, "error", err)
			f.mu.Lock()
			if gf, ok := f.groups[groupID]; ok {
				delete(gf.subs, id)
			}
			f.mu.Unlock()
		}
	}
}

func feedTag(groupID string) string {
	return "feed:" + groupID
}
