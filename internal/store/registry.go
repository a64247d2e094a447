package store

import (
	"sync"

	"github.com/Ar5h1a-M/LockedIn/internal/backend"
	"github.com/Ar5h1a-M/LockedIn/internal/events"
)

type registryKey struct {
	userID  string
	groupID string
}

// Registry hands out long-lived stores per (user, group) so that sequence
// numbered loads stay meaningful across racing refreshes.
type Registry struct {
	backend backend.Client
	events  events.EventPublisher

	mu     sync.Mutex
	stores map[registryKey]*Store
}

func NewRegistry(b backend.Client, pub events.EventPublisher) *Registry {
	return &Registry{
		backend: b,
		events:  pub,
		stores:  make(map[registryKey]*Store),
	}
}

func (r *Registry) For(userID, groupID string) *Store {
	key := registryKey{userID: userID, groupID: groupID}

	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.stores[key]
	if !ok {
		st = New(r.backend, r.events, userID, groupID)
		r.stores[key] = st
	}
	return st
}
