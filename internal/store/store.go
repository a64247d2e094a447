// Package store owns the authoritative client-side copies of a group's
// session list and the user's accepted sessions, and derives the conflict
// state the UI renders. State is always replaced wholesale from the latest
// fetch, never patched in place.
package store

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Ar5h1a-M/LockedIn/internal/backend"
	"github.com/Ar5h1a-M/LockedIn/internal/events"
	"github.com/Ar5h1a-M/LockedIn/internal/model"
	"github.com/Ar5h1a-M/LockedIn/internal/schedule"
)

var (
	ErrStartAtRequired      = errors.New("please pick a date and time")
	ErrConfirmationDeclined = errors.New("cancelled: overlaps one of your accepted sessions")
)

// Store holds planner state for one (user, group) pair.
type Store struct {
	backend backend.Client
	events  events.EventPublisher
	userID  string
	groupID string

	loadSeq atomic.Uint64

	mu          sync.Mutex
	appliedSeq  uint64
	sessions    []model.Session
	myAccepted  []model.Session
	unavailable []string
}

func New(b backend.Client, pub events.EventPublisher, userID, groupID string) *Store {
	return &Store{backend: b, events: pub, userID: userID, groupID: groupID}
}

// SessionView is a session annotated with its per-row conflict flag.
type SessionView struct {
	model.Session
	Conflicts bool `json:"conflicts"`
}

// View is the derived planner state handed to the HTTP layer.
type View struct {
	Sessions           []SessionView `json:"sessions"`
	ConflictBanner     string        `json:"conflict_banner,omitempty"`
	UnavailableMembers []string      `json:"unavailable_members,omitempty"`
}

// Load fetches the group's sessions and the user's accepted sessions, then
// replaces state wholesale. Each load carries a sequence number; a response
// that finishes after a newer load has already been applied is discarded, so
// racing reloads settle on the most recently requested data.
func (s *Store) Load(ctx context.Context, token string) error {
	seq := s.loadSeq.Add(1)

	sessions, err := s.backend.FetchGroupSessions(ctx, token, s.groupID)
	if err != nil {
		return err
	}

	// The accepted-sessions endpoint is best-effort: without it conflict
	// detection degrades to "no conflicts", but the list still renders.
	accepted, err := s.backend.FetchMyAcceptedSessions(ctx, token)
	if err != nil {
		slog.Warn("accepted-sessions lookup failed, conflict detection disabled for this load",
			"group_id", s.groupID, "error", err)
		accepted = nil
	}

	unavailable := s.lookupUnavailable(ctx, token, sessions)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.appliedSeq {
		return nil
	}
	s.appliedSeq = seq
	s.sessions = sessions
	s.myAccepted = accepted
	s.unavailable = unavailable
	return nil
}

// lookupUnavailable asks which members cannot attend the soonest upcoming
// session. Any failure is swallowed: no names, no error.
func (s *Store) lookupUnavailable(ctx context.Context, token string, sessions []model.Session) []string {
	var soonest *schedule.Interval
	for _, sess := range sessions {
		iv, err := schedule.SessionInterval(sess)
		if err != nil {
			continue
		}
		if soonest == nil || iv.Start.Before(soonest.Start) {
			soonest = &iv
		}
	}
	if soonest == nil {
		return nil
	}

	names, err := s.backend.FetchUnavailableMembers(ctx, token, s.groupID, soonest.Start, soonest.End)
	if err != nil {
		slog.Debug("availability lookup failed", "group_id", s.groupID, "error", err)
		return nil
	}
	return names
}

// Snapshot derives the current view. Flags and banner are recomputed from
// the held lists on every call, so identical data always yields an identical
// view.
func (s *Store) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]SessionView, 0, len(s.sessions))
	for _, sess := range s.sessions {
		views = append(views, SessionView{
			Session:   sess,
			Conflicts: schedule.SessionConflicts(sess, s.myAccepted),
		})
	}

	view := View{Sessions: views, UnavailableMembers: slices.Clone(s.unavailable)}
	if msg, ok := schedule.GroupBanner(s.sessions, s.myAccepted); ok {
		view.ConflictBanner = msg
	}
	return view
}

// Create validates the input, runs the conflict confirmation gate and calls
// the backend. Declining the confirmation aborts before any network call.
// On success the store reloads.
func (s *Store) Create(ctx context.Context, token string, input model.CreateSessionInput, confirm schedule.ConfirmFunc) error {
	if strings.TrimSpace(input.StartAt) == "" {
		return ErrStartAtRequired
	}

	candidate, err := schedule.SessionInterval(model.Session{
		StartAt:         input.StartAt,
		TimeGoalMinutes: input.TimeGoalMinutes,
	})
	if err != nil {
		return err
	}

	if !schedule.ConfirmIfConflicting(candidate, s.accepted(), confirm) {
		return ErrConfirmationDeclined
	}

	created, err := s.backend.CreateSession(ctx, token, s.groupID, input)
	if err != nil {
		return err
	}

	go s.events.PublishSessionCreated(created)

	return s.Load(ctx, token)
}

// Delete removes a session via the backend, then drops it from local state
// by id. The creator-only rule is the backend's to enforce; on failure local
// state is left untouched.
func (s *Store) Delete(ctx context.Context, token, sessionID string) error {
	if err := s.backend.DeleteSession(ctx, token, s.groupID, sessionID); err != nil {
		return err
	}

	s.mu.Lock()
	s.sessions = slices.DeleteFunc(s.sessions, func(sess model.Session) bool {
		return sess.ID == sessionID
	})
	s.mu.Unlock()
	return nil
}

// RSVP updates the user's status for a session. Accepting a conflicting
// session requires confirmation first; declining one never prompts. On
// success both lists are reloaded, since RSVP state feeds conflict signals.
func (s *Store) RSVP(ctx context.Context, token, sessionID string, status model.RSVPStatus, confirm schedule.ConfirmFunc) error {
	if status == model.RSVPAccepted {
		target, ok := s.session(sessionID)
		if !ok {
			// stale or never-loaded state; reload so the gate sees the session
			if err := s.Load(ctx, token); err != nil {
				return err
			}
			target, ok = s.session(sessionID)
		}
		if ok {
			if candidate, err := schedule.SessionInterval(target); err == nil {
				others := slices.DeleteFunc(s.accepted(), func(m model.Session) bool {
					return m.ID == sessionID
				})
				if !schedule.ConfirmIfConflicting(candidate, others, confirm) {
					return ErrConfirmationDeclined
				}
			} else {
				slog.Warn("skipping conflict gate for session with malformed start time",
					"session_id", sessionID, "error", err)
			}
		} else {
			slog.Warn("session not in loaded list, conflict gate skipped",
				"session_id", sessionID)
		}
	}

	if err := s.backend.SetRSVP(ctx, token, sessionID, status); err != nil {
		return err
	}

	go s.events.PublishRSVPUpdated(sessionID, s.userID, status)

	return s.Load(ctx, token)
}

func (s *Store) accepted() []model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.myAccepted)
}

func (s *Store) session(sessionID string) (model.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.ID == sessionID {
			return sess, true
		}
	}
	return model.Session{}, false
}
