package schedule

import (
	"log/slog"

	"github.com/Ar5h1a-M/LockedIn/internal/model"
)

// ConflictBannerMessage is the advisory shown when any listed session
// overlaps one of the user's accepted sessions.
const ConflictBannerMessage = "You have another accepted session that overlaps one or more of these times."

// ConfirmFunc answers a yes/no prompt. It is only invoked when a conflict
// actually exists.
type ConfirmFunc func() bool

// acceptedIntervals converts the user's accepted sessions into intervals,
// skipping the session identified by excludeID so a session never conflicts
// with its own accepted record. Malformed rows are logged and skipped, which
// degrades them to "no conflict" without affecting anything else.
func acceptedIntervals(myAccepted []model.Session, excludeID string) []Interval {
	out := make([]Interval, 0, len(myAccepted))
	for _, m := range myAccepted {
		if excludeID != "" && m.ID == excludeID {
			continue
		}
		iv, err := SessionInterval(m)
		if err != nil {
			slog.Warn("skipping accepted session with malformed start time",
				"session_id", m.ID, "error", err)
			continue
		}
		out = append(out, iv)
	}
	return out
}

// SessionConflicts reports whether a session overlaps any of the user's
// accepted sessions. Exclusion is by id equality, not interval equality: two
// distinct sessions may legitimately share identical times.
func SessionConflicts(s model.Session, myAccepted []model.Session) bool {
	iv, err := SessionInterval(s)
	if err != nil {
		slog.Warn("session has malformed start time, conflict status unknown",
			"session_id", s.ID, "error", err)
		return false
	}
	return AnyOverlap(iv, acceptedIntervals(myAccepted, s.ID))
}

// GroupBanner returns the advisory banner for a group's session list. Only
// the first conflicting session triggers it; the banner is a whole-list
// signal, not an enumeration of every conflict.
func GroupBanner(groupSessions, myAccepted []model.Session) (string, bool) {
	for _, s := range groupSessions {
		if SessionConflicts(s, myAccepted) {
			return ConflictBannerMessage, true
		}
	}
	return "", false
}

// ConfirmIfConflicting gates an action on user confirmation when the
// candidate interval overlaps an accepted session. It returns true when the
// action may proceed. With no conflict the prompt is never shown.
func ConfirmIfConflicting(candidate Interval, myAccepted []model.Session, confirm ConfirmFunc) bool {
	if !AnyOverlap(candidate, acceptedIntervals(myAccepted, "")) {
		return true
	}
	return confirm()
}
