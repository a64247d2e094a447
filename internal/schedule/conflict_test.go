package schedule_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ar5h1a-M/LockedIn/internal/model"
	"github.com/Ar5h1a-M/LockedIn/internal/schedule"
)

func session(id, startAt string, minutes *int) model.Session {
	return model.Session{ID: id, StartAt: startAt, TimeGoalMinutes: minutes}
}

func TestGroupBannerFirstMatchOnly(t *testing.T) {
	myAccepted := []model.Session{
		session("acc-1", "2025-01-01T10:00:00Z", nil), // [10:00, 11:00)
	}
	groupSessions := []model.Session{
		session("s-1", "2025-01-01T09:00:00Z", intPtr(30)), // [09:00, 09:30) clear
		session("s-2", "2025-01-01T10:30:00Z", nil),        // [10:30, 11:30) overlaps
	}

	msg, ok := schedule.GroupBanner(groupSessions, myAccepted)
	require.True(t, ok)
	require.Equal(t, schedule.ConflictBannerMessage, msg)

	require.False(t, schedule.SessionConflicts(groupSessions[0], myAccepted))
	require.True(t, schedule.SessionConflicts(groupSessions[1], myAccepted))
}

func TestGroupBannerAbsentWithoutConflicts(t *testing.T) {
	myAccepted := []model.Session{
		session("acc-1", "2025-01-01T08:00:00Z", nil),
	}
	groupSessions := []model.Session{
		session("s-1", "2025-01-01T09:00:00Z", nil), // touches 09:00 boundary
	}

	_, ok := schedule.GroupBanner(groupSessions, myAccepted)
	require.False(t, ok)
}

func TestSessionNeverConflictsWithItself(t *testing.T) {
	s := session("s-1", "2025-01-01T10:00:00Z", nil)
	require.False(t, schedule.SessionConflicts(s, []model.Session{s}))

	// a distinct session at the identical time still counts
	twin := session("s-2", "2025-01-01T10:00:00Z", nil)
	require.True(t, schedule.SessionConflicts(s, []model.Session{twin}))
}

func TestMalformedSessionsDegradeToNoConflict(t *testing.T) {
	myAccepted := []model.Session{
		session("acc-1", "not a timestamp", nil),
	}
	s := session("s-1", "2025-01-01T10:00:00Z", nil)
	require.False(t, schedule.SessionConflicts(s, myAccepted))

	broken := session("s-2", "also broken", nil)
	require.False(t, schedule.SessionConflicts(broken, []model.Session{session("acc-2", "2025-01-01T10:00:00Z", nil)}))
}

func TestConfirmIfConflicting(t *testing.T) {
	myAccepted := []model.Session{
		session("acc-1", "2025-01-01T10:00:00Z", nil),
	}
	conflicting, err := schedule.SessionInterval(session("", "2025-01-01T10:30:00Z", nil))
	require.NoError(t, err)
	free, err := schedule.SessionInterval(session("", "2025-01-01T12:00:00Z", nil))
	require.NoError(t, err)

	prompted := false
	ok := schedule.ConfirmIfConflicting(conflicting, myAccepted, func() bool {
		prompted = true
		return true
	})
	require.True(t, prompted)
	require.True(t, ok)

	ok = schedule.ConfirmIfConflicting(conflicting, myAccepted, func() bool { return false })
	require.False(t, ok)

	prompted = false
	ok = schedule.ConfirmIfConflicting(free, myAccepted, func() bool {
		prompted = true
		return false
	})
	require.False(t, prompted)
	require.True(t, ok)
}

func TestConfirmNeverPromptsWithoutAcceptedSessions(t *testing.T) {
	candidate, err := schedule.SessionInterval(session("", "2025-01-01T10:00:00Z", nil))
	require.NoError(t, err)

	ok := schedule.ConfirmIfConflicting(candidate, nil, func() bool {
		t.Fatal("confirm must not be invoked with no accepted sessions")
		return false
	})
	require.True(t, ok)
}
