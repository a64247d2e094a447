// Package schedule holds the pure scheduling core: interval derivation,
// overlap tests and conflict evaluation. Nothing here touches the network.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/Ar5h1a-M/LockedIn/internal/model"
)

// DefaultDurationMinutes is assumed when a session carries no time goal.
const DefaultDurationMinutes = 60

var ErrMalformedStart = errors.New("session start time is not a valid timestamp")

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// SessionInterval derives the occupied time range of a session. A missing,
// zero or negative time goal falls back to the 60 minute default, so
// Start < End always holds for a parseable session.
func SessionInterval(s model.Session) (Interval, error) {
	start, err := time.Parse(time.RFC3339, s.StartAt)
	if err != nil {
		return Interval{}, fmt.Errorf("%w: %q", ErrMalformedStart, s.StartAt)
	}

	minutes := DefaultDurationMinutes
	if s.TimeGoalMinutes != nil && *s.TimeGoalMinutes > 0 {
		minutes = *s.TimeGoalMinutes
	}

	return Interval{Start: start, End: start.Add(time.Duration(minutes) * time.Minute)}, nil
}

// Overlaps reports whether two half-open intervals intersect. Sessions that
// touch exactly at a boundary do not overlap, matching calendar semantics.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// AnyOverlap reports whether the candidate intersects at least one interval.
func AnyOverlap(candidate Interval, rest []Interval) bool {
	for _, iv := range rest {
		if Overlaps(candidate, iv) {
			return true
		}
	}
	return false
}
