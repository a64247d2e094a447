package model

// Session mirrors the backend's session rows. StartAt stays a raw string on
// purpose: a row with a bad timestamp must still render, so parsing is
// deferred to the scheduling layer.
type Session struct {
	ID              string  `json:"id"`
	GroupID         string  `json:"group_id"`
	CreatorID       string  `json:"creator_id"`
	StartAt         string  `json:"start_at"`
	Venue           *string `json:"venue"`
	Topic           *string `json:"topic"`
	TimeGoalMinutes *int    `json:"time_goal_minutes"`
	ContentGoal     *string `json:"content_goal"`
}

type RSVPStatus string

const (
	RSVPAccepted RSVPStatus = "accepted"
	RSVPDeclined RSVPStatus = "declined"
	RSVPNone     RSVPStatus = "none"
)

type CreateSessionInput struct {
	StartAt         string  `json:"start_at"`
	Venue           *string `json:"venue"`
	Topic           *string `json:"topic"`
	TimeGoalMinutes *int    `json:"time_goal_minutes"`
	ContentGoal     *string `json:"content_goal"`
}
