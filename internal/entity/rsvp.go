package entity

import "time"

type RSVPStatus string

const (
	RSVPStatusGoing    RSVPStatus = "going"
	RSVPStatusMaybe    RSVPStatus = "maybe"
	RSVPStatusNotGoing RSVPStatus = "not_going"
)

// Valid reports whether the status is one of the known RSVP statuses.
func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPStatusGoing, RSVPStatusMaybe, RSVPStatusNotGoing:
		return true
	}
	return false
}

// RSVP is a user's attendance intent for an event, unique per (event, user).
// Status changes mutate the row in place; no history is kept.
type RSVP struct {
	ID        int64      `json:"id" db:"id"`
	EventID   int64      `json:"event_id" db:"event_id"`
	UserID    int64      `json:"user_id" db:"user_id"`
	Status    RSVPStatus `json:"status" db:"status"`
	Guests    int        `json:"guests" db:"guests"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// RSVPContact joins an RSVP with the attendee's notification details, used by
// the reminder tasks.
type RSVPContact struct {
	EventID    int64  `json:"event_id"`
	UserID     int64  `json:"user_id"`
	UserName   string `json:"user_name"`
	TelegramID string `json:"telegram_id"`
	EventTitle string `json:"event_title"`
}
