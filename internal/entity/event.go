package entity

import (
	"time"

	"github.com/lib/pq"
)

type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "upcoming"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

type Event struct {
	ID          int64          `json:"id" db:"id"`
	CommunityID int64          `json:"community_id" db:"community_id"`
	Title       string         `json:"title" db:"title"`
	Description string         `json:"description" db:"description"`
	StartTime   time.Time      `json:"start_time" db:"start_time"`
	EndTime     *time.Time     `json:"end_time,omitempty" db:"end_time"`
	Capacity    *int           `json:"capacity,omitempty" db:"capacity"`
	Tags        pq.StringArray `json:"tags" db:"tags"`
	Active      bool           `json:"active" db:"active"`
	CancelledAt *time.Time     `json:"cancelled_at,omitempty" db:"cancelled_at"`
	DeletedAt   *time.Time     `json:"deleted_at,omitempty" db:"deleted_at"`
	// Embedding is the description vector used by semantic search. It is
	// populated asynchronously and never exposed over the API.
	Embedding    pq.Float64Array `json:"-" db:"embedding"`
	ReminderSent bool            `json:"-" db:"reminder_sent"`
	CreatedBy    int64           `json:"created_by" db:"created_by"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// EventWithAttendance carries the derived status and the current going count
// alongside the raw event row.
type EventWithAttendance struct {
	Event
	Status     EventStatus `json:"status"`
	GoingCount int         `json:"going_count"`
}

// DeriveEventStatus computes the display status of an event from wall-clock
// time. Cancellation is terminal and wins over everything else. An event with
// no end time auto-completes after defaultDuration past its start; a zero
// defaultDuration disables auto-completion, so an open-ended event stays
// ongoing once started.
func DeriveEventStatus(start time.Time, end *time.Time, cancelledAt *time.Time, now time.Time, defaultDuration time.Duration) EventStatus {
	if cancelledAt != nil {
		return EventStatusCancelled
	}

	if now.Before(start) {
		return EventStatusUpcoming
	}

	effectiveEnd := end
	if effectiveEnd == nil && defaultDuration > 0 {
		e := start.Add(defaultDuration)
		effectiveEnd = &e
	}

	if effectiveEnd != nil && !now.Before(*effectiveEnd) {
		return EventStatusCompleted
	}

	return EventStatusOngoing
}

// Status derives the event's current status.
func (e *Event) Status(now time.Time, defaultDuration time.Duration) EventStatus {
	return DeriveEventStatus(e.StartTime, e.EndTime, e.CancelledAt, now, defaultDuration)
}

// Listable reports whether the event should appear in listings and search.
func (e *Event) Listable() bool {
	return e.Active && e.DeletedAt == nil
}
