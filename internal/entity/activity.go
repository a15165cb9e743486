package entity

import "time"

type ActivityKind string

const (
	ActivityEventCreated         ActivityKind = "event_created"
	ActivityEventCancelled       ActivityKind = "event_cancelled"
	ActivityCommunityDeactivated ActivityKind = "community_deactivated"
	ActivityCommunityReactivated ActivityKind = "community_reactivated"
)

// Activity is an append-only audit record in a community's feed. Writes are
// best-effort and must never block the mutation that produced them.
type Activity struct {
	ID          int64        `json:"id" db:"id"`
	CommunityID int64        `json:"community_id" db:"community_id"`
	ActorID     int64        `json:"actor_id" db:"actor_id"`
	Kind        ActivityKind `json:"kind" db:"kind"`
	Message     string       `json:"message" db:"message"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}
