package repository

import (
	"context"
	"time"

	"github.com/gatherhub/gatherhub/internal/entity"
)

type CommunityRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, community *entity.Community) error
	GetByID(ctx context.Context, id int64) (*entity.Community, error)
	Update(ctx context.Context, community *entity.Community) error
	GetAll(ctx context.Context) ([]*entity.Community, error)

	// Lifecycle operations. Deactivate hides the community's visible events
	// and SoftDelete stamps deleted_at onto its not-yet-deleted events, each
	// in the same transaction, returning the IDs of the events touched.
	// Reactivate never resurrects events.
	Deactivate(ctx context.Context, id, actorID int64) ([]int64, error)
	Reactivate(ctx context.Context, id, actorID int64) error
	SoftDelete(ctx context.Context, id, actorID int64) ([]int64, error)
}

type MembershipRepository interface {
	Upsert(ctx context.Context, membership *entity.Membership) error
	Get(ctx context.Context, communityID, userID int64) (*entity.Membership, error)
	Delete(ctx context.Context, communityID, userID int64) error
	GetByCommunity(ctx context.Context, communityID int64) ([]*entity.Membership, error)
	GetByUser(ctx context.Context, userID int64) ([]*entity.Membership, error)

	// CollectCommunityTags returns the tags of every active community the
	// user belongs to, duplicates preserved. A non-zero communityID narrows
	// the collection to that community.
	CollectCommunityTags(ctx context.Context, userID, communityID int64) ([]string, error)
}

type EventRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, event *entity.Event) error
	GetByID(ctx context.Context, id int64) (*entity.Event, error)
	Update(ctx context.Context, event *entity.Event) error
	Cancel(ctx context.Context, id int64) error
	GetByCommunity(ctx context.Context, communityID int64) ([]*entity.Event, error)
	GetUpcoming(ctx context.Context, from time.Time, limit int) ([]*entity.Event, error)

	// Search operations
	SearchByText(ctx context.Context, query string, limit int) ([]*entity.Event, error)
	GetWithEmbedding(ctx context.Context, limit int) ([]*entity.Event, error)

	// Embedding backfill
	UpdateEmbedding(ctx context.Context, id int64, vector []float64) error
	GetMissingEmbedding(ctx context.Context, limit int) ([]*entity.Event, error)

	// Reminder sweep
	GetNeedingReminder(ctx context.Context, from, to time.Time) ([]*entity.Event, error)
	MarkReminderSent(ctx context.Context, id int64) error
}

type RSVPRepository interface {
	// Upsert creates or updates the caller's RSVP inside a single transaction
	// that locks the event row and enforces capacity for 'going' responses.
	Upsert(ctx context.Context, rsvp *entity.RSVP) error
	GetByEventAndUser(ctx context.Context, eventID, userID int64) (*entity.RSVP, error)
	GetByEvent(ctx context.Context, eventID int64) ([]*entity.RSVP, error)
	Delete(ctx context.Context, eventID, userID int64) error

	// Statistical operations
	CountGoing(ctx context.Context, eventID int64) (int, error)

	// GetGoingContacts joins going RSVPs with attendee profiles for reminders.
	GetGoingContacts(ctx context.Context, eventID int64) ([]*entity.RSVPContact, error)

	// CollectGoingEventTags returns the tags of every listable event the user
	// is going to, duplicates preserved. A non-zero communityID narrows the
	// collection to events of that community.
	CollectGoingEventTags(ctx context.Context, userID, communityID int64) ([]string, error)
}

type ProfileRepository interface {
	Upsert(ctx context.Context, profile *entity.Profile) error
	GetByUserID(ctx context.Context, userID int64) (*entity.Profile, error)
}

type ActivityRepository interface {
	Create(ctx context.Context, activity *entity.Activity) error
	GetByCommunity(ctx context.Context, communityID int64, limit int) ([]*entity.Activity, error)
}
