package service

import (
	"context"

	"github.com/gatherhub/gatherhub/internal/entity"
)

type CommunityService interface {
	// Основные операции
	CreateCommunity(ctx context.Context, actorID int64, req *CreateCommunityRequest) (*entity.Community, error)
	GetCommunity(ctx context.Context, id int64) (*entity.Community, error)
	GetAllCommunities(ctx context.Context) ([]*entity.Community, error)
	UpdateCommunity(ctx context.Context, actorID, id int64, req *UpdateCommunityRequest) (*entity.Community, error)

	// Lifecycle operations. Deactivate and Delete cascade-cancel the
	// community's events; Reactivate does not resurrect them.
	DeactivateCommunity(ctx context.Context, actorID, id int64) (*LifecycleResult, error)
	ReactivateCommunity(ctx context.Context, actorID, id int64) (*LifecycleResult, error)
	DeleteCommunity(ctx context.Context, actorID, id int64) (*LifecycleResult, error)

	// Membership operations
	JoinCommunity(ctx context.Context, userID, communityID int64) (*entity.Membership, error)
	LeaveCommunity(ctx context.Context, userID, communityID int64) error
	SetMemberRole(ctx context.Context, actorID, communityID, userID int64, role entity.MemberRole) (*entity.Membership, error)
	GetMembers(ctx context.Context, communityID int64) ([]*entity.Membership, error)

	// Activity feed
	GetActivity(ctx context.Context, communityID int64, limit int) ([]*entity.Activity, error)
}

type EventService interface {
	// Основные операции
	CreateEvent(ctx context.Context, actorID int64, req *CreateEventRequest) (*EventResult, error)
	GetEvent(ctx context.Context, id int64) (*entity.EventWithAttendance, error)
	GetCommunityEvents(ctx context.Context, communityID int64) ([]*entity.EventWithAttendance, error)
	GetUpcomingEvents(ctx context.Context, limit int) ([]*entity.EventWithAttendance, error)
	UpdateEvent(ctx context.Context, actorID, id int64, req *UpdateEventRequest) (*entity.Event, error)
	CancelEvent(ctx context.Context, actorID, id int64) (*EventResult, error)

	// SendDueReminders publishes reminder tasks for events starting inside the
	// lead window, called periodically by the scheduler.
	SendDueReminders(ctx context.Context) error
}

type RSVPService interface {
	SubmitRSVP(ctx context.Context, userID, eventID int64, req *SubmitRSVPRequest) (*entity.RSVP, error)
	WithdrawRSVP(ctx context.Context, userID, eventID int64) error
	GetRSVP(ctx context.Context, userID, eventID int64) (*entity.RSVP, error)
	GetEventRSVPs(ctx context.Context, eventID int64) ([]*entity.RSVP, error)
}

type TagService interface {
	// GetPersonalizedTags aggregates tags from the user's memberships, going
	// RSVPs, and profile into a ranked, deduplicated list. A non-zero
	// communityID scopes the membership and RSVP sources to one community.
	GetPersonalizedTags(ctx context.Context, userID, communityID int64) ([]string, error)
}

type SearchService interface {
	// SearchEvents ranks events by embedding similarity to the query when the
	// embedding dependency is available, and falls back to text matching when
	// it is not. The result reports which mode served the request.
	SearchEvents(ctx context.Context, query string, limit int) (*SearchResult, error)
}

type ProfileService interface {
	UpsertProfile(ctx context.Context, userID int64, req *UpsertProfileRequest) (*entity.Profile, error)
	GetProfile(ctx context.Context, userID int64) (*entity.Profile, error)
}
