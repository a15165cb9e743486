package service

import (
	"context"
	"fmt"

	repository "github.com/gatherhub/gatherhub/internal/database/postgres"
	"github.com/gatherhub/gatherhub/internal/entity"
	"github.com/gatherhub/gatherhub/pkg/queue"
)

// CreateCommunityRequest represents the data needed to create a community
type CreateCommunityRequest struct {
	Name        string   `json:"name" binding:"required,min=1,max=255"`
	Description string   `json:"description" binding:"max=1000"`
	Tags        []string `json:"tags" binding:"max=20"`
}

// UpdateCommunityRequest represents the data needed to update a community
type UpdateCommunityRequest struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// LifecycleResult is the outcome of a community lifecycle transition,
// including the events the cascade touched and the side-effect report.
type LifecycleResult struct {
	Community        *entity.Community  `json:"community"`
	AffectedEventIDs []int64            `json:"affected_event_ids,omitempty"`
	SideEffects      []SideEffectResult `json:"side_effects,omitempty"`
}

type communityService struct {
	communityRepo  repository.CommunityRepository
	membershipRepo repository.MembershipRepository
	activityRepo   repository.ActivityRepository
	publisher      TaskPublisher
}

// NewCommunityService creates a new instance of CommunityService
func NewCommunityService(
	communityRepo repository.CommunityRepository,
	membershipRepo repository.MembershipRepository,
	activityRepo repository.ActivityRepository,
	publisher TaskPublisher,
) CommunityService {
	return &communityService{
		communityRepo:  communityRepo,
		membershipRepo: membershipRepo,
		activityRepo:   activityRepo,
		publisher:      publisher,
	}
}

func (s *communityService) CreateCommunity(ctx context.Context, actorID int64, req *CreateCommunityRequest) (*entity.Community, error) {
	community := &entity.Community{
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
	}

	if err := s.communityRepo.Create(ctx, community); err != nil {
		return nil, fmt.Errorf("failed to create community: %w", err)
	}

	// Creator becomes the community admin
	membership := &entity.Membership{
		CommunityID: community.ID,
		UserID:      actorID,
		Role:        entity.RoleAdmin,
	}
	if err := s.membershipRepo.Upsert(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to create admin membership: %w", err)
	}

	return community, nil
}

func (s *communityService) GetCommunity(ctx context.Context, id int64) (*entity.Community, error) {
	community, err := s.communityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if community.DeletedAt != nil {
		return nil, entity.ErrCommunityNotFound
	}

	return community, nil
}

func (s *communityService) GetAllCommunities(ctx context.Context) ([]*entity.Community, error) {
	communities, err := s.communityRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get communities: %w", err)
	}

	return communities, nil
}

func (s *communityService) UpdateCommunity(ctx context.Context, actorID, id int64, req *UpdateCommunityRequest) (*entity.Community, error) {
	community, err := s.getManaged(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		community.Name = *req.Name
	}
	if req.Description != nil {
		community.Description = *req.Description
	}
	if req.Tags != nil {
		community.Tags = *req.Tags
	}

	if err := s.communityRepo.Update(ctx, community); err != nil {
		return nil, fmt.Errorf("failed to update community: %w", err)
	}

	return community, nil
}

func (s *communityService) DeactivateCommunity(ctx context.Context, actorID, id int64) (*LifecycleResult, error) {
	if _, err := s.getManaged(ctx, actorID, id); err != nil {
		return nil, err
	}

	hiddenIDs, err := s.communityRepo.Deactivate(ctx, id, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate community: %w", err)
	}

	community, err := s.communityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &LifecycleResult{
		Community:        community,
		AffectedEventIDs: hiddenIDs,
	}
	result.SideEffects = s.lifecycleSideEffects(ctx, community, actorID, entity.ActivityCommunityDeactivated,
		hiddenIDs, "The event is on hold while its community is deactivated.")

	return result, nil
}

func (s *communityService) ReactivateCommunity(ctx context.Context, actorID, id int64) (*LifecycleResult, error) {
	community, err := s.communityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if community.DeletedAt != nil {
		return nil, entity.ErrCommunityDeleted
	}

	if err := s.requireManager(ctx, actorID, id); err != nil {
		return nil, err
	}

	if err := s.communityRepo.Reactivate(ctx, id, actorID); err != nil {
		return nil, fmt.Errorf("failed to reactivate community: %w", err)
	}

	community, err = s.communityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &LifecycleResult{Community: community}
	result.SideEffects = s.lifecycleSideEffects(ctx, community, actorID, entity.ActivityCommunityReactivated, nil, "")

	return result, nil
}

func (s *communityService) DeleteCommunity(ctx context.Context, actorID, id int64) (*LifecycleResult, error) {
	community, err := s.communityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if community.DeletedAt != nil {
		return nil, entity.ErrCommunityDeleted
	}

	if err := s.requireManager(ctx, actorID, id); err != nil {
		return nil, err
	}

	deletedIDs, err := s.communityRepo.SoftDelete(ctx, id, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete community: %w", err)
	}

	community, err = s.communityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &LifecycleResult{
		Community:        community,
		AffectedEventIDs: deletedIDs,
	}

	// No activity entry for deletion: the feed belongs to the community that
	// just went away. Attendees of the removed events are still notified.
	for _, eventID := range deletedIDs {
		result.SideEffects = append(result.SideEffects,
			s.notifyEventUnavailable(ctx, eventID, "The event has been cancelled: its community was removed."))
	}

	return result, nil
}

func (s *communityService) JoinCommunity(ctx context.Context, userID, communityID int64) (*entity.Membership, error) {
	community, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if community.DeletedAt != nil {
		return nil, entity.ErrCommunityDeleted
	}
	if !community.Active {
		return nil, entity.ErrCommunityInactive
	}

	// Joining twice keeps the existing role
	if existing, err := s.membershipRepo.Get(ctx, communityID, userID); err == nil {
		return existing, nil
	}

	membership := &entity.Membership{
		CommunityID: communityID,
		UserID:      userID,
		Role:        entity.RoleMember,
	}
	if err := s.membershipRepo.Upsert(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to join community: %w", err)
	}

	return membership, nil
}

func (s *communityService) LeaveCommunity(ctx context.Context, userID, communityID int64) error {
	return s.membershipRepo.Delete(ctx, communityID, userID)
}

func (s *communityService) SetMemberRole(ctx context.Context, actorID, communityID, userID int64, role entity.MemberRole) (*entity.Membership, error) {
	if role != entity.RoleAdmin && role != entity.RoleCoAdmin && role != entity.RoleMember {
		return nil, fmt.Errorf("%w: unknown role %q", entity.ErrValidation, role)
	}

	// Only the admin may change roles
	actorMembership, err := s.membershipRepo.Get(ctx, communityID, actorID)
	if err != nil {
		return nil, entity.ErrAuthorizationDenied
	}
	if actorMembership.Role != entity.RoleAdmin {
		return nil, entity.ErrAuthorizationDenied
	}

	membership, err := s.membershipRepo.Get(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}

	membership.Role = role
	if err := s.membershipRepo.Upsert(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to update member role: %w", err)
	}

	return membership, nil
}

func (s *communityService) GetMembers(ctx context.Context, communityID int64) ([]*entity.Membership, error) {
	if _, err := s.GetCommunity(ctx, communityID); err != nil {
		return nil, err
	}

	return s.membershipRepo.GetByCommunity(ctx, communityID)
}

func (s *communityService) GetActivity(ctx context.Context, communityID int64, limit int) ([]*entity.Activity, error) {
	if _, err := s.GetCommunity(ctx, communityID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	return s.activityRepo.GetByCommunity(ctx, communityID, limit)
}

// getManaged loads a live community and checks the actor may manage it
func (s *communityService) getManaged(ctx context.Context, actorID, id int64) (*entity.Community, error) {
	community, err := s.communityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if community.DeletedAt != nil {
		return nil, entity.ErrCommunityDeleted
	}

	if err := s.requireManager(ctx, actorID, id); err != nil {
		return nil, err
	}

	return community, nil
}

func (s *communityService) requireManager(ctx context.Context, actorID, communityID int64) error {
	membership, err := s.membershipRepo.Get(ctx, communityID, actorID)
	if err != nil {
		return entity.ErrAuthorizationDenied
	}
	if !membership.Role.CanManage() {
		return entity.ErrAuthorizationDenied
	}

	return nil
}

func (s *communityService) lifecycleSideEffects(ctx context.Context, community *entity.Community, actorID int64, kind entity.ActivityKind, affectedIDs []int64, eventMessage string) []SideEffectResult {
	effects := []SideEffectResult{
		enqueue(ctx, s.publisher, "record_activity", &queue.Task{
			Type: queue.TaskTypeRecordActivity,
			Data: map[string]interface{}{
				"community_id": community.ID,
				"actor_id":     actorID,
				"kind":         string(kind),
				"message":      fmt.Sprintf("community %q: %s", community.Name, kind),
			},
		}),
	}

	for _, eventID := range affectedIDs {
		effects = append(effects, s.notifyEventUnavailable(ctx, eventID, eventMessage))
	}

	return effects
}

func (s *communityService) notifyEventUnavailable(ctx context.Context, eventID int64, message string) SideEffectResult {
	return enqueue(ctx, s.publisher, "send_notification", &queue.Task{
		Type: queue.TaskTypeSendNotification,
		Data: map[string]interface{}{
			"event_id": eventID,
			"message":  message,
		},
	})
}
