package service

import (
	"context"
	"fmt"

	"github.com/gatherhub/gatherhub/config"
	repository "github.com/gatherhub/gatherhub/internal/database/postgres"
	"github.com/gatherhub/gatherhub/internal/entity"
)

type tagService struct {
	membershipRepo repository.MembershipRepository
	rsvpRepo       repository.RSVPRepository
	profileRepo    repository.ProfileRepository
	limit          int
}

// NewTagService creates a new instance of TagService
func NewTagService(
	membershipRepo repository.MembershipRepository,
	rsvpRepo repository.RSVPRepository,
	profileRepo repository.ProfileRepository,
	cfg config.TagsConfig,
) TagService {
	limit := cfg.Limit
	if limit <= 0 {
		limit = entity.DefaultTagLimit
	}

	return &tagService{
		membershipRepo: membershipRepo,
		rsvpRepo:       rsvpRepo,
		profileRepo:    profileRepo,
		limit:          limit,
	}
}

// GetPersonalizedTags merges tag candidates from three sources: communities
// the user belongs to, events they are going to, and their profile. A user
// with no memberships, RSVPs, or profile gets an empty list, not an error.
// A non-zero communityID scopes the membership and RSVP sources to that
// community; profile attributes always contribute.
func (s *tagService) GetPersonalizedTags(ctx context.Context, userID, communityID int64) ([]string, error) {
	var candidates []entity.TagCandidate

	communityTags, err := s.membershipRepo.CollectCommunityTags(ctx, userID, communityID)
	if err != nil {
		return nil, fmt.Errorf("failed to collect community tags: %w", err)
	}
	for _, tag := range communityTags {
		candidates = append(candidates, entity.TagCandidate{Name: tag, Priority: entity.TagPriorityMembership})
	}

	eventTags, err := s.rsvpRepo.CollectGoingEventTags(ctx, userID, communityID)
	if err != nil {
		return nil, fmt.Errorf("failed to collect event tags: %w", err)
	}
	for _, tag := range eventTags {
		candidates = append(candidates, entity.TagCandidate{Name: tag, Priority: entity.TagPriorityRSVP})
	}

	// A missing profile just contributes nothing
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil && err != entity.ErrProfileNotFound {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile != nil {
		for _, tag := range profile.Interests {
			candidates = append(candidates, entity.TagCandidate{Name: tag, Priority: entity.TagPriorityInterest})
		}
		for _, tag := range profile.CustomInterests {
			candidates = append(candidates, entity.TagCandidate{Name: tag, Priority: entity.TagPriorityCustomInterest})
		}
		candidates = append(candidates,
			entity.TagCandidate{Name: profile.ExperienceLevel, Priority: entity.TagPriorityExperience},
			entity.TagCandidate{Name: profile.Location, Priority: entity.TagPriorityLocation},
		)
	}

	return entity.RankTags(candidates, s.limit), nil
}
