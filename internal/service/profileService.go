package service

import (
	"context"
	"fmt"

	repository "github.com/gatherhub/gatherhub/internal/database/postgres"
	"github.com/gatherhub/gatherhub/internal/entity"
)

// UpsertProfileRequest represents the data needed to create or replace a profile
type UpsertProfileRequest struct {
	Name            string   `json:"name" binding:"required,min=1,max=255"`
	Interests       []string `json:"interests" binding:"max=50"`
	CustomInterests []string `json:"custom_interests" binding:"max=50"`
	ExperienceLevel string   `json:"experience_level" binding:"max=50"`
	Location        string   `json:"location" binding:"max=255"`
	TelegramID      string   `json:"telegram_id" binding:"max=100"`
}

type profileService struct {
	profileRepo repository.ProfileRepository
}

// NewProfileService creates a new instance of ProfileService
func NewProfileService(profileRepo repository.ProfileRepository) ProfileService {
	return &profileService{profileRepo: profileRepo}
}

func (s *profileService) UpsertProfile(ctx context.Context, userID int64, req *UpsertProfileRequest) (*entity.Profile, error) {
	profile := &entity.Profile{
		UserID:          userID,
		Name:            req.Name,
		Interests:       req.Interests,
		CustomInterests: req.CustomInterests,
		ExperienceLevel: req.ExperienceLevel,
		Location:        req.Location,
		TelegramID:      req.TelegramID,
	}

	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}

	return profile, nil
}

func (s *profileService) GetProfile(ctx context.Context, userID int64) (*entity.Profile, error) {
	return s.profileRepo.GetByUserID(ctx, userID)
}
