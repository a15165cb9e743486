package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gatherhub/gatherhub/internal/entity"
)

type profileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// Upsert creates or fully replaces a user's profile
func (r *profileRepository) Upsert(ctx context.Context, profile *entity.Profile) error {
	query := `
		INSERT INTO profiles (
			user_id, name, interests, custom_interests, experience_level,
			location, telegram_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (user_id)
		DO UPDATE SET
			name = EXCLUDED.name,
			interests = EXCLUDED.interests,
			custom_interests = EXCLUDED.custom_interests,
			experience_level = EXCLUDED.experience_level,
			location = EXCLUDED.location,
			telegram_id = EXCLUDED.telegram_id,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		profile.UserID,
		profile.Name,
		profile.Interests,
		profile.CustomInterests,
		profile.ExperienceLevel,
		profile.Location,
		profile.TelegramID,
		now,
	).Scan(&profile.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert profile: %v", err)
	}

	profile.UpdatedAt = now
	return nil
}

// GetByUserID retrieves a user's profile
func (r *profileRepository) GetByUserID(ctx context.Context, userID int64) (*entity.Profile, error) {
	query := `
		SELECT user_id, name, interests, custom_interests, experience_level,
			location, telegram_id, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	var profile entity.Profile
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.Name,
		&profile.Interests,
		&profile.CustomInterests,
		&profile.ExperienceLevel,
		&profile.Location,
		&profile.TelegramID,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, entity.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %v", err)
	}

	return &profile, nil
}
