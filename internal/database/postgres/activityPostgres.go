package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gatherhub/gatherhub/internal/entity"
)

type activityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) ActivityRepository {
	return &activityRepository{db: db}
}

// Create appends an activity record
func (r *activityRepository) Create(ctx context.Context, activity *entity.Activity) error {
	query := `
		INSERT INTO activities (community_id, actor_id, kind, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		activity.CommunityID,
		activity.ActorID,
		activity.Kind,
		activity.Message,
		now,
	).Scan(&activity.ID)

	if err != nil {
		return fmt.Errorf("failed to create activity: %v", err)
	}

	activity.CreatedAt = now
	return nil
}

// GetByCommunity retrieves a community's activity feed, newest first
func (r *activityRepository) GetByCommunity(ctx context.Context, communityID int64, limit int) ([]*entity.Activity, error) {
	query := `
		SELECT id, community_id, actor_id, kind, message, created_at
		FROM activities
		WHERE community_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, communityID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get activities: %v", err)
	}
	defer rows.Close()

	var activities []*entity.Activity
	for rows.Next() {
		var activity entity.Activity
		err := rows.Scan(
			&activity.ID,
			&activity.CommunityID,
			&activity.ActorID,
			&activity.Kind,
			&activity.Message,
			&activity.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %v", err)
		}
		activities = append(activities, &activity)
	}

	return activities, rows.Err()
}
