package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gatherhub/gatherhub/internal/entity"
)

type membershipRepository struct {
	db *sql.DB
}

func NewMembershipRepository(db *sql.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

// Upsert creates a membership or updates the role of an existing one
func (r *membershipRepository) Upsert(ctx context.Context, membership *entity.Membership) error {
	query := `
		INSERT INTO memberships (community_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (community_id, user_id)
		DO UPDATE SET role = EXCLUDED.role
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		membership.CommunityID,
		membership.UserID,
		membership.Role,
		time.Now(),
	).Scan(&membership.ID, &membership.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert membership: %v", err)
	}

	return nil
}

// Get retrieves a user's membership in a community
func (r *membershipRepository) Get(ctx context.Context, communityID, userID int64) (*entity.Membership, error) {
	query := `
		SELECT id, community_id, user_id, role, created_at
		FROM memberships
		WHERE community_id = $1 AND user_id = $2
	`

	var membership entity.Membership
	err := r.db.QueryRowContext(ctx, query, communityID, userID).Scan(
		&membership.ID,
		&membership.CommunityID,
		&membership.UserID,
		&membership.Role,
		&membership.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, entity.ErrMembershipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %v", err)
	}

	return &membership, nil
}

// Delete removes a user's membership from a community
func (r *membershipRepository) Delete(ctx context.Context, communityID, userID int64) error {
	query := `DELETE FROM memberships WHERE community_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, communityID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %v", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %v", err)
	}
	if rows == 0 {
		return entity.ErrMembershipNotFound
	}

	return nil
}

// GetByCommunity retrieves all memberships of a community
func (r *membershipRepository) GetByCommunity(ctx context.Context, communityID int64) ([]*entity.Membership, error) {
	query := `
		SELECT id, community_id, user_id, role, created_at
		FROM memberships
		WHERE community_id = $1
		ORDER BY created_at
	`

	return r.queryMemberships(ctx, query, communityID)
}

// GetByUser retrieves all memberships of a user
func (r *membershipRepository) GetByUser(ctx context.Context, userID int64) ([]*entity.Membership, error) {
	query := `
		SELECT id, community_id, user_id, role, created_at
		FROM memberships
		WHERE user_id = $1
		ORDER BY created_at
	`

	return r.queryMemberships(ctx, query, userID)
}

// CollectCommunityTags returns the tags of every active community the user
// belongs to, one row per tag occurrence. A non-zero communityID narrows the
// collection to that community.
func (r *membershipRepository) CollectCommunityTags(ctx context.Context, userID, communityID int64) ([]string, error) {
	query := `
		SELECT unnest(c.tags)
		FROM memberships m
		JOIN communities c ON c.id = m.community_id
		WHERE m.user_id = $1 AND c.active = TRUE AND c.deleted_at IS NULL
			AND ($2 = 0 OR c.id = $2)
	`

	rows, err := r.db.QueryContext(ctx, query, userID, communityID)
	if err != nil {
		return nil, fmt.Errorf("failed to collect community tags: %v", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %v", err)
		}
		tags = append(tags, tag)
	}

	return tags, rows.Err()
}

func (r *membershipRepository) queryMemberships(ctx context.Context, query string, args ...interface{}) ([]*entity.Membership, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %v", err)
	}
	defer rows.Close()

	var memberships []*entity.Membership
	for rows.Next() {
		var membership entity.Membership
		err := rows.Scan(
			&membership.ID,
			&membership.CommunityID,
			&membership.UserID,
			&membership.Role,
			&membership.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %v", err)
		}
		memberships = append(memberships, &membership)
	}

	return memberships, rows.Err()
}
