package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gatherhub/gatherhub/internal/entity"
)

type communityRepository struct {
	db *sql.DB
}

func NewCommunityRepository(db *sql.DB) CommunityRepository {
	return &communityRepository{db: db}
}

// Create creates a new community
func (r *communityRepository) Create(ctx context.Context, community *entity.Community) error {
	query := `
		INSERT INTO communities (name, description, tags, active, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, $4, $4)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		community.Name,
		community.Description,
		community.Tags,
		now,
	).Scan(&community.ID)

	if err != nil {
		return fmt.Errorf("failed to create community: %v", err)
	}

	community.Active = true
	community.CreatedAt = now
	community.UpdatedAt = now

	return nil
}

// GetByID retrieves a community by its ID, including soft-deleted rows.
// Callers decide whether a deleted community is an error for their operation.
func (r *communityRepository) GetByID(ctx context.Context, id int64) (*entity.Community, error) {
	query := `
		SELECT
			id, name, description, tags, active,
			deactivated_at, deactivated_by, deleted_at, deleted_by,
			created_at, updated_at
		FROM communities
		WHERE id = $1
	`

	var community entity.Community
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&community.ID,
		&community.Name,
		&community.Description,
		&community.Tags,
		&community.Active,
		&community.DeactivatedAt,
		&community.DeactivatedBy,
		&community.DeletedAt,
		&community.DeletedBy,
		&community.CreatedAt,
		&community.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, entity.ErrCommunityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get community: %v", err)
	}

	return &community, nil
}

// Update updates mutable community fields
func (r *communityRepository) Update(ctx context.Context, community *entity.Community) error {
	query := `
		UPDATE communities
		SET name = $1, description = $2, tags = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL
	`

	now := time.Now()
	result, err := r.db.ExecContext(ctx, query,
		community.Name,
		community.Description,
		community.Tags,
		now,
		community.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update community: %v", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %v", err)
	}
	if rows == 0 {
		return entity.ErrCommunityNotFound
	}

	community.UpdatedAt = now
	return nil
}

// GetAll retrieves all non-deleted communities ordered by name
func (r *communityRepository) GetAll(ctx context.Context) ([]*entity.Community, error) {
	query := `
		SELECT
			id, name, description, tags, active,
			deactivated_at, deactivated_by, deleted_at, deleted_by,
			created_at, updated_at
		FROM communities
		WHERE deleted_at IS NULL
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get communities: %v", err)
	}
	defer rows.Close()

	var communities []*entity.Community
	for rows.Next() {
		var community entity.Community
		err := rows.Scan(
			&community.ID,
			&community.Name,
			&community.Description,
			&community.Tags,
			&community.Active,
			&community.DeactivatedAt,
			&community.DeactivatedBy,
			&community.DeletedAt,
			&community.DeletedBy,
			&community.CreatedAt,
			&community.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan community: %v", err)
		}
		communities = append(communities, &community)
	}

	return communities, rows.Err()
}

// Deactivate hides the community and its live events in one transaction, so a
// listing never observes an inactive community with visible events. Events
// keep their cancelled_at untouched; reactivating the community lets managers
// bring them back. Returns the IDs of the events it hid.
func (r *communityRepository) Deactivate(ctx context.Context, id, actorID int64) ([]int64, error) {
	return r.cascade(ctx, id, actorID, false)
}

// SoftDelete marks the community deleted and stamps the same deleted_at onto
// every event of the community that is not yet deleted. No row is removed.
// Deletion is terminal: there is no corresponding restore operation.
func (r *communityRepository) SoftDelete(ctx context.Context, id, actorID int64) ([]int64, error) {
	return r.cascade(ctx, id, actorID, true)
}

func (r *communityRepository) cascade(ctx context.Context, id, actorID int64, terminal bool) ([]int64, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	now := time.Now()

	var query string
	if terminal {
		query = `
			UPDATE communities
			SET active = FALSE, deleted_at = $1, deleted_by = $2, updated_at = $1
			WHERE id = $3 AND deleted_at IS NULL
		`
	} else {
		query = `
			UPDATE communities
			SET active = FALSE, deactivated_at = $1, deactivated_by = $2, updated_at = $1
			WHERE id = $3 AND deleted_at IS NULL
		`
	}

	result, err := tx.ExecContext(ctx, query, now, actorID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update community: %v", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get affected rows: %v", err)
	}
	if rows == 0 {
		return nil, entity.ErrCommunityNotFound
	}

	// Deletion stamps deleted_at onto every not-yet-deleted event;
	// deactivation only hides events that are still visible.
	var cascadeQuery string
	if terminal {
		cascadeQuery = `
			UPDATE events
			SET active = FALSE, deleted_at = $1, updated_at = $1
			WHERE community_id = $2 AND deleted_at IS NULL
			RETURNING id
		`
	} else {
		cascadeQuery = `
			UPDATE events
			SET active = FALSE, updated_at = $1
			WHERE community_id = $2 AND active = TRUE AND deleted_at IS NULL
			RETURNING id
		`
	}

	eventRows, err := tx.QueryContext(ctx, cascadeQuery, now, id)
	if err != nil {
		return nil, fmt.Errorf("failed to cascade to community events: %v", err)
	}
	defer eventRows.Close()

	var affectedIDs []int64
	for eventRows.Next() {
		var eventID int64
		if err := eventRows.Scan(&eventID); err != nil {
			return nil, fmt.Errorf("failed to scan affected event id: %v", err)
		}
		affectedIDs = append(affectedIDs, eventID)
	}
	if err := eventRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read affected event ids: %v", err)
	}
	eventRows.Close()

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %v", err)
	}

	return affectedIDs, nil
}

// Reactivate makes an inactive community visible again. Events hidden by the
// deactivation cascade are not resurrected here.
func (r *communityRepository) Reactivate(ctx context.Context, id, actorID int64) error {
	query := `
		UPDATE communities
		SET active = TRUE, deactivated_at = NULL, deactivated_by = NULL, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to reactivate community: %v", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %v", err)
	}
	if rows == 0 {
		return entity.ErrCommunityNotFound
	}

	return nil
}
