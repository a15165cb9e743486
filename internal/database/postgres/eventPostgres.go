package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gatherhub/gatherhub/internal/entity"
	"github.com/lib/pq"
)

type eventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) EventRepository {
	return &eventRepository{db: db}
}

const eventColumns = `
	id, community_id, title, description, start_time, end_time, capacity,
	tags, active, cancelled_at, deleted_at, embedding, reminder_sent,
	created_by, created_at, updated_at
`

func scanEvent(scanner interface{ Scan(...interface{}) error }) (*entity.Event, error) {
	var event entity.Event
	err := scanner.Scan(
		&event.ID,
		&event.CommunityID,
		&event.Title,
		&event.Description,
		&event.StartTime,
		&event.EndTime,
		&event.Capacity,
		&event.Tags,
		&event.Active,
		&event.CancelledAt,
		&event.DeletedAt,
		&event.Embedding,
		&event.ReminderSent,
		&event.CreatedBy,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// Create creates a new event
func (r *eventRepository) Create(ctx context.Context, event *entity.Event) error {
	query := `
		INSERT INTO events (
			community_id, title, description, start_time, end_time, capacity,
			tags, active, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $9, $9)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		event.CommunityID,
		event.Title,
		event.Description,
		event.StartTime,
		event.EndTime,
		event.Capacity,
		event.Tags,
		event.CreatedBy,
		now,
	).Scan(&event.ID)

	if err != nil {
		return fmt.Errorf("failed to create event: %v", err)
	}

	event.Active = true
	event.CreatedAt = now
	event.UpdatedAt = now

	return nil
}

// GetByID retrieves an event by its ID
func (r *eventRepository) GetByID(ctx context.Context, id int64) (*entity.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	event, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %v", err)
	}

	return event, nil
}

// Update updates mutable event fields. Changing the description clears the
// embedding so the backfill worker regenerates it.
func (r *eventRepository) Update(ctx context.Context, event *entity.Event) error {
	query := `
		UPDATE events
		SET title = $1, description = $2, start_time = $3, end_time = $4,
			capacity = $5, tags = $6,
			embedding = CASE WHEN description = $2 THEN embedding ELSE NULL END,
			updated_at = $7
		WHERE id = $8 AND cancelled_at IS NULL AND deleted_at IS NULL
	`

	now := time.Now()
	result, err := r.db.ExecContext(ctx, query,
		event.Title,
		event.Description,
		event.StartTime,
		event.EndTime,
		event.Capacity,
		event.Tags,
		now,
		event.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %v", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %v", err)
	}
	if rows == 0 {
		return entity.ErrEventNotFound
	}

	event.UpdatedAt = now
	return nil
}

// Cancel marks an event cancelled. Cancellation is terminal and idempotent at
// the storage level: cancelling an already cancelled event affects no rows.
func (r *eventRepository) Cancel(ctx context.Context, id int64) error {
	query := `
		UPDATE events
		SET active = FALSE, cancelled_at = $1, updated_at = $1
		WHERE id = $2 AND cancelled_at IS NULL AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to cancel event: %v", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %v", err)
	}
	if rows == 0 {
		return entity.ErrEventNotFound
	}

	return nil
}

// GetByCommunity retrieves the listable events of a community
func (r *eventRepository) GetByCommunity(ctx context.Context, communityID int64) ([]*entity.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE community_id = $1 AND active = TRUE AND deleted_at IS NULL
		ORDER BY start_time
	`

	return r.queryEvents(ctx, query, communityID)
}

// GetUpcoming retrieves listable events starting after the given time
func (r *eventRepository) GetUpcoming(ctx context.Context, from time.Time, limit int) ([]*entity.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE start_time > $1 AND active = TRUE AND deleted_at IS NULL
		ORDER BY start_time
		LIMIT $2
	`

	return r.queryEvents(ctx, query, from, limit)
}

// SearchByText performs a case-insensitive substring search over title and
// description, most recent first. This is the fallback path when embeddings
// are unavailable.
func (r *eventRepository) SearchByText(ctx context.Context, search string, limit int) ([]*entity.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE (title ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
			AND active = TRUE AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2
	`

	return r.queryEvents(ctx, query, search, limit)
}

// GetWithEmbedding retrieves listable events that already have an embedding,
// for in-process similarity ranking.
func (r *eventRepository) GetWithEmbedding(ctx context.Context, limit int) ([]*entity.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE embedding IS NOT NULL AND active = TRUE AND deleted_at IS NULL
		ORDER BY start_time
		LIMIT $1
	`

	return r.queryEvents(ctx, query, limit)
}

// UpdateEmbedding stores the description vector for an event
func (r *eventRepository) UpdateEmbedding(ctx context.Context, id int64, vector []float64) error {
	query := `UPDATE events SET embedding = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, pq.Float64Array(vector), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update event embedding: %v", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %v", err)
	}
	if rows == 0 {
		return entity.ErrEventNotFound
	}

	return nil
}

// GetMissingEmbedding retrieves listable events without an embedding, oldest
// first, for the backfill worker.
func (r *eventRepository) GetMissingEmbedding(ctx context.Context, limit int) ([]*entity.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE embedding IS NULL AND active = TRUE AND deleted_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`

	return r.queryEvents(ctx, query, limit)
}

// GetNeedingReminder retrieves active events starting inside [from, to) whose
// reminder has not been sent yet.
func (r *eventRepository) GetNeedingReminder(ctx context.Context, from, to time.Time) ([]*entity.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE start_time >= $1 AND start_time < $2
			AND reminder_sent = FALSE
			AND active = TRUE AND deleted_at IS NULL
		ORDER BY start_time
	`

	return r.queryEvents(ctx, query, from, to)
}

// MarkReminderSent flags an event so the reminder sweep skips it next time
func (r *eventRepository) MarkReminderSent(ctx context.Context, id int64) error {
	query := `UPDATE events SET reminder_sent = TRUE, updated_at = $1 WHERE id = $2`

	if _, err := r.db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("failed to mark reminder sent: %v", err)
	}

	return nil
}

func (r *eventRepository) queryEvents(ctx context.Context, query string, args ...interface{}) ([]*entity.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %v", err)
	}
	defer rows.Close()

	var events []*entity.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %v", err)
		}
		events = append(events, event)
	}

	return events, rows.Err()
}
