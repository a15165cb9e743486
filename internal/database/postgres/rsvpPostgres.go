package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gatherhub/gatherhub/internal/entity"
	"github.com/lib/pq"
)

type rsvpRepository struct {
	db *sql.DB
}

func NewRSVPRepository(db *sql.DB) RSVPRepository {
	return &rsvpRepository{db: db}
}

// Upsert creates or replaces the caller's RSVP in one transaction. The event
// row is locked FOR UPDATE first, so concurrent 'going' responses for the same
// event serialize on the capacity check: the count of other going attendees is
// taken under the lock, and the insert commits only if the caller still fits.
func (r *rsvpRepository) Upsert(ctx context.Context, rsvp *entity.RSVP) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	// Lock the event row for the duration of the capacity check
	var (
		capacity    *int
		active      bool
		cancelledAt *time.Time
		deletedAt   *time.Time
	)
	query := `
		SELECT capacity, active, cancelled_at, deleted_at
		FROM events
		WHERE id = $1
		FOR UPDATE
	`
	err = tx.QueryRowContext(ctx, query, rsvp.EventID).Scan(&capacity, &active, &cancelledAt, &deletedAt)
	if err == sql.ErrNoRows {
		return entity.ErrEventNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock event: %v", err)
	}

	if deletedAt != nil {
		return entity.ErrEventDeleted
	}
	if cancelledAt != nil || !active {
		return entity.ErrEventCancelled
	}

	// Capacity only constrains 'going' responses. The requester's own existing
	// row is excluded from the count so a going->going update never rejects.
	if rsvp.Status == entity.RSVPStatusGoing && capacity != nil {
		var goingCount int
		query = `
			SELECT COUNT(*) FROM rsvps
			WHERE event_id = $1 AND status = 'going' AND user_id <> $2
		`
		err = tx.QueryRowContext(ctx, query, rsvp.EventID, rsvp.UserID).Scan(&goingCount)
		if err != nil {
			return fmt.Errorf("failed to count going rsvps: %v", err)
		}

		if goingCount >= *capacity {
			return entity.ErrCapacityExceeded
		}
	}

	query = `
		INSERT INTO rsvps (event_id, user_id, status, guests, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (event_id, user_id)
		DO UPDATE SET status = EXCLUDED.status, guests = EXCLUDED.guests, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	now := time.Now()
	err = tx.QueryRowContext(ctx, query,
		rsvp.EventID,
		rsvp.UserID,
		rsvp.Status,
		rsvp.Guests,
		now,
	).Scan(&rsvp.ID, &rsvp.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return entity.ErrConflict
		}
		return fmt.Errorf("failed to upsert rsvp: %v", err)
	}

	rsvp.UpdatedAt = now

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

// GetByEventAndUser retrieves a user's RSVP for an event
func (r *rsvpRepository) GetByEventAndUser(ctx context.Context, eventID, userID int64) (*entity.RSVP, error) {
	query := `
		SELECT id, event_id, user_id, status, guests, created_at, updated_at
		FROM rsvps
		WHERE event_id = $1 AND user_id = $2
	`

	var rsvp entity.RSVP
	err := r.db.QueryRowContext(ctx, query, eventID, userID).Scan(
		&rsvp.ID,
		&rsvp.EventID,
		&rsvp.UserID,
		&rsvp.Status,
		&rsvp.Guests,
		&rsvp.CreatedAt,
		&rsvp.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, entity.ErrRSVPNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rsvp: %v", err)
	}

	return &rsvp, nil
}

// GetByEvent retrieves all RSVPs for an event
func (r *rsvpRepository) GetByEvent(ctx context.Context, eventID int64) ([]*entity.RSVP, error) {
	query := `
		SELECT id, event_id, user_id, status, guests, created_at, updated_at
		FROM rsvps
		WHERE event_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rsvps: %v", err)
	}
	defer rows.Close()

	var rsvps []*entity.RSVP
	for rows.Next() {
		var rsvp entity.RSVP
		err := rows.Scan(
			&rsvp.ID,
			&rsvp.EventID,
			&rsvp.UserID,
			&rsvp.Status,
			&rsvp.Guests,
			&rsvp.CreatedAt,
			&rsvp.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rsvp: %v", err)
		}
		rsvps = append(rsvps, &rsvp)
	}

	return rsvps, rows.Err()
}

// Delete removes a user's RSVP for an event
func (r *rsvpRepository) Delete(ctx context.Context, eventID, userID int64) error {
	query := `DELETE FROM rsvps WHERE event_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, eventID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete rsvp: %v", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %v", err)
	}
	if rows == 0 {
		return entity.ErrRSVPNotFound
	}

	return nil
}

// CountGoing counts the going RSVPs for an event
func (r *rsvpRepository) CountGoing(ctx context.Context, eventID int64) (int, error) {
	query := `SELECT COUNT(*) FROM rsvps WHERE event_id = $1 AND status = 'going'`

	var count int
	if err := r.db.QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count going rsvps: %v", err)
	}

	return count, nil
}

// GetGoingContacts joins going RSVPs with attendee profiles. Attendees without
// a profile still get a row with empty contact details.
func (r *rsvpRepository) GetGoingContacts(ctx context.Context, eventID int64) ([]*entity.RSVPContact, error) {
	query := `
		SELECT r.event_id, r.user_id,
			COALESCE(p.name, ''), COALESCE(p.telegram_id, ''), e.title
		FROM rsvps r
		JOIN events e ON e.id = r.event_id
		LEFT JOIN profiles p ON p.user_id = r.user_id
		WHERE r.event_id = $1 AND r.status = 'going'
		ORDER BY r.created_at
	`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get going contacts: %v", err)
	}
	defer rows.Close()

	var contacts []*entity.RSVPContact
	for rows.Next() {
		var contact entity.RSVPContact
		err := rows.Scan(
			&contact.EventID,
			&contact.UserID,
			&contact.UserName,
			&contact.TelegramID,
			&contact.EventTitle,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan going contact: %v", err)
		}
		contacts = append(contacts, &contact)
	}

	return contacts, rows.Err()
}

// CollectGoingEventTags returns the tags of every listable event the user is
// going to, one row per tag occurrence. A non-zero communityID narrows the
// collection to events of that community.
func (r *rsvpRepository) CollectGoingEventTags(ctx context.Context, userID, communityID int64) ([]string, error) {
	query := `
		SELECT unnest(e.tags)
		FROM rsvps r
		JOIN events e ON e.id = r.event_id
		WHERE r.user_id = $1 AND r.status = 'going'
			AND e.active = TRUE AND e.deleted_at IS NULL
			AND ($2 = 0 OR e.community_id = $2)
	`

	rows, err := r.db.QueryContext(ctx, query, userID, communityID)
	if err != nil {
		return nil, fmt.Errorf("failed to collect event tags: %v", err)
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
