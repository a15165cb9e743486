package service

import (
	"context"
	"testing"
	"time"

	"github.com/gatherhub/gatherhub/config"
	"github.com/gatherhub/gatherhub/internal/entity"
	"github.com/gatherhub/gatherhub/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRSVPFixture(t *testing.T) (*fakeEventRepo, *fakeRSVPRepo, RSVPService) {
	t.Helper()
	eventRepo := newFakeEventRepo()
	rsvpRepo := newFakeRSVPRepo()
	svc := NewRSVPService(rsvpRepo, eventRepo, &fakePublisher{}, config.EventConfig{})
	return eventRepo, rsvpRepo, svc
}

func upcomingEvent(t *testing.T, repo *fakeEventRepo) *entity.Event {
	t.Helper()
	event := &entity.Event{
		CommunityID: 1,
		Title:       "Go meetup",
		StartTime:   time.Now().Add(24 * time.Hour),
		CreatedBy:   1,
	}
	require.NoError(t, repo.Create(context.Background(), event))
	return event
}

func TestSubmitRSVP(t *testing.T) {
	ctx := context.Background()

	t.Run("creates rsvp for upcoming event", func(t *testing.T) {
		eventRepo, _, svc := newRSVPFixture(t)
		event := upcomingEvent(t, eventRepo)

		rsvp, err := svc.SubmitRSVP(ctx, 42, event.ID, &SubmitRSVPRequest{Status: entity.RSVPStatusGoing})
		require.NoError(t, err)
		assert.Equal(t, entity.RSVPStatusGoing, rsvp.Status)
		assert.Equal(t, int64(42), rsvp.UserID)
	})

	t.Run("resubmit replaces status instead of adding a row", func(t *testing.T) {
		eventRepo, rsvpRepo, svc := newRSVPFixture(t)
		event := upcomingEvent(t, eventRepo)

		_, err := svc.SubmitRSVP(ctx, 42, event.ID, &SubmitRSVPRequest{Status: entity.RSVPStatusGoing})
		require.NoError(t, err)
		_, err = svc.SubmitRSVP(ctx, 42, event.ID, &SubmitRSVPRequest{Status: entity.RSVPStatusMaybe})
		require.NoError(t, err)

		all, err := rsvpRepo.GetByEvent(ctx, event.ID)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, entity.RSVPStatusMaybe, all[0].Status)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		eventRepo, _, svc := newRSVPFixture(t)
		event := upcomingEvent(t, eventRepo)

		_, err := svc.SubmitRSVP(ctx, 42, event.ID, &SubmitRSVPRequest{Status: "interested"})
		assert.ErrorIs(t, err, entity.ErrInvalidRSVPStatus)
	})

	t.Run("rejects cancelled event", func(t *testing.T) {
		eventRepo, _, svc := newRSVPFixture(t)
		event := upcomingEvent(t, eventRepo)
		require.NoError(t, eventRepo.Cancel(ctx, event.ID))

		_, err := svc.SubmitRSVP(ctx, 42, event.ID, &SubmitRSVPRequest{Status: entity.RSVPStatusGoing})
		assert.ErrorIs(t, err, entity.ErrEventCancelled)
	})

	t.Run("rejects completed event", func(t *testing.T) {
		eventRepo, _, svc := newRSVPFixture(t)
		end := time.Now().Add(-time.Hour)
		event := &entity.Event{
			CommunityID: 1,
			Title:       "Past event",
			StartTime:   time.Now().Add(-2 * time.Hour),
			EndTime:     &end,
		}
		require.NoError(t, eventRepo.Create(ctx, event))

		_, err := svc.SubmitRSVP(ctx, 42, event.ID, &SubmitRSVPRequest{Status: entity.RSVPStatusGoing})
		assert.ErrorIs(t, err, entity.ErrValidation)
	})

	t.Run("rejects unknown event", func(t *testing.T) {
		_, _, svc := newRSVPFixture(t)

		_, err := svc.SubmitRSVP(ctx, 42, 999, &SubmitRSVPRequest{Status: entity.RSVPStatusGoing})
		assert.ErrorIs(t, err, entity.ErrEventNotFound)
	})

	t.Run("retries once on concurrent conflict", func(t *testing.T) {
		eventRepo, rsvpRepo, svc := newRSVPFixture(t)
		event := upcomingEvent(t, eventRepo)
		rsvpRepo.upsertErrs = []error{entity.ErrConflict}

		rsvp, err := svc.SubmitRSVP(ctx, 42, event.ID, &SubmitRSVPRequest{Status: entity.RSVPStatusGoing})
		require.NoError(t, err)
		assert.Equal(t, entity.RSVPStatusGoing, rsvp.Status)
	})

	t.Run("gives up after second conflict", func(t *testing.T) {
		eventRepo, rsvpRepo, svc := newRSVPFixture(t)
		event := upcomingEvent(t, eventRepo)
		rsvpRepo.upsertErrs = []error{entity.ErrConflict, entity.ErrConflict}

		_, err := svc.SubmitRSVP(ctx, 42, event.ID, &SubmitRSVPRequest{Status: entity.RSVPStatusGoing})
		assert.ErrorIs(t, err, entity.ErrConflict)
	})

	t.Run("confirmation enqueues a notification for the user", func(t *testing.T) {
		eventRepo := newFakeEventRepo()
		rsvpRepo := newFakeRSVPRepo()
		publisher := &fakePublisher{}
		svc := NewRSVPService(rsvpRepo, eventRepo, publisher, config.EventConfig{})
		event := upcomingEvent(t, eventRepo)

		_, err := svc.SubmitRSVP(ctx, 42, event.ID, &SubmitRSVPRequest{Status: entity.RSVPStatusGoing})
		require.NoError(t, err)

		require.Equal(t, []queue.TaskType{queue.TaskTypeSendNotification}, publisher.taskTypes())
		task := publisher.tasks[0]
		assert.Equal(t, int64(42), task.GetInt64("user_id"))
		assert.Equal(t, event.ID, task.GetInt64("event_id"))
		assert.Contains(t, task.GetString("message"), "going")
	})

	t.Run("queue failure does not fail the rsvp", func(t *testing.T) {
		eventRepo := newFakeEventRepo()
		rsvpRepo := newFakeRSVPRepo()
		publisher := &fakePublisher{failed: true}
		svc := NewRSVPService(rsvpRepo, eventRepo, publisher, config.EventConfig{})
		event := upcomingEvent(t, eventRepo)

		rsvp, err := svc.SubmitRSVP(ctx, 42, event.ID, &SubmitRSVPRequest{Status: entity.RSVPStatusGoing})
		require.NoError(t, err)
		assert.Equal(t, entity.RSVPStatusGoing, rsvp.Status)
	})

	t.Run("capacity error propagates unchanged", func(t *testing.T) {
		eventRepo, rsvpRepo, svc := newRSVPFixture(t)
		event := upcomingEvent(t, eventRepo)
		rsvpRepo.upsertErrs = []error{entity.ErrCapacityExceeded}

		_, err := svc.SubmitRSVP(ctx, 42, event.ID, &SubmitRSVPRequest{Status: entity.RSVPStatusGoing})
		assert.ErrorIs(t, err, entity.ErrCapacityExceeded)
	})
}

func TestWithdrawRSVP(t *testing.T) {
	ctx := context.Background()

	t.Run("removes existing rsvp", func(t *testing.T) {
		eventRepo, _, svc := newRSVPFixture(t)
		event := upcomingEvent(t, eventRepo)

		_, err := svc.SubmitRSVP(ctx, 42, event.ID, &SubmitRSVPRequest{Status: entity.RSVPStatusGoing})
		require.NoError(t, err)

		require.NoError(t, svc.WithdrawRSVP(ctx, 42, event.ID))

		_, err = svc.GetRSVP(ctx, 42, event.ID)
		assert.ErrorIs(t, err, entity.ErrRSVPNotFound)
	})

	t.Run("withdrawing nothing reports not found", func(t *testing.T) {
		eventRepo, _, svc := newRSVPFixture(t)
		event := upcomingEvent(t, eventRepo)

		err := svc.WithdrawRSVP(ctx, 42, event.ID)
		assert.ErrorIs(t, err, entity.ErrRSVPNotFound)
	})

	t.Run("withdrawal enqueues a notification for the user", func(t *testing.T) {
		eventRepo := newFakeEventRepo()
		rsvpRepo := newFakeRSVPRepo()
		publisher := &fakePublisher{}
		svc := NewRSVPService(rsvpRepo, eventRepo, publisher, config.EventConfig{})
		event := upcomingEvent(t, eventRepo)

		_, err := svc.SubmitRSVP(ctx, 42, event.ID, &SubmitRSVPRequest{Status: entity.RSVPStatusGoing})
		require.NoError(t, err)
		require.NoError(t, svc.WithdrawRSVP(ctx, 42, event.ID))

		types := publisher.taskTypes()
		require.Len(t, types, 2)
		task := publisher.tasks[1]
		assert.Equal(t, int64(42), task.GetInt64("user_id"))
		assert.Contains(t, task.GetString("message"), "withdrawn")
	})
}
