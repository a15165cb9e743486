package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/gatherhub/gatherhub/internal/database/postgres"
	"github.com/gatherhub/gatherhub/internal/entity"
	"github.com/gatherhub/gatherhub/pkg/queue"
	"github.com/sirupsen/logrus"
)

const taskTimeout = 30 * time.Second

// Notifier delivers a message to one chat. Satisfied by the telegram bot.
type Notifier interface {
	SendMessage(chatID, text string) error
}

// TaskProcessor executes the best-effort tasks the services enqueue. It is
// the single queue subscriber; Handle is the callback given to Subscribe.
type TaskProcessor struct {
	activityRepo repository.ActivityRepository
	eventRepo    repository.EventRepository
	rsvpRepo     repository.RSVPRepository
	profileRepo  repository.ProfileRepository
	embedder     Embedder
	notifier     Notifier
	logger       *logrus.Logger
}

func NewTaskProcessor(
	activityRepo repository.ActivityRepository,
	eventRepo repository.EventRepository,
	rsvpRepo repository.RSVPRepository,
	profileRepo repository.ProfileRepository,
	embedder Embedder,
	notifier Notifier,
	logger *logrus.Logger,
) *TaskProcessor {
	return &TaskProcessor{
		activityRepo: activityRepo,
		eventRepo:    eventRepo,
		rsvpRepo:     rsvpRepo,
		profileRepo:  profileRepo,
		embedder:     embedder,
		notifier:     notifier,
		logger:       logger,
	}
}

// Handle dispatches a task by type. Returned errors drive the queue's retry
// logic, so permanent failures are reported with non-retryable wording.
func (p *TaskProcessor) Handle(task *queue.Task) error {
	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	p.logger.WithFields(logrus.Fields{
		"task_id":   task.ID,
		"task_type": task.Type,
		"attempt":   task.Attempts,
	}).Info("processing task")

	switch task.Type {
	case queue.TaskTypeRecordActivity:
		return p.recordActivity(ctx, task)
	case queue.TaskTypeGenerateEmbedding:
		return p.generateEmbedding(ctx, task)
	case queue.TaskTypeSendNotification:
		return p.sendNotification(ctx, task)
	case queue.TaskTypeEventReminder:
		return p.sendReminder(ctx, task)
	default:
		return fmt.Errorf("invalid task type: %s", task.Type)
	}
}

func (p *TaskProcessor) recordActivity(ctx context.Context, task *queue.Task) error {
	activity := &entity.Activity{
		CommunityID: task.GetInt64("community_id"),
		ActorID:     task.GetInt64("actor_id"),
		Kind:        entity.ActivityKind(task.GetString("kind")),
		Message:     task.GetString("message"),
	}

	if activity.CommunityID == 0 || activity.Kind == "" {
		return fmt.Errorf("invalid activity task: community_id and kind are required")
	}

	return p.activityRepo.Create(ctx, activity)
}

func (p *TaskProcessor) generateEmbedding(ctx context.Context, task *queue.Task) error {
	if p.embedder == nil {
		p.logger.WithField("task_id", task.ID).Debug("embedder disabled, skipping task")
		return nil
	}

	eventID := task.GetInt64("event_id")
	event, err := p.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		// The event may have been removed since the task was enqueued
		return fmt.Errorf("event %d not found: %v", eventID, err)
	}

	text := strings.TrimSpace(event.Title + "\n" + event.Description)
	vector, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed event %d: %w", eventID, err)
	}

	return p.eventRepo.UpdateEmbedding(ctx, eventID, vector)
}

// sendNotification delivers to a single user when the task names one,
// otherwise to every going attendee of the event.
func (p *TaskProcessor) sendNotification(ctx context.Context, task *queue.Task) error {
	if userID := task.GetInt64("user_id"); userID > 0 {
		return p.notifyUser(ctx, userID, task.GetString("message"))
	}
	return p.notifyGoing(ctx, task.GetInt64("event_id"), task.GetString("message"))
}

func (p *TaskProcessor) notifyUser(ctx context.Context, userID int64, message string) error {
	if p.notifier == nil {
		p.logger.WithField("user_id", userID).Debug("notifier disabled, skipping task")
		return nil
	}
	if message == "" {
		return fmt.Errorf("invalid notification task: message is required")
	}

	profile, err := p.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if err == entity.ErrProfileNotFound {
			return nil
		}
		return fmt.Errorf("failed to get profile: %w", err)
	}
	if profile.TelegramID == "" {
		return nil
	}

	return p.notifier.SendMessage(profile.TelegramID, message)
}

func (p *TaskProcessor) sendReminder(ctx context.Context, task *queue.Task) error {
	eventID := task.GetInt64("event_id")
	event, err := p.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("event %d not found: %v", eventID, err)
	}

	// The event may have been cancelled between the sweep and now
	if event.CancelledAt != nil || event.DeletedAt != nil {
		return nil
	}

	message := fmt.Sprintf("Reminder: %q starts at %s", event.Title, event.StartTime.Format(time.RFC1123))
	return p.notifyGoing(ctx, eventID, message)
}

// notifyGoing sends a message to every going attendee that has a telegram
// contact. One undeliverable attendee does not fail the rest; a failure is
// returned only if nothing could be delivered at all.
func (p *TaskProcessor) notifyGoing(ctx context.Context, eventID int64, message string) error {
	if p.notifier == nil {
		p.logger.WithField("event_id", eventID).Debug("notifier disabled, skipping task")
		return nil
	}
	if message == "" {
		return fmt.Errorf("invalid notification task: message is required")
	}

	contacts, err := p.rsvpRepo.GetGoingContacts(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to get going contacts: %w", err)
	}

	var sent, failed int
	for _, contact := range contacts {
		if contact.TelegramID == "" {
			continue
		}

		if err := p.notifier.SendMessage(contact.TelegramID, message); err != nil {
			failed++
			p.logger.WithFields(logrus.Fields{
				"event_id": eventID,
				"user_id":  contact.UserID,
				"error":    err.Error(),
			}).Warn("failed to deliver notification")
			continue
		}
		sent++
	}

	if sent == 0 && failed > 0 {
		return fmt.Errorf("failed to deliver notification for event %d", eventID)
	}

	p.logger.WithFields(logrus.Fields{
		"event_id": eventID,
		"sent":     sent,
		"failed":   failed,
	}).Info("notification delivered")

	return nil
}
