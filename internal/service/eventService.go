package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gatherhub/gatherhub/config"
	repository "github.com/gatherhub/gatherhub/internal/database/postgres"
	"github.com/gatherhub/gatherhub/internal/entity"
	"github.com/gatherhub/gatherhub/pkg/queue"
)

// CreateEventRequest represents the data needed to create an event
type CreateEventRequest struct {
	CommunityID int64      `json:"community_id" binding:"required"`
	Title       string     `json:"title" binding:"required,min=1,max=255"`
	Description string     `json:"description" binding:"max=2000"`
	StartTime   time.Time  `json:"start_time" binding:"required"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Capacity    *int       `json:"capacity,omitempty"`
	Tags        []string   `json:"tags" binding:"max=20"`
}

// UpdateEventRequest represents the data needed to update an event
type UpdateEventRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Capacity    *int       `json:"capacity,omitempty"`
	Tags        *[]string  `json:"tags,omitempty"`
}

// EventResult is an event mutation outcome together with its side-effect
// report. The mutation has committed even when some side effects failed.
type EventResult struct {
	Event       *entity.Event      `json:"event"`
	SideEffects []SideEffectResult `json:"side_effects,omitempty"`
}

type eventService struct {
	eventRepo      repository.EventRepository
	communityRepo  repository.CommunityRepository
	membershipRepo repository.MembershipRepository
	rsvpRepo       repository.RSVPRepository
	publisher      TaskPublisher
	eventCfg       config.EventConfig
	reminderCfg    config.ReminderConfig
}

// NewEventService creates a new instance of EventService
func NewEventService(
	eventRepo repository.EventRepository,
	communityRepo repository.CommunityRepository,
	membershipRepo repository.MembershipRepository,
	rsvpRepo repository.RSVPRepository,
	publisher TaskPublisher,
	eventCfg config.EventConfig,
	reminderCfg config.ReminderConfig,
) EventService {
	return &eventService{
		eventRepo:      eventRepo,
		communityRepo:  communityRepo,
		membershipRepo: membershipRepo,
		rsvpRepo:       rsvpRepo,
		publisher:      publisher,
		eventCfg:       eventCfg,
		reminderCfg:    reminderCfg,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, actorID int64, req *CreateEventRequest) (*EventResult, error) {
	community, err := s.communityRepo.GetByID(ctx, req.CommunityID)
	if err != nil {
		return nil, err
	}
	if community.DeletedAt != nil {
		return nil, entity.ErrCommunityDeleted
	}
	if !community.Active {
		return nil, entity.ErrCommunityInactive
	}

	if err := s.requireManager(ctx, actorID, req.CommunityID); err != nil {
		return nil, err
	}

	if err := validateEventTimes(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	if req.Capacity != nil && *req.Capacity < 1 {
		return nil, fmt.Errorf("%w: capacity must be positive", entity.ErrValidation)
	}

	event := &entity.Event{
		CommunityID: req.CommunityID,
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Capacity:    req.Capacity,
		Tags:        req.Tags,
		CreatedBy:   actorID,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	result := &EventResult{Event: event}
	result.SideEffects = append(result.SideEffects,
		enqueue(ctx, s.publisher, "record_activity", &queue.Task{
			Type: queue.TaskTypeRecordActivity,
			Data: map[string]interface{}{
				"community_id": event.CommunityID,
				"actor_id":     actorID,
				"kind":         string(entity.ActivityEventCreated),
				"message":      fmt.Sprintf("event %q created", event.Title),
			},
		}),
		enqueue(ctx, s.publisher, "generate_embedding", &queue.Task{
			Type: queue.TaskTypeGenerateEmbedding,
			Data: map[string]interface{}{
				"event_id": event.ID,
			},
		}),
	)

	return result, nil
}

func (s *eventService) GetEvent(ctx context.Context, id int64) (*entity.EventWithAttendance, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.DeletedAt != nil {
		return nil, entity.ErrEventNotFound
	}

	return s.withAttendance(ctx, event)
}

func (s *eventService) GetCommunityEvents(ctx context.Context, communityID int64) ([]*entity.EventWithAttendance, error) {
	community, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if community.DeletedAt != nil {
		return nil, entity.ErrCommunityNotFound
	}

	events, err := s.eventRepo.GetByCommunity(ctx, communityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get community events: %w", err)
	}

	return s.withAttendanceAll(ctx, events)
}

func (s *eventService) GetUpcomingEvents(ctx context.Context, limit int) ([]*entity.EventWithAttendance, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	events, err := s.eventRepo.GetUpcoming(ctx, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming events: %w", err)
	}

	return s.withAttendanceAll(ctx, events)
}

func (s *eventService) UpdateEvent(ctx context.Context, actorID, id int64, req *UpdateEventRequest) (*entity.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.DeletedAt != nil {
		return nil, entity.ErrEventDeleted
	}
	if event.CancelledAt != nil {
		return nil, entity.ErrEventCancelled
	}

	if err := s.requireManager(ctx, actorID, event.CommunityID); err != nil {
		return nil, err
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.StartTime != nil {
		event.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		event.EndTime = req.EndTime
	}
	if req.Tags != nil {
		event.Tags = *req.Tags
	}

	if err := validateEventTimes(event.StartTime, event.EndTime); err != nil {
		return nil, err
	}

	// Capacity may not drop below the current going count: nobody loses a
	// confirmed spot to an edit.
	if req.Capacity != nil {
		if *req.Capacity < 1 {
			return nil, fmt.Errorf("%w: capacity must be positive", entity.ErrValidation)
		}

		goingCount, err := s.rsvpRepo.CountGoing(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to count going rsvps: %w", err)
		}
		if *req.Capacity < goingCount {
			return nil, fmt.Errorf("%w: capacity %d is below current going count %d",
				entity.ErrValidation, *req.Capacity, goingCount)
		}
		event.Capacity = req.Capacity
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	// Description changes clear the stored embedding; rebuild it async
	if req.Description != nil {
		s.requestEmbedding(ctx, event.ID)
	}

	return event, nil
}

func (s *eventService) CancelEvent(ctx context.Context, actorID, id int64) (*EventResult, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.DeletedAt != nil {
		return nil, entity.ErrEventDeleted
	}
	if event.CancelledAt != nil {
		return nil, entity.ErrEventCancelled
	}

	if err := s.requireManager(ctx, actorID, event.CommunityID); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Cancel(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to cancel event: %w", err)
	}

	event, err = s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &EventResult{Event: event}
	result.SideEffects = append(result.SideEffects,
		enqueue(ctx, s.publisher, "record_activity", &queue.Task{
			Type: queue.TaskTypeRecordActivity,
			Data: map[string]interface{}{
				"community_id": event.CommunityID,
				"actor_id":     actorID,
				"kind":         string(entity.ActivityEventCancelled),
				"message":      fmt.Sprintf("event %q cancelled", event.Title),
			},
		}),
		enqueue(ctx, s.publisher, "send_notification", &queue.Task{
			Type: queue.TaskTypeSendNotification,
			Data: map[string]interface{}{
				"event_id": event.ID,
				"message":  fmt.Sprintf("Event %q has been cancelled.", event.Title),
			},
		}),
	)

	return result, nil
}

// SendDueReminders publishes a reminder task for every event starting inside
// the lead window and flags it, so each event is reminded at most once.
func (s *eventService) SendDueReminders(ctx context.Context) error {
	now := time.Now()
	events, err := s.eventRepo.GetNeedingReminder(ctx, now, now.Add(s.reminderCfg.LeadWindow))
	if err != nil {
		return fmt.Errorf("failed to get events needing reminder: %w", err)
	}

	for _, event := range events {
		task := &queue.Task{
			Type: queue.TaskTypeEventReminder,
			Data: map[string]interface{}{
				"event_id": event.ID,
			},
		}
		if effect := enqueue(ctx, s.publisher, "event_reminder", task); effect.Status != SideEffectSucceeded {
			continue
		}

		if err := s.eventRepo.MarkReminderSent(ctx, event.ID); err != nil {
			return fmt.Errorf("failed to mark reminder sent: %w", err)
		}
	}

	return nil
}

func (s *eventService) withAttendance(ctx context.Context, event *entity.Event) (*entity.EventWithAttendance, error) {
	goingCount, err := s.rsvpRepo.CountGoing(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count going rsvps: %w", err)
	}

	return &entity.EventWithAttendance{
		Event:      *event,
		Status:     event.Status(time.Now(), s.eventCfg.DefaultDuration),
		GoingCount: goingCount,
	}, nil
}

func (s *eventService) withAttendanceAll(ctx context.Context, events []*entity.Event) ([]*entity.EventWithAttendance, error) {
	result := make([]*entity.EventWithAttendance, 0, len(events))
	for _, event := range events {
		withAttendance, err := s.withAttendance(ctx, event)
		if err != nil {
			return nil, err
		}
		result = append(result, withAttendance)
	}

	return result, nil
}

func (s *eventService) requireManager(ctx context.Context, actorID, communityID int64) error {
	membership, err := s.membershipRepo.Get(ctx, communityID, actorID)
	if err != nil {
		return entity.ErrAuthorizationDenied
	}
	if !membership.Role.CanManage() {
		return entity.ErrAuthorizationDenied
	}

	return nil
}

func (s *eventService) requestEmbedding(ctx context.Context, eventID int64) {
	enqueue(ctx, s.publisher, "generate_embedding", &queue.Task{
		Type: queue.TaskTypeGenerateEmbedding,
		Data: map[string]interface{}{
			"event_id": eventID,
		},
	})
}

func validateEventTimes(start time.Time, end *time.Time) error {
	if end != nil && !end.After(start) {
		return fmt.Errorf("%w: end time must be after start time", entity.ErrValidation)
	}

	return nil
}
