package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gatherhub/gatherhub/config"
	repository "github.com/gatherhub/gatherhub/internal/database/postgres"
	"github.com/gatherhub/gatherhub/internal/entity"
	"github.com/gatherhub/gatherhub/pkg/queue"
)

// SubmitRSVPRequest represents the data needed to submit an RSVP
type SubmitRSVPRequest struct {
	Status entity.RSVPStatus `json:"status" binding:"required"`
	Guests int               `json:"guests" binding:"min=0,max=10"`
}

type rsvpService struct {
	rsvpRepo  repository.RSVPRepository
	eventRepo repository.EventRepository
	publisher TaskPublisher
	eventCfg  config.EventConfig
}

// NewRSVPService creates a new instance of RSVPService
func NewRSVPService(
	rsvpRepo repository.RSVPRepository,
	eventRepo repository.EventRepository,
	publisher TaskPublisher,
	eventCfg config.EventConfig,
) RSVPService {
	return &rsvpService{
		rsvpRepo:  rsvpRepo,
		eventRepo: eventRepo,
		publisher: publisher,
		eventCfg:  eventCfg,
	}
}

// SubmitRSVP creates or replaces the caller's RSVP. The capacity check runs
// inside the repository transaction under the event row lock; a concurrent
// conflict is retried once, since the upsert is idempotent for the same input.
func (s *rsvpService) SubmitRSVP(ctx context.Context, userID, eventID int64, req *SubmitRSVPRequest) (*entity.RSVP, error) {
	if !req.Status.Valid() {
		return nil, entity.ErrInvalidRSVPStatus
	}
	if req.Guests < 0 {
		return nil, fmt.Errorf("%w: guests must not be negative", entity.ErrValidation)
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.DeletedAt != nil {
		return nil, entity.ErrEventNotFound
	}

	switch event.Status(time.Now(), s.eventCfg.DefaultDuration) {
	case entity.EventStatusCancelled:
		return nil, entity.ErrEventCancelled
	case entity.EventStatusCompleted:
		return nil, fmt.Errorf("%w: event has already completed", entity.ErrValidation)
	}

	rsvp := &entity.RSVP{
		EventID: eventID,
		UserID:  userID,
		Status:  req.Status,
		Guests:  req.Guests,
	}

	err = s.rsvpRepo.Upsert(ctx, rsvp)
	if errors.Is(err, entity.ErrConflict) {
		err = s.rsvpRepo.Upsert(ctx, rsvp)
	}
	if err != nil {
		return nil, err
	}

	enqueue(ctx, s.publisher, "send_notification", &queue.Task{
		Type: queue.TaskTypeSendNotification,
		Data: map[string]interface{}{
			"user_id":  userID,
			"event_id": eventID,
			"message":  fmt.Sprintf("Your RSVP (%s) for %q is confirmed.", rsvp.Status, event.Title),
		},
	})

	return rsvp, nil
}

func (s *rsvpService) WithdrawRSVP(ctx context.Context, userID, eventID int64) error {
	if err := s.rsvpRepo.Delete(ctx, eventID, userID); err != nil {
		return err
	}

	enqueue(ctx, s.publisher, "send_notification", &queue.Task{
		Type: queue.TaskTypeSendNotification,
		Data: map[string]interface{}{
			"user_id":  userID,
			"event_id": eventID,
			"message":  "Your RSVP has been withdrawn.",
		},
	})

	return nil
}

func (s *rsvpService) GetRSVP(ctx context.Context, userID, eventID int64) (*entity.RSVP, error) {
	return s.rsvpRepo.GetByEventAndUser(ctx, eventID, userID)
}

func (s *rsvpService) GetEventRSVPs(ctx context.Context, eventID int64) ([]*entity.RSVP, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.DeletedAt != nil {
		return nil, entity.ErrEventNotFound
	}

	return s.rsvpRepo.GetByEvent(ctx, eventID)
}
