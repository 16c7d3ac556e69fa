package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/spormatch/models"
	"github.com/Dosada05/spormatch/repositories"
)

// ParticipantService управляет участием пользователей в событиях.
type ParticipantService interface {
	// Join is idempotent: a repeated join only overwrites the position.
	Join(ctx context.Context, eventID, userID int, position *string) (*models.EventParticipant, error)
	Leave(ctx context.Context, eventID, userID int) error
	ListParticipants(ctx context.Context, eventID int) ([]*models.EventParticipant, error)
}

// eventJoiner holds the join rules shared by direct joins and accepted invites.
type eventJoiner struct {
	eventRepo        repositories.EventRepository
	participantRepo  repositories.ParticipantRepository
	capacityEnforced bool
}

func newEventJoiner(eventRepo repositories.EventRepository, participantRepo repositories.ParticipantRepository, capacityEnforced bool) *eventJoiner {
	return &eventJoiner{
		eventRepo:        eventRepo,
		participantRepo:  participantRepo,
		capacityEnforced: capacityEnforced,
	}
}

// join must run inside a transaction: the event row stays locked until exec commits.
func (j *eventJoiner) join(ctx context.Context, exec repositories.SQLExecutor, eventID, userID int, position *string) (*models.EventParticipant, error) {
	event, err := j.eventRepo.GetForUpdate(ctx, exec, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to lock event %d: %w", eventID, err)
	}
	if event.Status != models.StatusUpcoming || event.EventDate.Before(time.Now()) {
		return nil, ErrEventNotUpcoming
	}

	if j.capacityEnforced && event.MaxParticipants > 0 {
		already, err := j.participantRepo.Exists(ctx, exec, eventID, userID)
		if err != nil {
			return nil, err
		}
		if !already {
			count, err := j.participantRepo.CountJoined(ctx, exec, eventID)
			if err != nil {
				return nil, err
			}
			if count >= event.MaxParticipants {
				return nil, ErrEventFull
			}
		}
	}

	participant := &models.EventParticipant{
		EventID:     eventID,
		UserID:      userID,
		Status:      models.ParticipantStatusJoined,
		Position:    trimmedOrNil(position),
		IsOrganizer: event.OrganizerID == userID,
	}
	if err := j.participantRepo.Upsert(ctx, exec, participant); err != nil {
		switch {
		case errors.Is(err, repositories.ErrParticipantUserInvalid):
			return nil, ErrUserNotFound
		case errors.Is(err, repositories.ErrParticipantEventInvalid):
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to save participant: %w", err)
	}
	return participant, nil
}

type participantService struct {
	db              *sql.DB
	eventRepo       repositories.EventRepository
	participantRepo repositories.ParticipantRepository
	joiner          *eventJoiner
	logger          *slog.Logger
}

func NewParticipantService(
	db *sql.DB,
	eventRepo repositories.EventRepository,
	participantRepo repositories.ParticipantRepository,
	capacityEnforced bool,
	logger *slog.Logger,
) ParticipantService {
	return &participantService{
		db:              db,
		eventRepo:       eventRepo,
		participantRepo: participantRepo,
		joiner:          newEventJoiner(eventRepo, participantRepo, capacityEnforced),
		logger:          loggerOrDefault(logger),
	}
}

func (s *participantService) Join(ctx context.Context, eventID, userID int, position *string) (*models.EventParticipant, error) {
	var participant *models.EventParticipant
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		var err error
		participant, err = s.joiner.join(ctx, tx, eventID, userID, position)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "User joined event", slog.Int("event_id", eventID), slog.Int("user_id", userID))
	return participant, nil
}

func (s *participantService) ensureEvent(ctx context.Context, eventID int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", eventID, err)
	}
	return event, nil
}

func (s *participantService) Leave(ctx context.Context, eventID, userID int) error {
	if _, err := s.ensureEvent(ctx, eventID); err != nil {
		return err
	}
	if err := s.participantRepo.Delete(ctx, eventID, userID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "User left event", slog.Int("event_id", eventID), slog.Int("user_id", userID))
	return nil
}

func (s *participantService) ListParticipants(ctx context.Context, eventID int) ([]*models.EventParticipant, error) {
	if _, err := s.ensureEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.participantRepo.ListByEvent(ctx, eventID)
}
