package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/spormatch/models"
	"github.com/Dosada05/spormatch/repositories"
)

type NotificationService interface {
	SendInvite(ctx context.Context, senderID int, input SendInviteInput) (*models.Notification, error)
	// AcceptInvite joins the user to the invited event and marks the notification read
	// in one transaction. participant is nil for notifications without an event.
	AcceptInvite(ctx context.Context, notificationID, userID int) (participant *models.EventParticipant, err error)
	MarkRead(ctx context.Context, notificationID, userID int) error
	ListNotifications(ctx context.Context, userID int, filter string) ([]*models.Notification, error)
}

type SendInviteInput struct {
	Username string  `json:"username" validate:"required"`
	EventID  *int    `json:"event_id" validate:"omitempty,gt=0"`
	Message  *string `json:"message" validate:"omitempty,max=500"`
}

type notificationService struct {
	db               *sql.DB
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
	eventRepo        repositories.EventRepository
	joiner           *eventJoiner
	logger           *slog.Logger
}

func NewNotificationService(
	db *sql.DB,
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	eventRepo repositories.EventRepository,
	participantRepo repositories.ParticipantRepository,
	capacityEnforced bool,
	logger *slog.Logger,
) NotificationService {
	return &notificationService{
		db:               db,
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		eventRepo:        eventRepo,
		joiner:           newEventJoiner(eventRepo, participantRepo, capacityEnforced),
		logger:           loggerOrDefault(logger),
	}
}

func (s *notificationService) SendInvite(ctx context.Context, senderID int, input SendInviteInput) (*models.Notification, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidationFailed)
	}

	target, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to resolve invite target: %w", err)
	}
	if target.ID == senderID {
		return nil, ErrCannotInviteSelf
	}

	if input.EventID != nil {
		if _, err := s.eventRepo.GetByID(ctx, *input.EventID); err != nil {
			if errors.Is(err, repositories.ErrEventNotFound) {
				return nil, ErrEventNotFound
			}
			return nil, fmt.Errorf("failed to get event %d: %w", *input.EventID, err)
		}
	}

	message := models.DefaultInviteMessage
	if m := trimmedOrNil(input.Message); m != nil {
		message = *m
	}

	notification := &models.Notification{
		UserID:    target.ID,
		SenderID:  &senderID,
		Type:      models.NotificationInvite,
		Title:     models.InviteTitle,
		Message:   message,
		RelatedID: input.EventID,
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		if errors.Is(err, repositories.ErrNotificationUserInvalid) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	s.logger.InfoContext(ctx, "Invite sent",
		slog.Int("notification_id", notification.ID),
		slog.Int("sender_id", senderID),
		slog.Int("target_id", target.ID),
	)
	return notification, nil
}

func (s *notificationService) AcceptInvite(ctx context.Context, notificationID, userID int) (*models.EventParticipant, error) {
	var participant *models.EventParticipant

	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		n, err := s.notificationRepo.GetForUpdate(ctx, tx, notificationID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotificationNotFound) {
				return ErrNotificationNotFound
			}
			return err
		}
		// Чужое уведомление не раскрываем.
		if n.UserID != userID {
			return ErrNotificationNotFound
		}

		if n.Type == models.NotificationInvite && n.RelatedID != nil {
			participant, err = s.joiner.join(ctx, tx, *n.RelatedID, userID, nil)
			if err != nil {
				return err
			}
		}

		if err := s.notificationRepo.MarkRead(ctx, tx, notificationID, userID); err != nil {
			if errors.Is(err, repositories.ErrNotificationNotFound) {
				return ErrNotificationNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Invite accepted", slog.Int("notification_id", notificationID), slog.Int("user_id", userID))
	return participant, nil
}

func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID int) error {
	if err := s.notificationRepo.MarkRead(ctx, nil, notificationID, userID); err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

func (s *notificationService) ListNotifications(ctx context.Context, userID int, filter string) ([]*models.Notification, error) {
	f := models.NotificationFilter(strings.ToLower(strings.TrimSpace(filter)))
	if f == "" {
		f = models.FilterAll
	}
	if !f.Valid() {
		return nil, ErrInvalidNotificationFilter
	}
	return s.notificationRepo.ListForUser(ctx, userID, f, 0)
}
