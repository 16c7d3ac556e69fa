package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/spormatch/models"
	"github.com/Dosada05/spormatch/repositories"
)

const profileHistoryLimit = 5

type UserService interface {
	// GetProfile returns the user with recent match history. Contact details are
	// only included when the viewer looks at their own profile.
	GetProfile(ctx context.Context, viewerID, userID int) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID int, upd models.ProfileUpdate) (*models.User, error)
	UpdatePushToken(ctx context.Context, userID int, token string) error
}

type userService struct {
	userRepo  repositories.UserRepository
	eventRepo repositories.EventRepository
	logger    *slog.Logger
}

func NewUserService(userRepo repositories.UserRepository, eventRepo repositories.EventRepository, logger *slog.Logger) UserService {
	return &userService{
		userRepo:  userRepo,
		eventRepo: eventRepo,
		logger:    loggerOrDefault(logger),
	}
}

func (s *userService) getUser(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) GetProfile(ctx context.Context, viewerID, userID int) (*models.Profile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if viewerID != userID {
		user.Email = ""
		user.Phone = nil
		user.BirthDate = nil
	}

	history, err := s.eventRepo.ListUserMatches(ctx, userID, models.StatusPast, profileHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load match history for user %d: %w", userID, err)
	}

	return &models.Profile{User: user, History: history}, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int, upd models.ProfileUpdate) (*models.User, error) {
	if upd.IsEmpty() {
		return nil, ErrEmptyProfileUpdate
	}
	if upd.FullName != nil && strings.TrimSpace(*upd.FullName) == "" {
		return nil, fmt.Errorf("%w: full name must not be empty", ErrValidationFailed)
	}
	if upd.Username != nil {
		username := strings.ToLower(strings.TrimSpace(*upd.Username))
		if username == "" {
			return nil, fmt.Errorf("%w: username must not be empty", ErrValidationFailed)
		}
		upd.Username = &username
	}

	if err := s.userRepo.Update(ctx, userID, upd); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repositories.ErrUserUsernameConflict):
			return nil, ErrUsernameConflict
		}
		return nil, fmt.Errorf("failed to update profile of user %d: %w", userID, err)
	}

	s.logger.InfoContext(ctx, "Profile updated", slog.Int("user_id", userID))
	return s.getUser(ctx, userID)
}

func (s *userService) UpdatePushToken(ctx context.Context, userID int, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrPushTokenRequired
	}
	if err := s.userRepo.UpdatePushToken(ctx, userID, token); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to store push token: %w", err)
	}
	return nil
}
