package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/spormatch/models"
	"github.com/Dosada05/spormatch/repositories"
	"golang.org/x/sync/errgroup"
)

const (
	dashboardLookingLimit  = 2
	dashboardActivityLimit = 5
	dashboardUpcomingLimit = 5
)

// errNotUpdatedByOrganizer откатывает транзакцию, когда условный UPDATE не затронул строк.
var errNotUpdatedByOrganizer = errors.New("event not updated by organizer")

type EventService interface {
	CreateEvent(ctx context.Context, organizerID int, input CreateEventInput) (*models.Event, error)
	GetEvent(ctx context.Context, eventID, viewerID int) (*models.EventDetails, error)
	RecordResult(ctx context.Context, eventID, userID int, input RecordResultInput) (*models.MatchResult, error)
	Explore(ctx context.Context, userID int, category string) ([]models.EventCard, error)
	Dashboard(ctx context.Context, userID int) (*models.Dashboard, error)
	Matches(ctx context.Context, userID int) (*models.Matches, error)
	SweepPastEvents(ctx context.Context, now time.Time) (int64, error)
}

type CreateEventInput struct {
	Title           string    `json:"title" validate:"required,max=255"`
	Subtitle        *string   `json:"subtitle" validate:"omitempty,max=255"`
	Category        string    `json:"category" validate:"max=64"`
	Type            string    `json:"type" validate:"max=32"`
	EventDate       time.Time `json:"event_date" validate:"required"`
	Location        string    `json:"location" validate:"max=255"`
	Description     string    `json:"description"`
	Price           float64   `json:"price" validate:"gte=0"`
	MaxParticipants *int      `json:"max_participants" validate:"omitempty,gte=0"`
	BadgeText       *string   `json:"badge_text" validate:"omitempty,max=64"`
	Icon            *string   `json:"icon" validate:"omitempty,max=64"`
	ImageURL        *string   `json:"image_url" validate:"omitempty,url"`
}

type RecordResultInput struct {
	Score   string `json:"score" validate:"required,max=32"`
	Result  string `json:"result" validate:"max=16"`
	Details string `json:"details"`
}

type eventService struct {
	db               *sql.DB
	eventRepo        repositories.EventRepository
	participantRepo  repositories.ParticipantRepository
	resultRepo       repositories.MatchResultRepository
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
	logger           *slog.Logger
}

func NewEventService(
	db *sql.DB,
	eventRepo repositories.EventRepository,
	participantRepo repositories.ParticipantRepository,
	resultRepo repositories.MatchResultRepository,
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	logger *slog.Logger,
) EventService {
	return &eventService{
		db:               db,
		eventRepo:        eventRepo,
		participantRepo:  participantRepo,
		resultRepo:       resultRepo,
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		logger:           loggerOrDefault(logger),
	}
}

func (s *eventService) CreateEvent(ctx context.Context, organizerID int, input CreateEventInput) (*models.Event, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrEventTitleRequired
	}
	if input.EventDate.IsZero() {
		return nil, ErrEventDateRequired
	}
	if input.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrValidationFailed)
	}

	maxParticipants := models.DefaultMaxPlayers
	if input.MaxParticipants != nil {
		if *input.MaxParticipants < 0 {
			return nil, ErrEventInvalidCapacity
		}
		maxParticipants = *input.MaxParticipants
	}

	event := &models.Event{
		OrganizerID:     organizerID,
		Title:           title,
		Subtitle:        trimmedOrNil(input.Subtitle),
		Category:        defaultString(input.Category, models.DefaultEventCategory),
		Type:            defaultString(input.Type, models.DefaultEventType),
		EventDate:       input.EventDate,
		Location:        strings.TrimSpace(input.Location),
		Description:     strings.TrimSpace(input.Description),
		Price:           input.Price,
		MaxParticipants: maxParticipants,
		BadgeText:       trimmedOrNil(input.BadgeText),
		Icon:            trimmedOrNil(input.Icon),
		ImageURL:        trimmedOrNil(input.ImageURL),
		Status:          models.StatusUpcoming,
	}

	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if err := s.eventRepo.Create(ctx, tx, event); err != nil {
			if errors.Is(err, repositories.ErrEventOrganizerInvalid) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to create event: %w", err)
		}
		// Организатор сразу становится участником.
		organizer := &models.EventParticipant{
			EventID: event.ID,
			UserID:  organizerID,
			Status:  models.ParticipantStatusJoined,
		}
		if err := s.participantRepo.Upsert(ctx, tx, organizer); err != nil {
			return fmt.Errorf("failed to add organizer as participant: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Event created", slog.Int("event_id", event.ID), slog.Int("organizer_id", organizerID))
	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID, viewerID int) (*models.EventDetails, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", eventID, err)
	}

	participants, err := s.participantRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	details := &models.EventDetails{
		Event:        event,
		Participants: participants,
		IsOrganizer:  event.OrganizerID == viewerID,
	}
	for _, p := range participants {
		if p.UserID == viewerID {
			details.IsJoined = true
		}
		if p.IsOrganizer {
			details.Organizer = p.User
		}
	}

	if details.Organizer == nil {
		organizer, err := s.userRepo.GetByID(ctx, event.OrganizerID)
		if err == nil {
			details.Organizer = &models.UserSummary{
				ID:        organizer.ID,
				Username:  organizer.Username,
				FullName:  organizer.FullName,
				AvatarURL: organizer.AvatarURL,
			}
		} else {
			s.logger.WarnContext(ctx, "Failed to load event organizer", slog.Int("event_id", eventID), slog.Any("error", err))
		}
	}

	result, err := s.resultRepo.GetByEventID(ctx, eventID)
	switch {
	case err == nil:
		details.Result = result
	case !errors.Is(err, repositories.ErrMatchResultNotFound):
		return nil, fmt.Errorf("failed to get result of event %d: %w", eventID, err)
	}

	return details, nil
}

func (s *eventService) RecordResult(ctx context.Context, eventID, userID int, input RecordResultInput) (*models.MatchResult, error) {
	score := strings.TrimSpace(input.Score)
	if score == "" {
		return nil, ErrScoreRequired
	}
	result := &models.MatchResult{
		EventID: eventID,
		Score:   score,
		Result:  normalizeResult(input.Result),
		Details: strings.TrimSpace(input.Details),
	}

	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		updated, err := s.eventRepo.MarkPastByOrganizer(ctx, tx, eventID, userID)
		if err != nil {
			return err
		}
		if !updated {
			return errNotUpdatedByOrganizer
		}
		return s.resultRepo.Upsert(ctx, tx, result)
	})
	if errors.Is(err, errNotUpdatedByOrganizer) {
		// Ничего не изменено; выясняем причину.
		if _, getErr := s.eventRepo.GetByID(ctx, eventID); getErr != nil {
			if errors.Is(getErr, repositories.ErrEventNotFound) {
				return nil, ErrEventNotFound
			}
			return nil, fmt.Errorf("failed to get event %d: %w", eventID, getErr)
		}
		s.logger.WarnContext(ctx, "Result rejected: not the organizer", slog.Int("event_id", eventID), slog.Int("user_id", userID))
		return nil, ErrNotEventOrganizer
	}
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Match result recorded", slog.Int("event_id", eventID), slog.String("score", score))
	return result, nil
}

// sweepBeforeRead is the lazy status sweep run before list queries. Failures are logged only.
func (s *eventService) sweepBeforeRead(ctx context.Context) {
	if _, err := s.SweepPastEvents(ctx, time.Now()); err != nil {
		s.logger.WarnContext(ctx, "Lazy event sweep failed", slog.Any("error", err))
	}
}

func (s *eventService) Explore(ctx context.Context, userID int, category string) ([]models.EventCard, error) {
	s.sweepBeforeRead(ctx)
	return s.eventRepo.ListExplore(ctx, userID, normalizeCategory(category))
}

func (s *eventService) Dashboard(ctx context.Context, userID int) (*models.Dashboard, error) {
	s.sweepBeforeRead(ctx)

	dashboard := &models.Dashboard{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		count, err := s.notificationRepo.CountUnread(gctx, userID)
		dashboard.UnreadNotifications = count
		return err
	})
	g.Go(func() error {
		cards, err := s.eventRepo.ListLookingForPlayers(gctx, userID, dashboardLookingLimit)
		dashboard.LookingForPlayers = cards
		return err
	})
	g.Go(func() error {
		activities, err := s.notificationRepo.ListForUser(gctx, userID, models.FilterAll, dashboardActivityLimit)
		dashboard.Activities = activities
		return err
	})
	g.Go(func() error {
		cards, err := s.eventRepo.ListUpcoming(gctx, userID, dashboardUpcomingLimit)
		dashboard.UpcomingEvents = cards
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build dashboard for user %d: %w", userID, err)
	}
	return dashboard, nil
}

func (s *eventService) Matches(ctx context.Context, userID int) (*models.Matches, error) {
	s.sweepBeforeRead(ctx)

	upcoming, err := s.eventRepo.ListUserMatches(ctx, userID, models.StatusUpcoming, 0)
	if err != nil {
		return nil, err
	}
	past, err := s.eventRepo.ListUserMatches(ctx, userID, models.StatusPast, 0)
	if err != nil {
		return nil, err
	}
	return &models.Matches{Upcoming: upcoming, Past: past}, nil
}

func (s *eventService) SweepPastEvents(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.eventRepo.SweepPast(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "Events moved to past", slog.Int64("count", n))
	}
	return n, nil
}

// normalizeCategory maps the "no filter" spellings used by clients to "".
func normalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	switch strings.ToLower(category) {
	case "", "all", "tümü":
		return ""
	}
	return category
}

// normalizeResult приводит результат матча к верхнему регистру, по умолчанию DRAW.
func normalizeResult(result string) string {
	result = strings.ToUpper(strings.TrimSpace(result))
	if result == "" {
		return models.DefaultMatchResult
	}
	return result
}

func defaultString(s, fallback string) string {
	if s = strings.TrimSpace(s); s == "" {
		return fallback
	}
	return s
}
