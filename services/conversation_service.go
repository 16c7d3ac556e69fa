package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Dosada05/spormatch/models"
	"github.com/Dosada05/spormatch/repositories"
)

// MessagePublisher delivers a committed message to realtime subscribers.
// RevokeMember drops the open realtime connections of a user removed from a conversation.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, msg *models.Message) error
	RevokeMember(ctx context.Context, conversationID, userID int) error
}

type ConversationService interface {
	// CreateConversation returns the existing conversation (created=false) for a repeated direct pair.
	CreateConversation(ctx context.Context, creatorID int, input CreateConversationInput) (conv *models.Conversation, created bool, err error)
	ListConversations(ctx context.Context, userID int) ([]models.ConversationSummary, error)
	GetConversation(ctx context.Context, conversationID, viewerID int) (*models.ConversationDetails, error)
	// EnsureParticipant returns nil only if userID belongs to the conversation.
	EnsureParticipant(ctx context.Context, conversationID, userID int) error

	SendMessage(ctx context.Context, conversationID, senderID int, input SendMessageInput) (msg *models.Message, created bool, err error)
	ListMessages(ctx context.Context, conversationID, viewerID int) ([]*models.Message, error)
	MarkRead(ctx context.Context, conversationID, viewerID int) error

	UpdateName(ctx context.Context, conversationID, userID int, name string) error
	AddMember(ctx context.Context, conversationID, userID int, username string) (*models.UserSummary, error)
	RemoveMember(ctx context.Context, conversationID, userID, memberID int) error
}

type CreateConversationInput struct {
	Participants []int   `json:"participants" validate:"required,min=1,dive,gt=0"`
	Name         *string `json:"name" validate:"omitempty,max=128"`
	ImageURL     *string `json:"image_url" validate:"omitempty,url"`
}

type SendMessageInput struct {
	Content string `json:"content" validate:"required"`
	// ClientToken is a client-generated UUID making retries idempotent.
	ClientToken *string `json:"client_token" validate:"omitempty,uuid"`
}

type conversationService struct {
	db               *sql.DB
	conversationRepo repositories.ConversationRepository
	messageRepo      repositories.MessageRepository
	userRepo         repositories.UserRepository
	publisher        MessagePublisher
	logger           *slog.Logger
}

func NewConversationService(
	db *sql.DB,
	conversationRepo repositories.ConversationRepository,
	messageRepo repositories.MessageRepository,
	userRepo repositories.UserRepository,
	publisher MessagePublisher,
	logger *slog.Logger,
) ConversationService {
	return &conversationService{
		db:               db,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
		publisher:        publisher,
		logger:           loggerOrDefault(logger),
	}
}

// distinctParticipants returns the sorted set of ids including the creator.
func distinctParticipants(creatorID int, ids []int) []int {
	seen := map[int]struct{}{creatorID: {}}
	out := []int{creatorID}
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func (s *conversationService) CreateConversation(ctx context.Context, creatorID int, input CreateConversationInput) (*models.Conversation, bool, error) {
	ids := distinctParticipants(creatorID, input.Participants)
	if len(ids) < 2 {
		return nil, false, ErrTooFewParticipants
	}

	existing, err := s.userRepo.CountExisting(ctx, ids)
	if err != nil {
		return nil, false, err
	}
	if existing != len(ids) {
		return nil, false, ErrUserNotFound
	}

	startText := models.ConversationStartText
	conv := &models.Conversation{CreatedBy: creatorID, LastMessage: &startText}
	created := true

	err = withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if len(ids) == 2 {
			key := models.DirectKey(ids[0], ids[1])
			conv.DirectKey = &key
			conv.Type = models.ConversationDirect

			var err error
			created, err = s.conversationRepo.CreateDirect(ctx, tx, conv)
			if err != nil {
				return mapConversationRepoError(err)
			}
			if !created {
				return nil
			}
		} else {
			name := models.DefaultGroupName
			if n := trimmedOrNil(input.Name); n != nil {
				name = *n
			}
			image := generatedAvatarURL(name)
			if img := trimmedOrNil(input.ImageURL); img != nil {
				image = *img
			}
			conv.Type = models.ConversationGroup
			conv.Name = &name
			conv.ImageURL = &image

			if err := s.conversationRepo.CreateGroup(ctx, tx, conv); err != nil {
				return mapConversationRepoError(err)
			}
		}
		return mapConversationRepoError(s.conversationRepo.AddParticipants(ctx, tx, conv.ID, ids))
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.logger.InfoContext(ctx, "Conversation created",
			slog.Int("conversation_id", conv.ID),
			slog.String("type", string(conv.Type)),
			slog.Int("participants", len(ids)),
		)
	}
	return conv, created, nil
}

func mapConversationRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrConversationUserInvalid):
		return ErrUserNotFound
	case errors.Is(err, repositories.ErrConversationNotFound):
		return ErrConversationNotFound
	case errors.Is(err, repositories.ErrConversationParticipantExists):
		return ErrAlreadyConversationMember
	case errors.Is(err, repositories.ErrConversationParticipantNotFound):
		return ErrMemberNotFound
	}
	return err
}

func (s *conversationService) ListConversations(ctx context.Context, userID int) ([]models.ConversationSummary, error) {
	list, err := s.conversationRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].AvatarURL == "" {
			list[i].AvatarURL = generatedAvatarURL(list[i].Title)
		}
	}
	return list, nil
}

// loadForMember загружает диалог и проверяет, что userID в нём состоит.
func (s *conversationService) loadForMember(ctx context.Context, conversationID, userID int) (*models.Conversation, error) {
	conv, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, mapConversationRepoError(err)
	}
	if _, err := s.conversationRepo.GetParticipant(ctx, conversationID, userID); err != nil {
		if errors.Is(err, repositories.ErrConversationParticipantNotFound) {
			return nil, ErrNotConversationMember
		}
		return nil, err
	}
	return conv, nil
}

func (s *conversationService) EnsureParticipant(ctx context.Context, conversationID, userID int) error {
	_, err := s.loadForMember(ctx, conversationID, userID)
	return err
}

func (s *conversationService) GetConversation(ctx context.Context, conversationID, viewerID int) (*models.ConversationDetails, error) {
	conv, err := s.loadForMember(ctx, conversationID, viewerID)
	if err != nil {
		return nil, err
	}
	participants, err := s.conversationRepo.ListParticipants(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return &models.ConversationDetails{Conversation: conv, Participants: participants}, nil
}

func (s *conversationService) SendMessage(ctx context.Context, conversationID, senderID int, input SendMessageInput) (*models.Message, bool, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, false, ErrEmptyMessage
	}

	var token *string
	if t := trimmedOrNil(input.ClientToken); t != nil {
		parsed, err := uuid.Parse(*t)
		if err != nil {
			return nil, false, fmt.Errorf("%w: client_token must be a UUID", ErrValidationFailed)
		}
		canonical := parsed.String()
		token = &canonical
	}

	if _, err := s.loadForMember(ctx, conversationID, senderID); err != nil {
		return nil, false, err
	}

	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		ClientToken:    token,
		IsMe:           true,
	}
	var created bool

	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		var err error
		created, err = s.messageRepo.Create(ctx, tx, msg)
		if err != nil {
			return mapConversationRepoError(err)
		}
		if !created {
			// Повторная отправка: всё уже применено.
			return nil
		}
		if err := s.conversationRepo.UpdateLastMessage(ctx, tx, conversationID, content, msg.CreatedAt); err != nil {
			return mapConversationRepoError(err)
		}
		_, err = s.conversationRepo.AdvanceReadCursor(ctx, tx, conversationID, senderID, msg.ID)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if created && s.publisher != nil {
		if pubErr := s.publisher.PublishMessage(ctx, msg); pubErr != nil {
			s.logger.WarnContext(ctx, "Failed to publish message",
				slog.Int("conversation_id", conversationID),
				slog.Int64("message_id", msg.ID),
				slog.Any("error", pubErr),
			)
		}
	}
	return msg, created, nil
}

// advanceToLatest moves the viewer's read cursor to the newest message.
func (s *conversationService) advanceToLatest(ctx context.Context, conversationID, viewerID int) error {
	latest, err := s.messageRepo.LatestID(ctx, nil, conversationID)
	if err != nil {
		return err
	}
	if latest == 0 {
		return nil
	}
	moved, err := s.conversationRepo.AdvanceReadCursor(ctx, nil, conversationID, viewerID, latest)
	if err != nil {
		return err
	}
	if moved {
		s.logger.DebugContext(ctx, "Read cursor advanced",
			slog.Int("conversation_id", conversationID),
			slog.Int("user_id", viewerID),
			slog.Int64("message_id", latest),
		)
	}
	return nil
}

func (s *conversationService) ListMessages(ctx context.Context, conversationID, viewerID int) ([]*models.Message, error) {
	if _, err := s.loadForMember(ctx, conversationID, viewerID); err != nil {
		return nil, err
	}
	if err := s.advanceToLatest(ctx, conversationID, viewerID); err != nil {
		return nil, err
	}
	return s.messageRepo.ListForViewer(ctx, conversationID, viewerID)
}

func (s *conversationService) MarkRead(ctx context.Context, conversationID, viewerID int) error {
	if _, err := s.loadForMember(ctx, conversationID, viewerID); err != nil {
		return err
	}
	return s.advanceToLatest(ctx, conversationID, viewerID)
}

// loadGroupForMember: администрировать можно только групповые диалоги, и только их участникам.
func (s *conversationService) loadGroupForMember(ctx context.Context, conversationID, userID int) (*models.Conversation, error) {
	conv, err := s.loadForMember(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if conv.Type != models.ConversationGroup {
		return nil, ErrNotGroupConversation
	}
	return conv, nil
}

func (s *conversationService) UpdateName(ctx context.Context, conversationID, userID int, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrGroupNameRequired
	}
	if _, err := s.loadGroupForMember(ctx, conversationID, userID); err != nil {
		return err
	}
	if err := s.conversationRepo.UpdateName(ctx, conversationID, name); err != nil {
		return mapConversationRepoError(err)
	}
	s.logger.InfoContext(ctx, "Group renamed", slog.Int("conversation_id", conversationID), slog.Int("user_id", userID))
	return nil
}

func (s *conversationService) AddMember(ctx context.Context, conversationID, userID int, username string) (*models.UserSummary, error) {
	if _, err := s.loadGroupForMember(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidationFailed)
	}
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := s.conversationRepo.AddParticipant(ctx, conversationID, user.ID); err != nil {
		return nil, mapConversationRepoError(err)
	}

	s.logger.InfoContext(ctx, "Group member added",
		slog.Int("conversation_id", conversationID),
		slog.Int("added_user_id", user.ID),
		slog.Int("by_user_id", userID),
	)
	return &models.UserSummary{ID: user.ID, Username: user.Username, FullName: user.FullName, AvatarURL: user.AvatarURL}, nil
}

func (s *conversationService) RemoveMember(ctx context.Context, conversationID, userID, memberID int) error {
	conv, err := s.loadGroupForMember(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if memberID != userID && conv.CreatedBy != userID {
		return ErrNotConversationCreator
	}
	if err := s.conversationRepo.RemoveParticipant(ctx, conversationID, memberID); err != nil {
		return mapConversationRepoError(err)
	}
	if s.publisher != nil {
		if err := s.publisher.RevokeMember(ctx, conversationID, memberID); err != nil {
			s.logger.WarnContext(ctx, "Failed to revoke realtime access",
				slog.Int("conversation_id", conversationID),
				slog.Int("user_id", memberID),
				slog.Any("error", err),
			)
		}
	}
	s.logger.InfoContext(ctx, "Group member removed",
		slog.Int("conversation_id", conversationID),
		slog.Int("removed_user_id", memberID),
		slog.Int("by_user_id", userID),
	)
	return nil
}
