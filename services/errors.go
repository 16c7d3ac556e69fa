package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed          = errors.New("validation failed")
	ErrPasswordTooShort          = errors.New("password must be at least 6 characters")
	ErrInvalidEmail              = errors.New("email address is not valid")
	ErrEmptyProfileUpdate        = errors.New("no profile fields to update")
	ErrEventTitleRequired        = errors.New("event title is required")
	ErrEventDateRequired         = errors.New("event date is required")
	ErrEventInvalidCapacity      = errors.New("event max participants must not be negative")
	ErrScoreRequired             = errors.New("score is required")
	ErrTooFewParticipants        = errors.New("a conversation needs at least two distinct participants")
	ErrEmptyMessage              = errors.New("message content must not be empty")
	ErrGroupNameRequired         = errors.New("group name is required")
	ErrNotGroupConversation      = errors.New("operation is only allowed on group conversations")
	ErrInvalidNotificationFilter = errors.New("notification filter must be one of: all, invites, system")
	ErrCannotInviteSelf          = errors.New("cannot invite yourself")
	ErrTeamNameRequired          = errors.New("team name is required")
	ErrPushTokenRequired         = errors.New("push token is required")
	ErrUnsupportedFileType       = errors.New("only image uploads are allowed")
	ErrEmptyFile                 = errors.New("uploaded file is empty")

	// Состояние события
	ErrEventNotUpcoming = errors.New("event is no longer upcoming")
	ErrEventFull        = errors.New("event has reached its participant limit")

	// Ошибки конфликтов
	ErrUserEmailConflict         = errors.New("email address is already in use")
	ErrUsernameConflict          = errors.New("username is already in use")
	ErrTeamNameConflict          = errors.New("team name is already in use")
	ErrAlreadyConversationMember = errors.New("user is already a member of this conversation")

	// Ошибки аутентификации и авторизации
	ErrInvalidCredentials     = errors.New("invalid login or password")
	ErrAuthenticationFailed   = errors.New("authentication failed")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrNotEventOrganizer      = errors.New("only the event organizer can perform this action")
	ErrNotConversationMember  = errors.New("you are not a participant of this conversation")
	ErrNotConversationCreator = errors.New("only the conversation creator can remove other members")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound         = errors.New("user not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrMemberNotFound       = errors.New("conversation member not found")
)
