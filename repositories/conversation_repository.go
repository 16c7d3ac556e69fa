package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/spormatch/models"
	"github.com/lib/pq"
)

var (
	ErrConversationNotFound            = errors.New("conversation not found")
	ErrConversationParticipantNotFound = errors.New("conversation participant not found")
	ErrConversationParticipantExists   = errors.New("user is already a conversation participant")
	ErrConversationUserInvalid         = errors.New("conversation user conflict or invalid")
)

type ConversationRepository interface {
	// CreateDirect вставляет личный диалог или, если диалог с тем же direct_key уже есть,
	// заполняет conv существующей записью. created=false в этом случае.
	CreateDirect(ctx context.Context, exec SQLExecutor, conv *models.Conversation) (created bool, err error)
	CreateGroup(ctx context.Context, exec SQLExecutor, conv *models.Conversation) error
	GetByID(ctx context.Context, id int) (*models.Conversation, error)
	UpdateName(ctx context.Context, id int, name string) error
	UpdateLastMessage(ctx context.Context, exec SQLExecutor, id int, content string, at time.Time) error
	ListForUser(ctx context.Context, userID int) ([]models.ConversationSummary, error)

	AddParticipants(ctx context.Context, exec SQLExecutor, conversationID int, userIDs []int) error
	AddParticipant(ctx context.Context, conversationID, userID int) error
	RemoveParticipant(ctx context.Context, conversationID, userID int) error
	GetParticipant(ctx context.Context, conversationID, userID int) (*models.ConversationParticipant, error)
	ListParticipants(ctx context.Context, conversationID int) ([]*models.ConversationParticipant, error)
	// AdvanceReadCursor moves the cursor forward only; it reports whether it moved.
	AdvanceReadCursor(ctx context.Context, exec SQLExecutor, conversationID, userID int, messageID int64) (bool, error)
}

type postgresConversationRepository struct {
	db *sql.DB
}

func NewPostgresConversationRepository(db *sql.DB) ConversationRepository {
	return &postgresConversationRepository{db: db}
}

var conversationConstraintErrors = map[string]error{
	"conversations_created_by_fkey":                  ErrConversationUserInvalid,
	"conversation_participants_user_id_fkey":         ErrConversationUserInvalid,
	"conversation_participants_conversation_id_fkey": ErrConversationNotFound,
	"conversation_participants_pkey":                 ErrConversationParticipantExists,
}

const conversationColumns = `id, type, name, image_url, created_by, direct_key, last_message, last_message_time, created_at`

func scanConversation(row interface{ Scan(...interface{}) error }) (*models.Conversation, error) {
	var c models.Conversation
	var name, image, directKey, lastMessage sql.NullString
	err := row.Scan(&c.ID, &c.Type, &name, &image, &c.CreatedBy, &directKey, &lastMessage, &c.LastMessageTime, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.Name = nullStringPtr(name)
	c.ImageURL = nullStringPtr(image)
	c.DirectKey = nullStringPtr(directKey)
	c.LastMessage = nullStringPtr(lastMessage)
	return &c, nil
}

func (r *postgresConversationRepository) CreateDirect(ctx context.Context, exec SQLExecutor, conv *models.Conversation) (bool, error) {
	if conv.DirectKey == nil {
		return false, errors.New("direct conversation requires a direct key")
	}
	ex := executor(r.db, exec)

	query := `
		INSERT INTO conversations (type, created_by, direct_key, last_message)
		VALUES ('direct', $1, $2, $3)
		ON CONFLICT ON CONSTRAINT conversations_direct_key_key DO NOTHING
		RETURNING ` + conversationColumns

	created, err := scanConversation(ex.QueryRowContext(ctx, query, conv.CreatedBy, *conv.DirectKey, conv.LastMessage))
	if err == nil {
		*conv = *created
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, constraintError(err, conversationConstraintErrors)
	}

	// Конфликт по direct_key: диалог уже существует.
	existing, err := scanConversation(ex.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE direct_key = $1`, *conv.DirectKey))
	if err != nil {
		return false, fmt.Errorf("failed to load existing direct conversation %s: %w", *conv.DirectKey, err)
	}
	*conv = *existing
	return false, nil
}

func (r *postgresConversationRepository) CreateGroup(ctx context.Context, exec SQLExecutor, conv *models.Conversation) error {
	query := `
		INSERT INTO conversations (type, name, image_url, created_by, last_message)
		VALUES ('group', $1, $2, $3, $4)
		RETURNING id, type, last_message_time, created_at`

	err := executor(r.db, exec).QueryRowContext(ctx, query,
		conv.Name,
		conv.ImageURL,
		conv.CreatedBy,
		conv.LastMessage,
	).Scan(&conv.ID, &conv.Type, &conv.LastMessageTime, &conv.CreatedAt)
	if err != nil {
		return constraintError(err, conversationConstraintErrors)
	}
	return nil
}

func (r *postgresConversationRepository) GetByID(ctx context.Context, id int) (*models.Conversation, error) {
	conv, err := scanConversation(r.db.QueryRowContext(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return conv, nil
}

func (r *postgresConversationRepository) UpdateName(ctx context.Context, id int, name string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE conversations SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return fmt.Errorf("failed to rename conversation %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrConversationNotFound)
}

func (r *postgresConversationRepository) UpdateLastMessage(ctx context.Context, exec SQLExecutor, id int, content string, at time.Time) error {
	query := `UPDATE conversations SET last_message = $1, last_message_time = $2 WHERE id = $3`
	result, err := executor(r.db, exec).ExecContext(ctx, query, content, at, id)
	if err != nil {
		return fmt.Errorf("failed to update last message of conversation %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrConversationNotFound)
}

func (r *postgresConversationRepository) ListForUser(ctx context.Context, userID int) ([]models.ConversationSummary, error) {
	query := `
		SELECT c.id, c.type,
		       CASE WHEN c.type = 'direct' THEN COALESCE(ou.full_name, '') ELSE COALESCE(c.name, '') END AS title,
		       CASE WHEN c.type = 'direct' THEN COALESCE(ou.avatar_url, '') ELSE COALESCE(c.image_url, '') END AS avatar,
		       COALESCE(c.last_message, ''), c.last_message_time, ou.id,
		       (SELECT COUNT(*) FROM messages m
		         WHERE m.conversation_id = c.id AND m.sender_id <> $1 AND m.id > cp.last_read_message_id) AS unread
		FROM conversations c
		JOIN conversation_participants cp ON cp.conversation_id = c.id AND cp.user_id = $1
		LEFT JOIN LATERAL (
			SELECT u.id, u.full_name, u.avatar_url
			FROM conversation_participants op
			JOIN users u ON u.id = op.user_id
			WHERE op.conversation_id = c.id AND op.user_id <> $1
			ORDER BY op.user_id
			LIMIT 1
		) ou ON c.type = 'direct'
		ORDER BY c.last_message_time DESC, c.id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations for user %d: %w", userID, err)
	}
	defer rows.Close()

	list := make([]models.ConversationSummary, 0)
	for rows.Next() {
		var s models.ConversationSummary
		var otherID sql.NullInt64
		if err := rows.Scan(&s.ID, &s.Type, &s.Title, &s.AvatarURL, &s.LastMessage, &s.LastMessageTime, &otherID, &s.UnreadCount); err != nil {
			return nil, err
		}
		s.OtherUserID = nullIntPtr(otherID)
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *postgresConversationRepository) AddParticipants(ctx context.Context, exec SQLExecutor, conversationID int, userIDs []int) error {
	if len(userIDs) == 0 {
		return nil
	}
	ids := make([]int64, len(userIDs))
	for i, id := range userIDs {
		ids[i] = int64(id)
	}
	query := `
		INSERT INTO conversation_participants (conversation_id, user_id)
		SELECT $1, unnest($2::int[])
		ON CONFLICT (conversation_id, user_id) DO NOTHING`

	if _, err := executor(r.db, exec).ExecContext(ctx, query, conversationID, pq.Array(ids)); err != nil {
		return constraintError(err, conversationConstraintErrors)
	}
	return nil
}

func (r *postgresConversationRepository) AddParticipant(ctx context.Context, conversationID, userID int) error {
	query := `INSERT INTO conversation_participants (conversation_id, user_id) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, conversationID, userID); err != nil {
		return constraintError(err, conversationConstraintErrors)
	}
	return nil
}

func (r *postgresConversationRepository) RemoveParticipant(ctx context.Context, conversationID, userID int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM conversation_participants WHERE conversation_id = $1 AND user_id = $2`, conversationID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove user %d from conversation %d: %w", userID, conversationID, err)
	}
	return checkAffectedRows(result, ErrConversationParticipantNotFound)
}

func (r *postgresConversationRepository) GetParticipant(ctx context.Context, conversationID, userID int) (*models.ConversationParticipant, error) {
	query := `
		SELECT conversation_id, user_id, last_read_message_id, joined_at
		FROM conversation_participants
		WHERE conversation_id = $1 AND user_id = $2`

	var p models.ConversationParticipant
	err := r.db.QueryRowContext(ctx, query, conversationID, userID).Scan(
		&p.ConversationID, &p.UserID, &p.LastReadMessageID, &p.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversationParticipantNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresConversationRepository) ListParticipants(ctx context.Context, conversationID int) ([]*models.ConversationParticipant, error) {
	query := `
		SELECT cp.conversation_id, cp.user_id, cp.last_read_message_id, cp.joined_at,
		       u.username, u.full_name, u.avatar_url
		FROM conversation_participants cp
		JOIN users u ON u.id = cp.user_id
		WHERE cp.conversation_id = $1
		ORDER BY cp.joined_at ASC, cp.user_id ASC`

	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants of conversation %d: %w", conversationID, err)
	}
	defer rows.Close()

	participants := make([]*models.ConversationParticipant, 0)
	for rows.Next() {
		var p models.ConversationParticipant
		var u models.UserSummary
		var avatar sql.NullString
		if err := rows.Scan(&p.ConversationID, &p.UserID, &p.LastReadMessageID, &p.JoinedAt,
			&u.Username, &u.FullName, &avatar); err != nil {
			return nil, err
		}
		u.ID = p.UserID
		u.AvatarURL = nullStringPtr(avatar)
		p.User = &u
		participants = append(participants, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *postgresConversationRepository) AdvanceReadCursor(ctx context.Context, exec SQLExecutor, conversationID, userID int, messageID int64) (bool, error) {
	query := `
		UPDATE conversation_participants
		SET last_read_message_id = $3
		WHERE conversation_id = $1 AND user_id = $2 AND last_read_message_id < $3`

	result, err := executor(r.db, exec).ExecContext(ctx, query, conversationID, userID, messageID)
	if err != nil {
		return false, fmt.Errorf("failed to advance read cursor (conversation %d, user %d): %w", conversationID, userID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n > 0, nil
}
