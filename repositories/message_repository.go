package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/spormatch/models"
)

var (
	ErrMessageNotFound      = errors.New("message not found")
	ErrMessageSenderInvalid = errors.New("message sender conflict or invalid")
)

type MessageRepository interface {
	// Create вставляет сообщение. При повторе с тем же client_token возвращает
	// ранее сохранённое сообщение и created=false.
	Create(ctx context.Context, exec SQLExecutor, msg *models.Message) (created bool, err error)
	LatestID(ctx context.Context, exec SQLExecutor, conversationID int) (int64, error)
	// ListForViewer returns the conversation history with is_me and is_read computed for viewerID.
	ListForViewer(ctx context.Context, conversationID, viewerID int) ([]*models.Message, error)
}

type postgresMessageRepository struct {
	db *sql.DB
}

func NewPostgresMessageRepository(db *sql.DB) MessageRepository {
	return &postgresMessageRepository{db: db}
}

func (r *postgresMessageRepository) Create(ctx context.Context, exec SQLExecutor, msg *models.Message) (bool, error) {
	ex := executor(r.db, exec)

	query := `
		INSERT INTO messages (conversation_id, sender_id, content, client_token)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT messages_client_token_key DO NOTHING
		RETURNING id, created_at`

	err := ex.QueryRowContext(ctx, query, msg.ConversationID, msg.SenderID, msg.Content, msg.ClientToken).
		Scan(&msg.ID, &msg.CreatedAt)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) || msg.ClientToken == nil {
		return false, constraintError(err, map[string]error{
			"messages_sender_id_fkey":       ErrMessageSenderInvalid,
			"messages_conversation_id_fkey": ErrConversationNotFound,
		})
	}

	// Повтор с тем же токеном: отдаём оригинал.
	lookup := `
		SELECT id, content, created_at
		FROM messages
		WHERE conversation_id = $1 AND sender_id = $2 AND client_token = $3`
	err = ex.QueryRowContext(ctx, lookup, msg.ConversationID, msg.SenderID, *msg.ClientToken).
		Scan(&msg.ID, &msg.Content, &msg.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrMessageNotFound
		}
		return false, fmt.Errorf("failed to load message by client token: %w", err)
	}
	return false, nil
}

func (r *postgresMessageRepository) LatestID(ctx context.Context, exec SQLExecutor, conversationID int) (int64, error) {
	var id int64
	query := `SELECT COALESCE(MAX(id), 0) FROM messages WHERE conversation_id = $1`
	if err := executor(r.db, exec).QueryRowContext(ctx, query, conversationID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to get latest message of conversation %d: %w", conversationID, err)
	}
	return id, nil
}

// A message from someone else is read once the viewer's cursor reached it;
// the viewer's own message is read once every other participant's cursor did.
func (r *postgresMessageRepository) ListForViewer(ctx context.Context, conversationID, viewerID int) ([]*models.Message, error) {
	query := `
		SELECT m.id, m.conversation_id, m.sender_id, m.content, m.client_token, m.created_at,
		       u.full_name, u.avatar_url,
		       CASE
		         WHEN m.sender_id = $2 THEN NOT EXISTS (
		           SELECT 1 FROM conversation_participants op
		           WHERE op.conversation_id = m.conversation_id
		             AND op.user_id <> $2
		             AND op.last_read_message_id < m.id)
		         ELSE m.id <= COALESCE((
		           SELECT vp.last_read_message_id FROM conversation_participants vp
		           WHERE vp.conversation_id = m.conversation_id AND vp.user_id = $2), 0)
		       END AS is_read
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.conversation_id = $1
		ORDER BY m.created_at ASC, m.id ASC`

	rows, err := r.db.QueryContext(ctx, query, conversationID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages of conversation %d: %w", conversationID, err)
	}
	defer rows.Close()

	messages := make([]*models.Message, 0)
	for rows.Next() {
		var m models.Message
		var token, avatar sql.NullString
		if err := rows.Scan(
			&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &token, &m.CreatedAt,
			&m.SenderName, &avatar, &m.IsRead,
		); err != nil {
			return nil, err
		}
		m.ClientToken = nullStringPtr(token)
		m.SenderAvatar = nullStringPtr(avatar)
		m.IsMe = m.SenderID == viewerID
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}
