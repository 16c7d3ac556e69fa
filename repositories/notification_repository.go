package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/spormatch/models"
)

var (
	ErrNotificationNotFound    = errors.New("notification not found")
	ErrNotificationUserInvalid = errors.New("notification user conflict or invalid")
)

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Notification, error)
	// MarkRead помечает уведомление прочитанным, только если оно принадлежит userID.
	MarkRead(ctx context.Context, exec SQLExecutor, id, userID int) error
	ListForUser(ctx context.Context, userID int, filter models.NotificationFilter, limit int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, userID int) (int, error)
}

type postgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, sender_id, type, title, message, related_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_read, created_at`

	err := r.db.QueryRowContext(ctx, query,
		n.UserID,
		n.SenderID,
		n.Type,
		n.Title,
		n.Message,
		n.RelatedID,
	).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return constraintError(err, map[string]error{
			"notifications_user_id_fkey":   ErrNotificationUserInvalid,
			"notifications_sender_id_fkey": ErrNotificationUserInvalid,
		})
	}
	return nil
}

func (r *postgresNotificationRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Notification, error) {
	query := `
		SELECT id, user_id, sender_id, type, title, message, related_id, is_read, created_at
		FROM notifications
		WHERE id = $1
		FOR UPDATE`

	var n models.Notification
	var senderID, relatedID sql.NullInt64
	err := executor(r.db, exec).QueryRowContext(ctx, query, id).Scan(
		&n.ID, &n.UserID, &senderID, &n.Type, &n.Title, &n.Message, &relatedID, &n.IsRead, &n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	n.SenderID = nullIntPtr(senderID)
	n.RelatedID = nullIntPtr(relatedID)
	return &n, nil
}

func (r *postgresNotificationRepository) MarkRead(ctx context.Context, exec SQLExecutor, id, userID int) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	result, err := executor(r.db, exec).ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification %d as read: %w", id, err)
	}
	return checkAffectedRows(result, ErrNotificationNotFound)
}

func (r *postgresNotificationRepository) ListForUser(ctx context.Context, userID int, filter models.NotificationFilter, limit int) ([]*models.Notification, error) {
	query := `
		SELECT n.id, n.user_id, n.sender_id, n.type, n.title, n.message, n.related_id, n.is_read, n.created_at,
		       s.username, s.full_name, s.avatar_url
		FROM notifications n
		LEFT JOIN users s ON s.id = n.sender_id
		WHERE n.user_id = $1`

	switch filter {
	case models.FilterInvites:
		query += ` AND n.type = 'invite'`
	case models.FilterSystem:
		query += ` AND n.type IN ('system', 'alert')`
	}
	query += ` ORDER BY n.created_at DESC, n.id DESC`

	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for user %d: %w", userID, err)
	}
	defer rows.Close()

	list := make([]*models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		var senderID, relatedID sql.NullInt64
		var username, fullName, avatar sql.NullString
		if err := rows.Scan(
			&n.ID, &n.UserID, &senderID, &n.Type, &n.Title, &n.Message, &relatedID, &n.IsRead, &n.CreatedAt,
			&username, &fullName, &avatar,
		); err != nil {
			return nil, err
		}
		n.SenderID = nullIntPtr(senderID)
		n.RelatedID = nullIntPtr(relatedID)
		if n.SenderID != nil && username.Valid {
			n.Sender = &models.UserSummary{
				ID:        *n.SenderID,
				Username:  username.String,
				FullName:  fullName.String,
				AvatarURL: nullStringPtr(avatar),
			}
		}
		list = append(list, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *postgresNotificationRepository) CountUnread(ctx context.Context, userID int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications for user %d: %w", userID, err)
	}
	return count, nil
}
