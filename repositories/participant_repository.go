package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/spormatch/models"
)

var (
	ErrParticipantNotFound     = errors.New("participant not found")
	ErrParticipantUserInvalid  = errors.New("participant user conflict or invalid")
	ErrParticipantEventInvalid = errors.New("participant event conflict or invalid")
)

type ParticipantRepository interface {
	// Upsert вставляет участника или обновляет статус и позицию при повторном вступлении.
	Upsert(ctx context.Context, exec SQLExecutor, p *models.EventParticipant) error
	Delete(ctx context.Context, eventID, userID int) error
	Exists(ctx context.Context, exec SQLExecutor, eventID, userID int) (bool, error)
	CountJoined(ctx context.Context, exec SQLExecutor, eventID int) (int, error)
	ListByEvent(ctx context.Context, eventID int) ([]*models.EventParticipant, error)
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) Upsert(ctx context.Context, exec SQLExecutor, p *models.EventParticipant) error {
	query := `
		INSERT INTO event_participants (event_id, user_id, status, position)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id, user_id)
		DO UPDATE SET status = EXCLUDED.status, position = EXCLUDED.position
		RETURNING joined_at`

	err := executor(r.db, exec).QueryRowContext(ctx, query,
		p.EventID,
		p.UserID,
		p.Status,
		p.Position,
	).Scan(&p.JoinedAt)
	if err != nil {
		return constraintError(err, map[string]error{
			"event_participants_event_id_fkey": ErrParticipantEventInvalid,
			"event_participants_user_id_fkey":  ErrParticipantUserInvalid,
		})
	}
	return nil
}

// Delete is unconditional: removing a non-member is not an error.
func (r *postgresParticipantRepository) Delete(ctx context.Context, eventID, userID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM event_participants WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete participant (event %d, user %d): %w", eventID, userID, err)
	}
	return nil
}

func (r *postgresParticipantRepository) Exists(ctx context.Context, exec SQLExecutor, eventID, userID int) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM event_participants WHERE event_id = $1 AND user_id = $2)`
	if err := executor(r.db, exec).QueryRowContext(ctx, query, eventID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check participant (event %d, user %d): %w", eventID, userID, err)
	}
	return exists, nil
}

func (r *postgresParticipantRepository) CountJoined(ctx context.Context, exec SQLExecutor, eventID int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM event_participants WHERE event_id = $1 AND status = 'joined'`
	if err := executor(r.db, exec).QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count participants of event %d: %w", eventID, err)
	}
	return count, nil
}

func (r *postgresParticipantRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.EventParticipant, error) {
	query := `
		SELECT ep.event_id, ep.user_id, ep.status, ep.position, ep.joined_at,
		       (e.organizer_id = ep.user_id) AS is_organizer,
		       u.username, u.full_name, u.avatar_url
		FROM event_participants ep
		JOIN events e ON e.id = ep.event_id
		JOIN users u ON u.id = ep.user_id
		WHERE ep.event_id = $1
		ORDER BY ep.joined_at ASC, ep.user_id ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants of event %d: %w", eventID, err)
	}
	defer rows.Close()

	participants := make([]*models.EventParticipant, 0)
	for rows.Next() {
		var p models.EventParticipant
		var u models.UserSummary
		var position, avatar sql.NullString
		if err := rows.Scan(
			&p.EventID, &p.UserID, &p.Status, &position, &p.JoinedAt, &p.IsOrganizer,
			&u.Username, &u.FullName, &avatar,
		); err != nil {
			return nil, err
		}
		p.Position = nullStringPtr(position)
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
