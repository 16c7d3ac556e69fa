package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/spormatch/models"
)

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrEventOrganizerInvalid = errors.New("event organizer conflict or invalid")
)

type EventRepository interface {
	Create(ctx context.Context, exec SQLExecutor, event *models.Event) error
	GetByID(ctx context.Context, id int) (*models.Event, error)
	// GetForUpdate блокирует строку события до конца транзакции exec.
	GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Event, error)
	// MarkPastByOrganizer flips the event to past only when organizerID owns it.
	// It reports whether a row was updated.
	MarkPastByOrganizer(ctx context.Context, exec SQLExecutor, eventID, organizerID int) (bool, error)
	SweepPast(ctx context.Context, now time.Time) (int64, error)

	ListExplore(ctx context.Context, viewerID int, category string) ([]models.EventCard, error)
	ListLookingForPlayers(ctx context.Context, viewerID int, limit int) ([]models.EventCard, error)
	ListUpcoming(ctx context.Context, viewerID int, limit int) ([]models.EventCard, error)
	// ListUserMatches returns the events userID takes part in with the given status.
	// limit <= 0 means no limit.
	ListUserMatches(ctx context.Context, userID int, status models.EventStatus, limit int) ([]models.MatchSummary, error)
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

const eventColumns = `
	id, organizer_id, title, subtitle, category, type, event_date, location, description,
	price, max_participants, badge_text, icon, image_url, status, created_at`

func scanEvent(row interface{ Scan(...interface{}) error }) (*models.Event, error) {
	var e models.Event
	var subtitle, badge, icon, image sql.NullString

	err := row.Scan(
		&e.ID, &e.OrganizerID, &e.Title, &subtitle, &e.Category, &e.Type, &e.EventDate, &e.Location,
		&e.Description, &e.Price, &e.MaxParticipants, &badge, &icon, &image, &e.Status, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Subtitle = nullStringPtr(subtitle)
	e.BadgeText = nullStringPtr(badge)
	e.Icon = nullStringPtr(icon)
	e.ImageURL = nullStringPtr(image)
	return &e, nil
}

func (r *postgresEventRepository) Create(ctx context.Context, exec SQLExecutor, event *models.Event) error {
	query := `
		INSERT INTO events
			(organizer_id, title, subtitle, category, type, event_date, location, description,
			 price, max_participants, badge_text, icon, image_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at`

	err := executor(r.db, exec).QueryRowContext(ctx, query,
		event.OrganizerID,
		event.Title,
		event.Subtitle,
		event.Category,
		event.Type,
		event.EventDate,
		event.Location,
		event.Description,
		event.Price,
		event.MaxParticipants,
		event.BadgeText,
		event.Icon,
		event.ImageURL,
		event.Status,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return constraintError(err, map[string]error{"events_organizer_id_fkey": ErrEventOrganizerInvalid})
	}
	return nil
}

func (r *postgresEventRepository) findOne(ctx context.Context, exec SQLExecutor, query string, id int) (*models.Event, error) {
	event, err := scanEvent(executor(r.db, exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	return r.findOne(ctx, nil, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

func (r *postgresEventRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Event, error) {
	return r.findOne(ctx, exec, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
}

func (r *postgresEventRepository) MarkPastByOrganizer(ctx context.Context, exec SQLExecutor, eventID, organizerID int) (bool, error) {
	query := `UPDATE events SET status = 'past' WHERE id = $1 AND organizer_id = $2`

	result, err := executor(r.db, exec).ExecContext(ctx, query, eventID, organizerID)
	if err != nil {
		return false, fmt.Errorf("failed to mark event %d as past: %w", eventID, err)
	}
	if err := checkAffectedRows(result, ErrEventNotFound); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *postgresEventRepository) SweepPast(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE events SET status = 'past' WHERE status = 'upcoming' AND event_date < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep past events: %w", err)
	}
	return result.RowsAffected()
}

const eventCardSelect = `
	SELECT e.id, e.title, e.subtitle, e.category, e.type, e.event_date, e.location, e.price,
	       e.badge_text, e.icon, e.image_url, e.max_participants,
	       (SELECT COUNT(*) FROM event_participants p WHERE p.event_id = e.id AND p.status = 'joined') AS current_participants,
	       EXISTS (SELECT 1 FROM event_participants p WHERE p.event_id = e.id AND p.user_id = $1) AS is_joined
	FROM events e`

func (r *postgresEventRepository) listCards(ctx context.Context, query string, args ...interface{}) ([]models.EventCard, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := make([]models.EventCard, 0)
	for rows.Next() {
		var c models.EventCard
		var subtitle, badge, icon, image sql.NullString
		if err := rows.Scan(
			&c.ID, &c.Title, &subtitle, &c.Category, &c.Type, &c.EventDate, &c.Location, &c.Price,
			&badge, &icon, &image, &c.MaxParticipants, &c.CurrentParticipants, &c.IsJoined,
		); err != nil {
			return nil, err
		}
		c.Subtitle = nullStringPtr(subtitle)
		c.BadgeText = nullStringPtr(badge)
		c.Icon = nullStringPtr(icon)
		c.ImageURL = nullStringPtr(image)
		c.FillProgress()
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}

// ListExplore: пустая категория означает "без фильтра".
func (r *postgresEventRepository) ListExplore(ctx context.Context, viewerID int, category string) ([]models.EventCard, error) {
	query := eventCardSelect + `
		WHERE e.status = 'upcoming' AND ($2::text = '' OR e.category = $2)
		ORDER BY e.event_date ASC, e.id ASC`
	cards, err := r.listCards(ctx, query, viewerID, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list explore events: %w", err)
	}
	return cards, nil
}

func (r *postgresEventRepository) ListLookingForPlayers(ctx context.Context, viewerID int, limit int) ([]models.EventCard, error) {
	query := `SELECT * FROM (` + eventCardSelect + `
		WHERE e.status = 'upcoming') c
		WHERE c.max_participants = 0 OR c.current_participants < c.max_participants
		ORDER BY c.event_date ASC, c.id ASC
		LIMIT $2`
	cards, err := r.listCards(ctx, query, viewerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events looking for players: %w", err)
	}
	return cards, nil
}

func (r *postgresEventRepository) ListUpcoming(ctx context.Context, viewerID int, limit int) ([]models.EventCard, error) {
	query := eventCardSelect + `
		WHERE e.status = 'upcoming'
		ORDER BY e.event_date ASC, e.id ASC
		LIMIT $2`
	cards, err := r.listCards(ctx, query, viewerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming events: %w", err)
	}
	return cards, nil
}

func (r *postgresEventRepository) ListUserMatches(ctx context.Context, userID int, status models.EventStatus, limit int) ([]models.MatchSummary, error) {
	order := "ASC"
	if status == models.StatusPast {
		order = "DESC"
	}
	query := `
		SELECT e.id, e.title, e.category, e.event_date, e.location, e.status,
		       CASE WHEN e.organizer_id = $1 THEN 'organizer' ELSE 'participant' END AS role,
		       (SELECT COUNT(*) FROM event_participants p WHERE p.event_id = e.id AND p.status = 'joined') AS current_participants,
		       e.max_participants, mr.score, mr.result
		FROM events e
		JOIN event_participants ep ON ep.event_id = e.id AND ep.user_id = $1
		LEFT JOIN match_results mr ON mr.event_id = e.id
		WHERE e.status = $2
		ORDER BY e.event_date ` + order + `, e.id ` + order
	args := []interface{}{userID, status}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for user %d: %w", userID, err)
	}
	defer rows.Close()

	matches := make([]models.MatchSummary, 0)
	for rows.Next() {
		var m models.MatchSummary
		var score, result sql.NullString
		if err := rows.Scan(
			&m.ID, &m.Title, &m.Category, &m.EventDate, &m.Location, &m.Status,
			&m.Role, &m.CurrentParticipants, &m.MaxParticipants, &score, &result,
		); err != nil {
			return nil, err
		}
		m.Score = nullStringPtr(score)
		m.Result = nullStringPtr(result)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}
