package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/spormatch/models"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserEmailConflict    = errors.New("user email conflict")
	ErrUserUsernameConflict = errors.New("user username conflict")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// GetByLogin ищет пользователя по email или username.
	GetByLogin(ctx context.Context, identifier string) (*models.User, error)
	Update(ctx context.Context, id int, upd models.ProfileUpdate) error
	UpdatePushToken(ctx context.Context, id int, token string) error
	// CountExisting returns how many of the given ids belong to existing users.
	CountExisting(ctx context.Context, ids []int) (int, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

var userConstraintErrors = map[string]error{
	"users_email_key":    ErrUserEmailConflict,
	"users_username_key": ErrUserUsernameConflict,
}

const userColumns = `
	id, username, email, password_hash, full_name, position, level, status, bio, phone,
	birth_date, gender, instagram, twitter, tiktok, avatar_url, cover_url,
	matches_played, goals, assists, fairplay_score, push_token, created_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	var position, bio, phone, birthDate, gender, instagram, twitter, tiktok, avatar, cover, pushToken sql.NullString

	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &position, &u.Level, &u.Status,
		&bio, &phone, &birthDate, &gender, &instagram, &twitter, &tiktok, &avatar, &cover,
		&u.MatchesPlayed, &u.Goals, &u.Assists, &u.FairplayScore, &pushToken, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Position = nullStringPtr(position)
	u.Bio = nullStringPtr(bio)
	u.Phone = nullStringPtr(phone)
	u.BirthDate = nullStringPtr(birthDate)
	u.Gender = nullStringPtr(gender)
	u.Instagram = nullStringPtr(instagram)
	u.Twitter = nullStringPtr(twitter)
	u.TikTok = nullStringPtr(tiktok)
	u.AvatarURL = nullStringPtr(avatar)
	u.CoverURL = nullStringPtr(cover)
	u.PushToken = nullStringPtr(pushToken)
	return &u, nil
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, full_name, level, status, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, matches_played, goals, assists, fairplay_score, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.Level,
		user.Status,
		user.AvatarURL,
	).Scan(&user.ID, &user.MatchesPlayed, &user.Goals, &user.Assists, &user.FairplayScore, &user.CreatedAt)
	if err != nil {
		return constraintError(err, userConstraintErrors)
	}
	return nil
}

func (r *postgresUserRepository) findOne(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *postgresUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = $1", username)
}

func (r *postgresUserRepository) GetByLogin(ctx context.Context, identifier string) (*models.User, error) {
	return r.findOne(ctx, "(email = $1 OR username = $1) ORDER BY (email = $1) DESC LIMIT 1", identifier)
}

// Update меняет только переданные (не nil) поля.
func (r *postgresUserRepository) Update(ctx context.Context, id int, upd models.ProfileUpdate) error {
	query := `
		UPDATE users SET
			full_name  = COALESCE($2, full_name),
			username   = COALESCE($3, username),
			position   = COALESCE($4, position),
			level      = COALESCE($5, level),
			bio        = COALESCE($6, bio),
			phone      = COALESCE($7, phone),
			birth_date = COALESCE($8, birth_date),
			gender     = COALESCE($9, gender),
			instagram  = COALESCE($10, instagram),
			twitter    = COALESCE($11, twitter),
			tiktok     = COALESCE($12, tiktok),
			avatar_url = COALESCE($13, avatar_url),
			cover_url  = COALESCE($14, cover_url)
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id,
		upd.FullName, upd.Username, upd.Position, upd.Level, upd.Bio, upd.Phone, upd.BirthDate,
		upd.Gender, upd.Instagram, upd.Twitter, upd.TikTok, upd.AvatarURL, upd.CoverURL,
	)
	if err != nil {
		return constraintError(err, userConstraintErrors)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdatePushToken(ctx context.Context, id int, token string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET push_token = $1 WHERE id = $2`, token, id)
	if err != nil {
		return fmt.Errorf("failed to update push token for user %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) CountExisting(ctx context.Context, ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ids64 := make([]int64, len(ids))
	for i, id := range ids {
		ids64[i] = int64(id)
	}

	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ANY($1)`, pq.Array(ids64)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
