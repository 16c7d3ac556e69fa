package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/spormatch/models"
)

var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamNameConflict   = errors.New("team name conflict")
	ErrTeamCaptainInvalid = errors.New("team captain conflict or invalid")
	ErrTeamMemberConflict = errors.New("team member conflict")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	AddMember(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	List(ctx context.Context) ([]*models.Team, error)
	ListMembers(ctx context.Context, teamID int) ([]*models.TeamMember, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `
		INSERT INTO teams (name, captain_id, description, logo_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := executor(r.db, exec).QueryRowContext(ctx, query,
		team.Name,
		team.CaptainID,
		team.Description,
		team.LogoURL,
	).Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		return constraintError(err, map[string]error{
			"teams_name_key":        ErrTeamNameConflict,
			"teams_captain_id_fkey": ErrTeamCaptainInvalid,
		})
	}
	return nil
}

func (r *postgresTeamRepository) AddMember(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error {
	query := `
		INSERT INTO team_members (team_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING joined_at`

	err := executor(r.db, exec).QueryRowContext(ctx, query, member.TeamID, member.UserID, member.Role).Scan(&member.JoinedAt)
	if err != nil {
		return constraintError(err, map[string]error{
			"team_members_pkey":         ErrTeamMemberConflict,
			"team_members_team_id_fkey": ErrTeamNotFound,
		})
	}
	return nil
}

const teamSelect = `
	SELECT t.id, t.name, t.captain_id, t.description, t.logo_url, t.created_at,
	       (SELECT COUNT(*) FROM team_members tm WHERE tm.team_id = t.id) AS member_count
	FROM teams t`

func scanTeam(row interface{ Scan(...interface{}) error }) (*models.Team, error) {
	var t models.Team
	var logo sql.NullString
	if err := row.Scan(&t.ID, &t.Name, &t.CaptainID, &t.Description, &logo, &t.CreatedAt, &t.MemberCount); err != nil {
		return nil, err
	}
	t.LogoURL = nullStringPtr(logo)
	return &t, nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := scanTeam(r.db.QueryRowContext(ctx, teamSelect+` WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

func (r *postgresTeamRepository) List(ctx context.Context) ([]*models.Team, error) {
	rows, err := r.db.QueryContext(ctx, teamSelect+` ORDER BY t.created_at DESC, t.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *postgresTeamRepository) ListMembers(ctx context.Context, teamID int) ([]*models.TeamMember, error) {
	query := `
		SELECT tm.team_id, tm.user_id, tm.role, tm.joined_at, u.username, u.full_name, u.avatar_url
		FROM team_members tm
		JOIN users u ON u.id = tm.user_id
		WHERE tm.team_id = $1
		ORDER BY (tm.role = 'Captain') DESC, tm.joined_at ASC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of team %d: %w", teamID, err)
	}
	defer rows.Close()

	members := make([]*models.TeamMember, 0)
	for rows.Next() {
		var m models.TeamMember
		var u models.UserSummary
		var avatar sql.NullString
		if err := rows.Scan(&m.TeamID, &m.UserID, &m.Role, &m.JoinedAt, &u.Username, &u.FullName, &avatar); err != nil {
			return nil, err
		}
		u.ID = m.UserID
		u.AvatarURL = nullStringPtr(avatar)
		m.User = &u
		members = append(members, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}
