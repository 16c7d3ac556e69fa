package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/spormatch/models"
	"github.com/Dosada05/spormatch/repositories"
)

type TeamService interface {
	CreateTeam(ctx context.Context, captainID int, input CreateTeamInput) (*models.Team, error)
	ListTeams(ctx context.Context) ([]*models.Team, error)
	GetTeam(ctx context.Context, teamID int) (*models.Team, error)
}

type CreateTeamInput struct {
	Name        string  `json:"name" validate:"required,max=128"`
	Description string  `json:"description"`
	LogoURL     *string `json:"logo_url" validate:"omitempty,url"`
}

type teamService struct {
	db       *sql.DB
	teamRepo repositories.TeamRepository
	logger   *slog.Logger
}

func NewTeamService(db *sql.DB, teamRepo repositories.TeamRepository, logger *slog.Logger) TeamService {
	return &teamService{
		db:       db,
		teamRepo: teamRepo,
		logger:   loggerOrDefault(logger),
	}
}

func (s *teamService) CreateTeam(ctx context.Context, captainID int, input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}
	logo := generatedAvatarURL(name)
	if l := trimmedOrNil(input.LogoURL); l != nil {
		logo = *l
	}

	team := &models.Team{
		Name:        name,
		CaptainID:   captainID,
		Description: strings.TrimSpace(input.Description),
		LogoURL:     &logo,
	}
	captain := &models.TeamMember{UserID: captainID, Role: models.TeamRoleCaptain}

	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if err := s.teamRepo.Create(ctx, tx, team); err != nil {
			switch {
			case errors.Is(err, repositories.ErrTeamNameConflict):
				return ErrTeamNameConflict
			case errors.Is(err, repositories.ErrTeamCaptainInvalid):
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to create team: %w", err)
		}
		captain.TeamID = team.ID
		if err := s.teamRepo.AddMember(ctx, tx, captain); err != nil {
			return fmt.Errorf("failed to add team captain: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	team.MemberCount = 1
	team.Members = []*models.TeamMember{captain}
	s.logger.InfoContext(ctx, "Team created", slog.Int("team_id", team.ID), slog.Int("captain_id", captainID))
	return team, nil
}

func (s *teamService) ListTeams(ctx context.Context) ([]*models.Team, error) {
	return s.teamRepo.List(ctx)
}

func (s *teamService) GetTeam(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	members, err := s.teamRepo.ListMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	team.Members = members
	return team, nil
}
