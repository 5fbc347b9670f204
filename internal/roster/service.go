package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Repository is the persistence surface the roster service needs.
// *Store satisfies it.
type Repository interface {
	TeamByID(ctx context.Context, id int64) (Team, error)
	TeamByName(ctx context.Context, name string) (Team, error)
	ListTeams(ctx context.Context) ([]Team, error)
	InsertPlayer(ctx context.Context, teamID int64, f PlayerFields) (int64, error)
	UpdatePlayer(ctx context.Context, id int64, f PlayerFields) (int64, error)
	DeletePlayer(ctx context.Context, id int64) error
	PlayerByID(ctx context.Context, id int64) (Player, error)
	PlayersByTeam(ctx context.Context, teamID int64) ([]Player, error)
}

// Service provides the team listing and player CRUD operations.
type Service struct {
	repo Repository
}

// NewService creates a roster Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// TeamRoster is a team together with its players.
type TeamRoster struct {
	Team    Team
	Players []Player
}

// ListTeams returns all registered teams.
func (s *Service) ListTeams(ctx context.Context) ([]Team, error) {
	return s.repo.ListTeams(ctx)
}

// Roster returns the players of teamID and the team itself.
// An unknown team yields an empty roster with a zero Team rather than an
// error, so the listing can still render.
func (s *Service) Roster(ctx context.Context, teamID int64) (TeamRoster, error) {
	players, err := s.repo.PlayersByTeam(ctx, teamID)
	if err != nil {
		return TeamRoster{}, err
	}

	team, err := s.repo.TeamByID(ctx, teamID)
	if err != nil && !errors.Is(err, ErrTeamNotFound) {
		return TeamRoster{}, err
	}
	team.ID = teamID

	return TeamRoster{Team: team, Players: players}, nil
}

// Player returns a single player.
func (s *Service) Player(ctx context.Context, id int64) (Player, error) {
	return s.repo.PlayerByID(ctx, id)
}

// AddPlayer inserts a player into teamID.
func (s *Service) AddPlayer(ctx context.Context, teamID int64, f PlayerFields) (int64, error) {
	if teamID <= 0 {
		return 0, ErrTeamNotFound
	}
	return s.repo.InsertPlayer(ctx, teamID, f)
}

// UpdatePlayer overwrites player id and returns the team it belongs to.
func (s *Service) UpdatePlayer(ctx context.Context, id int64, f PlayerFields) (int64, error) {
	return s.repo.UpdatePlayer(ctx, id, f)
}

// DeletePlayer removes player id.
func (s *Service) DeletePlayer(ctx context.Context, id int64) error {
	return s.repo.DeletePlayer(ctx, id)
}

// Authenticate checks name and password against the stored hash.
// Both an unknown team and a wrong password yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, name, password string) (Team, error) {
	team, err := s.repo.TeamByName(ctx, strings.TrimSpace(name))
	if errors.Is(err, ErrTeamNotFound) {
		return Team{}, ErrInvalidCredentials
	}
	if err != nil {
		return Team{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(team.PasswordHash), []byte(password)); err != nil {
		return Team{}, ErrInvalidCredentials
	}
	return team, nil
}

// HashPassword returns the bcrypt hash stored for a team password.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
