package roster

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// playerColumns reads every player attribute back as text so the domain never
// has to coerce values.
const playerColumns = `
	id,
	team_id,
	COALESCE(jersey_number::text, ''),
	name,
	COALESCE(height_cm::text, ''),
	COALESCE(weight_kg::text, ''),
	position,
	COALESCE(to_char(birthdate, 'YYYY-MM-DD'), ''),
	birthplace`

// Store runs the roster queries against a DBTX.
type Store struct {
	db DBTX
}

// NewStore creates a Store backed by db.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

// TeamNameExists reports whether a team with name is already registered.
func (s *Store) TeamNameExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM teams WHERE name = $1)`, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check team name: %w", err)
	}
	return exists, nil
}

// CreateTeam inserts a team and returns its new identifier.
// A unique violation on the name is reported as ErrTeamNameTaken.
func (s *Store) CreateTeam(ctx context.Context, name, passwordHash string) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO teams (name, password_hash) VALUES ($1, $2) RETURNING id`,
		name, passwordHash,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrTeamNameTaken
		}
		return 0, fmt.Errorf("insert team: %w", err)
	}
	return id, nil
}

// TeamByID returns the team with id, or ErrTeamNotFound.
func (s *Store) TeamByID(ctx context.Context, id int64) (Team, error) {
	var t Team
	err := s.db.QueryRow(ctx,
		`SELECT id, name, password_hash, created_at FROM teams WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.PasswordHash, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Team{}, ErrTeamNotFound
	}
	if err != nil {
		return Team{}, fmt.Errorf("select team %d: %w", id, err)
	}
	return t, nil
}

// TeamByName returns the team registered under name, or ErrTeamNotFound.
func (s *Store) TeamByName(ctx context.Context, name string) (Team, error) {
	var t Team
	err := s.db.QueryRow(ctx,
		`SELECT id, name, password_hash, created_at FROM teams WHERE name = $1`, name,
	).Scan(&t.ID, &t.Name, &t.PasswordHash, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Team{}, ErrTeamNotFound
	}
	if err != nil {
		return Team{}, fmt.Errorf("select team by name: %w", err)
	}
	return t, nil
}

// ListTeams returns every team ordered by id.
func (s *Store) ListTeams(ctx context.Context) ([]Team, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, password_hash, created_at FROM teams ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}
	teams, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Team, error) {
		var t Team
		err := row.Scan(&t.ID, &t.Name, &t.PasswordHash, &t.CreatedAt)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan teams: %w", err)
	}
	return teams, nil
}

// InsertPlayer adds a player to teamID and returns the new player id.
// Empty numeric and date values are stored as NULL; anything else is cast by
// the database and a cast failure is returned as the insert error.
func (s *Store) InsertPlayer(ctx context.Context, teamID int64, f PlayerFields) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO players (
			jersey_number,
			name,
			height_cm,
			weight_kg,
			position,
			birthdate,
			birthplace,
			team_id
		) VALUES (
			NULLIF($1, '')::integer,
			$2,
			NULLIF($3, '')::numeric,
			NULLIF($4, '')::numeric,
			$5,
			NULLIF($6, '')::date,
			$7,
			$8
		) RETURNING id`,
		f.JerseyNumber, f.Name, f.HeightCM, f.WeightKG, f.Position, f.Birthdate, f.Birthplace, teamID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert player: %w", err)
	}
	return id, nil
}

// UpdatePlayer overwrites the attributes of player id and returns its team id.
func (s *Store) UpdatePlayer(ctx context.Context, id int64, f PlayerFields) (int64, error) {
	var teamID int64
	err := s.db.QueryRow(ctx, `
		UPDATE players SET
			jersey_number = NULLIF($1, '')::integer,
			name          = $2,
			height_cm     = NULLIF($3, '')::numeric,
			weight_kg     = NULLIF($4, '')::numeric,
			position      = $5,
			birthdate     = NULLIF($6, '')::date,
			birthplace    = $7
		WHERE id = $8
		RETURNING team_id`,
		f.JerseyNumber, f.Name, f.HeightCM, f.WeightKG, f.Position, f.Birthdate, f.Birthplace, id,
	).Scan(&teamID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrPlayerNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("update player %d: %w", id, err)
	}
	return teamID, nil
}

// DeletePlayer removes player id.
func (s *Store) DeletePlayer(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete player %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// PlayerByID returns player id, or ErrPlayerNotFound.
func (s *Store) PlayerByID(ctx context.Context, id int64) (Player, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = $1`, id)
	if err != nil {
		return Player{}, fmt.Errorf("select player %d: %w", id, err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanPlayer)
	if errors.Is(err, pgx.ErrNoRows) {
		return Player{}, ErrPlayerNotFound
	}
	if err != nil {
		return Player{}, fmt.Errorf("scan player %d: %w", id, err)
	}
	return p, nil
}

// PlayersByTeam returns the players of teamID ordered by jersey number.
func (s *Store) PlayersByTeam(ctx context.Context, teamID int64) ([]Player, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+playerColumns+` FROM players WHERE team_id = $1
		 ORDER BY jersey_number NULLS LAST, id`, teamID)
	if err != nil {
		return nil, fmt.Errorf("select players of team %d: %w", teamID, err)
	}
	players, err := pgx.CollectRows(rows, scanPlayer)
	if err != nil {
		return nil, fmt.Errorf("scan players of team %d: %w", teamID, err)
	}
	return players, nil
}

func scanPlayer(row pgx.CollectableRow) (Player, error) {
	var p Player
	err := row.Scan(
		&p.ID,
		&p.TeamID,
		&p.JerseyNumber,
		&p.Name,
		&p.HeightCM,
		&p.WeightKG,
		&p.Position,
		&p.Birthdate,
		&p.Birthplace,
	)
	return p, err
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
