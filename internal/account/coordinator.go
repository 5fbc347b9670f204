// Package account creates team accounts and bootstraps their roster from an
// uploaded CSV file.
package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/roster/internal/csvimport"
	"github.com/JonMunkholm/roster/internal/logging"
	"github.com/JonMunkholm/roster/internal/roster"
	"github.com/google/uuid"
	"golang.org/x/text/encoding"
)

// DefaultImportTimeout bounds one account creation including its import.
const DefaultImportTimeout = 10 * time.Minute

// TeamStore is the persistence the coordinator needs. *roster.Store satisfies it.
type TeamStore interface {
	TeamNameExists(ctx context.Context, name string) (bool, error)
	CreateTeam(ctx context.Context, name, passwordHash string) (int64, error)
	InsertPlayer(ctx context.Context, teamID int64, f roster.PlayerFields) (int64, error)
}

// State is a step of the account creation sequence.
type State string

const (
	StateAwaitingTeamNameCheck State = "awaiting_team_name_check"
	StateTeamNameConflict      State = "team_name_conflict"
	StateTeamCreated           State = "team_created"
	StateFileMissing           State = "file_missing"
	StateImporting             State = "importing"
	StateDone                  State = "done"
	// StateAborted ends an import whose file could not be read to the end.
	// Rows inserted before the failure are kept.
	StateAborted State = "aborted"
)

// Request is one submission of the account creation form.
type Request struct {
	TeamName string
	Password string
	// File is the uploaded roster, nil when no file part was sent.
	File     io.Reader
	FileName string
}

// RowFailure records a row that was parsed or inserted unsuccessfully.
type RowFailure struct {
	Line   int
	Reason string
}

// Summary is the outcome of CreateAccount.
type Summary struct {
	ImportID string
	TeamID   int64
	State    State
	Rows     int
	Inserted int
	Failed   []RowFailure
}

// Options configures a Coordinator.
type Options struct {
	Encoding      encoding.Encoding
	HeaderPolicy  csvimport.HeaderPolicy
	BcryptCost    int
	Timeout       time.Duration
	MaxConcurrent int
	MaxWait       time.Duration
}

// Coordinator sequences team creation and roster import.
type Coordinator struct {
	store      TeamStore
	enc        encoding.Encoding
	mapper     *csvimport.Mapper
	bcryptCost int
	timeout    time.Duration
	limiter    *ImportLimiter
}

// NewCoordinator creates a Coordinator. A nil Encoding means Shift_JIS.
func NewCoordinator(store TeamStore, opts Options) (*Coordinator, error) {
	enc := opts.Encoding
	if enc == nil {
		var err error
		if enc, err = csvimport.Encoding(csvimport.DefaultEncoding); err != nil {
			return nil, err
		}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultImportTimeout
	}

	return &Coordinator{
		store:      store,
		enc:        enc,
		mapper:     csvimport.NewMapper(opts.HeaderPolicy),
		bcryptCost: opts.BcryptCost,
		timeout:    timeout,
		limiter:    NewImportLimiter(opts.MaxConcurrent, opts.MaxWait),
	}, nil
}

// Limiter exposes the import limiter for shutdown draining.
func (c *Coordinator) Limiter() *ImportLimiter {
	return c.limiter
}

// CreateAccount registers a team and imports its roster.
//
// It returns roster.ErrTeamNameTaken without writing anything when the name
// is in use, and roster.ErrNoFile after creating the team when no file was
// supplied. Otherwise every data row is inserted against the new team in
// file order; failed rows are logged and listed in the summary without
// stopping the import or undoing earlier inserts.
func (c *Coordinator) CreateAccount(ctx context.Context, req Request) (Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	sum := Summary{ImportID: uuid.NewString(), State: StateAwaitingTeamNameCheck}
	name := strings.TrimSpace(req.TeamName)
	log := logging.WithFields(ctx, "import_id", sum.ImportID, "team", name)

	exists, err := c.store.TeamNameExists(ctx, name)
	if err != nil {
		return sum, err
	}
	if exists {
		sum.State = StateTeamNameConflict
		log.Info("team name already used")
		return sum, roster.ErrTeamNameTaken
	}

	if req.File != nil {
		if err := c.limiter.Acquire(ctx); err != nil {
			return sum, err
		}
		defer c.limiter.Release()
	}

	hash, err := roster.HashPassword(req.Password, c.bcryptCost)
	if err != nil {
		return sum, err
	}

	teamID, err := c.store.CreateTeam(ctx, name, hash)
	if errors.Is(err, roster.ErrTeamNameTaken) {
		// Lost a race with a concurrent registration after the pre-check.
		sum.State = StateTeamNameConflict
		log.Info("team name already used", "detected_by", "unique_constraint")
		return sum, err
	}
	if err != nil {
		return sum, err
	}
	sum.TeamID = teamID
	sum.State = StateTeamCreated
	log = log.With("team_id", teamID)
	log.Info("team created")

	if req.File == nil {
		sum.State = StateFileMissing
		log.Info("no roster file supplied")
		return sum, roster.ErrNoFile
	}

	sum.State = StateImporting
	start := time.Now()
	if err := c.importRows(ctx, log, req.File, &sum); err != nil {
		sum.State = StateAborted
		log.Error("roster import aborted",
			"error", err,
			"rows", sum.Rows,
			"inserted", sum.Inserted,
		)
		return sum, err
	}

	sum.State = StateDone
	log.Info("roster import finished",
		"file", req.FileName,
		"rows", sum.Rows,
		"inserted", sum.Inserted,
		"failed", len(sum.Failed),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return sum, nil
}

// importRows runs decode, parse, and transform over file and inserts each
// record. It returns an error only when the file cannot be read further.
func (c *Coordinator) importRows(ctx context.Context, log *slog.Logger, file io.Reader, sum *Summary) error {
	parser, err := csvimport.NewParser(csvimport.NewDecoder(file, c.enc))
	if err != nil {
		return fmt.Errorf("read roster header: %w", err)
	}
	if err := c.mapper.CheckHeader(parser.Header()); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("import interrupted: %w", err)
		}

		rec, err := parser.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		var rowErr *csvimport.RowError
		if errors.As(err, &rowErr) {
			sum.Rows++
			sum.Failed = append(sum.Failed, RowFailure{Line: rowErr.Line, Reason: rowErr.Err.Error()})
			log.Warn("skipping unparsable row", "line", rowErr.Line, "error", rowErr.Err)
			continue
		}
		if err != nil {
			return fmt.Errorf("read roster: %w", err)
		}

		sum.Rows++
		if _, err := c.store.InsertPlayer(ctx, sum.TeamID, c.mapper.Transform(rec)); err != nil {
			sum.Failed = append(sum.Failed, RowFailure{Line: rec.Line, Reason: roster.FormatUserError(err)})
			log.Warn("player insert failed", "line", rec.Line, "error", err)
			continue
		}
		sum.Inserted++
	}
}
