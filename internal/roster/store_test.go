package roster

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB is a DBTX that answers each call from canned results and records
// the SQL and arguments it was given.
type fakeDB struct {
	row      fakeRow
	rows     *fakeRows
	queryErr error
	tag      pgconn.CommandTag
	execErr  error

	sql  string
	args []any
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql, f.args = sql, args
	return f.tag, f.execErr
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.sql, f.args = sql, args
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.rows, nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.sql, f.args = sql, args
	return f.row
}

// fakeRow scans values into its destinations, or fails with err.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

func assign(dest, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(values))
	}
	for i, v := range values {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

// fakeRows is a pgx.Rows over in-memory records.
type fakeRows struct {
	records [][]any
	pos     int
	closed  bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.closed || r.pos >= len(r.records) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(dest, r.records[r.pos-1])
}

func (r *fakeRows) Values() ([]any, error) {
	return r.records[r.pos-1], nil
}

func playerRecord(id, teamID int64, jersey, name string) []any {
	return []any{id, teamID, jersey, name, "", "", "", "", ""}
}

func TestStore_TeamNameExists(t *testing.T) {
	tests := []struct {
		name    string
		row     fakeRow
		want    bool
		wantErr bool
	}{
		{"taken", fakeRow{values: []any{true}}, true, false},
		{"free", fakeRow{values: []any{false}}, false, false},
		{"query error", fakeRow{err: errors.New("connection reset")}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &fakeDB{row: tt.row}
			got, err := NewStore(db).TeamNameExists(context.Background(), "Hawks")
			if (err != nil) != tt.wantErr {
				t.Fatalf("TeamNameExists() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("TeamNameExists() = %v, want %v", got, tt.want)
			}
			if !reflect.DeepEqual(db.args, []any{"Hawks"}) {
				t.Errorf("args = %v, want [Hawks]", db.args)
			}
		})
	}
}

func TestStore_CreateTeam(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "teams_name_key"}

	tests := []struct {
		name      string
		row       fakeRow
		wantID    int64
		wantErr   error
		wantTaken bool
	}{
		{"created", fakeRow{values: []any{int64(42)}}, 42, nil, false},
		{"unique violation", fakeRow{err: unique}, 0, ErrTeamNameTaken, true},
		{"wrapped unique violation", fakeRow{err: fmt.Errorf("insert: %w", unique)}, 0, ErrTeamNameTaken, true},
		{"other pg error", fakeRow{err: &pgconn.PgError{Code: "23502"}}, 0, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &fakeDB{row: tt.row}
			id, err := NewStore(db).CreateTeam(context.Background(), "Hawks", "$2a$hash")

			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateTeam() error = %v, want %v", err, tt.wantErr)
			}
			if got := errors.Is(err, ErrTeamNameTaken); got != tt.wantTaken {
				t.Errorf("errors.Is(err, ErrTeamNameTaken) = %v, want %v", got, tt.wantTaken)
			}
			if tt.row.err == nil && err != nil {
				t.Fatalf("CreateTeam() error = %v", err)
			}
			if tt.row.err != nil && err == nil {
				t.Fatal("CreateTeam() expected error")
			}
			if id != tt.wantID {
				t.Errorf("CreateTeam() id = %d, want %d", id, tt.wantID)
			}
			if !reflect.DeepEqual(db.args, []any{"Hawks", "$2a$hash"}) {
				t.Errorf("args = %v", db.args)
			}
		})
	}
}

func TestStore_TeamByID(t *testing.T) {
	db := &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}
	if _, err := NewStore(db).TeamByID(context.Background(), 9); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("TeamByID() error = %v, want ErrTeamNotFound", err)
	}

	db.row = fakeRow{err: errors.New("timeout")}
	_, err := NewStore(db).TeamByID(context.Background(), 9)
	if err == nil || errors.Is(err, ErrTeamNotFound) {
		t.Errorf("TeamByID() error = %v, want wrapped query error", err)
	}
}

func TestStore_TeamByNameNotFound(t *testing.T) {
	db := &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}
	if _, err := NewStore(db).TeamByName(context.Background(), "Eagles"); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("TeamByName() error = %v, want ErrTeamNotFound", err)
	}
}

func TestStore_InsertPlayer(t *testing.T) {
	db := &fakeDB{row: fakeRow{values: []any{int64(7)}}}
	fields := PlayerFields{JerseyNumber: "7", Name: "佐藤", Position: "PG"}

	id, err := NewStore(db).InsertPlayer(context.Background(), 3, fields)
	if err != nil {
		t.Fatalf("InsertPlayer() error = %v", err)
	}
	if id != 7 {
		t.Errorf("InsertPlayer() id = %d, want 7", id)
	}
	want := []any{"7", "佐藤", "", "", "PG", "", "", int64(3)}
	if !reflect.DeepEqual(db.args, want) {
		t.Errorf("args = %v, want %v", db.args, want)
	}
	if !strings.Contains(db.sql, "NULLIF($1, '')::integer") {
		t.Errorf("jersey number not coerced: %s", db.sql)
	}
}

func TestStore_InsertPlayerCastError(t *testing.T) {
	cast := &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type integer: "x"`}
	db := &fakeDB{row: fakeRow{err: cast}}

	_, err := NewStore(db).InsertPlayer(context.Background(), 3, PlayerFields{JerseyNumber: "x"})
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "22P02" {
		t.Errorf("InsertPlayer() error = %v, want wrapped cast error", err)
	}
}

func TestStore_UpdatePlayer(t *testing.T) {
	tests := []struct {
		name       string
		row        fakeRow
		wantTeamID int64
		wantErr    error
	}{
		{"updated", fakeRow{values: []any{int64(3)}}, 3, nil},
		{"missing player", fakeRow{err: pgx.ErrNoRows}, 0, ErrPlayerNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &fakeDB{row: tt.row}
			teamID, err := NewStore(db).UpdatePlayer(context.Background(), 11, PlayerFields{Name: "佐藤"})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("UpdatePlayer() error = %v, want %v", err, tt.wantErr)
			}
			if teamID != tt.wantTeamID {
				t.Errorf("UpdatePlayer() team = %d, want %d", teamID, tt.wantTeamID)
			}
			if got := db.args[len(db.args)-1]; got != int64(11) {
				t.Errorf("last arg = %v, want player id 11", got)
			}
		})
	}
}

func TestStore_DeletePlayer(t *testing.T) {
	tests := []struct {
		name    string
		tag     pgconn.CommandTag
		execErr error
		wantErr error
	}{
		{"deleted", pgconn.NewCommandTag("DELETE 1"), nil, nil},
		{"no rows affected", pgconn.NewCommandTag("DELETE 0"), nil, ErrPlayerNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &fakeDB{tag: tt.tag, execErr: tt.execErr}
			if err := NewStore(db).DeletePlayer(context.Background(), 5); !errors.Is(err, tt.wantErr) {
				t.Errorf("DeletePlayer() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStore_DeletePlayerExecError(t *testing.T) {
	db := &fakeDB{execErr: errors.New("connection reset")}
	err := NewStore(db).DeletePlayer(context.Background(), 5)
	if err == nil || errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("DeletePlayer() error = %v, want wrapped exec error", err)
	}
}

func TestStore_PlayersByTeam(t *testing.T) {
	rows := &fakeRows{records: [][]any{
		playerRecord(1, 3, "7", "佐藤"),
		playerRecord(2, 3, "23", "鈴木"),
	}}
	db := &fakeDB{rows: rows}

	players, err := NewStore(db).PlayersByTeam(context.Background(), 3)
	if err != nil {
		t.Fatalf("PlayersByTeam() error = %v", err)
	}
	if len(players) != 2 {
		t.Fatalf("len(players) = %d, want 2", len(players))
	}
	if players[0].JerseyNumber != "7" || players[1].Name != "鈴木" || players[1].TeamID != 3 {
		t.Errorf("players = %+v", players)
	}
	if !rows.closed {
		t.Error("rows not closed")
	}
}

func TestStore_PlayerByID(t *testing.T) {
	db := &fakeDB{rows: &fakeRows{records: [][]any{playerRecord(4, 3, "", "佐藤")}}}
	p, err := NewStore(db).PlayerByID(context.Background(), 4)
	if err != nil {
		t.Fatalf("PlayerByID() error = %v", err)
	}
	if p.ID != 4 || p.JerseyNumber != "" || p.Name != "佐藤" {
		t.Errorf("PlayerByID() = %+v", p)
	}

	db = &fakeDB{rows: &fakeRows{}}
	if _, err := NewStore(db).PlayerByID(context.Background(), 4); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("PlayerByID() error = %v, want ErrPlayerNotFound", err)
	}
}

func TestStore_ListTeamsQueryError(t *testing.T) {
	db := &fakeDB{queryErr: errors.New("connection refused")}
	if _, err := NewStore(db).ListTeams(context.Background()); err == nil {
		t.Fatal("ListTeams() expected error")
	}
}
