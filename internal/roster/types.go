// Package roster provides the team and player domain: types, persistence,
// and the read/write operations behind every roster view.
package roster

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Field identifies one of the seven canonical player attributes.
type Field string

const (
	FieldJerseyNumber Field = "jersey_number"
	FieldName         Field = "name"
	FieldHeightCM     Field = "height_cm"
	FieldWeightKG     Field = "weight_kg"
	FieldPosition     Field = "position"
	FieldBirthdate    Field = "birthdate"
	FieldBirthplace   Field = "birthplace"
)

// Fields lists the canonical fields in column order.
var Fields = []Field{
	FieldJerseyNumber,
	FieldName,
	FieldHeightCM,
	FieldWeightKG,
	FieldPosition,
	FieldBirthdate,
	FieldBirthplace,
}

// PlayerFields holds the editable attributes of a player as text.
// No coercion happens here; the store casts values on write.
type PlayerFields struct {
	JerseyNumber string
	Name         string
	HeightCM     string
	WeightKG     string
	Position     string
	Birthdate    string
	Birthplace   string
}

// Get returns the value stored for f.
func (p PlayerFields) Get(f Field) string {
	switch f {
	case FieldJerseyNumber:
		return p.JerseyNumber
	case FieldName:
		return p.Name
	case FieldHeightCM:
		return p.HeightCM
	case FieldWeightKG:
		return p.WeightKG
	case FieldPosition:
		return p.Position
	case FieldBirthdate:
		return p.Birthdate
	case FieldBirthplace:
		return p.Birthplace
	}
	return ""
}

// Set stores v under f. Unknown fields are ignored.
func (p *PlayerFields) Set(f Field, v string) {
	switch f {
	case FieldJerseyNumber:
		p.JerseyNumber = v
	case FieldName:
		p.Name = v
	case FieldHeightCM:
		p.HeightCM = v
	case FieldWeightKG:
		p.WeightKG = v
	case FieldPosition:
		p.Position = v
	case FieldBirthdate:
		p.Birthdate = v
	case FieldBirthplace:
		p.Birthplace = v
	}
}

// Team is an account owning zero or more players.
type Team struct {
	ID           int64
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// Player is a roster entry belonging to exactly one team.
type Player struct {
	ID     int64
	TeamID int64
	PlayerFields
}
