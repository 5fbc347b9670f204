// Package templates holds the templ components for the roster pages.
package templates

import (
	"strconv"

	"github.com/JonMunkholm/roster/internal/roster"
	"github.com/a-h/templ"
)

// DefaultAccountHeading is shown on a fresh account form.
const DefaultAccountHeading = "ログインに使用するチーム名とパスワードを入力してください"

// UnknownTeamName is displayed when a listed team id has no team row.
const UnknownTeamName = "チーム名不明"

// ImportResult is the outcome banner shown after an account import.
type ImportResult struct {
	Shown    bool
	Inserted int
	Failed   int
}

// Message is the banner text.
func (r ImportResult) Message() string {
	msg := strconv.Itoa(r.Inserted) + "件の選手を登録しました"
	if r.Failed > 0 {
		msg += "（" + strconv.Itoa(r.Failed) + "件は登録できませんでした）"
	}
	return msg
}

// PlayerFormData drives the add and edit forms.
type PlayerFormData struct {
	Title    string
	Action   string // form target, "/add" or "/update"
	TeamID   int64
	PlayerID int64 // zero on add
	Fields   roster.PlayerFields
}

func accountHeading(heading string) string {
	if heading == "" {
		return DefaultAccountHeading
	}
	return heading
}

func teamName(t roster.Team) string {
	if t.Name == "" {
		return UnknownTeamName
	}
	return t.Name
}

func inputType(f roster.Field) string {
	if f == roster.FieldJerseyNumber {
		return "number"
	}
	return "text"
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func teamURL(id int64) templ.SafeURL {
	return templ.SafeURL("/players/" + formatID(id))
}

func addURL(teamID int64) templ.SafeURL {
	return templ.SafeURL("/add/" + formatID(teamID))
}

func editURL(id int64) templ.SafeURL {
	return templ.SafeURL("/edit/" + formatID(id))
}
