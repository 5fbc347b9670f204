package roster

// errors.go defines the roster error values and maps technical errors to
// user-facing messages with codes for support reference.
//
// # Codes
//
//	TEAM001 - Team name already used
//	TEAM002 - Team not found
//	TEAM003 - Team name or password incorrect
//	PLY001  - Player not found
//	FILE001 - No CSV file selected
//	FILE002 - File could not be decoded in the expected encoding
//	FILE003 - File header does not match the roster template
//	FILE004 - File too large
//	FILE005 - File has no header row
//	UPL001  - Too many imports in progress
//	UPL002  - Request timed out
//	DB001   - Value could not be stored in a numeric or date column
//	DB002   - Unable to connect to database
//	DB003   - Database operation timed out
//	ERR000  - Unknown error
//
// Sentinel errors are matched with errors.Is first; anything else falls back
// to case-insensitive substring patterns on the error text, first match wins.

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTeamNameTaken      = errors.New("team name already used")
	ErrTeamNotFound       = errors.New("team not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrInvalidCredentials = errors.New("invalid team name or password")
	ErrNoFile             = errors.New("no file provided")
	ErrTooManyImports     = errors.New("too many imports in progress")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

var sentinelMessages = []sentinelMessage{
	{ErrTeamNameTaken, UserMessage{
		Message: "そのチームネームは既に使用されています。",
		Action:  "別のチーム名を入力してください",
		Code:    "TEAM001",
	}},
	{ErrTeamNotFound, UserMessage{
		Message: "チームが見つかりません",
		Action:  "チーム一覧から選択してください",
		Code:    "TEAM002",
	}},
	{ErrInvalidCredentials, UserMessage{
		Message: "チーム名またはパスワードが正しくありません",
		Action:  "入力内容を確認してください",
		Code:    "TEAM003",
	}},
	{ErrPlayerNotFound, UserMessage{
		Message: "選手が見つかりません",
		Action:  "選手一覧から選択してください",
		Code:    "PLY001",
	}},
	{ErrNoFile, UserMessage{
		Message: "CSVファイルが選択されていません。",
		Action:  "名簿のCSVファイルを選択してください",
		Code:    "FILE001",
	}},
	{ErrTooManyImports, UserMessage{
		Message: "現在ほかの取り込みが実行中です",
		Action:  "しばらくしてから再度お試しください",
		Code:    "UPL001",
	}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns are matched against the lowercased error text.
// Order matters: specific before general.
var errorPatterns = []errorPattern{
	{"malformed input", UserMessage{
		Message: "ファイルを読み込めませんでした",
		Action:  "Shift_JIS 形式のCSVで保存してください",
		Code:    "FILE002",
	}},
	{"header mismatch", UserMessage{
		Message: "CSVの見出しがテンプレートと一致しません",
		Action:  "テンプレートをダウンロードして見出しを確認してください",
		Code:    "FILE003",
	}},
	{"no header row", UserMessage{
		Message: "CSVに見出し行がありません",
		Action:  "テンプレートの見出し行を残したまま入力してください",
		Code:    "FILE005",
	}},
	{"request body too large", UserMessage{
		Message: "ファイルサイズが大きすぎます",
		Action:  "ファイルを分割してください",
		Code:    "FILE004",
	}},
	{"violates foreign key constraint", UserMessage{
		Message: "チームが見つかりません",
		Action:  "チーム一覧から選択してください",
		Code:    "TEAM002",
	}},
	{"invalid input syntax", UserMessage{
		Message: "数値または日付の形式が正しくありません",
		Action:  "背番号・身長・体重は数値、誕生日は 2000-1-1 の形式で入力してください",
		Code:    "DB001",
	}},
	{"date/time field value out of range", UserMessage{
		Message: "数値または日付の形式が正しくありません",
		Action:  "誕生日は 2000-1-1 の形式で入力してください",
		Code:    "DB001",
	}},
	{"connection refused", UserMessage{
		Message: "データベースに接続できません",
		Action:  "しばらくしてから再度お試しください",
		Code:    "DB002",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "処理がタイムアウトしました",
		Action:  "小さいファイルで再度お試しください",
		Code:    "UPL002",
	}},
	{"timeout", UserMessage{
		Message: "データベース処理がタイムアウトしました",
		Action:  "しばらくしてから再度お試しください",
		Code:    "DB003",
	}},
}

var defaultMessage = UserMessage{
	Message: "DBエラーが発生しました",
	Action:  "もう一度お試しください",
	Code:    "ERR000",
}

// MapError converts a technical error into a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	text := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(text, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError formats err as "Message (Code: XXX)".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s)", msg.Message, msg.Code)
}

// IsBusinessOutcome reports whether err is an expected outcome that gets its
// own message rather than a generic failure.
func IsBusinessOutcome(err error) bool {
	return errors.Is(err, ErrTeamNameTaken) || errors.Is(err, ErrNoFile)
}
