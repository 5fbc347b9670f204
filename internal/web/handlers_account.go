package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/roster/internal/account"
	"github.com/JonMunkholm/roster/internal/logging"
	"github.com/JonMunkholm/roster/internal/roster"
	"github.com/JonMunkholm/roster/internal/web/templates"
)

// multipartMemory is how much of the form is buffered in memory before
// spilling the file part to disk.
const multipartMemory = 8 << 20

// msgMissingCredentials is shown when the team name or password is blank.
const msgMissingCredentials = "チーム名とパスワードを入力してください"

// handleCreateAccount registers a team and imports its roster file.
//
// Form fields: teamname, password, and an optional csvfile part. A taken
// name or a missing file re-renders the account form with the message;
// otherwise the browser is sent to the new team's roster with the import
// counts.
func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	// The import may run for the whole upload timeout, past the server's
	// read and write timeouts.
	extendDeadlines(w, r, s.cfg.Upload.Timeout+s.cfg.Server.WriteTimeout)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	req := account.Request{
		TeamName: strings.TrimSpace(r.PostFormValue("teamname")),
		Password: r.PostFormValue("password"),
	}
	if req.TeamName == "" || req.Password == "" {
		s.render(w, r, http.StatusOK, templates.Account(msgMissingCredentials))
		return
	}

	file, header, err := r.FormFile("csvfile")
	switch {
	case err == nil:
		defer file.Close()
		req.File = file
		req.FileName = header.Filename
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// File stays nil; the coordinator reports it after creating the team.
	default:
		s.respondError(w, r, fmt.Errorf("read csvfile part: %w", err), statusFor(err))
		return
	}

	sum, err := s.accounts.CreateAccount(r.Context(), req)
	if roster.IsBusinessOutcome(err) {
		s.render(w, r, http.StatusOK, templates.Account(roster.MapError(err).Message))
		return
	}
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	target := fmt.Sprintf("/players/%d?imported=%d&failed=%d", sum.TeamID, sum.Inserted, len(sum.Failed))
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// extendDeadlines moves the connection read and write deadlines d from now.
// Writers that cannot set deadlines, such as test recorders, are skipped.
func extendDeadlines(w http.ResponseWriter, r *http.Request, d time.Duration) {
	if d <= 0 {
		return
	}
	deadline := time.Now().Add(d)
	rc := http.NewResponseController(w)
	for _, set := range []func(time.Time) error{rc.SetReadDeadline, rc.SetWriteDeadline} {
		if err := set(deadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
			logging.FromContext(r.Context()).Warn("could not extend connection deadline", "error", err)
		}
	}
}
