package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/roster/internal/csvimport"
	"github.com/JonMunkholm/roster/internal/logging"
	"github.com/JonMunkholm/roster/internal/roster"
	"github.com/JonMunkholm/roster/internal/web/templates"
)

// templateFileName is the download name of the roster template.
const templateFileName = "teamDirectory.csv"

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	teams, err := s.roster.ListTeams(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.render(w, r, http.StatusOK, templates.Top(teams))
}

func (s *Server) handleAccountForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, templates.Account(""))
}

func (s *Server) handleRegistration(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, templates.Registration())
}

func (s *Server) handleSignupForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, templates.Signup(""))
}

// handleSignup logs a team in and shows its roster.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	team, err := s.roster.Authenticate(r.Context(), r.PostFormValue("teamname"), r.PostFormValue("password"))
	if errors.Is(err, roster.ErrInvalidCredentials) {
		s.render(w, r, http.StatusUnauthorized, templates.Signup(roster.MapError(err).Message))
		return
	}
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	logging.FromContext(r.Context()).Info("team signed in", "team_id", team.ID)
	http.Redirect(w, r, "/players/"+strconv.FormatInt(team.ID, 10), http.StatusSeeOther)
}

// handleDownloadTemplate serves the empty roster file in the source encoding.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+templateFileName+`"`)
	if err := csvimport.WriteTemplate(w, s.enc); err != nil {
		logging.FromContext(r.Context()).Error("write template failed", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		logging.FromContext(ctx).Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
