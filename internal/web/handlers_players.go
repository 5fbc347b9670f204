package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/roster/internal/roster"
	"github.com/JonMunkholm/roster/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// handlePlayers lists a team's roster. imported and failed query values,
// set by the account import redirect, show a result banner.
func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	teamID, ok := parseID(chi.URLParam(r, "teamID"))
	if !ok {
		s.respondError(w, r, roster.ErrTeamNotFound, http.StatusNotFound)
		return
	}

	tr, err := s.roster.Roster(r.Context(), teamID)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	s.render(w, r, http.StatusOK, templates.Players(tr, importResult(r)))
}

func (s *Server) handleAddForm(w http.ResponseWriter, r *http.Request) {
	teamID, ok := parseID(chi.URLParam(r, "teamID"))
	if !ok {
		s.respondError(w, r, roster.ErrTeamNotFound, http.StatusNotFound)
		return
	}

	s.render(w, r, http.StatusOK, templates.PlayerForm(templates.PlayerFormData{
		Title:  "選手追加",
		Action: "/add",
		TeamID: teamID,
	}))
}

func (s *Server) handleAddPlayer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	teamID, _ := parseID(r.PostFormValue("team_id"))
	if _, err := s.roster.AddPlayer(r.Context(), teamID, playerFieldsFromForm(r)); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	redirectToTeam(w, r, teamID)
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		s.respondError(w, r, roster.ErrPlayerNotFound, http.StatusNotFound)
		return
	}

	p, err := s.roster.Player(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	s.render(w, r, http.StatusOK, templates.PlayerForm(templates.PlayerFormData{
		Title:    "選手編集",
		Action:   "/update",
		PlayerID: p.ID,
		Fields:   p.PlayerFields,
	}))
}

// handleUpdatePlayer saves the edit form and returns to the player's team.
// A player that no longer exists sends the browser to the team list.
func (s *Server) handleUpdatePlayer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	id, ok := parseID(r.PostFormValue("id"))
	if !ok {
		http.Redirect(w, r, "/top", http.StatusSeeOther)
		return
	}

	teamID, err := s.roster.UpdatePlayer(r.Context(), id, playerFieldsFromForm(r))
	if errors.Is(err, roster.ErrPlayerNotFound) {
		http.Redirect(w, r, "/top", http.StatusSeeOther)
		return
	}
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	redirectToTeam(w, r, teamID)
}

// handleDeletePlayer removes a player and returns to the team given in the
// form. Deleting an already removed player is not an error.
func (s *Server) handleDeletePlayer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	teamID, _ := parseID(r.PostFormValue("team_id"))
	id, ok := parseID(r.PostFormValue("id"))
	if ok {
		err := s.roster.DeletePlayer(r.Context(), id)
		if err != nil && !errors.Is(err, roster.ErrPlayerNotFound) {
			s.respondError(w, r, err, statusFor(err))
			return
		}
	}

	redirectToTeam(w, r, teamID)
}

// playerFieldsFromForm reads the seven player inputs, named after their
// canonical fields.
func playerFieldsFromForm(r *http.Request) roster.PlayerFields {
	var f roster.PlayerFields
	for _, field := range roster.Fields {
		f.Set(field, strings.TrimSpace(r.PostFormValue(string(field))))
	}
	return f
}

func importResult(r *http.Request) templates.ImportResult {
	q := r.URL.Query()
	if !q.Has("imported") {
		return templates.ImportResult{}
	}
	inserted, _ := strconv.Atoi(q.Get("imported"))
	failed, _ := strconv.Atoi(q.Get("failed"))
	return templates.ImportResult{Shown: true, Inserted: inserted, Failed: failed}
}

// parseID parses a positive integer identifier.
func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// redirectToTeam sends the browser to the roster of teamID, or to the team
// list when no team is known.
func redirectToTeam(w http.ResponseWriter, r *http.Request, teamID int64) {
	if teamID <= 0 {
		http.Redirect(w, r, "/top", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/players/"+strconv.FormatInt(teamID, 10), http.StatusSeeOther)
}
