package web

// errors.go provides unified error response handling for the web layer.
//
// Every failed request is logged with its technical error and the request id,
// then rendered as the error page carrying the user message from
// roster.MapError. Business outcomes of account creation never reach here;
// they re-render the account form instead.

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/roster/internal/csvimport"
	"github.com/JonMunkholm/roster/internal/logging"
	"github.com/JonMunkholm/roster/internal/roster"
	"github.com/JonMunkholm/roster/internal/web/templates"
	"github.com/a-h/templ"
)

// respondError logs err and renders the error page with status.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	userMsg := roster.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	s.render(w, r, status, templates.Error(userMsg))
}

// render writes c as an HTML response with status.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render failed", "path", r.URL.Path, "error", err)
	}
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, roster.ErrTeamNotFound), errors.Is(err, roster.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, roster.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, roster.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.As(err, &maxBytes), strings.Contains(err.Error(), "request body too large"):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, csvimport.ErrMalformedInput),
		errors.Is(err, csvimport.ErrHeaderMismatch),
		errors.Is(err, csvimport.ErrNoHeader):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
