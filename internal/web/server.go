// Package web provides the HTTP server and handlers for the roster UI.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/JonMunkholm/roster/internal/account"
	"github.com/JonMunkholm/roster/internal/config"
	"github.com/JonMunkholm/roster/internal/csvimport"
	"github.com/JonMunkholm/roster/internal/roster"
	custommw "github.com/JonMunkholm/roster/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/text/encoding"
)

//go:embed static
var staticFiles embed.FS

// RosterService is the team and player surface the handlers use.
// *roster.Service satisfies it.
type RosterService interface {
	ListTeams(ctx context.Context) ([]roster.Team, error)
	Roster(ctx context.Context, teamID int64) (roster.TeamRoster, error)
	Player(ctx context.Context, id int64) (roster.Player, error)
	AddPlayer(ctx context.Context, teamID int64, f roster.PlayerFields) (int64, error)
	UpdatePlayer(ctx context.Context, id int64, f roster.PlayerFields) (int64, error)
	DeletePlayer(ctx context.Context, id int64) error
	Authenticate(ctx context.Context, name, password string) (roster.Team, error)
}

// AccountCreator runs the account creation and roster import sequence.
// *account.Coordinator satisfies it.
type AccountCreator interface {
	CreateAccount(ctx context.Context, req account.Request) (account.Summary, error)
}

// Pinger checks database connectivity. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the server dispatches to.
type Deps struct {
	Roster   RosterService
	Accounts AccountCreator
	DB       Pinger
}

// Server is the HTTP server for the roster application.
type Server struct {
	roster   RosterService
	accounts AccountCreator
	db       Pinger
	cfg      *config.Config
	enc      encoding.Encoding
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a Server with routes and middleware configured from cfg.
func NewServer(deps Deps, cfg *config.Config) (*Server, error) {
	enc, err := csvimport.Encoding(cfg.Upload.SourceEncoding)
	if err != nil {
		return nil, err
	}

	s := &Server{
		roster:   deps.Roster,
		accounts: deps.Accounts,
		db:       deps.DB,
		cfg:      cfg,
		enc:      enc,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	if err := s.setupRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(custommw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(custommw.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() error {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("static files: %w", err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// Account creation runs under the import timeout instead.
	s.router.Post("/new_acc", s.handleCreateAccount)

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

		r.Get("/", redirectTo("/top"))
		r.Get("/top", s.handleTop)
		r.Get("/healthz", s.handleHealth)

		// Account and login
		r.Get("/account", s.handleAccountForm)
		r.Get("/new_acc", redirectTo("/top"))
		r.Get("/signup", s.handleSignupForm)
		r.Post("/signup", s.handleSignup)
		r.Get("/registration", s.handleRegistration)
		r.Get("/download", s.handleDownloadTemplate)

		// Players
		r.Get("/players", redirectTo("/top"))
		r.Get("/players/{teamID}", s.handlePlayers)
		r.Get("/add", redirectTo("/top"))
		r.Get("/add/{teamID}", s.handleAddForm)
		r.Post("/add", s.handleAddPlayer)
		r.Get("/edit/{id}", s.handleEditForm)
		r.Post("/update", s.handleUpdatePlayer)
		r.Post("/delete", s.handleDeletePlayer)
	})
	return nil
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func redirectTo(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, path, http.StatusFound)
	}
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self'; img-src 'self' data:; form-action 'self'")
			}
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimiter is a fixed-window request limiter keyed by client IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries once per window.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// allow consumes a token for ip and reports whether one was available.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, exists := rl.visitors[ip]
	if !exists || now.Sub(v.lastReset) > rl.window {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: now}
		return true
	}

	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

// middleware rate limits by r.RemoteAddr, which TrustedRealIP has already
// resolved to the client address.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}

		if !rl.allow(ip) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, "リクエストが多すぎます。しばらくしてから再度お試しください", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
