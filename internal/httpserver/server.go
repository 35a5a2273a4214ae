// apps/go-server/internal/httpserver/server.go
//
// HTTP server wiring for the Minesweeper backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health", "/presets".
//   - Game endpoints (optional auth): /game/new, /game/{id}, /game/{id}/{reveal,flag,chord,restart}.
//   - Live stream: GET /game/{id}/ws (outside the timeout group).
//   - Daily Challenge endpoints (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints: /auth/*, /stats/me, /games/mine.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with user context when a valid token is present;
//     routes can still run for guests.
//   - db may be nil (no persistence); auth, stats and daily routes then answer 503.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/minesweeper/apps/go-server/internal/config"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/game"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/presets"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/store"
)

// Server bundles router, live game store, websocket hub and DB handle.
type Server struct {
	r     *chi.Mux
	cfg   config.Config
	store store.Store
	db    *sql.DB
	clock game.TimerPort
	hub   *Hub
	daily *dailyServer
}

// New constructs a Server, installs middleware, and registers routes.
// clock drives every game's timer; nil disables the clock.
func New(cfg config.Config, st store.Store, db *sql.DB, clock game.TimerPort) *Server {
	s := &Server{r: chi.NewRouter(), cfg: cfg, store: st, db: db, clock: clock, hub: NewHub()}

	// --- middleware ---
	s.r.Use(chimw.RequestID)             // add X-Request-ID
	s.r.Use(chimw.RealIP)                // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger)) // per-request logger in context
	s.r.Use(requestIDField)              // tag it with the request id
	s.r.Use(chimw.Recoverer)             // recover from panics
	s.r.Use(s.cors)                      // credentials-friendly CORS

	s.r.Group(func(api chi.Router) {
		api.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		api.Use(jsonContentType)                 // default JSON responses
		api.Use(accessLog)

		// --- diagnostics ---
		api.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"minesweeper-go","endpoints":["/health","/presets","POST /game/new","POST /game/{id}/reveal","GET /game/{id}/ws","/daily/*","/auth/*"]}`))
		})
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		api.Get("/presets", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"default": s.defaultPreset().Name,
				"presets": presets.All(),
			})
		})

		// Game endpoints: optional auth (guests can play)
		s.mountGame(api.With(s.withOptionalAuth()))

		// Daily Challenge: optional auth (guests can play; result persisted on win)
		s.mountDaily(api.With(s.withOptionalAuth()))

		// Auth + profile/stats
		s.mountAuthRoutes(api)
	})

	// Live stream: long-lived, so no timeout or access log wrapper.
	s.r.With(s.withOptionalAuth()).Get("/game/{id}/ws", s.handleWS)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Hub exposes the websocket hub (useful for tests).
func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) defaultPreset() presets.Preset {
	if p, ok := presets.Lookup(s.cfg.DefaultPreset); ok {
		return presets.Preset{Name: s.cfg.DefaultPreset, Config: p}
	}
	return presets.Default()
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured CLIENT_ORIGIN.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestIDField adds chi's request id to the request logger.
func requestIDField(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("reqId", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

var accessLog = hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
})

// writeError sends {"error": msg} with status.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
