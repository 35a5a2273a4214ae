// apps/go-server/internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes five endpoints under /daily:
//   - POST /daily/new          → start today's board (creates or reuses session)
//   - POST /daily/{id}/reveal  → reveal a cell on today's board
//   - POST /daily/{id}/flag    → cycle a cell's marker
//   - POST /daily/{id}/chord   → open around a satisfied number
//   - GET  /daily/leaderboard  → fastest wins for today (or ?date=YYYY-MM-DD)
//
// Every player gets the default preset with mines drawn from a source seeded by
// date + salt. Each player gets one attempt per day: the DB remembers wins and
// the in-memory session keeps a lost board locked.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/minesweeper/apps/go-server/internal/daily"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/game"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/store"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store // nil without a DB
	salt     string
	now      func() time.Time
	sessions map[string]string // game id keyed by userID|date
	mu       sync.Mutex        // guards sessions
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		salt:     s.cfg.DailySalt,
		now:      time.Now,
		sessions: make(map[string]string),
	}
	if s.db != nil {
		dd.store = daily.NewStore(s.db)
	}
	s.daily = dd

	r.Post("/daily/new", dd.handleNew)
	r.Post("/daily/{id}/reveal", s.handleMove("reveal"))
	r.Post("/daily/{id}/flag", s.handleMove("flag"))
	r.Post("/daily/{id}/chord", s.handleMove("chord"))
	r.Get("/daily/leaderboard", dd.handleLeaderboard)
}

// newRes is returned by /daily/new.
type newRes struct {
	GameID   string         `json:"gameId"`
	Date     string         `json:"date"`
	Played   bool           `json:"played"`
	Snapshot *game.Snapshot `json:"snapshot,omitempty"`
}

// handleNew creates or reuses a daily session for the current date.
//   - If the player already has a DB row for today → Played=true.
//   - Otherwise create/reuse an in-memory session and return its GameID.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	uid := d.srv.ownerID(w, r)
	now := d.now().UTC()
	date := daily.DateKey(now)

	if d.store != nil {
		played, err := d.store.AlreadyPlayed(r.Context(), uid, date)
		if err != nil {
			hlog.FromRequest(r).Warn().Err(err).Str("date", date).Msg("check daily result")
		} else if played {
			_ = json.NewEncoder(w).Encode(newRes{Date: date, Played: true})
			return
		}
	}

	key := uid + "|" + date
	d.mu.Lock()
	defer d.mu.Unlock()

	if id, ok := d.sessions[key]; ok {
		if sess, err := d.srv.store.Get(r.Context(), id); err == nil {
			snap := snapshotOf(sess)
			_ = json.NewEncoder(w).Encode(newRes{GameID: id, Date: date, Snapshot: &snap})
			return
		}
	}

	cfg := d.srv.defaultPreset().Config
	cfg.StrictWin = d.srv.cfg.StrictWin
	id := store.NewID()
	g, err := d.srv.newController(id, cfg, game.WithRand(daily.Rand(now, d.salt)))
	if err != nil {
		d.srv.writeMoveError(w, err)
		return
	}
	sess := store.NewSession(id, g, uid, modeDaily)
	sess.Preset = d.srv.defaultPreset().Name
	sess.Date = date
	if err := d.srv.store.Save(r.Context(), sess); err != nil {
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	d.sessions[key] = id
	d.srv.insertGameRow(r, sess, cfg)

	snap := g.Snapshot()
	_ = json.NewEncoder(w).Encode(newRes{GameID: id, Date: date, Snapshot: &snap})
}

// prune forgets session keys from days other than today and returns how many
// went. The sessions themselves are evicted by the sweeper.
func (d *dailyServer) prune(today string) int {
	if d == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for key := range d.sessions {
		if !strings.HasSuffix(key, "|"+today) {
			delete(d.sessions, key)
			n++
		}
	}
	return n
}

// record stores a daily win. Best-effort: failures are logged.
func (d *dailyServer) record(ctx context.Context, sess *store.Session, moves int, elapsed time.Duration) {
	if d == nil || d.store == nil {
		return
	}
	err := d.store.InsertResult(ctx, daily.Result{
		UserID:    sess.OwnerID,
		Date:      sess.Date,
		Moves:     moves,
		ElapsedMs: elapsed.Milliseconds(),
	})
	if err != nil {
		log.Warn().Err(err).Str("gameId", sess.ID).Msg("insert daily result")
	}
}

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.now())
	}
	if d.store == nil {
		_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: []daily.LBRow{}})
		return
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: rows})
}
