// apps/go-server/internal/httpserver/routes_game.go
//
// HTTP routes for classic games.
//   - POST /game/new           → create a game from a preset or explicit rows/cols/mines
//   - GET  /game/{id}          → player-visible snapshot
//   - POST /game/{id}/reveal   → {row,col}
//   - POST /game/{id}/flag     → {row,col}, cycles flag / question / hidden
//   - POST /game/{id}/chord    → {row,col}, opens around a satisfied number
//   - POST /game/{id}/restart  → same config, fresh board
//   - GET  /game/{id}/ws       → live event stream (see hub.go)
//
// Every move runs under the session lock. History rows in the games table are
// written best-effort: a failed write is logged and never fails the move.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/minesweeper/apps/go-server/internal/board"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/game"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/presets"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/store"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/timer"
)

const (
	modeClassic = "classic"
	modeDaily   = "daily"
)

var (
	errUnknownAction = errors.New("unknown action")
	errNotYourGame   = errors.New("not your game")
	errNoRestart     = errors.New("daily games cannot be restarted")
)

// mountGame registers the /game routes.
func (s *Server) mountGame(r chi.Router) {
	r.Post("/game/new", s.handleNewGame)
	r.Get("/game/{id}", s.handleGetGame)
	r.Post("/game/{id}/reveal", s.handleMove("reveal"))
	r.Post("/game/{id}/flag", s.handleMove("flag"))
	r.Post("/game/{id}/chord", s.handleMove("chord"))
	r.Post("/game/{id}/restart", s.handleRestart)
}

// newGameReq is read from the JSON body, or from the query string when one is given
// (POST /game/new?preset=expert or ?rows=9&cols=9&mines=10&strict=true).
type newGameReq struct {
	Preset string `json:"preset" schema:"preset"`
	Rows   int    `json:"rows" schema:"rows"`
	Cols   int    `json:"cols" schema:"cols"`
	Mines  int    `json:"mines" schema:"mines"`
	Strict *bool  `json:"strict" schema:"strict"` // nil falls back to STRICT_WIN
}

type newGameRes struct {
	GameID   string        `json:"gameId"`
	Preset   string        `json:"preset"`
	Snapshot game.Snapshot `json:"snapshot"`
}

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

func decodeNewGame(r *http.Request) (newGameReq, error) {
	var req newGameReq
	if q := r.URL.Query(); len(q) > 0 {
		return req, queryDecoder.Decode(&req, q)
	}
	if r.Body == nil {
		return req, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, err
	}
	return req, nil
}

// resolveConfig picks explicit dimensions when any are given, else a preset.
func (s *Server) resolveConfig(req newGameReq) (string, game.Config, error) {
	var (
		name string
		cfg  game.Config
	)
	switch {
	case req.Rows != 0 || req.Cols != 0 || req.Mines != 0:
		name = "custom"
		cfg = game.Config{Rows: req.Rows, Cols: req.Cols, Mines: req.Mines}
	case req.Preset == "":
		p := s.defaultPreset()
		name, cfg = p.Name, p.Config
	default:
		c, ok := presets.Lookup(req.Preset)
		if !ok {
			return "", game.Config{}, fmt.Errorf("%w: unknown preset %q", game.ErrInvalidConfig, req.Preset)
		}
		name, cfg = req.Preset, c
	}
	cfg.StrictWin = s.cfg.StrictWin
	if req.Strict != nil {
		cfg.StrictWin = *req.Strict
	}
	return name, cfg, cfg.Validate()
}

// newController builds a game whose changes and ticks stream to room id.
func (s *Server) newController(id string, cfg game.Config, extra ...game.Option) (*game.Controller, error) {
	rr := hubRender{hub: s.hub, room: id}
	opts := []game.Option{game.WithRender(rr), game.WithTickObserver(rr.tick)}
	if s.clock != nil {
		opts = append(opts, game.WithTimer(s.clock))
	}
	return game.New(cfg, append(opts, extra...)...)
}

// handleNewGame creates a live game and a history row for its owner.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	req, err := decodeNewGame(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request")
		return
	}
	name, cfg, err := s.resolveConfig(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := store.NewID()
	g, err := s.newController(id, cfg)
	if err != nil {
		s.writeMoveError(w, err)
		return
	}
	sess := store.NewSession(id, g, s.ownerID(w, r), modeClassic)
	sess.Preset = name
	if err := s.store.Save(r.Context(), sess); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("save game")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	s.insertGameRow(r, sess, cfg)

	hlog.FromRequest(r).Info().Str("gameId", id).Str("preset", name).
		Int("rows", cfg.Rows).Int("cols", cfg.Cols).Int("mines", cfg.Mines).Msg("game created")
	_ = json.NewEncoder(w).Encode(newGameRes{GameID: id, Preset: name, Snapshot: g.Snapshot()})
}

// session loads {id} or writes a 404.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*store.Session, bool) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	return sess, true
}

func snapshotOf(sess *store.Session) game.Snapshot {
	var snap game.Snapshot
	_ = sess.Do(func(g *game.Controller) error {
		snap = g.Snapshot()
		return nil
	})
	return snap
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	_ = json.NewEncoder(w).Encode(snapshotOf(sess))
}

// moveRes is the result of one move plus the board after it.
type moveRes struct {
	game.Result
	Moves    int           `json:"moves"`
	Clock    string        `json:"clock"`
	Snapshot game.Snapshot `json:"snapshot"`

	finished bool
	duration time.Duration
}

var moveOps = map[string]func(*game.Controller, board.Coord) (game.Result, error){
	"reveal": (*game.Controller).Reveal,
	"flag":   (*game.Controller).ToggleFlag,
	"chord":  (*game.Controller).Chord,
}

func (s *Server) handleMove(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.session(w, r)
		if !ok {
			return
		}
		var at board.Coord
		if err := json.NewDecoder(r.Body).Decode(&at); err != nil {
			writeError(w, http.StatusBadRequest, "bad_json")
			return
		}
		res, err := s.play(r, sess, action, at)
		if err != nil {
			s.writeMoveError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(res)
	}
}

// play applies one move under the session lock and records the outcome when
// the move ended the game.
func (s *Server) play(r *http.Request, sess *store.Session, action string, at board.Coord) (moveRes, error) {
	op, ok := moveOps[action]
	if !ok {
		return moveRes{}, fmt.Errorf("%w: %q", errUnknownAction, action)
	}
	if sess.Mode == modeDaily && requesterID(r, s.cfg.AnonCookieName) != sess.OwnerID {
		return moveRes{}, errNotYourGame
	}

	var out moveRes
	var before game.Phase
	res, moves, err := sess.Move(func(g *game.Controller) (game.Result, error) {
		before = g.Phase()
		res, err := op(g, at)
		if err == nil {
			out.Snapshot = g.Snapshot()
			out.duration = g.Duration()
		}
		return res, err
	})
	if err != nil {
		return moveRes{}, err
	}
	out.Result = res
	out.Moves = moves
	out.Clock = timer.Display(out.Snapshot.Elapsed)
	out.finished = !before.Terminal() && res.Phase.Terminal()

	if out.finished {
		hlog.FromRequest(r).Info().Str("gameId", sess.ID).Stringer("phase", res.Phase).
			Int("moves", moves).Dur("duration", out.duration).Msg("game finished")
		s.finishGameRow(r, sess, res.Phase, moves, out.duration)
		if sess.Mode == modeDaily && res.Phase == game.Won {
			s.daily.record(r.Context(), sess, moves, out.duration)
		}
	} else if len(res.Changes) > 0 {
		s.touchGameRow(r.Context(), sess.ID, res.Phase, moves)
	}
	return out, nil
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	snap, err := s.restart(r, sess)
	if err != nil {
		s.writeMoveError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(snap)
}

func (s *Server) restart(r *http.Request, sess *store.Session) (game.Snapshot, error) {
	if sess.Mode == modeDaily {
		return game.Snapshot{}, errNoRestart
	}
	snap, err := sess.Restart()
	if err != nil {
		return game.Snapshot{}, err
	}
	if s.db != nil {
		if _, err := s.db.ExecContext(r.Context(),
			`UPDATE games SET status=?, moves=0, elapsed_ms=0, started_at=?, finished_at=NULL WHERE id=?`,
			game.NotStarted.String(), time.Now().UTC().Format(time.RFC3339), sess.ID); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Str("gameId", sess.ID).Msg("reset game row")
		}
	}
	return snap, nil
}

// handleWS streams a game's events and accepts moves over the socket.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.hub.serve(w, r, s.cfg.ClientOrigin, sess.ID,
		func() game.Snapshot { return snapshotOf(sess) },
		func(action string, at board.Coord) error {
			if action == "restart" {
				_, err := s.restart(r, sess)
				return err
			}
			_, err := s.play(r, sess, action, at)
			return err
		})
}

// writeMoveError maps engine and session errors to HTTP statuses.
func (s *Server) writeMoveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrInvalidConfig),
		errors.Is(err, game.ErrOutOfBounds),
		errors.Is(err, errUnknownAction):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errNotYourGame):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, errNoRestart):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	default:
		log.Error().Err(err).Msg("move failed")
		writeError(w, http.StatusInternalServerError, "internal")
	}
}

// ----------------------------- history rows --------------------------------

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// insertGameRow persists an owner row (user_id or anonymous_id) for history/stats.
func (s *Server) insertGameRow(r *http.Request, sess *store.Session, cfg game.Config) {
	if s.db == nil {
		return
	}
	userID, anonID := "", sess.OwnerID
	if me := userFrom(r); me != nil {
		userID, anonID = me.ID, ""
	}
	_, err := s.db.ExecContext(r.Context(),
		`INSERT INTO games (id, user_id, anonymous_id, mode, preset, rows, cols, mines, status, started_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		sess.ID, nullable(userID), nullable(anonID), sess.Mode, sess.Preset,
		cfg.Rows, cfg.Cols, cfg.Mines, game.NotStarted.String(), sess.CreatedAt.Format(time.RFC3339))
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("gameId", sess.ID).Msg("insert game row")
	}
}

func (s *Server) touchGameRow(ctx context.Context, id string, phase game.Phase, moves int) {
	if s.db == nil {
		return
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE games SET status=?, moves=? WHERE id=?`, phase.String(), moves, id); err != nil {
		log.Warn().Err(err).Str("gameId", id).Msg("update game row")
	}
}

// finishGameRow closes the history row and, for signed-in owners, bumps stats
// in the same transaction.
func (s *Server) finishGameRow(r *http.Request, sess *store.Session, phase game.Phase, moves int, d time.Duration) {
	if s.db == nil {
		return
	}
	l := hlog.FromRequest(r)
	tx, err := s.db.BeginTx(r.Context(), nil)
	if err != nil {
		l.Warn().Err(err).Msg("begin finish tx")
		return
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`UPDATE games SET status=?, moves=?, elapsed_ms=?, finished_at=? WHERE id=?`,
		phase.String(), moves, d.Milliseconds(), time.Now().UTC().Format(time.RFC3339), sess.ID); err != nil {
		l.Warn().Err(err).Str("gameId", sess.ID).Msg("finish game")
	}
	if me := userFrom(r); me != nil && me.ID == sess.OwnerID {
		if err := bumpStats(tx, me.ID, phase == game.Won, d.Milliseconds()); err != nil {
			l.Warn().Err(err).Str("user", me.ID).Msg("bump stats")
		}
	}
	if err := tx.Commit(); err != nil {
		l.Warn().Err(err).Msg("commit finish tx")
	}
}
