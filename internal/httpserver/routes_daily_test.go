package httpserver

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/minesweeper/apps/go-server/internal/board"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/game"
)

type dailyNewJSON struct {
	GameID   string    `json:"gameId"`
	Date     string    `json:"date"`
	Played   bool      `json:"played"`
	Snapshot *snapJSON `json:"snapshot"`
}

func fixedDay(s *Server) {
	day := time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)
	s.daily.now = func() time.Time { return day }
}

func minesOf(t *testing.T, s *Server, id string) []board.Coord {
	t.Helper()
	sess, err := s.store.Get(context.Background(), id)
	require.NoError(t, err)
	var mines []board.Coord
	_ = sess.Do(func(g *game.Controller) error {
		mines = g.Mines()
		return nil
	})
	return mines
}

func TestDailySessionIsReused(t *testing.T) {
	s, _ := newTestServer(t)
	fixedDay(s)
	c := newClient(t, s)

	rec := c.do(http.MethodPost, "/daily/new", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[dailyNewJSON](t, rec)
	assert.Equal(t, "2024-05-17", first.Date)
	assert.False(t, first.Played)
	require.NotNil(t, first.Snapshot)
	assert.Equal(t, 16, first.Snapshot.Rows)
	assert.Equal(t, 40, first.Snapshot.Mines)

	rec = c.do(http.MethodPost, "/daily/new", nil)
	again := decode[dailyNewJSON](t, rec)
	assert.Equal(t, first.GameID, again.GameID)

	// another player cannot move on this board
	stranger := newClient(t, s)
	rec = stranger.do(http.MethodPost, "/daily/"+first.GameID+"/reveal", board.Coord{})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = stranger.do(http.MethodPost, "/daily/"+first.GameID+"/chord", board.Coord{})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// the owner can chord over HTTP as well as over the socket
	rec = c.do(http.MethodPost, "/daily/"+first.GameID+"/chord", board.Coord{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode[moveJSON](t, rec).Changes)

	// and the owner cannot restart it
	rec = c.do(http.MethodPost, "/game/"+first.GameID+"/restart", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDailyLayoutIsSharedForTheDay(t *testing.T) {
	s, _ := newTestServer(t)
	fixedDay(s)

	var layouts [][]board.Coord
	for i := 0; i < 2; i++ {
		c := newClient(t, s)
		id := decode[dailyNewJSON](t, c.do(http.MethodPost, "/daily/new", nil)).GameID
		rec := c.do(http.MethodPost, "/daily/"+id+"/reveal", board.Coord{Row: 8, Col: 8})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		layouts = append(layouts, minesOf(t, s, id))
	}
	require.Len(t, layouts[0], 40)
	assert.Equal(t, layouts[0], layouts[1])
}

func TestDailyWinIsRecorded(t *testing.T) {
	s, _ := newTestServer(t)
	fixedDay(s)
	c := newClient(t, s)

	id := decode[dailyNewJSON](t, c.do(http.MethodPost, "/daily/new", nil)).GameID
	rec := c.do(http.MethodPost, "/daily/"+id+"/reveal", board.Coord{Row: 0, Col: 0})
	require.Equal(t, http.StatusOK, rec.Code)

	mines := map[board.Coord]bool{}
	for _, m := range minesOf(t, s, id) {
		mines[m] = true
	}
	sess, err := s.store.Get(context.Background(), id)
	require.NoError(t, err)

	phase := decode[moveJSON](t, rec).Phase
	for r := 0; r < 16 && phase != "won"; r++ {
		for col := 0; col < 16 && phase != "won"; col++ {
			at := board.Coord{Row: r, Col: col}
			if mines[at] {
				continue
			}
			var hidden bool
			_ = sess.Do(func(g *game.Controller) error {
				cell, _ := g.Cell(at)
				hidden = cell.State == board.Hidden
				return nil
			})
			if !hidden {
				continue
			}
			rec = c.do(http.MethodPost, "/daily/"+id+"/reveal", at)
			require.Equal(t, http.StatusOK, rec.Code)
			res := decode[moveJSON](t, rec)
			require.False(t, res.HitMine)
			phase = res.Phase
		}
	}
	require.Equal(t, "won", phase)

	rec = c.do(http.MethodGet, "/daily/leaderboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	lb := decode[lbRes](t, rec)
	assert.Equal(t, "2024-05-17", lb.Date)
	require.Len(t, lb.Top, 1)
	assert.Equal(t, c.cookies["anon"].Value, lb.Top[0].UserID)
	assert.Positive(t, lb.Top[0].Moves)

	rec = c.do(http.MethodPost, "/daily/new", nil)
	assert.True(t, decode[dailyNewJSON](t, rec).Played)

	rec = c.do(http.MethodGet, "/daily/leaderboard?date=2024-05-16", nil)
	assert.Empty(t, decode[lbRes](t, rec).Top)
}
