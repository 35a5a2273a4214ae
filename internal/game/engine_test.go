package game_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/minesweeper/apps/go-server/internal/board"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/game"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/timer"
)

type recorder struct {
	events  []string
	cells   map[board.Coord]game.CellView
	counter int
	ended   []game.Phase
}

func newRecorder() *recorder { return &recorder{cells: map[board.Coord]game.CellView{}} }

func (r *recorder) CellChanged(at board.Coord, v game.CellView) {
	r.events = append(r.events, "cell")
	r.cells[at] = v
}

func (r *recorder) CounterChanged(n int) {
	r.events = append(r.events, "counter")
	r.counter = n
}

func (r *recorder) GameEnded(p game.Phase) {
	r.events = append(r.events, "ended")
	r.ended = append(r.ended, p)
}

func at(r, c int) board.Coord { return board.Coord{Row: r, Col: c} }

func stateAt(t *testing.T, g *game.Controller, c board.Coord) board.CellState {
	t.Helper()
	cell, ok := g.Cell(c)
	require.True(t, ok)
	return cell.State
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	for _, cfg := range []game.Config{
		{Rows: 0, Cols: 5, Mines: 1},
		{Rows: 5, Cols: -1, Mines: 1},
		{Rows: 3, Cols: 3, Mines: 0},
		{Rows: 3, Cols: 3, Mines: 9},
		{Rows: 3, Cols: 3, Mines: 12},
		{Rows: game.MaxDim + 1, Cols: 5, Mines: 1},
		{Rows: 5, Cols: 100000, Mines: 1},
		{Rows: math.MaxInt, Cols: math.MaxInt, Mines: 1},
	} {
		_, err := game.New(cfg)
		assert.ErrorIs(t, err, game.ErrInvalidConfig, "%+v", cfg)
	}

	_, err := game.New(game.Config{Rows: 2, Cols: 2, Mines: 1}, game.WithLayout(at(5, 5)))
	assert.ErrorIs(t, err, game.ErrInvalidConfig)
	_, err = game.New(game.Config{Rows: 2, Cols: 2, Mines: 2}, game.WithLayout(at(0, 0), at(0, 0)))
	assert.ErrorIs(t, err, game.ErrInvalidConfig)
}

func TestMinesDeferredUntilFirstReveal(t *testing.T) {
	g, err := game.New(game.Config{Rows: 9, Cols: 9, Mines: 10})
	require.NoError(t, err)
	assert.Equal(t, game.NotStarted, g.Phase())
	assert.Empty(t, g.Mines())
	assert.Equal(t, 10, g.RemainingMines())
}

func TestFirstRevealOnIntermediateBoard(t *testing.T) {
	clock := timer.NewManual()
	g, err := game.New(game.Config{Rows: 16, Cols: 16, Mines: 40},
		game.WithRand(rand.New(rand.NewSource(7))), game.WithTimer(clock))
	require.NoError(t, err)

	res, err := g.Reveal(at(0, 0))
	require.NoError(t, err)
	assert.False(t, res.HitMine)
	assert.Equal(t, game.InProgress, res.Phase)

	mines := g.Mines()
	assert.Len(t, mines, 40)
	assert.NotContains(t, mines, at(0, 0))
	cell, _ := g.Cell(at(0, 0))
	assert.False(t, cell.HasMine)
	assert.Equal(t, board.Opened, cell.State)

	assert.Equal(t, 1, clock.Starts)
	assert.Equal(t, 1, clock.Running())
	assert.Equal(t, len(res.Changes), g.OpenedCount())
}

func TestFirstClickIsNeverAMine(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 300; i++ {
		first := at(rng.Intn(8), rng.Intn(8))
		g, err := game.New(game.Config{Rows: 8, Cols: 8, Mines: 63}, game.WithRand(rand.New(rand.NewSource(int64(i)))))
		require.NoError(t, err)

		res, err := g.Reveal(first)
		require.NoError(t, err)
		assert.False(t, res.HitMine)
		assert.Len(t, g.Mines(), 63)
		assert.NotContains(t, g.Mines(), first)
		// 63 mines on 64 cells: the first click wins immediately
		assert.Equal(t, game.Won, res.Phase)
	}
}

func TestFixedLayoutRelocatesFirstClickMine(t *testing.T) {
	g, err := game.New(game.Config{Rows: 2, Cols: 2, Mines: 1}, game.WithLayout(at(0, 0)))
	require.NoError(t, err)

	res, err := g.Reveal(at(0, 0))
	require.NoError(t, err)
	assert.False(t, res.HitMine)
	assert.Equal(t, []board.Coord{at(0, 1)}, g.Mines())
	require.Len(t, res.Changes, 1)
	assert.Equal(t, 1, res.Changes[0].Adjacent)
}

func TestTwoByTwoGameIsWon(t *testing.T) {
	clock := timer.NewManual()
	rec := newRecorder()
	g, err := game.New(game.Config{Rows: 2, Cols: 2, Mines: 1},
		game.WithLayout(at(1, 1)), game.WithTimer(clock), game.WithRender(rec))
	require.NoError(t, err)

	res, err := g.Reveal(at(0, 0))
	require.NoError(t, err)
	require.Len(t, res.Changes, 1, "count 1 does not cascade")
	assert.Equal(t, game.CellView{State: board.Opened, Adjacent: 1}, res.Changes[0].CellView)

	_, err = g.Reveal(at(0, 1))
	require.NoError(t, err)
	res, err = g.Reveal(at(1, 0))
	require.NoError(t, err)

	assert.Equal(t, game.Won, res.Phase)
	assert.Equal(t, game.Won, g.Phase())
	assert.Equal(t, 3, g.OpenedCount())
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, board.Flagged, stateAt(t, g, at(1, 1)))
	assert.Equal(t, 0, clock.Running())
	assert.Equal(t, []game.Phase{game.Won}, rec.ended)
	assert.Equal(t, "ended", rec.events[len(rec.events)-1])
	assert.Equal(t, 0, rec.counter)
}

func TestWinIgnoresFlagsByDefault(t *testing.T) {
	g, err := game.New(game.Config{Rows: 1, Cols: 3, Mines: 1}, game.WithLayout(at(0, 2)))
	require.NoError(t, err)

	_, err = g.ToggleFlag(at(0, 1)) // wrong flag, later removed
	require.NoError(t, err)
	res, err := g.Reveal(at(0, 0))
	require.NoError(t, err)
	assert.Equal(t, game.InProgress, res.Phase)

	_, _ = g.ToggleFlag(at(0, 1))
	_, _ = g.ToggleFlag(at(0, 1))
	res, err = g.Reveal(at(0, 1))
	require.NoError(t, err)
	assert.Equal(t, game.Won, res.Phase)
}

func TestStrictWinNeedsFlags(t *testing.T) {
	g, err := game.New(game.Config{Rows: 2, Cols: 2, Mines: 1, StrictWin: true}, game.WithLayout(at(1, 1)))
	require.NoError(t, err)
	for _, c := range []board.Coord{at(0, 0), at(0, 1), at(1, 0)} {
		_, err := g.Reveal(c)
		require.NoError(t, err)
	}
	assert.Equal(t, game.InProgress, g.Phase())

	res, err := g.ToggleFlag(at(1, 1))
	require.NoError(t, err)
	assert.Equal(t, game.Won, res.Phase)
	assert.Equal(t, 0, res.Remaining)
}

func TestLossUncoversMinesAndWrongFlags(t *testing.T) {
	clock := timer.NewManual()
	rec := newRecorder()
	g, err := game.New(game.Config{Rows: 3, Cols: 3, Mines: 3},
		game.WithLayout(at(0, 0), at(2, 0), at(2, 2)), game.WithTimer(clock), game.WithRender(rec))
	require.NoError(t, err)

	res, err := g.Reveal(at(0, 2))
	require.NoError(t, err)
	assert.Len(t, res.Changes, 4)

	_, _ = g.ToggleFlag(at(2, 2)) // correct
	_, _ = g.ToggleFlag(at(1, 0)) // wrong

	res, err = g.Reveal(at(0, 0))
	require.NoError(t, err)
	assert.True(t, res.HitMine)
	assert.Equal(t, game.Lost, res.Phase)
	assert.Equal(t, game.Lost, g.Phase())

	assert.Equal(t, board.MineExploded, stateAt(t, g, at(0, 0)))
	assert.Equal(t, board.MineShown, stateAt(t, g, at(2, 0)))
	assert.Equal(t, board.Flagged, stateAt(t, g, at(2, 2)))
	assert.Equal(t, board.WrongFlag, stateAt(t, g, at(1, 0)))
	assert.Equal(t, board.Hidden, stateAt(t, g, at(2, 1)))
	assert.Equal(t, board.MineExploded, rec.cells[at(0, 0)].State)
	assert.Equal(t, board.WrongFlag, rec.cells[at(1, 0)].State)

	assert.Equal(t, 0, clock.Running())
	assert.Equal(t, 1, clock.Stops)
	assert.Equal(t, []game.Phase{game.Lost}, rec.ended)

	// terminal: nothing else changes
	for _, c := range []board.Coord{at(2, 1), at(1, 0)} {
		res, err = g.Reveal(c)
		require.NoError(t, err)
		assert.Empty(t, res.Changes)
		res, err = g.ToggleFlag(c)
		require.NoError(t, err)
		assert.Empty(t, res.Changes)
	}
	assert.Equal(t, board.Hidden, stateAt(t, g, at(2, 1)))
	assert.Len(t, rec.ended, 1)
}

func TestRevealIsIdempotent(t *testing.T) {
	g, err := game.New(game.Config{Rows: 3, Cols: 3, Mines: 1}, game.WithLayout(at(2, 2)))
	require.NoError(t, err)

	_, err = g.Reveal(at(1, 1))
	require.NoError(t, err)
	opened := g.OpenedCount()
	before := g.Snapshot()

	res, err := g.Reveal(at(1, 1))
	require.NoError(t, err)
	assert.Empty(t, res.Changes)
	assert.Equal(t, opened, g.OpenedCount())
	assert.Equal(t, before, g.Snapshot())
}

func TestFlagQuestionCycle(t *testing.T) {
	rec := newRecorder()
	g, err := game.New(game.Config{Rows: 3, Cols: 3, Mines: 2}, game.WithRender(rec))
	require.NoError(t, err)
	c := at(1, 1)

	res, err := g.ToggleFlag(c)
	require.NoError(t, err)
	assert.Equal(t, board.Flagged, res.Changes[0].State)
	assert.Equal(t, 1, res.Remaining)
	assert.Equal(t, 1, rec.counter)

	// flagged and questioned cells ignore reveal
	res, err = g.Reveal(c)
	require.NoError(t, err)
	assert.Empty(t, res.Changes)
	assert.Equal(t, game.NotStarted, g.Phase())

	res, err = g.ToggleFlag(c)
	require.NoError(t, err)
	assert.Equal(t, board.Questioned, res.Changes[0].State)
	assert.Equal(t, 2, res.Remaining)

	res, err = g.Reveal(c)
	require.NoError(t, err)
	assert.Empty(t, res.Changes)

	res, err = g.ToggleFlag(c)
	require.NoError(t, err)
	assert.Equal(t, board.Hidden, res.Changes[0].State)
	assert.Equal(t, 2, res.Remaining)
	assert.Equal(t, 2, rec.counter)
}

func TestOverFlaggingGoesNegative(t *testing.T) {
	g, err := game.New(game.Config{Rows: 3, Cols: 3, Mines: 1})
	require.NoError(t, err)
	_, _ = g.ToggleFlag(at(0, 0))
	res, err := g.ToggleFlag(at(0, 1))
	require.NoError(t, err)
	assert.Equal(t, -1, res.Remaining)
}

func TestFlagOnOpenedCellIsNoop(t *testing.T) {
	g, err := game.New(game.Config{Rows: 3, Cols: 3, Mines: 1}, game.WithLayout(at(0, 0)))
	require.NoError(t, err)
	_, err = g.Reveal(at(1, 1))
	require.NoError(t, err)

	res, err := g.ToggleFlag(at(1, 1))
	require.NoError(t, err)
	assert.Empty(t, res.Changes)
	assert.Equal(t, board.Opened, stateAt(t, g, at(1, 1)))
	assert.Equal(t, 1, res.Remaining)
}

func TestOutOfBoundsMovesFail(t *testing.T) {
	g, err := game.New(game.Config{Rows: 3, Cols: 3, Mines: 1})
	require.NoError(t, err)

	_, err = g.Reveal(at(3, 0))
	assert.ErrorIs(t, err, game.ErrOutOfBounds)
	_, err = g.ToggleFlag(at(0, -1))
	assert.ErrorIs(t, err, game.ErrOutOfBounds)
	_, err = g.Chord(at(-1, -1))
	assert.ErrorIs(t, err, game.ErrOutOfBounds)
	assert.Equal(t, game.NotStarted, g.Phase())
}

func TestChordOpensNeighbours(t *testing.T) {
	g, err := game.New(game.Config{Rows: 3, Cols: 3, Mines: 1}, game.WithLayout(at(0, 0)))
	require.NoError(t, err)

	res, err := g.Reveal(at(1, 1))
	require.NoError(t, err)
	require.Len(t, res.Changes, 1)

	// not enough flags yet
	res, err = g.Chord(at(1, 1))
	require.NoError(t, err)
	assert.Empty(t, res.Changes)

	_, _ = g.ToggleFlag(at(0, 0))
	res, err = g.Chord(at(1, 1))
	require.NoError(t, err)
	assert.Len(t, res.Changes, 7)
	assert.Equal(t, game.Won, res.Phase)
}

func TestChordWithWrongFlagLoses(t *testing.T) {
	g, err := game.New(game.Config{Rows: 3, Cols: 3, Mines: 1}, game.WithLayout(at(0, 0)))
	require.NoError(t, err)
	_, err = g.Reveal(at(1, 1))
	require.NoError(t, err)
	_, _ = g.ToggleFlag(at(0, 1))

	res, err := g.Chord(at(1, 1))
	require.NoError(t, err)
	assert.True(t, res.HitMine)
	assert.Equal(t, game.Lost, g.Phase())
	assert.Equal(t, board.MineExploded, stateAt(t, g, at(0, 0)))
	assert.Equal(t, board.WrongFlag, stateAt(t, g, at(0, 1)))
}

func TestRestartStopsClockFirst(t *testing.T) {
	clock := timer.NewManual()
	g, err := game.New(game.Config{Rows: 5, Cols: 5, Mines: 3}, game.WithTimer(clock),
		game.WithLayout(at(1, 1), at(0, 4), at(4, 0)))
	require.NoError(t, err)

	_, err = g.Reveal(at(2, 2))
	require.NoError(t, err)
	require.Equal(t, 1, clock.Running())
	clock.Advance(4)
	assert.Equal(t, 4, g.Elapsed())

	require.NoError(t, g.Restart())
	assert.Equal(t, 0, clock.Running())
	assert.Equal(t, 1, clock.Stops)
	assert.Equal(t, game.NotStarted, g.Phase())
	assert.Equal(t, 0, g.Elapsed())
	assert.Equal(t, 0, g.OpenedCount())
	assert.Empty(t, g.Mines())
	assert.Equal(t, game.Config{Rows: 5, Cols: 5, Mines: 3}, g.Config())

	// restarting an unstarted game stops nothing
	require.NoError(t, g.Restart())
	assert.Equal(t, 1, clock.Stops)

	_, err = g.Reveal(at(0, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, clock.Starts)
	assert.Equal(t, 1, clock.Running())
}

func TestTickObserver(t *testing.T) {
	clock := timer.NewManual()
	var seen []int
	g, err := game.New(game.Config{Rows: 4, Cols: 4, Mines: 2}, game.WithTimer(clock),
		game.WithLayout(at(1, 1), at(3, 3)),
		game.WithTickObserver(func(sec int) { seen = append(seen, sec) }))
	require.NoError(t, err)

	clock.Advance(2) // not started yet
	assert.Empty(t, seen)

	_, err = g.Reveal(at(0, 0))
	require.NoError(t, err)
	clock.Advance(3)
	assert.Equal(t, []int{1, 2, 3}, seen)
	assert.Equal(t, 3, g.Snapshot().Elapsed)
}

func TestSnapshotHidesMines(t *testing.T) {
	g, err := game.New(game.Config{Rows: 3, Cols: 3, Mines: 2}, game.WithLayout(at(2, 0), at(2, 2)))
	require.NoError(t, err)
	_, err = g.Reveal(at(0, 0))
	require.NoError(t, err)

	snap := g.Snapshot()
	assert.Equal(t, 3, snap.Rows)
	assert.Equal(t, game.InProgress, snap.Phase)
	assert.Equal(t, 6, g.OpenedCount())
	assert.Equal(t, game.CellView{State: board.Hidden}, snap.Cells[2][2])
	assert.Equal(t, game.CellView{State: board.Hidden}, snap.Cells[2][1])
	assert.Equal(t, game.CellView{State: board.Opened, Adjacent: 2}, snap.Cells[1][1])
	assert.Equal(t, game.CellView{State: board.Opened}, snap.Cells[0][0])
}

func TestRandomPlayOnlyEndsByRules(t *testing.T) {
	cfg := game.Config{Rows: 6, Cols: 7, Mines: 8}
	for seed := int64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		g, err := game.New(cfg, game.WithRand(rng))
		require.NoError(t, err)

		for step := 0; step < 200 && !g.Phase().Terminal(); step++ {
			c := at(rng.Intn(cfg.Rows), rng.Intn(cfg.Cols))
			if rng.Intn(4) == 0 {
				_, err = g.ToggleFlag(c)
			} else {
				_, err = g.Reveal(c)
			}
			require.NoError(t, err)
			if g.Phase() != game.Won {
				assert.Less(t, g.OpenedCount(), cfg.SafeCells())
			}
		}
		if g.Phase() == game.Won {
			assert.Equal(t, cfg.SafeCells(), g.OpenedCount())
		}
	}
}
