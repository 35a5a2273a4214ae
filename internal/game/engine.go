// apps/go-server/internal/game/engine.go
//
// Game controller for a single Minesweeper board.
// Responsibilities:
//   - Own the grid, mine field and counters for one game (no shared globals).
//   - Defer mine placement to the first reveal so it is never a mine.
//   - Apply reveal / flag / chord moves and detect win or loss.
//   - Start and stop the game clock through the TimerPort.
//   - Report every visible change through the RenderPort and the returned Result.
//
// Notes:
//   - A Controller is not safe for concurrent use; callers serialise moves.
//   - Timer ticks only update the elapsed-seconds display value.

package game

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/robalobadob/minesweeper/apps/go-server/internal/board"
)

// Controller runs one game at a time; Restart replaces the board wholesale.
type Controller struct {
	cfg    Config
	grid   *board.Grid
	mines  *board.MineField
	rng    *rand.Rand
	layout []board.Coord

	phase  Phase
	opened int // opened non-mine cells
	flags  int

	// pending render notifications, flushed by emit
	counterDirty bool
	justEnded    bool

	render RenderPort
	timer  TimerPort
	handle TimerHandle
	onTick func(sec int)

	gen       atomic.Uint64 // bumps on every timer start; stale ticks are dropped
	elapsed   atomic.Int64
	startedAt time.Time
	endedAt   time.Time
}

// Option customises a Controller.
type Option func(*Controller)

// WithRand makes mine placement draw from rng.
func WithRand(rng *rand.Rand) Option { return func(c *Controller) { c.rng = rng } }

// WithLayout fixes the mine positions used at the first reveal. If the first
// reveal lands on one of them, that mine moves to the first free cell.
func WithLayout(mines ...board.Coord) Option {
	return func(c *Controller) { c.layout = append([]board.Coord(nil), mines...) }
}

// WithRender sends visible changes to r.
func WithRender(r RenderPort) Option { return func(c *Controller) { c.render = r } }

// WithTimer drives the game clock with t.
func WithTimer(t TimerPort) Option { return func(c *Controller) { c.timer = t } }

// WithTickObserver is called on every clock tick with the elapsed seconds.
func WithTickObserver(fn func(sec int)) Option { return func(c *Controller) { c.onTick = fn } }

// New validates cfg and returns a controller in the NotStarted phase.
func New(cfg Config, opts ...Option) (*Controller, error) {
	c := &Controller{render: NopRender{}}
	for _, o := range opts {
		o(c)
	}
	if c.render == nil {
		c.render = NopRender{}
	}
	if err := c.Start(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// Start resets the controller to a fresh NotStarted game. Any running clock is
// stopped first. Mines are not placed until the first reveal.
func (c *Controller) Start(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if c.layout != nil {
		if err := checkLayout(cfg, c.layout); err != nil {
			return err
		}
	}
	c.stopTimer()

	c.cfg = cfg
	c.grid = board.NewGrid(cfg.Rows, cfg.Cols)
	c.mines = board.NewMineField(c.rng)
	c.phase = NotStarted
	c.opened = 0
	c.flags = 0
	c.counterDirty = false
	c.justEnded = false
	c.elapsed.Store(0)
	c.startedAt = time.Time{}
	c.endedAt = time.Time{}

	c.render.CounterChanged(c.RemainingMines())
	return nil
}

// Restart stops the clock and starts over with the same configuration.
func (c *Controller) Restart() error {
	c.stopTimer()
	return c.Start(c.cfg)
}

// Reveal opens the cell at at. Flagged, questioned or already opened cells
// and finished games are left untouched.
func (c *Controller) Reveal(at board.Coord) (Result, error) {
	if !c.grid.InBounds(at) {
		return Result{}, c.outOfBounds("reveal", at)
	}
	if c.phase.Terminal() {
		return c.result(nil), nil
	}
	cell, _ := c.grid.Get(at)
	if cell.State != board.Hidden {
		return c.result(nil), nil
	}

	if c.phase == NotStarted {
		if err := c.placeMines(at); err != nil {
			return Result{}, err
		}
		c.phase = InProgress
		c.startedAt = time.Now()
		c.startTimer()
	}

	changes, hit := c.open(at, nil)
	if hit {
		changes = c.lose(at, changes)
	} else {
		changes = c.checkWin(changes)
	}
	return c.emit(changes, hit), nil
}

// ToggleFlag cycles a cell Hidden → Flagged → Questioned → Hidden.
func (c *Controller) ToggleFlag(at board.Coord) (Result, error) {
	if !c.grid.InBounds(at) {
		return Result{}, c.outOfBounds("flag", at)
	}
	if c.phase.Terminal() {
		return c.result(nil), nil
	}
	cell, _ := c.grid.Get(at)
	switch cell.State {
	case board.Hidden:
		cell.State = board.Flagged
		c.flags++
	case board.Flagged:
		cell.State = board.Questioned
		c.flags--
	case board.Questioned:
		cell.State = board.Hidden
	default:
		return c.result(nil), nil
	}
	c.grid.Set(at, cell)

	changes := []CellChange{c.change(at)}
	c.counterDirty = cell.State != board.Hidden
	if c.cfg.StrictWin && c.phase == InProgress {
		changes = c.checkWin(changes)
	}
	return c.emit(changes, false), nil
}

// Chord opens every unflagged neighbour of an opened number whose flagged
// neighbour count equals that number.
func (c *Controller) Chord(at board.Coord) (Result, error) {
	if !c.grid.InBounds(at) {
		return Result{}, c.outOfBounds("chord", at)
	}
	cell, _ := c.grid.Get(at)
	if c.phase != InProgress || cell.State != board.Opened || cell.Adjacent == 0 {
		return c.result(nil), nil
	}

	flagged := 0
	var targets []board.Coord
	c.grid.ForEachNeighbor(at, 1, func(nb board.Coord) {
		n, _ := c.grid.Get(nb)
		switch n.State {
		case board.Flagged:
			flagged++
		case board.Hidden, board.Questioned:
			targets = append(targets, nb)
		}
	})
	if flagged != cell.Adjacent {
		return c.result(nil), nil
	}

	var changes []CellChange
	for _, t := range targets {
		var hit bool
		changes, hit = c.open(t, changes)
		if hit {
			return c.emit(c.lose(t, changes), true), nil
		}
	}
	return c.emit(c.checkWin(changes), false), nil
}

// open runs the flood fill from at and appends the visible changes.
func (c *Controller) open(at board.Coord, changes []CellChange) ([]CellChange, bool) {
	res := board.Reveal(c.grid, c.mines, at)
	for _, o := range res.Opened {
		if !c.mines.Has(o.Coord) {
			c.opened++
		}
		changes = append(changes, c.change(o.Coord))
	}
	return changes, res.HitMine
}

// lose marks the exploded mine, uncovers the rest and marks wrong flags.
func (c *Controller) lose(at board.Coord, changes []CellChange) []CellChange {
	c.grid.SetState(at, board.MineExploded)
	if n := len(changes); n > 0 && changes[n-1].Coord == at {
		changes[n-1] = c.change(at)
	} else {
		changes = append(changes, c.change(at))
	}

	c.grid.Each(func(pos board.Coord, cell board.Cell) {
		if pos == at {
			return
		}
		switch {
		case cell.HasMine && cell.State != board.Flagged:
			c.grid.SetState(pos, board.MineShown)
			changes = append(changes, c.change(pos))
		case !cell.HasMine && cell.State == board.Flagged:
			c.grid.SetState(pos, board.WrongFlag)
			changes = append(changes, c.change(pos))
		}
	})
	c.finish(Lost)
	return changes
}

// checkWin ends the game once every safe cell is open (and, in strict mode,
// exactly the mines are flagged). Remaining mines get flagged for display.
func (c *Controller) checkWin(changes []CellChange) []CellChange {
	if c.opened != c.cfg.SafeCells() {
		return changes
	}
	if c.cfg.StrictWin && !c.flagsMatchMines() {
		return changes
	}
	for _, m := range c.mines.Coords() {
		cell, _ := c.grid.Get(m)
		if cell.State == board.Flagged {
			continue
		}
		c.grid.SetState(m, board.Flagged)
		changes = append(changes, c.change(m))
	}
	c.flags = c.cfg.Mines
	c.counterDirty = true
	c.finish(Won)
	return changes
}

func (c *Controller) flagsMatchMines() bool {
	if c.flags != c.cfg.Mines {
		return false
	}
	ok := true
	c.grid.Each(func(pos board.Coord, cell board.Cell) {
		if cell.State == board.Flagged && !cell.HasMine {
			ok = false
		}
	})
	return ok
}

func (c *Controller) finish(p Phase) {
	c.phase = p
	c.endedAt = time.Now()
	c.stopTimer()
	c.justEnded = true
}

// placeMines lays out mines so that first never holds one.
func (c *Controller) placeMines(first board.Coord) error {
	if c.layout != nil {
		c.mines.Clear()
		for _, m := range c.layout {
			c.mines.Put(m)
		}
		c.mines.Relocate(first, c.cfg.Rows, c.cfg.Cols)
	} else if err := c.mines.Place(c.cfg.Mines, c.cfg.Rows, c.cfg.Cols, &first); err != nil {
		return err
	}
	for _, m := range c.mines.Coords() {
		cell, _ := c.grid.Get(m)
		cell.HasMine = true
		c.grid.Set(m, cell)
	}
	return nil
}

func checkLayout(cfg Config, mines []board.Coord) error {
	seen := make(map[board.Coord]struct{}, len(mines))
	for _, m := range mines {
		if m.Row < 0 || m.Row >= cfg.Rows || m.Col < 0 || m.Col >= cfg.Cols {
			return fmt.Errorf("%w: mine %d,%d outside %dx%d board", ErrInvalidConfig, m.Row, m.Col, cfg.Rows, cfg.Cols)
		}
		seen[m] = struct{}{}
	}
	if len(seen) != cfg.Mines {
		return fmt.Errorf("%w: layout has %d distinct mines, want %d", ErrInvalidConfig, len(seen), cfg.Mines)
	}
	return nil
}

func (c *Controller) startTimer() {
	if c.timer == nil {
		return
	}
	c.stopTimer()
	c.elapsed.Store(0)
	gen := c.gen.Add(1)
	onTick := c.onTick
	c.handle = c.timer.Start(func(sec int) {
		if c.gen.Load() != gen {
			return
		}
		c.elapsed.Store(int64(sec))
		if onTick != nil {
			onTick(sec)
		}
	})
}

func (c *Controller) stopTimer() {
	c.gen.Add(1)
	if c.timer == nil || c.handle == 0 {
		return
	}
	c.timer.Stop(c.handle)
	c.handle = 0
}

func (c *Controller) outOfBounds(op string, at board.Coord) error {
	return fmt.Errorf("%s %d,%d on %dx%d board: %w", op, at.Row, at.Col, c.cfg.Rows, c.cfg.Cols, ErrOutOfBounds)
}

// emit forwards changes to the render port (cells, then counter, then the
// end of the game) and wraps them in a Result.
func (c *Controller) emit(changes []CellChange, hit bool) Result {
	for _, ch := range changes {
		c.render.CellChanged(ch.Coord, ch.CellView)
	}
	if c.counterDirty {
		c.counterDirty = false
		c.render.CounterChanged(c.RemainingMines())
	}
	if c.justEnded {
		c.justEnded = false
		c.render.GameEnded(c.phase)
	}
	res := c.result(changes)
	res.HitMine = hit
	return res
}

func (c *Controller) result(changes []CellChange) Result {
	if changes == nil {
		changes = []CellChange{}
	}
	return Result{Changes: changes, Remaining: c.RemainingMines(), Phase: c.phase}
}

func (c *Controller) change(at board.Coord) CellChange {
	return CellChange{Coord: at, CellView: c.view(at)}
}

func (c *Controller) view(at board.Coord) CellView {
	cell, _ := c.grid.Get(at)
	v := CellView{State: cell.State}
	if cell.State == board.Opened {
		v.Adjacent = cell.Adjacent
	}
	return v
}

// ----------------------------- queries -------------------------------------

func (c *Controller) Config() Config      { return c.cfg }
func (c *Controller) Phase() Phase        { return c.phase }
func (c *Controller) OpenedCount() int    { return c.opened }
func (c *Controller) FlagCount() int      { return c.flags }
func (c *Controller) RemainingMines() int { return c.cfg.Mines - c.flags }

// Elapsed is the last whole-second value reported by the clock.
func (c *Controller) Elapsed() int { return int(c.elapsed.Load()) }

// Duration is the wall time from the first reveal to the end of the game
// (or now, while it is still running).
func (c *Controller) Duration() time.Duration {
	switch {
	case c.startedAt.IsZero():
		return 0
	case c.endedAt.IsZero():
		return time.Since(c.startedAt)
	}
	return c.endedAt.Sub(c.startedAt)
}

// Mines returns the mine layout in row-major order; empty before the first reveal.
func (c *Controller) Mines() []board.Coord { return c.mines.Coords() }

// Cell returns the raw cell at at, including hidden mine information.
func (c *Controller) Cell(at board.Coord) (board.Cell, bool) { return c.grid.Get(at) }

// Snapshot returns the player-visible board.
func (c *Controller) Snapshot() Snapshot {
	cells := make([][]CellView, c.cfg.Rows)
	for r := range cells {
		cells[r] = make([]CellView, c.cfg.Cols)
		for col := range cells[r] {
			cells[r][col] = c.view(board.Coord{Row: r, Col: col})
		}
	}
	return Snapshot{
		Rows:      c.cfg.Rows,
		Cols:      c.cfg.Cols,
		Mines:     c.cfg.Mines,
		Remaining: c.RemainingMines(),
		Phase:     c.phase,
		Elapsed:   c.Elapsed(),
		Cells:     cells,
	}
}
