// apps/go-server/internal/game/types.go
//
// Core type definitions for the Minesweeper game controller.
// Defines:
//   - Config: board dimensions, mine count and win rule for one game.
//   - Phase: not_started → in_progress → won | lost.
//   - Result / CellChange: what a single operation changed.
//   - Snapshot / CellView: the player-visible board.
//   - RenderPort / TimerPort: collaborators the controller drives.

package game

import (
	"errors"
	"fmt"

	"github.com/robalobadob/minesweeper/apps/go-server/internal/board"
)

var (
	// ErrInvalidConfig wraps board.ErrInvalidConfig so callers only need this package.
	ErrInvalidConfig = board.ErrInvalidConfig
	// ErrOutOfBounds is returned when reveal/flag/chord targets a cell off the board.
	ErrOutOfBounds = errors.New("coordinate out of bounds")
)

// MaxDim caps rows and cols so a grid always fits in memory and rows*cols
// cannot overflow.
const MaxDim = 100

// Config is fixed for the lifetime of a game.
type Config struct {
	Rows  int `json:"rows"`
	Cols  int `json:"cols"`
	Mines int `json:"mines"`
	// StrictWin additionally requires every mine to be flagged (and no wrong
	// flags) before the game counts as won.
	StrictWin bool `json:"strictWin,omitempty"`
}

// Validate checks 0 < rows, cols <= MaxDim, mines > 0 and mines < rows*cols.
func (c Config) Validate() error {
	if c.Rows <= 0 || c.Cols <= 0 {
		return fmt.Errorf("%w: board must be at least 1x1, got %dx%d", ErrInvalidConfig, c.Rows, c.Cols)
	}
	if c.Rows > MaxDim || c.Cols > MaxDim {
		return fmt.Errorf("%w: board must be at most %dx%d, got %dx%d", ErrInvalidConfig, MaxDim, MaxDim, c.Rows, c.Cols)
	}
	if c.Mines <= 0 {
		return fmt.Errorf("%w: need at least one mine, got %d", ErrInvalidConfig, c.Mines)
	}
	if c.Mines >= c.Rows*c.Cols {
		return fmt.Errorf("%w: %d mines on a %dx%d board", ErrInvalidConfig, c.Mines, c.Rows, c.Cols)
	}
	return nil
}

// SafeCells is the number of cells that must be opened to win.
func (c Config) SafeCells() int { return c.Rows*c.Cols - c.Mines }

// Phase is the game lifecycle state.
type Phase int

const (
	NotStarted Phase = iota
	InProgress
	Won
	Lost
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Won:
		return "won"
	case Lost:
		return "lost"
	}
	return "unknown"
}

// MarshalText serialises the phase by name.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Terminal reports whether no further moves are accepted.
func (p Phase) Terminal() bool { return p == Won || p == Lost }

// CellView is what a player may see of one cell. Adjacent is only set for
// opened cells, and hidden cells never reveal whether they hold a mine.
type CellView struct {
	State    board.CellState `json:"state"`
	Adjacent int             `json:"adjacent,omitempty"`
}

// CellChange is a single cell whose visible state changed.
type CellChange struct {
	Coord board.Coord `json:"coord"`
	CellView
}

// Result is returned by every move.
type Result struct {
	Changes   []CellChange `json:"changes"`
	Remaining int          `json:"remaining"`
	Phase     Phase        `json:"phase"`
	HitMine   bool         `json:"hitMine,omitempty"`
}

// Snapshot is the full player-visible state of a game.
type Snapshot struct {
	Rows      int          `json:"rows"`
	Cols      int          `json:"cols"`
	Mines     int          `json:"mines"`
	Remaining int          `json:"remaining"`
	Phase     Phase        `json:"phase"`
	Elapsed   int          `json:"elapsed"`
	Cells     [][]CellView `json:"cells"`
}

// RenderPort receives every visible change. Implementations are sinks.
type RenderPort interface {
	CellChanged(at board.Coord, v CellView)
	CounterChanged(remaining int)
	GameEnded(outcome Phase)
}

// NopRender discards all render events.
type NopRender struct{}

func (NopRender) CellChanged(board.Coord, CellView) {}
func (NopRender) CounterChanged(int)                {}
func (NopRender) GameEnded(Phase)                   {}

// TimerHandle identifies one running timer. The zero value means "none".
type TimerHandle uint64

// TimerPort starts and cancels the once-per-second game clock.
// onTick receives the elapsed whole seconds (1, 2, 3, ...).
type TimerPort interface {
	Start(onTick func(sec int)) TimerHandle
	Stop(h TimerHandle)
}
