// apps/go-server/internal/board/grid.go
//
// Fixed-size storage for Minesweeper cells.
// Responsibilities:
//   - Hold one Cell per (row, col) for the lifetime of a game.
//   - Bounds checks; out-of-bounds reads/writes are silently ignored.
//   - Neighbour iteration clamped to the board edges (used by counting and flood-fill).
//
// The grid has no game rules of its own; callers decide which transitions are legal.

package board

// Coord identifies a cell by zero-based row and column.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// CellState is the single visual/logical state a cell is in.
// The last three values only appear once a game has ended.
type CellState int

const (
	Hidden CellState = iota
	Opened
	Flagged
	Questioned
	MineShown    // unflagged mine uncovered at game over
	MineExploded // the mine that ended the game
	WrongFlag    // flag placed on a cell without a mine
)

var cellStateNames = [...]string{
	Hidden:       "hidden",
	Opened:       "opened",
	Flagged:      "flagged",
	Questioned:   "question",
	MineShown:    "mine",
	MineExploded: "exploded",
	WrongFlag:    "wrong_flag",
}

// String returns the wire name used by the HTTP API.
func (s CellState) String() string {
	if s < 0 || int(s) >= len(cellStateNames) {
		return "unknown"
	}
	return cellStateNames[s]
}

// MarshalText lets CellState serialise as its name in JSON.
func (s CellState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Cell is one board position.
type Cell struct {
	State    CellState
	Adjacent int  // 0–8, valid once State == Opened
	HasMine  bool // fixed at placement time
}

// Grid is a rows × cols matrix of cells.
type Grid struct {
	rows, cols int
	cells      []Cell
}

// NewGrid returns a grid with every cell Hidden.
func NewGrid(rows, cols int) *Grid {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Grid{rows: rows, cols: cols, cells: make([]Cell, rows*cols)}
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }
func (g *Grid) Len() int  { return len(g.cells) }

// InBounds reports whether c lies within [0,rows) × [0,cols).
func (g *Grid) InBounds(c Coord) bool {
	return c.Row >= 0 && c.Row < g.rows && c.Col >= 0 && c.Col < g.cols
}

// Get returns the cell at c; ok is false when c is out of bounds.
func (g *Grid) Get(c Coord) (Cell, bool) {
	if !g.InBounds(c) {
		return Cell{}, false
	}
	return g.cells[c.Row*g.cols+c.Col], true
}

// Set stores cell at c. Out-of-bounds coordinates are ignored.
func (g *Grid) Set(c Coord, cell Cell) {
	if !g.InBounds(c) {
		return
	}
	g.cells[c.Row*g.cols+c.Col] = cell
}

// SetState changes only the state of the cell at c.
func (g *Grid) SetState(c Coord, s CellState) {
	if !g.InBounds(c) {
		return
	}
	g.cells[c.Row*g.cols+c.Col].State = s
}

// ForEachNeighbor calls fn for every in-bounds coordinate within Chebyshev
// distance radius of c, excluding c itself, in row-major order.
// Nothing is visited when c is out of bounds or radius < 1.
func (g *Grid) ForEachNeighbor(c Coord, radius int, fn func(Coord)) {
	if !g.InBounds(c) || radius < 1 {
		return
	}
	fromRow, toRow := max(c.Row-radius, 0), min(c.Row+radius, g.rows-1)
	fromCol, toCol := max(c.Col-radius, 0), min(c.Col+radius, g.cols-1)
	for r := fromRow; r <= toRow; r++ {
		for col := fromCol; col <= toCol; col++ {
			if r == c.Row && col == c.Col {
				continue
			}
			fn(Coord{Row: r, Col: col})
		}
	}
}

// Each calls fn for every cell in row-major order.
func (g *Grid) Each(fn func(Coord, Cell)) {
	for i, cell := range g.cells {
		fn(Coord{Row: i / g.cols, Col: i % g.cols}, cell)
	}
}
