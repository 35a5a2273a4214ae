package board

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"github.com/zyedidia/generic/mapset"
)

// ErrInvalidConfig is returned for board dimensions or mine counts that cannot
// produce a playable board.
var ErrInvalidConfig = errors.New("invalid configuration")

// MineField chooses and remembers mine locations.
type MineField struct {
	rng   *rand.Rand
	mines mapset.Set[Coord]
}

// NewMineField returns an empty field drawing from rng.
// A nil rng falls back to a time-seeded source.
func NewMineField(rng *rand.Rand) *MineField {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &MineField{rng: rng, mines: mapset.New[Coord]()}
}

// Place replaces the current layout with mineCount distinct mines drawn
// uniformly from the rows × cols board. When exclude is non-nil that coordinate
// never receives a mine.
//
// Uniform rejection sampling: draw (row, col), drop duplicates and the excluded
// cell, repeat until the set is full. Fails fast instead of looping forever
// when there are not enough eligible cells.
func (m *MineField) Place(mineCount, rows, cols int, exclude *Coord) error {
	if rows <= 0 || cols <= 0 || mineCount < 0 {
		return fmt.Errorf("%w: %dx%d with %d mines", ErrInvalidConfig, rows, cols, mineCount)
	}
	eligible := rows * cols
	if exclude != nil && exclude.Row >= 0 && exclude.Row < rows && exclude.Col >= 0 && exclude.Col < cols {
		eligible--
	}
	if mineCount > eligible {
		return fmt.Errorf("%w: %d mines do not fit in %d eligible cells", ErrInvalidConfig, mineCount, eligible)
	}

	m.Clear()
	for m.mines.Size() < mineCount {
		c := Coord{Row: m.rng.Intn(rows), Col: m.rng.Intn(cols)}
		if exclude != nil && c == *exclude {
			continue
		}
		m.mines.Put(c)
	}
	return nil
}

// Put adds a single mine at c.
func (m *MineField) Put(c Coord) { m.mines.Put(c) }

// Has reports whether c holds a mine.
func (m *MineField) Has(c Coord) bool { return m.mines.Has(c) }

// Len is the number of mines placed.
func (m *MineField) Len() int { return m.mines.Size() }

// Clear removes every mine.
func (m *MineField) Clear() { m.mines = mapset.New[Coord]() }

// Coords returns the mine locations in row-major order.
func (m *MineField) Coords() []Coord {
	out := make([]Coord, 0, m.mines.Size())
	m.mines.Each(func(c Coord) {
		out = append(out, c)
	})
	slices.SortFunc(out, func(a, b Coord) int {
		if a.Row != b.Row {
			return a.Row - b.Row
		}
		return a.Col - b.Col
	})
	return out
}

// Relocate moves the mine at from to the first mine-free cell in row-major
// order, other than from. It reports false when from has no mine or there is
// nowhere to move it.
func (m *MineField) Relocate(from Coord, rows, cols int) bool {
	if !m.mines.Has(from) {
		return false
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			to := Coord{Row: r, Col: c}
			if to == from || m.mines.Has(to) {
				continue
			}
			m.mines.Remove(from)
			m.mines.Put(to)
			return true
		}
	}
	return false
}

// AdjacentMines counts mines in the 8-neighbour window around c, clamped to
// the grid edges.
func (m *MineField) AdjacentMines(g *Grid, c Coord) int {
	n := 0
	g.ForEachNeighbor(c, 1, func(nb Coord) {
		if m.mines.Has(nb) {
			n++
		}
	})
	return n
}
