// apps/go-server/internal/board/reveal.go
//
// Flood-fill reveal.
//
// Opening a cell with zero adjacent mines opens all of its neighbours, which
// may in turn cascade. The cascade is driven by an explicit FIFO work list so
// large empty regions never grow the call stack.
//
// Rules applied to every coordinate taken from the work list:
//   1. Out of bounds, Opened or Flagged → skipped (Questioned cells do open).
//   2. Mark Opened and record it.
//   3. Mine → HitMine, stop immediately.
//   4. Store the adjacent-mine count.
//   5. Count > 0 → no cascade from this cell.
//   6. Count == 0 → enqueue every in-bounds neighbour.

package board

import "github.com/zyedidia/generic/mapset"

// OpenedCell is one cell opened by a reveal, in visitation order.
type OpenedCell struct {
	Coord    Coord `json:"coord"`
	Adjacent int   `json:"adjacent"`
}

// RevealResult describes what a single Reveal changed.
type RevealResult struct {
	Opened  []OpenedCell
	HitMine bool
}

// Reveal opens c on g and cascades through zero-count regions.
// Calling it on an already Opened or Flagged cell is a no-op.
func Reveal(g *Grid, mines *MineField, c Coord) RevealResult {
	var res RevealResult

	queue := []Coord{c}
	queued := mapset.New[Coord]()
	queued.Put(c)

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		cell, ok := g.Get(cur)
		if !ok || cell.State == Opened || cell.State == Flagged {
			continue
		}

		cell.State = Opened
		if mines.Has(cur) {
			cell.HasMine = true
			g.Set(cur, cell)
			res.Opened = append(res.Opened, OpenedCell{Coord: cur})
			res.HitMine = true
			return res
		}

		cell.Adjacent = mines.AdjacentMines(g, cur)
		g.Set(cur, cell)
		res.Opened = append(res.Opened, OpenedCell{Coord: cur, Adjacent: cell.Adjacent})

		if cell.Adjacent > 0 {
			continue
		}
		g.ForEachNeighbor(cur, 1, func(nb Coord) {
			if queued.Has(nb) {
				return
			}
			queued.Put(nb)
			queue = append(queue, nb)
		})
	}
	return res
}
