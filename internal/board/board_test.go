package board

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridBounds(t *testing.T) {
	g := NewGrid(3, 4)
	assert.Equal(t, 12, g.Len())
	assert.True(t, g.InBounds(Coord{Row: 2, Col: 3}))
	assert.False(t, g.InBounds(Coord{Row: 3, Col: 0}))
	assert.False(t, g.InBounds(Coord{Row: 0, Col: -1}))

	_, ok := g.Get(Coord{Row: -1, Col: 0})
	assert.False(t, ok)

	// out of bounds writes are ignored
	g.Set(Coord{Row: 9, Col: 9}, Cell{State: Flagged})
	g.Each(func(_ Coord, c Cell) { assert.Equal(t, Hidden, c.State) })

	g.SetState(Coord{Row: 1, Col: 1}, Questioned)
	c, ok := g.Get(Coord{Row: 1, Col: 1})
	require.True(t, ok)
	assert.Equal(t, Questioned, c.State)
}

func TestForEachNeighborClampsToEdges(t *testing.T) {
	g := NewGrid(3, 3)

	var corner []Coord
	g.ForEachNeighbor(Coord{Row: 0, Col: 0}, 1, func(c Coord) { corner = append(corner, c) })
	assert.Equal(t, []Coord{{0, 1}, {1, 0}, {1, 1}}, corner)

	var centre []Coord
	g.ForEachNeighbor(Coord{Row: 1, Col: 1}, 1, func(c Coord) { centre = append(centre, c) })
	assert.Len(t, centre, 8)
	assert.NotContains(t, centre, Coord{Row: 1, Col: 1})

	var outside []Coord
	g.ForEachNeighbor(Coord{Row: 5, Col: 5}, 1, func(c Coord) { outside = append(outside, c) })
	assert.Empty(t, outside)
}

func TestPlaceExactCountAndExclusion(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		m := NewMineField(rng)
		ex := Coord{Row: rng.Intn(16), Col: rng.Intn(16)}
		require.NoError(t, m.Place(40, 16, 16, &ex))
		assert.Equal(t, 40, m.Len())
		assert.False(t, m.Has(ex))
	}
}

func TestPlaceFillsEveryEligibleCell(t *testing.T) {
	m := NewMineField(rand.New(rand.NewSource(1)))
	ex := Coord{Row: 1, Col: 1}
	require.NoError(t, m.Place(3, 2, 2, &ex))
	assert.Equal(t, []Coord{{0, 0}, {0, 1}, {1, 0}}, m.Coords())
}

func TestPlaceRejectsImpossibleConfig(t *testing.T) {
	m := NewMineField(rand.New(rand.NewSource(1)))
	ex := Coord{}
	assert.ErrorIs(t, m.Place(4, 2, 2, &ex), ErrInvalidConfig)
	assert.ErrorIs(t, m.Place(5, 2, 2, nil), ErrInvalidConfig)
	assert.ErrorIs(t, m.Place(1, 0, 2, nil), ErrInvalidConfig)
	assert.ErrorIs(t, m.Place(-1, 2, 2, nil), ErrInvalidConfig)
}

func TestRelocate(t *testing.T) {
	m := NewMineField(nil)
	m.Put(Coord{0, 0})
	m.Put(Coord{0, 1})
	require.True(t, m.Relocate(Coord{0, 0}, 2, 2))
	assert.Equal(t, []Coord{{0, 1}, {1, 0}}, m.Coords())
	assert.False(t, m.Relocate(Coord{1, 1}, 2, 2))
}

func TestAdjacentMines(t *testing.T) {
	g := NewGrid(3, 3)
	m := NewMineField(nil)
	m.Put(Coord{0, 0})
	m.Put(Coord{2, 2})
	assert.Equal(t, 2, m.AdjacentMines(g, Coord{1, 1}))
	assert.Equal(t, 1, m.AdjacentMines(g, Coord{0, 1}))
	assert.Equal(t, 0, m.AdjacentMines(g, Coord{2, 0}))
}

// layout builds a grid and minefield from rows of '.' and '*'.
func layout(rows ...string) (*Grid, *MineField) {
	g := NewGrid(len(rows), len(rows[0]))
	m := NewMineField(nil)
	for r, line := range rows {
		for c, ch := range line {
			if ch == '*' {
				m.Put(Coord{Row: r, Col: c})
			}
		}
	}
	return g, m
}

func openedSet(res RevealResult) map[Coord]int {
	out := map[Coord]int{}
	for _, o := range res.Opened {
		out[o.Coord] = o.Adjacent
	}
	return out
}

func TestRevealNumberedCellDoesNotCascade(t *testing.T) {
	g, m := layout(
		"*..",
		"...",
		"...",
	)
	res := Reveal(g, m, Coord{0, 1})
	assert.False(t, res.HitMine)
	assert.Equal(t, map[Coord]int{{0, 1}: 1}, openedSet(res))
}

func TestRevealFloodFillClosure(t *testing.T) {
	g, m := layout(
		"....*",
		".....",
		"**...",
		".....",
	)
	res := Reveal(g, m, Coord{0, 0})
	require.False(t, res.HitMine)

	// zero region plus its numbered border, nothing beyond it
	want := map[Coord]int{
		{0, 0}: 0, {0, 1}: 0, {0, 2}: 0, {0, 3}: 1,
		{1, 0}: 2, {1, 1}: 2, {1, 2}: 1, {1, 3}: 1,
	}
	assert.Equal(t, want, openedSet(res))
	for c, adj := range want {
		cell, _ := g.Get(c)
		assert.Equal(t, Opened, cell.State, "%v", c)
		assert.Equal(t, adj, cell.Adjacent, "%v", c)
	}
	cell, _ := g.Get(Coord{2, 3})
	assert.Equal(t, Hidden, cell.State)

	// the second zero region borders cells that are already open
	res = Reveal(g, m, Coord{3, 4})
	assert.Equal(t, map[Coord]int{
		{2, 3}: 0, {2, 4}: 0, {3, 3}: 0, {3, 4}: 0,
		{1, 4}: 1, {2, 2}: 1, {3, 2}: 1,
	}, openedSet(res))

	for _, c := range []Coord{{3, 0}, {3, 1}, {0, 4}, {2, 0}} {
		cell, _ := g.Get(c)
		assert.Equal(t, Hidden, cell.State, "%v", c)
	}
}

func TestRevealIsIdempotent(t *testing.T) {
	g, m := layout(
		"...",
		"...",
		"..*",
	)
	first := Reveal(g, m, Coord{0, 0})
	assert.Len(t, first.Opened, 8)

	second := Reveal(g, m, Coord{0, 0})
	assert.Empty(t, second.Opened)
	assert.False(t, second.HitMine)
}

func TestRevealSkipsFlagsButOpensQuestions(t *testing.T) {
	g, m := layout(
		"...",
		"...",
		"...",
	)
	g.SetState(Coord{2, 2}, Flagged)
	g.SetState(Coord{0, 2}, Questioned)

	res := Reveal(g, m, Coord{1, 1})
	got := openedSet(res)
	assert.Len(t, got, 8)
	assert.NotContains(t, got, Coord{2, 2})
	assert.Contains(t, got, Coord{0, 2})

	cell, _ := g.Get(Coord{2, 2})
	assert.Equal(t, Flagged, cell.State)
}

func TestRevealMine(t *testing.T) {
	g, m := layout(
		".*",
		"..",
	)
	res := Reveal(g, m, Coord{0, 1})
	assert.True(t, res.HitMine)
	require.Len(t, res.Opened, 1)
	cell, _ := g.Get(Coord{0, 1})
	assert.Equal(t, Opened, cell.State)
	assert.True(t, cell.HasMine)
}

func TestRevealOutOfBounds(t *testing.T) {
	g, m := layout("..")
	res := Reveal(g, m, Coord{Row: 4, Col: 0})
	assert.Empty(t, res.Opened)
}

func TestRevealLargeEmptyBoard(t *testing.T) {
	g := NewGrid(300, 300)
	m := NewMineField(nil)
	res := Reveal(g, m, Coord{150, 150})
	assert.Len(t, res.Opened, 300*300)
}
