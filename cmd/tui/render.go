package main

import (
	"fmt"
	"strconv"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/robalobadob/minesweeper/apps/go-server/internal/board"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/game"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/timer"
)

var numberColors = [...]tcell.Color{
	tcell.ColorDefault,
	tcell.ColorBlue,
	tcell.ColorGreen,
	tcell.ColorRed,
	tcell.ColorNavy,
	tcell.ColorMaroon,
	tcell.ColorTeal,
	tcell.ColorWhite,
	tcell.ColorGray,
}

// tableRender draws the board into a tview table. Board and counter events
// arrive on the UI goroutine (from key handlers); ticks arrive from the
// clock goroutine and go through QueueUpdateDraw.
type tableRender struct {
	app    *tview.Application
	table  *tview.Table
	header *tview.TextView

	preset    string
	remaining int
	clock     string
	status    string
}

func newTableRender(app *tview.Application, preset string) *tableRender {
	r := &tableRender{
		app:    app,
		table:  tview.NewTable(),
		header: tview.NewTextView().SetDynamicColors(true),
		preset: preset,
		clock:  timer.Display(0),
	}
	r.table.SetSelectable(true, true)
	r.table.SetBorder(true)
	return r
}

// draw paints a whole snapshot; used at start and after restart.
func (r *tableRender) draw(s game.Snapshot) {
	r.table.Clear()
	for row := range s.Cells {
		for col, v := range s.Cells[row] {
			r.table.SetCell(row, col, cellFor(v))
		}
	}
	r.remaining = s.Remaining
	r.clock = timer.Display(s.Elapsed)
	r.status = ""
	r.refreshHeader()
}

func (r *tableRender) CellChanged(at board.Coord, v game.CellView) {
	r.table.SetCell(at.Row, at.Col, cellFor(v))
}

func (r *tableRender) CounterChanged(remaining int) {
	r.remaining = remaining
	r.refreshHeader()
}

func (r *tableRender) GameEnded(outcome game.Phase) {
	switch outcome {
	case game.Won:
		r.status = "[green]You win! (r: new board, q: quit)"
	case game.Lost:
		r.status = "[red]Boom. (r: new board, q: quit)"
	}
	r.refreshHeader()
}

func (r *tableRender) tick(sec int) {
	r.app.QueueUpdateDraw(func() {
		r.clock = timer.Display(sec)
		r.refreshHeader()
	})
}

func (r *tableRender) refreshHeader() {
	r.header.SetText(fmt.Sprintf(" %s   mines [yellow]%03d[-]   time [yellow]%s[-]   %s",
		r.preset, r.remaining, r.clock, r.status))
}

func cellFor(v game.CellView) *tview.TableCell {
	text, fg, bg := " . ", tcell.ColorGray, tcell.ColorDefault
	switch v.State {
	case board.Opened:
		text, fg = "   ", tcell.ColorDefault
		if v.Adjacent > 0 {
			text, fg = " "+strconv.Itoa(v.Adjacent)+" ", numberColors[v.Adjacent]
		}
	case board.Flagged:
		text, fg = " F ", tcell.ColorRed
	case board.Questioned:
		text, fg = " ? ", tcell.ColorYellow
	case board.MineShown:
		text, fg = " * ", tcell.ColorWhite
	case board.MineExploded:
		text, fg, bg = " * ", tcell.ColorWhite, tcell.ColorRed
	case board.WrongFlag:
		text, fg = " X ", tcell.ColorRed
	}
	return tview.NewTableCell(text).
		SetAlign(tview.AlignCenter).
		SetTextColor(fg).
		SetBackgroundColor(bg)
}
