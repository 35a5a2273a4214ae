// apps/go-server/cmd/tui/main.go
//
// Terminal Minesweeper on the same game controller the server uses.
//
// Usage:
//   tui [preset]        (beginner | intermediate | expert, or any PRESETS_FILE entry)
//
// Keys: arrows move, Enter reveals, f flags, c chords, r restarts, q quits.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
	"github.com/rivo/tview"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/minesweeper/apps/go-server/internal/board"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/config"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/game"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/presets"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/timer"
)

func main() {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	cfg := config.Load()

	if err := presets.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load presets")
	}
	name := cfg.DefaultPreset
	if len(os.Args) > 1 {
		name = os.Args[1]
	}
	gc, ok := presets.Lookup(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown preset %q (have %v)\n", name, presets.Names())
		os.Exit(2)
	}
	gc.StrictWin = cfg.StrictWin

	app := tview.NewApplication()
	view := newTableRender(app, name)
	clock := timer.NewTicker(cfg.TickInterval)

	g, err := game.New(gc,
		game.WithRender(view),
		game.WithTimer(clock),
		game.WithTickObserver(view.tick),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("new game")
	}
	view.draw(g.Snapshot())

	view.table.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		row, col := view.table.GetSelection()
		at := board.Coord{Row: row, Col: col}

		var err error
		switch {
		case ev.Key() == tcell.KeyEnter:
			_, err = g.Reveal(at)
		case ev.Key() == tcell.KeyRune && (ev.Rune() == 'f' || ev.Rune() == 'F'):
			_, err = g.ToggleFlag(at)
		case ev.Key() == tcell.KeyRune && (ev.Rune() == 'c' || ev.Rune() == 'C'):
			_, err = g.Chord(at)
		case ev.Key() == tcell.KeyRune && (ev.Rune() == 'r' || ev.Rune() == 'R'):
			if err = g.Restart(); err == nil {
				view.draw(g.Snapshot())
			}
		case ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q'),
			ev.Key() == tcell.KeyEscape:
			app.Stop()
		default:
			return ev
		}
		if err != nil {
			view.status = "[red]" + err.Error()
			view.refreshHeader()
		}
		return nil
	})

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(view.header, 1, 0, false).
		AddItem(view.table, 0, 1, true)

	if err := app.SetRoot(layout, true).Run(); err != nil {
		log.Fatal().Err(err).Msg("tui exited")
	}
	fmt.Printf("%s: %s after %s\n", name, g.Phase(), timer.Display(g.Elapsed()))
}
