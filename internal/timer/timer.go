// apps/go-server/internal/timer/timer.go
//
// Game clock implementations of game.TimerPort.
//
//   - Ticker: real clock, one goroutine per running timer, ticks every interval.
//   - Manual: hand-driven clock for tests and replays.
//
// Each handle can be stopped exactly once; stopping an unknown, zero or
// already stopped handle does nothing. No tick is delivered after Stop returns.

package timer

import (
	"fmt"
	"sync"
	"time"

	"github.com/robalobadob/minesweeper/apps/go-server/internal/game"
)

// MaxDisplay is the largest value the three-digit counter can show.
const MaxDisplay = 999

// Display formats elapsed seconds as the zero-padded three-digit counter,
// clamped to "000".."999".
func Display(sec int) string {
	if sec < 0 {
		sec = 0
	}
	if sec > MaxDisplay {
		sec = MaxDisplay
	}
	return fmt.Sprintf("%03d", sec)
}

// Ticker is a wall-clock TimerPort.
type Ticker struct {
	interval time.Duration

	mu   sync.Mutex
	next game.TimerHandle
	runs map[game.TimerHandle]*run
}

type run struct {
	stop chan struct{}
	mu   sync.Mutex // held while delivering a tick
	done bool
}

// NewTicker returns a clock that ticks every interval (1s when interval <= 0).
func NewTicker(interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Ticker{interval: interval, runs: make(map[game.TimerHandle]*run)}
}

// Start launches a new clock and returns its handle.
func (t *Ticker) Start(onTick func(sec int)) game.TimerHandle {
	t.mu.Lock()
	t.next++
	h := t.next
	r := &run{stop: make(chan struct{})}
	t.runs[h] = r
	t.mu.Unlock()

	go func() {
		tk := time.NewTicker(t.interval)
		defer tk.Stop()
		sec := 0
		for {
			select {
			case <-r.stop:
				return
			case <-tk.C:
				sec++
				r.mu.Lock()
				if !r.done {
					onTick(sec)
				}
				r.mu.Unlock()
			}
		}
	}()
	return h
}

// Stop cancels the clock identified by h.
func (t *Ticker) Stop(h game.TimerHandle) {
	t.mu.Lock()
	r, ok := t.runs[h]
	delete(t.runs, h)
	t.mu.Unlock()
	if !ok {
		return
	}
	r.mu.Lock()
	r.done = true
	r.mu.Unlock()
	close(r.stop)
}

// Active is the number of clocks currently running.
func (t *Ticker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.runs)
}
