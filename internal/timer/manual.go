package timer

import (
	"sync"

	"github.com/robalobadob/minesweeper/apps/go-server/internal/game"
)

// Manual is a TimerPort advanced by hand.
type Manual struct {
	mu     sync.Mutex
	next   game.TimerHandle
	active map[game.TimerHandle]*manualRun
	Starts int
	Stops  int
}

type manualRun struct {
	sec    int
	onTick func(int)
}

func NewManual() *Manual {
	return &Manual{active: make(map[game.TimerHandle]*manualRun)}
}

func (m *Manual) Start(onTick func(sec int)) game.TimerHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.active[m.next] = &manualRun{onTick: onTick}
	m.Starts++
	return m.next
}

func (m *Manual) Stop(h game.TimerHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.active[h]; !ok {
		return
	}
	delete(m.active, h)
	m.Stops++
}

// Advance delivers n ticks to every running clock.
func (m *Manual) Advance(n int) {
	m.mu.Lock()
	runs := make([]*manualRun, 0, len(m.active))
	for _, r := range m.active {
		runs = append(runs, r)
	}
	m.mu.Unlock()

	for i := 0; i < n; i++ {
		for _, r := range runs {
			r.sec++
			r.onTick(r.sec)
		}
	}
}

// Running is the number of started, not yet stopped clocks.
func (m *Manual) Running() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}
