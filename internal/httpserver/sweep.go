// apps/go-server/internal/httpserver/sweep.go
//
// Eviction of live games.
//   - Finished games go FinishedTTL after their last move, others after SessionIdleTTL.
//   - Today's daily boards stay until the day is over, so a lost board cannot
//     be dealt again by waiting for it to expire.
//   - Viewers of an evicted game are disconnected.

package httpserver

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/minesweeper/apps/go-server/internal/daily"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/store"
)

const (
	defaultIdleTTL     = 2 * time.Hour
	defaultFinishedTTL = 15 * time.Minute
)

func (s *Server) ttls() (idle, finished time.Duration) {
	idle, finished = s.cfg.SessionIdleTTL, s.cfg.FinishedTTL
	if idle <= 0 {
		idle = defaultIdleTTL
	}
	if finished <= 0 {
		finished = defaultFinishedTTL
	}
	return idle, finished
}

// Sweep evicts expired sessions as of now and returns how many went.
func (s *Server) Sweep(ctx context.Context, now time.Time) (int, error) {
	idle, finished := s.ttls()
	today := daily.DateKey(now)

	gone, err := s.store.Evict(ctx, func(sess *store.Session) bool {
		if sess.Mode == modeDaily && sess.Date == today {
			return false
		}
		return sess.Expired(now, idle, finished)
	})
	for _, id := range gone {
		s.hub.closeRoom(id)
	}
	pruned := s.daily.prune(today)
	if len(gone) > 0 || pruned > 0 {
		log.Debug().Int("sessions", len(gone)).Int("dailyKeys", pruned).Msg("swept")
	}
	return len(gone), err
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Server) RunSweeper(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	tk := time.NewTicker(every)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tk.C:
			if _, err := s.Sweep(ctx, now.UTC()); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Msg("sweep sessions")
			}
		}
	}
}
