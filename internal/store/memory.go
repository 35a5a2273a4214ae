// apps/go-server/internal/store/memory.go
//
// In-memory session store for live Minesweeper games.
// Boards are never persisted; a restart of the process drops every game.
//
// Characteristics:
//   - Stores *Session objects keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Each Session carries its own mutex so moves on one game run one at a time.
//   - ErrNotFound is returned for missing game IDs on Get().
//   - Evict drops whatever sessions a caller-supplied policy marks as expired.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/minesweeper/apps/go-server/internal/game"
)

// ErrNotFound is returned when no session has the requested ID.
var ErrNotFound = errors.New("not found")

// Session is one live game plus its ownership metadata.
type Session struct {
	ID        string
	OwnerID   string // user id or anonymous cookie id
	Mode      string // "classic" | "daily"
	Preset    string
	Date      string // daily key, empty for classic games
	CreatedAt time.Time

	mu         sync.Mutex
	Game       *game.Controller
	Moves      int // moves that changed the board, guarded by Do
	lastActive time.Time
}

// NewID returns a fresh random session ID.
func NewID() string { return uuid.NewString() }

// NewSession wraps g under id; an empty id gets a fresh one.
func NewSession(id string, g *game.Controller, ownerID, mode string) *Session {
	if id == "" {
		id = NewID()
	}
	now := time.Now().UTC()
	return &Session{
		ID:         id,
		OwnerID:    ownerID,
		Mode:       mode,
		CreatedAt:  now,
		Game:       g,
		lastActive: now,
	}
}

// Do runs fn with exclusive access to the session's game.
func (s *Session) Do(fn func(g *game.Controller) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.Game)
}

// Move runs a board operation under the session lock and counts it when it
// changed anything.
func (s *Session) Move(fn func(g *game.Controller) (game.Result, error)) (game.Result, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := fn(s.Game)
	if err == nil && len(res.Changes) > 0 {
		s.Moves++
		s.lastActive = time.Now().UTC()
	}
	return res, s.Moves, err
}

// Restart starts the game over with the same config and clears the move count.
func (s *Session) Restart() (game.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Game.Restart(); err != nil {
		return game.Snapshot{}, err
	}
	s.Moves = 0
	s.lastActive = time.Now().UTC()
	return s.Game.Snapshot(), nil
}

// LastActive is when the session was created or last changed the board.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Expired reports whether the session has gone untouched for longer than
// finishedTTL after its game ended, or idleTTL while it is still playable.
func (s *Session) Expired(now time.Time, idleTTL, finishedTTL time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ttl := idleTTL
	if s.Game.Phase().Terminal() {
		ttl = finishedTTL
	}
	return now.Sub(s.lastActive) > ttl
}

// Store defines the lookup interface for live sessions.
type Store interface {
	// Save persists or updates a session.
	Save(ctx context.Context, s *Session) error

	// Get retrieves a session by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete drops a session; missing IDs are not an error.
	Delete(ctx context.Context, id string) error

	// Evict drops every session for which expired returns true and returns
	// their IDs.
	Evict(ctx context.Context, expired func(*Session) bool) ([]string, error)
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex        // guards sessions map
	sessions map[string]*Session // keyed by Session.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*Session)}
}

func (m *memory) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memory) Evict(ctx context.Context, expired func(*Session) bool) ([]string, error) {
	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	// expired may wait on a session lock, so it runs outside the map lock
	var gone []string
	for _, s := range all {
		if err := ctx.Err(); err != nil {
			return gone, err
		}
		if !expired(s) {
			continue
		}
		m.mu.Lock()
		if m.sessions[s.ID] == s {
			delete(m.sessions, s.ID)
			gone = append(gone, s.ID)
		}
		m.mu.Unlock()
	}
	return gone, nil
}
