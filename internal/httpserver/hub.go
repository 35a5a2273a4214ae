// apps/go-server/internal/httpserver/hub.go
//
// WebSocket fan-out for live games.
// Responsibilities:
//   - Upgrade GET /game/{id}/ws and register the connection under the game's room.
//   - Broadcast {"action","data"} events (cell, counter, ended, tick) to every viewer.
//   - Accept moves sent over the socket ({"action":"reveal","data":{"row":1,"col":2}}).
//
// Notes:
//   - gorilla/websocket allows one concurrent writer per conn, so only the
//     viewer's pump goroutine writes. Everyone else queues on its send channel.
//   - Broadcast never blocks: a viewer whose queue is full, or whose write
//     fails, is dropped from its room and disconnected.

package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/minesweeper/apps/go-server/internal/board"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/game"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/timer"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 256 // queued events per viewer
)

// event is the wire shape of every message in both directions.
type event struct {
	Action string `json:"action"`
	Data   any    `json:"data"`
}

type inbound struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type viewer struct {
	conn *websocket.Conn
	send chan event
	done chan struct{} // closed when the connection is finished with
	once sync.Once
}

func newViewer(conn *websocket.Conn) *viewer {
	return &viewer{conn: conn, send: make(chan event, sendBuffer), done: make(chan struct{})}
}

// enqueue hands ev to the pump; false means the queue is full or closed.
func (c *viewer) enqueue(ev event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// close stops the pump and the connection; safe to call more than once.
func (c *viewer) close() {
	c.once.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// pump is the only writer on the connection.
func (c *viewer) pump(room string) {
	for {
		select {
		case <-c.done:
			return
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				log.Warn().Err(err).Str("gameId", room).Str("action", ev.Action).Msg("ws write failed")
				c.close()
				return
			}
		}
	}
}

// Hub keeps the viewers of every game, keyed by game ID.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*viewer]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*viewer]struct{})}
}

func (h *Hub) upgrader(origin string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			o := r.Header.Get("Origin")
			return o == "" || o == origin
		},
	}
}

func (h *Hub) join(room string, c *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*viewer]struct{})
	}
	h.rooms[room][c] = struct{}{}
}

func (h *Hub) leave(room string, c *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms[room], c)
	if len(h.rooms[room]) == 0 {
		delete(h.rooms, room)
	}
}

// closeRoom disconnects every viewer of room, used once its game is gone.
func (h *Hub) closeRoom(room string) {
	h.mu.Lock()
	clients := h.rooms[room]
	delete(h.rooms, room)
	h.mu.Unlock()
	for c := range clients {
		c.close()
	}
}

// Viewers is the number of open connections on room.
func (h *Hub) Viewers(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Broadcast sends one event to every viewer of room.
func (h *Hub) Broadcast(room, action string, data any) {
	if h == nil {
		return
	}
	h.mu.RLock()
	clients := make([]*viewer, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	ev := event{Action: action, Data: data}
	for _, c := range clients {
		if !c.enqueue(ev) {
			log.Warn().Str("gameId", room).Str("action", action).Msg("ws viewer too slow, dropping")
			h.leave(room, c)
			c.close()
		}
	}
}

// hubRender is the RenderPort for one game: every change goes out to its room.
type hubRender struct {
	hub  *Hub
	room string
}

func (r hubRender) CellChanged(at board.Coord, v game.CellView) {
	r.hub.Broadcast(r.room, "cell", game.CellChange{Coord: at, CellView: v})
}

func (r hubRender) CounterChanged(remaining int) {
	r.hub.Broadcast(r.room, "counter", map[string]int{"remaining": remaining})
}

func (r hubRender) GameEnded(outcome game.Phase) {
	r.hub.Broadcast(r.room, "ended", map[string]game.Phase{"phase": outcome})
}

// tick publishes the clock; it never touches the board.
func (r hubRender) tick(sec int) {
	r.hub.Broadcast(r.room, "tick", map[string]any{"seconds": sec, "display": timer.Display(sec)})
}

// serve upgrades the request, sends the current snapshot and then reads moves
// until the client goes away. apply runs a move exactly as the HTTP routes do.
func (h *Hub) serve(w http.ResponseWriter, r *http.Request, origin, room string, snapshot func() game.Snapshot, apply func(action string, at board.Coord) error) {
	up := h.upgrader(origin)
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("gameId", room).Msg("ws upgrade failed")
		return
	}
	c := newViewer(conn)
	// join before snapshotting so no change slips between the two
	h.join(room, c)
	c.enqueue(event{Action: "snapshot", Data: snapshot()})
	go c.pump(room)
	defer func() {
		h.leave(room, c)
		c.close()
	}()
	log.Debug().Str("gameId", room).Msg("ws connected")

	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Str("gameId", room).Msg("ws read")
			}
			return
		}
		var at board.Coord
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &at); err != nil {
				c.enqueue(event{Action: "error", Data: map[string]string{"error": "bad_json"}})
				continue
			}
		}
		if err := apply(msg.Action, at); err != nil {
			c.enqueue(event{Action: "error", Data: map[string]string{"error": err.Error()}})
		}
	}
}
