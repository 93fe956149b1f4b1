package hub

import (
	"encoding/json"
	"sync"

	"github.com/guifei-live/room-server/internal/room"
	"github.com/guifei-live/room-server/pkg/log"
)

// Conn is the transport-facing side of a connection. Push must not block;
// it reports false when the message could not be queued (buffer full or
// connection already closed). Such failures are swallowed here and cleaned
// up by the transport's own disconnect notification.
type Conn interface {
	ID() string
	Push(data []byte) bool
}

// Engine fans out events to the members of a room, or to one connection.
// Membership is owned by the room table; the engine only maps connection
// ids to live transports.
type Engine struct {
	mu    sync.RWMutex
	conns map[string]Conn
	rooms *room.Table
}

func NewEngine(rooms *room.Table) *Engine {
	return &Engine{
		conns: make(map[string]Conn),
		rooms: rooms,
	}
}

// Attach registers a live transport.
func (e *Engine) Attach(c Conn) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conns[c.ID()] = c
}

// Detach forgets a transport. In-flight deliveries to it are dropped.
func (e *Engine) Detach(connID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.conns, connID)
}

// SendTo delivers an event to exactly one connection, best-effort.
func (e *Engine) SendTo(connID string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.L().Error().Err(err).Msg("failed to marshal direct message")
		return
	}

	e.mu.RLock()
	c, ok := e.conns[connID]
	e.mu.RUnlock()
	if !ok {
		return
	}
	if !c.Push(data) {
		log.L().Debug().Str(log.FieldConnID, connID).Msg("send buffer full, message dropped")
	}
}

// BroadcastToRoom delivers an event to every connection currently in the
// room's member set, except excludeConnID if non-empty. The member set is
// snapshotted under the room lock and delivery happens outside it.
func (e *Engine) BroadcastToRoom(roomID string, v interface{}, excludeConnID string) {
	members := e.rooms.Members(roomID)
	if len(members) == 0 {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		log.L().Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to marshal broadcast")
		return
	}

	e.mu.RLock()
	targets := make([]Conn, 0, len(members))
	for _, id := range members {
		if id == excludeConnID {
			continue
		}
		if c, ok := e.conns[id]; ok {
			targets = append(targets, c)
		}
	}
	e.mu.RUnlock()

	for _, c := range targets {
		if !c.Push(data) {
			log.L().Debug().
				Str(log.FieldConnID, c.ID()).
				Str(log.FieldRoomID, roomID).
				Msg("send buffer full during broadcast, receiver skipped")
		}
	}
}
