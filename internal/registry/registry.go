package registry

import (
	"sync"
	"time"

	"github.com/guifei-live/room-server/internal/domain"
)

type entry struct {
	profile  domain.UserProfile
	roomID   string
	joinedAt time.Time
}

// Registry tracks live connections and their current room membership.
// All operations are O(1) lookups keyed by connection id.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*entry),
	}
}

// Register stores or refreshes the profile snapshot for a connection.
// The room association of an already registered connection is preserved.
func (r *Registry) Register(connID string, profile domain.UserProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[connID]; ok {
		e.profile = profile
		return
	}
	r.conns[connID] = &entry{
		profile:  profile,
		joinedAt: time.Now(),
	}
}

// Unregister removes the connection and returns the room it was in, if any.
// Clearing the association and returning it is a single critical section so
// the caller can remove the connection from the room's member set without a
// window where registry and room table disagree.
func (r *Registry) Unregister(connID string) (roomID string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, found := r.conns[connID]
	if !found {
		return "", false
	}
	delete(r.conns, connID)
	return e.roomID, e.roomID != ""
}

// SetRoom records the connection's current room.
func (r *Registry) SetRoom(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[connID]; ok {
		e.roomID = roomID
	}
}

// ClearRoom drops the connection's room association and returns the
// previous room id.
func (r *Registry) ClearRoom(connID string) (roomID string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, found := r.conns[connID]
	if !found || e.roomID == "" {
		return "", false
	}
	roomID = e.roomID
	e.roomID = ""
	return roomID, true
}

// Room returns the connection's current room id, if it is in one.
func (r *Registry) Room(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[connID]
	if !ok || e.roomID == "" {
		return "", false
	}
	return e.roomID, true
}

// Profile returns the cached profile snapshot for a connection.
func (r *Registry) Profile(connID string) (domain.UserProfile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[connID]
	if !ok {
		return domain.UserProfile{}, false
	}
	return e.profile, true
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
