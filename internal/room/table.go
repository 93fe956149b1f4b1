package room

import (
	"sync"
	"time"
)

// Info is a public snapshot of a room for listings.
type Info struct {
	RoomID      string    `json:"roomId"`
	ViewerCount int       `json:"viewerCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

type state struct {
	members      map[string]struct{}
	messageCount int64
	likeCount    int64
	createdAt    time.Time
	// emptySince is zero while the room has members. A room only becomes
	// eligible for reaping once it has been empty longer than the grace
	// period, measured from this timestamp rather than createdAt.
	emptySince time.Time
}

// Table owns all rooms and their member sets. Mutations are map inserts and
// deletes under a single lock; broadcast fan-out never happens while the
// lock is held.
type Table struct {
	mu    sync.RWMutex
	rooms map[string]*state

	now func() time.Time // overridable in tests
}

func NewTable() *Table {
	return &Table{
		rooms: make(map[string]*state),
		now:   time.Now,
	}
}

func (t *Table) ensureLocked(roomID string) (*state, bool) {
	s, ok := t.rooms[roomID]
	if ok {
		return s, false
	}
	now := t.now()
	s = &state{
		members:    make(map[string]struct{}),
		createdAt:  now,
		emptySince: now,
	}
	t.rooms[roomID] = s
	return s, true
}

// Ensure creates the room if it does not exist. It reports whether the room
// was created. Calling it on an existing room is a no-op.
func (t *Table) Ensure(roomID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, created := t.ensureLocked(roomID)
	return created
}

// AddMember adds a connection to the room's member set, creating the room
// if needed, and returns the member count after the add.
func (t *Table) AddMember(roomID, connID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, _ := t.ensureLocked(roomID)
	s.members[connID] = struct{}{}
	s.emptySince = time.Time{}
	return len(s.members)
}

// RemoveMember removes a connection from the room's member set and returns
// the member count after the removal. Removing the last member does not
// delete the room; it only marks when the room became empty so the reaper
// can apply the grace period.
func (t *Table) RemoveMember(roomID, connID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.rooms[roomID]
	if !ok {
		return 0
	}
	delete(s.members, connID)
	if len(s.members) == 0 {
		s.emptySince = t.now()
	}
	return len(s.members)
}

// MemberCount returns the current member count of a room.
func (t *Table) MemberCount(roomID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.rooms[roomID]
	if !ok {
		return 0
	}
	return len(s.members)
}

// Members returns a snapshot of the room's member connection ids. Callers
// deliver to the snapshot outside the lock; a connection that leaves
// mid-broadcast may or may not receive that message.
func (t *Table) Members(roomID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.rooms[roomID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(s.members))
	for id := range s.members {
		ids = append(ids, id)
	}
	return ids
}

// IncrementMessages bumps the room's chat message counter.
func (t *Table) IncrementMessages(roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.rooms[roomID]; ok {
		s.messageCount++
	}
}

// IncrementLikes bumps the room's like counter and returns the new total.
func (t *Table) IncrementLikes(roomID string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.rooms[roomID]
	if !ok {
		return 0
	}
	s.likeCount++
	return s.likeCount
}

// MessageCount returns the room's chat message counter.
func (t *Table) MessageCount(roomID string) int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s, ok := t.rooms[roomID]; ok {
		return s.messageCount
	}
	return 0
}

// List returns a snapshot of all rooms.
func (t *Table) List() []Info {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Info, 0, len(t.rooms))
	for id, s := range t.rooms {
		out = append(out, Info{
			RoomID:      id,
			ViewerCount: len(s.members),
			CreatedAt:   s.createdAt,
		})
	}
	return out
}

// Len returns the number of rooms, empty ones included.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rooms)
}

// Sweep deletes every room that has had no members for longer than grace
// and returns the reaped room ids. Non-empty rooms are never inspected.
func (t *Table) Sweep(grace time.Duration) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	var reaped []string
	for id, s := range t.rooms {
		if len(s.members) > 0 {
			continue
		}
		if now.Sub(s.emptySince) > grace {
			delete(t.rooms, id)
			reaped = append(reaped, id)
		}
	}
	return reaped
}
