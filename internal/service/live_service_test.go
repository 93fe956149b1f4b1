package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guifei-live/room-server/internal/domain"
	"github.com/guifei-live/room-server/internal/hub"
	"github.com/guifei-live/room-server/internal/registry"
	"github.com/guifei-live/room-server/internal/room"
)

// sink is a fake transport that records everything pushed to it.
type sink struct {
	id string

	mu   sync.Mutex
	msgs [][]byte
}

func (s *sink) ID() string { return s.id }

func (s *sink) Push(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, data)
	return true
}

func (s *sink) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = nil
}

// decoded returns every recorded message as a generic JSON object.
func (s *sink) decoded(t *testing.T) []map[string]interface{} {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]interface{}, 0, len(s.msgs))
	for _, raw := range s.msgs {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &m))
		out = append(out, m)
	}
	return out
}

func (s *sink) ofType(t *testing.T, eventType string) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, m := range s.decoded(t) {
		if m["type"] == eventType {
			out = append(out, m)
		}
	}
	return out
}

func data(t *testing.T, m map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := m["data"].(map[string]interface{})
	require.True(t, ok, "event has no data object: %v", m)
	return d
}

type fixture struct {
	svc    LiveService
	reg    *registry.Registry
	rooms  *room.Table
	engine *hub.Engine
}

func newFixture() *fixture {
	reg := registry.NewRegistry()
	rooms := room.NewTable()
	engine := hub.NewEngine(rooms)
	return &fixture{
		svc:    NewLiveService(reg, rooms, engine, nil, nil, nil),
		reg:    reg,
		rooms:  rooms,
		engine: engine,
	}
}

func (f *fixture) connect(id string) *sink {
	s := &sink{id: id}
	f.engine.Attach(s)
	return s
}

// assertConsistent checks the core invariant: a connection's tracked room
// is null XOR exactly one member set contains it.
func assertConsistent(t *testing.T, f *fixture, connID string) {
	t.Helper()

	tracked, joined := f.reg.Room(connID)

	var containing []string
	for _, info := range f.rooms.List() {
		for _, member := range f.rooms.Members(info.RoomID) {
			if member == connID {
				containing = append(containing, info.RoomID)
			}
		}
	}

	if joined {
		require.Equal(t, []string{tracked}, containing,
			"connection %s tracked in %q but member of %v", connID, tracked, containing)
	} else {
		require.Empty(t, containing,
			"connection %s unjoined but member of %v", connID, containing)
	}
}

func TestJoinFirstViewer(t *testing.T) {
	f := newFixture()
	c1 := f.connect("c1")
	ctx := context.Background()

	f.svc.HandleJoinRoom(ctx, "c1", "r1", domain.UserProfile{Nickname: "Alice"})

	success := c1.ofType(t, domain.MsgTypeJoinSuccess)
	require.Len(t, success, 1)
	assert.Equal(t, "r1", success[0]["roomId"])
	assert.Equal(t, float64(1), success[0]["viewerCount"])

	counts := c1.ofType(t, domain.EventViewerCount)
	require.Len(t, counts, 1)
	assert.Equal(t, float64(1), data(t, counts[0])["count"])

	// The joiner never sees its own user_join.
	assert.Empty(t, c1.ofType(t, domain.EventUserJoin))
	assertConsistent(t, f, "c1")
}

func TestSecondViewerJoin(t *testing.T) {
	f := newFixture()
	c1 := f.connect("c1")
	c2 := f.connect("c2")
	ctx := context.Background()

	f.svc.HandleJoinRoom(ctx, "c1", "r1", domain.UserProfile{Nickname: "Alice"})
	c1.reset()

	f.svc.HandleJoinRoom(ctx, "c2", "r1", domain.UserProfile{Nickname: "Bob"})

	joins := c1.ofType(t, domain.EventUserJoin)
	require.Len(t, joins, 1)
	assert.Equal(t, "c2", joins[0]["senderId"])
	userInfo := data(t, joins[0])["userInfo"].(map[string]interface{})
	assert.Equal(t, "Bob", userInfo["nickname"])

	for _, s := range []*sink{c1, c2} {
		counts := s.ofType(t, domain.EventViewerCount)
		require.Len(t, counts, 1, "sink %s", s.id)
		assert.Equal(t, float64(2), data(t, counts[0])["count"])
	}

	success := c2.ofType(t, domain.MsgTypeJoinSuccess)
	require.Len(t, success, 1)
	assert.Equal(t, float64(2), success[0]["viewerCount"])
	assert.Empty(t, c2.ofType(t, domain.EventUserJoin))
}

func TestJoinSwitchesRooms(t *testing.T) {
	f := newFixture()
	f.connect("c1")
	observer := f.connect("c2")
	ctx := context.Background()

	f.svc.HandleJoinRoom(ctx, "c2", "roomB", domain.UserProfile{Nickname: "Bob"})
	f.svc.HandleJoinRoom(ctx, "c1", "roomB", domain.UserProfile{Nickname: "Alice"})
	observer.reset()

	f.svc.HandleJoinRoom(ctx, "c1", "roomA", domain.UserProfile{Nickname: "Alice"})

	// Exactly one leave of roomB, and no stray join visible in roomB.
	leaves := observer.ofType(t, domain.EventUserLeave)
	require.Len(t, leaves, 1)
	assert.Equal(t, "c1", leaves[0]["senderId"])
	assert.Equal(t, "roomB", leaves[0]["roomId"])
	assert.Empty(t, observer.ofType(t, domain.EventUserJoin))

	assert.Equal(t, 1, f.rooms.MemberCount("roomB"))
	assert.Equal(t, 1, f.rooms.MemberCount("roomA"))

	tracked, ok := f.reg.Room("c1")
	require.True(t, ok)
	assert.Equal(t, "roomA", tracked)
	assertConsistent(t, f, "c1")
	assertConsistent(t, f, "c2")
}

func TestChatFromUnjoinedProducesNothing(t *testing.T) {
	f := newFixture()
	c1 := f.connect("c1")
	other := f.connect("c2")
	f.svc.HandleJoinRoom(context.Background(), "c2", "r1", domain.UserProfile{Nickname: "Bob"})
	other.reset()

	f.svc.HandleChatMessage(context.Background(), "c1", "hello")

	assert.Empty(t, c1.decoded(t))
	assert.Empty(t, other.decoded(t))
	assert.Equal(t, int64(0), f.rooms.MessageCount("r1"))
}

func TestChatEchoesToSender(t *testing.T) {
	f := newFixture()
	c1 := f.connect("c1")
	c2 := f.connect("c2")
	ctx := context.Background()

	f.svc.HandleJoinRoom(ctx, "c1", "r1", domain.UserProfile{Nickname: "Alice", Avatar: "a.png"})
	f.svc.HandleJoinRoom(ctx, "c2", "r1", domain.UserProfile{Nickname: "Bob"})
	c1.reset()
	c2.reset()

	f.svc.HandleChatMessage(ctx, "c1", "hello room")

	for _, s := range []*sink{c1, c2} {
		chats := s.ofType(t, domain.EventChat)
		require.Len(t, chats, 1, "sink %s", s.id)
		assert.Equal(t, "c1", chats[0]["senderId"])
		d := data(t, chats[0])
		assert.Equal(t, "hello room", d["message"])
		assert.Equal(t, "Alice", d["senderName"])
		assert.Equal(t, "a.png", d["senderAvatar"])
	}
	assert.Equal(t, int64(1), f.rooms.MessageCount("r1"))
}

func TestGiftCountClamped(t *testing.T) {
	f := newFixture()
	c1 := f.connect("c1")
	ctx := context.Background()
	f.svc.HandleJoinRoom(ctx, "c1", "r1", domain.UserProfile{Nickname: "Alice"})
	c1.reset()

	f.svc.HandleSendGift(ctx, "c1", domain.GiftHeart, 0)
	f.svc.HandleSendGift(ctx, "c1", domain.GiftCrown, -3)
	f.svc.HandleSendGift(ctx, "c1", domain.GiftFlower, 5)

	gifts := c1.ofType(t, domain.EventGift)
	require.Len(t, gifts, 3)
	assert.Equal(t, float64(1), data(t, gifts[0])["giftCount"])
	assert.Equal(t, float64(1), data(t, gifts[1])["giftCount"])
	assert.Equal(t, float64(5), data(t, gifts[2])["giftCount"])
	assert.Equal(t, domain.GiftHeart, data(t, gifts[0])["giftType"])
}

func TestGiftFromUnjoinedDropped(t *testing.T) {
	f := newFixture()
	c1 := f.connect("c1")

	f.svc.HandleSendGift(context.Background(), "c1", domain.GiftHeart, 1)

	assert.Empty(t, c1.decoded(t))
}

func TestLikeTotals(t *testing.T) {
	f := newFixture()
	c1 := f.connect("c1")
	ctx := context.Background()
	f.svc.HandleJoinRoom(ctx, "c1", "r1", domain.UserProfile{Nickname: "Alice"})
	c1.reset()

	f.svc.HandleSendLike(ctx, "c1")
	f.svc.HandleSendLike(ctx, "c1")

	likes := c1.ofType(t, domain.EventLike)
	require.Len(t, likes, 2)
	assert.Equal(t, float64(1), data(t, likes[0])["totalLikes"])
	assert.Equal(t, float64(2), data(t, likes[1])["totalLikes"])
}

func TestHeartbeatAlwaysAcked(t *testing.T) {
	f := newFixture()
	c1 := f.connect("c1")

	// Unjoined connections still get an ack.
	f.svc.HandleHeartbeat(context.Background(), "c1")

	acks := c1.ofType(t, domain.MsgTypeHeartbeatAck)
	require.Len(t, acks, 1)
	assert.NotEmpty(t, acks[0]["timestamp"])
}

func TestLeaveWhenUnjoinedIsNoop(t *testing.T) {
	f := newFixture()
	c1 := f.connect("c1")

	f.svc.HandleLeaveRoom(context.Background(), "c1")

	assert.Empty(t, c1.decoded(t))
}

func TestDisconnectOfSoleMemberKeepsRoom(t *testing.T) {
	f := newFixture()
	f.connect("c1")
	ctx := context.Background()
	f.svc.HandleJoinRoom(ctx, "c1", "r1", domain.UserProfile{Nickname: "Alice"})

	f.svc.HandleDisconnect(ctx, "c1")

	// Room survives for the reaper's grace window instead of dying inline.
	assert.Equal(t, 0, f.rooms.MemberCount("r1"))
	assert.Equal(t, 1, f.rooms.Len())
	assert.Equal(t, 0, f.reg.Count())
	assertConsistent(t, f, "c1")
}

func TestEventsAfterDisconnectAreDropped(t *testing.T) {
	f := newFixture()
	c2 := f.connect("c2")
	ctx := context.Background()
	f.svc.HandleJoinRoom(ctx, "c1", "r1", domain.UserProfile{Nickname: "Alice"})
	f.svc.HandleJoinRoom(ctx, "c2", "r1", domain.UserProfile{Nickname: "Bob"})
	f.svc.HandleDisconnect(ctx, "c1")
	c2.reset()

	f.svc.HandleChatMessage(ctx, "c1", "ghost message")
	f.svc.HandleSendLike(ctx, "c1")

	assert.Empty(t, c2.decoded(t))
}

func TestLeaveNotifiesRemainingMembers(t *testing.T) {
	f := newFixture()
	f.connect("c1")
	c2 := f.connect("c2")
	ctx := context.Background()
	f.svc.HandleJoinRoom(ctx, "c1", "r1", domain.UserProfile{Nickname: "Alice"})
	f.svc.HandleJoinRoom(ctx, "c2", "r1", domain.UserProfile{Nickname: "Bob"})
	c2.reset()

	f.svc.HandleLeaveRoom(ctx, "c1")

	leaves := c2.ofType(t, domain.EventUserLeave)
	require.Len(t, leaves, 1)
	userInfo := data(t, leaves[0])["userInfo"].(map[string]interface{})
	assert.Equal(t, "Alice", userInfo["nickname"])

	counts := c2.ofType(t, domain.EventViewerCount)
	require.Len(t, counts, 1)
	assert.Equal(t, float64(1), data(t, counts[0])["count"])
}
