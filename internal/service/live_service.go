package service

import (
	"context"
	"fmt"
	"time"

	"github.com/guifei-live/room-server/internal/audit"
	"github.com/guifei-live/room-server/internal/domain"
	"github.com/guifei-live/room-server/internal/hub"
	"github.com/guifei-live/room-server/internal/registry"
	"github.com/guifei-live/room-server/internal/repository"
	"github.com/guifei-live/room-server/internal/room"
	"github.com/guifei-live/room-server/internal/store"
	"github.com/guifei-live/room-server/pkg/log"
)

const persistTimeout = 5 * time.Second

type liveService struct {
	registry *registry.Registry
	rooms    *room.Table
	engine   *hub.Engine
	presence store.PresenceMirror      // optional
	gifts    repository.GiftRepository // optional
	users    repository.UserRepository // optional

	now func() time.Time
}

// NewLiveService creates the lifecycle controller. presence, gifts and
// users may be nil when the corresponding infrastructure is not configured.
func NewLiveService(
	reg *registry.Registry,
	rooms *room.Table,
	engine *hub.Engine,
	presence store.PresenceMirror,
	gifts repository.GiftRepository,
	users repository.UserRepository,
) LiveService {
	return &liveService{
		registry: reg,
		rooms:    rooms,
		engine:   engine,
		presence: presence,
		gifts:    gifts,
		users:    users,
		now:      time.Now,
	}
}

// HandleJoinRoom moves the connection into roomID, leaving its current room
// first if it has one. Events for one connection arrive on a single read
// loop, so join sequences are never reentrant per connection.
func (s *liveService) HandleJoinRoom(ctx context.Context, connID, roomID string, profile domain.UserProfile) error {
	if roomID == "" {
		return nil
	}

	// Leaving the old room runs the full leave sequence, including its
	// own viewer count broadcast.
	if _, ok := s.registry.Room(connID); ok {
		s.leave(ctx, connID)
	}

	s.registry.Register(connID, profile)

	if created := s.rooms.Ensure(roomID); created {
		audit.Log(ctx, audit.ActionRoomCreate, connID, roomID, "room created")
	}
	count := s.rooms.AddMember(roomID, connID)
	s.registry.SetRoom(connID, roomID)

	s.engine.BroadcastToRoom(roomID, domain.Event{
		Type:     domain.EventUserJoin,
		SenderID: connID,
		RoomID:   roomID,
		Data: domain.PresenceData{
			UserInfo: profile,
			Message:  fmt.Sprintf("%s 加入了直播间", profile.Nickname),
		},
		Timestamp: s.now().UTC(),
	}, connID)

	s.broadcastViewerCount(ctx, roomID)

	s.engine.SendTo(connID, domain.JoinSuccessMessage{
		Type:        domain.MsgTypeJoinSuccess,
		RoomID:      roomID,
		ViewerCount: count,
	})

	audit.Log(ctx, audit.ActionRoomJoin, connID, roomID, "user joined room")
	s.persistUser(profile)
	return nil
}

// HandleChatMessage broadcasts a chat event to the sender's current room,
// sender included. Unjoined senders are dropped silently.
func (s *liveService) HandleChatMessage(ctx context.Context, connID, message string) error {
	roomID, ok := s.registry.Room(connID)
	if !ok {
		log.Ctx(ctx).Debug().Str(log.FieldConnID, connID).Msg("chat from unjoined connection dropped")
		return nil
	}

	s.rooms.IncrementMessages(roomID)

	profile, _ := s.registry.Profile(connID)
	s.engine.BroadcastToRoom(roomID, domain.Event{
		Type:     domain.EventChat,
		SenderID: connID,
		RoomID:   roomID,
		Data: domain.ChatData{
			Message:      message,
			SenderName:   profile.Nickname,
			SenderAvatar: profile.Avatar,
		},
		Timestamp: s.now().UTC(),
	}, "")
	return nil
}

// HandleSendGift broadcasts a gift event to all room members. Non-positive
// counts are clamped to 1.
func (s *liveService) HandleSendGift(ctx context.Context, connID, giftType string, giftCount int) error {
	roomID, ok := s.registry.Room(connID)
	if !ok {
		log.Ctx(ctx).Debug().Str(log.FieldConnID, connID).Msg("gift from unjoined connection dropped")
		return nil
	}

	if giftCount < 1 {
		giftCount = 1
	}

	profile, _ := s.registry.Profile(connID)
	s.engine.BroadcastToRoom(roomID, domain.Event{
		Type:     domain.EventGift,
		SenderID: connID,
		RoomID:   roomID,
		Data: domain.GiftData{
			GiftType:     giftType,
			GiftCount:    giftCount,
			SenderName:   profile.Nickname,
			SenderAvatar: profile.Avatar,
		},
		Timestamp: s.now().UTC(),
	}, "")

	s.persistGift(&domain.GiftRecord{
		RoomID:     roomID,
		SenderID:   connID,
		SenderName: profile.Nickname,
		GiftType:   giftType,
		GiftCount:  giftCount,
	})
	return nil
}

// HandleSendLike increments the room like counter and broadcasts the new
// total to all members.
func (s *liveService) HandleSendLike(ctx context.Context, connID string) error {
	roomID, ok := s.registry.Room(connID)
	if !ok {
		return nil
	}

	total := s.rooms.IncrementLikes(roomID)

	profile, _ := s.registry.Profile(connID)
	s.engine.BroadcastToRoom(roomID, domain.Event{
		Type:     domain.EventLike,
		SenderID: connID,
		RoomID:   roomID,
		Data: domain.LikeData{
			SenderName: profile.Nickname,
			TotalLikes: total,
		},
		Timestamp: s.now().UTC(),
	}, "")
	return nil
}

// HandleHeartbeat always replies directly to the sender, joined or not.
func (s *liveService) HandleHeartbeat(ctx context.Context, connID string) error {
	s.engine.SendTo(connID, domain.HeartbeatAckMessage{
		Type:      domain.MsgTypeHeartbeatAck,
		Timestamp: s.now().UTC(),
	})
	return nil
}

// HandleLeaveRoom removes the connection from its current room. A no-op
// when unjoined.
func (s *liveService) HandleLeaveRoom(ctx context.Context, connID string) error {
	s.leave(ctx, connID)
	return nil
}

// HandleDisconnect runs the leave sequence and then erases the connection.
// No further events from this id are processable afterwards.
func (s *liveService) HandleDisconnect(ctx context.Context, connID string) error {
	s.leave(ctx, connID)
	s.registry.Unregister(connID)
	s.engine.Detach(connID)
	return nil
}

// leave removes the connection from its tracked room, tells the remaining
// members, and broadcasts the updated viewer count. The room itself is
// never deleted here; only the reaper deletes rooms, after the grace
// period.
func (s *liveService) leave(ctx context.Context, connID string) {
	roomID, ok := s.registry.ClearRoom(connID)
	if !ok {
		return
	}

	s.rooms.RemoveMember(roomID, connID)

	profile, _ := s.registry.Profile(connID)
	s.engine.BroadcastToRoom(roomID, domain.Event{
		Type:     domain.EventUserLeave,
		SenderID: connID,
		RoomID:   roomID,
		Data: domain.PresenceData{
			UserInfo: profile,
			Message:  fmt.Sprintf("%s 离开了直播间", profile.Nickname),
		},
		Timestamp: s.now().UTC(),
	}, "")

	s.broadcastViewerCount(ctx, roomID)

	audit.Log(ctx, audit.ActionRoomLeave, connID, roomID, "user left room")
}

func (s *liveService) broadcastViewerCount(ctx context.Context, roomID string) {
	count := s.rooms.MemberCount(roomID)

	s.engine.BroadcastToRoom(roomID, domain.Event{
		Type:      domain.EventViewerCount,
		RoomID:    roomID,
		Data:      domain.ViewerCountData{Count: count},
		Timestamp: s.now().UTC(),
	}, "")

	if s.presence != nil {
		if err := s.presence.UpdateRoom(ctx, roomID, count); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str(log.FieldRoomID, roomID).Msg("presence mirror update failed")
		}
	}
}

func (s *liveService) persistGift(record *domain.GiftRecord) {
	if s.gifts == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.gifts.Create(ctx, record); err != nil {
			log.L().Warn().Err(err).Str(log.FieldRoomID, record.RoomID).Msg("gift record write failed")
		}
	}()
}

func (s *liveService) persistUser(profile domain.UserProfile) {
	if s.users == nil || profile.UserID == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		err := s.users.Upsert(ctx, &domain.UserRecord{
			UserID:     profile.UserID,
			Nickname:   profile.Nickname,
			Avatar:     profile.Avatar,
			LastSeenAt: time.Now(),
		})
		if err != nil {
			log.L().Warn().Err(err).Msg("user record upsert failed")
		}
	}()
}
