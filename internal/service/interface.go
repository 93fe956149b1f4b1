package service

import (
	"context"

	"github.com/guifei-live/room-server/internal/domain"
)

// LiveService orchestrates connection lifecycle and event fan-out for live
// rooms. Events that fail preconditions (not joined, unknown connection)
// are dropped silently; no method returns an error the caller must act on
// beyond logging.
type LiveService interface {
	HandleJoinRoom(ctx context.Context, connID, roomID string, profile domain.UserProfile) error
	HandleChatMessage(ctx context.Context, connID, message string) error
	HandleSendGift(ctx context.Context, connID, giftType string, giftCount int) error
	HandleSendLike(ctx context.Context, connID string) error
	HandleHeartbeat(ctx context.Context, connID string) error
	HandleLeaveRoom(ctx context.Context, connID string) error
	HandleDisconnect(ctx context.Context, connID string) error
}
