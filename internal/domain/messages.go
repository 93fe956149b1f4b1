package domain

import "time"

// WebSocket message types from client.
const (
	MsgTypeJoinRoom  = "join_room"
	MsgTypeChat      = "chat_message"
	MsgTypeSendGift  = "send_gift"
	MsgTypeSendLike  = "send_like"
	MsgTypeHeartbeat = "heartbeat"
	MsgTypeLeaveRoom = "leave_room"
)

// Broadcast event types to client.
const (
	EventChat        = "chat"
	EventGift        = "gift"
	EventLike        = "like"
	EventUserJoin    = "user_join"
	EventUserLeave   = "user_leave"
	EventViewerCount = "viewer_count"
	EventSystem      = "system"
)

// Direct reply types to client.
const (
	MsgTypeJoinSuccess  = "join_success"
	MsgTypeHeartbeatAck = "heartbeat_ack"
)

// Gift types.
const (
	GiftHeart   = "heart"
	GiftFlower  = "flower"
	GiftDiamond = "diamond"
	GiftCrown   = "crown"
)

// UserProfile is the profile snapshot supplied by the client at join time.
// The server caches it for the lifetime of the connection and never treats
// it as authoritative.
type UserProfile struct {
	UserID   string `json:"userId,omitempty"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar,omitempty"`
}

// BaseMessage is the common envelope of all inbound messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// Client -> Server messages

type JoinRoomMessage struct {
	Type     string      `json:"type"`
	RoomID   string      `json:"roomId"`
	UserInfo UserProfile `json:"userInfo"`
}

type ChatMessage struct {
	Type    string `json:"type"`
	RoomID  string `json:"roomId"` // ignored; tracked room is authoritative
	Message string `json:"message"`
}

type SendGiftMessage struct {
	Type      string `json:"type"`
	RoomID    string `json:"roomId"` // ignored
	GiftType  string `json:"giftType"`
	GiftCount int    `json:"giftCount"`
}

type SendLikeMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"` // ignored
}

// Server -> Client messages

// Event is the broadcast envelope pushed to room members.
type Event struct {
	Type      string      `json:"type"`
	SenderID  string      `json:"senderId,omitempty"`
	RoomID    string      `json:"roomId"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type ChatData struct {
	Message      string `json:"message"`
	SenderName   string `json:"senderName"`
	SenderAvatar string `json:"senderAvatar,omitempty"`
}

type GiftData struct {
	GiftType     string `json:"giftType"`
	GiftCount    int    `json:"giftCount"`
	SenderName   string `json:"senderName"`
	SenderAvatar string `json:"senderAvatar,omitempty"`
}

type LikeData struct {
	SenderName string `json:"senderName"`
	TotalLikes int64  `json:"totalLikes"`
}

type PresenceData struct {
	UserInfo UserProfile `json:"userInfo"`
	Message  string      `json:"message"`
}

type ViewerCountData struct {
	Count int `json:"count"`
}

type JoinSuccessMessage struct {
	Type        string `json:"type"`
	RoomID      string `json:"roomId"`
	ViewerCount int    `json:"viewerCount"`
}

type HeartbeatAckMessage struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}
