package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/guifei-live/room-server/internal/config"
	"github.com/guifei-live/room-server/internal/domain"
	"github.com/guifei-live/room-server/internal/hub"
	"github.com/guifei-live/room-server/internal/service"
	"github.com/guifei-live/room-server/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades connections and routes inbound events to the live
// service. Malformed events and events from unjoined senders are dropped
// silently; broadcast targets always come from the sender's tracked room,
// never from a room id in the payload.
type WSHandler struct {
	engine  *hub.Engine
	service service.LiveService
	wsCfg   config.WebSocketConfig
}

func NewWSHandler(engine *hub.Engine, svc service.LiveService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		engine:  engine,
		service: svc,
		wsCfg:   wsCfg,
	}
}

func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Ctx(c.Request.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	connID := uuid.New().String()
	client := hub.NewClient(connID, conn, h.wsCfg)
	h.engine.Attach(client)

	l := log.L().With().Str(log.FieldConnID, connID).Logger()
	l.Info().Msg("connection established")

	go client.WritePump()
	go client.ReadPump(
		func(message []byte) {
			h.dispatch(log.WithLogger(context.Background(), l), connID, message)
		},
		func() {
			h.service.HandleDisconnect(log.WithLogger(context.Background(), l), connID)
			client.Close()
			l.Info().Msg("connection closed")
		},
	)
}

// dispatch decodes one inbound event and invokes its handler. One dispatch
// runs at a time per connection, so per-connection sequences like join are
// naturally serialized.
func (h *WSHandler) dispatch(ctx context.Context, connID string, message []byte) {
	l := log.Ctx(ctx)

	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		l.Debug().Err(err).Msg("malformed event dropped")
		return
	}

	switch base.Type {
	case domain.MsgTypeJoinRoom:
		var msg domain.JoinRoomMessage
		if err := json.Unmarshal(message, &msg); err != nil || msg.RoomID == "" {
			l.Debug().Str(log.FieldEvent, base.Type).Msg("malformed join_room dropped")
			return
		}
		h.service.HandleJoinRoom(ctx, connID, msg.RoomID, msg.UserInfo)

	case domain.MsgTypeChat:
		var msg domain.ChatMessage
		if err := json.Unmarshal(message, &msg); err != nil || msg.Message == "" {
			l.Debug().Str(log.FieldEvent, base.Type).Msg("malformed chat_message dropped")
			return
		}
		h.service.HandleChatMessage(ctx, connID, msg.Message)

	case domain.MsgTypeSendGift:
		var msg domain.SendGiftMessage
		if err := json.Unmarshal(message, &msg); err != nil || msg.GiftType == "" {
			l.Debug().Str(log.FieldEvent, base.Type).Msg("malformed send_gift dropped")
			return
		}
		h.service.HandleSendGift(ctx, connID, msg.GiftType, msg.GiftCount)

	case domain.MsgTypeSendLike:
		h.service.HandleSendLike(ctx, connID)

	case domain.MsgTypeHeartbeat:
		h.service.HandleHeartbeat(ctx, connID)

	case domain.MsgTypeLeaveRoom:
		h.service.HandleLeaveRoom(ctx, connID)

	default:
		l.Debug().Str(log.FieldEvent, base.Type).Msg("unknown event type dropped")
	}
}

func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.HandleWebSocket)
}
