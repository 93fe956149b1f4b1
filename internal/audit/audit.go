package audit

import (
	"context"

	"github.com/guifei-live/room-server/pkg/log"
)

// Audit actions for the room server.
const (
	ActionRoomCreate = "room.create"
	ActionRoomJoin   = "room.join"
	ActionRoomLeave  = "room.leave"
	ActionRoomReap   = "room.reap"
)

const fieldAction = "action"

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action, connID, roomID, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(fieldAction, action).
		Str(log.FieldConnID, connID).
		Str(log.FieldRoomID, roomID).
		Msg(msg)
}
