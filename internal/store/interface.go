package store

import "context"

// PresenceMirror mirrors room viewer counts to an external store so
// dashboards can watch them without hitting the server. All calls are
// best-effort; the live path never depends on them.
type PresenceMirror interface {
	UpdateRoom(ctx context.Context, roomID string, viewerCount int) error
	RemoveRoom(ctx context.Context, roomID string) error
	Close() error
}
