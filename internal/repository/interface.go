package repository

import (
	"context"
	"errors"

	"github.com/guifei-live/room-server/internal/domain"
)

var ErrNotFound = errors.New("record not found")

// GiftRepository persists the gift ledger.
type GiftRepository interface {
	Create(ctx context.Context, record *domain.GiftRecord) error
	ListByRoom(ctx context.Context, roomID string, limit int) ([]domain.GiftRecord, error)
}

// UserRepository persists join-time profile snapshots for the admin surface.
// GetByUserID returns ErrNotFound when no snapshot exists for the user.
type UserRepository interface {
	Upsert(ctx context.Context, record *domain.UserRecord) error
	GetByUserID(ctx context.Context, userID string) (*domain.UserRecord, error)
	List(ctx context.Context, page, pageSize int) ([]domain.UserRecord, int64, error)
}
