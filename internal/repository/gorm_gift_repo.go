package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/guifei-live/room-server/internal/domain"
	"github.com/guifei-live/room-server/pkg/log"
)

// GormGiftRepository implements GiftRepository using GORM.
type GormGiftRepository struct {
	db *gorm.DB
}

func NewGormGiftRepository(db *gorm.DB) *GormGiftRepository {
	return &GormGiftRepository{db: db}
}

// Create records an accepted gift event.
func (r *GormGiftRepository) Create(ctx context.Context, record *domain.GiftRecord) error {
	l := log.Ctx(ctx)

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	model := domain.GiftRecordToModel(record)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, record.RoomID).Msg("failed to record gift")
		return err
	}
	return nil
}

// ListByRoom returns the most recent gifts for a room.
func (r *GormGiftRepository) ListByRoom(ctx context.Context, roomID string, limit int) ([]domain.GiftRecord, error) {
	l := log.Ctx(ctx)

	if limit < 1 || limit > 200 {
		limit = 50
	}

	var models []domain.GiftRecordModel
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to list gifts")
		return nil, err
	}

	records := make([]domain.GiftRecord, len(models))
	for i := range models {
		records[i] = *models[i].ToDomain()
	}
	return records, nil
}
