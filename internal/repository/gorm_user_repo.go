package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/guifei-live/room-server/internal/domain"
	"github.com/guifei-live/room-server/pkg/log"
)

// GormUserRepository implements UserRepository using GORM.
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Upsert stores the latest profile snapshot for a user.
func (r *GormUserRepository) Upsert(ctx context.Context, record *domain.UserRecord) error {
	l := log.Ctx(ctx)

	model := domain.UserRecordToModel(record)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"nickname", "avatar", "last_seen_at"}),
		}).
		Create(model).Error
	if err != nil {
		l.Error().Err(err).Str("user_id", record.UserID).Msg("failed to upsert user record")
		return err
	}
	return nil
}

// GetByUserID returns the stored snapshot for one user.
func (r *GormUserRepository) GetByUserID(ctx context.Context, userID string) (*domain.UserRecord, error) {
	var model domain.UserRecordModel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		log.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("failed to load user record")
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns user records with pagination.
func (r *GormUserRepository) List(ctx context.Context, page, pageSize int) ([]domain.UserRecord, int64, error) {
	l := log.Ctx(ctx)

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := r.db.WithContext(ctx).Model(&domain.UserRecordModel{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		l.Error().Err(err).Msg("failed to count user records")
		return nil, 0, err
	}

	var models []domain.UserRecordModel
	err := query.Order("last_seen_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		l.Error().Err(err).Msg("failed to list user records")
		return nil, 0, err
	}

	records := make([]domain.UserRecord, len(models))
	for i := range models {
		records[i] = *models[i].ToDomain()
	}
	return records, total, nil
}
