package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nftlend-backend/internal/domain/fee"
)

type SettingsRepository struct{ db *gorm.DB }

func NewSettingsRepository(db *gorm.DB) *SettingsRepository { return &SettingsRepository{db: db} }

func (r *SettingsRepository) Get(ctx context.Context) (*fee.Settings, error) {
	return r.first(r.db.WithContext(ctx))
}

func (r *SettingsRepository) GetForUpdate(ctx context.Context) (*fee.Settings, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}))
}

func (r *SettingsRepository) Save(ctx context.Context, s *fee.Settings) error {
	return r.db.WithContext(ctx).Save(s).Error
}

// EnsureDefaults seeds the singleton row once; later calls keep what is stored.
func (r *SettingsRepository) EnsureDefaults(ctx context.Context, defaults *fee.Settings) (*fee.Settings, error) {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(defaults).Error; err != nil {
		return nil, err
	}
	return r.Get(ctx)
}

func (r *SettingsRepository) first(q *gorm.DB) (*fee.Settings, error) {
	var out fee.Settings
	err := q.Order("id").First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fee.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
