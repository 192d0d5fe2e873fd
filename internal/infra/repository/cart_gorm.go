package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartSnapshotGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartSnapshotGormRepository(db *gorm.DB) *CartSnapshotGormRepository {
	return &CartSnapshotGormRepository{db: db}
}

// 期限内のカートを取得
func (r *CartSnapshotGormRepository) Find(ctx context.Context, sessionID string, now time.Time) (model.CartSnapshot, error) {
	var s model.CartSnapshot
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND expires_at > ?", sessionID, now).
		First(&s).Error
	if err != nil {
		return model.CartSnapshot{}, mapError(err)
	}
	return s, nil
}

// あれば上書き、無ければ作成
func (r *CartSnapshotGormRepository) Upsert(ctx context.Context, snap model.CartSnapshot) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "expires_at", "updated_at"}),
	}).Create(&snap).Error
}

// 期限切れを掃除する
func (r *CartSnapshotGormRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&model.CartSnapshot{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

var _ repo.CartSnapshotRepository = (*CartSnapshotGormRepository)(nil)
