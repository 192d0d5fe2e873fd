package repository

import (
	"context"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type MenuItemGormRepository struct {
	db *gorm.DB
}

// DI
func NewMenuItemGormRepository(db *gorm.DB) *MenuItemGormRepository {
	return &MenuItemGormRepository{db: db}
}

// カテゴリ/検索/提供中で絞り込み、名前順で返す
func (r *MenuItemGormRepository) List(ctx context.Context, q repo.MenuItemListQuery) ([]model.MenuItem, error) {
	tx := r.db.WithContext(ctx).Model(&model.MenuItem{})

	if q.OnlyAvailable {
		tx = tx.Where("is_available = ?", true)
	}
	if q.CategoryID != nil {
		tx = tx.Where("category_id = ?", *q.CategoryID)
	}

	// q は name / description を対象
	if s := strings.TrimSpace(q.Q); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		tx = tx.Where("LOWER(name) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?", like, like)
	}

	items := []model.MenuItem{}
	if err := tx.Order("name asc").Order("id asc").Find(&items).Error; err != nil {
		return []model.MenuItem{}, err
	}
	return items, nil
}

func (r *MenuItemGormRepository) Latest(ctx context.Context, limit int) ([]model.MenuItem, error) {
	items := []model.MenuItem{}
	err := r.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&items).Error
	if err != nil {
		return []model.MenuItem{}, err
	}
	return items, nil
}

// IDでメニュー項目を取得
func (r *MenuItemGormRepository) FindByID(ctx context.Context, id int64) (model.MenuItem, error) {
	var m model.MenuItem
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return model.MenuItem{}, mapError(err)
	}
	return m, nil
}

func (r *MenuItemGormRepository) FindByIDs(ctx context.Context, ids []int64) ([]model.MenuItem, error) {
	items := []model.MenuItem{}
	if len(ids) == 0 {
		return items, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return []model.MenuItem{}, err
	}
	return items, nil
}

func (r *MenuItemGormRepository) Create(ctx context.Context, m model.MenuItem) (model.MenuItem, error) {
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return model.MenuItem{}, mapError(err)
	}
	return m, nil
}

func (r *MenuItemGormRepository) Update(ctx context.Context, m model.MenuItem) error {
	res := r.db.WithContext(ctx).Model(&model.MenuItem{}).Where("id = ?", m.ID).Updates(map[string]interface{}{
		"name":         m.Name,
		"description":  m.Description,
		"price":        m.Price,
		"image_url":    m.ImageURL,
		"category_id":  m.CategoryID,
		"is_available": m.IsAvailable,
	})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *MenuItemGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.MenuItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *MenuItemGormRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.MenuItem{}).Count(&n).Error
	return n, err
}

func (r *MenuItemGormRepository) CountByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.MenuItem{}).Where("category_id = ?", categoryID).Count(&n).Error
	return n, err
}

var _ repo.MenuItemRepository = (*MenuItemGormRepository)(nil)
