package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 一覧検索
type MenuItemListQuery struct {
	CategoryID    *int64
	Q             string
	OnlyAvailable bool
}

// メニュー項目の保存・取得の約束
type MenuItemRepository interface {
	List(ctx context.Context, q MenuItemListQuery) ([]model.MenuItem, error)
	// 新しい順（id desc）
	Latest(ctx context.Context, limit int) ([]model.MenuItem, error)
	FindByID(ctx context.Context, id int64) (model.MenuItem, error)
	// 削除済みのIDは結果に含まれない
	FindByIDs(ctx context.Context, ids []int64) ([]model.MenuItem, error)

	Create(ctx context.Context, m model.MenuItem) (model.MenuItem, error)
	Update(ctx context.Context, m model.MenuItem) error
	Delete(ctx context.Context, id int64) error

	Count(ctx context.Context) (int64, error)
	CountByCategory(ctx context.Context, categoryID int64) (int64, error)
}
