package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type OrderItemGormRepository struct {
	db *gorm.DB
}

func NewOrderItemGormRepository(db *gorm.DB) *OrderItemGormRepository {
	return &OrderItemGormRepository{db: db}
}

func (r *OrderItemGormRepository) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].OrderID = orderID
	}
	if err := r.db.WithContext(ctx).Create(&items).Error; err != nil {
		return err
	}
	return nil
}

type orderItemRow struct {
	model.OrderItem
	MenuItemName *string
}

// メニュー項目が削除済みでも明細は返す（名前はnil）
func (r *OrderItemGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]repo.OrderItemView, error) {
	var rows []orderItemRow
	err := r.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.*, menu_items.name AS menu_item_name").
		Joins("LEFT JOIN menu_items ON menu_items.id = order_items.menu_item_id").
		Where("order_items.order_id = ?", orderID).
		Order("order_items.id asc").
		Scan(&rows).Error
	if err != nil {
		return []repo.OrderItemView{}, err
	}

	out := make([]repo.OrderItemView, 0, len(rows))
	for _, row := range rows {
		out = append(out, repo.OrderItemView{OrderItem: row.OrderItem, MenuItemName: row.MenuItemName})
	}
	return out, nil
}

var _ repo.OrderItemRepository = (*OrderItemGormRepository)(nil)
