package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 明細＋現在のメニュー名（削除済みなら空）
type OrderItemView struct {
	model.OrderItem
	MenuItemName *string
}

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]OrderItemView, error)
}
