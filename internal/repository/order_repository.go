package repository

import (
	"context"

	"storefront/internal/domain/model"
)

const (
	DefaultAdminOrderLimit = 50
	MaxAdminOrderLimit     = 100
)

// AdminOrderListFilter は管理画面の注文一覧の条件。Page は1始まり。
type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	// 名前（大文字小文字無視）・電話番号・注文IDのどれかに一致
	Q string
}

// Window は範囲外の page/limit を丸めて LIMIT/OFFSET にする
func (f AdminOrderListFilter) Window() (limit int, offset int) {
	page, limit := f.Page, f.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > MaxAdminOrderLimit {
		limit = DefaultAdminOrderLimit
	}
	return limit, (page - 1) * limit
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	// pending の注文だけ変える。無ければ ErrNotFound、もう pending でなければ ErrConflict
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error

	//検索（同じセッションの同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, sessionID, key string) (model.Order, bool, error)
	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
	Recent(ctx context.Context, limit int) ([]model.Order, error)
	Count(ctx context.Context, status *model.OrderStatus) (int64, error)
}
