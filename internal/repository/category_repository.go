package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CategoryRepository interface {
	// 名前順
	List(ctx context.Context) ([]model.Category, error)
	FindByID(ctx context.Context, id int64) (model.Category, error)
	Create(ctx context.Context, c model.Category) (model.Category, error)
	Update(ctx context.Context, c model.Category) error
	// メニュー項目が残っていればErrInUse
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}
