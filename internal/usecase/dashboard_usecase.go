package usecase

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

const recentOrdersLimit = 5

type DashboardUsecase struct {
	tx         repo.TransactionManager
	categories repo.CategoryRepository
}

func NewDashboardUsecase(tx repo.TransactionManager, categories repo.CategoryRepository) *DashboardUsecase {
	return &DashboardUsecase{tx: tx, categories: categories}
}

type DashboardOutput struct {
	MenuItems     int64         `json:"menu_items"`
	Categories    int64         `json:"categories"`
	Orders        int64         `json:"orders"`
	PendingOrders int64         `json:"pending_orders"`
	RecentOrders  []OrderOutput `json:"recent_orders"`
}

// 件数と最近の注文5件
func (u *DashboardUsecase) Summary(ctx context.Context) (DashboardOutput, error) {
	out := DashboardOutput{RecentOrders: []OrderOutput{}}

	cats, err := u.categories.Count(ctx)
	if err != nil {
		return DashboardOutput{}, dbError(err)
	}
	out.Categories = cats

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		if out.MenuItems, err = r.MenuItems().Count(ctx); err != nil {
			return dbError(err)
		}
		if out.Orders, err = r.Orders().Count(ctx, nil); err != nil {
			return dbError(err)
		}
		pending := model.OrderStatusPending
		if out.PendingOrders, err = r.Orders().Count(ctx, &pending); err != nil {
			return dbError(err)
		}

		recent, err := r.Orders().Recent(ctx, recentOrdersLimit)
		if err != nil {
			return dbError(err)
		}
		for _, o := range recent {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return dbError(err)
			}
			out.RecentOrders = append(out.RecentOrders, toOrderOutput(o, items))
		}
		return nil
	})
	if err != nil {
		return DashboardOutput{}, err
	}
	return out, nil
}
