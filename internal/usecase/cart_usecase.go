package usecase

import (
	"context"
	"net/http"

	"storefront/internal/cart"
	repo "storefront/internal/repository"
)

// セッションIDごとの保存先（Redis / DB）
type CartPersisters interface {
	For(sessionID string) cart.Persister
}

// 同じセッションの他タブへの変更通知
type CartNotifier interface {
	Publish(ctx context.Context, sessionID string, snap cart.Snapshot) error
	Subscribe(ctx context.Context, sessionID string) (<-chan cart.Snapshot, func())
}

type discardLogger struct{}

func (discardLogger) Warnf(string, ...interface{}) {}

// CartUsecase は /cart の業務ロジック。
// カートの中身はセッション単位の cart.Store が持つ。
type CartUsecase struct {
	persisters CartPersisters
	menuItems  repo.MenuItemRepository
	notifier   CartNotifier
	logger     cart.Logger
	locks      *sessionLocks
}

func NewCartUsecase(
	persisters CartPersisters,
	menuItems repo.MenuItemRepository,
	notifier CartNotifier,
	logger cart.Logger,
) *CartUsecase {
	if logger == nil {
		logger = discardLogger{}
	}
	return &CartUsecase{
		persisters: persisters,
		menuItems:  menuItems,
		notifier:   notifier,
		logger:     logger,
		locks:      newSessionLocks(),
	}
}

// withCart はセッションのロックを取ってカートを読み込み、fn の間だけ保持する。
// 変更は通知先へ流れる。
func (u *CartUsecase) withCart(ctx context.Context, sessionID string, fn func(store *cart.Store) error) error {
	if sessionID == "" {
		return NewHTTPError(http.StatusBadRequest, "no cart session")
	}

	unlock, err := u.locks.acquire(ctx, sessionID)
	if err != nil {
		return NewHTTPError(http.StatusServiceUnavailable, "cart busy")
	}
	defer unlock()

	store := cart.Open(ctx, u.persisters.For(sessionID), u.logger)
	cancel := store.Subscribe(func(snap cart.Snapshot) {
		if u.notifier == nil {
			return
		}
		if err := u.notifier.Publish(ctx, sessionID, snap); err != nil {
			u.logger.Warnf("cart: publish failed: %v", err)
		}
	})
	defer cancel()

	return fn(store)
}

func (u *CartUsecase) mutate(ctx context.Context, sessionID string, fn func(store *cart.Store) cart.Snapshot) (cart.Snapshot, error) {
	var snap cart.Snapshot
	err := u.withCart(ctx, sessionID, func(store *cart.Store) error {
		snap = fn(store)
		return nil
	})
	return snap, err
}

func (u *CartUsecase) GetCart(ctx context.Context, sessionID string) (cart.Snapshot, error) {
	return u.mutate(ctx, sessionID, func(store *cart.Store) cart.Snapshot {
		return store.Snapshot()
	})
}

// AddItem は提供中のメニュー項目だけ受け付ける（同じ項目は数量+1）
func (u *CartUsecase) AddItem(ctx context.Context, sessionID string, menuItemID int64) (cart.Snapshot, error) {
	if menuItemID <= 0 {
		return cart.Snapshot{}, NewHTTPError(http.StatusBadRequest, "invalid menu_item_id")
	}

	m, err := u.menuItems.FindByID(ctx, menuItemID)
	if err == repo.ErrNotFound || (err == nil && !m.IsAvailable) {
		return cart.Snapshot{}, NewHTTPError(http.StatusBadRequest, "menu item not available")
	}
	if err != nil {
		return cart.Snapshot{}, dbError(err)
	}

	item := cart.Item{ID: m.ID, Name: m.Name, Price: m.Price}
	if m.ImageURL != nil {
		item.ImageURL = *m.ImageURL
	}
	return u.mutate(ctx, sessionID, func(store *cart.Store) cart.Snapshot {
		return store.AddItem(ctx, item)
	})
}

// 1未満は削除
func (u *CartUsecase) UpdateQuantity(ctx context.Context, sessionID string, menuItemID int64, quantity int64) (cart.Snapshot, error) {
	if menuItemID <= 0 {
		return cart.Snapshot{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return u.mutate(ctx, sessionID, func(store *cart.Store) cart.Snapshot {
		return store.UpdateQuantity(ctx, menuItemID, quantity)
	})
}

// 数量1なら削除
func (u *CartUsecase) Decrement(ctx context.Context, sessionID string, menuItemID int64) (cart.Snapshot, error) {
	if menuItemID <= 0 {
		return cart.Snapshot{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return u.mutate(ctx, sessionID, func(store *cart.Store) cart.Snapshot {
		return store.Decrement(ctx, menuItemID)
	})
}

func (u *CartUsecase) RemoveItem(ctx context.Context, sessionID string, menuItemID int64) (cart.Snapshot, error) {
	if menuItemID <= 0 {
		return cart.Snapshot{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return u.mutate(ctx, sessionID, func(store *cart.Store) cart.Snapshot {
		return store.RemoveItem(ctx, menuItemID)
	})
}

func (u *CartUsecase) Clear(ctx context.Context, sessionID string) (cart.Snapshot, error) {
	return u.mutate(ctx, sessionID, func(store *cart.Store) cart.Snapshot {
		return store.Clear(ctx)
	})
}

// Watch は他タブでの変更を受け取る
func (u *CartUsecase) Watch(ctx context.Context, sessionID string) (<-chan cart.Snapshot, func(), error) {
	if sessionID == "" {
		return nil, nil, NewHTTPError(http.StatusBadRequest, "no cart session")
	}
	if u.notifier == nil {
		return nil, nil, NewHTTPError(http.StatusServiceUnavailable, "cart sync not available")
	}
	ch, cancel := u.notifier.Subscribe(ctx, sessionID)
	return ch, cancel, nil
}
