package usecase

import (
	"context"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

const (
	defaultFeaturedLimit = 4
	maxQueryLength       = 100
)

// 公開メニューと管理画面のメニュー管理
type MenuUsecase struct {
	categories repo.CategoryRepository
	menuItems  repo.MenuItemRepository
	auditRepo  repo.AuditLogRepository
	images     ImageStore
}

// DI（imagesはnilなら画像アップロード不可）
func NewMenuUsecase(
	categories repo.CategoryRepository,
	menuItems repo.MenuItemRepository,
	auditRepo repo.AuditLogRepository,
	images ImageStore,
) *MenuUsecase {
	return &MenuUsecase{
		categories: categories,
		menuItems:  menuItems,
		auditRepo:  auditRepo,
		images:     images,
	}
}

// GET /menu の入力
type ListMenuInput struct {
	CategoryID *int64
	Q          string
}

func (u *MenuUsecase) ListCategories(ctx context.Context) ([]model.Category, error) {
	cats, err := u.categories.List(ctx)
	if err != nil {
		return []model.Category{}, dbError(err)
	}
	return cats, nil
}

// 提供中のものだけ、名前順
func (u *MenuUsecase) ListMenu(ctx context.Context, in ListMenuInput) ([]model.MenuItem, error) {
	return u.list(ctx, in, true)
}

func (u *MenuUsecase) list(ctx context.Context, in ListMenuInput, onlyAvailable bool) ([]model.MenuItem, error) {
	if len(in.Q) > maxQueryLength {
		return []model.MenuItem{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	if in.CategoryID != nil && *in.CategoryID <= 0 {
		return []model.MenuItem{}, NewHTTPError(http.StatusBadRequest, "invalid category_id")
	}

	items, err := u.menuItems.List(ctx, repo.MenuItemListQuery{
		CategoryID:    in.CategoryID,
		Q:             strings.TrimSpace(in.Q),
		OnlyAvailable: onlyAvailable,
	})
	if err != nil {
		return []model.MenuItem{}, dbError(err)
	}
	return items, nil
}

// トップページ用。新しく追加された順。
func (u *MenuUsecase) Featured(ctx context.Context, limit int) ([]model.MenuItem, error) {
	if limit == 0 {
		limit = defaultFeaturedLimit
	}
	if limit < 1 || limit > 20 {
		return []model.MenuItem{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	items, err := u.menuItems.Latest(ctx, limit)
	if err != nil {
		return []model.MenuItem{}, dbError(err)
	}
	return items, nil
}

// 提供停止中は見せない
func (u *MenuUsecase) GetMenuItem(ctx context.Context, id int64) (model.MenuItem, error) {
	if id <= 0 {
		return model.MenuItem{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	m, err := u.menuItems.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return model.MenuItem{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.MenuItem{}, dbError(err)
	}
	if !m.IsAvailable {
		return model.MenuItem{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return m, nil
}
