package usecase

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

const maxImageSize = 5 << 20

var maxPrice = decimal.NewFromInt(100000000)

// 画像の保存先（MinIO）
type ImageStore interface {
	Put(ctx context.Context, filename string, contentType string, r io.Reader, size int64) (string, error)
}

// 作成・更新の入力
type MenuItemInput struct {
	Name        string
	Description *string
	Price       decimal.Decimal
	ImageURL    *string
	CategoryID  int64
	IsAvailable bool
}

type UploadImageInput struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// 提供停止中も含めて返す
func (u *MenuUsecase) AdminListMenuItems(ctx context.Context, in ListMenuInput) ([]model.MenuItem, error) {
	return u.list(ctx, in, false)
}

func (u *MenuUsecase) AdminGetMenuItem(ctx context.Context, id int64) (model.MenuItem, error) {
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
	return m, nil
}

func (u *MenuUsecase) AdminCreateMenuItem(ctx context.Context, adminUserID int64, in MenuItemInput) (model.MenuItem, error) {
	if adminUserID <= 0 {
		return model.MenuItem{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	m, err := u.validateMenuItem(ctx, in)
	if err != nil {
		return model.MenuItem{}, err
	}

	created, err := u.menuItems.Create(ctx, m)
	if err != nil {
		return model.MenuItem{}, dbError(err)
	}

	if err := u.audit(ctx, adminUserID, model.AuditActionCreateMenuItem, model.AuditResourceMenuItem, created.ID, nil, created); err != nil {
		return model.MenuItem{}, err
	}
	return created, nil
}

func (u *MenuUsecase) AdminUpdateMenuItem(ctx context.Context, adminUserID int64, id int64, in MenuItemInput) (model.MenuItem, error) {
	if adminUserID <= 0 {
		return model.MenuItem{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if id <= 0 {
		return model.MenuItem{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	m, err := u.validateMenuItem(ctx, in)
	if err != nil {
		return model.MenuItem{}, err
	}

	before, err := u.menuItems.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return model.MenuItem{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.MenuItem{}, dbError(err)
	}

	m.ID = id
	m.CreatedAt = before.CreatedAt
	if err := u.menuItems.Update(ctx, m); err != nil {
		if err == repo.ErrNotFound {
			return model.MenuItem{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return model.MenuItem{}, dbError(err)
	}

	if err := u.audit(ctx, adminUserID, model.AuditActionUpdateMenuItem, model.AuditResourceMenuItem, id, before, m); err != nil {
		return model.MenuItem{}, err
	}
	return m, nil
}

func (u *MenuUsecase) AdminDeleteMenuItem(ctx context.Context, adminUserID int64, id int64) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	before, err := u.menuItems.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return dbError(err)
	}

	if err := u.menuItems.Delete(ctx, id); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return dbError(err)
	}

	return u.audit(ctx, adminUserID, model.AuditActionDeleteMenuItem, model.AuditResourceMenuItem, id, before, nil)
}

// 画像を保存して image_url に入れるURLを返す
func (u *MenuUsecase) UploadImage(ctx context.Context, adminUserID int64, in UploadImageInput) (string, error) {
	if adminUserID <= 0 {
		return "", NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if u.images == nil {
		return "", NewHTTPError(http.StatusServiceUnavailable, "image storage not configured")
	}
	if !strings.HasPrefix(in.ContentType, "image/") {
		return "", NewHTTPError(http.StatusBadRequest, "image required")
	}
	if in.Size <= 0 || in.Size > maxImageSize {
		return "", NewHTTPError(http.StatusBadRequest, "invalid image size")
	}

	url, err := u.images.Put(ctx, in.Filename, in.ContentType, in.Body, in.Size)
	if err != nil {
		return "", NewHTTPError(http.StatusBadGateway, "upload failed")
	}
	return url, nil
}

func (u *MenuUsecase) AdminCreateCategory(ctx context.Context, adminUserID int64, name string) (model.Category, error) {
	if adminUserID <= 0 {
		return model.Category{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "name required")
	}

	c, err := u.categories.Create(ctx, model.Category{Name: name})
	if err == repo.ErrConflict {
		return model.Category{}, NewHTTPError(http.StatusConflict, "category already exists")
	}
	if err != nil {
		return model.Category{}, dbError(err)
	}

	if err := u.audit(ctx, adminUserID, model.AuditActionCreateCategory, model.AuditResourceCategory, c.ID, nil, c); err != nil {
		return model.Category{}, err
	}
	return c, nil
}

func (u *MenuUsecase) AdminUpdateCategory(ctx context.Context, adminUserID int64, id int64, name string) (model.Category, error) {
	if adminUserID <= 0 {
		return model.Category{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if id <= 0 {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "name required")
	}

	before, err := u.categories.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return model.Category{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Category{}, dbError(err)
	}

	after := before
	after.Name = name
	switch err := u.categories.Update(ctx, after); err {
	case nil:
	case repo.ErrNotFound:
		return model.Category{}, NewHTTPError(http.StatusNotFound, "not found")
	case repo.ErrConflict:
		return model.Category{}, NewHTTPError(http.StatusConflict, "category already exists")
	default:
		return model.Category{}, dbError(err)
	}

	if err := u.audit(ctx, adminUserID, model.AuditActionUpdateCategory, model.AuditResourceCategory, id, before, after); err != nil {
		return model.Category{}, err
	}
	return after, nil
}

// メニュー項目が残っているカテゴリは消せない（409）
func (u *MenuUsecase) AdminDeleteCategory(ctx context.Context, adminUserID int64, id int64) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	before, err := u.categories.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return dbError(err)
	}

	switch err := u.categories.Delete(ctx, id); err {
	case nil:
	case repo.ErrNotFound:
		return NewHTTPError(http.StatusNotFound, "not found")
	case repo.ErrInUse:
		return NewHTTPError(http.StatusConflict, "category has menu items")
	default:
		return dbError(err)
	}

	return u.audit(ctx, adminUserID, model.AuditActionDeleteCategory, model.AuditResourceCategory, id, before, nil)
}

func (u *MenuUsecase) validateMenuItem(ctx context.Context, in MenuItemInput) (model.MenuItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.MenuItem{}, NewHTTPError(http.StatusBadRequest, "name required")
	}
	if !in.Price.IsPositive() {
		return model.MenuItem{}, NewHTTPError(http.StatusBadRequest, "price must be > 0")
	}
	if in.Price.GreaterThanOrEqual(maxPrice) {
		return model.MenuItem{}, NewHTTPError(http.StatusBadRequest, "price too large")
	}
	if in.CategoryID <= 0 {
		return model.MenuItem{}, NewHTTPError(http.StatusBadRequest, "category required")
	}

	if _, err := u.categories.FindByID(ctx, in.CategoryID); err != nil {
		if err == repo.ErrNotFound {
			return model.MenuItem{}, NewHTTPError(http.StatusBadRequest, "category not found")
		}
		return model.MenuItem{}, dbError(err)
	}

	return model.MenuItem{
		Name:        name,
		Description: trimmedOrNil(in.Description),
		Price:       in.Price.Round(2),
		ImageURL:    trimmedOrNil(in.ImageURL),
		CategoryID:  in.CategoryID,
		IsAvailable: in.IsAvailable,
	}, nil
}

// 「誰が」「何を」「どの対象に」「どう変えたか」を残す
func (u *MenuUsecase) audit(ctx context.Context, actor int64, action model.AuditAction, resource model.AuditResourceType, id int64, before, after interface{}) error {
	log := model.AuditLog{
		ActorUserID:  actor,
		Action:       action,
		ResourceType: resource,
		ResourceID:   id,
		CreatedAt:    time.Now(),
	}
	if before != nil {
		log.BeforeJSON = toJSON(before)
	}
	if after != nil {
		log.AfterJSON = toJSON(after)
	}
	if err := u.auditRepo.Create(ctx, log); err != nil {
		return dbError(err)
	}
	return nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
