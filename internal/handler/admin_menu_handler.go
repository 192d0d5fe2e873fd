package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// MenuItemRequest は作成・更新の共通入力
type MenuItemRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    *string         `json:"image_url"`
	CategoryID  int64           `json:"category_id" validate:"required,gt=0"`
	IsAvailable *bool           `json:"is_available"`
}

type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type ImageUploadResponse struct {
	URL string `json:"url"`
}

// /admin/menu-items, /admin/categories, /admin/images をまとめる
type AdminMenuHandler struct {
	uc *usecase.MenuUsecase
}

// DI
func NewAdminMenuHandler(uc *usecase.MenuUsecase) *AdminMenuHandler {
	return &AdminMenuHandler{uc: uc}
}

// adminを登録
func (h *AdminMenuHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := e.Group("/admin")

	admin.Use(middleware.AdminOnly(cfg, userRepo)...)

	admin.GET("/menu-items", h.listMenuItems)
	admin.GET("/menu-items/:id", h.getMenuItem)
	admin.POST("/menu-items", h.createMenuItem)
	admin.PUT("/menu-items/:id", h.updateMenuItem)
	admin.DELETE("/menu-items/:id", h.deleteMenuItem)

	admin.GET("/categories", h.listCategories)
	admin.POST("/categories", h.createCategory)
	admin.PUT("/categories/:id", h.updateCategory)
	admin.DELETE("/categories/:id", h.deleteCategory)

	admin.POST("/images", h.uploadImage)
}

func (h *AdminMenuHandler) listMenuItems(c echo.Context) error {
	in, err := parseListMenuQuery(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.AdminListMenuItems(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminMenuHandler) getMenuItem(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.AdminGetMenuItem(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminMenuHandler) createMenuItem(c echo.Context) error {
	var req MenuItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.AdminCreateMenuItem(c.Request().Context(), adminID, req.toInput())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AdminMenuHandler) updateMenuItem(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req MenuItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.AdminUpdateMenuItem(c.Request().Context(), adminID, id, req.toInput())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminMenuHandler) deleteMenuItem(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.AdminDeleteMenuItem(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *AdminMenuHandler) listCategories(c echo.Context) error {
	out, err := h.uc.ListCategories(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminMenuHandler) createCategory(c echo.Context) error {
	var req CategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.AdminCreateCategory(c.Request().Context(), adminID, req.Name)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AdminMenuHandler) updateCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req CategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.AdminUpdateCategory(c.Request().Context(), adminID, id, req.Name)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminMenuHandler) deleteCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.AdminDeleteCategory(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

// multipart の "image" を受け取る
func (h *AdminMenuHandler) uploadImage(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "image required"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "image required"})
	}
	defer f.Close()

	url, err := h.uc.UploadImage(c.Request().Context(), adminID, usecase.UploadImageInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, ImageUploadResponse{URL: url})
}

// is_available は省略時 true
func (r MenuItemRequest) toInput() usecase.MenuItemInput {
	available := true
	if r.IsAvailable != nil {
		available = *r.IsAvailable
	}
	return usecase.MenuItemInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		ImageURL:    r.ImageURL,
		CategoryID:  r.CategoryID,
		IsAvailable: available,
	}
}
