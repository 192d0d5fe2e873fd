package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /menu と /categories の公開API
type MenuHandler struct {
	uc *usecase.MenuUsecase
}

func NewMenuHandler(uc *usecase.MenuUsecase) *MenuHandler {
	return &MenuHandler{uc: uc}
}

func (h *MenuHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/categories", h.listCategories)
	e.GET("/menu", h.listMenu)
	e.GET("/menu/featured", h.featured)
	e.GET("/menu/:id", h.getMenuItem)
}

func (h *MenuHandler) listCategories(c echo.Context) error {
	out, err := h.uc.ListCategories(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// GET /menu?category_id=&q=
func (h *MenuHandler) listMenu(c echo.Context) error {
	in, err := parseListMenuQuery(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ListMenu(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *MenuHandler) featured(c echo.Context) error {
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		limit = l
	}

	out, err := h.uc.Featured(c.Request().Context(), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *MenuHandler) getMenuItem(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.GetMenuItem(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func parseListMenuQuery(c echo.Context) (usecase.ListMenuInput, error) {
	in := usecase.ListMenuInput{Q: c.QueryParam("q")}
	if v := c.QueryParam("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return usecase.ListMenuInput{}, usecase.NewHTTPError(http.StatusBadRequest, "invalid category_id")
		}
		in.CategoryID = &id
	}
	return in, nil
}
