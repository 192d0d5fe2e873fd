package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed cancelled"`
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := e.Group("/admin")
	admin.Use(middleware.AdminOnly(cfg, userRepo)...)

	admin.GET("/orders", h.list)
	admin.GET("/orders/:id", h.detail)
	admin.PUT("/orders/:id/status", h.updateStatus)
	admin.GET("/orders/:id/whatsapp", h.whatsApp)
	admin.GET("/orders/:id/whatsapp.png", h.whatsAppQR)
}

// GET /admin/orders?status=&q=&page=&limit=
func (h *AdminOrderHandler) list(c echo.Context) error {
	f := repository.AdminOrderListFilter{
		Status: c.QueryParam("status"),
		Q:      c.QueryParam("q"),
	}
	var err error
	if f.Page, err = queryInt(c, "page", 1); err != nil {
		return writeError(c, err)
	}
	if f.Limit, err = queryInt(c, "limit", 20); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) detail(c echo.Context) error {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Detail(c.Request().Context(), orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// PUT /admin/orders/:id/status
func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req OrderStatusUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.UpdateStatus(c.Request().Context(), adminID, orderID, usecase.AdminUpdateOrderStatusInput{Status: req.Status})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) whatsApp(c echo.Context) error {
	out, err := h.handoff(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// QRをPNGで返す（<img src>用）
func (h *AdminOrderHandler) whatsAppQR(c echo.Context) error {
	out, err := h.handoff(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.Blob(http.StatusOK, "image/png", out.PNG)
}

func (h *AdminOrderHandler) handoff(c echo.Context) (usecase.OrderWhatsAppOutput, error) {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return usecase.OrderWhatsAppOutput{}, err
	}
	return h.uc.WhatsApp(c.Request().Context(), orderID)
}
