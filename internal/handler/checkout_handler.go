package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

const idempotencyKeyHeader = "X-Idempotency-Key"

// POST /checkout
type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

type CheckoutRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Phone   string `json:"phone" validate:"required,max=50"`
	Address string `json:"address" validate:"max=1000"`
	Notes   string `json:"notes" validate:"max=1000"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, store sessions.Store) {
	e.POST("/checkout", h.placeOrder, middleware.CartSession(store))
}

func (h *CheckoutHandler) placeOrder(c echo.Context) error {
	sid, ok := getCartSessionID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no cart session"})
	}

	var req CheckoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.PlaceOrder(c.Request().Context(), sid, usecase.PlaceOrderInput{
		Name:           req.Name,
		Phone:          req.Phone,
		Address:        req.Address,
		Notes:          req.Notes,
		IdempotencyKey: c.Request().Header.Get(idempotencyKeyHeader),
	})
	if err != nil {
		return writeError(c, err)
	}

	status := http.StatusCreated
	if out.Replayed {
		status = http.StatusOK
	}
	return c.JSON(status, out)
}
