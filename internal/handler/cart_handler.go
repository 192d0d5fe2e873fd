package handler

import (
	"net/http"
	"time"

	"storefront/internal/cart"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/gorilla/sessions"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// /cartのHTTP
type CartHandler struct {
	uc       *usecase.CartUsecase
	upgrader websocket.Upgrader
}

// DI
func NewCartHandler(uc *usecase.CartUsecase, allowedOrigin string) *CartHandler {
	return &CartHandler{uc: uc, upgrader: newUpgrader(allowedOrigin)}
}

type AddCartItemRequest struct {
	MenuItemID int64 `json:"menu_item_id" validate:"required,gt=0"`
}

// 1未満は削除になるので下限は付けない
type UpdateCartItemRequest struct {
	Quantity *int64 `json:"quantity" validate:"required"`
}

// WebSocketで送る形
type cartMessage struct {
	Type string        `json:"type"`
	Cart cart.Snapshot `json:"cart"`
}

// /cart 以下を登録（ログイン不要、Cookieのセッション単位）
func (h *CartHandler) RegisterRoutes(e *echo.Echo, store sessions.Store) {
	g := e.Group("/cart")
	g.Use(middleware.CartSession(store))

	g.GET("", h.getCart)
	g.DELETE("", h.clear)
	g.POST("/items", h.addItem)
	g.PATCH("/items/:id", h.updateQuantity)
	g.POST("/items/:id/decrement", h.decrement)
	g.DELETE("/items/:id", h.removeItem)
	g.GET("/ws", h.stream)
}

func (h *CartHandler) getCart(c echo.Context) error {
	sid, ok := getCartSessionID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no cart session"})
	}

	out, err := h.uc.GetCart(c.Request().Context(), sid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addItem(c echo.Context) error {
	sid, ok := getCartSessionID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no cart session"})
	}

	var req AddCartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.AddItem(c.Request().Context(), sid, req.MenuItemID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) updateQuantity(c echo.Context) error {
	sid, ok := getCartSessionID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no cart session"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req UpdateCartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}
	if req.Quantity == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "quantity required"})
	}

	out, err := h.uc.UpdateQuantity(c.Request().Context(), sid, id, *req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) decrement(c echo.Context) error {
	sid, ok := getCartSessionID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no cart session"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Decrement(c.Request().Context(), sid, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) removeItem(c echo.Context) error {
	sid, ok := getCartSessionID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no cart session"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.RemoveItem(c.Request().Context(), sid, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) clear(c echo.Context) error {
	sid, ok := getCartSessionID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no cart session"})
	}

	out, err := h.uc.Clear(c.Request().Context(), sid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// GET /cart/ws 同じセッションの他タブでの変更を流す
func (h *CartHandler) stream(c echo.Context) error {
	sid, ok := getCartSessionID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no cart session"})
	}

	ctx := c.Request().Context()
	current, err := h.uc.GetCart(ctx, sid)
	if err != nil {
		return writeError(c, err)
	}
	updates, cancel, err := h.uc.Watch(ctx, sid)
	if err != nil {
		return writeError(c, err)
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgradeが応答を書いている
		c.Logger().Warnf("cart ws upgrade: %v", err)
		return nil
	}
	defer conn.Close()

	if err := conn.WriteJSON(cartMessage{Type: "cart_snapshot", Cart: current}); err != nil {
		return nil
	}

	closed := readUntilClosed(conn)
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return nil
		case <-ctx.Done():
			return nil
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			if err := conn.WriteJSON(cartMessage{Type: "cart_updated", Cart: snap}); err != nil {
				return nil
			}
		case <-ticker.C:
			if err := ping(conn); err != nil {
				return nil
			}
		}
	}
}
