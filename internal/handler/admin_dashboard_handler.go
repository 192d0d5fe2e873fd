package handler

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"
	"storefront/internal/ws"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// ダッシュボード・監査ログ・注文のライブ通知
type AdminDashboardHandler struct {
	dashboard *usecase.DashboardUsecase
	auditLogs *usecase.AuditLogUsecase
	hub       *ws.Hub
	upgrader  websocket.Upgrader
}

func NewAdminDashboardHandler(
	dashboard *usecase.DashboardUsecase,
	auditLogs *usecase.AuditLogUsecase,
	hub *ws.Hub,
	allowedOrigin string,
) *AdminDashboardHandler {
	return &AdminDashboardHandler{
		dashboard: dashboard,
		auditLogs: auditLogs,
		hub:       hub,
		upgrader:  newUpgrader(allowedOrigin),
	}
}

func (h *AdminDashboardHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := e.Group("/admin")
	admin.Use(middleware.AdminOnly(cfg, userRepo)...)

	admin.GET("/dashboard", h.summary)
	admin.GET("/audit-logs", h.listAuditLogs)
	admin.GET("/ws", h.stream)
}

func (h *AdminDashboardHandler) summary(c echo.Context) error {
	out, err := h.dashboard.Summary(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// GET /admin/audit-logs?actor_user_id=&action=&resource_type=&resource_id=&from=&to=&limit=&offset=
func (h *AdminDashboardHandler) listAuditLogs(c echo.Context) error {
	in := usecase.AuditLogListInput{
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resource_type"),
		From:         c.QueryParam("from"),
		To:           c.QueryParam("to"),
	}

	var err error
	if in.ActorUserID, err = queryID(c, "actor_user_id"); err != nil {
		return writeError(c, err)
	}
	if in.ResourceID, err = queryID(c, "resource_id"); err != nil {
		return writeError(c, err)
	}
	if in.Limit, err = queryInt(c, "limit", 0); err != nil {
		return writeError(c, err)
	}
	if in.Offset, err = queryInt(c, "offset", 0); err != nil {
		return writeError(c, err)
	}

	out, err := h.auditLogs.List(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// GET /admin/ws?token= 新しい注文とステータス変更を流す
func (h *AdminDashboardHandler) stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		c.Logger().Warnf("admin ws upgrade: %v", err)
		return nil
	}

	ctx := c.Request().Context()
	h.hub.Register(ctx, conn)
	defer func() {
		uctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		h.hub.Unregister(uctx, conn)
		_ = conn.Close()
	}()

	closed := readUntilClosed(conn)
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return nil
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := ping(conn); err != nil {
				return nil
			}
		}
	}
}
