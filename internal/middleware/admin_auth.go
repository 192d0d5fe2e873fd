package middleware

import (
	"net/http"
	"strings"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
)

// CtxAdminKey には検証済みの Admin が入る
const CtxAdminKey = "admin"

// Admin はトークンから取り出したリクエスト中の管理者
type Admin struct {
	UserID       int64
	Role         model.Role
	TokenVersion int
}

// AdminFrom は AuthJWT が入れた管理者を取り出す
func AdminFrom(c echo.Context) (Admin, bool) {
	a, ok := c.Get(CtxAdminKey).(Admin)
	return a, ok && a.UserID > 0
}

// AdminOnly は /admin 系グループに付ける一式（署名検証 → 失効確認 → ロール確認）
func AdminOnly(cfg config.Config, users repository.UserRepository) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		AuthJWT(cfg),
		TokenVersionGuard(users),
		AdminRoleGuard(),
	}
}

// AuthJWT はアクセストークンを検証して Admin を context に入れる
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := accessToken(c.Request())
			if !ok {
				return deny(c, http.StatusUnauthorized, "unauthorized")
			}
			claims, err := auth.Parse(raw, cfg.JWTSecret)
			if err != nil {
				return deny(c, http.StatusUnauthorized, "unauthorized")
			}
			c.Set(CtxAdminKey, Admin{
				UserID:       claims.UserID,
				Role:         claims.Role,
				TokenVersion: claims.TokenVersion,
			})
			return next(c)
		}
	}
}

// TokenVersionGuard はログアウトや停止で失効したトークンを弾く
func TokenVersionGuard(users repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			admin, ok := AdminFrom(c)
			if !ok {
				return deny(c, http.StatusUnauthorized, "unauthorized")
			}
			user, err := users.FindByID(c.Request().Context(), admin.UserID)
			if err != nil || user == nil || !user.Accepts(admin.TokenVersion) {
				return deny(c, http.StatusUnauthorized, "unauthorized")
			}
			return next(c)
		}
	}
}

func AdminRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			admin, ok := AdminFrom(c)
			switch {
			case !ok:
				return deny(c, http.StatusUnauthorized, "unauthorized")
			case admin.Role != model.RoleAdmin:
				return deny(c, http.StatusForbidden, "admin only")
			}
			return next(c)
		}
	}
}

// ヘッダ優先。WebSocketはヘッダを付けられないので ?token= も受ける
func accessToken(r *http.Request) (string, bool) {
	if h := r.Header.Get(echo.HeaderAuthorization); h != "" {
		scheme, raw, found := strings.Cut(h, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			return "", false
		}
		raw = strings.TrimSpace(raw)
		return raw, raw != ""
	}
	raw := strings.TrimSpace(r.URL.Query().Get("token"))
	return raw, raw != ""
}

type errorBody struct {
	Error string `json:"error"`
}

func deny(c echo.Context, status int, msg string) error {
	return c.JSON(status, errorBody{Error: msg})
}
