package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/repository"
	"storefront/internal/validator"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

// ルーティングに必要なもの
type Handlers struct {
	Menu       *handler.MenuHandler
	Cart       *handler.CartHandler
	Checkout   *handler.CheckoutHandler
	Auth       *handler.AuthHandler
	AdminMenu  *handler.AdminMenuHandler
	AdminOrder *handler.AdminOrderHandler
	Dashboard  *handler.AdminDashboardHandler
}

type Deps struct {
	UserRepo     repository.UserRepository
	CartSessions sessions.Store
	Logger       *log.Logger
}

const bodyLimit = "6M"

// New はミドルウェアとルートを登録したechoを返す
func New(cfg config.Config, d Deps, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	if d.Logger != nil {
		e.Logger = d.Logger
	}
	e.Validator = validator.New()

	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	// 画像(5MB)+multipartの余裕
	e.Use(echomw.BodyLimit(bodyLimit))
	e.Use(echomw.Secure())
	if cfg.FEURL != "" {
		// Cookieでカートを持つので credentials を許可
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     []string{cfg.FEURL},
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-Idempotency-Key"},
			AllowCredentials: true,
		}))
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, handler.SuccessResponse{Message: "ok"})
	})

	h.Menu.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e, d.CartSessions)
	h.Checkout.RegisterRoutes(e, d.CartSessions)
	h.Auth.RegisterRoutes(e, cfg, d.UserRepo)
	h.AdminMenu.RegisterRoutes(e, cfg, d.UserRepo)
	h.AdminOrder.RegisterRoutes(e, cfg, d.UserRepo)
	h.Dashboard.RegisterRoutes(e, cfg, d.UserRepo)

	return e
}

// Start はctxが終わるまで待ち受けて、終わったら10秒以内に止める
func Start(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
