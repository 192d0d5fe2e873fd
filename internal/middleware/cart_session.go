package middleware

import (
	"net/http"

	"storefront/internal/config"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

const (
	CtxCartSessionKey = "cart_session_id" // string

	cartSessionName = "storefront_cart"
	cartIDValue     = "cart_id"
)

// 署名付きCookieのストア（カートの有効期限と同じだけ残す）
func NewCartCookieStore(cfg config.Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.CartTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProd(),
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// CartSession はCookieのcart_idをcontextに入れる。無ければ作って返す。
func CartSession(store sessions.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// 署名が合わないCookieは新しいセッション扱い
			sess, _ := store.Get(c.Request(), cartSessionName)

			id, _ := sess.Values[cartIDValue].(string)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
				sess.Values[cartIDValue] = id
				if err := sess.Save(c.Request(), c.Response()); err != nil {
					return deny(c, http.StatusInternalServerError, "session error")
				}
			}

			c.Set(CtxCartSessionKey, id)
			return next(c)
		}
	}
}
