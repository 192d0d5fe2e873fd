package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/handler"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/middleware"
	"storefront/internal/server"
	"storefront/internal/usecase"
	"storefront/internal/validator"
	"storefront/internal/ws"

	"github.com/labstack/gommon/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "password123"
)

// 1テスト分のサーバー（SQLite + プロセス内のカート通知）
type testApp struct {
	URL     string
	DB      *gorm.DB
	Hub     *ws.Hub
	Handler http.Handler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(gdb))

	cfg := config.Config{
		JWTSecret:     "test-secret",
		SessionSecret: "session-secret",
		GoEnv:         "dev",
		CartTTL:       time.Hour,
		WhatsAppPhone: "201099940030",
		CurrencyLabel: "EGP",
	}

	ctx, cancel := context.WithCancel(context.Background())

	lg := log.New("test")
	lg.SetLevel(log.OFF)

	userRepo := infraRepo.NewUserGormRepository(gdb)
	categoryRepo := infraRepo.NewCategoryGormRepository(gdb)
	menuItemRepo := infraRepo.NewMenuItemGormRepository(gdb)
	auditRepo := infraRepo.NewAuditLogGormRepository(gdb)
	txm := infraRepo.NewTxManagerGorm(gdb)
	persisters := infraRepo.NewDBCartPersisters(infraRepo.NewCartSnapshotGormRepository(gdb), cfg.CartTTL)

	hub := ws.NewHub(lg)
	go hub.Run(ctx)

	handoff := usecase.HandoffConfig{Phone: cfg.WhatsAppPhone, Currency: cfg.CurrencyLabel}

	menuUC := usecase.NewMenuUsecase(categoryRepo, menuItemRepo, auditRepo, nil)
	cartUC := usecase.NewCartUsecase(persisters, menuItemRepo, cache.NewMemoryCartChannel(), lg)
	checkoutUC := usecase.NewCheckoutUsecase(txm, cartUC, hub, lg, handoff)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, hub, lg, handoff)
	authUC := usecase.NewAuthUsecase(cfg, userRepo, validator.NewAuthValidator())

	created, err := authUC.SeedAdmin(ctx, adminEmail, adminPassword)
	require.NoError(t, err)
	require.True(t, created)

	e := server.New(cfg, server.Deps{
		UserRepo:     userRepo,
		CartSessions: middleware.NewCartCookieStore(cfg),
		Logger:       lg,
	}, server.Handlers{
		Menu:       handler.NewMenuHandler(menuUC),
		Cart:       handler.NewCartHandler(cartUC, cfg.FEURL),
		Checkout:   handler.NewCheckoutHandler(checkoutUC),
		Auth:       handler.NewAuthHandler(authUC),
		AdminMenu:  handler.NewAdminMenuHandler(menuUC),
		AdminOrder: handler.NewAdminOrderHandler(adminOrderUC),
		Dashboard: handler.NewAdminDashboardHandler(
			usecase.NewDashboardUsecase(txm, categoryRepo),
			usecase.NewAuditLogUsecase(auditRepo),
			hub,
			cfg.FEURL,
		),
	})

	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		srv.Close()
		cancel()
		_ = sqlDB.Close()
	})

	return &testApp{URL: srv.URL, DB: gdb, Hub: hub, Handler: e}
}

func (a *testApp) seedMenuItem(t *testing.T, categoryID int64, name string, price string, available bool) model.MenuItem {
	t.Helper()
	m, err := infraRepo.NewMenuItemGormRepository(a.DB).Create(context.Background(), model.MenuItem{
		Name:        name,
		Price:       decimal.RequireFromString(price),
		CategoryID:  categoryID,
		IsAvailable: available,
	})
	require.NoError(t, err)
	return m
}

func (a *testApp) seedCategory(t *testing.T, name string) model.Category {
	t.Helper()
	c, err := infraRepo.NewCategoryGormRepository(a.DB).Create(context.Background(), model.Category{Name: name})
	require.NoError(t, err)
	return c
}

// ブラウザ1つ分（Cookieを持つ）
type TestClient struct {
	BaseURL string
	HTTP    *http.Client
}

func (a *testApp) newClient(t *testing.T) *TestClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &TestClient{
		BaseURL: a.URL,
		HTTP:    &http.Client{Jar: jar, Timeout: 10 * time.Second},
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type LoginResponse struct {
	Token struct {
		AccessToken string `json:"access_token"`
	} `json:"token"`
}

type CartResponse struct {
	Items []struct {
		ID       int64           `json:"id"`
		Name     string          `json:"name"`
		Price    decimal.Decimal `json:"price"`
		Quantity int64           `json:"quantity"`
	} `json:"items"`
	TotalItems  int64           `json:"total_items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	IsEmpty     bool            `json:"is_empty"`
}

type OrderResponse struct {
	ID           int64           `json:"id"`
	CustomerName string          `json:"customer_name"`
	Status       string          `json:"status"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Items        []struct {
		MenuItemID int64           `json:"menu_item_id"`
		Name       string          `json:"name"`
		Quantity   int64           `json:"quantity"`
		Subtotal   decimal.Decimal `json:"subtotal"`
		Deleted    bool            `json:"deleted"`
	} `json:"items"`
}

type CheckoutResponse struct {
	Order       OrderResponse `json:"order"`
	WhatsAppURL string        `json:"whatsapp_url"`
	WhatsAppQR  string        `json:"whatsapp_qr"`
	Replayed    bool          `json:"replayed"`
}

func (c *TestClient) do(
	t *testing.T,
	method string,
	path string,
	bearer string,
	body interface{},
	headers map[string]string,
) (*http.Response, []byte) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, c.BaseURL+path, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTP.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (c *TestClient) doJSON(t *testing.T, method string, path string, bearer string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	return c.do(t, method, path, bearer, body, nil)
}

func requireStatus(t *testing.T, resp *http.Response, want int, body []byte) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("status=%d want=%d body=%s", resp.StatusCode, want, string(body))
	}
}

func mustDecode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("json.Unmarshal failed: %v body=%s", err, string(body))
	}
	return v
}

func (c *TestClient) addToCart(t *testing.T, menuItemID int64) CartResponse {
	t.Helper()
	resp, body := c.doJSON(t, http.MethodPost, "/cart/items", "", map[string]int64{"menu_item_id": menuItemID})
	requireStatus(t, resp, http.StatusOK, body)
	return mustDecode[CartResponse](t, body)
}

func adminLogin(t *testing.T, c *TestClient) string {
	t.Helper()

	resp, body := c.doJSON(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    adminEmail,
		"password": adminPassword,
	})
	requireStatus(t, resp, http.StatusOK, body)

	login := mustDecode[LoginResponse](t, body)
	require.NotEmpty(t, strings.TrimSpace(login.Token.AccessToken))
	return login.Token.AccessToken
}

func toStr(v int64) string {
	return strconv.FormatInt(v, 10)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
