package server_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthz(t *testing.T) {
	app := newTestApp(t)
	c := app.newClient(t)

	resp, body := c.doJSON(t, http.MethodGet, "/healthz", "", nil)
	requireStatus(t, resp, http.StatusOK, body)
}

func TestMenu_PublicListing(t *testing.T) {
	app := newTestApp(t)
	c := app.newClient(t)

	grill := app.seedCategory(t, "Grill")
	drinks := app.seedCategory(t, "Drinks")
	app.seedMenuItem(t, grill.ID, "Kofta", "90.00", true)
	hidden := app.seedMenuItem(t, grill.ID, "Lamb Chops", "300.00", false)
	app.seedMenuItem(t, drinks.ID, "Tea", "15.00", true)

	resp, body := c.doJSON(t, http.MethodGet, "/menu", "", nil)
	requireStatus(t, resp, http.StatusOK, body)
	items := mustDecode[[]struct {
		Name string `json:"name"`
	}](t, body)
	require.Len(t, items, 2)
	assert.Equal(t, "Kofta", items[0].Name)
	assert.Equal(t, "Tea", items[1].Name)

	resp, body = c.doJSON(t, http.MethodGet, "/menu?category_id="+toStr(drinks.ID), "", nil)
	requireStatus(t, resp, http.StatusOK, body)
	assert.Len(t, mustDecode[[]struct{}](t, body), 1)

	// 提供停止中は詳細も404
	resp, body = c.doJSON(t, http.MethodGet, "/menu/"+toStr(hidden.ID), "", nil)
	requireStatus(t, resp, http.StatusNotFound, body)

	resp, body = c.doJSON(t, http.MethodGet, "/menu/abc", "", nil)
	requireStatus(t, resp, http.StatusBadRequest, body)

	resp, body = c.doJSON(t, http.MethodGet, "/categories", "", nil)
	requireStatus(t, resp, http.StatusOK, body)
	assert.Len(t, mustDecode[[]struct{}](t, body), 2)
}

func TestCart_MutationsFollowTheCartRules(t *testing.T) {
	app := newTestApp(t)
	c := app.newClient(t)

	cat := app.seedCategory(t, "Mains")
	kofta := app.seedMenuItem(t, cat.ID, "Kofta", "90.00", true)
	tea := app.seedMenuItem(t, cat.ID, "Tea", "15.50", true)
	off := app.seedMenuItem(t, cat.ID, "Off", "1.00", false)

	resp, body := c.doJSON(t, http.MethodGet, "/cart", "", nil)
	requireStatus(t, resp, http.StatusOK, body)
	assert.True(t, mustDecode[CartResponse](t, body).IsEmpty)

	c.addToCart(t, kofta.ID)
	c.addToCart(t, tea.ID)
	cart := c.addToCart(t, kofta.ID)

	// 同じ項目は1行にまとまる
	require.Len(t, cart.Items, 2)
	assert.Equal(t, kofta.ID, cart.Items[0].ID)
	assert.Equal(t, int64(2), cart.Items[0].Quantity)
	assert.Equal(t, int64(3), cart.TotalItems)
	assert.True(t, dec("195.50").Equal(cart.TotalAmount))

	resp, body = c.doJSON(t, http.MethodPost, "/cart/items", "", map[string]int64{"menu_item_id": off.ID})
	requireStatus(t, resp, http.StatusBadRequest, body)

	resp, body = c.doJSON(t, http.MethodPost, "/cart/items", "", map[string]int64{})
	requireStatus(t, resp, http.StatusBadRequest, body)
	assert.Equal(t, "menu_item_id required", mustDecode[ErrorResponse](t, body).Error)

	resp, body = c.doJSON(t, http.MethodPatch, "/cart/items/"+toStr(kofta.ID), "", map[string]int64{"quantity": 5})
	requireStatus(t, resp, http.StatusOK, body)
	cart = mustDecode[CartResponse](t, body)
	assert.Equal(t, int64(6), cart.TotalItems)

	resp, body = c.doJSON(t, http.MethodPost, "/cart/items/"+toStr(tea.ID)+"/decrement", "", nil)
	requireStatus(t, resp, http.StatusOK, body)
	cart = mustDecode[CartResponse](t, body)
	require.Len(t, cart.Items, 1)

	// 0以下は削除
	resp, body = c.doJSON(t, http.MethodPatch, "/cart/items/"+toStr(kofta.ID), "", map[string]int64{"quantity": 0})
	requireStatus(t, resp, http.StatusOK, body)
	cart = mustDecode[CartResponse](t, body)
	assert.True(t, cart.IsEmpty)
	assert.True(t, cart.TotalAmount.IsZero())

	c.addToCart(t, tea.ID)
	resp, body = c.doJSON(t, http.MethodDelete, "/cart/items/"+toStr(tea.ID), "", nil)
	requireStatus(t, resp, http.StatusOK, body)
	assert.True(t, mustDecode[CartResponse](t, body).IsEmpty)

	c.addToCart(t, tea.ID)
	resp, body = c.doJSON(t, http.MethodDelete, "/cart", "", nil)
	requireStatus(t, resp, http.StatusOK, body)
	assert.True(t, mustDecode[CartResponse](t, body).IsEmpty)
}

func TestCart_IsPerBrowserSession(t *testing.T) {
	app := newTestApp(t)
	alice := app.newClient(t)
	bob := app.newClient(t)

	cat := app.seedCategory(t, "Mains")
	kofta := app.seedMenuItem(t, cat.ID, "Kofta", "90.00", true)

	alice.addToCart(t, kofta.ID)

	resp, body := bob.doJSON(t, http.MethodGet, "/cart", "", nil)
	requireStatus(t, resp, http.StatusOK, body)
	assert.True(t, mustDecode[CartResponse](t, body).IsEmpty)

	resp, body = alice.doJSON(t, http.MethodGet, "/cart", "", nil)
	requireStatus(t, resp, http.StatusOK, body)
	assert.Equal(t, int64(1), mustDecode[CartResponse](t, body).TotalItems)
}

func TestCheckout_PlacesOrderAndClearsCart(t *testing.T) {
	app := newTestApp(t)
	c := app.newClient(t)

	cat := app.seedCategory(t, "Mains")
	kofta := app.seedMenuItem(t, cat.ID, "Kofta", "90.00", true)
	tea := app.seedMenuItem(t, cat.ID, "Tea", "15.00", true)

	// 空のカート
	resp, body := c.doJSON(t, http.MethodPost, "/checkout", "", map[string]string{"name": "Mona", "phone": "0100"})
	requireStatus(t, resp, http.StatusBadRequest, body)
	assert.Equal(t, "cart empty", mustDecode[ErrorResponse](t, body).Error)

	c.addToCart(t, kofta.ID)
	c.addToCart(t, kofta.ID)
	c.addToCart(t, tea.ID)

	resp, body = c.doJSON(t, http.MethodPost, "/checkout", "", map[string]string{"phone": "0100"})
	requireStatus(t, resp, http.StatusBadRequest, body)
	assert.Equal(t, "name required", mustDecode[ErrorResponse](t, body).Error)

	payload := map[string]string{"name": "Mona", "phone": "0100 123", "address": "Cairo", "notes": "no onions"}
	headers := map[string]string{"X-Idempotency-Key": "order-1"}

	resp, body = c.do(t, http.MethodPost, "/checkout", "", payload, headers)
	requireStatus(t, resp, http.StatusCreated, body)
	out := mustDecode[CheckoutResponse](t, body)

	assert.False(t, out.Replayed)
	assert.Equal(t, "pending", out.Order.Status)
	assert.True(t, dec("195").Equal(out.Order.TotalAmount))
	require.Len(t, out.Order.Items, 2)
	assert.Equal(t, "Kofta", out.Order.Items[0].Name)
	assert.True(t, dec("180").Equal(out.Order.Items[0].Subtotal))
	assert.True(t, strings.HasPrefix(out.WhatsAppURL, "https://wa.me/201099940030?text="))
	assert.True(t, strings.HasPrefix(out.WhatsAppQR, "data:image/png;base64,"))

	resp, body = c.doJSON(t, http.MethodGet, "/cart", "", nil)
	requireStatus(t, resp, http.StatusOK, body)
	assert.True(t, mustDecode[CartResponse](t, body).IsEmpty)

	// 同じキーの再送は同じ注文を返す
	resp, body = c.do(t, http.MethodPost, "/checkout", "", payload, headers)
	requireStatus(t, resp, http.StatusOK, body)
	replay := mustDecode[CheckoutResponse](t, body)
	assert.True(t, replay.Replayed)
	assert.Equal(t, out.Order.ID, replay.Order.ID)
}

func TestCheckout_IdempotencyKeyIsPerSession(t *testing.T) {
	app := newTestApp(t)
	alice := app.newClient(t)
	bob := app.newClient(t)

	cat := app.seedCategory(t, "Mains")
	kofta := app.seedMenuItem(t, cat.ID, "Kofta", "90.00", true)

	alice.addToCart(t, kofta.ID)
	headers := map[string]string{"X-Idempotency-Key": "order-1"}
	resp, body := alice.do(t, http.MethodPost, "/checkout", "", map[string]string{"name": "Alice", "phone": "0100 111", "address": "Zamalek"}, headers)
	requireStatus(t, resp, http.StatusCreated, body)

	// 別のブラウザが同じキーを送っても他人の注文は返らない
	resp, body = bob.do(t, http.MethodPost, "/checkout", "", map[string]string{"name": "Bob", "phone": "0122"}, headers)
	requireStatus(t, resp, http.StatusBadRequest, body)
	assert.Equal(t, "cart empty", mustDecode[ErrorResponse](t, body).Error)
	assert.NotContains(t, string(body), "Alice")
	assert.NotContains(t, string(body), "Zamalek")

	// 自分のカートなら同じキーでも新しい注文になる
	bob.addToCart(t, kofta.ID)
	resp, body = bob.do(t, http.MethodPost, "/checkout", "", map[string]string{"name": "Bob", "phone": "0122"}, headers)
	requireStatus(t, resp, http.StatusCreated, body)
	out := mustDecode[CheckoutResponse](t, body)
	assert.False(t, out.Replayed)
	assert.Equal(t, "Bob", out.Order.CustomerName)
}

func TestServer_SecurityHeadersAndBodyLimit(t *testing.T) {
	app := newTestApp(t)
	c := app.newClient(t)

	resp, body := c.doJSON(t, http.MethodGet, "/healthz", "", nil)
	requireStatus(t, resp, http.StatusOK, body)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", resp.Header.Get("X-Frame-Options"))

	// 上限を超える本文は読まずに断る
	huge := `{"name":"Mona","phone":"0100","notes":"` + strings.Repeat("x", 7<<20) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(huge))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
