package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rootstofarm.com/market/go-api/internal/memstore"
	"rootstofarm.com/market/go-api/pkg/ai"
	"rootstofarm.com/market/go-api/pkg/auth"
	"rootstofarm.com/market/go-api/pkg/cart"
	"rootstofarm.com/market/go-api/pkg/catalog"
	"rootstofarm.com/market/go-api/pkg/farmers"
	"rootstofarm.com/market/go-api/pkg/global"
	"rootstofarm.com/market/go-api/pkg/orders"
	"rootstofarm.com/market/go-api/pkg/payment"
	"rootstofarm.com/market/go-api/pkg/redis"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testDeps(store *memstore.Store) Deps {
	cfg := &global.Config{Env: "test", ClientURLs: "http://localhost:3000"}
	carts := cart.NewService(store.Products(), store.Carts(), store.GuestCarts())
	orderSvc := orders.NewService(orders.Deps{
		Products: store.Products(),
		Orders:   store.Orders(),
		Carts:    store.Carts(),
		Checkout: carts,
		Users:    store.Users(),
	})
	return Deps{
		Config:   cfg,
		Database: store,
		Auth:     auth.NewService(store.Users(), auth.NewTokenManager("router-test-secret", time.Hour), carts),
		Cart:     carts,
		Orders:   orderSvc,
		Catalog:  catalog.NewService(store.Products()),
		Farmers:  farmers.NewService(store.Farmers(), store.Products(), store.Orders(), ai.NewClient(cfg), 10),
		Payment:  payment.NewService(nil, orderSvc, "whsec_router", "usd"),
	}
}

func newServer(t *testing.T) *gin.Engine {
	t.Helper()
	return NewEngine(testDeps(memstore.New()))
}

type response struct {
	Code int
	Body map[string]any
}

func do(t *testing.T, r http.Handler, method, path, token string, body any) response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := response{Code: w.Code, Body: map[string]any{}}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out.Body), w.Body.String())
	}
	return out
}

func register(t *testing.T, r http.Handler, name, email, role string) string {
	t.Helper()
	res := do(t, r, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": name, "email": email, "password": "secret123", "role": role,
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	return res.Body["token"].(string)
}

func object(t *testing.T, v any) map[string]any {
	t.Helper()
	m, ok := v.(map[string]any)
	require.True(t, ok, "expected a JSON object, got %T", v)
	return m
}

func createProduct(t *testing.T, r http.Handler, token, name string, price float64, stock int) string {
	t.Helper()
	res := do(t, r, http.MethodPost, "/api/products", token, map[string]any{
		"name": name, "description": "fresh", "price": price, "category": "vegetables",
		"unit": "kg", "stock": stock,
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	return object(t, res.Body["product"])["id"].(string)
}

func TestBannerAndUnknownRoute(t *testing.T) {
	r := newServer(t)

	res := do(t, r, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Roots to Farm Fresh Market API", res.Body["message"])

	res = do(t, r, http.MethodGet, "/api/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, false, res.Body["success"])
	assert.Equal(t, "Route not found", res.Body["message"])
}

func TestHealthCheck(t *testing.T) {
	res := do(t, newServer(t), http.MethodGet, "/api/health", "", nil)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Connected", res.Body["database"])
}

func TestAuthRoutes(t *testing.T) {
	r := newServer(t)
	token := register(t, r, "Maya", "maya@example.com", "")

	res := do(t, r, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	user := object(t, res.Body["user"])
	assert.Equal(t, "maya@example.com", user["email"])
	assert.Equal(t, "customer", user["role"])
	assert.NotContains(t, user, "password")

	res = do(t, r, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "No token, authorization denied", res.Body["message"])

	res = do(t, r, http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = do(t, r, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Maya", "email": "MAYA@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, res.Code)

	res = do(t, r, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "maya@example.com", "password": "wrong-one",
	})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "Invalid credentials", res.Body["message"])

	res = do(t, r, http.MethodPost, "/api/auth/register", "", map[string]any{"email": "bad"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Validation failed", res.Body["message"])
	assert.NotEmpty(t, res.Body["errors"])
}

func TestCheckoutFlow(t *testing.T) {
	r := newServer(t)
	farmer := register(t, r, "Farmer Jo", "jo@farm.io", "farmer")
	buyer := register(t, r, "Buyer Al", "al@example.com", "customer")

	kale := createProduct(t, r, farmer, "Kale", 5, 10)
	cheese := createProduct(t, r, farmer, "Cheese", 10, 3)

	res := do(t, r, http.MethodPost, "/api/products", buyer, map[string]any{"name": "Nope"})
	assert.Equal(t, http.StatusForbidden, res.Code, "customers cannot list products")

	res = do(t, r, http.MethodPost, "/api/cart/add", buyer, map[string]any{"productId": kale, "quantity": 2})
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	res = do(t, r, http.MethodPost, "/api/cart/add", buyer, map[string]any{"productId": cheese})
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	assert.Equal(t, 20.0, object(t, res.Body["cart"])["totalAmount"])

	res = do(t, r, http.MethodPost, "/api/cart/add", buyer, map[string]any{"productId": kale, "quantity": 9})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Insufficient stock. Cannot add 9 more. Total would be 11 but only 10 available", res.Body["message"])

	res = do(t, r, http.MethodGet, "/api/cart/summary", buyer, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, 3.0, object(t, res.Body["summary"])["totalItems"])

	res = do(t, r, http.MethodPost, "/api/orders", buyer, map[string]any{
		"shippingAddress": map[string]any{"street": "1 Elm", "city": "Guelph", "zipCode": "N1H"},
		"paymentMethod":   "cash_on_delivery",
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	order := object(t, res.Body["order"])
	assert.Equal(t, 20.0, order["totalAmount"])
	assert.Equal(t, "pending", order["orderStatus"])
	orderID := order["id"].(string)

	res = do(t, r, http.MethodGet, "/api/products/"+kale, "", nil)
	assert.Equal(t, 8.0, object(t, res.Body["product"])["stock"])

	res = do(t, r, http.MethodGet, "/api/cart", buyer, nil)
	assert.Empty(t, object(t, res.Body["cart"])["items"])

	res = do(t, r, http.MethodGet, "/api/orders/my-orders", buyer, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.Body["orders"], 1)

	res = do(t, r, http.MethodPut, "/api/orders/"+orderID+"/status", farmer, map[string]any{"orderStatus": "processing"})
	require.Equal(t, http.StatusOK, res.Code, res.Body)

	res = do(t, r, http.MethodPut, "/api/orders/"+orderID+"/cancel", farmer, nil)
	assert.Equal(t, http.StatusForbidden, res.Code, "only the buyer cancels")

	res = do(t, r, http.MethodPut, "/api/orders/"+orderID+"/cancel", buyer, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	assert.Equal(t, "cancelled", object(t, res.Body["order"])["orderStatus"])

	res = do(t, r, http.MethodGet, "/api/products/"+kale, "", nil)
	assert.Equal(t, 10.0, object(t, res.Body["product"])["stock"])

	res = do(t, r, http.MethodPut, "/api/orders/"+orderID+"/cancel", buyer, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Order cannot be cancelled", res.Body["message"])

	res = do(t, r, http.MethodPut, "/api/orders/"+orderID+"/status", farmer, map[string]any{"orderStatus": "shipped"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Order has been cancelled", res.Body["message"])
}

func TestOrderRequestValidation(t *testing.T) {
	r := newServer(t)
	buyer := register(t, r, "Buyer Al", "al@example.com", "customer")

	res := do(t, r, http.MethodPost, "/api/orders", buyer, map[string]any{
		"shippingAddress": map[string]any{"street": "1 Elm", "city": "Guelph", "zipCode": "N1H"},
		"paymentMethod":   "card",
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Cart is empty", res.Body["message"])

	res = do(t, r, http.MethodPost, "/api/orders", buyer, map[string]any{"paymentMethod": "barter"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Validation failed", res.Body["message"])

	res = do(t, r, http.MethodGet, "/api/orders/not-an-id", buyer, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = do(t, r, http.MethodGet, "/api/orders/650000000000000000abcdef", buyer, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestCartItemErrors(t *testing.T) {
	r := newServer(t)
	buyer := register(t, r, "Buyer Al", "al@example.com", "customer")

	res := do(t, r, http.MethodDelete, "/api/cart/clear", buyer, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "Cart not found", res.Body["message"])

	res = do(t, r, http.MethodGet, "/api/cart", buyer, nil)
	require.Equal(t, http.StatusOK, res.Code)

	res = do(t, r, http.MethodPut, "/api/cart/update/650000000000000000abcdef", buyer, map[string]any{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = do(t, r, http.MethodPut, "/api/cart/update/650000000000000000abcdef", buyer, map[string]any{"quantity": 2})
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "Item not found in cart", res.Body["message"])

	res = do(t, r, http.MethodPost, "/api/cart/add", buyer, map[string]any{"productId": "650000000000000000abcdef", "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Quantity must be at least 1", res.Body["message"])

	res = do(t, r, http.MethodPost, "/api/cart/add", buyer, map[string]any{"productId": "650000000000000000abcdef"})
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "Product not found", res.Body["message"])
}

func TestGuestCartTransferOnRegister(t *testing.T) {
	r := newServer(t)
	farmer := register(t, r, "Farmer Jo", "jo@farm.io", "farmer")
	eggs := createProduct(t, r, farmer, "Eggs", 4, 12)

	res := do(t, r, http.MethodPost, "/api/guest-cart", "", nil)
	require.Equal(t, http.StatusCreated, res.Code)
	guestID := object(t, res.Body["cart"])["id"].(string)

	res = do(t, r, http.MethodPost, "/api/guest-cart/"+guestID+"/items", "", map[string]any{"productId": eggs, "quantity": 3})
	require.Equal(t, http.StatusOK, res.Code, res.Body)

	res = do(t, r, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "New Buyer", "email": "new@example.com", "password": "secret123", "guestCartId": guestID,
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	assert.Equal(t, 3.0, object(t, res.Body["cart"])["totalItems"])

	res = do(t, r, http.MethodGet, "/api/guest-cart/"+guestID, "", nil)
	assert.Empty(t, object(t, res.Body["cart"])["items"], "guest cart is emptied after the merge")
}

func TestReviews(t *testing.T) {
	r := newServer(t)
	farmer := register(t, r, "Farmer Jo", "jo@farm.io", "farmer")
	buyer := register(t, r, "Buyer Al", "al@example.com", "customer")
	honey := createProduct(t, r, farmer, "Honey", 9, 5)

	res := do(t, r, http.MethodPost, "/api/products/"+honey+"/reviews", buyer, map[string]any{"rating": 4, "comment": "Lovely"})
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	assert.Equal(t, 4.0, object(t, res.Body["product"])["rating"])

	res = do(t, r, http.MethodPost, "/api/products/"+honey+"/reviews", buyer, map[string]any{"rating": 5})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Product already reviewed", res.Body["message"])

	res = do(t, r, http.MethodPost, "/api/products/"+honey+"/reviews", farmer, map[string]any{"rating": 6})
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestProductListing(t *testing.T) {
	r := newServer(t)
	farmer := register(t, r, "Farmer Jo", "jo@farm.io", "farmer")
	createProduct(t, r, farmer, "Kale", 5, 10)
	createProduct(t, r, farmer, "Cabbage", 3, 10)
	createProduct(t, r, farmer, "Truffle", 80, 1)

	res := do(t, r, http.MethodGet, "/api/products?maxPrice=10&sort=price&limit=1", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, 2.0, res.Body["total"])
	assert.Equal(t, 2.0, res.Body["totalPages"])
	products := res.Body["products"].([]any)
	require.Len(t, products, 1)
	assert.Equal(t, "Cabbage", object(t, products[0])["name"])
}

func TestFarmerDashboardRequiresFarmer(t *testing.T) {
	r := newServer(t)
	farmer := register(t, r, "Farmer Jo", "jo@farm.io", "farmer")
	buyer := register(t, r, "Buyer Al", "al@example.com", "customer")
	createProduct(t, r, farmer, "Garlic", 2, 3)

	res := do(t, r, http.MethodGet, "/api/farmers/dashboard/stats", buyer, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = do(t, r, http.MethodGet, "/api/farmers/dashboard/stats", farmer, nil)
	require.Equal(t, http.StatusOK, res.Code)
	stats := object(t, res.Body["stats"])
	assert.Equal(t, 1.0, stats["totalProducts"])
	assert.Equal(t, 1.0, stats["lowStockProducts"])

	res = do(t, r, http.MethodPost, "/api/farmers/profile", farmer, map[string]any{"farmName": "Jo's Garlic"})
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	res = do(t, r, http.MethodPost, "/api/farmers/profile", farmer, map[string]any{"farmName": "Again"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestPaymentRoutes(t *testing.T) {
	r := newServer(t)
	buyer := register(t, r, "Buyer Al", "al@example.com", "customer")

	res := do(t, r, http.MethodPost, "/api/payment/create-payment-intent", buyer, map[string]any{"orderId": "650000000000000000abcdef"})
	assert.Equal(t, http.StatusServiceUnavailable, res.Code)

	res = do(t, r, http.MethodPost, "/api/payment/webhook", "", map[string]any{"type": "payment_intent.succeeded"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	deps := testDeps(memstore.New())
	deps.Limiter = redis.NewRateLimiter(client, 2, time.Minute)
	r := NewEngine(deps)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/", "", nil).Code)
	}
	res := do(t, r, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, res.Code)
	assert.Equal(t, "Too many requests from this IP, please try again later.", res.Body["message"])
}
