package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"

	"rootstofarm.com/market/go-api/pkg/global"
	"rootstofarm.com/market/go-api/pkg/models"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
	Errors     []global.ValidationError
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Client is a typed client for the marketplace REST API.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient targets baseURL, e.g. "http://localhost:5001/api".
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope global.APIResponse
		_ = json.Unmarshal(payload, &envelope)
		return &APIError{StatusCode: resp.StatusCode, Message: envelope.Message, Errors: envelope.Errors}
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(payload, out), "decode response")
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string              `json:"token"`
	User  *models.User        `json:"user"`
	Cart  *models.CartDetails `json:"cart,omitempty"`
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/auth/profile", req, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

type cartEnvelope struct {
	Cart *models.CartDetails `json:"cart"`
}

func (c *Client) cartCall(ctx context.Context, method, path string, body interface{}) (*models.CartDetails, error) {
	var out cartEnvelope
	if err := c.do(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	return out.Cart, nil
}

func (c *Client) GetCart(ctx context.Context) (*models.CartDetails, error) {
	return c.cartCall(ctx, http.MethodGet, "/cart", nil)
}

func (c *Client) AddToCart(ctx context.Context, productID bson.ObjectID, quantity int) (*models.CartDetails, error) {
	return c.cartCall(ctx, http.MethodPost, "/cart/add", models.AddToCartRequest{ProductID: productID.Hex(), Quantity: &quantity})
}

func (c *Client) UpdateCartItem(ctx context.Context, itemID bson.ObjectID, quantity int) (*models.CartDetails, error) {
	return c.cartCall(ctx, http.MethodPut, "/cart/update/"+itemID.Hex(), models.UpdateCartItemRequest{Quantity: quantity})
}

func (c *Client) RemoveFromCart(ctx context.Context, itemID bson.ObjectID) (*models.CartDetails, error) {
	return c.cartCall(ctx, http.MethodDelete, "/cart/remove/"+itemID.Hex(), nil)
}

func (c *Client) ClearCart(ctx context.Context) (*models.CartDetails, error) {
	return c.cartCall(ctx, http.MethodDelete, "/cart/clear", nil)
}

func (c *Client) CartSummary(ctx context.Context) (*models.CartSummary, error) {
	var out struct {
		Summary *models.CartSummary `json:"summary"`
	}
	if err := c.do(ctx, http.MethodGet, "/cart/summary", nil, &out); err != nil {
		return nil, err
	}
	return out.Summary, nil
}

func (c *Client) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	var out struct {
		Order *models.Order `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/orders", req, &out); err != nil {
		return nil, err
	}
	return out.Order, nil
}

func (c *Client) MyOrders(ctx context.Context) ([]*models.Order, error) {
	var out struct {
		Orders []*models.Order `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders/my-orders", nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

func (c *Client) CancelOrder(ctx context.Context, id bson.ObjectID) (*models.Order, error) {
	var out struct {
		Order *models.Order `json:"order"`
	}
	if err := c.do(ctx, http.MethodPut, "/orders/"+id.Hex()+"/cancel", nil, &out); err != nil {
		return nil, err
	}
	return out.Order, nil
}

// ListProducts passes query straight through as the listing filter.
func (c *Client) ListProducts(ctx context.Context, query url.Values) (*models.ProductPage, error) {
	path := "/products"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var out models.ProductPage
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProduct(ctx context.Context, id bson.ObjectID) (*models.Product, error) {
	var out struct {
		Product *models.Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodGet, "/products/"+id.Hex(), nil, &out); err != nil {
		return nil, err
	}
	return out.Product, nil
}

func (c *Client) CreateProduct(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	var out struct {
		Product *models.Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodPost, "/products", req, &out); err != nil {
		return nil, err
	}
	return out.Product, nil
}
