package client

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"

	"rootstofarm.com/market/go-api/pkg/models"
)

var ErrNotAuthenticated = errors.New("Please login to add items to cart")

// AuthState mirrors the signed-in user.
type AuthState struct {
	Token string
	User  *models.User
}

func (a AuthState) IsAuthenticated() bool { return a.User != nil }
func (a AuthState) IsFarmer() bool        { return a.User != nil && a.User.Role == models.RoleFarmer }
func (a AuthState) IsAdmin() bool         { return a.User != nil && a.User.Role == models.RoleAdmin }

// CartState mirrors the server cart. Cart is nil when signed out.
type CartState struct {
	Cart *models.CartDetails
}

// Count is the number of units across all lines.
func (c CartState) Count() int {
	if c.Cart == nil {
		return 0
	}
	n := 0
	for _, item := range c.Cart.Items {
		n += item.Quantity
	}
	return n
}

func (c CartState) Total() float64 {
	if c.Cart == nil {
		return 0
	}
	return c.Cart.TotalAmount
}

// State is a snapshot handed to subscribers.
type State struct {
	Auth      AuthState
	Cart      CartState
	LastOrder *models.Order
	// LastError is the message of the most recent failed dispatch, cleared on success.
	LastError string
}

// Action is one user intent. Actions are the only way state changes.
type Action interface {
	apply(ctx context.Context, s *Session) error
}

// Session holds client state for one user and serializes dispatches.
type Session struct {
	api *Client

	mu          sync.Mutex
	state       State
	subscribers map[int]func(State)
	nextSub     int
}

func NewSession(api *Client) *Session {
	return &Session{api: api, subscribers: map[int]func(State){}}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to run after every dispatch. The returned func removes it.
func (s *Session) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Dispatch runs action against the API and publishes the resulting state.
func (s *Session) Dispatch(ctx context.Context, action Action) error {
	s.mu.Lock()
	err := action.apply(ctx, s)
	if err != nil {
		s.state.LastError = err.Error()
	} else {
		s.state.LastError = ""
	}
	snapshot := s.state
	subs := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
	return err
}

func (s *Session) requireAuth() error {
	if !s.state.Auth.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	return nil
}

func (s *Session) signIn(ctx context.Context, resp *AuthResponse) error {
	s.api.SetToken(resp.Token)
	s.state.Auth = AuthState{Token: resp.Token, User: resp.User}
	if resp.Cart != nil {
		s.state.Cart = CartState{Cart: resp.Cart}
		return nil
	}
	return LoadCart{}.apply(ctx, s)
}

// Login signs in and loads the cart, merging GuestCartID when set.
type Login struct {
	Email       string
	Password    string
	GuestCartID string
}

func (a Login) apply(ctx context.Context, s *Session) error {
	resp, err := s.api.Login(ctx, models.LoginRequest{Email: a.Email, Password: a.Password, GuestCartID: a.GuestCartID})
	if err != nil {
		return err
	}
	return s.signIn(ctx, resp)
}

type Register struct {
	Request models.RegisterRequest
}

func (a Register) apply(ctx context.Context, s *Session) error {
	resp, err := s.api.Register(ctx, a.Request)
	if err != nil {
		return err
	}
	return s.signIn(ctx, resp)
}

// Resume restores a session from a stored token.
type Resume struct {
	Token string
}

func (a Resume) apply(ctx context.Context, s *Session) error {
	s.api.SetToken(a.Token)
	user, err := s.api.Me(ctx)
	if err != nil {
		s.api.SetToken("")
		return err
	}
	s.state.Auth = AuthState{Token: a.Token, User: user}
	return LoadCart{}.apply(ctx, s)
}

type Logout struct{}

func (Logout) apply(_ context.Context, s *Session) error {
	s.api.SetToken("")
	s.state = State{}
	return nil
}

type LoadCart struct{}

func (LoadCart) apply(ctx context.Context, s *Session) error {
	if !s.state.Auth.IsAuthenticated() {
		s.state.Cart = CartState{}
		return nil
	}
	cart, err := s.api.GetCart(ctx)
	if err != nil {
		return err
	}
	s.state.Cart = CartState{Cart: cart}
	return nil
}

type AddToCart struct {
	ProductID bson.ObjectID
	Quantity  int
}

func (a AddToCart) apply(ctx context.Context, s *Session) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	quantity := a.Quantity
	if quantity == 0 {
		quantity = 1
	}
	cart, err := s.api.AddToCart(ctx, a.ProductID, quantity)
	if err != nil {
		return err
	}
	s.state.Cart = CartState{Cart: cart}
	return nil
}

type UpdateItem struct {
	ItemID   bson.ObjectID
	Quantity int
}

func (a UpdateItem) apply(ctx context.Context, s *Session) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	cart, err := s.api.UpdateCartItem(ctx, a.ItemID, a.Quantity)
	if err != nil {
		return err
	}
	s.state.Cart = CartState{Cart: cart}
	return nil
}

type RemoveItem struct {
	ItemID bson.ObjectID
}

func (a RemoveItem) apply(ctx context.Context, s *Session) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	cart, err := s.api.RemoveFromCart(ctx, a.ItemID)
	if err != nil {
		return err
	}
	s.state.Cart = CartState{Cart: cart}
	return nil
}

type ClearCart struct{}

func (ClearCart) apply(ctx context.Context, s *Session) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	cart, err := s.api.ClearCart(ctx)
	if err != nil {
		return err
	}
	s.state.Cart = CartState{Cart: cart}
	return nil
}

// Checkout places an order from the cart and reloads the now empty cart.
type Checkout struct {
	ShippingAddress models.Address
	PaymentMethod   string
}

func (a Checkout) apply(ctx context.Context, s *Session) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	order, err := s.api.CreateOrder(ctx, models.CreateOrderRequest{
		ShippingAddress: a.ShippingAddress,
		PaymentMethod:   a.PaymentMethod,
	})
	if err != nil {
		return err
	}
	s.state.LastOrder = order
	return LoadCart{}.apply(ctx, s)
}
