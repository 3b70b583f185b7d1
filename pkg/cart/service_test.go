package cart

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"rootstofarm.com/market/go-api/internal/memstore"
	"rootstofarm.com/market/go-api/pkg/models"
)

type fixture struct {
	store   *memstore.Store
	service *Service
	user    bson.ObjectID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	return &fixture{
		store:   store,
		service: NewService(store.Products(), store.Carts(), store.GuestCarts()),
		user:    bson.NewObjectID(),
	}
}

func (f *fixture) product(name string, price float64, stock int) *models.Product {
	p := &models.Product{
		ID:          bson.NewObjectID(),
		Name:        name,
		Price:       price,
		Stock:       stock,
		IsAvailable: true,
		Farmer:      bson.NewObjectID(),
	}
	f.store.Products().Put(p)
	return p
}

func TestAddToCartCumulativeStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eggs := f.product("Eggs", 4, 10)

	_, err := f.service.AddToCart(ctx, f.user, eggs.ID, 5)
	require.NoError(t, err)

	details, err := f.service.AddToCart(ctx, f.user, eggs.ID, 3)
	require.NoError(t, err, "5+3 fits a stock of 10")
	assert.Equal(t, 8, details.Items[0].Quantity)

	_, err = f.service.AddToCart(ctx, f.user, eggs.ID, 8)
	require.Error(t, err, "8 alone fits but 8+8 does not")
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var stockErr *StockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 16, stockErr.Requested)
	assert.Equal(t, 10, stockErr.Available)
	assert.Equal(t, "Insufficient stock. Cannot add 8 more. Total would be 16 but only 10 available", stockErr.Error())

	c, err := f.store.Carts().FindByUser(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, 8, c.TotalItems, "rejected add leaves the cart untouched")
}

func TestAddToCartValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	honey := f.product("Honey", 9, 2)
	hidden := f.product("Truffle", 90, 5)
	hidden.IsAvailable = false
	f.store.Products().Put(hidden)

	_, err := f.service.AddToCart(ctx, f.user, honey.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = f.service.AddToCart(ctx, f.user, bson.NewObjectID(), 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = f.service.AddToCart(ctx, f.user, hidden.ID, 1)
	assert.ErrorIs(t, err, ErrProductUnavailable)

	_, err = f.service.AddToCart(ctx, f.user, honey.ID, 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.EqualError(t, err, "Insufficient stock. Only 2 available")
}

func TestAddToCartCapturesPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	milk := f.product("Milk", 3, 10)

	_, err := f.service.AddToCart(ctx, f.user, milk.ID, 2)
	require.NoError(t, err)

	milk.Price = 5
	f.store.Products().Put(milk)

	details, err := f.service.AddToCart(ctx, f.user, milk.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 3.0, details.Items[0].Price)
	assert.Equal(t, 9.0, details.TotalAmount)
	assert.Equal(t, 5.0, details.Items[0].Product.Price, "product summary shows the live price")
}

func TestUpdateCartItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	corn := f.product("Corn", 1, 6)

	_, err := f.service.UpdateCartItem(ctx, f.user, bson.NewObjectID(), 1)
	assert.ErrorIs(t, err, ErrCartNotFound)

	details, err := f.service.AddToCart(ctx, f.user, corn.ID, 5)
	require.NoError(t, err)
	itemID := details.Items[0].ID

	for _, q := range []int{0, -3} {
		_, err = f.service.UpdateCartItem(ctx, f.user, itemID, q)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}

	_, err = f.service.UpdateCartItem(ctx, f.user, bson.NewObjectID(), 2)
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = f.service.UpdateCartItem(ctx, f.user, itemID, 7)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	details, err = f.service.UpdateCartItem(ctx, f.user, itemID, 6)
	require.NoError(t, err, "absolute quantity, not a delta")
	assert.Equal(t, 6, details.TotalItems)
	assert.Equal(t, 6.0, details.TotalAmount)
}

func TestRemoveAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product("A", 2, 10)
	b := f.product("B", 3, 10)

	_, err := f.service.RemoveFromCart(ctx, f.user, bson.NewObjectID())
	assert.ErrorIs(t, err, ErrCartNotFound)
	_, err = f.service.ClearCart(ctx, f.user)
	assert.ErrorIs(t, err, ErrCartNotFound)

	_, err = f.service.AddToCart(ctx, f.user, a.ID, 1)
	require.NoError(t, err)
	details, err := f.service.AddToCart(ctx, f.user, b.ID, 2)
	require.NoError(t, err)

	details, err = f.service.RemoveFromCart(ctx, f.user, details.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 6.0, details.TotalAmount)

	_, err = f.service.RemoveFromCart(ctx, f.user, bson.NewObjectID())
	require.NoError(t, err, "removing an absent line is not an error")

	details, err = f.service.ClearCart(ctx, f.user)
	require.NoError(t, err)
	assert.Empty(t, details.Items)
	assert.Zero(t, details.TotalAmount)
}

func TestGetCartSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, models.EmptyCartSummary(), f.service.GetCartSummary(ctx, f.user))

	p := f.product("Figs", 2.5, 10)
	_, err := f.service.AddToCart(ctx, f.user, p.ID, 2)
	require.NoError(t, err)

	summary := f.service.GetCartSummary(ctx, f.user)
	assert.Equal(t, models.CartSummary{TotalItems: 2, TotalAmount: 5, ItemCount: 1}, summary)
}

type failingCarts struct{ CartStore }

func (failingCarts) FindByUser(context.Context, bson.ObjectID) (*models.Cart, error) {
	return nil, errors.New("connection reset")
}

func TestGetCartSummaryDegradesOnStoreFailure(t *testing.T) {
	store := memstore.New()
	service := NewService(store.Products(), failingCarts{store.Carts()}, store.GuestCarts())

	summary := service.GetCartSummary(context.Background(), bson.NewObjectID())

	assert.Equal(t, models.EmptyCartSummary(), summary)
}

func TestValidateCartForCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result := f.service.ValidateCartForCheckout(ctx, f.user)
	assert.False(t, result.IsValid)
	assert.Equal(t, "Cart is empty", result.Error)
	assert.Nil(t, result.Cart)

	_, err := f.service.GetCart(ctx, f.user)
	require.NoError(t, err)
	result = f.service.ValidateCartForCheckout(ctx, f.user)
	assert.False(t, result.IsValid)
	assert.Nil(t, result.Cart)

	pear := f.product("Pear", 1, 5)
	plum := f.product("Plum", 2, 5)
	_, err = f.service.AddToCart(ctx, f.user, pear.ID, 4)
	require.NoError(t, err)
	_, err = f.service.AddToCart(ctx, f.user, plum.ID, 1)
	require.NoError(t, err)

	result = f.service.ValidateCartForCheckout(ctx, f.user)
	require.True(t, result.IsValid)
	assert.Equal(t, 6.0, result.TotalAmount)
	assert.Equal(t, 5, result.TotalItems)
	assert.Len(t, result.Products, 2)

	pear.Stock = 1
	f.store.Products().Put(pear)
	plum.IsAvailable = false
	f.store.Products().Put(plum)

	result = f.service.ValidateCartForCheckout(ctx, f.user)
	assert.False(t, result.IsValid)
	assert.Nil(t, result.Cart)
	assert.Equal(t, `Insufficient stock for "Pear". Available: 1, Requested: 4, Product "Plum" is not available`, result.Error)
	assert.NoError(t, result.Err, "a cart that fails validation is not a store failure")
}

func TestValidateCartForCheckoutReportsStoreFailure(t *testing.T) {
	store := memstore.New()
	service := NewService(store.Products(), failingCarts{store.Carts()}, store.GuestCarts())

	result := service.ValidateCartForCheckout(context.Background(), bson.NewObjectID())

	assert.False(t, result.IsValid)
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "connection reset")
}

func TestGuestCartTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shared := f.product("Kale", 2, 20)
	guestOnly := f.product("Leek", 1, 20)

	guest, err := f.service.CreateGuestCart(ctx)
	require.NoError(t, err)
	_, err = f.service.AddToGuestCart(ctx, guest.ID, shared.ID, 3)
	require.NoError(t, err)
	_, err = f.service.AddToGuestCart(ctx, guest.ID, guestOnly.ID, 2)
	require.NoError(t, err)

	_, err = f.service.AddToCart(ctx, f.user, shared.ID, 4)
	require.NoError(t, err)

	details := f.service.TransferGuestCart(ctx, guest.ID, f.user)
	require.NotNil(t, details)
	require.Len(t, details.Items, 2)
	assert.Equal(t, 7, details.Items[0].Quantity)
	assert.Equal(t, 2, details.Items[1].Quantity)
	assert.Equal(t, 16.0, details.TotalAmount)

	emptied, err := f.service.GetGuestCart(ctx, guest.ID)
	require.NoError(t, err)
	assert.Empty(t, emptied.Items)
}

type brokenGuests struct{ GuestCartStore }

func (brokenGuests) Load(context.Context, string) (*models.Cart, error) {
	return nil, errors.New("redis down")
}

func TestTransferGuestCartNeverFails(t *testing.T) {
	store := memstore.New()
	service := NewService(store.Products(), store.Carts(), brokenGuests{store.GuestCarts()})

	details := service.TransferGuestCart(context.Background(), "some-guest", bson.NewObjectID())

	require.NotNil(t, details)
	assert.Empty(t, details.Items)
}

func TestAddToGuestCartCumulativeStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	jam := f.product("Jam", 6, 4)
	guest, err := f.service.CreateGuestCart(ctx)
	require.NoError(t, err)

	_, err = f.service.AddToGuestCart(ctx, guest.ID, jam.ID, 3)
	require.NoError(t, err)
	_, err = f.service.AddToGuestCart(ctx, guest.ID, jam.ID, 2)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}
