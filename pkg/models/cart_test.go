package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func assertTotalsMatchItems(t *testing.T, c *Cart) {
	t.Helper()
	want := RecomputeTotals(*c)
	assert.Equal(t, want.TotalAmount, c.TotalAmount, "totalAmount drifted from items")
	assert.Equal(t, want.TotalItems, c.TotalItems, "totalItems drifted from items")
}

func TestRecomputeTotals(t *testing.T) {
	c := Cart{Items: []CartItem{
		{Product: bson.NewObjectID(), Quantity: 3, Price: 0.1},
		{Product: bson.NewObjectID(), Quantity: 2, Price: 4.25},
	}}

	got := RecomputeTotals(c)

	assert.Equal(t, 8.8, got.TotalAmount)
	assert.Equal(t, 5, got.TotalItems)
	assert.Zero(t, c.TotalAmount, "input cart must not be modified")
}

func TestAddItemMergesExistingLine(t *testing.T) {
	c := NewCart(bson.NewObjectID())
	apple := bson.NewObjectID()

	require.NoError(t, c.AddItem(apple, 5, 2))
	require.NoError(t, c.AddItem(apple, 3, 9))

	require.Len(t, c.Items, 1)
	assert.Equal(t, 8, c.Items[0].Quantity)
	assert.Equal(t, 2.0, c.Items[0].Price, "captured price is kept")
	assert.Equal(t, 16.0, c.TotalAmount)
	assertTotalsMatchItems(t, c)
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	c := NewCart(bson.NewObjectID())

	assert.ErrorIs(t, c.AddItem(bson.NewObjectID(), 0, 1), ErrInvalidQuantity)
	assert.ErrorIs(t, c.AddItem(bson.NewObjectID(), -2, 1), ErrInvalidQuantity)
	assert.True(t, c.IsEmpty())
}

func TestUpdateItemQuantity(t *testing.T) {
	c := NewCart(bson.NewObjectID())
	require.NoError(t, c.AddItem(bson.NewObjectID(), 2, 5))
	itemID := c.Items[0].ID

	t.Run("overwrites quantity", func(t *testing.T) {
		require.NoError(t, c.UpdateItemQuantity(itemID, 7))
		assert.Equal(t, 7, c.Items[0].Quantity)
		assert.Equal(t, 35.0, c.TotalAmount)
		assertTotalsMatchItems(t, c)
	})

	t.Run("rejects zero and negative", func(t *testing.T) {
		assert.ErrorIs(t, c.UpdateItemQuantity(itemID, 0), ErrInvalidQuantity)
		assert.ErrorIs(t, c.UpdateItemQuantity(itemID, -1), ErrInvalidQuantity)
		assert.Equal(t, 7, c.Items[0].Quantity)
	})

	t.Run("unknown item", func(t *testing.T) {
		assert.ErrorIs(t, c.UpdateItemQuantity(bson.NewObjectID(), 1), ErrCartItemNotFound)
	})
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	c := NewCart(bson.NewObjectID())
	require.NoError(t, c.AddItem(bson.NewObjectID(), 1, 3))
	require.NoError(t, c.AddItem(bson.NewObjectID(), 2, 4))
	first := c.Items[0].ID

	c.RemoveItem(first)
	c.RemoveItem(first)
	c.RemoveItem(bson.NewObjectID())

	require.Len(t, c.Items, 1)
	assert.Equal(t, 8.0, c.TotalAmount)
	assert.Equal(t, 2, c.TotalItems)
}

func TestClear(t *testing.T) {
	c := NewCart(bson.NewObjectID())
	require.NoError(t, c.AddItem(bson.NewObjectID(), 4, 1.5))

	c.Clear()

	assert.True(t, c.IsEmpty())
	assert.Zero(t, c.TotalAmount)
	assert.Zero(t, c.TotalItems)
	assert.Equal(t, EmptyCartSummary(), c.Summary())
}

func TestLookups(t *testing.T) {
	c := NewCart(bson.NewObjectID())
	carrot := bson.NewObjectID()
	require.NoError(t, c.AddItem(carrot, 1, 1))

	assert.True(t, c.HasProduct(carrot))
	assert.False(t, c.HasProduct(bson.NewObjectID()))
	require.NotNil(t, c.GetItemByProductID(carrot))
	assert.Nil(t, c.GetItemByProductID(bson.NewObjectID()))
	assert.Equal(t, []bson.ObjectID{carrot}, c.ProductIDs())
}

func TestValidateStock(t *testing.T) {
	missing := bson.NewObjectID()
	hidden := &Product{ID: bson.NewObjectID(), Name: "Kale", Stock: 10, IsAvailable: false}
	scarce := &Product{ID: bson.NewObjectID(), Name: "Honey", Stock: 2, IsAvailable: true}
	plenty := &Product{ID: bson.NewObjectID(), Name: "Eggs", Stock: 50, IsAvailable: true}

	c := NewCart(bson.NewObjectID())
	require.NoError(t, c.AddItem(missing, 1, 1))
	require.NoError(t, c.AddItem(hidden.ID, 1, 1))
	require.NoError(t, c.AddItem(scarce.ID, 3, 1))
	require.NoError(t, c.AddItem(plenty.ID, 3, 1))
	before := *c

	problems := c.ValidateStock(map[bson.ObjectID]*Product{
		hidden.ID: hidden, scarce.ID: scarce, plenty.ID: plenty,
	})

	require.Len(t, problems, 3)
	assert.Contains(t, problems[0], missing.Hex())
	assert.Equal(t, `Product "Kale" is not available`, problems[1])
	assert.Equal(t, `Insufficient stock for "Honey". Available: 2, Requested: 3`, problems[2])
	assert.Equal(t, before.Items, c.Items)
}

func TestMergeCarts(t *testing.T) {
	shared := bson.NewObjectID()
	onlySource := bson.NewObjectID()

	source := NewCart(bson.NewObjectID())
	require.NoError(t, source.AddItem(shared, 2, 3))
	require.NoError(t, source.AddItem(onlySource, 1, 10))

	target := NewCart(bson.NewObjectID())
	require.NoError(t, target.AddItem(shared, 4, 3))

	MergeCarts(source, target)

	require.Len(t, target.Items, 2)
	assert.Equal(t, 6, target.GetItemByProductID(shared).Quantity)
	assert.Equal(t, 1, target.GetItemByProductID(onlySource).Quantity)
	assert.Equal(t, 28.0, target.TotalAmount)
	assertTotalsMatchItems(t, target)
	assert.Len(t, source.Items, 2, "source is emptied by the caller after target is saved")
}

func TestDetailsHidesUnavailableProducts(t *testing.T) {
	live := &Product{ID: bson.NewObjectID(), Name: "Milk", Price: 3, IsAvailable: true}
	gone := &Product{ID: bson.NewObjectID(), Name: "Figs", Price: 8, IsAvailable: false}

	c := NewCart(bson.NewObjectID())
	require.NoError(t, c.AddItem(live.ID, 1, 3))
	require.NoError(t, c.AddItem(gone.ID, 1, 8))

	details := c.Details(map[bson.ObjectID]*Product{live.ID: live, gone.ID: gone})

	require.Len(t, details.Items, 2)
	require.NotNil(t, details.Items[0].Product)
	assert.Equal(t, "Milk", details.Items[0].Product.Name)
	assert.Nil(t, details.Items[1].Product)
	assert.Equal(t, 11.0, details.TotalAmount)
}

func TestSummary(t *testing.T) {
	c := NewCart(bson.NewObjectID())
	require.NoError(t, c.AddItem(bson.NewObjectID(), 2, 1.25))
	require.NoError(t, c.AddItem(bson.NewObjectID(), 1, 4))

	assert.Equal(t, CartSummary{TotalItems: 3, TotalAmount: 6.5, ItemCount: 2}, c.Summary())
}

func TestAddToCartRequestAmount(t *testing.T) {
	tests := []struct {
		body string
		want int
	}{
		{`{"productId":"x"}`, 1},
		{`{"productId":"x","quantity":3}`, 3},
		{`{"productId":"x","quantity":0}`, 0},
		{`{"productId":"x","quantity":-2}`, -2},
	}
	for _, tt := range tests {
		var req AddToCartRequest
		require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
		assert.Equal(t, tt.want, req.Amount(), tt.body)
	}
}
