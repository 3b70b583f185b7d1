package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestCalculateTotal(t *testing.T) {
	o := &Order{Items: []OrderItem{
		{Name: "A", Price: 5, Quantity: 2},
		{Name: "B", Price: 10, Quantity: 1},
	}}

	o.CalculateTotal()

	assert.Equal(t, 20.0, o.TotalAmount)
	assert.Equal(t, 3, o.GetItemCount())
}

func TestCanBeCancelled(t *testing.T) {
	cases := map[string]bool{
		OrderStatusPending:    true,
		OrderStatusConfirmed:  true,
		OrderStatusProcessing: true,
		OrderStatusShipped:    false,
		OrderStatusDelivered:  false,
		OrderStatusCancelled:  false,
	}
	for status, want := range cases {
		o := &Order{OrderStatus: status}
		assert.Equal(t, want, o.CanBeCancelled(), status)
	}
}

func TestShortID(t *testing.T) {
	id, err := bson.ObjectIDFromHex("64b7f0c2a1b2c3d4e5f6a7b8")
	assert.NoError(t, err)

	o := &Order{ID: id}

	assert.Equal(t, "E5F6A7B8", o.ShortID())
}

func TestFarmerViews(t *testing.T) {
	alice, bob := bson.NewObjectID(), bson.NewObjectID()
	o := &Order{Items: []OrderItem{
		{Name: "Beans", Farmer: alice},
		{Name: "Corn", Farmer: bob},
		{Name: "Peas", Farmer: alice},
	}}

	assert.Equal(t, []bson.ObjectID{alice, bob}, o.FarmerIDs())
	assert.Len(t, o.ItemsForFarmer(alice), 2)
	assert.True(t, o.HasFarmer(bob))
	assert.False(t, o.HasFarmer(bson.NewObjectID()))
}

func TestIsOrderStatus(t *testing.T) {
	assert.True(t, IsOrderStatus("shipped"))
	assert.False(t, IsOrderStatus("lost"))
}
