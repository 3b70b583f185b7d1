package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

var OrderStatuses = []string{
	OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
	OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
}

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

const (
	PaymentMethodCard           = "card"
	PaymentMethodCashOnDelivery = "cash_on_delivery"
	PaymentMethodPayPal         = "paypal"
)

func IsOrderStatus(status string) bool {
	for _, s := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// OrderItem is a snapshot of a cart line taken at checkout
type OrderItem struct {
	Product  bson.ObjectID `json:"product" bson:"product"`
	Name     string        `json:"name" bson:"name"`
	Price    float64       `json:"price" bson:"price"`
	Quantity int           `json:"quantity" bson:"quantity"`
	Farmer   bson.ObjectID `json:"farmer" bson:"farmer"`
}

// Subtotal returns price times quantity rounded to cents
func (oi OrderItem) Subtotal() decimal.Decimal {
	return decimal.NewFromFloat(oi.Price).Mul(decimal.NewFromInt(int64(oi.Quantity))).Round(2)
}

// Address represents a shipping address
type Address struct {
	Street  string `json:"street" bson:"street" binding:"required"`
	City    string `json:"city" bson:"city" binding:"required"`
	State   string `json:"state" bson:"state"`
	ZipCode string `json:"zipCode" bson:"zip_code" binding:"required"`
	Country string `json:"country" bson:"country"`
}

// Order represents a placed order. Items are never modified after creation.
type Order struct {
	ID              bson.ObjectID `json:"id" bson:"_id,omitempty"`
	User            bson.ObjectID `json:"user" bson:"user"`
	Items           []OrderItem   `json:"items" bson:"items"`
	TotalAmount     float64       `json:"totalAmount" bson:"total_amount"`
	ShippingAddress Address       `json:"shippingAddress" bson:"shipping_address"`
	PaymentMethod   string        `json:"paymentMethod" bson:"payment_method"`
	PaymentStatus   string        `json:"paymentStatus" bson:"payment_status"`
	OrderStatus     string        `json:"orderStatus" bson:"order_status"`
	PaymentIntentID string        `json:"paymentIntentId,omitempty" bson:"payment_intent_id,omitempty"`
	CreatedAt       time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time     `json:"updatedAt" bson:"updated_at"`
}

type CreateOrderRequest struct {
	ShippingAddress Address `json:"shippingAddress" binding:"required"`
	PaymentMethod   string  `json:"paymentMethod" binding:"required,oneof=card cash_on_delivery paypal"`
}

type UpdateOrderStatusRequest struct {
	OrderStatus string `json:"orderStatus" binding:"required,oneof=pending confirmed processing shipped delivered cancelled"`
}

// CalculateTotal sums the item subtotals
func (o *Order) CalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	o.TotalAmount, _ = total.Round(2).Float64()
}

// SetTimestamps sets created_at and updated_at timestamps
func (o *Order) SetTimestamps() {
	now := time.Now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
}

// GetItemCount returns the total number of units in the order
func (o *Order) GetItemCount() int {
	var count int
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

// HasBeenPaid checks if payment has been completed
func (o *Order) HasBeenPaid() bool {
	return o.PaymentStatus == PaymentCompleted
}

// IsCancelled reports whether the order reached its terminal cancelled state
func (o *Order) IsCancelled() bool {
	return o.OrderStatus == OrderStatusCancelled
}

// CanBeCancelled reports whether the order has not left the farm yet
func (o *Order) CanBeCancelled() bool {
	switch o.OrderStatus {
	case OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return false
	}
	return true
}

// ShortID is the human facing order reference: last 8 hex chars, upper-cased
func (o *Order) ShortID() string {
	hex := o.ID.Hex()
	return strings.ToUpper(hex[len(hex)-8:])
}

// FarmerIDs lists the distinct farmers represented in the order
func (o *Order) FarmerIDs() []bson.ObjectID {
	seen := make(map[bson.ObjectID]bool)
	var ids []bson.ObjectID
	for _, item := range o.Items {
		if seen[item.Farmer] {
			continue
		}
		seen[item.Farmer] = true
		ids = append(ids, item.Farmer)
	}
	return ids
}

// ItemsForFarmer returns only the lines supplied by farmer
func (o *Order) ItemsForFarmer(farmer bson.ObjectID) []OrderItem {
	var items []OrderItem
	for _, item := range o.Items {
		if item.Farmer == farmer {
			items = append(items, item)
		}
	}
	return items
}

// HasFarmer reports whether any line belongs to farmer
func (o *Order) HasFarmer(farmer bson.ObjectID) bool {
	return len(o.ItemsForFarmer(farmer)) > 0
}
