package events

import (
	"time"

	"rootstofarm.com/market/go-api/pkg/models"
)

const (
	TopicOrderPlaced         = "order.placed"
	TopicOrderCancelled      = "order.cancelled"
	TopicOrderStatusChanged  = "order.status_changed"
	TopicOrderPaymentUpdated = "order.payment_updated"
)

// Event is implemented by everything published on the bus.
type Event interface {
	Topic() string
}

// OrderLine is the per-line part of order events.
type OrderLine struct {
	ProductID string  `json:"product_id"`
	FarmerID  string  `json:"farmer_id"`
	Quantity  int     `json:"quantity"`
	Amount    float64 `json:"amount"`
}

type OrderPlaced struct {
	OrderID     string      `json:"order_id"`
	UserID      string      `json:"user_id"`
	TotalAmount float64     `json:"total_amount"`
	Lines       []OrderLine `json:"lines"`
	PlacedAt    time.Time   `json:"placed_at"`
}

func (OrderPlaced) Topic() string { return TopicOrderPlaced }

type OrderCancelled struct {
	OrderID     string      `json:"order_id"`
	UserID      string      `json:"user_id"`
	Lines       []OrderLine `json:"lines"`
	CancelledAt time.Time   `json:"cancelled_at"`
}

func (OrderCancelled) Topic() string { return TopicOrderCancelled }

type OrderStatusChanged struct {
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

func (OrderStatusChanged) Topic() string { return TopicOrderStatusChanged }

type OrderPaymentUpdated struct {
	OrderID       string    `json:"order_id"`
	PaymentStatus string    `json:"payment_status"`
	OrderStatus   string    `json:"order_status"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (OrderPaymentUpdated) Topic() string { return TopicOrderPaymentUpdated }

func linesOf(o *models.Order) []OrderLine {
	lines := make([]OrderLine, 0, len(o.Items))
	for _, item := range o.Items {
		amount, _ := item.Subtotal().Float64()
		lines = append(lines, OrderLine{
			ProductID: item.Product.Hex(),
			FarmerID:  item.Farmer.Hex(),
			Quantity:  item.Quantity,
			Amount:    amount,
		})
	}
	return lines
}

func NewOrderPlaced(o *models.Order) *OrderPlaced {
	return &OrderPlaced{
		OrderID:     o.ID.Hex(),
		UserID:      o.User.Hex(),
		TotalAmount: o.TotalAmount,
		Lines:       linesOf(o),
		PlacedAt:    o.CreatedAt,
	}
}

func NewOrderCancelled(o *models.Order) *OrderCancelled {
	return &OrderCancelled{
		OrderID:     o.ID.Hex(),
		UserID:      o.User.Hex(),
		Lines:       linesOf(o),
		CancelledAt: time.Now(),
	}
}
