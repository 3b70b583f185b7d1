package payment

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.mongodb.org/mongo-driver/v2/bson"

	"rootstofarm.com/market/go-api/pkg/models"
)

var (
	ErrPaymentsDisabled = errors.New("payments are not configured")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrAlreadyPaid      = errors.New("order has already been paid")
	ErrOrderCancelled   = errors.New("order has been cancelled")
)

type OrderPayments interface {
	GetOrder(ctx context.Context, actor *models.User, id bson.ObjectID) (*models.Order, error)
	AttachPaymentIntent(ctx context.Context, id bson.ObjectID, intentID string) error
	RecordPayment(ctx context.Context, id bson.ObjectID, paymentStatus, orderStatus string) (*models.Order, error)
}

type Service struct {
	gateway       Gateway
	orders        OrderPayments
	webhookSecret string
	currency      string
}

// NewService builds the payment service. A nil gateway disables intent creation.
func NewService(gateway Gateway, orders OrderPayments, webhookSecret, currency string) *Service {
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &Service{gateway: gateway, orders: orders, webhookSecret: webhookSecret, currency: currency}
}

type IntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// Cents converts a dollar amount to the smallest currency unit.
func Cents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()
}

// CreatePaymentIntent opens a card payment for one of the actor's orders.
func (s *Service) CreatePaymentIntent(ctx context.Context, actor *models.User, orderID bson.ObjectID) (*IntentResponse, error) {
	if s.gateway == nil {
		return nil, ErrPaymentsDisabled
	}
	order, err := s.orders.GetOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if order.HasBeenPaid() {
		return nil, ErrAlreadyPaid
	}
	if order.IsCancelled() {
		return nil, ErrOrderCancelled
	}

	intent, err := s.gateway.CreateIntent(ctx, IntentRequest{
		AmountCents: Cents(order.TotalAmount),
		Currency:    s.currency,
		Metadata: map[string]string{
			"orderId": order.ID.Hex(),
			"userId":  actor.ID.Hex(),
		},
	})
	if err != nil {
		return nil, err
	}

	if err := s.orders.AttachPaymentIntent(ctx, order.ID, intent.ID); err != nil {
		log.WithError(err).WithField("order", order.ID.Hex()).Warn("Failed to store payment intent id")
	}
	return &IntentResponse{ClientSecret: intent.ClientSecret, PaymentIntentID: intent.ID}, nil
}

// HandleWebhook verifies and applies a provider event. Only a bad signature is
// reported; everything after verification is logged and acknowledged.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return errors.Wrap(ErrInvalidSignature, err.Error())
	}

	var paymentStatus, orderStatus string
	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		paymentStatus, orderStatus = models.PaymentCompleted, models.OrderStatusConfirmed
	case stripe.EventTypePaymentIntentPaymentFailed:
		paymentStatus = models.PaymentFailed
	default:
		log.WithField("type", event.Type).Debug("Unhandled webhook event")
		return nil
	}

	entry := log.WithFields(log.Fields{"event": event.ID, "type": event.Type})
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		entry.WithError(err).Error("Malformed payment intent in webhook")
		return nil
	}
	orderID, err := bson.ObjectIDFromHex(intent.Metadata["orderId"])
	if err != nil {
		entry.WithField("orderId", intent.Metadata["orderId"]).Error("Webhook payment intent has no valid order id")
		return nil
	}

	if _, err := s.orders.RecordPayment(ctx, orderID, paymentStatus, orderStatus); err != nil {
		entry.WithError(err).WithField("order", orderID.Hex()).Error("Failed to record payment")
		return nil
	}
	entry.WithField("order", orderID.Hex()).Info("Payment recorded")
	return nil
}
