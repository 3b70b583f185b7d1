package orders

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"

	"rootstofarm.com/market/go-api/pkg/cart"
	"rootstofarm.com/market/go-api/pkg/events"
	"rootstofarm.com/market/go-api/pkg/models"
)

type ProductStore interface {
	DecrementStock(ctx context.Context, id bson.ObjectID, qty int) error
	IncrementStock(ctx context.Context, id bson.ObjectID, qty int) error
}

type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Order, error)
	ListByUser(ctx context.Context, user bson.ObjectID) ([]*models.Order, error)
	UpdateStatus(ctx context.Context, id bson.ObjectID, status string) (*models.Order, error)
	MarkCancelled(ctx context.Context, id bson.ObjectID) (*models.Order, error)
	UpdatePayment(ctx context.Context, id bson.ObjectID, paymentStatus, orderStatus string) (*models.Order, error)
	SetPaymentIntent(ctx context.Context, id bson.ObjectID, intentID string) error
}

type CartStore interface {
	Save(ctx context.Context, c *models.Cart) error
}

type CheckoutValidator interface {
	ValidateCartForCheckout(ctx context.Context, user bson.ObjectID) cart.CheckoutValidation
}

type UserLookup interface {
	FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
}

type Notifier interface {
	OrderConfirmation(ctx context.Context, user *models.User, order *models.Order) error
	FarmerOrderNotification(ctx context.Context, farmer *models.User, order *models.Order, items []models.OrderItem) error
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Deps struct {
	Products  ProductStore
	Orders    OrderStore
	Carts     CartStore
	Checkout  CheckoutValidator
	Users     UserLookup
	Notifier  Notifier
	Publisher Publisher
}

// Service places orders and drives their lifecycle afterwards.
type Service struct {
	products  ProductStore
	orders    OrderStore
	carts     CartStore
	checkout  CheckoutValidator
	users     UserLookup
	notifier  Notifier
	publisher Publisher
}

func NewService(d Deps) *Service {
	return &Service{
		products:  d.Products,
		orders:    d.Orders,
		carts:     d.Carts,
		checkout:  d.Checkout,
		users:     d.Users,
		notifier:  d.Notifier,
		publisher: d.Publisher,
	}
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.WithError(err).WithField("topic", event.Topic()).Warn("Failed to publish order event")
	}
}

func (s *Service) load(ctx context.Context, id bson.ObjectID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	return order, err
}

// snapshot copies cart lines into order lines. The price is the one captured
// when the line was added, not the live product price.
func snapshot(c *models.Cart, products map[bson.ObjectID]*models.Product) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(c.Items))
	for _, line := range c.Items {
		product := products[line.Product]
		items = append(items, models.OrderItem{
			Product:  line.Product,
			Name:     product.Name,
			Price:    line.Price,
			Quantity: line.Quantity,
			Farmer:   product.Farmer,
		})
	}
	return items
}

// reserve decrements stock for every line. Either all lines are reserved or none.
func (s *Service) reserve(ctx context.Context, items []models.OrderItem) error {
	for i, item := range items {
		err := s.products.DecrementStock(ctx, item.Product, item.Quantity)
		if err == nil {
			continue
		}
		s.release(ctx, items[:i])
		if errors.Is(err, models.ErrInsufficientStock) {
			return errors.Wrapf(ErrInsufficientStock, "Insufficient stock for %q", item.Name)
		}
		return err
	}
	return nil
}

// release gives stock back. A product deleted since the order was placed is skipped.
func (s *Service) release(ctx context.Context, items []models.OrderItem) {
	for _, item := range items {
		if err := s.products.IncrementStock(ctx, item.Product, item.Quantity); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"product":  item.Product.Hex(),
				"quantity": item.Quantity,
			}).Warn("Failed to restore stock")
		}
	}
}

// PlaceOrder turns the user's cart into an order.
func (s *Service) PlaceOrder(ctx context.Context, user *models.User, req models.CreateOrderRequest) (*models.Order, error) {
	validation := s.checkout.ValidateCartForCheckout(ctx, user.ID)
	if validation.Err != nil {
		return nil, errors.Wrap(validation.Err, "validate cart")
	}
	if !validation.IsValid {
		if validation.Error == cart.EmptyCartMessage {
			return nil, ErrCartEmpty
		}
		return nil, &CheckoutError{Reason: validation.Error}
	}
	c := validation.Cart

	order := &models.Order{
		ID:              bson.NewObjectID(),
		User:            user.ID,
		Items:           snapshot(c, validation.Products),
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   models.PaymentPending,
		OrderStatus:     models.OrderStatusPending,
	}
	order.CalculateTotal()

	if err := s.reserve(ctx, order.Items); err != nil {
		return nil, err
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.release(ctx, order.Items)
		return nil, err
	}

	c.Clear()
	if err := s.carts.Save(ctx, c); err != nil {
		// the order stands; a stale cart is recoverable by the user
		log.WithError(err).WithField("order", order.ID.Hex()).Error("Failed to clear cart after order")
	}

	log.WithFields(log.Fields{
		"order": order.ID.Hex(),
		"user":  user.ID.Hex(),
		"total": order.TotalAmount,
	}).Info("Order placed")

	s.publish(ctx, events.NewOrderPlaced(order))
	s.notify(ctx, user, order)
	return order, nil
}

// notify emails the buyer and every farmer in the order. Failures are logged only.
func (s *Service) notify(ctx context.Context, buyer *models.User, order *models.Order) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.OrderConfirmation(ctx, buyer, order); err != nil {
		log.WithError(err).WithField("order", order.ID.Hex()).Warn("Order confirmation email failed")
	}

	for _, farmerID := range order.FarmerIDs() {
		farmer, err := s.users.FindByID(ctx, farmerID)
		if err != nil {
			log.WithError(err).WithField("farmer", farmerID.Hex()).Warn("Farmer lookup for notification failed")
			continue
		}
		if err := s.notifier.FarmerOrderNotification(ctx, farmer, order, order.ItemsForFarmer(farmerID)); err != nil {
			log.WithError(err).WithField("farmer", farmerID.Hex()).Warn("Farmer notification email failed")
		}
	}
}

func (s *Service) GetMyOrders(ctx context.Context, user bson.ObjectID) ([]*models.Order, error) {
	return s.orders.ListByUser(ctx, user)
}

// GetOrder returns an order to its owner or an admin.
func (s *Service) GetOrder(ctx context.Context, actor *models.User, id bson.ObjectID) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.User != actor.ID && !actor.IsAdmin() {
		return nil, ErrAccessDenied
	}
	return order, nil
}

// UpdateStatus is open to admins and to farmers with items in the order.
// Moving to cancelled goes through the cancellation path so stock comes back.
func (s *Service) UpdateStatus(ctx context.Context, actor *models.User, id bson.ObjectID, status string) (*models.Order, error) {
	if !models.IsOrderStatus(status) {
		return nil, ErrInvalidStatus
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !(actor.IsFarmer() && order.HasFarmer(actor.ID)) {
		return nil, ErrAccessDenied
	}

	if status == models.OrderStatusCancelled {
		return s.cancel(ctx, order, actor)
	}
	if order.IsCancelled() {
		return nil, ErrOrderCancelled
	}

	// The store skips cancelled orders, so a miss here means a concurrent cancel.
	updated, err := s.orders.UpdateStatus(ctx, id, status)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrOrderCancelled
	}
	if err != nil {
		return nil, err
	}
	s.publish(ctx, &events.OrderStatusChanged{
		OrderID:   updated.ID.Hex(),
		Status:    status,
		ChangedBy: actor.ID.Hex(),
		ChangedAt: time.Now(),
	})
	return updated, nil
}

// Cancel lets the buyer cancel an order that has not shipped.
func (s *Service) Cancel(ctx context.Context, actor *models.User, id bson.ObjectID) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.User != actor.ID {
		return nil, ErrAccessDenied
	}
	return s.cancel(ctx, order, actor)
}

// cancel flips the status with a conditional update first, so that of two
// racing cancellations only one restores stock.
func (s *Service) cancel(ctx context.Context, order *models.Order, actor *models.User) (*models.Order, error) {
	if !order.CanBeCancelled() {
		return nil, ErrNotCancellable
	}
	cancelled, err := s.orders.MarkCancelled(ctx, order.ID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrNotCancellable
	}
	if err != nil {
		return nil, err
	}

	s.release(ctx, cancelled.Items)

	log.WithFields(log.Fields{
		"order": cancelled.ID.Hex(),
		"by":    actor.ID.Hex(),
	}).Info("Order cancelled")
	s.publish(ctx, events.NewOrderCancelled(cancelled))
	return cancelled, nil
}

// RecordPayment applies a payment outcome reported by the payment provider.
// Cancelled orders are never reopened; their stock has already been released.
func (s *Service) RecordPayment(ctx context.Context, id bson.ObjectID, paymentStatus, orderStatus string) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.IsCancelled() {
		log.WithFields(log.Fields{"order": id.Hex(), "paymentStatus": paymentStatus}).
			Warn("Payment reported for a cancelled order")
		return nil, ErrOrderCancelled
	}

	updated, err := s.orders.UpdatePayment(ctx, id, paymentStatus, orderStatus)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrOrderCancelled
	}
	if err != nil {
		return nil, err
	}
	s.publish(ctx, &events.OrderPaymentUpdated{
		OrderID:       updated.ID.Hex(),
		PaymentStatus: updated.PaymentStatus,
		OrderStatus:   updated.OrderStatus,
		UpdatedAt:     updated.UpdatedAt,
	})
	return updated, nil
}

// AttachPaymentIntent remembers the provider intent created for an order.
func (s *Service) AttachPaymentIntent(ctx context.Context, id bson.ObjectID, intentID string) error {
	err := s.orders.SetPaymentIntent(ctx, id, intentID)
	if errors.Is(err, models.ErrNotFound) {
		return ErrOrderNotFound
	}
	return err
}
