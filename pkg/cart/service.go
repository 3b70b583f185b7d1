package cart

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"

	"rootstofarm.com/market/go-api/pkg/models"
)

type ProductStore interface {
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]*models.Product, error)
}

type CartStore interface {
	FindByUser(ctx context.Context, user bson.ObjectID) (*models.Cart, error)
	FindOrCreate(ctx context.Context, user bson.ObjectID) (*models.Cart, error)
	Save(ctx context.Context, c *models.Cart) error
}

type GuestCartStore interface {
	NewID() string
	Load(ctx context.Context, id string) (*models.Cart, error)
	Save(ctx context.Context, id string, c *models.Cart) error
	Clear(ctx context.Context, id string) error
}

// Service applies stock-aware mutations to carts.
type Service struct {
	products ProductStore
	carts    CartStore
	guests   GuestCartStore
}

func NewService(products ProductStore, carts CartStore, guests GuestCartStore) *Service {
	return &Service{products: products, carts: carts, guests: guests}
}

// EmptyCartMessage is the validation error for a cart with no lines.
const EmptyCartMessage = "Cart is empty"

// CheckoutValidation is the structured result of ValidateCartForCheckout.
// Cart and Products are only set when IsValid. Err is set when the cart could
// not be read at all, as opposed to a cart that failed validation.
type CheckoutValidation struct {
	IsValid     bool                              `json:"isValid"`
	Error       string                            `json:"error,omitempty"`
	Err         error                             `json:"-"`
	Cart        *models.Cart                      `json:"cart"`
	TotalAmount float64                           `json:"totalAmount"`
	TotalItems  int                               `json:"totalItems"`
	Products    map[bson.ObjectID]*models.Product `json:"-"`
}

func (s *Service) loadProduct(ctx context.Context, id bson.ObjectID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return product, err
}

func (s *Service) loadCart(ctx context.Context, user bson.ObjectID) (*models.Cart, error) {
	c, err := s.carts.FindByUser(ctx, user)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrCartNotFound
	}
	return c, err
}

// details assembles c with its live products.
func (s *Service) details(ctx context.Context, c *models.Cart) (*models.CartDetails, error) {
	products, err := s.products.FindByIDs(ctx, c.ProductIDs())
	if err != nil {
		return nil, err
	}
	return c.Details(products), nil
}

// checkAdd validates adding quantity units of product on top of existing units.
func checkAdd(product *models.Product, existing, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if !product.IsAvailable {
		return ErrProductUnavailable
	}
	if product.Stock < quantity {
		return &StockError{Product: product.Name, Available: product.Stock, Requested: quantity}
	}
	if total := existing + quantity; product.Stock < total {
		return &StockError{Product: product.Name, Available: product.Stock, Requested: total, Adding: quantity}
	}
	return nil
}

// GetCart returns the user's cart with product details, creating it on first use.
func (s *Service) GetCart(ctx context.Context, user bson.ObjectID) (*models.CartDetails, error) {
	c, err := s.carts.FindOrCreate(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, c)
}

// AddToCart adds quantity units of productID. Stock is checked against the
// requested quantity and against the line's total after the add.
func (s *Service) AddToCart(ctx context.Context, user, productID bson.ObjectID, quantity int) (*models.CartDetails, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := checkAdd(product, 0, quantity); err != nil {
		return nil, err
	}

	c, err := s.carts.FindOrCreate(ctx, user)
	if err != nil {
		return nil, err
	}
	existing := 0
	if item := c.GetItemByProductID(productID); item != nil {
		existing = item.Quantity
	}
	if err := checkAdd(product, existing, quantity); err != nil {
		return nil, err
	}

	if err := c.AddItem(product.ID, quantity, product.Price); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return s.details(ctx, c)
}

// UpdateCartItem sets the absolute quantity of a cart line.
func (s *Service) UpdateCartItem(ctx context.Context, user, itemID bson.ObjectID, quantity int) (*models.CartDetails, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	c, err := s.loadCart(ctx, user)
	if err != nil {
		return nil, err
	}
	item := c.GetItem(itemID)
	if item == nil {
		return nil, ErrItemNotFound
	}
	product, err := s.loadProduct(ctx, item.Product)
	if err != nil {
		return nil, err
	}
	if product.Stock < quantity {
		return nil, &StockError{Product: product.Name, Available: product.Stock, Requested: quantity}
	}

	if err := c.UpdateItemQuantity(itemID, quantity); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return s.details(ctx, c)
}

// RemoveFromCart drops a line; removing an absent line succeeds.
func (s *Service) RemoveFromCart(ctx context.Context, user, itemID bson.ObjectID) (*models.CartDetails, error) {
	c, err := s.loadCart(ctx, user)
	if err != nil {
		return nil, err
	}
	c.RemoveItem(itemID)
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return s.details(ctx, c)
}

func (s *Service) ClearCart(ctx context.Context, user bson.ObjectID) (*models.CartDetails, error) {
	c, err := s.loadCart(ctx, user)
	if err != nil {
		return nil, err
	}
	c.Clear()
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return c.Details(nil), nil
}

// GetCartSummary never fails; any problem yields the empty summary.
func (s *Service) GetCartSummary(ctx context.Context, user bson.ObjectID) models.CartSummary {
	c, err := s.carts.FindByUser(ctx, user)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			log.WithError(err).WithField("user", user.Hex()).Warn("Error getting cart summary")
		}
		return models.EmptyCartSummary()
	}
	return c.Summary()
}

func storeFailure(err error) CheckoutValidation {
	return CheckoutValidation{IsValid: false, Error: err.Error(), Err: err}
}

// ValidateCartForCheckout reports whether the user's cart can become an order.
// Failures are returned in the result, not as an error.
func (s *Service) ValidateCartForCheckout(ctx context.Context, user bson.ObjectID) CheckoutValidation {
	fail := func(msg string) CheckoutValidation {
		return CheckoutValidation{IsValid: false, Error: msg}
	}

	c, err := s.carts.FindByUser(ctx, user)
	if errors.Is(err, models.ErrNotFound) || (err == nil && c.IsEmpty()) {
		return fail(EmptyCartMessage)
	}
	if err != nil {
		log.WithError(err).WithField("user", user.Hex()).Warn("Error loading cart for checkout")
		return storeFailure(err)
	}

	products, err := s.products.FindByIDs(ctx, c.ProductIDs())
	if err != nil {
		log.WithError(err).WithField("user", user.Hex()).Warn("Error loading products for checkout")
		return storeFailure(err)
	}
	if problems := c.ValidateStock(products); len(problems) > 0 {
		return fail(strings.Join(problems, ", "))
	}

	return CheckoutValidation{
		IsValid:     true,
		Cart:        c,
		TotalAmount: c.TotalAmount,
		TotalItems:  c.TotalItems,
		Products:    products,
	}
}
