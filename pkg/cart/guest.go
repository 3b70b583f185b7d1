package cart

import (
	"context"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"

	"rootstofarm.com/market/go-api/pkg/models"
)

// GuestCart is an anonymous cart addressed by its id.
type GuestCart struct {
	ID string `json:"id"`
	*models.CartDetails
}

func (s *Service) guestDetails(ctx context.Context, id string, c *models.Cart) (*GuestCart, error) {
	details, err := s.details(ctx, c)
	if err != nil {
		return nil, err
	}
	return &GuestCart{ID: id, CartDetails: details}, nil
}

// CreateGuestCart issues a new, empty guest cart.
func (s *Service) CreateGuestCart(ctx context.Context) (*GuestCart, error) {
	id := s.guests.NewID()
	return s.guestDetails(ctx, id, &models.Cart{Items: []models.CartItem{}})
}

func (s *Service) GetGuestCart(ctx context.Context, id string) (*GuestCart, error) {
	c, err := s.guests.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.guestDetails(ctx, id, c)
}

// AddToGuestCart applies the same stock rules as AddToCart to a guest cart.
func (s *Service) AddToGuestCart(ctx context.Context, id string, productID bson.ObjectID, quantity int) (*GuestCart, error) {
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

	c, err := s.guests.Load(ctx, id)
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
	if err := s.guests.Save(ctx, id, c); err != nil {
		return nil, err
	}
	return s.guestDetails(ctx, id, c)
}

// MergeGuestCart moves the guest cart into the user's cart. The user cart is
// saved before the guest cart is emptied.
func (s *Service) MergeGuestCart(ctx context.Context, guestID string, user bson.ObjectID) (*models.Cart, error) {
	target, err := s.carts.FindOrCreate(ctx, user)
	if err != nil {
		return nil, err
	}
	source, err := s.guests.Load(ctx, guestID)
	if err != nil {
		return nil, err
	}
	if source.IsEmpty() {
		return target, nil
	}

	models.MergeCarts(source, target)
	if err := s.carts.Save(ctx, target); err != nil {
		return nil, err
	}
	if err := s.guests.Clear(ctx, guestID); err != nil {
		return nil, err
	}
	return target, nil
}

// TransferGuestCart merges a pre-login cart into the user's cart on a best
// effort basis. It never fails the surrounding login; on any error it returns
// the user's cart as it is, or nil when even that cannot be read.
func (s *Service) TransferGuestCart(ctx context.Context, guestID string, user bson.ObjectID) *models.CartDetails {
	logger := log.WithFields(log.Fields{"user": user.Hex(), "guestCart": guestID})

	if guestID != "" {
		if _, err := s.MergeGuestCart(ctx, guestID, user); err != nil {
			logger.WithError(err).Warn("Error transferring guest cart")
		}
	}

	details, err := s.GetCart(ctx, user)
	if err != nil {
		logger.WithError(err).Warn("Error loading cart after guest transfer")
		return nil
	}
	return details
}
