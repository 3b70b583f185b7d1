package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"rootstofarm.com/market/go-api/pkg/models"
)

// ErrInvalidGuestCartID is returned for ids that were not issued by NewID.
var ErrInvalidGuestCartID = errors.New("invalid guest cart id")

// GuestCartStore keeps carts of anonymous shoppers in Redis hashes, one field
// per product, expiring after models.CartTTL without writes.
type GuestCartStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewGuestCartStore(client redis.Cmdable) *GuestCartStore {
	return &GuestCartStore{client: client, ttl: models.CartTTL}
}

func guestCartKey(id string) string {
	return fmt.Sprintf("guestcart:%s", id)
}

func (s *GuestCartStore) NewID() string {
	return uuid.NewString()
}

func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.Wrapf(ErrInvalidGuestCartID, "%q", id)
	}
	return nil
}

// Load returns the guest cart, empty when it never existed or has expired.
func (s *GuestCartStore) Load(ctx context.Context, id string) (*models.Cart, error) {
	if err := validID(id); err != nil {
		return nil, err
	}

	fields, err := s.client.HGetAll(ctx, guestCartKey(id)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "load guest cart")
	}

	cart := &models.Cart{Items: make([]models.CartItem, 0, len(fields))}
	for productHex, raw := range fields {
		var item models.CartItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, errors.Wrapf(err, "decode guest cart item %s", productHex)
		}
		cart.Items = append(cart.Items, item)
	}
	sort.Slice(cart.Items, func(i, j int) bool {
		a, b := cart.Items[i], cart.Items[j]
		if a.AddedAt.Equal(b.AddedAt) {
			return a.ID.Hex() < b.ID.Hex()
		}
		return a.AddedAt.Before(b.AddedAt)
	})

	*cart = models.RecomputeTotals(*cart)
	return cart, nil
}

// Save replaces the stored lines of the guest cart and refreshes its expiry.
func (s *GuestCartStore) Save(ctx context.Context, id string, cart *models.Cart) error {
	if err := validID(id); err != nil {
		return err
	}
	key := guestCartKey(id)

	values := make(map[string]interface{}, len(cart.Items))
	for _, item := range cart.Items {
		raw, err := json.Marshal(item)
		if err != nil {
			return errors.Wrapf(err, "encode guest cart item %s", item.Product.Hex())
		}
		values[item.Product.Hex()] = raw
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(values) > 0 {
		pipe.HSet(ctx, key, values)
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "save guest cart")
	}
	return nil
}

// Clear empties the guest cart.
func (s *GuestCartStore) Clear(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	return errors.Wrap(s.client.Del(ctx, guestCartKey(id)).Err(), "clear guest cart")
}
