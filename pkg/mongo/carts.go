package mongo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"rootstofarm.com/market/go-api/pkg/models"
)

type CartRepository struct {
	coll *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{coll: db.Collection(CartsCollection)}
}

func (r *CartRepository) FindByUser(ctx context.Context, user bson.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.coll.FindOne(ctx, bson.M{"user": user}).Decode(&cart); err != nil {
		return nil, translate(err, "find cart")
	}
	return &cart, nil
}

// FindOrCreate returns the user's cart, inserting an empty one on first use.
func (r *CartRepository) FindOrCreate(ctx context.Context, user bson.ObjectID) (*models.Cart, error) {
	fresh := models.NewCart(user)
	update := bson.M{"$setOnInsert": bson.M{
		"_id":          fresh.ID,
		"items":        bson.A{},
		"total_amount": 0.0,
		"total_items":  0,
		"last_updated": fresh.LastUpdated,
		"created_at":   fresh.CreatedAt,
		"updated_at":   fresh.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var cart models.Cart
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"user": user}, update, opts).Decode(&cart)
	if mongo.IsDuplicateKeyError(err) {
		// lost an insert race against another request for the same user
		return r.FindByUser(ctx, user)
	}
	if err != nil {
		return nil, translate(err, "find or create cart")
	}
	return &cart, nil
}

// Save replaces the stored cart with c.
func (r *CartRepository) Save(ctx context.Context, c *models.Cart) error {
	if c.ID.IsZero() {
		return errors.New("save cart: missing id")
	}
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	if c.LastUpdated.IsZero() {
		c.LastUpdated = time.Now()
	}
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": c.ID}, c, options.Replace().SetUpsert(true))
	return translate(err, "save cart")
}
