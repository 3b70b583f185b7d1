package mongo

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"rootstofarm.com/market/go-api/pkg/models"
)

type IndexConfig struct {
	CollectionName string
	IndexModel     mongo.IndexModel
}

var requiredIndexes = []IndexConfig{
	// Users
	{
		CollectionName: UsersCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_user_email_unique"),
		},
	},

	// Carts: one per user, purged after 30 idle days
	{
		CollectionName: CartsCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "user", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_cart_user_unique"),
		},
	},
	{
		CollectionName: CartsCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{{Key: "last_updated", Value: 1}},
			Options: options.Index().
				SetExpireAfterSeconds(int32(models.CartTTL.Seconds())).
				SetName("idx_cart_expiry"),
		},
	},

	// Products
	{
		CollectionName: ProductsCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "is_available", Value: 1},
				{Key: "category", Value: 1},
				{Key: "price", Value: 1},
			},
			Options: options.Index().SetName("idx_available_category_price"),
		},
	},
	{
		CollectionName: ProductsCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "farmer", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_farmer_products"),
		},
	},
	{
		CollectionName: ProductsCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "name", Value: "text"},
				{Key: "description", Value: "text"},
				{Key: "tags", Value: "text"},
			},
			Options: options.Index().
				SetName("idx_product_text_search").
				SetWeights(bson.D{
					{Key: "name", Value: 10},
					{Key: "tags", Value: 5},
					{Key: "description", Value: 1},
				}),
		},
	},

	// Orders
	{
		CollectionName: OrdersCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "user", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_user_orders"),
		},
	},
	{
		CollectionName: OrdersCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "items.farmer", Value: 1},
				{Key: "order_status", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_farmer_orders"),
		},
	},

	// Farmers
	{
		CollectionName: FarmersCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "user", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_farmer_user_unique"),
		},
	},
	{
		CollectionName: FarmersCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "is_verified", Value: 1},
				{Key: "rating", Value: -1},
			},
			Options: options.Index().SetName("idx_verified_rating"),
		},
	},
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	log.Println("Starting index creation...")

	for _, idxConfig := range requiredIndexes {
		collection := s.Collection(idxConfig.CollectionName)

		indexName, err := collection.Indexes().CreateOne(ctx, idxConfig.IndexModel)
		if err != nil {
			return errors.Wrapf(err, "create index on %s", idxConfig.CollectionName)
		}

		log.Printf("✓ Created index '%s' on collection '%s'", indexName, idxConfig.CollectionName)
	}

	log.Println("All indexes created successfully!")
	return nil
}
