package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"rootstofarm.com/market/go-api/pkg/models"
)

type countBucket struct {
	N int64 `bson:"n"`
}

type productFacets struct {
	Total     []countBucket `bson:"total"`
	Available []countBucket `bson:"available"`
	LowStock  []countBucket `bson:"low_stock"`
}

func first(buckets []countBucket) int64 {
	if len(buckets) == 0 {
		return 0
	}
	return buckets[0].N
}

// FarmerProductCounts counts a farmer's products, the available ones and
// those with fewer than lowStock units, in a single aggregation.
func (r *ProductRepository) FarmerProductCounts(ctx context.Context, farmer bson.ObjectID, lowStock int) (*models.ProductCounts, error) {
	pipeline := bson.A{
		bson.D{{Key: "$match", Value: bson.D{{Key: "farmer", Value: farmer}}}},
		bson.D{
			{Key: "$facet", Value: bson.D{
				{Key: "total", Value: bson.A{
					bson.D{{Key: "$count", Value: "n"}},
				}},
				{Key: "available", Value: bson.A{
					bson.D{{Key: "$match", Value: bson.D{{Key: "is_available", Value: true}}}},
					bson.D{{Key: "$count", Value: "n"}},
				}},
				{Key: "low_stock", Value: bson.A{
					bson.D{{Key: "$match", Value: bson.D{{Key: "stock", Value: bson.D{{Key: "$lt", Value: lowStock}}}}}},
					bson.D{{Key: "$count", Value: "n"}},
				}},
			}},
		},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, translate(err, "aggregate farmer products")
	}
	defer cursor.Close(ctx)

	var facets []productFacets
	if err := cursor.All(ctx, &facets); err != nil {
		return nil, translate(err, "decode farmer product counts")
	}

	counts := &models.ProductCounts{}
	if len(facets) > 0 {
		counts.Total = first(facets[0].Total)
		counts.Available = first(facets[0].Available)
		counts.LowStock = first(facets[0].LowStock)
	}
	return counts, nil
}

// FarmerRevenue sums the value of a farmer's lines across orders that were not cancelled.
func (r *OrderRepository) FarmerRevenue(ctx context.Context, farmer bson.ObjectID) (float64, error) {
	pipeline := bson.A{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "items.farmer", Value: farmer},
			{Key: "order_status", Value: bson.D{{Key: "$ne", Value: models.OrderStatusCancelled}}},
		}}},
		bson.D{{Key: "$unwind", Value: "$items"}},
		bson.D{{Key: "$match", Value: bson.D{{Key: "items.farmer", Value: farmer}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "revenue", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$multiply", Value: bson.A{"$items.price", "$items.quantity"}},
			}}}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "revenue", Value: bson.D{{Key: "$round", Value: bson.A{"$revenue", 2}}}},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, translate(err, "aggregate farmer revenue")
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Revenue float64 `bson:"revenue"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, translate(err, "decode farmer revenue")
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Revenue, nil
}
