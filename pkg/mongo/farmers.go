package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"rootstofarm.com/market/go-api/pkg/models"
)

type FarmerRepository struct {
	coll *mongo.Collection
}

func NewFarmerRepository(db *mongo.Database) *FarmerRepository {
	return &FarmerRepository{coll: db.Collection(FarmersCollection)}
}

// Create inserts f. A second profile for the same user yields ErrDuplicate.
func (r *FarmerRepository) Create(ctx context.Context, f *models.Farmer) error {
	if f.ID.IsZero() {
		f.ID = bson.NewObjectID()
	}
	f.SetTimestamps()
	_, err := r.coll.InsertOne(ctx, f)
	return translate(err, "insert farmer")
}

func (r *FarmerRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Farmer, error) {
	var farmer models.Farmer
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&farmer); err != nil {
		return nil, translate(err, "find farmer")
	}
	return &farmer, nil
}

func (r *FarmerRepository) FindByUser(ctx context.Context, user bson.ObjectID) (*models.Farmer, error) {
	var farmer models.Farmer
	if err := r.coll.FindOne(ctx, bson.M{"user": user}).Decode(&farmer); err != nil {
		return nil, translate(err, "find farmer by user")
	}
	return &farmer, nil
}

// ListVerified returns verified farms, best rated first.
func (r *FarmerRepository) ListVerified(ctx context.Context) ([]*models.Farmer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "farm_name", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"is_verified": true}, opts)
	if err != nil {
		return nil, translate(err, "list farmers")
	}
	defer cursor.Close(ctx)

	farmers := []*models.Farmer{}
	if err := cursor.All(ctx, &farmers); err != nil {
		return nil, translate(err, "decode farmers")
	}
	return farmers, nil
}

func (r *FarmerRepository) Update(ctx context.Context, f *models.Farmer) error {
	f.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": f.ID}, f)
	if err != nil {
		return translate(err, "update farmer")
	}
	if res.MatchedCount == 0 {
		return translate(mongo.ErrNoDocuments, "update farmer")
	}
	return nil
}

// IncrementSales adds amount to the farm's running sales total.
func (r *FarmerRepository) IncrementSales(ctx context.Context, user bson.ObjectID, amount float64) error {
	update := bson.M{
		"$inc": bson.M{"total_sales": amount},
		"$set": bson.M{"updated_at": time.Now()},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"user": user}, update)
	if err != nil {
		return translate(err, "increment sales")
	}
	if res.MatchedCount == 0 {
		return translate(mongo.ErrNoDocuments, "increment sales")
	}
	return nil
}
