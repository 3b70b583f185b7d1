package mongo

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"rootstofarm.com/market/go-api/pkg/models"
)

type ProductRepository struct {
	coll *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{coll: db.Collection(ProductsCollection)}
}

func (r *ProductRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Product, error) {
	var product models.Product
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		return nil, translate(err, "find product")
	}
	return &product, nil
}

// FindByIDs loads the given products keyed by id. Missing ids are absent from the map.
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]*models.Product, error) {
	found := make(map[bson.ObjectID]*models.Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, translate(err, "find products")
	}
	defer cursor.Close(ctx)

	var products []*models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, translate(err, "decode products")
	}
	for _, p := range products {
		found[p.ID] = p
	}
	return found, nil
}

func productQuery(f models.ProductFilter) bson.M {
	query := bson.M{"is_available": true}
	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.Farmer != nil {
		query["farmer"] = *f.Farmer
	}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		query["price"] = price
	}
	if f.IsOrganic != nil {
		query["is_organic"] = *f.IsOrganic
	}
	if f.Search != "" {
		query["$text"] = bson.M{"$search": f.Search}
	}
	return query
}

// List returns one page of available products matching f.
func (r *ProductRepository) List(ctx context.Context, f models.ProductFilter) (*models.ProductPage, error) {
	f.Normalize()
	query := productQuery(f)

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, translate(err, "count products")
	}

	field, dir := f.SortSpec()
	opts := options.Find().
		SetSort(bson.D{{Key: field, Value: dir}, {Key: "_id", Value: 1}}).
		SetSkip(int64((f.Page - 1) * f.Limit)).
		SetLimit(int64(f.Limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, translate(err, "list products")
	}
	defer cursor.Close(ctx)

	products := []*models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, translate(err, "decode products")
	}

	return &models.ProductPage{
		Products:    products,
		TotalPages:  int(math.Ceil(float64(total) / float64(f.Limit))),
		CurrentPage: f.Page,
		Total:       total,
	}, nil
}

// ListByFarmer returns a farmer's products, newest first.
func (r *ProductRepository) ListByFarmer(ctx context.Context, farmer bson.ObjectID, onlyAvailable bool) ([]*models.Product, error) {
	query := bson.M{"farmer": farmer}
	if onlyAvailable {
		query["is_available"] = true
	}
	cursor, err := r.coll.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, translate(err, "list farmer products")
	}
	defer cursor.Close(ctx)

	products := []*models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, translate(err, "decode products")
	}
	return products, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	if p.ID.IsZero() {
		p.ID = bson.NewObjectID()
	}
	p.SetTimestamps()
	_, err := r.coll.InsertOne(ctx, p)
	return translate(err, "insert product")
}

// Update sets fields on the product and returns the updated document.
func (r *ProductRepository) Update(ctx context.Context, id bson.ObjectID, fields bson.M) (*models.Product, error) {
	set := bson.M{"updated_at": time.Now()}
	for k, v := range fields {
		set[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product models.Product
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&product)
	if err != nil {
		return nil, translate(err, "update product")
	}
	return &product, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, "delete product")
	}
	if res.DeletedCount == 0 {
		return errors.Wrap(ErrNotFound, "delete product")
	}
	return nil
}

// AddReview appends review and recomputes the mean rating in one update.
// It returns ErrDuplicate when the reviewer already reviewed the product.
func (r *ProductRepository) AddReview(ctx context.Context, id bson.ObjectID, review models.Review) (*models.Product, error) {
	review.SetTimestamp()

	filter := bson.M{"_id": id, "reviews.user": bson.M{"$ne": review.User}}
	pipeline := bson.A{
		bson.M{"$set": bson.M{
			"reviews": bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$reviews", bson.A{}}},
				bson.M{"$literal": bson.A{review}},
			}},
			"updated_at": time.Now(),
		}},
		bson.M{"$set": bson.M{"rating": bson.M{"$avg": "$reviews.rating"}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product models.Product
	err := r.coll.FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, findErr := r.FindByID(ctx, id); findErr != nil {
			return nil, findErr
		}
		return nil, errors.Wrap(ErrDuplicate, "product already reviewed")
	}
	if err != nil {
		return nil, translate(err, "add review")
	}
	return &product, nil
}

// DecrementStock removes qty units only if at least qty are in stock.
func (r *ProductRepository) DecrementStock(ctx context.Context, id bson.ObjectID, qty int) error {
	filter := bson.M{"_id": id, "stock": bson.M{"$gte": qty}}
	update := bson.M{
		"$inc": bson.M{"stock": -qty},
		"$set": bson.M{"updated_at": time.Now()},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return translate(err, "decrement stock")
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(models.ErrInsufficientStock, "product %s", id.Hex())
	}
	return nil
}

func (r *ProductRepository) IncrementStock(ctx context.Context, id bson.ObjectID, qty int) error {
	update := bson.M{
		"$inc": bson.M{"stock": qty},
		"$set": bson.M{"updated_at": time.Now()},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return translate(err, "increment stock")
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(ErrNotFound, "product %s", id.Hex())
	}
	return nil
}
