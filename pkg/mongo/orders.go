package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"rootstofarm.com/market/go-api/pkg/models"
)

type OrderRepository struct {
	coll *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection(OrdersCollection)}
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	if o.ID.IsZero() {
		o.ID = bson.NewObjectID()
	}
	o.SetTimestamps()
	_, err := r.coll.InsertOne(ctx, o)
	return translate(err, "insert order")
}

func (r *OrderRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Order, error) {
	var order models.Order
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, translate(err, "find order")
	}
	return &order, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, user bson.ObjectID) ([]*models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"user": user}, opts)
	if err != nil {
		return nil, translate(err, "list orders")
	}
	defer cursor.Close(ctx)

	orders := []*models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, translate(err, "decode orders")
	}
	return orders, nil
}

// RecentForFarmer returns the newest orders in statuses that contain a line from farmer.
func (r *OrderRepository) RecentForFarmer(ctx context.Context, farmer bson.ObjectID, statuses []string, limit int) ([]*models.Order, error) {
	filter := bson.M{
		"items.farmer": farmer,
		"order_status": bson.M{"$in": statuses},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit))
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err, "list farmer orders")
	}
	defer cursor.Close(ctx)

	orders := []*models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, translate(err, "decode orders")
	}
	return orders, nil
}

func (r *OrderRepository) update(ctx context.Context, filter bson.M, set bson.M, msg string) (*models.Order, error) {
	set["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	if err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&order); err != nil {
		return nil, translate(err, msg)
	}
	return &order, nil
}

// notCancelled matches id unless the order is cancelled, which is terminal.
func notCancelled(id bson.ObjectID) bson.M {
	return bson.M{"_id": id, "order_status": bson.M{"$ne": models.OrderStatusCancelled}}
}

// UpdateStatus returns ErrNotFound for a missing or cancelled order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id bson.ObjectID, status string) (*models.Order, error) {
	return r.update(ctx, notCancelled(id), bson.M{"order_status": status}, "update order status")
}

// MarkCancelled moves an order to cancelled only while it is still cancellable.
// ErrNotFound means the order is missing or already past that point.
func (r *OrderRepository) MarkCancelled(ctx context.Context, id bson.ObjectID) (*models.Order, error) {
	filter := bson.M{
		"_id": id,
		"order_status": bson.M{"$nin": bson.A{
			models.OrderStatusShipped, models.OrderStatusDelivered, models.OrderStatusCancelled,
		}},
	}
	return r.update(ctx, filter, bson.M{"order_status": models.OrderStatusCancelled}, "cancel order")
}

// UpdatePayment sets the payment status and, when orderStatus is not empty, the order status.
// Like UpdateStatus it leaves cancelled orders alone.
func (r *OrderRepository) UpdatePayment(ctx context.Context, id bson.ObjectID, paymentStatus, orderStatus string) (*models.Order, error) {
	set := bson.M{"payment_status": paymentStatus}
	if orderStatus != "" {
		set["order_status"] = orderStatus
	}
	return r.update(ctx, notCancelled(id), set, "update payment")
}

func (r *OrderRepository) SetPaymentIntent(ctx context.Context, id bson.ObjectID, intentID string) error {
	_, err := r.update(ctx, bson.M{"_id": id}, bson.M{"payment_intent_id": intentID}, "set payment intent")
	return err
}
