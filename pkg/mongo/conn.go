package mongo

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"rootstofarm.com/market/go-api/pkg/global"
)

const (
	UsersCollection    = "users"
	ProductsCollection = "products"
	CartsCollection    = "carts"
	OrdersCollection   = "orders"
	FarmersCollection  = "farmers"
)

// Store owns the client and the marketplace database handle.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri and verifies the connection with a ping.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)

	clientOptions := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)
	client, err := mongo.Connect(clientOptions)
	if err != nil {
		return nil, errors.Wrap(err, "create mongodb client")
	}

	store := &Store{client: client, db: client.Database(database)}
	if err := store.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.WithField("database", database).Println("Connected to MongoDB successfully")
	return store, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return errors.Wrap(s.client.Ping(ctx, nil), "ping mongodb")
}

func (s *Store) Disconnect() error {
	ctx, cancel := global.GetDefaultTimer()
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) Database() *mongo.Database {
	return s.db
}

func (s *Store) Collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) Products() *ProductRepository {
	return &ProductRepository{coll: s.Collection(ProductsCollection)}
}

func (s *Store) Carts() *CartRepository {
	return &CartRepository{coll: s.Collection(CartsCollection)}
}

func (s *Store) Orders() *OrderRepository {
	return &OrderRepository{coll: s.Collection(OrdersCollection)}
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{coll: s.Collection(UsersCollection)}
}

func (s *Store) Farmers() *FarmerRepository {
	return &FarmerRepository{coll: s.Collection(FarmersCollection)}
}
