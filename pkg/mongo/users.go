package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"rootstofarm.com/market/go-api/pkg/models"
)

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(UsersCollection)}
}

// Create inserts u. A taken email yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	u.Email = models.NormalizeEmail(u.Email)
	u.SetTimestamps()
	_, err := r.coll.InsertOne(ctx, u)
	return translate(err, "insert user")
}

func (r *UserRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, translate(err, "find user")
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"email": models.NormalizeEmail(email)}).Decode(&user); err != nil {
		return nil, translate(err, "find user by email")
	}
	return &user, nil
}

// UpdateProfile stores the editable profile fields of u.
func (r *UserRepository) UpdateProfile(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now()
	set := bson.M{
		"name":       u.Name,
		"phone":      u.Phone,
		"address":    u.Address,
		"updated_at": u.UpdatedAt,
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": set})
	if err != nil {
		return translate(err, "update user")
	}
	if res.MatchedCount == 0 {
		return translate(mongo.ErrNoDocuments, "update user")
	}
	return nil
}
