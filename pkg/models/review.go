package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Review is a customer review embedded in a product
type Review struct {
	ID        bson.ObjectID `json:"id" bson:"_id"`
	User      bson.ObjectID `json:"user" bson:"user"`
	Rating    int           `json:"rating" bson:"rating"`
	Comment   string        `json:"comment" bson:"comment"`
	CreatedAt time.Time     `json:"createdAt" bson:"created_at"`
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,gte=1,lte=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

// SetTimestamp assigns an id and creation time on first call
func (r *Review) SetTimestamp() {
	if r.ID.IsZero() {
		r.ID = bson.NewObjectID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
}

// IsPositive checks if the review is positive (4-5 stars)
func (r *Review) IsPositive() bool {
	return r.Rating >= 4
}
