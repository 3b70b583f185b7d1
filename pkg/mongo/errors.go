package mongo

import (
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"rootstofarm.com/market/go-api/pkg/models"
)

var (
	ErrNotFound  = models.ErrNotFound
	ErrDuplicate = models.ErrDuplicate
)

// translate maps driver errors onto the model sentinels and wraps the rest.
func translate(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return errors.Wrap(ErrNotFound, msg)
	case mongo.IsDuplicateKeyError(err):
		return errors.Wrap(ErrDuplicate, msg)
	default:
		return errors.Wrap(err, msg)
	}
}
