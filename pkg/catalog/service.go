package catalog

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"

	"rootstofarm.com/market/go-api/pkg/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrNotOwner        = errors.New("not authorized to modify this product")
	ErrAlreadyReviewed = errors.New("product already reviewed")
	ErrNoUpdates       = errors.New("no valid updates provided")
)

type ProductStore interface {
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Product, error)
	List(ctx context.Context, f models.ProductFilter) (*models.ProductPage, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id bson.ObjectID, fields bson.M) (*models.Product, error)
	Delete(ctx context.Context, id bson.ObjectID) error
	AddReview(ctx context.Context, id bson.ObjectID, review models.Review) (*models.Product, error)
}

// Service manages the product catalog and its reviews.
type Service struct {
	products ProductStore
}

func NewService(products ProductStore) *Service {
	return &Service{products: products}
}

func notFound(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return ErrProductNotFound
	}
	return err
}

func (s *Service) ListProducts(ctx context.Context, f models.ProductFilter) (*models.ProductPage, error) {
	f.Normalize()
	return s.products.List(ctx, f)
}

func (s *Service) GetProduct(ctx context.Context, id bson.ObjectID) (*models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	return p, notFound(err)
}

// CreateProduct lists a new product owned by actor.
func (s *Service) CreateProduct(ctx context.Context, actor *models.User, req models.CreateProductRequest) (*models.Product, error) {
	product := req.ToProduct(actor)
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"product": product.ID.Hex(), "farmer": actor.ID.Hex()}).Info("Product created")
	return product, nil
}

func (s *Service) owned(ctx context.Context, actor *models.User, id bson.ObjectID) (*models.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.OwnedBy(actor.ID) && !actor.IsAdmin() {
		return nil, ErrNotOwner
	}
	return p, nil
}

// UpdateProduct applies a partial update for the owning farmer or an admin.
func (s *Service) UpdateProduct(ctx context.Context, actor *models.User, id bson.ObjectID, req models.UpdateProductRequest) (*models.Product, error) {
	if req.IsEmpty() {
		return nil, ErrNoUpdates
	}
	if _, err := s.owned(ctx, actor, id); err != nil {
		return nil, err
	}
	p, err := s.products.Update(ctx, id, req.Fields())
	return p, notFound(err)
}

func (s *Service) DeleteProduct(ctx context.Context, actor *models.User, id bson.ObjectID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	log.WithFields(log.Fields{"product": id.Hex(), "by": actor.ID.Hex()}).Info("Product deleted")
	return nil
}

// AddReview records one review per user and refreshes the product rating.
func (s *Service) AddReview(ctx context.Context, actor *models.User, id bson.ObjectID, req models.CreateReviewRequest) (*models.Product, error) {
	review := models.Review{
		User:    actor.ID,
		Rating:  req.Rating,
		Comment: req.Comment,
	}
	p, err := s.products.AddReview(ctx, id, review)
	if errors.Is(err, models.ErrDuplicate) {
		return nil, ErrAlreadyReviewed
	}
	return p, notFound(err)
}
