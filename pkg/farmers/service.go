package farmers

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"

	"rootstofarm.com/market/go-api/pkg/ai"
	"rootstofarm.com/market/go-api/pkg/models"
)

var (
	ErrFarmerNotFound  = errors.New("farmer not found")
	ErrProfileNotFound = errors.New("farmer profile not found")
	ErrProfileExists   = errors.New("farmer profile already exists")
)

// Orders that still need the farmer's attention.
var openStatuses = []string{
	models.OrderStatusPending, models.OrderStatusConfirmed, models.OrderStatusProcessing,
}

const recentOrderLimit = 5

type FarmerStore interface {
	Create(ctx context.Context, f *models.Farmer) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Farmer, error)
	FindByUser(ctx context.Context, user bson.ObjectID) (*models.Farmer, error)
	ListVerified(ctx context.Context) ([]*models.Farmer, error)
	Update(ctx context.Context, f *models.Farmer) error
}

type ProductStore interface {
	ListByFarmer(ctx context.Context, farmer bson.ObjectID, onlyAvailable bool) ([]*models.Product, error)
	FarmerProductCounts(ctx context.Context, farmer bson.ObjectID, lowStock int) (*models.ProductCounts, error)
}

type OrderStore interface {
	RecentForFarmer(ctx context.Context, farmer bson.ObjectID, statuses []string, limit int) ([]*models.Order, error)
	FarmerRevenue(ctx context.Context, farmer bson.ObjectID) (float64, error)
}

type Insights interface {
	FarmInsights(ctx context.Context, snapshot *ai.FarmSnapshot) *ai.Report
}

type Service struct {
	farmers  FarmerStore
	products ProductStore
	orders   OrderStore
	insights Insights
	lowStock int
}

func NewService(farmers FarmerStore, products ProductStore, orders OrderStore, insights Insights, lowStock int) *Service {
	if lowStock <= 0 {
		lowStock = 10
	}
	return &Service{farmers: farmers, products: products, orders: orders, insights: insights, lowStock: lowStock}
}

// Profile is a farm together with the products it currently offers.
type Profile struct {
	*models.Farmer
	Products []*models.Product `json:"products"`
}

func (s *Service) ListFarmers(ctx context.Context) ([]*models.Farmer, error) {
	return s.farmers.ListVerified(ctx)
}

func (s *Service) find(ctx context.Context, id bson.ObjectID) (*models.Farmer, error) {
	f, err := s.farmers.FindByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrFarmerNotFound
	}
	return f, err
}

func (s *Service) GetFarmer(ctx context.Context, id bson.ObjectID) (*Profile, error) {
	f, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	products, err := s.products.ListByFarmer(ctx, f.User, true)
	if err != nil {
		return nil, err
	}
	return &Profile{Farmer: f, Products: products}, nil
}

// FarmerProducts lists the available products of the farm with profile id.
func (s *Service) FarmerProducts(ctx context.Context, id bson.ObjectID) ([]*models.Product, error) {
	f, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.products.ListByFarmer(ctx, f.User, true)
}

func (s *Service) CreateProfile(ctx context.Context, user *models.User, req models.FarmerProfileRequest) (*models.Farmer, error) {
	f := &models.Farmer{ID: bson.NewObjectID(), User: user.ID}
	req.Apply(f)
	err := s.farmers.Create(ctx, f)
	if errors.Is(err, models.ErrDuplicate) {
		return nil, ErrProfileExists
	}
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"farmer": f.ID.Hex(), "user": user.ID.Hex()}).Info("Farm profile created")
	return f, nil
}

func (s *Service) UpdateProfile(ctx context.Context, user *models.User, req models.FarmerProfileRequest) (*models.Farmer, error) {
	f, err := s.farmers.FindByUser(ctx, user.ID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	req.Apply(f)
	if err := s.farmers.Update(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// DashboardStats summarizes the farmer's inventory, sales and open orders.
// A farmer without a profile gets zero sales and rating.
func (s *Service) DashboardStats(ctx context.Context, user *models.User) (*models.DashboardStats, error) {
	counts, err := s.products.FarmerProductCounts(ctx, user.ID, s.lowStock)
	if err != nil {
		return nil, err
	}
	recent, err := s.orders.RecentForFarmer(ctx, user.ID, openStatuses, recentOrderLimit)
	if err != nil {
		return nil, err
	}
	revenue, err := s.orders.FarmerRevenue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	stats := &models.DashboardStats{
		TotalProducts:     counts.Total,
		AvailableProducts: counts.Available,
		LowStockProducts:  counts.LowStock,
		Revenue:           revenue,
		RecentOrders:      recent,
	}

	profile, err := s.farmers.FindByUser(ctx, user.ID)
	switch {
	case err == nil:
		stats.TotalSales = profile.TotalSales
		stats.Rating = profile.Rating
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}
	return stats, nil
}

// DashboardInsights adds an advisory narrative to the dashboard figures.
func (s *Service) DashboardInsights(ctx context.Context, user *models.User) (*ai.Report, error) {
	stats, err := s.DashboardStats(ctx, user)
	if err != nil {
		return nil, err
	}
	products, err := s.products.ListByFarmer(ctx, user.ID, false)
	if err != nil {
		return nil, err
	}

	snapshot := &ai.FarmSnapshot{FarmName: user.Name, Stats: stats, LowStock: []ai.LowStockItem{}}
	if profile, err := s.farmers.FindByUser(ctx, user.ID); err == nil {
		snapshot.FarmName = profile.FarmName
	}
	for _, p := range products {
		if p.IsLowStock(s.lowStock) {
			snapshot.LowStock = append(snapshot.LowStock, ai.LowStockItem{Name: p.Name, Stock: p.Stock, Unit: p.Unit})
		}
	}
	return s.insights.FarmInsights(ctx, snapshot), nil
}
