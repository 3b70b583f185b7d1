package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	CategoryVegetables = "vegetables"
	CategoryFruits     = "fruits"
	CategoryDairy      = "dairy"
	CategoryGrains     = "grains"
	CategoryHerbs      = "herbs"
	CategoryOrganic    = "organic"
	CategoryOther      = "other"
)

var ProductCategories = []string{
	CategoryVegetables, CategoryFruits, CategoryDairy, CategoryGrains,
	CategoryHerbs, CategoryOrganic, CategoryOther,
}

var ProductUnits = []string{"kg", "g", "lb", "piece", "bunch", "dozen"}

// Product represents a farm product in the catalog
type Product struct {
	ID            bson.ObjectID `json:"id" bson:"_id,omitempty"`
	Name          string        `json:"name" bson:"name"`
	Description   string        `json:"description" bson:"description"`
	Price         float64       `json:"price" bson:"price"`
	OriginalPrice float64       `json:"originalPrice,omitempty" bson:"original_price,omitempty"`
	Category      string        `json:"category" bson:"category"`
	Images        []string      `json:"images" bson:"images"`
	Farmer        bson.ObjectID `json:"farmer" bson:"farmer"` // owning user
	FarmName      string        `json:"farmName" bson:"farm_name"`
	Stock         int           `json:"stock" bson:"stock"`
	Unit          string        `json:"unit" bson:"unit"`
	IsOrganic     bool          `json:"isOrganic" bson:"is_organic"`
	IsAvailable   bool          `json:"isAvailable" bson:"is_available"`
	Rating        float64       `json:"rating" bson:"rating"`
	Reviews       []Review      `json:"reviews" bson:"reviews"`
	Tags          []string      `json:"tags" bson:"tags"`
	CreatedAt     time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time     `json:"updatedAt" bson:"updated_at"`
}

// ProductSummary is the subset of a product shown next to cart lines.
type ProductSummary struct {
	ID          bson.ObjectID `json:"id"`
	Name        string        `json:"name"`
	Images      []string      `json:"images"`
	Price       float64       `json:"price"`
	Stock       int           `json:"stock"`
	FarmName    string        `json:"farmName"`
	IsAvailable bool          `json:"isAvailable"`
	Category    string        `json:"category"`
	Unit        string        `json:"unit"`
	IsOrganic   bool          `json:"isOrganic"`
}

func (p *Product) Summary() *ProductSummary {
	return &ProductSummary{
		ID:          p.ID,
		Name:        p.Name,
		Images:      p.Images,
		Price:       p.Price,
		Stock:       p.Stock,
		FarmName:    p.FarmName,
		IsAvailable: p.IsAvailable,
		Category:    p.Category,
		Unit:        p.Unit,
		IsOrganic:   p.IsOrganic,
	}
}

func (p *Product) SetTimestamps() {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

func (p *Product) IsInStock() bool {
	return p.Stock > 0 && p.IsAvailable
}

func (p *Product) IsLowStock(threshold int) bool {
	return p.Stock < threshold
}

// OwnedBy reports whether userID is the farmer who listed the product.
func (p *Product) OwnedBy(userID bson.ObjectID) bool {
	return p.Farmer == userID
}

// HasReviewFrom reports whether userID already reviewed the product.
func (p *Product) HasReviewFrom(userID bson.ObjectID) bool {
	for _, r := range p.Reviews {
		if r.User == userID {
			return true
		}
	}
	return false
}

// AddReview appends a review and recomputes the mean rating.
func (p *Product) AddReview(review Review) {
	review.SetTimestamp()
	p.Reviews = append(p.Reviews, review)
	p.RecomputeRating()
}

// RecomputeRating sets Rating to the mean of all review ratings (0 with none).
func (p *Product) RecomputeRating() {
	if len(p.Reviews) == 0 {
		p.Rating = 0
		return
	}
	sum := 0
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	p.Rating = float64(sum) / float64(len(p.Reviews))
}

type CreateProductRequest struct {
	Name          string   `json:"name" binding:"required,min=2,max=200"`
	Description   string   `json:"description" binding:"required"`
	Price         float64  `json:"price" binding:"gte=0"`
	OriginalPrice float64  `json:"originalPrice" binding:"gte=0"`
	Category      string   `json:"category" binding:"required,oneof=vegetables fruits dairy grains herbs organic other"`
	Images        []string `json:"images" binding:"dive,url"`
	FarmName      string   `json:"farmName"`
	Stock         int      `json:"stock" binding:"gte=0"`
	Unit          string   `json:"unit" binding:"required,oneof=kg g lb piece bunch dozen"`
	IsOrganic     bool     `json:"isOrganic"`
	IsAvailable   *bool    `json:"isAvailable"`
	Tags          []string `json:"tags"`
}

func (req *CreateProductRequest) ToProduct(farmer *User) *Product {
	farmName := strings.TrimSpace(req.FarmName)
	if farmName == "" {
		farmName = farmer.Name
	}
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	product := &Product{
		ID:            bson.NewObjectID(),
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Category:      req.Category,
		Images:        req.Images,
		Farmer:        farmer.ID,
		FarmName:      farmName,
		Stock:         req.Stock,
		Unit:          req.Unit,
		IsOrganic:     req.IsOrganic,
		IsAvailable:   available,
		Reviews:       []Review{},
		Tags:          req.Tags,
	}
	if product.Images == nil {
		product.Images = []string{}
	}
	if product.Tags == nil {
		product.Tags = []string{}
	}
	product.SetTimestamps()
	return product
}

// UpdateProductRequest carries a partial product update; nil fields are left alone.
// Identity, ownership, reviews and rating cannot be changed through it.
type UpdateProductRequest struct {
	Name          *string   `json:"name" binding:"omitempty,min=2,max=200"`
	Description   *string   `json:"description"`
	Price         *float64  `json:"price" binding:"omitempty,gte=0"`
	OriginalPrice *float64  `json:"originalPrice" binding:"omitempty,gte=0"`
	Category      *string   `json:"category" binding:"omitempty,oneof=vegetables fruits dairy grains herbs organic other"`
	Images        *[]string `json:"images"`
	FarmName      *string   `json:"farmName"`
	Stock         *int      `json:"stock" binding:"omitempty,gte=0"`
	Unit          *string   `json:"unit" binding:"omitempty,oneof=kg g lb piece bunch dozen"`
	IsOrganic     *bool     `json:"isOrganic"`
	IsAvailable   *bool     `json:"isAvailable"`
	Tags          *[]string `json:"tags"`
}

// Fields returns the changed fields keyed by their stored names.
func (req *UpdateProductRequest) Fields() bson.M {
	set := bson.M{}
	if req.Name != nil {
		set["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Price != nil {
		set["price"] = *req.Price
	}
	if req.OriginalPrice != nil {
		set["original_price"] = *req.OriginalPrice
	}
	if req.Category != nil {
		set["category"] = *req.Category
	}
	if req.Images != nil {
		set["images"] = *req.Images
	}
	if req.FarmName != nil {
		set["farm_name"] = *req.FarmName
	}
	if req.Stock != nil {
		set["stock"] = *req.Stock
	}
	if req.Unit != nil {
		set["unit"] = *req.Unit
	}
	if req.IsOrganic != nil {
		set["is_organic"] = *req.IsOrganic
	}
	if req.IsAvailable != nil {
		set["is_available"] = *req.IsAvailable
	}
	if req.Tags != nil {
		set["tags"] = *req.Tags
	}
	return set
}

func (req *UpdateProductRequest) IsEmpty() bool {
	return len(req.Fields()) == 0
}

// Apply copies the changed fields onto p.
func (req *UpdateProductRequest) Apply(p *Product) {
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.OriginalPrice != nil {
		p.OriginalPrice = *req.OriginalPrice
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Images != nil {
		p.Images = *req.Images
	}
	if req.FarmName != nil {
		p.FarmName = *req.FarmName
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.Unit != nil {
		p.Unit = *req.Unit
	}
	if req.IsOrganic != nil {
		p.IsOrganic = *req.IsOrganic
	}
	if req.IsAvailable != nil {
		p.IsAvailable = *req.IsAvailable
	}
	if req.Tags != nil {
		p.Tags = *req.Tags
	}
	p.UpdatedAt = time.Now()
}

// ProductFilter narrows catalog listings. Only available products are listed.
type ProductFilter struct {
	Category  string
	Farmer    *bson.ObjectID
	MinPrice  *float64
	MaxPrice  *float64
	IsOrganic *bool
	Search    string
	Page      int
	Limit     int
	Sort      string
}

// SortFields maps the accepted sort keys to stored field names.
var SortFields = map[string]string{
	"createdAt": "created_at",
	"price":     "price",
	"rating":    "rating",
	"name":      "name",
}

// Normalize applies the listing defaults: page 1, limit 12 (max 100), newest first.
func (f *ProductFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 12
	}
	if _, ok := SortFields[strings.TrimPrefix(f.Sort, "-")]; !ok {
		f.Sort = "-createdAt"
	}
}

// SortSpec returns the stored field and direction (1 or -1) for f.Sort.
func (f *ProductFilter) SortSpec() (string, int) {
	if strings.HasPrefix(f.Sort, "-") {
		return SortFields[strings.TrimPrefix(f.Sort, "-")], -1
	}
	return SortFields[f.Sort], 1
}

// ProductPage is one page of a catalog listing.
type ProductPage struct {
	Products    []*Product `json:"products"`
	TotalPages  int        `json:"totalPages"`
	CurrentPage int        `json:"currentPage"`
	Total       int64      `json:"total"`
}
