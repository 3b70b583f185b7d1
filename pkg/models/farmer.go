package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type FarmLocation struct {
	Address     string       `json:"address,omitempty" bson:"address,omitempty"`
	City        string       `json:"city,omitempty" bson:"city,omitempty"`
	State       string       `json:"state,omitempty" bson:"state,omitempty"`
	ZipCode     string       `json:"zipCode,omitempty" bson:"zip_code,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty" bson:"coordinates,omitempty"`
}

type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

type ContactInfo struct {
	Phone   string `json:"phone,omitempty" bson:"phone,omitempty"`
	Email   string `json:"email,omitempty" bson:"email,omitempty"`
	Website string `json:"website,omitempty" bson:"website,omitempty"`
}

type SocialMedia struct {
	Facebook  string `json:"facebook,omitempty" bson:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty" bson:"instagram,omitempty"`
	Twitter   string `json:"twitter,omitempty" bson:"twitter,omitempty"`
}

// Farmer is the farm profile attached to a user with the farmer role
type Farmer struct {
	ID                bson.ObjectID `json:"id" bson:"_id,omitempty"`
	User              bson.ObjectID `json:"user" bson:"user"`
	FarmName          string        `json:"farmName" bson:"farm_name"`
	FarmDescription   string        `json:"farmDescription,omitempty" bson:"farm_description,omitempty"`
	FarmLocation      FarmLocation  `json:"farmLocation" bson:"farm_location"`
	FarmSize          string        `json:"farmSize,omitempty" bson:"farm_size,omitempty"`
	FarmingMethods    []string      `json:"farmingMethods" bson:"farming_methods"`
	Certifications    []string      `json:"certifications" bson:"certifications"`
	YearsOfExperience int           `json:"yearsOfExperience,omitempty" bson:"years_of_experience,omitempty"`
	ContactInfo       ContactInfo   `json:"contactInfo" bson:"contact_info"`
	SocialMedia       SocialMedia   `json:"socialMedia" bson:"social_media"`
	Rating            float64       `json:"rating" bson:"rating"`
	TotalSales        float64       `json:"totalSales" bson:"total_sales"`
	IsVerified        bool          `json:"isVerified" bson:"is_verified"`
	CreatedAt         time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt         time.Time     `json:"updatedAt" bson:"updated_at"`
}

// FarmerProfileRequest creates or replaces the editable part of a farm profile.
// Rating, sales and verification are managed by the platform.
type FarmerProfileRequest struct {
	FarmName          string       `json:"farmName" binding:"required"`
	FarmDescription   string       `json:"farmDescription"`
	FarmLocation      FarmLocation `json:"farmLocation"`
	FarmSize          string       `json:"farmSize" binding:"omitempty,oneof=small medium large"`
	FarmingMethods    []string     `json:"farmingMethods" binding:"dive,oneof=organic hydroponic traditional permaculture greenhouse"`
	Certifications    []string     `json:"certifications"`
	YearsOfExperience int          `json:"yearsOfExperience" binding:"gte=0"`
	ContactInfo       ContactInfo  `json:"contactInfo"`
	SocialMedia       SocialMedia  `json:"socialMedia"`
}

// Apply copies the editable fields onto f
func (req *FarmerProfileRequest) Apply(f *Farmer) {
	f.FarmName = req.FarmName
	f.FarmDescription = req.FarmDescription
	f.FarmLocation = req.FarmLocation
	f.FarmSize = req.FarmSize
	f.FarmingMethods = req.FarmingMethods
	f.Certifications = req.Certifications
	f.YearsOfExperience = req.YearsOfExperience
	f.ContactInfo = req.ContactInfo
	f.SocialMedia = req.SocialMedia
	if f.FarmingMethods == nil {
		f.FarmingMethods = []string{}
	}
	if f.Certifications == nil {
		f.Certifications = []string{}
	}
	f.SetTimestamps()
}

// SetTimestamps sets created_at and updated_at timestamps
func (f *Farmer) SetTimestamps() {
	now := time.Now()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
}

// ProductCounts is the inventory part of the farmer dashboard
type ProductCounts struct {
	Total     int64
	Available int64
	LowStock  int64
}

// DashboardStats is the farmer dashboard read model
type DashboardStats struct {
	TotalProducts     int64    `json:"totalProducts"`
	AvailableProducts int64    `json:"availableProducts"`
	LowStockProducts  int64    `json:"lowStockProducts"`
	TotalSales        float64  `json:"totalSales"`
	Revenue           float64  `json:"revenue"`
	Rating            float64  `json:"rating"`
	RecentOrders      []*Order `json:"recentOrders"`
}
