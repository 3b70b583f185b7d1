package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	RoleCustomer = "customer"
	RoleFarmer   = "farmer"
	RoleAdmin    = "admin"
)

// User is an account holder. Password is the bcrypt hash and is never serialized.
type User struct {
	ID        bson.ObjectID `json:"id" bson:"_id,omitempty"`
	Name      string        `json:"name" bson:"name"`
	Email     string        `json:"email" bson:"email"`
	Password  string        `json:"-" bson:"password"`
	Role      string        `json:"role" bson:"role"`
	Phone     string        `json:"phone,omitempty" bson:"phone,omitempty"`
	Address   *Address      `json:"address,omitempty" bson:"address,omitempty"`
	Avatar    string        `json:"avatar,omitempty" bson:"avatar,omitempty"`
	CreatedAt time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time     `json:"updatedAt" bson:"updated_at"`
}

type RegisterRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=50"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	Role        string `json:"role" binding:"omitempty,oneof=customer farmer"`
	Phone       string `json:"phone"`
	GuestCartID string `json:"guestCartId"`
}

type LoginRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	GuestCartID string `json:"guestCartId"`
}

type UpdateProfileRequest struct {
	Name    *string  `json:"name" binding:"omitempty,min=2,max=50"`
	Phone   *string  `json:"phone"`
	Address *Address `json:"address"`
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SetTimestamps sets created_at and updated_at timestamps
func (u *User) SetTimestamps() {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsFarmer() bool {
	return u.Role == RoleFarmer
}

// HasRole reports whether the user holds one of roles
func (u *User) HasRole(roles ...string) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// Apply copies the changed profile fields onto u
func (req *UpdateProfileRequest) Apply(u *User) {
	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		u.Phone = *req.Phone
	}
	if req.Address != nil {
		u.Address = req.Address
	}
	u.UpdatedAt = time.Now()
}
