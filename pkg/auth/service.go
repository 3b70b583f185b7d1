package auth

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"

	"rootstofarm.com/market/go-api/pkg/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("user already exists with this email")
	ErrUserNotFound       = errors.New("user not found")
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, u *models.User) error
}

// CartTransferer merges a guest cart into a user's cart without failing.
type CartTransferer interface {
	TransferGuestCart(ctx context.Context, guestID string, user bson.ObjectID) *models.CartDetails
}

type Service struct {
	users  UserStore
	tokens *TokenManager
	carts  CartTransferer
}

func NewService(users UserStore, tokens *TokenManager, carts CartTransferer) *Service {
	return &Service{users: users, tokens: tokens, carts: carts}
}

// Session is what register and login hand back to the client.
type Session struct {
	Token string              `json:"token"`
	User  *models.User        `json:"user"`
	Cart  *models.CartDetails `json:"cart,omitempty"`
}

func (s *Service) session(ctx context.Context, u *models.User, guestCartID string) (*Session, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	out := &Session{Token: token, User: u}
	if guestCartID != "" && s.carts != nil {
		out.Cart = s.carts.TransferGuestCart(ctx, guestCartID, u.ID)
	}
	return out, nil
}

func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*Session, error) {
	role := req.Role
	if role == "" {
		role = models.RoleCustomer
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
		Role:     role,
		Phone:    req.Phone,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	log.WithFields(log.Fields{"user": user.ID.Hex(), "role": user.Role}).Info("User registered")
	return s.session(ctx, user, req.GuestCartID)
}

func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(user.Password, req.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.session(ctx, user, req.GuestCartID)
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	id, _ := claims.UserID()
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	return user, err
}

func (s *Service) Me(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *Service) UpdateProfile(ctx context.Context, id bson.ObjectID, req models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.Me(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(user)
	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
