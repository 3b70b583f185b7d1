package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"rootstofarm.com/market/go-api/internal/memstore"
	"rootstofarm.com/market/go-api/pkg/models"
)

type recordingTransfer struct {
	calls []string
}

func (r *recordingTransfer) TransferGuestCart(_ context.Context, guestID string, user bson.ObjectID) *models.CartDetails {
	r.calls = append(r.calls, guestID)
	return &models.CartDetails{User: user, Items: []models.DetailedCartItem{}}
}

func newService(t *testing.T) (*Service, *recordingTransfer) {
	t.Helper()
	transfer := &recordingTransfer{}
	return NewService(memstore.New().Users(), NewTokenManager("test-secret", time.Hour), transfer), transfer
}

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenManager("s3cret", time.Hour)
	user := &models.User{ID: bson.NewObjectID(), Role: models.RoleFarmer}

	token, err := tokens.Issue(user)
	require.NoError(t, err)

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
	assert.Equal(t, models.RoleFarmer, claims.Role)
}

func TestTokenRejections(t *testing.T) {
	tokens := NewTokenManager("s3cret", time.Hour)
	user := &models.User{ID: bson.NewObjectID(), Role: models.RoleCustomer}
	token, err := tokens.Issue(user)
	require.NoError(t, err)

	_, err = NewTokenManager("other", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Parse("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenManager("s3cret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue(user)
	require.NoError(t, err)
	_, err = tokens.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)

	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}

func TestRegisterAndLogin(t *testing.T) {
	service, transfer := newService(t)
	ctx := context.Background()

	session, err := service.Register(ctx, models.RegisterRequest{
		Name: "Rosa", Email: "Rosa@Farm.io", Password: "secret1", Role: models.RoleFarmer,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "rosa@farm.io", session.User.Email)
	assert.Equal(t, models.RoleFarmer, session.User.Role)
	assert.Nil(t, session.Cart)

	_, err = service.Register(ctx, models.RegisterRequest{Name: "Rosa", Email: "rosa@farm.io", Password: "secret2"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = service.Login(ctx, models.LoginRequest{Email: "rosa@farm.io", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = service.Login(ctx, models.LoginRequest{Email: "nobody@farm.io", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, err = service.Login(ctx, models.LoginRequest{Email: "ROSA@farm.io", Password: "secret1", GuestCartID: "guest-1"})
	require.NoError(t, err)
	require.NotNil(t, session.Cart)
	assert.Equal(t, []string{"guest-1"}, transfer.calls)

	user, err := service.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, "Rosa", user.Name)
}

func TestRegisterDefaultsToCustomer(t *testing.T) {
	service, _ := newService(t)

	session, err := service.Register(context.Background(), models.RegisterRequest{
		Name: "Sam", Email: "sam@example.com", Password: "secret1",
	})

	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, session.User.Role)
}

func TestUpdateProfile(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()
	session, err := service.Register(ctx, models.RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)

	phone := "555-0100"
	user, err := service.UpdateProfile(ctx, session.User.ID, models.UpdateProfileRequest{
		Phone:   &phone,
		Address: &models.Address{Street: "1 Orchard Rd", City: "Guelph", ZipCode: "N1H"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)
	assert.Equal(t, phone, user.Phone)

	me, err := service.Me(ctx, session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Guelph", me.Address.City)

	_, err = service.Me(ctx, bson.NewObjectID())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
