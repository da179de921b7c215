package service

import (
	"context"
	"testing"

	"github.com/ahmadqo/course-certificates/internal/config"
	"github.com/ahmadqo/course-certificates/internal/logger"
	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testJWT = config.JWTConfig{Secret: "test-secret", ExpireHours: 1, RefreshExpHours: 24}

func seededUser(t *testing.T, active bool) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("rahasia123"), bcrypt.MinCost)
	require.NoError(t, err)
	return &model.User{
		ID: uuid.New(), Name: "Admin", Email: "admin@academy.example",
		Password: string(hash), Role: model.RoleAdmin, IsActive: active,
	}
}

func TestAuth_LoginAndRefresh(t *testing.T) {
	repo := &fakeUserRepo{users: []*model.User{seededUser(t, true)}}
	svc := NewAuthService(repo, testJWT, logger.Discard())
	ctx := context.Background()

	res, err := svc.Login(ctx, LoginRequest{Email: " Admin@Academy.example ", Password: "rahasia123"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, res.User.Role)
	assert.NotEmpty(t, res.Token.AccessToken)

	pair, err := svc.RefreshToken(ctx, res.Token.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)

	// access token tidak boleh dipakai untuk refresh
	_, err = svc.RefreshToken(ctx, res.Token.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuth_LoginFailures(t *testing.T) {
	repo := &fakeUserRepo{users: []*model.User{seededUser(t, false)}}
	svc := NewAuthService(repo, testJWT, logger.Discard())

	_, err := svc.Login(context.Background(), LoginRequest{Email: "admin@academy.example", Password: "rahasia123"})
	assert.ErrorIs(t, err, ErrAccountDisabled)

	repo.users[0].IsActive = true
	_, err = svc.Login(context.Background(), LoginRequest{Email: "admin@academy.example", Password: "salah"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "nobody@academy.example", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuth_RegisterDefaultsToStudent(t *testing.T) {
	repo := &fakeUserRepo{}
	svc := NewAuthService(repo, testJWT, logger.Discard())

	user, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Fatimah", FullNameArabic: "فاطمة", Email: "Fatimah@Academy.example", Password: "rahasia123",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, user.Role)
	assert.Equal(t, "fatimah@academy.example", user.Email)
	require.NotNil(t, user.FullNameArabic)
	assert.Equal(t, "فاطمة", *user.FullNameArabic)
	assert.Nil(t, user.FullNameEnglish)

	_, err = svc.Register(context.Background(), RegisterRequest{
		Name: "Again", Email: "fatimah@academy.example", Password: "rahasia123",
	})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)

	me, err := svc.Me(context.Background(), user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Fatimah", me.Name)

	_, err = svc.Me(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
