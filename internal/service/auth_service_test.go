package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/conduct-api/internal/models"
	appErrors "github.com/noah-isme/conduct-api/pkg/errors"
)

type fakeUserRepo struct {
	users map[string]models.User
}

func (f *fakeUserRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func newAuthFixture(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	classID := "class-10a"
	repo := &fakeUserRepo{users: map[string]models.User{
		"monitor@school.test": {
			ID: "monitor-1", Email: "monitor@school.test", PasswordHash: string(hash),
			FullName: "Lop Truong", Role: models.RoleMonitor, ClassID: &classID, Active: true,
		},
		"gone@school.test": {
			ID: "gone-1", Email: "gone@school.test", PasswordHash: string(hash),
			FullName: "Inactive", Role: models.RoleStudent, Active: false,
		},
	}}
	return NewAuthService(repo, nil, nil, AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "conduct-api",
	})
}

func TestAuthLoginAndValidate(t *testing.T) {
	svc := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "monitor@school.test", Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, models.RoleMonitor, resp.User.Role)
	require.NotNil(t, resp.User.ClassID)
	assert.Equal(t, "class-10a", *resp.User.ClassID)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "monitor-1", claims.UserID)
	assert.Equal(t, models.RoleMonitor, claims.Role)
	assert.Equal(t, "class-10a", claims.ClassID)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	svc := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "monitor@school.test", Password: "wrong",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthLoginUnknownEmail(t *testing.T) {
	svc := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "nobody@school.test", Password: "secret123",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthLoginInactiveAccount(t *testing.T) {
	svc := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "gone@school.test", Password: "secret123",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestAuthValidateTamperedToken(t *testing.T) {
	svc := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "monitor@school.test", Password: "secret123",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken + "x")
	require.Error(t, err)
}
