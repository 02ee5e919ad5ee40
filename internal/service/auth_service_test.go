package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/volve-hq/attendance-api/internal/models"
	"github.com/volve-hq/attendance-api/pkg/config"
	appErrors "github.com/volve-hq/attendance-api/pkg/errors"
)

type fakeUserReader struct {
	user *models.User
	err  error
}

func (f *fakeUserReader) FindByID(context.Context, int64) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func hashPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newAuth(users userReader) *AuthService {
	return NewAuthService(users, nil, nil, config.JWTConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "test",
	})
}

func TestLoginSuccess(t *testing.T) {
	users := &fakeUserReader{user: &models.User{
		ID:           42,
		Name:         "Dewi",
		Email:        "dewi@example.com",
		PasswordHash: hashPassword(t, "rahasia"),
		Role:         models.RoleStaff,
		Status:       "active",
	}}
	svc := newAuth(users)

	res, err := svc.Login(context.Background(), models.LoginRequest{EmployeeID: "EMP-0042", Password: "rahasia"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "EMP-0042", res.User.EmployeeCode)
	assert.Equal(t, int64(3600), res.ExpiresIn)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, models.RoleStaff, claims.Role)
}

func TestLoginAcceptsBareNumericID(t *testing.T) {
	users := &fakeUserReader{user: &models.User{
		ID:           42,
		PasswordHash: hashPassword(t, "rahasia"),
		Role:         models.RoleStaff,
		Status:       "active",
	}}
	svc := newAuth(users)

	_, err := svc.Login(context.Background(), models.LoginRequest{EmployeeID: "42", Password: "rahasia"})
	assert.NoError(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	users := &fakeUserReader{user: &models.User{
		ID:           42,
		PasswordHash: hashPassword(t, "rahasia"),
		Status:       "active",
	}}
	svc := newAuth(users)

	_, err := svc.Login(context.Background(), models.LoginRequest{EmployeeID: "EMP-0042", Password: "salah"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginUnknownEmployee(t *testing.T) {
	svc := newAuth(&fakeUserReader{err: sql.ErrNoRows})

	_, err := svc.Login(context.Background(), models.LoginRequest{EmployeeID: "EMP-0099", Password: "rahasia"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginMalformedEmployeeCode(t *testing.T) {
	svc := newAuth(&fakeUserReader{})

	_, err := svc.Login(context.Background(), models.LoginRequest{EmployeeID: "EMP-abc", Password: "rahasia"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginInactiveAccount(t *testing.T) {
	users := &fakeUserReader{user: &models.User{
		ID:           42,
		PasswordHash: hashPassword(t, "rahasia"),
		Status:       "inactive",
	}}
	svc := newAuth(users)

	_, err := svc.Login(context.Background(), models.LoginRequest{EmployeeID: "EMP-0042", Password: "rahasia"})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newAuth(&fakeUserReader{})

	_, err := svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := newAuth(&fakeUserReader{})
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := svc.issueToken(&models.User{ID: 42, Role: models.RoleStaff}, svc.now())
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
