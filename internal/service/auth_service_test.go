package service

import (
	"testing"

	"campus-hostel-backend/internal/models"
	"campus-hostel-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)

	registered, err := f.auth.Register(RegisterInput{
		Username: "asha", Password: "s3cret!", Name: "Asha Rao", UserCode: "STU2022001",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, registered.User.Role)
	assert.Equal(t, "STU2022001", registered.User.UserCode)

	claims, err := utils.ValidateAccessToken(registered.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)

	login, err := f.auth.Login("asha", "s3cret!")
	require.NoError(t, err)
	assert.NotEmpty(t, login.RefreshToken)

	_, err = f.auth.Login("asha", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.auth.Login("nobody", "s3cret!")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCreateUser_Rules(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.CreateUser(RegisterInput{Username: "admin", Password: "x"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.auth.CreateUser(RegisterInput{Username: "dean", Password: "x", Role: "dean"})
	assert.ErrorIs(t, err, ErrValidation)

	user, err := f.auth.CreateUser(RegisterInput{Username: "ravi", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ravi", user.Name)
	assert.NotEqual(t, "x", user.PasswordHash)
}

func TestRefreshAndLogout(t *testing.T) {
	f := newFixture(t)
	f.user(t, "meera", models.RoleWarden, "")

	login, err := f.auth.Login("meera", "secret123")
	require.NoError(t, err)

	access, err := f.auth.RefreshAccessToken(login.RefreshToken)
	require.NoError(t, err)
	claims, err := utils.ValidateAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, models.RoleWarden, claims.Role)

	require.NoError(t, f.auth.Logout(login.RefreshToken))
	_, err = f.auth.RefreshAccessToken(login.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.auth.RefreshAccessToken("not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
