package account

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/FreelanceFlow/app/models"
	"github.com/ManuelReschke/FreelanceFlow/app/repository"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/apperror"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/database"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/usercontext"
)

func newService(t *testing.T) *Service {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	return NewService(repository.NewRepositories(db))
}

func register(t *testing.T, svc *Service) (*models.User, usercontext.Caller) {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{
		Name: "Fred Lancer", Email: "Fred@Example.com", Password: "secret1", Role: "freelancer",
	})
	require.NoError(t, err)
	return u, usercontext.Caller{UserID: u.ID, Role: u.Role}
}

func TestRegister(t *testing.T) {
	svc := newService(t)
	u, _ := register(t, svc)

	assert.Equal(t, "fred@example.com", u.Email)
	assert.Equal(t, models.ROLE_FREELANCER, u.Role)
	assert.NotEqual(t, "secret1", u.Password)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name: "Other", Email: "fred@example.com", Password: "secret1", Role: "PAYER",
	})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = svc.Register(context.Background(), RegisterInput{
		Name: "X", Email: "bad", Password: "123", Role: "ADMIN",
	})
	require.ErrorIs(t, err, apperror.ErrValidation)
	var ae *apperror.Error
	require.ErrorAs(t, err, &ae)
	assert.Len(t, ae.Fields, 4)
}

func TestAuthenticate(t *testing.T) {
	svc := newService(t)
	u, _ := register(t, svc)
	ctx := context.Background()

	got, err := svc.Authenticate(ctx, LoginInput{Email: "fred@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, LoginInput{Email: "fred@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.Authenticate(ctx, LoginInput{Email: "ghost@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestSetRoleAndProfile(t *testing.T) {
	svc := newService(t)
	_, caller := register(t, svc)
	ctx := context.Background()

	u, err := svc.SetRole(ctx, caller, RoleInput{Role: "payer"})
	require.NoError(t, err)
	assert.Equal(t, models.ROLE_PAYER, u.Role)

	_, err = svc.SetRole(ctx, caller, RoleInput{Role: "ADMIN"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	u, err = svc.UpdateProfile(ctx, caller, ProfileInput{Name: "  Fred L.  "})
	require.NoError(t, err)
	assert.Equal(t, "Fred L.", u.Name)

	_, err = svc.Profile(ctx, usercontext.Caller{})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestChangePassword(t *testing.T) {
	svc := newService(t)
	_, caller := register(t, svc)
	ctx := context.Background()

	fieldOf := func(err error) string {
		var ae *apperror.Error
		require.ErrorAs(t, err, &ae)
		require.NotEmpty(t, ae.Fields)
		return ae.Fields[0].Field
	}

	err := svc.ChangePassword(ctx, caller, PasswordInput{CurrentPassword: "secret1", NewPassword: "newpass", ConfirmPassword: "other"})
	assert.Equal(t, "confirm_password", fieldOf(err))

	err = svc.ChangePassword(ctx, caller, PasswordInput{CurrentPassword: "wrong", NewPassword: "newpass", ConfirmPassword: "newpass"})
	assert.Equal(t, "current_password", fieldOf(err))

	require.NoError(t, svc.ChangePassword(ctx, caller, PasswordInput{CurrentPassword: "secret1", NewPassword: "newpass", ConfirmPassword: "newpass"}))
	_, err = svc.Authenticate(ctx, LoginInput{Email: "fred@example.com", Password: "newpass"})
	assert.NoError(t, err)
}
