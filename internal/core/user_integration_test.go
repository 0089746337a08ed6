package core_test

import (
	"errors"
	"testing"

	"pos-backend/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Authenticate(t *testing.T) {
	env := setupTestDB(t)

	u, err := env.users.Create(env.ctx, core.NewUserInput{
		Username: "manager1",
		Email:    "manager@shop.test",
		Password: "s3cret-pass",
		Role:     core.RoleManager,
	})
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", u.PasswordHash)

	got, err := env.users.Authenticate(env.ctx, "manager@shop.test", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, core.RoleManager, got.Role)

	_, err = env.users.Authenticate(env.ctx, "manager@shop.test", "wrong-pass")
	assert.True(t, errors.Is(err, core.ErrUnauthorized), "got %v", err)
	_, err = env.users.Authenticate(env.ctx, "nobody@shop.test", "s3cret-pass")
	assert.True(t, errors.Is(err, core.ErrUnauthorized), "got %v", err)

	require.NoError(t, env.users.Deactivate(env.ctx, u.ID))
	_, err = env.users.Authenticate(env.ctx, "manager@shop.test", "s3cret-pass")
	assert.True(t, errors.Is(err, core.ErrUnauthorized), "deactivated user: got %v", err)

	_, err = env.users.Create(env.ctx, core.NewUserInput{Username: "manager1", Email: "other@shop.test", Password: "password1"})
	assert.True(t, errors.Is(err, core.ErrDuplicate), "got %v", err)
}
