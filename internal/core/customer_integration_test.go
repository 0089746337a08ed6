package core_test

import (
	"errors"
	"testing"

	"pos-backend/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerService_SequentialCodes(t *testing.T) {
	env := setupTestDB(t)

	for i, want := range []string{"CUST-001", "CUST-002", "CUST-003"} {
		c, err := env.customers.Create(env.ctx, core.CustomerRef{FullName: "C", Phone: string(rune('a' + i))})
		require.NoError(t, err)
		assert.Equal(t, want, c.CustomerCode)
	}
}

func TestCustomerService_CounterSeedsFromExistingCodes(t *testing.T) {
	env := setupTestDB(t)
	_, err := env.pool.Exec(env.ctx, `
		INSERT INTO customers (customer_code, email) VALUES
		('CUST-007', 'seven@shop.test'),
		('LEGACY-X', 'legacy@shop.test')
	`)
	require.NoError(t, err)

	c, err := env.customers.Create(env.ctx, core.CustomerRef{Email: "eight@shop.test"})
	require.NoError(t, err)
	assert.Equal(t, "CUST-008", c.CustomerCode)
}

func TestCustomerService_UpsertMatchesEmailBeforePhone(t *testing.T) {
	env := setupTestDB(t)

	byPhone, err := env.customers.Create(env.ctx, core.CustomerRef{Phone: "555"})
	require.NoError(t, err)
	byEmail, err := env.customers.Create(env.ctx, core.CustomerRef{Email: "a@shop.test", Phone: "777"})
	require.NoError(t, err)

	again, err := env.customers.Create(env.ctx, core.CustomerRef{Email: "a@shop.test", Phone: "555", TIN: "T-1"})
	require.NoError(t, err)
	assert.Equal(t, byEmail.ID, again.ID)
	assert.Equal(t, "555", again.Phone)
	assert.Equal(t, "T-1", again.TIN)

	// Empty incoming fields keep what is stored.
	again, err = env.customers.Create(env.ctx, core.CustomerRef{Email: "a@shop.test"})
	require.NoError(t, err)
	assert.Equal(t, "555", again.Phone)
	assert.Equal(t, "T-1", again.TIN)

	again, err = env.customers.Create(env.ctx, core.CustomerRef{Phone: " 555 "})
	require.NoError(t, err)
	assert.Equal(t, byPhone.ID, again.ID)
}

func TestCustomerService_UpdateAndDeactivate(t *testing.T) {
	env := setupTestDB(t)
	a, err := env.customers.Create(env.ctx, core.CustomerRef{Email: "a@shop.test"})
	require.NoError(t, err)
	_, err = env.customers.Create(env.ctx, core.CustomerRef{Email: "b@shop.test"})
	require.NoError(t, err)

	name := "Alice"
	updated, err := env.customers.Update(env.ctx, a.ID, core.CustomerUpdate{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.FullName)
	assert.Equal(t, "a@shop.test", updated.Email)

	taken := "b@shop.test"
	_, err = env.customers.Update(env.ctx, a.ID, core.CustomerUpdate{Email: &taken})
	assert.True(t, errors.Is(err, core.ErrDuplicate), "got %v", err)

	require.NoError(t, env.customers.Deactivate(env.ctx, a.ID))
	got, err := env.customers.Get(env.ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	insights, err := env.customers.Insights(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, insights.TotalCustomers)
	assert.Equal(t, 1, insights.ActiveCustomers)
}
