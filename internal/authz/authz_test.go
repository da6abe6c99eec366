package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nesi-market/nesi/internal/models"
)

func TestRequire(t *testing.T) {
	tests := []struct {
		name     string
		caller   Caller
		required models.Role
		wantErr  error
	}{
		{name: "anonymous", caller: Caller{}, required: models.RoleCustomer, wantErr: ErrUnauthorized},
		{name: "matching role", caller: Caller{UserID: "u1", Role: models.RoleCustomer}, required: models.RoleCustomer},
		{name: "admin passes customer", caller: Caller{UserID: "a1", Role: models.RoleAdmin}, required: models.RoleCustomer},
		{name: "admin passes executor", caller: Caller{UserID: "a1", Role: models.RoleAdmin}, required: models.RoleExecutor},
		{name: "admin passes admin", caller: Caller{UserID: "a1", Role: models.RoleAdmin}, required: models.RoleAdmin},
		{name: "executor is not admin", caller: Caller{UserID: "e1", Role: models.RoleExecutor}, required: models.RoleAdmin, wantErr: ErrForbidden},
		{name: "customer is not executor", caller: Caller{UserID: "c1", Role: models.RoleCustomer}, required: models.RoleExecutor, wantErr: ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Require(tt.caller, tt.required)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRequireAny(t *testing.T) {
	executor := Caller{UserID: "e1", Role: models.RoleExecutor}

	assert.NoError(t, RequireAny(executor))
	assert.NoError(t, RequireAny(executor, models.RoleCustomer, models.RoleExecutor))
	assert.ErrorIs(t, RequireAny(executor, models.RoleCustomer), ErrForbidden)
	assert.ErrorIs(t, RequireAny(Caller{}), ErrUnauthorized)
}

func TestRequireSelfOr(t *testing.T) {
	assert.NoError(t, RequireSelfOr(Caller{UserID: "e1", Role: models.RoleExecutor}, "e1", models.RoleExecutor))
	assert.ErrorIs(t, RequireSelfOr(Caller{UserID: "e1", Role: models.RoleExecutor}, "e2", models.RoleExecutor), ErrForbidden)
	assert.ErrorIs(t, RequireSelfOr(Caller{UserID: "c1", Role: models.RoleCustomer}, "c1", models.RoleExecutor), ErrForbidden)
	assert.NoError(t, RequireSelfOr(Caller{UserID: "a1", Role: models.RoleAdmin}, "e2", models.RoleExecutor))
	assert.ErrorIs(t, RequireSelfOr(Caller{}, "e1", models.RoleExecutor), ErrUnauthorized)
}
