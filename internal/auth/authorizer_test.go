package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pizzafoundry/pizza-service/internal/apperr"
	"github.com/pizzafoundry/pizza-service/internal/user/entity"
)

func TestAuthorizeMatrix(t *testing.T) {
	admin := &Identity{UserID: 1, Roles: []entity.Role{{Role: entity.RoleAdmin}}}
	diner := &Identity{UserID: 2, Roles: []entity.Role{{Role: entity.RoleDiner}}}
	franchisee := &Identity{UserID: 3, Roles: []entity.Role{{Role: entity.RoleFranchisee, ObjectID: 9}}}

	cases := []struct {
		name string
		id   *Identity
		req  Requirement
		ok   bool
	}{
		{"admin acts on anyone", admin, Self(2), true},
		{"admin is global admin", admin, GlobalAdmin(), true},
		{"admin administers any franchise", admin, FranchiseAdmin(9), true},
		{"diner acts on self", diner, Self(2), true},
		{"diner cannot act on others", diner, Self(1), false},
		{"diner is not global admin", diner, GlobalAdmin(), false},
		{"diner administers no franchise", diner, FranchiseAdmin(9), false},
		{"franchisee administers own franchise", franchisee, FranchiseAdmin(9), true},
		{"franchisee scoped to one franchise", franchisee, FranchiseAdmin(8), false},
		{"franchisee is not global admin", franchisee, GlobalAdmin(), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := Authorize(c.id, c.req)
			if c.ok {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Equal(t, apperr.Forbidden, apperr.KindOf(err))
			require.Equal(t, "unauthorized", apperr.Message(err))
		})
	}
}

func TestAuthorizeWithoutIdentity(t *testing.T) {
	err := Authorize(nil, Self(1))
	require.Error(t, err)
	require.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
}
