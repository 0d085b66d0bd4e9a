package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pizzafoundry/pizza-service/internal/user/entity"
)

func testTokenService() *TokenService {
	return NewTokenService(TokenConfig{Secret: "test-secret", TTL: time.Hour})
}

func TestSignParseRoundTrip(t *testing.T) {
	svc := testTokenService()
	u := &entity.User{
		ID:    42,
		Name:  "pizza diner",
		Email: "d@test.com",
		Roles: []entity.Role{{Role: entity.RoleDiner}, {Role: entity.RoleFranchisee, ObjectID: 7}},
	}

	token, err := svc.Sign(u)
	require.NoError(t, err)

	id, err := svc.Parse(token)
	require.NoError(t, err)
	require.Equal(t, int64(42), id.UserID)
	require.Equal(t, "pizza diner", id.Name)
	require.Equal(t, "d@test.com", id.Email)
	require.Equal(t, u.Roles, id.Roles)
	require.True(t, id.IsFranchiseAdmin(7))
	require.False(t, id.IsFranchiseAdmin(8))
	require.False(t, id.IsAdmin())
}

func TestParseRejectsExpiredToken(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "test-secret", TTL: -time.Minute})
	token, err := svc.Sign(&entity.User{ID: 1, Email: "d@test.com"})
	require.NoError(t, err)

	_, err = svc.Parse(token)
	require.Error(t, err)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	token, err := testTokenService().Sign(&entity.User{ID: 1, Email: "d@test.com"})
	require.NoError(t, err)

	other := NewTokenService(TokenConfig{Secret: "another-secret", TTL: time.Hour})
	_, err = other.Parse(token)
	require.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	svc := testTokenService()
	for _, token := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		_, err := svc.Parse(token)
		require.Error(t, err, "token %q", token)
	}
}

func TestSignatureFragment(t *testing.T) {
	token, err := testTokenService().Sign(&entity.User{ID: 1, Email: "d@test.com"})
	require.NoError(t, err)

	sig, err := Signature(token)
	require.NoError(t, err)
	require.NotEmpty(t, sig)
	require.NotContains(t, sig, ".")

	_, err = Signature("not-a-jwt")
	require.Error(t, err)
	_, err = Signature("a.b.")
	require.Error(t, err)
}
