package auth

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/pizzafoundry/pizza-service/internal/user/entity"
)

func TestMiddlewareAttachesIdentity(t *testing.T) {
	db, mock := newMockDB(t)
	tokens := testTokenService()
	svc := NewService(db, nil, tokens)

	token, err := tokens.Sign(&entity.User{ID: 3, Name: "pizza diner", Email: "d@test.com"})
	require.NoError(t, err)
	sig, err := Signature(token)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id FROM auth_tokens WHERE signature = $1`)).
		WithArgs(sig).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(3))

	var gotID *Identity
	var gotToken string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = IdentityFromContext(r.Context())
		gotToken, _ = TokenFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	svc.Middleware(next).ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, gotID)
	require.Equal(t, int64(3), gotID.UserID)
	require.Equal(t, token, gotToken)
}

func TestMiddlewarePassesThroughUnauthenticated(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewService(db, nil, testTokenService())

	cases := map[string]string{
		"no header":     "",
		"not bearer":    "Basic Zm9vOmJhcg==",
		"garbage token": "Bearer garbage",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				_, ok := IdentityFromContext(r.Context())
				require.False(t, ok)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/order/menu", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			svc.Middleware(next).ServeHTTP(httptest.NewRecorder(), req)
			require.True(t, called)
		})
	}
}
