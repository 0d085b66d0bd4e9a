package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pizzafoundry/pizza-service/internal/auth"
	"github.com/pizzafoundry/pizza-service/internal/user/entity"
)

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	svc, mock := newMockService(t)
	return NewHandler(svc, nil, 10, zap.NewNop().Sugar()), mock
}

func asIdentity(req *http.Request, id *auth.Identity) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), id))
}

func TestMeReturnsOwnRecord(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, email, password_hash FROM users WHERE id = $1`)).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash"}).
			AddRow(3, "pizza diner", "d@test.com", "hashed"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT role, object_id FROM user_roles WHERE user_id = $1 ORDER BY id`)).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"role", "object_id"}).AddRow(entity.RoleDiner, 0))

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req = asIdentity(req, &auth.Identity{UserID: 3, Roles: []entity.Role{{Role: entity.RoleDiner}}})
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		User entity.User `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, int64(3), resp.User.ID)
	require.Empty(t, resp.User.PasswordHash)
}

func TestMeWithoutIdentity(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/user/me", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListRequiresGlobalAdmin(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req = asIdentity(req, &auth.Identity{UserID: 3, Roles: []entity.Role{{Role: entity.RoleDiner}}})
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "unauthorized", resp["message"])
}

func TestDeleteOtherUserRequiresAdmin(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/user/9", nil)
	req.SetPathValue("userId", "9")
	req = asIdentity(req, &auth.Identity{UserID: 3, Roles: []entity.Role{{Role: entity.RoleDiner}}})
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteSelf(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM user_roles WHERE user_id = $1`)).
		WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM auth_tokens WHERE user_id = $1`)).
		WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).
		WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req := httptest.NewRequest(http.MethodDelete, "/api/user/3", nil)
	req.SetPathValue("userId", "3")
	req = asIdentity(req, &auth.Identity{UserID: 3, Roles: []entity.Role{{Role: entity.RoleDiner}}})
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "user deleted", resp["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListReturnsUsersAndMoreFlag(t *testing.T) {
	h, mock := newTestHandler(t)

	rows := sqlmock.NewRows([]string{"id", "name", "email"})
	for i := 1; i <= 11; i++ {
		rows.AddRow(i, "diner", "d@test.com")
	}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, email FROM users ORDER BY id LIMIT $1 OFFSET $2`)).
		WithArgs(11, 0).
		WillReturnRows(rows)
	for i := 1; i <= 11; i++ {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT role, object_id FROM user_roles WHERE user_id = $1 ORDER BY id`)).
			WithArgs(int64(i)).
			WillReturnRows(sqlmock.NewRows([]string{"role", "object_id"}).AddRow(entity.RoleDiner, 0))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req = asIdentity(req, &auth.Identity{UserID: 1, Roles: []entity.Role{{Role: entity.RoleAdmin}}})
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Users []entity.User `json:"users"`
		More  bool          `json:"more"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Users, 10)
	require.True(t, resp.More)
}
