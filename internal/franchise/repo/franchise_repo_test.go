package repo

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/pizzafoundry/pizza-service/internal/franchise/entity"
	userentity "github.com/pizzafoundry/pizza-service/internal/user/entity"
)

func newMockRepo(t *testing.T) (*FranchiseRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewFranchiseRepo(sqlx.NewDb(db, "sqlmock")), mock
}

func TestCreateResolvesAdminsAndGrantsRoles(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name FROM users WHERE email = $1`)).
		WithArgs("f@test.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(5, "franchisee"))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO franchises (name) VALUES ($1) RETURNING id`)).
		WithArgs("pizzaPocket").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO franchise_admins (franchise_id, user_id) VALUES ($1, $2)`)).
		WithArgs(int64(12), int64(5)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO user_roles (user_id, role, object_id) VALUES ($1, $2, $3)`)).
		WithArgs(int64(5), userentity.RoleFranchisee, int64(12)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	f := &entity.Franchise{Name: "pizzaPocket", Admins: []entity.Admin{{Email: "f@test.com"}}}
	require.NoError(t, repo.Create(context.Background(), f))
	require.Equal(t, int64(12), f.ID)
	require.Equal(t, int64(5), f.Admins[0].ID)
	require.Equal(t, "franchisee", f.Admins[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsUnknownAdminBeforeAnyInsert(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name FROM users WHERE email = $1`)).
		WithArgs("ghost@test.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	f := &entity.Franchise{Name: "pizzaPocket", Admins: []entity.Admin{{Email: "ghost@test.com"}}}
	err := repo.Create(context.Background(), f)
	require.ErrorIs(t, err, ErrUnknownAdmin)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCascadesStoresRolesAndAdmins(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM stores WHERE franchise_id = $1`)).
		WithArgs(int64(12)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM user_roles WHERE role = $1 AND object_id = $2`)).
		WithArgs(userentity.RoleFranchisee, int64(12)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM franchise_admins WHERE franchise_id = $1`)).
		WithArgs(int64(12)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM franchises WHERE id = $1`)).
		WithArgs(int64(12)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 12))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUnknownFranchise(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM stores WHERE franchise_id = $1`)).
		WithArgs(int64(99)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM user_roles WHERE role = $1 AND object_id = $2`)).
		WithArgs(userentity.RoleFranchisee, int64(99)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM franchise_admins WHERE franchise_id = $1`)).
		WithArgs(int64(99)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM franchises WHERE id = $1`)).
		WithArgs(int64(99)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 99)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCreateStoreUnderFranchise(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM franchises WHERE id = $1`)).
		WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO stores (franchise_id, name) VALUES ($1, $2) RETURNING id`)).
		WithArgs(int64(12), "SLC").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))

	st := &entity.Store{Name: "SLC"}
	require.NoError(t, repo.CreateStore(context.Background(), 12, st))
	require.Equal(t, int64(4), st.ID)
	require.Equal(t, int64(12), st.FranchiseID)
}

func TestCreateStoreUnknownFranchise(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM franchises WHERE id = $1`)).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	err := repo.CreateStore(context.Background(), 99, &entity.Store{Name: "SLC"})
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDeleteStoreScopedToFranchise(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM stores WHERE id = $1 AND franchise_id = $2`)).
		WithArgs(int64(4), int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteStore(context.Background(), 12, 4)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListForUserHydratesAdminsAndStores(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT f.id, f.name FROM franchises f`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(12, "pizzaPocket"))
	mock.ExpectQuery(`SELECT u.id, u.name, u.email FROM franchise_admins fa`).
		WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).
			AddRow(5, "franchisee", "f@test.com"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, revenue FROM stores WHERE franchise_id = $1 ORDER BY id`)).
		WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "revenue"}).AddRow(4, "SLC", 0.05))

	franchises, err := repo.ListForUser(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, franchises, 1)
	require.Equal(t, "pizzaPocket", franchises[0].Name)
	require.Equal(t, "f@test.com", franchises[0].Admins[0].Email)
	require.Equal(t, "SLC", franchises[0].Stores[0].Name)
}
