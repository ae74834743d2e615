// AngelaMos | 2026
// repository_test.go

package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/account-api/internal/core"
)

var userRowColumns = []string{
	"id", "first_name", "last_name", "email", "phone", "password_hash", "role",
	"created_at", "updated_at", "deleted_at",
}

func newRepoWithMock(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close() //nolint:errcheck // test cleanup
	})

	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestRepository_Create(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO users \(id, first_name, last_name, email, phone, password_hash, role\)`).
		WithArgs("u-1", "Jane", "Doe", "jane@example.com", "+5511999999999", "hash", RoleUser).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	u := &User{
		ID:           "u-1",
		FirstName:    "Jane",
		LastName:     "Doe",
		Email:        "jane@example.com",
		Phone:        "+5511999999999",
		PasswordHash: "hash",
		Role:         RoleUser,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, now, u.CreatedAt)
	assert.Equal(t, now, u.UpdatedAt)
}

func TestRepository_CreateDuplicateEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_active_key"})

	err := repo.Create(context.Background(), &User{ID: "u-1", Email: "jane@example.com"})
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestRepository_GetByEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM users\s+WHERE email = \$1 AND deleted_at IS NULL`).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			"u-1", "Jane", "Doe", "jane@example.com", "", "hash", RoleAdmin, now, now, nil,
		))

	u, err := repo.GetByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.True(t, u.IsAdmin())
	assert.False(t, u.IsDeleted())
}

func TestRepository_GetByIDNotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT .+ FROM users\s+WHERE id = \$1 AND deleted_at IS NULL`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepository_ListEmpty(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT .+ FROM users\s+WHERE deleted_at IS NULL\s+ORDER BY created_at ASC`).
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestRepository_UpdateMissingRow(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`UPDATE users\s+SET first_name = \$2`).
		WithArgs("gone", "Jane", "Doe", "jane@example.com", "", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}))

	err := repo.Update(context.Background(), &User{
		ID:           "gone",
		FirstName:    "Jane",
		LastName:     "Doe",
		Email:        "jane@example.com",
		PasswordHash: "hash",
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepository_UpdatePasswordNotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE users\s+SET password_hash = \$2`).
		WithArgs("gone", "new-hash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePassword(context.Background(), "gone", "new-hash")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepository_SoftDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE users\s+SET deleted_at = NOW\(\)`).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users\s+SET deleted_at = NOW\(\)`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.SoftDelete(context.Background(), "u-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.SoftDelete(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRepository_SoftDeleteDBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	dbErr := errors.New("db down")

	mock.ExpectExec(`UPDATE users`).WillReturnError(dbErr)

	_, err := repo.SoftDelete(context.Background(), "u-1")
	assert.ErrorIs(t, err, dbErr)
}

func TestRepository_CountByRole(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT role, COUNT\(\*\) AS count\s+FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"role", "count"}).
			AddRow(RoleAdmin, 2).
			AddRow(RoleUser, 40))

	counts, err := repo.CountByRole(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []CountByRole{{Role: RoleAdmin, Count: 2}, {Role: RoleUser, Count: 40}}, counts)
}
