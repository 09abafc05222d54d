package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/fluxo-portal/internal/domain"
)

var userColumns = []string{"id", "name", "email", "password_hash", "role", "company", "phone", "created_at", "updated_at"}

func ptr[T any](v T) *T { return &v }

func TestUserRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (name, email, password_hash, role, company, phone)")).
		WithArgs("Ana Silva", "ana@example.com", "hash", "client", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("user-1", now, now))

	repo := NewUserRepository(mock)
	user := &domain.User{Name: "Ana Silva", Email: "ana@example.com", PasswordHash: "hash", Role: domain.RoleClient}
	require.NoError(t, repo.Create(context.Background(), user))

	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, now, user.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("Ana", "ana@example.com", "hash", "admin", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_lower_key"})

	repo := NewUserRepository(mock)
	err = repo.Create(context.Background(), &domain.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "hash", Role: domain.RoleAdmin})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE LOWER(email)=LOWER($1)")).
		WithArgs("Ana@Example.com").
		WillReturnRows(pgxmock.NewRows(userColumns).
			AddRow("user-1", "Ana", "ana@example.com", "hash", "admin", ptr("Fluxo"), nil, now, now))

	repo := NewUserRepository(mock)
	user, err := repo.GetByEmail(context.Background(), "Ana@Example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	require.NotNil(t, user.Company)
	assert.Equal(t, "Fluxo", *user.Company)
	assert.Nil(t, user.Phone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmailMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE LOWER(email)")).
		WithArgs("nobody@example.com").
		WillReturnRows(pgxmock.NewRows(userColumns))

	repo := NewUserRepository(mock)
	_, err = repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestUserRepository_RejectsUnknownRole(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE LOWER(email)=LOWER($1)")).
		WithArgs("rui@example.com").
		WillReturnRows(pgxmock.NewRows(userColumns).
			AddRow("user-9", "Rui", "rui@example.com", "hash", "owner", nil, nil, now, now))

	repo := NewUserRepository(mock)
	_, err = repo.GetByEmail(context.Background(), "rui@example.com")
	assert.ErrorContains(t, err, "unknown role")
}
