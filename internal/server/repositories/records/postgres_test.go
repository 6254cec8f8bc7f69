package records

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/coinkeeper/internal/server/models"
	"github.com/dmitrijs2005/coinkeeper/internal/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertQ = `(?s)^INSERT\s+INTO\s+keystore_records\s*\(identifier,\s*email,\s*encrypted_data,\s*shared_key\)\s*VALUES\s*\(\$1,\s*NULLIF\(\$2,\s*''\),\s*\$3,\s*\$4\)\s*RETURNING\s+created_at,\s*updated_at\s*$`
	byIDQ   = `(?s)^SELECT\s+identifier,\s*COALESCE\(email,\s*''\),\s*encrypted_data,\s*shared_key,\s*created_at,\s*updated_at\s+FROM\s+keystore_records\s+WHERE\s+identifier\s*=\s*\$1\s*$`
	byMailQ = `(?s)^SELECT\s+identifier,.*FROM\s+keystore_records\s+WHERE\s+email\s*=\s*\$1\s*$`
	updateQ = `(?s)^UPDATE\s+keystore_records\s+SET\s+encrypted_data\s*=\s*\$2,\s*email\s*=\s*NULLIF\(\$3,\s*''\),\s*updated_at\s*=\s*now\(\)\s+WHERE\s+identifier\s*=\s*\$1\s+RETURNING\s+shared_key,\s*created_at,\s*updated_at\s*$`
)

var recordCols = []string{"identifier", "email", "encrypted_data", "shared_key", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewPostgresRepository(db), mock
}

func TestPostgres_Create(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(insertQ).
		WithArgs("id-1", "a@example.com", "blob", "key").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	got, err := repo.Create(context.Background(), &models.Record{
		Identifier: "id-1", Email: "a@example.com", EncryptedData: "blob", SharedKey: "key",
	})
	require.NoError(t, err)
	assert.Equal(t, now, got.CreatedAt)
	assert.Equal(t, now, got.UpdatedAt)
}

func TestPostgres_Create_EmailTaken(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQ).
		WithArgs("id-2", "a@example.com", "", "key").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})

	_, err := repo.Create(context.Background(), &models.Record{Identifier: "id-2", Email: "a@example.com", SharedKey: "key"})
	assert.ErrorIs(t, err, shared.ErrorAlreadyExists)
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	mock.ExpectQuery(insertQ).
		WithArgs("id-2", "", "", "key").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "keystore_records_pkey"})

	_, err = repo.Create(context.Background(), &models.Record{Identifier: "id-2", SharedKey: "key"})
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)
}

func TestPostgres_Create_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQ).
		WithArgs("id-3", "", "", "").
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Record{Identifier: "id-3"})
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
}

func TestPostgres_GetByIdentifier(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(byIDQ).
		WithArgs("id-1").
		WillReturnRows(sqlmock.NewRows(recordCols).AddRow("id-1", "", "blob", "key", now, now))

	got, err := repo.GetByIdentifier(context.Background(), "id-1")
	require.NoError(t, err)
	assert.Equal(t, "id-1", got.Identifier)
	assert.Equal(t, "", got.Email)
	assert.Equal(t, "blob", got.EncryptedData)
	assert.Equal(t, "key", got.SharedKey)
}

func TestPostgres_GetByIdentifier_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(byIDQ).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByIdentifier(context.Background(), "ghost")
	assert.ErrorIs(t, err, shared.ErrorNotFound)
}

func TestPostgres_GetByEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(byMailQ).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows(recordCols).AddRow("id-1", "a@example.com", "blob", "", now, now))

	got, err := repo.GetByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "id-1", got.Identifier)

	mock.ExpectQuery(byMailQ).WithArgs("b@example.com").WillReturnError(errors.New("conn reset"))
	_, err = repo.GetByEmail(context.Background(), "b@example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrorNotFound)
}

func TestPostgres_Update(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	mock.ExpectQuery(updateQ).
		WithArgs("id-1", "blob2", "a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"shared_key", "created_at", "updated_at"}).AddRow("key", created, updated))

	got, err := repo.Update(context.Background(), &models.Record{Identifier: "id-1", EncryptedData: "blob2", Email: "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "key", got.SharedKey)
	assert.Equal(t, updated, got.UpdatedAt)
}

func TestPostgres_Update_Errors(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(updateQ).WithArgs("ghost", "x", "").WillReturnError(sql.ErrNoRows)
	_, err := repo.Update(context.Background(), &models.Record{Identifier: "ghost", EncryptedData: "x"})
	assert.ErrorIs(t, err, shared.ErrorNotFound)

	mock.ExpectQuery(updateQ).WithArgs("id-1", "x", "taken@example.com").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	_, err = repo.Update(context.Background(), &models.Record{Identifier: "id-1", EncryptedData: "x", Email: "taken@example.com"})
	assert.ErrorIs(t, err, shared.ErrorAlreadyExists)
}
