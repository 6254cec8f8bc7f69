package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/coinkeeper/internal/dbx"
	"github.com/dmitrijs2005/coinkeeper/internal/server/models"
	"github.com/dmitrijs2005/coinkeeper/internal/shared"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation = "23505"
	primaryKey      = "keystore_records_pkey"
)

type PostgresRepository struct {
	db dbx.DBTX
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func dbError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == primaryKey {
			return ErrDuplicateIdentifier
		}
		return ErrDuplicateEmail
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Create(ctx context.Context, rec *models.Record) (*models.Record, error) {
	query :=
		`INSERT INTO keystore_records (identifier, email, encrypted_data, shared_key)
		 VALUES ($1, NULLIF($2, ''), $3, $4)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		rec.Identifier, rec.Email, rec.EncryptedData, rec.SharedKey).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, dbError(err)
	}

	return rec, nil
}

func (r *PostgresRepository) get(ctx context.Context, where string, arg string) (*models.Record, error) {
	query :=
		`SELECT identifier, COALESCE(email, ''), encrypted_data, shared_key, created_at, updated_at
		 FROM keystore_records
		 WHERE ` + where + ` = $1
		 `

	rec := &models.Record{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&rec.Identifier, &rec.Email, &rec.EncryptedData, &rec.SharedKey, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrorNotFound
		}
		return nil, dbError(err)
	}

	return rec, nil
}

func (r *PostgresRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.Record, error) {
	return r.get(ctx, "identifier", identifier)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Record, error) {
	return r.get(ctx, "email", email)
}

func (r *PostgresRepository) Update(ctx context.Context, rec *models.Record) (*models.Record, error) {
	query :=
		`UPDATE keystore_records
		 SET encrypted_data = $2, email = NULLIF($3, ''), updated_at = now()
		 WHERE identifier = $1
		 RETURNING shared_key, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, rec.Identifier, rec.EncryptedData, rec.Email).
		Scan(&rec.SharedKey, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrorNotFound
		}
		return nil, dbError(err)
	}

	return rec, nil
}
