// Package records stores keystore records.
package records

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/coinkeeper/internal/server/models"
	"github.com/dmitrijs2005/coinkeeper/internal/shared"
)

// Both wrap shared.ErrorAlreadyExists.
var (
	ErrDuplicateIdentifier = fmt.Errorf("%w: identifier", shared.ErrorAlreadyExists)
	ErrDuplicateEmail      = fmt.Errorf("%w: email", shared.ErrorAlreadyExists)
)

// Repository persists keystore records. Lookups of a missing record fail
// with shared.ErrorNotFound; a second record with the same identifier or
// email fails with ErrDuplicateIdentifier or ErrDuplicateEmail.
type Repository interface {
	Create(ctx context.Context, rec *models.Record) (*models.Record, error)
	GetByIdentifier(ctx context.Context, identifier string) (*models.Record, error)
	GetByEmail(ctx context.Context, email string) (*models.Record, error)
	// Update replaces the encrypted data and email of an existing record.
	Update(ctx context.Context, rec *models.Record) (*models.Record, error)
}
