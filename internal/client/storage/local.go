package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/coinkeeper/internal/client/models"
	"github.com/dmitrijs2005/coinkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/coinkeeper/internal/common"
	"github.com/dmitrijs2005/coinkeeper/internal/identity"
	"github.com/dmitrijs2005/coinkeeper/internal/logging"
)

// LocalBackend keeps encrypted accounts in the client SQLite database.
type LocalBackend struct {
	*recordStore
}

var _ Backend = (*LocalBackend)(nil)

func NewLocalBackend(repo metadata.Repository, cred identity.Credential, password string, log logging.Logger) *LocalBackend {
	return &LocalBackend{recordStore: newRecordStore(repo, cred, password, log)}
}

func (b *LocalBackend) Kind() Kind { return KindLocal }

func (b *LocalBackend) Create(ctx context.Context, acct *models.Account, email string) (*models.Account, error) {
	return b.create(ctx, acct, email)
}

func (b *LocalBackend) Load(ctx context.Context) (*models.Account, error) {
	id, err := b.Check(ctx)
	if errors.Is(err, common.ErrAccountNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("local storage: %w", err)
	}
	return b.load(ctx, id)
}

func (b *LocalBackend) Save(ctx context.Context, acct *models.Account, identifier string) (*models.Account, error) {
	return upsert(ctx, b, acct, identifier)
}
