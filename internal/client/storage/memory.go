package storage

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/coinkeeper/internal/client/models"
	"github.com/dmitrijs2005/coinkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/coinkeeper/internal/common"
	"github.com/dmitrijs2005/coinkeeper/internal/identity"
	"github.com/dmitrijs2005/coinkeeper/internal/logging"
)

// MemoryBackend keeps encrypted accounts in a process-local repository.
// Backends sharing one repository see each other's accounts; nothing
// survives the process.
type MemoryBackend struct {
	*recordStore
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend uses repo, or a private repository when repo is nil.
func NewMemoryBackend(repo *metadata.MemoryRepository, cred identity.Credential, password string, log logging.Logger) *MemoryBackend {
	if repo == nil {
		repo = metadata.NewMemoryRepository()
	}
	return &MemoryBackend{recordStore: newRecordStore(repo, cred, password, log)}
}

func (b *MemoryBackend) Kind() Kind { return KindMemory }

func (b *MemoryBackend) Create(ctx context.Context, acct *models.Account, email string) (*models.Account, error) {
	return b.create(ctx, acct, email)
}

// Load returns the stored account. Logging in with a mnemonic that has no
// account yet creates one from it.
func (b *MemoryBackend) Load(ctx context.Context) (*models.Account, error) {
	id, err := b.Check(ctx)
	if errors.Is(err, common.ErrAccountNotFound) && b.cred.Kind() == identity.KindMnemonic {
		acct := models.NewAccount()
		acct.Wallet.Mnemonic = b.cred.Value()
		return b.create(ctx, acct, "")
	}
	if err != nil {
		return nil, err
	}
	return b.load(ctx, id)
}

func (b *MemoryBackend) Save(ctx context.Context, acct *models.Account, identifier string) (*models.Account, error) {
	return upsert(ctx, b, acct, identifier)
}
