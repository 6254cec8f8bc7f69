// Package storage persists encrypted accounts. Backend has three variants
// chosen by configuration: MemoryBackend (process memory), LocalBackend
// (SQLite file) and RemoteBackend (keystore server).
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/coinkeeper/internal/client/models"
	"github.com/dmitrijs2005/coinkeeper/internal/common"
	"github.com/dmitrijs2005/coinkeeper/internal/cryptox"
	"github.com/dmitrijs2005/coinkeeper/internal/identity"
)

type Kind string

const (
	KindMemory Kind = "memory"
	KindLocal  Kind = "local"
	KindRemote Kind = "remote"
)

// ParseKind validates a configured storage mode.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindMemory, KindLocal, KindRemote:
		return k, nil
	default:
		return "", fmt.Errorf("%w: storage %q", common.ErrInvalidSetting, s)
	}
}

// Backend stores the account of one credential/password pair.
type Backend interface {
	Kind() Kind
	// Check resolves the credential to an identifier or fails with
	// common.ErrAccountNotFound.
	Check(ctx context.Context) (string, error)
	// Create assigns an identifier and persists acct.
	Create(ctx context.Context, acct *models.Account, email string) (*models.Account, error)
	// Load returns the decrypted account. A wrong password fails with
	// common.ErrInvalidPassword, a missing one with common.ErrAccountNotFound.
	Load(ctx context.Context) (*models.Account, error)
	// Save persists acct under identifier. Without an identifier it resolves
	// one with Check and falls back to Create.
	Save(ctx context.Context, acct *models.Account, identifier string) (*models.Account, error)
}

// sealer holds what a backend learns about the account while it works and
// handles encryption.
type sealer struct {
	cred       identity.Credential
	password   []byte
	identifier string
	email      string
	sharedKey  string
}

func newSealer(cred identity.Credential, password string) sealer {
	s := sealer{cred: cred, password: []byte(password)}
	switch cred.Kind() {
	case identity.KindEmail:
		s.email = cred.Value()
	case identity.KindIdentifier:
		if identity.IsValidIdentifier(cred.Value()) {
			s.identifier = cred.Value()
		}
	}
	return s
}

// encrypt stamps the known email and identifier into acct and seals it.
func (s *sealer) encrypt(acct *models.Account) (string, error) {
	if acct.Email == "" {
		acct.Email = s.email
	}
	if acct.Identifier == "" {
		acct.Identifier = s.identifier
	}
	blob, err := cryptox.EncryptEntry(acct, s.password)
	if err != nil {
		return "", fmt.Errorf("encrypt account: %w", err)
	}
	return blob, nil
}

// decrypt opens blob and learns email, identifier and shared key from it.
// Any failure is reported as common.ErrInvalidPassword.
func (s *sealer) decrypt(blob string) (*models.Account, error) {
	acct := models.NewAccount()
	if err := cryptox.DecryptEntry(blob, s.password, acct); err != nil {
		return nil, common.ErrInvalidPassword
	}
	acct.Normalize()
	if acct.Email != "" {
		s.email = acct.Email
	}
	if acct.Identifier != "" {
		s.identifier = acct.Identifier
	}
	if acct.SharedKey != "" {
		s.sharedKey = acct.SharedKey
	}
	return acct, nil
}

// lookupKey is what the credential contributes to an identifier lookup.
// A mnemonic is never sent anywhere as a key.
func (s *sealer) lookupKey() string {
	if s.identifier != "" {
		return s.identifier
	}
	if s.cred.Kind() == identity.KindMnemonic {
		return ""
	}
	return s.cred.Value()
}

type upserter interface {
	Check(ctx context.Context) (string, error)
	Create(ctx context.Context, acct *models.Account, email string) (*models.Account, error)
	put(ctx context.Context, acct *models.Account, identifier string) (*models.Account, error)
}

func upsert(ctx context.Context, u upserter, acct *models.Account, identifier string) (*models.Account, error) {
	if identifier != "" {
		return u.put(ctx, acct, identifier)
	}
	id, err := u.Check(ctx)
	switch {
	case err == nil:
		return u.put(ctx, acct, id)
	case errors.Is(err, common.ErrAccountNotFound):
		return u.Create(ctx, acct, acct.Email)
	default:
		return nil, err
	}
}
