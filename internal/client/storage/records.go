package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/coinkeeper/internal/client/models"
	"github.com/dmitrijs2005/coinkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/coinkeeper/internal/common"
	"github.com/dmitrijs2005/coinkeeper/internal/cryptox"
	"github.com/dmitrijs2005/coinkeeper/internal/identity"
	"github.com/dmitrijs2005/coinkeeper/internal/logging"
)

// recordStore keeps identifier -> StorageRecord as one JSON document under
// common.AccountNamespace in a metadata repository.
type recordStore struct {
	sealer
	repo metadata.Repository
	log  logging.Logger
}

func newRecordStore(repo metadata.Repository, cred identity.Credential, password string, log logging.Logger) *recordStore {
	if log == nil {
		log = logging.Nop()
	}
	return &recordStore{sealer: newSealer(cred, password), repo: repo, log: log}
}

func (r *recordStore) records(ctx context.Context) (map[string]models.StorageRecord, error) {
	raw, err := r.repo.Get(ctx, common.AccountNamespace)
	if err != nil {
		return nil, err
	}
	return decodeRecords(raw)
}

func decodeRecords(raw []byte) (map[string]models.StorageRecord, error) {
	recs := map[string]models.StorageRecord{}
	if len(raw) == 0 {
		return recs, nil
	}
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", common.AccountNamespace, err)
	}
	return recs, nil
}

// Check looks the account up by known identifier, by the credential used as
// identifier, by email and finally by mnemonic hash.
func (r *recordStore) Check(ctx context.Context) (string, error) {
	recs, err := r.records(ctx)
	if err != nil {
		return "", err
	}
	if len(recs) == 0 {
		return "", common.ErrAccountNotFound
	}

	if r.identifier != "" {
		if _, ok := recs[r.identifier]; ok {
			return r.identifier, nil
		}
	}
	if key := r.lookupKey(); key != "" {
		if _, ok := recs[key]; ok {
			return key, nil
		}
	}
	if r.email != "" {
		for id, rec := range recs {
			if rec.Email != "" && strings.EqualFold(rec.Email, r.email) {
				return id, nil
			}
		}
	}
	if r.cred.Kind() == identity.KindMnemonic {
		hash := cryptox.HashSeed(r.cred.Value())
		for id, rec := range recs {
			if rec.MnemonicHash == hash {
				return id, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", common.ErrAccountNotFound, r.cred)
}

func (r *recordStore) create(ctx context.Context, acct *models.Account, email string) (*models.Account, error) {
	out, err := acct.Clone()
	if err != nil {
		return nil, err
	}
	if email != "" {
		r.email = email
		out.Email = email
	}
	id := identity.GenerateIdentifier()
	r.identifier = id
	out.Identifier = id
	return r.put(ctx, out, id)
}

func (r *recordStore) put(ctx context.Context, acct *models.Account, identifier string) (*models.Account, error) {
	out, err := acct.Clone()
	if err != nil {
		return nil, err
	}
	out.Identifier = identifier
	r.identifier = identifier

	blob, err := r.encrypt(out)
	if err != nil {
		return nil, err
	}
	rec := models.StorageRecord{
		Identifier:    identifier,
		Email:         out.Email,
		EncryptedData: blob,
	}
	if out.Wallet.Mnemonic != "" {
		rec.MnemonicHash = cryptox.HashSeed(out.Wallet.Mnemonic)
	}

	err = r.repo.Update(ctx, common.AccountNamespace, func(old []byte) ([]byte, error) {
		recs, err := decodeRecords(old)
		if err != nil {
			return nil, err
		}
		if rec.Email != "" {
			for id, other := range recs {
				if id != identifier && strings.EqualFold(other.Email, rec.Email) {
					return nil, fmt.Errorf("%w: %s", common.ErrEmailTaken, rec.Email)
				}
			}
		}
		recs[identifier] = rec
		return json.Marshal(recs)
	})
	if err != nil {
		return nil, err
	}
	r.log.Info(ctx, "account saved", "identifier", identifier)
	return out, nil
}

func (r *recordStore) load(ctx context.Context, id string) (*models.Account, error) {
	recs, err := r.records(ctx)
	if err != nil {
		return nil, err
	}
	rec, ok := recs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrAccountNotFound, id)
	}
	acct, err := r.decrypt(rec.EncryptedData)
	if err != nil {
		return nil, err
	}
	if acct.Identifier == "" {
		acct.Identifier = id
	}
	return acct, nil
}
