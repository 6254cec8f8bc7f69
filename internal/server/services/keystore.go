// Package services holds the keystore business rules on top of the record
// repository.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/coinkeeper/internal/common"
	"github.com/dmitrijs2005/coinkeeper/internal/dbx"
	"github.com/dmitrijs2005/coinkeeper/internal/identity"
	"github.com/dmitrijs2005/coinkeeper/internal/logging"
	"github.com/dmitrijs2005/coinkeeper/internal/server/models"
	"github.com/dmitrijs2005/coinkeeper/internal/server/repositories/records"
	"github.com/dmitrijs2005/coinkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/coinkeeper/internal/shared"
)

const createAttempts = 3

type KeystoreService struct {
	db             *sql.DB
	rm             repomanager.RepositoryManager
	sharedKeyBytes int
	log            logging.Logger

	// serializes read-modify-write when there is no database transaction
	mu sync.Mutex
}

// NewKeystoreService builds the service. db may be nil for repository
// managers that ignore it.
func NewKeystoreService(db *sql.DB, rm repomanager.RepositoryManager, sharedKeyBytes int, log logging.Logger) *KeystoreService {
	if log == nil {
		log = logging.Nop()
	}
	return &KeystoreService{
		db:             db,
		rm:             rm,
		sharedKeyBytes: sharedKeyBytes,
		log:            log.With("module", "keystore_service"),
	}
}

func withRecords[T any](ctx context.Context, s *KeystoreService, fn func(ctx context.Context, repo records.Repository) (T, error)) (T, error) {
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn(ctx, s.rm.Records(nil))
	}
	return dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (T, error) {
		return fn(ctx, s.rm.Records(tx))
	})
}

func (s *KeystoreService) repo() records.Repository {
	if s.db == nil {
		return s.rm.Records(nil)
	}
	return s.rm.Records(s.db)
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", nil
	}
	if !identity.IsValidEmail(email) {
		return "", fmt.Errorf("%w: invalid email", shared.ErrorValidation)
	}
	return strings.ToLower(email), nil
}

// Create registers a new empty record and issues its identifier and shared key.
func (s *KeystoreService) Create(ctx context.Context, email string) (*models.Record, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	sharedKey, err := common.MakeRandHexString(s.sharedKeyBytes)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		rec := &models.Record{
			Identifier: identity.GenerateIdentifier(),
			Email:      email,
			SharedKey:  sharedKey,
		}
		created, err := s.repo().Create(ctx, rec)
		if err == nil {
			s.log.Info(ctx, "record created", "identifier", created.Identifier)
			return created, nil
		}
		if !errors.Is(err, records.ErrDuplicateIdentifier) || attempt == createAttempts {
			return nil, err
		}
		s.log.Warn(ctx, "identifier collision, retrying", "attempt", attempt)
	}
}

// resolve finds a record by identifier, falling back to email.
func (s *KeystoreService) resolve(ctx context.Context, key string) (*models.Record, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: empty identifier", shared.ErrorValidation)
	}

	repo := s.repo()
	rec, err := repo.GetByIdentifier(ctx, key)
	if err == nil || !errors.Is(err, shared.ErrorNotFound) {
		return rec, err
	}
	if !strings.Contains(key, "@") {
		return nil, err
	}
	return repo.GetByEmail(ctx, strings.ToLower(key))
}

// Load returns the record for an identifier or email.
func (s *KeystoreService) Load(ctx context.Context, key string) (*models.Record, error) {
	return s.resolve(ctx, key)
}

// CheckLoad returns only the identifier for an identifier or email.
func (s *KeystoreService) CheckLoad(ctx context.Context, key string) (string, error) {
	rec, err := s.resolve(ctx, key)
	if err != nil {
		return "", err
	}
	return rec.Identifier, nil
}

func checkSharedKey(stored, candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}

// Update stores new encrypted data for an existing identifier. When the
// record carries a shared key the request must present the same key.
func (s *KeystoreService) Update(ctx context.Context, req shared.UpdateRequest) (string, error) {
	if req.EncryptedData == "" {
		return "", fmt.Errorf("%w: empty encrypted data", shared.ErrorValidation)
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return "", err
	}

	updated, err := withRecords(ctx, s, func(ctx context.Context, repo records.Repository) (*models.Record, error) {
		rec, err := repo.GetByIdentifier(ctx, req.Identifier)
		if err != nil {
			return nil, err
		}
		if rec.SharedKey != "" && !checkSharedKey(rec.SharedKey, req.SharedKey) {
			return nil, shared.ErrorInvalidSharedKey
		}
		rec.EncryptedData = req.EncryptedData
		if email != "" {
			rec.Email = email
		}
		return repo.Update(ctx, rec)
	})
	if err != nil {
		if errors.Is(err, shared.ErrorInvalidSharedKey) {
			s.log.Warn(ctx, "shared key mismatch", "identifier", req.Identifier)
		}
		return "", err
	}

	s.log.Info(ctx, "record updated", "identifier", updated.Identifier)
	return updated.Identifier, nil
}
