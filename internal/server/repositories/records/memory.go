package records

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/coinkeeper/internal/server/models"
	"github.com/dmitrijs2005/coinkeeper/internal/shared"
)

// MemoryRepository keeps records in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]models.Record
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: map[string]models.Record{}}
}

func (r *MemoryRepository) emailTaken(email, identifier string) bool {
	if email == "" {
		return false
	}
	for id, rec := range r.records {
		if id != identifier && rec.Email == email {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) Create(_ context.Context, rec *models.Record) (*models.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[rec.Identifier]; ok {
		return nil, ErrDuplicateIdentifier
	}
	if r.emailTaken(rec.Email, rec.Identifier) {
		return nil, ErrDuplicateEmail
	}

	now := time.Now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now
	r.records[rec.Identifier] = *rec
	return rec, nil
}

func (r *MemoryRepository) GetByIdentifier(_ context.Context, identifier string) (*models.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[identifier]
	if !ok {
		return nil, shared.ErrorNotFound
	}
	return &rec, nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*models.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if email == "" {
		return nil, shared.ErrorNotFound
	}
	for _, rec := range r.records {
		if rec.Email == email {
			out := rec
			return &out, nil
		}
	}
	return nil, shared.ErrorNotFound
}

func (r *MemoryRepository) Update(_ context.Context, rec *models.Record) (*models.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.records[rec.Identifier]
	if !ok {
		return nil, shared.ErrorNotFound
	}
	if r.emailTaken(rec.Email, rec.Identifier) {
		return nil, ErrDuplicateEmail
	}

	old.EncryptedData = rec.EncryptedData
	old.Email = rec.Email
	old.UpdatedAt = time.Now().UTC()
	r.records[rec.Identifier] = old

	out := old
	return &out, nil
}
