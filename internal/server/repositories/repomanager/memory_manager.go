package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/coinkeeper/internal/dbx"
	"github.com/dmitrijs2005/coinkeeper/internal/server/repositories/records"
)

// MemoryRepositoryManager hands out one shared in-memory repository and
// ignores the DB handle. Used for development runs and tests.
type MemoryRepositoryManager struct {
	records *records.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{records: records.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) Records(dbx.DBTX) records.Repository {
	return m.records
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}
