package metadata

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// every connection of :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func repositories(t *testing.T) map[string]Repository {
	return map[string]Repository{
		"sqlite": NewSQLiteRepository(setupDB(t)),
		"memory": NewMemoryRepository(),
	}
}

func TestSetAndGet_InsertThenGet(t *testing.T) {
	for name, r := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, r.Set(ctx, "k1", []byte{0x01, 0x02}))

			v, err := r.Get(ctx, "k1")
			require.NoError(t, err)
			require.Equal(t, []byte{0x01, 0x02}, v)
		})
	}
}

func TestGet_NotExists_ReturnsNilNil(t *testing.T) {
	for name, r := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			v, err := r.Get(context.Background(), "absent")
			require.NoError(t, err)
			require.Nil(t, v)
		})
	}
}

func TestSet_UpsertOverwritesValue(t *testing.T) {
	for name, r := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, r.Set(ctx, "k", []byte("old")))
			require.NoError(t, r.Set(ctx, "k", []byte("new")))

			v, err := r.Get(ctx, "k")
			require.NoError(t, err)
			require.Equal(t, []byte("new"), v)
		})
	}
}

func TestDelete_RemovesKey_AndIsIdempotent(t *testing.T) {
	for name, r := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, r.Set(ctx, "k", []byte("v")))
			require.NoError(t, r.Delete(ctx, "k"))
			require.NoError(t, r.Delete(ctx, "k"))

			v, err := r.Get(ctx, "k")
			require.NoError(t, err)
			assert.Nil(t, v)
		})
	}
}

func TestUpdate_ReadModifyWrite(t *testing.T) {
	for name, r := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, r.Update(ctx, "k", func(old []byte) ([]byte, error) {
				assert.Nil(t, old)
				return []byte("a"), nil
			}))
			require.NoError(t, r.Update(ctx, "k", func(old []byte) ([]byte, error) {
				return append(old, 'b'), nil
			}))

			v, err := r.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("ab"), v)
		})
	}
}

func TestUpdate_ErrorLeavesValueUntouched(t *testing.T) {
	for name, r := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, r.Set(ctx, "k", []byte("keep")))

			boom := errors.New("boom")
			err := r.Update(ctx, "k", func(old []byte) ([]byte, error) {
				return nil, boom
			})
			require.ErrorIs(t, err, boom)

			v, err := r.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("keep"), v)
		})
	}
}

func TestSQLite_ClosedDBReturnsErrors(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	require.NoError(t, db.Close())
	ctx := context.Background()

	_, err := r.Get(ctx, "k")
	assert.ErrorContains(t, err, "failed to get metadata[k]")
	assert.ErrorContains(t, r.Set(ctx, "k", nil), "failed to set metadata[k]")
	assert.ErrorContains(t, r.Delete(ctx, "k"), "failed to delete metadata[k]")
}
