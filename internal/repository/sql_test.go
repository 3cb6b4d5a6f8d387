package repository

import (
	"context"
	"path/filepath"
	"testing"

	"entgo.io/ent/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/scavenger/internal/common"
	"github.com/joseph-ayodele/scavenger/internal/entity"
)

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "scavenger.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Ping(context.Background()))
	assert.Equal(t, dialect.SQLite, s.drv.Dialect())
	exerciseStore(t, s)
}

func TestSQLiteStore_MigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scavenger.db")
	ctx := context.Background()

	s, err := OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	_, err = s.AppendRecord(ctx, entity.ExtractionRecord{ID: "kept"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	defer s.Close()

	recs, err := s.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "kept", recs[0].ID)
}

func TestOpen_Backends(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	st, err := Open(ctx, common.StorageConfig{Backend: common.BackendLocal, DataDir: dir}, nil)
	require.NoError(t, err)
	assert.IsType(t, &JSONFileStore{}, st)
	require.NoError(t, st.Close())

	st, err = Open(ctx, common.StorageConfig{Backend: common.BackendSQLite, SQLitePath: filepath.Join(dir, "x.db")}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLStore{}, st)
	require.NoError(t, st.Close())

	_, err = Open(ctx, common.StorageConfig{Backend: common.BackendPostgres}, nil)
	assert.True(t, common.IsMissingConfig(err))
	assert.Contains(t, err.Error(), "DB_URL")

	_, err = Open(ctx, common.StorageConfig{Backend: common.BackendFirestore}, nil)
	assert.Contains(t, err.Error(), "FIRESTORE_PROJECT_ID")

	_, err = Open(ctx, common.StorageConfig{Backend: "mongo"}, nil)
	assert.Error(t, err)
}
