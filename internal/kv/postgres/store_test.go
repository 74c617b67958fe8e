// Package postgres provides a GORM/PostgreSQL-backed kv.Substrate for devconsole.
package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/thebtf/devconsole/internal/kv"
	"github.com/thebtf/devconsole/internal/kv/kvtest"
)

// testDSN returns the DSN of a disposable database or skips the test.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("DEVCONSOLE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DEVCONSOLE_TEST_POSTGRES_DSN not set")
	}
	return dsn
}

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(Config{DSN: testDSN(t), LogLevel: logger.Silent})
	require.NoError(t, err)
	require.NoError(t, store.DB.Exec("DELETE FROM kv_records").Error)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewStore_EmptyDSN(t *testing.T) {
	_, err := NewStore(Config{})
	assert.Error(t, err)
}

func TestRecord_TableName(t *testing.T) {
	assert.Equal(t, "kv_records", Record{}.TableName())
}

func TestRecord_BeforeSaveStampsTime(t *testing.T) {
	rec := &Record{Key: "k", Value: "v"}
	require.NoError(t, rec.BeforeSave(nil))
	assert.NotEmpty(t, rec.UpdatedAt)
	assert.Greater(t, rec.UpdatedAtEpoch, int64(0))
}

func TestStore_Conformance(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) kv.Substrate {
		return testStore(t)
	})
}

func TestMigrationIdempotency(t *testing.T) {
	dsn := testDSN(t)

	store1, err := NewStore(Config{DSN: dsn, LogLevel: logger.Silent})
	require.NoError(t, err)
	store1.Close()

	store2, err := NewStore(Config{DSN: dsn, LogLevel: logger.Silent})
	require.NoError(t, err)
	defer store2.Close()

	assert.True(t, store2.DB.Migrator().HasTable("kv_records"))
	require.NoError(t, store2.Set(context.Background(), "k", "v"))
}
