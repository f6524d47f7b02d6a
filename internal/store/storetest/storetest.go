// Package storetest opens throwaway stores for tests in other packages.
package storetest

import (
	"path/filepath"
	"testing"

	"github.com/ahmetcoskunkizilkaya/auratask/internal/config"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/database"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/store"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// OpenSQLite returns a migrated sqlite database in the test's temp dir.
func OpenSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := &config.Config{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "test.db")}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// Factory builds a fresh, empty Store.
type Factory struct {
	Name string
	New  func(t *testing.T) store.Store
}

// Factories lists every Store implementation so behaviour tests can run
// against all of them.
func Factories() []Factory {
	return []Factory{
		{Name: "memory", New: func(t *testing.T) store.Store { return store.NewMemoryStore() }},
		{Name: "sqlite", New: func(t *testing.T) store.Store { return store.NewGormStore(OpenSQLite(t)) }},
	}
}
