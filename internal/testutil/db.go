// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"context"
	"seogaeum/backend/internal/models"
	"seogaeum/backend/internal/storage"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory SQLite database that lives as long as t.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, storage.Migrate(db))
	return db
}

// NewStore returns a storage service over a fresh database, without Redis.
func NewStore(t testing.TB) *storage.Service {
	t.Helper()
	return storage.NewStorageService(NewDB(t), nil)
}

// CreateUser inserts a user with the given nickname.
func CreateUser(t testing.TB, store storage.Storage, nickname string) *models.User {
	t.Helper()
	u := &models.User{Nickname: nickname, Email: nickname + "@example.com"}
	require.NoError(t, store.SaveUser(context.Background(), u))
	return u
}

// CreateBook inserts a book with the given ISBN.
func CreateBook(t testing.TB, store storage.Storage, isbn string) *models.Book {
	t.Helper()
	b := &models.Book{ISBN: isbn, Title: "Book " + isbn}
	require.NoError(t, store.SaveBook(context.Background(), b))
	return b
}

// Own registers userID as owner of the book at the given price.
func Own(t testing.TB, store storage.Storage, bookID uint, userID string, price int64) {
	t.Helper()
	require.NoError(t, store.UpsertOwnership(context.Background(), &models.Ownership{
		BookID: bookID,
		UserID: userID,
		Price:  decimal.NewFromInt(price),
	}))
}
