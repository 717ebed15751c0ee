package testutil

import (
	"context"
	"testing"

	"github.com/HerbHall/markstash/internal/services"
	"github.com/HerbHall/markstash/internal/store"
)

// NewStore creates an in-memory SQLiteStore for testing.
// The store is automatically closed when the test completes.
func NewStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("testutil.NewStore: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// NewSchemaStore is NewStore with the core schema applied.
func NewSchemaStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	db := NewStore(t)
	if err := services.EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("testutil.NewSchemaStore: %v", err)
	}
	return db
}
