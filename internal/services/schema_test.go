package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HerbHall/markstash/internal/services"
	"github.com/HerbHall/markstash/internal/store"
	"github.com/HerbHall/markstash/internal/testutil"
)

func TestEnsureSchema_FreshStore(t *testing.T) {
	db := testutil.NewStore(t)
	ctx := context.Background()

	require.NoError(t, services.EnsureSchema(ctx, db))

	for _, table := range []string{"favorites", "categories", "tags"} {
		ok, err := store.TableExists(ctx, db.DBx(), table)
		require.NoError(t, err)
		assert.True(t, ok, "table %s", table)
	}
	cols, err := store.Columns(ctx, db.DBx(), "favorites")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "category_id", "text", "url", "tags", "created_at"}, cols)

	applied, err := db.AppliedVersions(ctx, services.SchemaScope)
	require.NoError(t, err)
	assert.Len(t, applied, len(services.SchemaMigrations()))
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	db := testutil.NewStore(t)
	ctx := context.Background()

	require.NoError(t, services.EnsureSchema(ctx, db))
	repo := services.NewSQLiteFavoriteRepository(db.DBx())
	_, err := repo.Create(ctx, testutil.NewFavoriteInput(testutil.WithTags("keep")))
	require.NoError(t, err)

	cols, err := store.Columns(ctx, db.DBx(), "favorites")
	require.NoError(t, err)
	ddl := schemaSQL(t, db)

	require.NoError(t, services.EnsureSchema(ctx, db))
	require.NoError(t, services.EnsureSchema(ctx, db))

	colsAfter, err := store.Columns(ctx, db.DBx(), "favorites")
	require.NoError(t, err)
	assert.Equal(t, cols, colsAfter)
	assert.Equal(t, ddl, schemaSQL(t, db))

	page, err := repo.List(ctx, services.FavoriteFilter{}, services.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, []string{"keep"}, page.Items[0].Tags)

	applied, err := db.AppliedVersions(ctx, services.SchemaScope)
	require.NoError(t, err)
	assert.Len(t, applied, len(services.SchemaMigrations()))
}

func TestEnsureSchema_BackfillsCreatedAt(t *testing.T) {
	db := testutil.NewStore(t)
	ctx := context.Background()

	// Shape of a store written before created_at existed.
	_, err := db.DB().ExecContext(ctx, `CREATE TABLE favorites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category_id INTEGER,
		text TEXT NOT NULL,
		url TEXT NOT NULL,
		tags TEXT
	)`)
	require.NoError(t, err)
	_, err = db.DB().ExecContext(ctx, `INSERT INTO favorites (id, category_id, text, url, tags) VALUES
		(1, NULL, 'first', 'https://a.example', '["go"]'),
		(2, 42, 'dangling', 'https://b.example', NULL)`)
	require.NoError(t, err)

	require.NoError(t, services.EnsureSchema(ctx, db))

	has, err := store.ColumnExists(ctx, db.DBx(), "favorites", "created_at")
	require.NoError(t, err)
	assert.True(t, has)

	repo := services.NewSQLiteFavoriteRepository(db.DBx())
	first, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "first", first.Text)
	assert.Equal(t, []string{"go"}, first.Tags)
	assert.NotEmpty(t, first.CreatedAt)

	dangling, err := repo.Get(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, dangling.CategoryID)
	assert.Equal(t, "uncategorized", dangling.CategoryName)
	assert.Equal(t, []string{}, dangling.Tags)

	// The rebuilt table carries the foreign key.
	_, err = repo.Create(ctx, testutil.NewFavoriteInput(testutil.WithCategory(99)))
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestEnsureSchema_ConsolidatesBookmarks(t *testing.T) {
	db := testutil.NewStore(t)
	ctx := context.Background()

	stmts := []string{
		`CREATE TABLE categories (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE)`,
		`CREATE TABLE tags (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE)`,
		`CREATE TABLE bookmarks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			category_id INTEGER,
			content TEXT NOT NULL,
			url TEXT NOT NULL,
			created_at TEXT
		)`,
		`CREATE TABLE bookmark_tags (bookmark_id INTEGER, tag_id INTEGER)`,
		`INSERT INTO categories (id, name) VALUES (1, 'Articles')`,
		`INSERT INTO tags (id, name) VALUES (1, 'go'), (2, 'db')`,
		`INSERT INTO bookmarks (id, category_id, content, url, created_at) VALUES
			(1, 1, 'sqlite tips', 'https://sqlite.example', '2024-01-02 03:04:05'),
			(2, NULL, 'untagged', 'https://plain.example', NULL)`,
		`INSERT INTO bookmark_tags (bookmark_id, tag_id) VALUES (1, 2), (1, 1)`,
	}
	for _, stmt := range stmts {
		_, err := db.DB().ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	require.NoError(t, services.EnsureSchema(ctx, db))

	for _, table := range []string{"bookmarks", "bookmark_tags"} {
		ok, err := store.TableExists(ctx, db.DBx(), table)
		require.NoError(t, err)
		assert.False(t, ok, "legacy table %s still present", table)
	}

	repo := services.NewSQLiteFavoriteRepository(db.DBx())
	page, err := repo.List(ctx, services.FavoriteFilter{Search: "sqlite"}, services.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	fav := page.Items[0]
	assert.Equal(t, "https://sqlite.example", fav.URL)
	assert.Equal(t, "Articles", fav.CategoryName)
	assert.Equal(t, []string{"go", "db"}, fav.Tags)
	assert.Equal(t, "2024-01-02T03:04:05Z", fav.CreatedAt)

	page, err = repo.List(ctx, services.FavoriteFilter{Search: "untagged"}, services.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, []string{}, page.Items[0].Tags)
	assert.NotEmpty(t, page.Items[0].CreatedAt)
}

// schemaSQL returns every table and index definition in the store.
func schemaSQL(t *testing.T, db *store.SQLiteStore) []string {
	t.Helper()
	var ddl []string
	err := db.DBx().SelectContext(context.Background(), &ddl,
		`SELECT type || ' ' || name || ': ' || COALESCE(sql, '') FROM sqlite_master ORDER BY type, name`)
	require.NoError(t, err)
	return ddl
}

// createLegacyServerStore lays out a store written by the previous server:
// created_at exists but the category key has no delete action and
// timestamps use SQLite's datetime() format.
func createLegacyServerStore(t *testing.T, db *store.SQLiteStore) {
	t.Helper()
	stmts := []string{
		`CREATE TABLE categories (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE)`,
		`CREATE TABLE favorites (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			category_id INTEGER,
			text TEXT NOT NULL,
			url TEXT NOT NULL,
			tags TEXT NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY (category_id) REFERENCES categories (id)
		)`,
		`CREATE TABLE tags (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE)`,
		`INSERT INTO categories (id, name) VALUES (1, 'Reading')`,
		`INSERT INTO favorites (id, category_id, text, url, tags, created_at) VALUES
			(1, 1, 'legacy-noon', 'https://noon.example', '["go"]', '2024-03-14 12:00:00')`,
	}
	for _, stmt := range stmts {
		_, err := db.DB().ExecContext(context.Background(), stmt)
		require.NoError(t, err)
	}
}

func TestEnsureSchema_LegacyStoreCategoryDelete(t *testing.T) {
	db := testutil.NewStore(t)
	ctx := context.Background()
	createLegacyServerStore(t, db)

	require.NoError(t, services.EnsureSchema(ctx, db))

	cats := services.NewSQLiteCategoryRepository(db.DBx())
	require.NoError(t, cats.Delete(ctx, 1))

	repo := services.NewSQLiteFavoriteRepository(db.DBx())
	fav, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, fav.CategoryID)
	assert.Equal(t, "uncategorized", fav.CategoryName)
	assert.Equal(t, []string{"go"}, fav.Tags)

	ok, err := indexExists(db, "idx_favorites_created_at")
	require.NoError(t, err)
	assert.True(t, ok, "created_at index rebuilt")
}

func TestEnsureSchema_LegacyTimestampsSortNewestFirst(t *testing.T) {
	db := testutil.NewStore(t)
	ctx := context.Background()
	createLegacyServerStore(t, db)

	require.NoError(t, services.EnsureSchema(ctx, db))

	nineAM := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	repo := services.NewSQLiteFavoriteRepository(db.DBx(),
		services.WithClock(func() time.Time { return nineAM }))
	_, err := repo.Create(ctx, testutil.NewFavoriteInput(testutil.WithText("new-9am")))
	require.NoError(t, err)

	page, err := repo.List(ctx, services.FavoriteFilter{}, services.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "legacy-noon", page.Items[0].Text)
	assert.Equal(t, "2024-03-14T12:00:00Z", page.Items[0].CreatedAt)
	assert.Equal(t, "new-9am", page.Items[1].Text)
}

func TestEnsureSchema_NormalizesTimestampsOnCurrentTable(t *testing.T) {
	db := testutil.NewStore(t)
	ctx := context.Background()

	// Versions 1-4 applied, then a datetime()-style value slipped in.
	migrations := services.SchemaMigrations()
	require.NoError(t, db.Migrate(ctx, services.SchemaScope, migrations[:4]))
	_, err := db.DB().ExecContext(ctx, `INSERT INTO favorites (text, url, tags, created_at)
		VALUES ('old', 'https://old.example', '[]', '2023-05-06 07:08:09')`)
	require.NoError(t, err)

	require.NoError(t, services.EnsureSchema(ctx, db))

	page, err := services.NewSQLiteFavoriteRepository(db.DBx()).List(ctx, services.FavoriteFilter{}, services.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "2023-05-06T07:08:09Z", page.Items[0].CreatedAt)
}

func indexExists(db *store.SQLiteStore, name string) (bool, error) {
	var n int
	err := db.DBx().GetContext(context.Background(), &n,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?`, name)
	return n > 0, err
}
