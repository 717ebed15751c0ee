package services

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/HerbHall/markstash/internal/store"
)

// SchemaScope is the ledger scope of the core favorites schema.
const SchemaScope = "core"

// Migrator applies versioned migrations; *store.SQLiteStore implements it.
type Migrator interface {
	Migrate(ctx context.Context, scope string, migrations []store.Migration) error
}

// EnsureSchema brings the store to the latest schema version. It is safe
// to call on every start: applied versions are skipped, and each pending
// version runs atomically with its ledger entry.
func EnsureSchema(ctx context.Context, m Migrator) error {
	if err := m.Migrate(ctx, SchemaScope, SchemaMigrations()); err != nil {
		return fmt.Errorf("core schema migrations: %w", err)
	}
	return nil
}

// SchemaMigrations returns the ordered migration list for the core scope.
func SchemaMigrations() []store.Migration {
	return []store.Migration{
		{Version: 1, Description: "create categories, tags and favorites tables", Up: createCoreTables},
		{Version: 2, Description: "backfill favorites.created_at", Up: backfillCreatedAt},
		{Version: 3, Description: "consolidate bookmarks into favorites", Up: consolidateBookmarks},
		{Version: 4, Description: "index favorites by created_at and category", Up: indexFavorites},
		{Version: 5, Description: "upgrade legacy favorites foreign key and timestamps", Up: upgradeLegacyFavorites},
	}
}

// nowUTC is the SQL expression for the current RFC 3339 UTC timestamp,
// the same format the repository writes.
const nowUTC = `strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`

// rfc3339UTC rewrites a stored timestamp of any SQLite-readable format to
// RFC 3339 UTC, keeping values SQLite cannot parse unchanged.
func rfc3339UTC(col string) string {
	return `COALESCE(strftime('%Y-%m-%dT%H:%M:%SZ', ` + col + `), ` + col + `)`
}

func favoritesDDL(table string) string {
	return `CREATE TABLE ` + table + ` (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		category_id INTEGER REFERENCES categories(id) ON DELETE SET NULL,
		text        TEXT NOT NULL,
		url         TEXT NOT NULL,
		tags        TEXT NOT NULL DEFAULT '[]',
		created_at  TEXT NOT NULL
	)`
}

// liveCategory nulls a category reference that points at no category, so
// copying legacy rows never trips the foreign key.
func liveCategory(col string) string {
	return `CASE WHEN ` + col + ` IN (SELECT id FROM categories) THEN ` + col + ` END`
}

func execAll(ctx context.Context, tx *sqlx.Tx, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func createCoreTables(ctx context.Context, tx *sqlx.Tx) error {
	err := execAll(ctx, tx,
		`CREATE TABLE IF NOT EXISTS categories (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS tags (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		)`,
	)
	if err != nil {
		return err
	}

	// A store that predates the ledger keeps its favorites table; version 2
	// upgrades it in place.
	exists, err := store.TableExists(ctx, tx, "favorites")
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return execAll(ctx, tx, favoritesDDL("favorites"))
}

func backfillCreatedAt(ctx context.Context, tx *sqlx.Tx) error {
	has, err := store.ColumnExists(ctx, tx, "favorites", "created_at")
	if err != nil {
		return err
	}
	if has {
		return nil
	}

	tagsExpr := `'[]'`
	hasTags, err := store.ColumnExists(ctx, tx, "favorites", "tags")
	if err != nil {
		return err
	}
	if hasTags {
		tagsExpr = `COALESCE(tags, '[]')`
	}

	return execAll(ctx, tx,
		`DROP TABLE IF EXISTS favorites_new`,
		favoritesDDL("favorites_new"),
		`INSERT INTO favorites_new (id, category_id, text, url, tags, created_at)
		 SELECT id, `+liveCategory("category_id")+`, text, url, `+tagsExpr+`, `+nowUTC+`
		 FROM favorites ORDER BY id`,
		`DROP TABLE favorites`,
		`ALTER TABLE favorites_new RENAME TO favorites`,
	)
}

func consolidateBookmarks(ctx context.Context, tx *sqlx.Tx) error {
	exists, err := store.TableExists(ctx, tx, "bookmarks")
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	hasJoin, err := store.TableExists(ctx, tx, "bookmark_tags")
	if err != nil {
		return err
	}
	hasCreated, err := store.ColumnExists(ctx, tx, "bookmarks", "created_at")
	if err != nil {
		return err
	}

	tagsExpr := `'[]'`
	if hasJoin {
		tagsExpr = `(SELECT json_group_array(name) FROM (
			SELECT t.name FROM bookmark_tags bt JOIN tags t ON t.id = bt.tag_id
			WHERE bt.bookmark_id = b.id ORDER BY t.id))`
	}
	createdExpr := nowUTC
	if hasCreated {
		createdExpr = `COALESCE(strftime('%Y-%m-%dT%H:%M:%SZ', b.created_at), ` + nowUTC + `)`
	}

	stmts := []string{
		`INSERT INTO favorites (category_id, text, url, tags, created_at)
		 SELECT ` + liveCategory("b.category_id") + `, b.content, b.url, ` + tagsExpr + `, ` + createdExpr + `
		 FROM bookmarks b ORDER BY b.id`,
	}
	if hasJoin {
		stmts = append(stmts, `DROP TABLE bookmark_tags`)
	}
	stmts = append(stmts, `DROP TABLE bookmarks`)
	return execAll(ctx, tx, stmts...)
}

func indexFavorites(ctx context.Context, tx *sqlx.Tx) error {
	return execAll(ctx, tx,
		`CREATE INDEX IF NOT EXISTS idx_favorites_created_at ON favorites(created_at DESC, id DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_favorites_category ON favorites(category_id)`,
	)
}

// upgradeLegacyFavorites fixes favorites tables created outside the ledger:
// a category key without ON DELETE SET NULL forces a rebuild, and
// timestamps in the old "YYYY-MM-DD HH:MM:SS" form are rewritten so text
// ordering matches time ordering.
func upgradeLegacyFavorites(ctx context.Context, tx *sqlx.Tx) error {
	var setNull int
	err := tx.GetContext(ctx, &setNull, `SELECT COUNT(*) FROM pragma_foreign_key_list('favorites')
		WHERE "from" = 'category_id' AND "table" = 'categories' AND on_delete = 'SET NULL'`)
	if err != nil {
		return err
	}
	if setNull > 0 {
		_, err := tx.ExecContext(ctx, `UPDATE favorites SET created_at = `+rfc3339UTC("created_at")+`
			WHERE created_at <> `+rfc3339UTC("created_at"))
		return err
	}

	err = execAll(ctx, tx,
		`DROP TABLE IF EXISTS favorites_new`,
		favoritesDDL("favorites_new"),
		`INSERT INTO favorites_new (id, category_id, text, url, tags, created_at)
		 SELECT id, `+liveCategory("category_id")+`, text, url, COALESCE(tags, '[]'), `+rfc3339UTC("created_at")+`
		 FROM favorites ORDER BY id`,
		`DROP TABLE favorites`,
		`ALTER TABLE favorites_new RENAME TO favorites`,
	)
	if err != nil {
		return err
	}
	return indexFavorites(ctx, tx)
}
