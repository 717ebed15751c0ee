package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// Migration is a single forward-only schema step. Up runs inside the same
// transaction that records the version in the ledger.
type Migration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, tx *sqlx.Tx) error
}

// AppliedMigration is a ledger row.
type AppliedMigration struct {
	Scope       string `db:"scope"`
	Version     int    `db:"version"`
	Description string `db:"description"`
	AppliedAt   string `db:"applied_at"`
}

// SQLiteStore is the single relational store shared by all repositories.
type SQLiteStore struct {
	db      *sqlx.DB
	mu      sync.Mutex // Serialize migrations
	once    sync.Once  // Ensure schema_migrations table created once
	ledgErr error
}

// New opens (or creates) a SQLite database at the given path and applies
// recommended pragmas for WAL mode, foreign keys, and performance.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	// SQLite performs best with a single write connection. WAL enables concurrent readers.
	// A single connection also keeps ":memory:" databases alive across queries.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", path, err)
	}

	// modernc.org/sqlite requires SQL statements, not DSN params.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA cache_size=-20000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// DB returns the underlying *sql.DB for direct queries.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db.DB
}

// DBx returns the sqlx handle used by the repositories.
func (s *SQLiteStore) DBx() *sqlx.DB {
	return s.db
}

// Ping verifies the store is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx executes fn within a database transaction. The transaction is
// committed if fn returns nil, rolled back otherwise.
func (s *SQLiteStore) Tx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return WithTx(ctx, s.db, fn)
}

// WithTx runs fn in a transaction on db. The store holds a single
// connection, so fn must use tx rather than db for every statement.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Migrate runs pending migrations for the named scope. Already-applied
// migrations (tracked in the shared schema_migrations table) are skipped.
// Migrations must be provided in strictly ascending Version order.
func (s *SQLiteStore) Migrate(ctx context.Context, scope string, migrations []Migration) error {
	if err := validateOrder(scope, migrations); err != nil {
		return err
	}
	if err := s.ensureMigrationsTable(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range migrations {
		applied, err := s.isMigrationApplied(ctx, scope, m.Version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		if err := s.applyMigration(ctx, scope, m); err != nil {
			return fmt.Errorf("migration %s/%d (%s): %w", scope, m.Version, m.Description, err)
		}
	}

	return nil
}

// AppliedVersions returns the ledger rows for scope in version order.
func (s *SQLiteStore) AppliedVersions(ctx context.Context, scope string) ([]AppliedMigration, error) {
	if err := s.ensureMigrationsTable(ctx); err != nil {
		return nil, err
	}
	var out []AppliedMigration
	err := s.db.SelectContext(ctx, &out,
		`SELECT scope, version, description, applied_at
		 FROM schema_migrations WHERE scope = ? ORDER BY version`, scope)
	if err != nil {
		return nil, fmt.Errorf("list migrations %s: %w", scope, err)
	}
	return out, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func validateOrder(scope string, migrations []Migration) error {
	prev := 0
	for _, m := range migrations {
		if m.Version <= prev {
			return fmt.Errorf("migrations %s: version %d follows %d", scope, m.Version, prev)
		}
		if m.Up == nil {
			return fmt.Errorf("migrations %s: version %d has no Up", scope, m.Version)
		}
		prev = m.Version
	}
	return nil
}

// ensureMigrationsTable creates the shared schema_migrations ledger if it
// doesn't already exist.
func (s *SQLiteStore) ensureMigrationsTable(ctx context.Context) error {
	s.once.Do(func() {
		_, s.ledgErr = s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				scope       TEXT    NOT NULL,
				version     INTEGER NOT NULL,
				description TEXT    NOT NULL,
				applied_at  TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
				PRIMARY KEY (scope, version)
			)
		`)
		if s.ledgErr != nil {
			s.ledgErr = fmt.Errorf("create schema_migrations: %w", s.ledgErr)
		}
	})
	return s.ledgErr
}

func (s *SQLiteStore) isMigrationApplied(ctx context.Context, scope string, version int) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM schema_migrations WHERE scope = ? AND version = ?",
		scope, version,
	)
	if err != nil {
		return false, fmt.Errorf("check migration %s/%d: %w", scope, version, err)
	}
	return count > 0, nil
}

func (s *SQLiteStore) applyMigration(ctx context.Context, scope string, m Migration) error {
	return s.Tx(ctx, func(tx *sqlx.Tx) error {
		if err := m.Up(ctx, tx); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (scope, version, description) VALUES (?, ?, ?)",
			scope, m.Version, m.Description,
		)
		return err
	})
}
