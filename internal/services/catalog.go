package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/HerbHall/markstash/pkg/models"
)

// CatalogRepository provides CRUD over a table of uniquely named entries.
type CatalogRepository[T any] interface {
	// List returns every entry ordered by ID.
	List(ctx context.Context) ([]T, error)

	// Get returns a single entry by ID.
	Get(ctx context.Context, id int64) (*T, error)

	// Create inserts an entry with the given name and returns it.
	Create(ctx context.Context, name string) (*T, error)

	// Rename changes an entry's name and returns the updated entry.
	Rename(ctx context.Context, id int64, name string) (*T, error)

	// Delete removes an entry by ID.
	Delete(ctx context.Context, id int64) error
}

// CategoryRepository manages the category catalog.
type CategoryRepository = CatalogRepository[models.Category]

// TagRepository manages the tag catalog. Tag changes never touch the tag
// lists embedded in favorites.
type TagRepository = CatalogRepository[models.Tag]

// Compile-time interface guards.
var (
	_ CategoryRepository = (*SQLiteCatalogRepository[models.Category])(nil)
	_ TagRepository      = (*SQLiteCatalogRepository[models.Tag])(nil)
)

// SQLiteCatalogRepository implements CatalogRepository over a table with
// columns (id, name). T must carry db:"id" and db:"name" tags.
type SQLiteCatalogRepository[T any] struct {
	db    *sqlx.DB
	table string
	noun  string
}

// NewSQLiteCategoryRepository creates a CategoryRepository.
func NewSQLiteCategoryRepository(db *sqlx.DB) *SQLiteCatalogRepository[models.Category] {
	return &SQLiteCatalogRepository[models.Category]{db: db, table: "categories", noun: "category"}
}

// NewSQLiteTagRepository creates a TagRepository.
func NewSQLiteTagRepository(db *sqlx.DB) *SQLiteCatalogRepository[models.Tag] {
	return &SQLiteCatalogRepository[models.Tag]{db: db, table: "tags", noun: "tag"}
}

func (r *SQLiteCatalogRepository[T]) List(ctx context.Context) ([]T, error) {
	items := []T{}
	//nolint:gosec // table is fixed at construction
	if err := r.db.SelectContext(ctx, &items, `SELECT id, name FROM `+r.table+` ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.table, err)
	}
	return items, nil
}

func (r *SQLiteCatalogRepository[T]) Get(ctx context.Context, id int64) (*T, error) {
	var item T
	//nolint:gosec // table is fixed at construction
	err := r.db.GetContext(ctx, &item, `SELECT id, name FROM `+r.table+` WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s %d: %w", r.noun, id, err)
	}
	return &item, nil
}

func (r *SQLiteCatalogRepository[T]) Create(ctx context.Context, name string) (*T, error) {
	name, err := r.cleanName(name)
	if err != nil {
		return nil, err
	}
	//nolint:gosec // table is fixed at construction
	res, err := r.db.ExecContext(ctx, `INSERT INTO `+r.table+` (name) VALUES (?)`, name)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s %q", ErrAlreadyExists, r.noun, name)
		}
		return nil, fmt.Errorf("create %s: %w", r.noun, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create %s: last insert id: %w", r.noun, err)
	}
	return r.Get(ctx, id)
}

func (r *SQLiteCatalogRepository[T]) Rename(ctx context.Context, id int64, name string) (*T, error) {
	name, err := r.cleanName(name)
	if err != nil {
		return nil, err
	}
	//nolint:gosec // table is fixed at construction
	res, err := r.db.ExecContext(ctx, `UPDATE `+r.table+` SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s %q", ErrAlreadyExists, r.noun, name)
		}
		return nil, fmt.Errorf("rename %s %d: %w", r.noun, id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *SQLiteCatalogRepository[T]) Delete(ctx context.Context, id int64) error {
	//nolint:gosec // table is fixed at construction
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+r.table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", r.noun, id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteCatalogRepository[T]) cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: %s name is required", ErrInvalidInput, r.noun)
	}
	return name, nil
}
