package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TableExists reports whether a table named name exists. q may be the
// store handle or an open migration transaction.
func TableExists(ctx context.Context, q sqlx.QueryerContext, name string) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, q, &count,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name)
	if err != nil {
		return false, fmt.Errorf("table exists %q: %w", name, err)
	}
	return count > 0, nil
}

// ColumnExists reports whether table has a column named column.
func ColumnExists(ctx context.Context, q sqlx.QueryerContext, table, column string) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, q, &count,
		"SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column)
	if err != nil {
		return false, fmt.Errorf("column exists %s.%s: %w", table, column, err)
	}
	return count > 0, nil
}

// Columns returns the column names of table in declaration order.
func Columns(ctx context.Context, q sqlx.QueryerContext, table string) ([]string, error) {
	var cols []string
	err := sqlx.SelectContext(ctx, q, &cols,
		"SELECT name FROM pragma_table_info(?) ORDER BY cid", table)
	if err != nil {
		return nil, fmt.Errorf("columns %q: %w", table, err)
	}
	return cols, nil
}
