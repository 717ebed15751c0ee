package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/HerbHall/markstash/internal/store"
	"github.com/HerbHall/markstash/pkg/models"
)

// FavoriteRepository provides CRUD and filtered listing of favorites.
type FavoriteRepository interface {
	// List returns one page of favorites matching filter, newest first,
	// with the total size of the filtered set.
	List(ctx context.Context, filter FavoriteFilter, page PageRequest) (*Page[models.Favorite], error)

	// ListByTagName lists favorites whose tag list contains name.
	ListByTagName(ctx context.Context, name string, page PageRequest) (*Page[models.Favorite], error)

	// Get returns a single favorite by ID.
	Get(ctx context.Context, id int64) (*models.Favorite, error)

	// Create inserts a favorite and returns the stored record.
	Create(ctx context.Context, in *models.FavoriteInput) (*models.Favorite, error)

	// Update replaces the mutable fields of an existing favorite.
	Update(ctx context.Context, id int64, in *models.FavoriteInput) (*models.Favorite, error)

	// Delete removes a favorite by ID.
	Delete(ctx context.Context, id int64) error
}

// Compile-time interface guard.
var _ FavoriteRepository = (*SQLiteFavoriteRepository)(nil)

// SQLiteFavoriteRepository implements FavoriteRepository over the
// favorites table, with tags stored as a JSON array of names.
type SQLiteFavoriteRepository struct {
	db         *sqlx.DB
	now        func() time.Time
	maxPerPage int
}

// FavoriteOption configures a SQLiteFavoriteRepository.
type FavoriteOption func(*SQLiteFavoriteRepository)

// WithClock overrides the time source used for created_at.
func WithClock(now func() time.Time) FavoriteOption {
	return func(r *SQLiteFavoriteRepository) { r.now = now }
}

// WithMaxPerPage overrides the per_page ceiling.
func WithMaxPerPage(n int) FavoriteOption {
	return func(r *SQLiteFavoriteRepository) { r.maxPerPage = n }
}

// NewSQLiteFavoriteRepository creates a FavoriteRepository.
// The core schema must already be in place (see EnsureSchema).
func NewSQLiteFavoriteRepository(db *sqlx.DB, opts ...FavoriteOption) *SQLiteFavoriteRepository {
	r := &SQLiteFavoriteRepository{db: db, now: time.Now, maxPerPage: MaxPerPage}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// favoriteSelect is the shared projection for favorite reads.
const favoriteSelect = `SELECT f.id, f.category_id,
	COALESCE(c.name, '` + models.UncategorizedLabel + `') AS category_name,
	f.text, f.url, f.tags, f.created_at
	FROM favorites f LEFT JOIN categories c ON c.id = f.category_id`

type favoriteRow struct {
	ID           int64         `db:"id"`
	CategoryID   sql.NullInt64 `db:"category_id"`
	CategoryName string        `db:"category_name"`
	Text         string        `db:"text"`
	URL          string        `db:"url"`
	Tags         string        `db:"tags"`
	CreatedAt    string        `db:"created_at"`
}

func (row *favoriteRow) toModel() models.Favorite {
	f := models.Favorite{
		ID:           row.ID,
		CategoryName: row.CategoryName,
		Text:         row.Text,
		URL:          row.URL,
		Tags:         decodeTags(row.Tags),
		CreatedAt:    row.CreatedAt,
	}
	if row.CategoryID.Valid {
		id := row.CategoryID.Int64
		f.CategoryID = &id
	}
	return f
}

func (r *SQLiteFavoriteRepository) List(ctx context.Context, filter FavoriteFilter, page PageRequest) (*Page[models.Favorite], error) {
	page, err := page.Normalize(r.maxPerPage)
	if err != nil {
		return nil, err
	}
	pred := BuildFavoritePredicate(filter)
	limit, offset := page.Window()

	var total int
	var rows []favoriteRow

	// Count and page are read in one transaction so both see the same rows.
	err = store.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		//nolint:gosec // Where() holds placeholders only
		if err := tx.GetContext(ctx, &total,
			"SELECT COUNT(*) FROM favorites f"+pred.Where(), pred.Args...); err != nil {
			return fmt.Errorf("count favorites: %w", err)
		}

		args := make([]any, 0, len(pred.Args)+2)
		args = append(args, pred.Args...)
		args = append(args, limit, offset)

		//nolint:gosec // Where() holds placeholders only
		query := favoriteSelect + pred.Where() + " ORDER BY f.created_at DESC, f.id DESC LIMIT ? OFFSET ?"
		if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
			return fmt.Errorf("list favorites: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	items := make([]models.Favorite, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].toModel())
	}
	return &Page[models.Favorite]{Items: items, Total: total, Page: page.Page, PerPage: page.PerPage}, nil
}

func (r *SQLiteFavoriteRepository) ListByTagName(ctx context.Context, name string, page PageRequest) (*Page[models.Favorite], error) {
	if name == "" {
		return nil, fmt.Errorf("%w: tag name is required", ErrInvalidInput)
	}
	return r.List(ctx, FavoriteFilter{TagName: name}, page)
}

func (r *SQLiteFavoriteRepository) Get(ctx context.Context, id int64) (*models.Favorite, error) {
	return getFavorite(ctx, r.db, id)
}

func (r *SQLiteFavoriteRepository) Create(ctx context.Context, in *models.FavoriteInput) (*models.Favorite, error) {
	tagsJSON, err := checkFavoriteInput(in)
	if err != nil {
		return nil, err
	}
	createdAt := r.now().UTC().Format(time.RFC3339)

	var fav *models.Favorite
	err = store.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO favorites (category_id, text, url, tags, created_at) VALUES (?, ?, ?, ?, ?)`,
			in.CategoryID, in.Text, in.URL, tagsJSON, createdAt,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: category %d does not exist", ErrInvalidInput, *in.CategoryID)
			}
			return fmt.Errorf("create favorite: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("create favorite: last insert id: %w", err)
		}
		// Read back in the same transaction so the category name matches
		// the row as inserted.
		fav, err = getFavorite(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return fav, nil
}

func (r *SQLiteFavoriteRepository) Update(ctx context.Context, id int64, in *models.FavoriteInput) (*models.Favorite, error) {
	tagsJSON, err := checkFavoriteInput(in)
	if err != nil {
		return nil, err
	}

	var fav *models.Favorite
	err = store.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE favorites SET category_id = ?, text = ?, url = ?, tags = ? WHERE id = ?`,
			in.CategoryID, in.Text, in.URL, tagsJSON, id,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: category %d does not exist", ErrInvalidInput, *in.CategoryID)
			}
			return fmt.Errorf("update favorite %d: %w", id, err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return ErrNotFound
		}
		fav, err = getFavorite(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return fav, nil
}

func (r *SQLiteFavoriteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete favorite %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func getFavorite(ctx context.Context, q sqlx.QueryerContext, id int64) (*models.Favorite, error) {
	var row favoriteRow
	err := sqlx.GetContext(ctx, q, &row, favoriteSelect+` WHERE f.id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get favorite %d: %w", id, err)
	}
	f := row.toModel()
	return &f, nil
}

// checkFavoriteInput validates the required fields and returns the encoded
// tag list.
func checkFavoriteInput(in *models.FavoriteInput) (string, error) {
	if in == nil {
		return "", fmt.Errorf("%w: favorite body is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Text) == "" {
		return "", fmt.Errorf("%w: text is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.URL) == "" {
		return "", fmt.Errorf("%w: url is required", ErrInvalidInput)
	}
	tagsJSON, err := encodeTags(in.Tags)
	if err != nil {
		return "", fmt.Errorf("%w: encode tags: %v", ErrInvalidInput, err)
	}
	return tagsJSON, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		return "[]", nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeTags parses the tags column. Rows written before tags were
// validated may hold malformed JSON; those decode as an empty list.
func decodeTags(s string) []string {
	tags := []string{}
	if s == "" {
		return tags
	}
	if err := json.Unmarshal([]byte(s), &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}
