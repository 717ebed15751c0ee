package models

// UncategorizedLabel is shown for favorites whose category is unset or
// references a category that no longer exists.
const UncategorizedLabel = "uncategorized"

// Favorite is a saved link annotated with a description, an optional
// category and an ordered tag list.
type Favorite struct {
	ID           int64    `json:"id" example:"1"`
	CategoryID   *int64   `json:"category_id" example:"1"`
	CategoryName string   `json:"category_name" example:"Articles"`
	Text         string   `json:"text" example:"Rust guide"`
	URL          string   `json:"url" example:"https://example.com/rust-guide"`
	Tags         []string `json:"tags" example:"rust,guide"`
	CreatedAt    string   `json:"created_at" example:"2024-03-14T12:00:00Z"`
}

// FavoriteInput holds the mutable fields accepted by create and update.
// ID and CreatedAt are assigned by the store and never accepted here.
type FavoriteInput struct {
	CategoryID *int64   `json:"category_id" example:"1"`
	Text       string   `json:"text" validate:"required" example:"Rust guide"`
	URL        string   `json:"url" validate:"required,max=2048" example:"https://example.com/rust-guide"`
	Tags       []string `json:"tags" validate:"dive,required,max=128" example:"rust,guide"`
}

// Category is a named grouping; a favorite belongs to at most one.
type Category struct {
	ID   int64  `json:"id" db:"id" example:"1"`
	Name string `json:"name" db:"name" example:"Articles"`
}

// Tag is a catalog label. Favorites embed tag names, not tag ids, so the
// catalog and the embedded lists are not referentially linked.
type Tag struct {
	ID   int64  `json:"id" db:"id" example:"1"`
	Name string `json:"name" db:"name" example:"rust"`
}

// NameInput is the request body for creating or renaming a catalog entry.
type NameInput struct {
	Name string `json:"name" validate:"required,max=128" example:"rust"`
}
