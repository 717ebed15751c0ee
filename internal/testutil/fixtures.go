package testutil

import "github.com/HerbHall/markstash/pkg/models"

// NewFavoriteInput returns a FavoriteInput with sensible defaults, suitable
// for test fixtures. Override individual fields with options.
func NewFavoriteInput(opts ...func(*models.FavoriteInput)) *models.FavoriteInput {
	in := &models.FavoriteInput{
		Text: "test favorite",
		URL:  "https://example.com/test",
		Tags: []string{},
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// WithText sets the favorite text.
func WithText(text string) func(*models.FavoriteInput) {
	return func(in *models.FavoriteInput) { in.Text = text }
}

// WithURL sets the favorite URL.
func WithURL(url string) func(*models.FavoriteInput) {
	return func(in *models.FavoriteInput) { in.URL = url }
}

// WithTags sets the favorite's tag list.
func WithTags(tags ...string) func(*models.FavoriteInput) {
	return func(in *models.FavoriteInput) { in.Tags = tags }
}

// WithCategory sets the favorite's category.
func WithCategory(id int64) func(*models.FavoriteInput) {
	return func(in *models.FavoriteInput) { in.CategoryID = &id }
}
