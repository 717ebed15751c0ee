package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HerbHall/markstash/internal/services"
	"github.com/HerbHall/markstash/internal/testutil"
)

func TestCategoryRepository_CRUD(t *testing.T) {
	db := testutil.NewSchemaStore(t)
	repo := services.NewSQLiteCategoryRepository(db.DBx())
	ctx := context.Background()

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.NotNil(t, all)

	a, err := repo.Create(ctx, "  Articles ")
	require.NoError(t, err)
	assert.Equal(t, "Articles", a.Name)
	b, err := repo.Create(ctx, "Videos")
	require.NoError(t, err)

	all, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].ID)
	assert.Equal(t, b.ID, all[1].ID)

	renamed, err := repo.Rename(ctx, a.ID, "Reading")
	require.NoError(t, err)
	assert.Equal(t, "Reading", renamed.Name)

	got, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Reading", got.Name)

	require.NoError(t, repo.Delete(ctx, a.ID))
	_, err = repo.Get(ctx, a.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestCategoryRepository_Errors(t *testing.T) {
	db := testutil.NewSchemaStore(t)
	repo := services.NewSQLiteCategoryRepository(db.DBx())
	ctx := context.Background()

	a, err := repo.Create(ctx, "Articles")
	require.NoError(t, err)
	b, err := repo.Create(ctx, "Videos")
	require.NoError(t, err)

	_, err = repo.Create(ctx, "Articles")
	assert.ErrorIs(t, err, services.ErrAlreadyExists)

	_, err = repo.Create(ctx, "   ")
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = repo.Rename(ctx, b.ID, a.Name)
	assert.ErrorIs(t, err, services.ErrAlreadyExists)

	_, err = repo.Rename(ctx, 999, "Nope")
	assert.ErrorIs(t, err, services.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, 999), services.ErrNotFound)
}

func TestTagRepository_CRUD(t *testing.T) {
	db := testutil.NewSchemaStore(t)
	repo := services.NewSQLiteTagRepository(db.DBx())
	ctx := context.Background()

	tag, err := repo.Create(ctx, "rust")
	require.NoError(t, err)
	assert.Equal(t, "rust", tag.Name)

	_, err = repo.Create(ctx, "rust")
	assert.ErrorIs(t, err, services.ErrAlreadyExists)

	renamed, err := repo.Rename(ctx, tag.ID, "go")
	require.NoError(t, err)
	assert.Equal(t, tag.ID, renamed.ID)
	assert.Equal(t, "go", renamed.Name)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "go", all[0].Name)

	require.NoError(t, repo.Delete(ctx, tag.ID))
	assert.ErrorIs(t, repo.Delete(ctx, tag.ID), services.ErrNotFound)
}
