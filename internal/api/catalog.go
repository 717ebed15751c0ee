package api

import (
	"fmt"
	"net/http"

	"github.com/HerbHall/markstash/internal/services"
	"github.com/HerbHall/markstash/pkg/models"
)

// Shared bodies of the category and tag handlers.

func listCatalog[T any](h *Handler, repo services.CatalogRepository[T], noun string, w http.ResponseWriter, r *http.Request) {
	items, err := repo.List(r.Context())
	if err != nil {
		h.writeError(w, r, err, "list "+noun)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func getCatalog[T any](h *Handler, repo services.CatalogRepository[T], noun string, w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err, "get "+noun)
		return
	}
	item, err := repo.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%s %d %w", noun, id, err), "get "+noun)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func createCatalog[T any](h *Handler, repo services.CatalogRepository[T], noun string, w http.ResponseWriter, r *http.Request) {
	var in models.NameInput
	if err := h.decodeBody(w, r, &in); err != nil {
		h.writeError(w, r, err, "create "+noun)
		return
	}
	item, err := repo.Create(r.Context(), in.Name)
	if err != nil {
		h.writeError(w, r, err, "create "+noun)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func renameCatalog[T any](h *Handler, repo services.CatalogRepository[T], noun string, w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err, "rename "+noun)
		return
	}
	var in models.NameInput
	if err := h.decodeBody(w, r, &in); err != nil {
		h.writeError(w, r, err, "rename "+noun)
		return
	}
	item, err := repo.Rename(r.Context(), id, in.Name)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%s %d %w", noun, id, err), "rename "+noun)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func deleteCatalog[T any](h *Handler, repo services.CatalogRepository[T], noun string, w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err, "delete "+noun)
		return
	}
	if err := repo.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, fmt.Errorf("%s %d %w", noun, id, err), "delete "+noun)
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}

// handleListCategories returns every category.
//
//	@Summary	List categories
//	@Tags		categories
//	@Produce	json
//	@Success	200	{array}		models.Category
//	@Failure	500	{object}	server.Problem
//	@Router		/categories [get]
func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	listCatalog(h, h.categories, "category", w, r)
}

// handleCreateCategory adds a category.
//
//	@Summary	Create category
//	@Tags		categories
//	@Accept		json
//	@Produce	json
//	@Param		request	body		models.NameInput	true	"Category name"
//	@Success	201		{object}	models.Category
//	@Failure	400		{object}	server.Problem
//	@Failure	409		{object}	server.Problem	"Name already in use"
//	@Router		/categories [post]
func (h *Handler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	createCatalog(h, h.categories, "category", w, r)
}

// handleGetCategory returns one category.
//
//	@Summary	Get category
//	@Tags		categories
//	@Produce	json
//	@Param		id	path		int	true	"Category ID"
//	@Success	200	{object}	models.Category
//	@Failure	404	{object}	server.Problem
//	@Router		/categories/{id} [get]
func (h *Handler) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	getCatalog(h, h.categories, "category", w, r)
}

// handleRenameCategory renames a category.
//
//	@Summary	Rename category
//	@Tags		categories
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int					true	"Category ID"
//	@Param		request	body		models.NameInput	true	"New name"
//	@Success	200		{object}	models.Category
//	@Failure	404		{object}	server.Problem
//	@Failure	409		{object}	server.Problem	"Name already in use"
//	@Router		/categories/{id} [put]
func (h *Handler) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	renameCatalog(h, h.categories, "category", w, r)
}

// handleDeleteCategory removes a category. Its favorites become
// uncategorized.
//
//	@Summary	Delete category
//	@Tags		categories
//	@Produce	json
//	@Param		id	path		int	true	"Category ID"
//	@Success	200	{object}	StatusResponse
//	@Failure	404	{object}	server.Problem
//	@Router		/categories/{id} [delete]
func (h *Handler) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	deleteCatalog(h, h.categories, "category", w, r)
}

// handleListTags returns every catalog tag.
//
//	@Summary	List tags
//	@Tags		tags
//	@Produce	json
//	@Success	200	{array}		models.Tag
//	@Failure	500	{object}	server.Problem
//	@Router		/tags [get]
func (h *Handler) handleListTags(w http.ResponseWriter, r *http.Request) {
	listCatalog(h, h.tags, "tag", w, r)
}

// handleCreateTag adds a catalog tag.
//
//	@Summary	Create tag
//	@Tags		tags
//	@Accept		json
//	@Produce	json
//	@Param		request	body		models.NameInput	true	"Tag name"
//	@Success	201		{object}	models.Tag
//	@Failure	400		{object}	server.Problem
//	@Failure	409		{object}	server.Problem	"Name already in use"
//	@Router		/tags [post]
func (h *Handler) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	createCatalog(h, h.tags, "tag", w, r)
}

// handleGetTag returns one catalog tag.
//
//	@Summary	Get tag
//	@Tags		tags
//	@Produce	json
//	@Param		id	path		int	true	"Tag ID"
//	@Success	200	{object}	models.Tag
//	@Failure	404	{object}	server.Problem
//	@Router		/tags/{id} [get]
func (h *Handler) handleGetTag(w http.ResponseWriter, r *http.Request) {
	getCatalog(h, h.tags, "tag", w, r)
}

// handleRenameTag renames a catalog tag. Embedded favorite tag lists are
// left unchanged.
//
//	@Summary	Rename tag
//	@Tags		tags
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int					true	"Tag ID"
//	@Param		request	body		models.NameInput	true	"New name"
//	@Success	200		{object}	models.Tag
//	@Failure	404		{object}	server.Problem
//	@Failure	409		{object}	server.Problem	"Name already in use"
//	@Router		/tags/{id} [put]
func (h *Handler) handleRenameTag(w http.ResponseWriter, r *http.Request) {
	renameCatalog(h, h.tags, "tag", w, r)
}

// handleDeleteTag removes a catalog tag.
//
//	@Summary	Delete tag
//	@Tags		tags
//	@Produce	json
//	@Param		id	path		int	true	"Tag ID"
//	@Success	200	{object}	StatusResponse
//	@Failure	404	{object}	server.Problem
//	@Router		/tags/{id} [delete]
func (h *Handler) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	deleteCatalog(h, h.tags, "tag", w, r)
}
