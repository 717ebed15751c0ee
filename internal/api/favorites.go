package api

import (
	"fmt"
	"net/http"

	"github.com/HerbHall/markstash/internal/services"
	"github.com/HerbHall/markstash/pkg/models"
)

// FavoritePage is the paginated favorite list body.
// @Description One page of favorites, newest first.
type FavoritePage = services.Page[models.Favorite]

// handleListFavorites returns a filtered page of favorites.
//
//	@Summary		List favorites
//	@Description	List favorites newest first. Filters combine with AND; empty values are ignored.
//	@Tags			favorites
//	@Produce		json
//	@Param			page		query		int		false	"Page number (1-based)"			default(1)
//	@Param			per_page	query		int		false	"Items per page (max 100)"		default(10)
//	@Param			search		query		string	false	"Substring of the favorite text"
//	@Param			category_id	query		int		false	"Category ID"
//	@Param			tag_id		query		int		false	"Catalog tag ID"
//	@Success		200			{object}	FavoritePage
//	@Failure		400			{object}	server.Problem
//	@Failure		500			{object}	server.Problem
//	@Router			/favorites [get]
func (h *Handler) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := parsePage(q)
	if err != nil {
		h.writeError(w, r, err, "list favorites")
		return
	}
	filter, err := parseFavoriteFilter(q)
	if err != nil {
		h.writeError(w, r, err, "list favorites")
		return
	}

	result, err := h.favorites.List(r.Context(), filter, page)
	if err != nil {
		h.writeError(w, r, err, "list favorites")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCreateFavorite stores a new favorite.
//
//	@Summary		Create favorite
//	@Tags			favorites
//	@Accept			json
//	@Produce		json
//	@Param			request	body		models.FavoriteInput	true	"Favorite to create"
//	@Success		201		{object}	models.Favorite
//	@Failure		400		{object}	server.Problem
//	@Failure		500		{object}	server.Problem
//	@Router			/favorites [post]
func (h *Handler) handleCreateFavorite(w http.ResponseWriter, r *http.Request) {
	var in models.FavoriteInput
	if err := h.decodeBody(w, r, &in); err != nil {
		h.writeError(w, r, err, "create favorite")
		return
	}

	fav, err := h.favorites.Create(r.Context(), &in)
	if err != nil {
		h.writeError(w, r, err, "create favorite")
		return
	}
	writeJSON(w, http.StatusCreated, fav)
}

// handleGetFavorite returns one favorite.
//
//	@Summary		Get favorite
//	@Tags			favorites
//	@Produce		json
//	@Param			id	path		int	true	"Favorite ID"
//	@Success		200	{object}	models.Favorite
//	@Failure		400	{object}	server.Problem
//	@Failure		404	{object}	server.Problem
//	@Router			/favorites/{id} [get]
func (h *Handler) handleGetFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err, "get favorite")
		return
	}

	fav, err := h.favorites.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("favorite %d %w", id, err), "get favorite")
		return
	}
	writeJSON(w, http.StatusOK, fav)
}

// handleUpdateFavorite replaces a favorite's category, text, url and tags.
//
//	@Summary		Update favorite
//	@Tags			favorites
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Favorite ID"
//	@Param			request	body		models.FavoriteInput	true	"New values"
//	@Success		200		{object}	models.Favorite
//	@Failure		400		{object}	server.Problem
//	@Failure		404		{object}	server.Problem
//	@Router			/favorites/{id} [put]
func (h *Handler) handleUpdateFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err, "update favorite")
		return
	}
	var in models.FavoriteInput
	if err := h.decodeBody(w, r, &in); err != nil {
		h.writeError(w, r, err, "update favorite")
		return
	}

	fav, err := h.favorites.Update(r.Context(), id, &in)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("favorite %d %w", id, err), "update favorite")
		return
	}
	writeJSON(w, http.StatusOK, fav)
}

// handleDeleteFavorite removes a favorite.
//
//	@Summary		Delete favorite
//	@Tags			favorites
//	@Produce		json
//	@Param			id	path		int	true	"Favorite ID"
//	@Success		200	{object}	StatusResponse
//	@Failure		404	{object}	server.Problem
//	@Router			/favorites/{id} [delete]
func (h *Handler) handleDeleteFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err, "delete favorite")
		return
	}

	if err := h.favorites.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, fmt.Errorf("favorite %d %w", id, err), "delete favorite")
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}

// handleListTagFavorites returns favorites whose tag list holds the tag name.
//
//	@Summary		List favorites by tag name
//	@Tags			tags
//	@Produce		json
//	@Param			name		path		string	true	"Tag name"
//	@Param			page		query		int		false	"Page number (1-based)"		default(1)
//	@Param			per_page	query		int		false	"Items per page (max 100)"	default(10)
//	@Success		200			{object}	FavoritePage
//	@Failure		400			{object}	server.Problem
//	@Router			/tags/{name}/favorites [get]
func (h *Handler) handleListTagFavorites(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err, "list tag favorites")
		return
	}

	result, err := h.favorites.ListByTagName(r.Context(), r.PathValue("name"), page)
	if err != nil {
		h.writeError(w, r, err, "list tag favorites")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
