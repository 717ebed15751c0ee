// Package api provides the HTTP handlers for favorites and the category and
// tag catalogs.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/HerbHall/markstash/internal/server"
	"github.com/HerbHall/markstash/internal/services"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Handler serves the /api resource routes.
type Handler struct {
	favorites  services.FavoriteRepository
	categories services.CategoryRepository
	tags       services.TagRepository
	validate   *Validator
	logger     *zap.Logger
}

// NewHandler creates a Handler over the given repositories.
func NewHandler(
	favorites services.FavoriteRepository,
	categories services.CategoryRepository,
	tags services.TagRepository,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		favorites:  favorites,
		categories: categories,
		tags:       tags,
		validate:   NewValidator(),
		logger:     logger,
	}
}

// RegisterRoutes registers the favorite, category and tag routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/favorites", h.handleListFavorites)
	mux.HandleFunc("POST /api/favorites", h.handleCreateFavorite)
	mux.HandleFunc("GET /api/favorites/{id}", h.handleGetFavorite)
	mux.HandleFunc("PUT /api/favorites/{id}", h.handleUpdateFavorite)
	mux.HandleFunc("DELETE /api/favorites/{id}", h.handleDeleteFavorite)

	mux.HandleFunc("GET /api/categories", h.handleListCategories)
	mux.HandleFunc("POST /api/categories", h.handleCreateCategory)
	mux.HandleFunc("GET /api/categories/{id}", h.handleGetCategory)
	mux.HandleFunc("PUT /api/categories/{id}", h.handleRenameCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", h.handleDeleteCategory)

	mux.HandleFunc("GET /api/tags", h.handleListTags)
	mux.HandleFunc("POST /api/tags", h.handleCreateTag)
	mux.HandleFunc("GET /api/tags/{id}", h.handleGetTag)
	mux.HandleFunc("PUT /api/tags/{id}", h.handleRenameTag)
	mux.HandleFunc("DELETE /api/tags/{id}", h.handleDeleteTag)
	mux.HandleFunc("GET /api/tags/{name}/favorites", h.handleListTagFavorites)
}

// StatusResponse acknowledges a deletion.
// @Description Confirmation body for DELETE endpoints.
type StatusResponse struct {
	Status string `json:"status" example:"deleted"`
}

var deleted = StatusResponse{Status: "deleted"}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody reads a JSON request body into dst and validates it. Unknown
// fields are ignored.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", services.ErrInvalidInput)
		}
		return fmt.Errorf("%w: invalid request body: %v", services.ErrInvalidInput, err)
	}
	return h.validate.Validate(dst)
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid id %q", services.ErrInvalidInput, raw)
	}
	return id, nil
}

// writeError maps repository and validation errors onto problem responses.
// Unexpected errors are logged; clients only see a fixed detail.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		server.ValidationFailed(w, verr.Fields, r.URL.Path)
	case errors.Is(err, services.ErrNotFound):
		server.NotFound(w, err.Error(), r.URL.Path)
	case errors.Is(err, services.ErrInvalidInput):
		server.BadRequest(w, err.Error(), r.URL.Path)
	case errors.Is(err, services.ErrAlreadyExists):
		server.Conflict(w, err.Error(), r.URL.Path)
	default:
		h.logger.Error("request failed",
			zap.String("action", action),
			zap.String("path", r.URL.Path),
			zap.String("request_id", server.RequestID(r.Context())),
			zap.Error(err),
		)
		server.DatabaseError(w, "failed to "+action, r.URL.Path)
	}
}
