package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/ladle/internal/apperr"
	"github.com/starford/ladle/internal/recipeservice"
)

const maxUploadBytes = 10 << 20 // 10 MB

// Handler holds API route handlers.
type Handler struct {
	svc *recipeservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *recipeservice.Service) *Handler {
	return &Handler{svc: svc}
}

// pathParam returns a decoded chi URL parameter. Supports encoded characters
// from OpenAPI clients (e.g. beef%20stew).
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// respondError maps service errors onto the HTTP taxonomy. Anything outside
// the taxonomy is an upstream failure and logged as such.
func respondError(w http.ResponseWriter, err error, logMsg string, logAttrs ...any) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("name already exists"))
	case errors.Is(err, apperr.ErrBadInput):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorBody("invalid credentials"))
	default:
		slog.Error(logMsg, append(logAttrs, slog.String("error", err.Error()))...)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListRecipes handles GET /api/recipes.
//
//	@Summary		List all recipes with tags and cover images
//	@Tags			recipes
//	@Produce		json
//	@Success		200	{object}	RecipeListResponse
//	@Security		BearerAuth
//	@Router			/recipes [get]
func (h *Handler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.svc.List(r.Context())
	if err != nil {
		respondError(w, err, "list recipes failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recipes": recipes})
}

// GetRecipe handles GET /api/recipes/{name}, returning raw markdown.
//
//	@Summary		Get a recipe's Markdown text
//	@Tags			recipes
//	@Produce		text/markdown
//	@Param			name	path		string	true	"Recipe name"
//	@Success		200		{string}	string
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recipes/{name} [get]
func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	text, err := h.svc.Get(r.Context(), name)
	if err != nil {
		respondError(w, err, "get recipe failed", slog.String("name", name))
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

// SaveRecipe handles POST /api/recipes (multipart/form-data with fields
// name, markdown, tags, original_name, and an optional photo file).
//
//	@Summary		Create or update a recipe, optionally renaming it and attaching a photo
//	@Tags			recipes
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			name			formData	string	true	"Recipe name"
//	@Param			original_name	formData	string	false	"Current name when renaming"
//	@Param			markdown		formData	string	false	"Recipe Markdown text"
//	@Param			tags			formData	string	false	"Comma or space separated tags"
//	@Param			photo			formData	file	false	"Photo to attach"
//	@Success		200				{object}	map[string]string
//	@Failure		400				{object}	errResponse
//	@Failure		409				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recipes [post]
func (h *Handler) SaveRecipe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart form or body too large"))
		return
	}

	req := recipeservice.SaveRequest{
		Name:         r.FormValue("name"),
		OriginalName: r.FormValue("original_name"),
		Markdown:     r.FormValue("markdown"),
		TagsInput:    r.FormValue("tags"),
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}

	file, header, err := r.FormFile("photo")
	switch {
	case err == nil:
		defer file.Close()
		data, readErr := io.ReadAll(file)
		if readErr != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("failed to read photo"))
			return
		}
		req.Photo = &recipeservice.Photo{Filename: header.Filename, Data: data}
	case errors.Is(err, http.ErrMissingFile):
		// No photo in this save.
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("invalid photo field"))
		return
	}

	if err := h.svc.Save(r.Context(), req); err != nil {
		respondError(w, err, "save recipe failed", slog.String("name", req.Name))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DeleteRecipe handles DELETE /api/recipes/{name}.
//
//	@Summary		Delete a recipe and its photo folder
//	@Tags			recipes
//	@Param			name	path	string	true	"Recipe name"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recipes/{name} [delete]
func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	if err := h.svc.Delete(r.Context(), name); err != nil {
		respondError(w, err, "delete recipe failed", slog.String("name", name))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeletePhoto handles DELETE /api/recipes/{name}/photos/{filename}.
//
//	@Summary		Delete a single photo from a recipe
//	@Tags			recipes
//	@Param			name		path	string	true	"Recipe name"
//	@Param			filename	path	string	true	"Photo filename"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recipes/{name}/photos/{filename} [delete]
func (h *Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	filename := pathParam(r, "filename")
	if err := h.svc.DeletePhoto(r.Context(), name, filename); err != nil {
		respondError(w, err, "delete photo failed",
			slog.String("name", name), slog.String("filename", filename))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTag handles DELETE /api/tags/{tag}, removing the tag from every
// recipe that carries it.
//
//	@Summary		Remove a tag from every recipe
//	@Tags			tags
//	@Param			tag	path	string	true	"Tag to remove"
//	@Success		204
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tags/{tag} [delete]
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	tag := pathParam(r, "tag")
	if err := h.svc.DeleteTag(r.Context(), tag); err != nil {
		respondError(w, err, "delete tag failed", slog.String("tag", tag))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPhoto handles GET /api/photos/{name}/{filename}. With ?thumb=<size> a
// store-generated thumbnail is returned instead of the full image; full
// images support conditional requests via ETag/If-None-Match.
//
//	@Summary		Fetch a recipe photo, with ETag revalidation
//	@Tags			photos
//	@Produce		image/jpeg
//	@Param			name		path	string	true	"Recipe name"
//	@Param			filename	path	string	true	"Photo filename"
//	@Param			thumb		query	string	false	"Thumbnail size (e.g. w256h256)"
//	@Success		200	{file}		binary
//	@Success		304	{string}	string	"Not Modified"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/photos/{name}/{filename} [get]
func (h *Handler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	filename := pathParam(r, "filename")

	if size := r.URL.Query().Get("thumb"); size != "" {
		data, err := h.svc.Thumbnail(r.Context(), name, filename, size)
		if err != nil {
			respondError(w, err, "get thumbnail failed",
				slog.String("name", name), slog.String("filename", filename))
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(data)
		return
	}

	clientETag := strings.Trim(r.Header.Get("If-None-Match"), `"`)
	content, notModified, err := h.svc.Photo(r.Context(), name, filename, clientETag)
	if err != nil {
		respondError(w, err, "get photo failed",
			slog.String("name", name), slog.String("filename", filename))
		return
	}

	w.Header().Set("ETag", `"`+content.ETag+`"`)
	if notModified {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", content.MediaType)
	w.Header().Set("Cache-Control", "private, must-revalidate")
	_, _ = w.Write(content.Data)
}
