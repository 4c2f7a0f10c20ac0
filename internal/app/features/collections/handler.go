// internal/app/features/collections/handler.go
package collectionsfeature

import (
	"net/http"

	errorsfeature "github.com/dalemusser/stratareel/internal/app/features/errors"
	collectionstore "github.com/dalemusser/stratareel/internal/app/store/collections"
	"github.com/dalemusser/stratareel/internal/app/system/jsonutil"
	"github.com/dalemusser/stratareel/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the collection API.
type Handler struct {
	Collections *collectionstore.Store
	ErrLog      *errorsfeature.ErrorLogger
	Log         *zap.Logger
}

func NewHandler(cols *collectionstore.Store, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Collections: cols, ErrLog: errLog, Log: logger}
}

type createRequest struct {
	Name     string   `json:"name"`
	MovieIDs []string `json:"movieIds"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type addMoviesRequest struct {
	MovieIDs []string `json:"movieIds"`
}

// ServeList handles GET /api/collections. Each collection carries its
// derived coverUrl.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Scan(), h.Log, "list collections")
	defer cancel()

	cols, err := h.Collections.List(ctx)
	if err != nil {
		h.ErrLog.Respond(w, r, "failed to list collections", err)
		return
	}
	jsonutil.OK(w, cols)
}

// HandleCreate handles POST /api/collections.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		jsonutil.BadRequest(w, "Invalid request body.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Scan(), h.Log, "create collection")
	defer cancel()

	col, err := h.Collections.Create(ctx, req.Name, req.MovieIDs...)
	if err != nil {
		h.ErrLog.Respond(w, r, "failed to create collection", err)
		return
	}
	jsonutil.Created(w, col)
}

// ServeDetail handles GET /api/collections/{id}: the collection with its
// movies resolved in order. Ids without a movie are left out.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Scan(), h.Log, "get collection")
	defer cancel()

	cwm, err := h.Collections.GetWithMovies(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Respond(w, r, "failed to load collection", err)
		return
	}
	jsonutil.OK(w, cwm)
}

// HandleRename handles PATCH /api/collections/{id}.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		jsonutil.BadRequest(w, "Invalid request body.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Scan(), h.Log, "rename collection")
	defer cancel()

	col, err := h.Collections.Rename(ctx, chi.URLParam(r, "id"), req.Name)
	if err != nil {
		h.ErrLog.Respond(w, r, "failed to rename collection", err)
		return
	}
	jsonutil.OK(w, col)
}

// HandleDelete handles DELETE /api/collections/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Store(), h.Log, "delete collection")
	defer cancel()

	if err := h.Collections.Delete(ctx, id); err != nil {
		h.ErrLog.Respond(w, r, "failed to delete collection", err)
		return
	}
	jsonutil.NoContent(w)
}

// HandleAddMovies handles POST /api/collections/{id}/movies. An empty
// movieIds list changes nothing and still answers with the collection.
func (h *Handler) HandleAddMovies(w http.ResponseWriter, r *http.Request) {
	var req addMoviesRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		jsonutil.BadRequest(w, "Invalid request body.")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Store(), h.Log, "add movies to collection")
	defer cancel()

	col, err := h.Collections.AddMovies(ctx, chi.URLParam(r, "id"), req.MovieIDs)
	if err != nil {
		h.ErrLog.Respond(w, r, "failed to add movies to collection", err)
		return
	}
	jsonutil.OK(w, col)
}

// HandleRemoveMovie handles DELETE /api/collections/{id}/movies/{movieId}.
func (h *Handler) HandleRemoveMovie(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Store(), h.Log, "remove movie from collection")
	defer cancel()

	col, err := h.Collections.RemoveMovie(ctx, chi.URLParam(r, "id"), chi.URLParam(r, "movieId"))
	if err != nil {
		h.ErrLog.Respond(w, r, "failed to remove movie from collection", err)
		return
	}
	jsonutil.OK(w, col)
}
