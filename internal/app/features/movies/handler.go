// internal/app/features/movies/handler.go
package moviesfeature

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	errorsfeature "github.com/dalemusser/stratareel/internal/app/features/errors"
	collectionstore "github.com/dalemusser/stratareel/internal/app/store/collections"
	moviestore "github.com/dalemusser/stratareel/internal/app/store/movies"
	"github.com/dalemusser/stratareel/internal/app/system/auditlog"
	"github.com/dalemusser/stratareel/internal/app/system/authz"
	"github.com/dalemusser/stratareel/internal/app/system/jsonutil"
	"github.com/dalemusser/stratareel/internal/app/system/timeouts"
	"github.com/dalemusser/stratareel/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DefaultFeaturedLimit is the dashboard size when none is configured.
const DefaultFeaturedLimit = 6

// Handler serves the movie catalog API.
type Handler struct {
	Movies      *moviestore.Store
	Collections *collectionstore.Store
	Audit       *auditlog.Logger
	ErrLog      *errorsfeature.ErrorLogger
	Log         *zap.Logger

	FeaturedLimit int
}

// NewHandler creates a movies Handler.
func NewHandler(movies *moviestore.Store, cols *collectionstore.Store, audit *auditlog.Logger, errLog *errorsfeature.ErrorLogger, featuredLimit int, logger *zap.Logger) *Handler {
	if featuredLimit <= 0 {
		featuredLimit = DefaultFeaturedLimit
	}
	return &Handler{
		Movies:        movies,
		Collections:   cols,
		Audit:         audit,
		ErrLog:        errLog,
		Log:           logger,
		FeaturedLimit: featuredLimit,
	}
}

// ServeList handles GET /api/movies.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Scan(), h.Log, "list movies")
	defer cancel()

	movies, err := h.Movies.List(ctx)
	if err != nil {
		h.ErrLog.Respond(w, r, "failed to list movies", err)
		return
	}
	jsonutil.OK(w, movies)
}

// ServeFeatured handles GET /api/movies/featured?limit=n.
func (h *Handler) ServeFeatured(w http.ResponseWriter, r *http.Request) {
	limit := h.FeaturedLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			jsonutil.BadRequest(w, "limit must be a positive whole number.")
			return
		}
		limit = n
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Scan(), h.Log, "featured movies")
	defer cancel()

	movies, err := h.Movies.Featured(ctx, limit)
	if err != nil {
		h.ErrLog.Respond(w, r, "failed to load featured movies", err)
		return
	}
	jsonutil.OK(w, movies)
}

// ServeDetail handles GET /api/movies/{id}.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Store(), h.Log, "get movie")
	defer cancel()

	m, err := h.Movies.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Respond(w, r, "failed to load movie", err)
		return
	}
	jsonutil.OK(w, m)
}

// ServeCollections handles GET /api/movies/{id}/collections: the
// collections that list the movie.
func (h *Handler) ServeCollections(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Scan(), h.Log, "collections containing movie")
	defer cancel()

	cols, err := h.Collections.ContainingMovie(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Respond(w, r, "failed to load collections for movie", err)
		return
	}
	jsonutil.OK(w, cols)
}

// flexString accepts a JSON string or number, so clients may send the year
// either way.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("year must be a string or number")
	}
	*f = flexString(n.String())
	return nil
}

type createRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Year        flexString `json:"year"`
	Genre       string     `json:"genre"`
	Poster      string     `json:"poster"`
}

// HandleCreate handles POST /api/movies (admin).
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		jsonutil.BadRequest(w, "Invalid request body.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Store(), h.Log, "create movie")
	defer cancel()

	m, err := h.Movies.Create(ctx, models.MovieInput{
		Title:       req.Title,
		Description: req.Description,
		Year:        string(req.Year),
		Genre:       req.Genre,
		Poster:      req.Poster,
	})
	if err != nil {
		h.ErrLog.Respond(w, r, "failed to create movie", err)
		return
	}

	h.Audit.MovieCreated(ctx, r, authz.ActorID(r), m.ID, m.Title)
	jsonutil.Created(w, m)
}

// HandleDelete handles DELETE /api/movies/{id} (admin). The cascade may
// leave references behind; the response then lists the collections and
// the movie is still gone.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Scan(), h.Log, "delete movie")
	defer cancel()

	err := h.Movies.Delete(ctx, id)

	// the cascade may have used up ctx; the audit write gets its own deadline
	var ce *models.CascadeError
	switch {
	case err == nil:
		actx, acancel := auditContext(r, h.Log)
		defer acancel()
		h.Audit.MovieDeleted(actx, r, authz.ActorID(r), id, nil)
		jsonutil.NoContent(w)
	case errors.As(err, &ce):
		actx, acancel := auditContext(r, h.Log)
		defer acancel()
		h.Audit.MovieDeleted(actx, r, authz.ActorID(r), id, ce)
		h.ErrLog.Respond(w, r, "movie delete cascade incomplete", err)
	default:
		h.ErrLog.Respond(w, r, "failed to delete movie", err)
	}
}

// auditContext detaches from the request's cancellation and applies the
// store timeout.
func auditContext(r *http.Request, log *zap.Logger) (context.Context, context.CancelFunc) {
	return timeouts.WithTimeout(context.WithoutCancel(r.Context()), timeouts.Store(), log, "audit movie delete")
}
