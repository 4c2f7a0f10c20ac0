// Package integrity keeps collection movie references consistent with the
// movie catalog.
//
// The coordinator owns every rule that spans both document collections:
// cascading a movie delete into the collections that reference it,
// resolving a collection's ids back into movies, advisory name uniqueness,
// cover derivation, and the repair sweep for references left behind by a
// partially failed cascade.
//
// None of this is transactional. The cascade is a sequential scan with an
// independent write per collection, and name uniqueness is a read-then-write
// check that concurrent requests can both pass.
package integrity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/stratareel/internal/app/store/docstore"
	"github.com/dalemusser/stratareel/internal/domain/models"
	"go.uber.org/zap"
)

// Document collection names.
const (
	Movies      = "movies"
	Collections = "collections"
)

// Stored field holding a collection's movie ids.
const movieIDsField = "movie_ids"

// Coordinator enforces movie/collection reference rules over a document
// store.
type Coordinator struct {
	store        docstore.Client
	logger       *zap.Logger
	defaultCover string
}

// New creates a Coordinator over store.
func New(store docstore.Client, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		store:        store,
		logger:       logger,
		defaultCover: models.DefaultCoverURL,
	}
}

// SetDefaultCover overrides the placeholder cover URL. Empty keeps the
// current value.
func (c *Coordinator) SetDefaultCover(url string) {
	if url != "" {
		c.defaultCover = url
	}
}

// DefaultCover returns the placeholder cover URL.
func (c *Coordinator) DefaultCover() string {
	return c.defaultCover
}

/* ------------------------------- decoding ------------------------------- */

// DecodeMovie converts a stored document into a Movie.
func DecodeMovie(doc docstore.Document) (models.Movie, error) {
	var m models.Movie
	if err := docstore.Decode(doc, &m); err != nil {
		return models.Movie{}, fmt.Errorf("decode movie %s: %w", doc.ID, err)
	}
	m.ID = doc.ID
	return m, nil
}

// DecodeCollection converts a stored document into a Collection. A missing
// or null movie_ids field decodes as an empty list.
func DecodeCollection(doc docstore.Document) (models.Collection, error) {
	var col models.Collection
	if err := docstore.Decode(doc, &col); err != nil {
		return models.Collection{}, fmt.Errorf("decode collection %s: %w", doc.ID, err)
	}
	col.ID = doc.ID
	if col.MovieIDs == nil {
		col.MovieIDs = []string{}
	}
	return col, nil
}

// LoadCollections lists and decodes every collection.
func (c *Coordinator) LoadCollections(ctx context.Context) ([]models.Collection, error) {
	docs, err := c.store.List(ctx, Collections)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w: %w", models.ErrStore, err)
	}
	out := make([]models.Collection, 0, len(docs))
	for _, d := range docs {
		col, err := DecodeCollection(d)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrStore, err)
		}
		out = append(out, col)
	}
	return out, nil
}

/* -------------------------------- cascade ------------------------------- */

// CascadeMovieDelete removes movieID from every collection that references
// it. Call it after the movie document itself is gone.
//
// Every collection is attempted even if an earlier write fails. Failures are
// returned together as a *models.CascadeError; nothing is rolled back or
// retried. A collection deleted while the cascade runs is skipped. When the
// collections cannot be listed the CascadeError carries ScanErr instead.
func (c *Coordinator) CascadeMovieDelete(ctx context.Context, movieID string) error {
	cols, err := c.LoadCollections(ctx)
	if err != nil {
		c.logger.Error("cascade scan failed; references to deleted movie remain",
			zap.String("movie_id", movieID),
			zap.Error(err))
		return &models.CascadeError{MovieID: movieID, ScanErr: err}
	}

	failed := make(map[string]error)
	updated := 0
	for _, col := range cols {
		if !col.Contains(movieID) {
			continue
		}
		err := c.store.Update(ctx, Collections, col.ID, docstore.Update{
			ArrayRemove: map[string][]any{movieIDsField: {movieID}},
		})
		switch {
		case err == nil:
			updated++
		case errors.Is(err, docstore.ErrNoDocument):
			// deleted concurrently; nothing left to fix
		default:
			failed[col.ID] = err
			c.logger.Warn("cascade removal failed",
				zap.String("movie_id", movieID),
				zap.String("collection_id", col.ID),
				zap.Error(err))
		}
	}

	c.logger.Info("movie delete cascaded",
		zap.String("movie_id", movieID),
		zap.Int("collections_scanned", len(cols)),
		zap.Int("collections_updated", updated),
		zap.Int("collections_failed", len(failed)))

	if len(failed) > 0 {
		return &models.CascadeError{MovieID: movieID, Failed: failed}
	}
	return nil
}

/* ------------------------------- read side ------------------------------ */

// ResolveMovies fetches the movies for ids in order. Ids that do not resolve
// are dropped, as are ids whose lookup fails; the result never fails as a
// whole.
func (c *Coordinator) ResolveMovies(ctx context.Context, ids []string) []models.Movie {
	out := make([]models.Movie, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		doc, err := c.store.Get(ctx, Movies, id)
		if err != nil {
			if !errors.Is(err, docstore.ErrNoDocument) {
				c.logger.Warn("movie lookup failed; dropping from result",
					zap.String("movie_id", id),
					zap.Error(err))
			}
			continue
		}
		m, err := DecodeMovie(doc)
		if err != nil {
			c.logger.Warn("movie decode failed; dropping from result", zap.Error(err))
			continue
		}
		out = append(out, m)
	}
	return out
}

// CoverURL returns the poster of the collection's first movie, or the
// placeholder when there is no first movie, it does not resolve, it has no
// poster, or the lookup fails.
func (c *Coordinator) CoverURL(ctx context.Context, col models.Collection) string {
	if len(col.MovieIDs) == 0 {
		return c.defaultCover
	}
	doc, err := c.store.Get(ctx, Movies, col.MovieIDs[0])
	if err != nil {
		if !errors.Is(err, docstore.ErrNoDocument) {
			c.logger.Debug("cover lookup failed; using placeholder",
				zap.String("collection_id", col.ID),
				zap.Error(err))
		}
		return c.defaultCover
	}
	m, err := DecodeMovie(doc)
	if err != nil || strings.TrimSpace(m.Poster) == "" {
		return c.defaultCover
	}
	return m.Poster
}

/* ------------------------------ uniqueness ------------------------------ */

// CheckNameAvailable returns a validation error when another collection
// already uses name, compared case-insensitively. excludeID is the
// collection being renamed, or empty on create.
//
// The check is advisory: it is not atomic with the write that follows.
func (c *Coordinator) CheckNameAvailable(ctx context.Context, name, excludeID string) error {
	cols, err := c.LoadCollections(ctx)
	if err != nil {
		return err
	}
	for _, col := range cols {
		if col.ID == excludeID {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(col.Name), name) {
			return models.NewValidationError("name", "Collection name must be unique.")
		}
	}
	return nil
}
