// internal/app/store/collections/collectionstore.go
package collectionstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/stratareel/internal/app/store/docstore"
	"github.com/dalemusser/stratareel/internal/app/system/inputval"
	"github.com/dalemusser/stratareel/internal/app/system/integrity"
	"github.com/dalemusser/stratareel/internal/app/system/normalize"
	"github.com/dalemusser/stratareel/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.uber.org/zap"
)

// Stored field names.
const (
	fieldName     = "name"
	fieldNameCI   = "name_ci"
	fieldMovieIDs = "movie_ids"
)

// nameInput carries a collection name through inputval.
type nameInput struct {
	Name string `json:"name" validate:"required,collectionname" label:"Collection name"`
}

// Store manages named collections of movie references. Name uniqueness and
// cover derivation are delegated to the integrity coordinator.
type Store struct {
	docs   docstore.Client
	coord  *integrity.Coordinator
	logger *zap.Logger
}

func New(docs docstore.Client, coord *integrity.Coordinator, logger *zap.Logger) *Store {
	return &Store{docs: docs, coord: coord, logger: logger}
}

// validateName trims name and checks it. excludeID is the collection being
// renamed, empty on create. Nothing is written.
func (s *Store) validateName(ctx context.Context, name, excludeID string) (string, error) {
	name = normalize.Name(name)
	if err := inputval.Validate(nameInput{Name: name}).Err(""); err != nil {
		return "", err
	}
	if err := s.coord.CheckNameAvailable(ctx, name, excludeID); err != nil {
		return "", err
	}
	return name, nil
}

// Create stores a new collection holding movieIDs (duplicates dropped,
// order kept). The name must be non-empty, made of letters, digits and
// spaces, and unique ignoring case.
func (s *Store) Create(ctx context.Context, name string, movieIDs ...string) (models.Collection, error) {
	name, err := s.validateName(ctx, name, "")
	if err != nil {
		return models.Collection{}, err
	}

	col := models.Collection{
		Name:     name,
		NameCI:   text.Fold(name),
		MovieIDs: dedupe(movieIDs),
	}
	fields, err := docstore.Encode(col)
	if err != nil {
		return models.Collection{}, err
	}
	id, err := s.docs.Add(ctx, integrity.Collections, fields)
	if err != nil {
		return models.Collection{}, fmt.Errorf("add collection: %w: %w", models.ErrStore, err)
	}
	col.ID = id
	col.CoverURL = s.coord.CoverURL(ctx, col)

	s.logger.Info("collection created",
		zap.String("collection_id", id),
		zap.String("name", name),
		zap.Int("movies", len(col.MovieIDs)))
	return col, nil
}

// Rename validates newName the same way as Create, ignoring the collection
// itself in the uniqueness check.
func (s *Store) Rename(ctx context.Context, id, newName string) (models.Collection, error) {
	if _, err := s.get(ctx, id); err != nil {
		return models.Collection{}, err
	}
	name, err := s.validateName(ctx, newName, id)
	if err != nil {
		return models.Collection{}, err
	}

	err = s.docs.Update(ctx, integrity.Collections, id, docstore.Update{
		Set: docstore.Fields{fieldName: name, fieldNameCI: text.Fold(name)},
	})
	if err != nil {
		return models.Collection{}, s.writeErr("rename", id, err)
	}
	return s.GetByID(ctx, id)
}

// AddMovies merges movieIDs into the collection. Ids already present are
// left where they are.
func (s *Store) AddMovies(ctx context.Context, id string, movieIDs []string) (models.Collection, error) {
	ids := dedupe(movieIDs)
	vals := make([]any, len(ids))
	for i, m := range ids {
		vals[i] = m
	}
	err := s.docs.Update(ctx, integrity.Collections, id, docstore.Update{
		ArrayUnion: map[string][]any{fieldMovieIDs: vals},
	})
	if err != nil {
		return models.Collection{}, s.writeErr("add movies to", id, err)
	}
	return s.GetByID(ctx, id)
}

// RemoveMovie drops movieID from the collection. Removing an id that is
// not there is a no-op.
func (s *Store) RemoveMovie(ctx context.Context, id, movieID string) (models.Collection, error) {
	err := s.docs.Update(ctx, integrity.Collections, id, docstore.Update{
		ArrayRemove: map[string][]any{fieldMovieIDs: {movieID}},
	})
	if err != nil {
		return models.Collection{}, s.writeErr("remove movie from", id, err)
	}
	return s.GetByID(ctx, id)
}

// Delete removes the collection. Movies are untouched.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, integrity.Collections, id); err != nil {
		return s.writeErr("delete", id, err)
	}
	s.logger.Info("collection deleted", zap.String("collection_id", id))
	return nil
}

// List returns every collection with its cover URL.
func (s *Store) List(ctx context.Context) ([]models.Collection, error) {
	cols, err := s.coord.LoadCollections(ctx)
	if err != nil {
		return nil, err
	}
	for i := range cols {
		cols[i].CoverURL = s.coord.CoverURL(ctx, cols[i])
	}
	return cols, nil
}

// GetByID loads one collection with its cover URL.
func (s *Store) GetByID(ctx context.Context, id string) (models.Collection, error) {
	col, err := s.get(ctx, id)
	if err != nil {
		return models.Collection{}, err
	}
	col.CoverURL = s.coord.CoverURL(ctx, col)
	return col, nil
}

// GetWithMovies loads a collection and the movies its ids resolve to.
// Ids without a movie are left out of Movies but kept in MovieIDs.
func (s *Store) GetWithMovies(ctx context.Context, id string) (models.CollectionWithMovies, error) {
	col, err := s.GetByID(ctx, id)
	if err != nil {
		return models.CollectionWithMovies{}, err
	}
	return models.CollectionWithMovies{
		Collection: col,
		Movies:     s.coord.ResolveMovies(ctx, col.MovieIDs),
	}, nil
}

// ContainingMovie returns the collections that reference movieID. Stores
// that support field queries answer directly; others are scanned.
func (s *Store) ContainingMovie(ctx context.Context, movieID string) ([]models.Collection, error) {
	var cols []models.Collection
	if q, ok := s.docs.(docstore.Querier); ok {
		docs, err := q.Where(ctx, integrity.Collections, fieldMovieIDs, movieID)
		if err != nil {
			return nil, fmt.Errorf("query collections: %w: %w", models.ErrStore, err)
		}
		for _, d := range docs {
			col, err := integrity.DecodeCollection(d)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", models.ErrStore, err)
			}
			cols = append(cols, col)
		}
	} else {
		all, err := s.coord.LoadCollections(ctx)
		if err != nil {
			return nil, err
		}
		for _, col := range all {
			if col.Contains(movieID) {
				cols = append(cols, col)
			}
		}
	}

	out := make([]models.Collection, 0, len(cols))
	for _, col := range cols {
		col.CoverURL = s.coord.CoverURL(ctx, col)
		out = append(out, col)
	}
	return out, nil
}

func (s *Store) get(ctx context.Context, id string) (models.Collection, error) {
	doc, err := s.docs.Get(ctx, integrity.Collections, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return models.Collection{}, models.NewNotFound("collection", id)
		}
		return models.Collection{}, fmt.Errorf("get collection %s: %w: %w", id, models.ErrStore, err)
	}
	col, err := integrity.DecodeCollection(doc)
	if err != nil {
		return models.Collection{}, fmt.Errorf("%w: %w", models.ErrStore, err)
	}
	return col, nil
}

func (s *Store) writeErr(op, id string, err error) error {
	if errors.Is(err, docstore.ErrNoDocument) {
		return models.NewNotFound("collection", id)
	}
	return fmt.Errorf("%s collection %s: %w: %w", op, id, models.ErrStore, err)
}

// dedupe drops repeated and empty ids, keeping first occurrences in order.
func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
