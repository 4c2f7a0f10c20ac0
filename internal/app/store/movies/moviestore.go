// internal/app/store/movies/moviestore.go
package moviestore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dalemusser/stratareel/internal/app/store/docstore"
	"github.com/dalemusser/stratareel/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratareel/internal/app/system/inputval"
	"github.com/dalemusser/stratareel/internal/app/system/integrity"
	"github.com/dalemusser/stratareel/internal/domain/models"
	"go.uber.org/zap"
)

// Store is the movie catalog. Movies are created and deleted, never
// updated; deletes cascade into collections through the coordinator.
type Store struct {
	docs   docstore.Client
	coord  *integrity.Coordinator
	logger *zap.Logger
}

func New(docs docstore.Client, coord *integrity.Coordinator, logger *zap.Logger) *Store {
	return &Store{docs: docs, coord: coord, logger: logger}
}

// Create validates in and stores a new movie. Every field is required and
// the year must parse as an integer (any integer is accepted). The poster is
// stored as given, so relative paths work.
func (s *Store) Create(ctx context.Context, in models.MovieInput) (models.Movie, error) {
	in = models.MovieInput{
		Title:       htmlsanitize.Strip(in.Title),
		Description: htmlsanitize.Strip(in.Description),
		Year:        htmlsanitize.Strip(in.Year),
		Genre:       htmlsanitize.Strip(in.Genre),
		Poster:      htmlsanitize.Strip(in.Poster),
	}

	if res := inputval.Validate(in); res.HasErrors() {
		summary := ""
		if res.Failed("required") {
			summary = "All fields are required."
		}
		return models.Movie{}, res.Err(summary)
	}

	year, err := strconv.Atoi(in.Year)
	if err != nil {
		return models.Movie{}, models.NewValidationError("year", "Year must be a whole number.")
	}

	m := models.Movie{
		Title:       in.Title,
		Description: in.Description,
		Year:        year,
		Genre:       in.Genre,
		Poster:      in.Poster,
	}
	fields, err := docstore.Encode(m)
	if err != nil {
		return models.Movie{}, err
	}
	id, err := s.docs.Add(ctx, integrity.Movies, fields)
	if err != nil {
		return models.Movie{}, fmt.Errorf("add movie: %w: %w", models.ErrStore, err)
	}
	m.ID = id

	s.logger.Info("movie created", zap.String("movie_id", id), zap.String("title", m.Title))
	return m, nil
}

// List returns every movie in store order.
func (s *Store) List(ctx context.Context) ([]models.Movie, error) {
	docs, err := s.docs.List(ctx, integrity.Movies)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w: %w", models.ErrStore, err)
	}
	out := make([]models.Movie, 0, len(docs))
	for _, d := range docs {
		m, err := integrity.DecodeMovie(d)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrStore, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// Featured returns the first n movies of List. n <= 0 returns them all.
func (s *Store) Featured(ctx context.Context, n int) ([]models.Movie, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all, nil
}

// GetByID loads one movie.
func (s *Store) GetByID(ctx context.Context, id string) (models.Movie, error) {
	doc, err := s.docs.Get(ctx, integrity.Movies, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return models.Movie{}, models.NewNotFound("movie", id)
		}
		return models.Movie{}, fmt.Errorf("get movie %s: %w: %w", id, models.ErrStore, err)
	}
	m, err := integrity.DecodeMovie(doc)
	if err != nil {
		return models.Movie{}, fmt.Errorf("%w: %w", models.ErrStore, err)
	}
	return m, nil
}

// Delete removes the movie and then strips it from every collection.
//
// A missing movie is ErrNotFound and nothing is cascaded. When the cascade
// only partly succeeds the movie stays deleted and the returned
// *models.CascadeError names the collections still referencing it.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, integrity.Movies, id); err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return models.NewNotFound("movie", id)
		}
		return fmt.Errorf("delete movie %s: %w: %w", id, models.ErrStore, err)
	}
	s.logger.Info("movie deleted", zap.String("movie_id", id))

	return s.coord.CascadeMovieDelete(ctx, id)
}
