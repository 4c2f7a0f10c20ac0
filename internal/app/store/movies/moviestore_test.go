package moviestore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/stratareel/internal/app/store/docstore"
	moviestore "github.com/dalemusser/stratareel/internal/app/store/movies"
	"github.com/dalemusser/stratareel/internal/app/system/integrity"
	"github.com/dalemusser/stratareel/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStore(t *testing.T) (*moviestore.Store, *docstore.Memory) {
	t.Helper()
	mem := docstore.NewMemory()
	coord := integrity.New(mem, zap.NewNop())
	return moviestore.New(mem, coord, zap.NewNop()), mem
}

func duneInput() models.MovieInput {
	return models.MovieInput{
		Title:       "Dune",
		Description: "A noble family becomes embroiled in a war for a desert planet.",
		Year:        "2021",
		Genre:       "Sci-Fi",
		Poster:      "http://x/p.jpg",
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	m, err := store.Create(ctx, duneInput())
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "Dune", m.Title)
	assert.Equal(t, 2021, m.Year)

	got, err := store.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestCreate_StripsMarkup(t *testing.T) {
	in := duneInput()
	in.Title = "  <b>Dune</b> "
	in.Description = "Spice<script>alert(1)</script>"

	store, _ := newStore(t)
	m, err := store.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Dune", m.Title)
	assert.Equal(t, "Spice", m.Description)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.MovieInput)
		wantMsg string
	}{
		{"empty title", func(in *models.MovieInput) { in.Title = "" }, "All fields are required."},
		{"blank genre", func(in *models.MovieInput) { in.Genre = "   " }, "All fields are required."},
		{"markup only description", func(in *models.MovieInput) { in.Description = "<p></p>" }, "All fields are required."},
		{"year not a number", func(in *models.MovieInput) { in.Year = "twenty" }, "Year must be a whole number."},
		{"year with decimals", func(in *models.MovieInput) { in.Year = "2021.5" }, "Year must be a whole number."},
		{"blank poster", func(in *models.MovieInput) { in.Poster = " " }, "All fields are required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store, mem := newStore(t)
			in := duneInput()
			tt.mutate(&in)

			_, err := store.Create(ctx, in)
			require.ErrorIs(t, err, models.ErrValidation)
			assert.Equal(t, tt.wantMsg, err.Error())

			docs, err := mem.List(ctx, integrity.Movies)
			require.NoError(t, err)
			assert.Empty(t, docs, "rejected input must not be stored")
		})
	}
}

func TestCreate_PosterStoredAsGiven(t *testing.T) {
	for _, poster := range []string{"p.jpg", "/posters/dune.jpg", "/default-movie-cover.png"} {
		t.Run(poster, func(t *testing.T) {
			store, _ := newStore(t)
			in := duneInput()
			in.Poster = poster

			m, err := store.Create(context.Background(), in)
			require.NoError(t, err)
			assert.Equal(t, poster, m.Poster)
		})
	}
}

func TestCreate_AnyIntegerYear(t *testing.T) {
	store, _ := newStore(t)
	in := duneInput()
	in.Year = "-42"

	m, err := store.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, -42, m.Year)
}

func TestListAndFeatured(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	titles := []string{"Dune", "Heat", "Alien", "Ran"}
	for _, title := range titles {
		in := duneInput()
		in.Title = title
		_, err := store.Create(ctx, in)
		require.NoError(t, err)
	}

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i, m := range all {
		assert.Equal(t, titles[i], m.Title)
	}

	featured, err := store.Featured(ctx, 2)
	require.NoError(t, err)
	require.Len(t, featured, 2)
	assert.Equal(t, "Heat", featured[1].Title)

	everything, err := store.Featured(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, everything, 4)
}

func TestGetByID_NotFound(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestDelete_Cascades(t *testing.T) {
	ctx := context.Background()
	store, mem := newStore(t)

	dune, err := store.Create(ctx, duneInput())
	require.NoError(t, err)

	colID, err := mem.Add(ctx, integrity.Collections, docstore.Fields{
		"name": "Favorites", "name_ci": "favorites", "movie_ids": []string{dune.ID},
	})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, dune.ID))

	_, err = store.GetByID(ctx, dune.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	doc, err := mem.Get(ctx, integrity.Collections, colID)
	require.NoError(t, err)
	col, err := integrity.DecodeCollection(doc)
	require.NoError(t, err)
	assert.Empty(t, col.MovieIDs)
}

// unlistedCollections fails every listing of the collections set.
type unlistedCollections struct {
	docstore.Client
}

func (u unlistedCollections) List(ctx context.Context, coll string) ([]docstore.Document, error) {
	if coll == integrity.Collections {
		return nil, errors.New("scan timeout")
	}
	return u.Client.List(ctx, coll)
}

func TestDelete_ScanFailureStillReportsDelete(t *testing.T) {
	ctx := context.Background()
	mem := docstore.NewMemory()
	docs := unlistedCollections{Client: mem}
	store := moviestore.New(docs, integrity.New(docs, zap.NewNop()), zap.NewNop())

	dune, err := store.Create(ctx, duneInput())
	require.NoError(t, err)

	err = store.Delete(ctx, dune.ID)
	var cascadeErr *models.CascadeError
	require.ErrorAs(t, err, &cascadeErr)
	assert.Error(t, cascadeErr.ScanErr)

	_, err = store.GetByID(ctx, dune.ID)
	assert.ErrorIs(t, err, models.ErrNotFound, "movie stays deleted")
}

func TestDelete_Missing(t *testing.T) {
	store, _ := newStore(t)

	err := store.Delete(context.Background(), "missing")
	require.ErrorIs(t, err, models.ErrNotFound)
}
