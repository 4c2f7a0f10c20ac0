package moviesfeature

import (
	"context"
	"errors"
	"net/http"
	"testing"

	errorsfeature "github.com/dalemusser/stratareel/internal/app/features/errors"
	collectionstore "github.com/dalemusser/stratareel/internal/app/store/collections"
	"github.com/dalemusser/stratareel/internal/app/store/docstore"
	moviestore "github.com/dalemusser/stratareel/internal/app/store/movies"
	"github.com/dalemusser/stratareel/internal/app/system/auditlog"
	"github.com/dalemusser/stratareel/internal/app/system/auth"
	"github.com/dalemusser/stratareel/internal/app/system/integrity"
	"github.com/dalemusser/stratareel/internal/domain/models"
	"github.com/dalemusser/stratareel/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// brokenCollections fails every write to a collection document.
type brokenCollections struct {
	docstore.Client
}

func (b brokenCollections) Update(ctx context.Context, coll, id string, upd docstore.Update) error {
	if coll == integrity.Collections {
		return errors.New("write refused")
	}
	return b.Client.Update(ctx, coll, id, upd)
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

type fixture struct {
	h    *Handler
	cols *collectionstore.Store
}

func newFixture(t *testing.T, docs docstore.Client) fixture {
	t.Helper()
	if docs == nil {
		docs = docstore.NewMemory()
	}
	logger := zap.NewNop()
	coord := integrity.New(docs, logger)
	movies := moviestore.New(docs, coord, logger)
	cols := collectionstore.New(docs, coord, logger)
	h := NewHandler(movies, cols, nil, errorsfeature.NewErrorLogger(logger), 2, logger)
	return fixture{h: h, cols: cols}
}

func (f fixture) addMovie(t *testing.T, title string) models.Movie {
	t.Helper()
	m, err := f.h.Movies.Create(context.Background(), models.MovieInput{
		Title:       title,
		Description: title + " description",
		Year:        "1999",
		Genre:       "Drama",
		Poster:      "https://posters.example.com/" + title + ".jpg",
	})
	if err != nil {
		t.Fatalf("Create(%q) error = %v", title, err)
	}
	return m
}

func (f fixture) addCollection(t *testing.T, name string, movieIDs ...string) models.Collection {
	t.Helper()
	col, err := f.cols.Create(context.Background(), name, movieIDs...)
	if err != nil {
		t.Fatalf("Create collection %q error = %v", name, err)
	}
	return col
}

func router(t *testing.T, h *Handler) http.Handler {
	t.Helper()
	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "", "", 0, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}
	return Routes(h, sm)
}

func TestServeList(t *testing.T) {
	f := newFixture(t, nil)
	f.addMovie(t, "Heat")
	f.addMovie(t, "Alien")

	rec := testutil.NewRecorder()
	f.h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/", nil, testutil.RegularUser()))

	rec.AssertStatus(t, http.StatusOK)
	var got []models.Movie
	rec.DecodeJSON(t, &got)
	if len(got) != 2 {
		t.Errorf("len(movies) = %d, want 2", len(got))
	}
}

func TestServeFeatured(t *testing.T) {
	f := newFixture(t, nil)
	for _, title := range []string{"Heat", "Alien", "Ran"} {
		f.addMovie(t, title)
	}

	tests := []struct {
		name   string
		target string
		status int
		want   int
	}{
		{"configured default", "/featured", http.StatusOK, 2},
		{"explicit limit", "/featured?limit=1", http.StatusOK, 1},
		{"limit above catalog size", "/featured?limit=10", http.StatusOK, 3},
		{"zero limit", "/featured?limit=0", http.StatusBadRequest, 0},
		{"not a number", "/featured?limit=abc", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			f.h.ServeFeatured(rec, testutil.NewRequest(http.MethodGet, tt.target, nil))
			rec.AssertStatus(t, tt.status)
			if tt.status != http.StatusOK {
				return
			}
			var got []models.Movie
			rec.DecodeJSON(t, &got)
			if len(got) != tt.want {
				t.Errorf("len(featured) = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestServeDetail(t *testing.T) {
	f := newFixture(t, nil)
	m := f.addMovie(t, "Heat")

	rec := testutil.NewRecorder()
	f.h.ServeDetail(rec, testutil.WithURLParams(testutil.NewRequest(http.MethodGet, "/", nil), "id", m.ID))
	rec.AssertStatus(t, http.StatusOK)
	var got models.Movie
	rec.DecodeJSON(t, &got)
	if got != m {
		t.Errorf("ServeDetail() = %+v, want %+v", got, m)
	}

	rec = testutil.NewRecorder()
	f.h.ServeDetail(rec, testutil.WithURLParams(testutil.NewRequest(http.MethodGet, "/", nil), "id", "missing"))
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertContains(t, "Movie not found.")
}

func TestServeCollections(t *testing.T) {
	f := newFixture(t, nil)
	heat := f.addMovie(t, "Heat")
	alien := f.addMovie(t, "Alien")
	f.addCollection(t, "Crime", heat.ID)
	f.addCollection(t, "Space", alien.ID)

	rec := testutil.NewRecorder()
	f.h.ServeCollections(rec, testutil.WithURLParams(testutil.NewRequest(http.MethodGet, "/", nil), "id", heat.ID))
	rec.AssertStatus(t, http.StatusOK)
	var got []models.Collection
	rec.DecodeJSON(t, &got)
	if len(got) != 1 {
		t.Fatalf("len(collections) = %d, want 1", len(got))
	}
	if got[0].Name != "Crime" {
		t.Errorf("Name = %q, want Crime", got[0].Name)
	}
}

func TestHandleCreate(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		status int
		year   int
	}{
		{
			name: "numeric year",
			body: map[string]any{
				"title": "Heat", "description": "Heist", "year": 1995,
				"genre": "Crime", "poster": "https://posters.example.com/heat.jpg",
			},
			status: http.StatusCreated,
			year:   1995,
		},
		{
			name: "string year",
			body: map[string]any{
				"title": "Ran", "description": "King Lear", "year": "1985",
				"genre": "Drama", "poster": "https://posters.example.com/ran.jpg",
			},
			status: http.StatusCreated,
			year:   1985,
		},
		{
			name: "relative poster",
			body: map[string]any{
				"title": "Heat", "description": "Heist", "year": 1995,
				"genre": "Crime", "poster": "/posters/heat.jpg",
			},
			status: http.StatusCreated,
			year:   1995,
		},
		{
			name: "missing title",
			body: map[string]any{
				"description": "Heist", "year": 1995,
				"genre": "Crime", "poster": "https://posters.example.com/heat.jpg",
			},
			status: http.StatusBadRequest,
		},
		{
			name: "missing poster",
			body: map[string]any{
				"title": "Heat", "description": "Heist", "year": 1995, "genre": "Crime",
			},
			status: http.StatusBadRequest,
		},
		{
			name:   "malformed body",
			body:   "{",
			status: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			rec := testutil.NewRecorder()
			f.h.HandleCreate(rec, testutil.NewAuthenticatedRequest(http.MethodPost, "/", tt.body, testutil.AdminUser()))
			rec.AssertStatus(t, tt.status)
			if tt.status != http.StatusCreated {
				return
			}
			var got models.Movie
			rec.DecodeJSON(t, &got)
			if got.ID == "" {
				t.Error("created movie has no id")
			}
			if got.Year != tt.year {
				t.Errorf("Year = %d, want %d", got.Year, tt.year)
			}
		})
	}
}

func TestHandleDelete(t *testing.T) {
	f := newFixture(t, nil)
	heat := f.addMovie(t, "Heat")
	col := f.addCollection(t, "Crime", heat.ID)

	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/", nil, testutil.AdminUser())
	rec := testutil.NewRecorder()
	f.h.HandleDelete(rec, testutil.WithURLParams(req, "id", heat.ID))
	rec.AssertStatus(t, http.StatusNoContent)

	got, err := f.cols.GetByID(context.Background(), col.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(got.MovieIDs) != 0 {
		t.Errorf("MovieIDs = %v, want empty", got.MovieIDs)
	}

	// a second delete finds nothing
	rec = testutil.NewRecorder()
	f.h.HandleDelete(rec, testutil.WithURLParams(req, "id", heat.ID))
	rec.AssertStatus(t, http.StatusNotFound)
}

type cascadeBody struct {
	Error       string   `json:"error"`
	Collections []string `json:"collections"`
}

func TestHandleDelete_CascadeIncomplete(t *testing.T) {
	f := newFixture(t, brokenCollections{Client: docstore.NewMemory()})
	heat := f.addMovie(t, "Heat")
	col := f.addCollection(t, "Crime", heat.ID)

	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/", nil, testutil.AdminUser())
	rec := testutil.NewRecorder()
	f.h.HandleDelete(rec, testutil.WithURLParams(req, "id", heat.ID))

	rec.AssertStatus(t, http.StatusInternalServerError)
	var body cascadeBody
	rec.DecodeJSON(t, &body)
	if len(body.Collections) != 1 || body.Collections[0] != col.ID {
		t.Errorf("collections = %v, want [%s]", body.Collections, col.ID)
	}

	if _, err := f.h.Movies.GetByID(context.Background(), heat.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound (movie stays deleted)", err)
	}
}

func TestHandleDelete_ScanFailureIsReportedAndAudited(t *testing.T) {
	f := newFixture(t, unlistedCollections{Client: docstore.NewMemory()})
	core, logs := observer.New(zap.InfoLevel)
	f.h.Audit = auditlog.New(nil, zap.New(core), auditlog.Config{Admin: "log"})
	heat := f.addMovie(t, "Heat")

	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/", nil, testutil.AdminUser())
	rec := testutil.NewRecorder()
	f.h.HandleDelete(rec, testutil.WithURLParams(req, "id", heat.ID))

	rec.AssertStatus(t, http.StatusInternalServerError)
	var body cascadeBody
	rec.DecodeJSON(t, &body)
	if body.Error != "The movie was deleted but its collection references could not be checked." {
		t.Errorf("error = %q", body.Error)
	}

	audits := logs.FilterMessage("audit event").All()
	if len(audits) != 1 {
		t.Fatalf("audit events = %d, want 1", len(audits))
	}
	fields := audits[0].ContextMap()
	if fields["event_type"] != "movie_deleted" || fields["success"] != false {
		t.Errorf("audit fields = %v, want failed movie_deleted", fields)
	}
	if fields["failure_reason"] != "cascade scan failed" {
		t.Errorf("failure_reason = %v", fields["failure_reason"])
	}

	if _, err := f.h.Movies.GetByID(context.Background(), heat.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestAuditContext_OutlivesRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	req := testutil.NewRequest(http.MethodDelete, "/", nil).WithContext(ctx)
	cancel()

	actx, acancel := auditContext(req, zap.NewNop())
	defer acancel()

	if err := actx.Err(); err != nil {
		t.Errorf("audit context error = %v, want live context", err)
	}
	if _, ok := actx.Deadline(); !ok {
		t.Error("audit context should carry the store timeout")
	}
}

func TestRoutes_RoleGates(t *testing.T) {
	f := newFixture(t, nil)
	m := f.addMovie(t, "Heat")
	r := router(t, f.h)

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"anonymous list", testutil.NewRequest(http.MethodGet, "/", nil), http.StatusUnauthorized},
		{"user list", testutil.NewAuthenticatedRequest(http.MethodGet, "/", nil, testutil.RegularUser()), http.StatusOK},
		{"user featured", testutil.NewAuthenticatedRequest(http.MethodGet, "/featured", nil, testutil.RegularUser()), http.StatusOK},
		{"user detail", testutil.NewAuthenticatedRequest(http.MethodGet, "/"+m.ID, nil, testutil.RegularUser()), http.StatusOK},
		{"user create", testutil.NewAuthenticatedRequest(http.MethodPost, "/", map[string]string{"title": "X"}, testutil.RegularUser()), http.StatusForbidden},
		{"user delete", testutil.NewAuthenticatedRequest(http.MethodDelete, "/"+m.ID, nil, testutil.RegularUser()), http.StatusForbidden},
		{"admin delete", testutil.NewAuthenticatedRequest(http.MethodDelete, "/"+m.ID, nil, testutil.AdminUser()), http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			r.ServeHTTP(rec, tt.req)
			rec.AssertStatus(t, tt.status)
		})
	}
}

func TestFlexString(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{`1999`, "1999", false},
		{`"1999"`, "1999", false},
		{`null`, "", false},
		{`true`, "", true},
	}
	for _, tt := range tests {
		var f flexString
		err := f.UnmarshalJSON([]byte(tt.in))
		if tt.wantErr {
			if err == nil {
				t.Errorf("UnmarshalJSON(%s) = nil, want error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("UnmarshalJSON(%s) error = %v", tt.in, err)
			continue
		}
		if string(f) != tt.want {
			t.Errorf("UnmarshalJSON(%s) = %q, want %q", tt.in, string(f), tt.want)
		}
	}
}
