package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/stratareel/internal/domain/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRespond(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		wantError string
		logged    bool
	}{
		{
			name:      "validation",
			err:       fmt.Errorf("create: %w", models.NewValidationError("name", "No special characters allowed.")),
			status:    http.StatusBadRequest,
			wantError: "No special characters allowed.",
		},
		{
			name:      "movie not found",
			err:       models.NewNotFound("movie", "m1"),
			status:    http.StatusNotFound,
			wantError: "Movie not found.",
		},
		{
			name:      "collection not found",
			err:       fmt.Errorf("rename: %w", models.NewNotFound("collection", "c1")),
			status:    http.StatusNotFound,
			wantError: "Collection not found.",
		},
		{
			name:      "bare sentinel",
			err:       models.ErrNotFound,
			status:    http.StatusNotFound,
			wantError: "Not found.",
		},
		{
			name:      "timeout",
			err:       fmt.Errorf("list: %w: %w", models.ErrStore, context.DeadlineExceeded),
			status:    http.StatusServiceUnavailable,
			wantError: "The request timed out. Please try again.",
			logged:    true,
		},
		{
			name:      "store",
			err:       fmt.Errorf("list: %w: connection refused", models.ErrStore),
			status:    http.StatusInternalServerError,
			wantError: "Something went wrong. Please try again.",
			logged:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.ErrorLevel)
			e := NewErrorLogger(zap.New(core))

			req := httptest.NewRequest(http.MethodGet, "/api/x", nil)
			rec := httptest.NewRecorder()
			e.Respond(rec, req, "request failed", tt.err)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("json unmarshal error: %v", err)
			}
			if body["error"] != tt.wantError {
				t.Errorf("error = %v, want %q", body["error"], tt.wantError)
			}
			if got := logs.Len() > 0; got != tt.logged {
				t.Errorf("logged = %v, want %v", got, tt.logged)
			}
		})
	}
}

func TestRespond_ValidationFields(t *testing.T) {
	e := NewErrorLogger(zap.NewNop())
	ve := &models.ValidationError{
		Message: "All fields are required.",
		Errors: []models.FieldError{
			{Field: "title", Message: "Title is required."},
			{Field: "genre", Message: "Genre is required."},
		},
	}

	rec := httptest.NewRecorder()
	e.Respond(rec, httptest.NewRequest(http.MethodPost, "/api/movies", nil), "create movie", ve)

	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("json unmarshal error: %v", err)
	}
	if body.Error != "All fields are required." {
		t.Errorf("error = %q", body.Error)
	}
	if body.Fields["title"] != "Title is required." || body.Fields["genre"] != "Genre is required." {
		t.Errorf("fields = %v", body.Fields)
	}
}

func TestRespond_Cascade(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	e := NewErrorLogger(zap.New(core))

	err := &models.CascadeError{
		MovieID: "m1",
		Failed:  map[string]error{"c2": fmt.Errorf("timeout"), "c1": fmt.Errorf("reset")},
	}
	rec := httptest.NewRecorder()
	e.Respond(rec, httptest.NewRequest(http.MethodDelete, "/api/movies/m1", nil), "delete movie", err)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var body cascadeBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("json unmarshal error: %v", err)
	}
	if len(body.Collections) != 2 || body.Collections[0] != "c1" || body.Collections[1] != "c2" {
		t.Errorf("collections = %v, want [c1 c2]", body.Collections)
	}
	if logs.Len() != 1 {
		t.Fatalf("logged %d entries, want 1", logs.Len())
	}
	if logs.All()[0].ContextMap()["path"] != "/api/movies/m1" {
		t.Errorf("log fields = %v", logs.All()[0].ContextMap())
	}
}

func TestRespond_CascadeScanFailure(t *testing.T) {
	e := NewErrorLogger(zap.NewNop())

	err := &models.CascadeError{MovieID: "m1", ScanErr: fmt.Errorf("list collections: timeout")}
	rec := httptest.NewRecorder()
	e.Respond(rec, httptest.NewRequest(http.MethodDelete, "/api/movies/m1", nil), "delete movie", err)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var body cascadeBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("json unmarshal error: %v", err)
	}
	if body.Error != "The movie was deleted but its collection references could not be checked." {
		t.Errorf("error = %q", body.Error)
	}
	if body.Collections == nil || len(body.Collections) != 0 {
		t.Errorf("collections = %v, want empty list", body.Collections)
	}
}

func TestHandler_Fallbacks(t *testing.T) {
	h := NewHandler()

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("NotFound status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodPut, "/api/movies", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("MethodNotAllowed status = %d", rec.Code)
	}
}

func TestErrorLogger_LogWithFields(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	e := NewErrorLogger(zap.New(core))

	req := httptest.NewRequest(http.MethodPost, "/api/collections", nil)
	e.LogWithFields(req, "create failed", fmt.Errorf("boom"), zap.String("collection_id", "c1"))

	if logs.Len() != 1 {
		t.Fatalf("logged %d entries, want 1", logs.Len())
	}
	fields := logs.All()[0].ContextMap()
	if fields["method"] != http.MethodPost || fields["collection_id"] != "c1" {
		t.Errorf("fields = %v", fields)
	}
}
