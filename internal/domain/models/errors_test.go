package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_Is(t *testing.T) {
	err := fmt.Errorf("create collection: %w", NewValidationError("name", "No special characters allowed."))

	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrNotFound))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "No special characters allowed.", ve.Error())
	assert.Equal(t, map[string]string{"name": "No special characters allowed."}, ve.Fields())
}

func TestValidationError_Fields_KeepsFirstPerField(t *testing.T) {
	ve := &ValidationError{Errors: []FieldError{
		{Field: "title", Message: "first"},
		{Field: "title", Message: "second"},
		{Field: "year", Message: "Year must be a whole number."},
	}}

	assert.Equal(t, "first", ve.Error())
	assert.Equal(t, map[string]string{"title": "first", "year": "Year must be a whole number."}, ve.Fields())

	ve.Message = "All fields are required."
	assert.Equal(t, "All fields are required.", ve.Error())
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFound("movie", "abc")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, `movie "abc" not found`, err.Error())
}

func TestCascadeError(t *testing.T) {
	boom := errors.New("write timed out")
	err := &CascadeError{
		MovieID: "m1",
		Failed: map[string]error{
			"c2": boom,
			"c1": errors.New("connection reset"),
		},
	}

	assert.True(t, errors.Is(err, ErrStore))
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, []string{"c1", "c2"}, err.CollectionIDs())
	assert.Contains(t, err.Error(), "c1, c2")
}

func TestCascadeError_ScanFailure(t *testing.T) {
	scan := errors.New("list collections: timeout")
	err := &CascadeError{MovieID: "m1", ScanErr: scan}

	assert.True(t, errors.Is(err, ErrStore))
	assert.True(t, errors.Is(err, scan))
	assert.Empty(t, err.CollectionIDs())
	assert.Contains(t, err.Error(), "could not be scanned")
}

func TestCollection_Contains(t *testing.T) {
	c := Collection{MovieIDs: []string{"a", "b"}}

	assert.True(t, c.Contains("b"))
	assert.False(t, c.Contains("z"))
}

func TestLandingPath(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{RoleAdmin, "/admin-dashboard"},
		{RoleUser, "/dashboard"},
		{"", "/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			assert.Equal(t, tt.want, LandingPath(tt.role))
		})
	}
}
