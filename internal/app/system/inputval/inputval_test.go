package inputval

import (
	"errors"
	"testing"

	"github.com/dalemusser/stratareel/internal/domain/models"
)

func TestIsValidHTTPURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		// Valid URLs
		{"http://example.com", true},
		{"https://example.com", true},
		{"https://example.com/path", true},
		{"https://example.com/path?query=value", true},
		{"https://subdomain.example.com", true},
		{"http://localhost:8080", true},

		// Invalid URLs
		{"", false},
		{"   ", false},
		{"example.com", false},          // No scheme
		{"ftp://example.com", false},    // Wrong scheme
		{"file:///path/to/file", false}, // Wrong scheme
		{"javascript:alert(1)", false},  // Wrong scheme
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := IsValidHTTPURL(tt.url)
			if got != tt.want {
				t.Errorf("IsValidHTTPURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	type TestInput struct {
		Name  string `validate:"required" label:"Name"`
		Email string `validate:"required,email" label:"Email"`
	}

	tests := []struct {
		name      string
		input     TestInput
		wantError bool
	}{
		{
			name:      "valid input",
			input:     TestInput{Name: "John", Email: "john@example.com"},
			wantError: false,
		},
		{
			name:      "missing name",
			input:     TestInput{Name: "", Email: "john@example.com"},
			wantError: true,
		},
		{
			name:      "missing email",
			input:     TestInput{Name: "John", Email: ""},
			wantError: true,
		},
		{
			name:      "invalid email",
			input:     TestInput{Name: "John", Email: "notanemail"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.input)
			if tt.wantError && !result.HasErrors() {
				t.Errorf("Validate() expected errors, got none")
			}
			if !tt.wantError && result.HasErrors() {
				t.Errorf("Validate() expected no errors, got: %s", result.First())
			}
		})
	}
}

func TestResult_First(t *testing.T) {
	// Empty result
	r := &Result{}
	if got := r.First(); got != "" {
		t.Errorf("First() on empty result = %q, want empty string", got)
	}

	// Result with errors
	r = &Result{
		Errors: []FieldError{
			{Field: "name", Label: "Name", Message: "Name is required."},
			{Field: "email", Label: "Email", Message: "Email is required."},
		},
	}
	if got := r.First(); got != "Name is required." {
		t.Errorf("First() = %q, want %q", got, "Name is required.")
	}
}

func TestResult_HasErrors(t *testing.T) {
	// Empty result
	r := &Result{}
	if r.HasErrors() {
		t.Error("HasErrors() on empty result should return false")
	}

	// Result with errors
	r = &Result{
		Errors: []FieldError{
			{Field: "name", Label: "Name", Message: "Name is required."},
		},
	}
	if !r.HasErrors() {
		t.Error("HasErrors() with errors should return true")
	}
}

func TestIsValidCollectionName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Favorites", true},
		{"Watch Later 2", true},
		{"80s", true},
		{"", false},
		{"My Favs!", false},
		{"Sci-Fi", false},
		{"café", false},
		{"tab\there", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidCollectionName(tt.name); got != tt.want {
				t.Errorf("IsValidCollectionName(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestValidate_CustomRules(t *testing.T) {
	type NameInput struct {
		Name string `json:"name" validate:"required,collectionname" label:"Collection name"`
	}

	result := Validate(NameInput{Name: "Favorites"})
	if result.HasErrors() {
		t.Errorf("Validate() collectionname should be valid, got: %s", result.First())
	}

	result = Validate(NameInput{Name: "My Favs!"})
	if !result.HasErrors() {
		t.Fatal("Validate() collectionname with ! should fail")
	}
	if got := result.First(); got != "No special characters allowed." {
		t.Errorf("Validate() message = %q, want %q", got, "No special characters allowed.")
	}

	type URLInput struct {
		URL string `validate:"required,httpurl" label:"URL"`
	}

	result = Validate(URLInput{URL: "https://example.com"})
	if result.HasErrors() {
		t.Errorf("Validate() httpurl should be valid, got: %s", result.First())
	}

	result = Validate(URLInput{URL: "ftp://example.com"})
	if !result.HasErrors() {
		t.Error("Validate() httpurl=ftp should fail")
	}
}

func TestResult_Err(t *testing.T) {
	if err := (&Result{}).Err("ignored"); err != nil {
		t.Errorf("Err() on empty result = %v, want nil", err)
	}

	r := &Result{
		Errors: []FieldError{
			{Field: "title", Label: "Title", Message: "Title is required."},
			{Field: "year", Label: "Year", Message: "Year is required."},
		},
	}

	err := r.Err("")
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("Err() = %v, want ErrValidation", err)
	}
	if err.Error() != "Title is required." {
		t.Errorf("Err().Error() = %q, want first message", err.Error())
	}

	var ve *models.ValidationError
	if !errors.As(r.Err("All fields are required."), &ve) {
		t.Fatal("Err() should return *models.ValidationError")
	}
	if ve.Error() != "All fields are required." {
		t.Errorf("summary = %q, want %q", ve.Error(), "All fields are required.")
	}
	if got := ve.Fields()["year"]; got != "Year is required." {
		t.Errorf("Fields()[year] = %q, want %q", got, "Year is required.")
	}
}
func TestValidate_MinMaxRules(t *testing.T) {
	type LengthInput struct {
		Short string `validate:"min=3" label:"Short field"`
		Long  string `validate:"max=5" label:"Long field"`
	}

	// Valid lengths
	result := Validate(LengthInput{Short: "abc", Long: "12345"})
	if result.HasErrors() {
		t.Errorf("Validate() valid lengths should pass, got: %s", result.First())
	}

	// Too short
	result = Validate(LengthInput{Short: "ab", Long: "123"})
	if !result.HasErrors() {
		t.Error("Validate() short=ab should fail min=3")
	}

	// Too long
	result = Validate(LengthInput{Short: "abcd", Long: "123456"})
	if !result.HasErrors() {
		t.Error("Validate() long=123456 should fail max=5")
	}
}

func TestValidate_OneOfRule(t *testing.T) {
	type EnumInput struct {
		Status string `validate:"oneof=active inactive" label:"Status"`
	}

	result := Validate(EnumInput{Status: "active"})
	if result.HasErrors() {
		t.Errorf("Validate() oneof=active should be valid, got: %s", result.First())
	}

	result = Validate(EnumInput{Status: "deleted"})
	if !result.HasErrors() {
		t.Error("Validate() oneof=deleted should fail")
	}
}

func TestValidate_PointerStruct(t *testing.T) {
	type Input struct {
		Name string `validate:"required" label:"Name"`
	}

	input := &Input{Name: "test"}
	result := Validate(input)
	if result.HasErrors() {
		t.Errorf("Validate() pointer struct should work, got: %s", result.First())
	}
}

func TestValidate_NonStruct(t *testing.T) {
	// Validate with non-struct should not panic
	result := Validate("not a struct")
	// Should return empty result (no fields to validate)
	if result == nil {
		t.Error("Validate() non-struct should return non-nil result")
	}
}

func TestValidate_JSONTags(t *testing.T) {
	type Input struct {
		FullName string `json:"full_name" validate:"required" label:"Full name"`
	}

	result := Validate(Input{FullName: ""})
	if !result.HasErrors() {
		t.Error("Validate() empty FullName should fail")
	}
	// The label should be used in the message
	if result.First() != "Full name is required." {
		t.Errorf("Validate() error message = %q, want label-based message", result.First())
	}
}

func TestValidate_NoLabel(t *testing.T) {
	type Input struct {
		Name string `validate:"required"` // No label tag
	}

	result := Validate(Input{Name: ""})
	if !result.HasErrors() {
		t.Error("Validate() empty Name should fail")
	}
	// Should use field name when no label
	if result.First() != "Name is required." {
		t.Errorf("Validate() error message = %q, want field name message", result.First())
	}
}

func TestResult_Failed(t *testing.T) {
	type Input struct {
		Title string `json:"title" validate:"required" label:"Title"`
		Site  string `json:"site" validate:"required,httpurl" label:"Site"`
	}

	result := Validate(Input{Title: "", Site: "https://img.example.com/"})
	if !result.Failed("required") {
		t.Error("Failed(required) = false, want true for empty title")
	}
	if result.Failed("httpurl") {
		t.Error("Failed(httpurl) = true, want false")
	}

	result = Validate(Input{Title: "Dune", Site: "p.jpg"})
	if result.Failed("required") {
		t.Error("Failed(required) = true, want false")
	}
	if !result.Failed("httpurl") {
		t.Error("Failed(httpurl) = false, want true for a relative path")
	}
}
