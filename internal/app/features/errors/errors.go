// internal/app/features/errors/errors.go
package errors

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/stratareel/internal/app/system/jsonutil"
	"github.com/dalemusser/stratareel/internal/domain/models"
	"go.uber.org/zap"
)

// ErrorLogger wraps the zap logger for error logging.
type ErrorLogger struct {
	logger *zap.Logger
}

// NewErrorLogger creates a new ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{logger: logger}
}

// Log logs an error with the given message and error.
func (e *ErrorLogger) Log(r *http.Request, msg string, err error) {
	e.LogWithFields(r, msg, err)
}

// LogWithFields logs an error with additional fields.
func (e *ErrorLogger) LogWithFields(r *http.Request, msg string, err error, fields ...zap.Field) {
	all := append([]zap.Field{
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	}, fields...)
	e.logger.Error(msg, all...)
}

// cascadeBody is the 500 body for a movie delete whose cascade left
// references behind.
type cascadeBody struct {
	Error       string   `json:"error"`
	Collections []string `json:"collections"`
}

// Respond writes the JSON response for a repository error:
//
//	*models.ValidationError  400 {"error", "fields"}
//	*models.CascadeError     500 {"error", "collections"}
//	models.ErrNotFound       404
//	deadline exceeded        503
//	anything else            500, generic message
//
// 5xx responses are logged with msg.
func (e *ErrorLogger) Respond(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var ve *models.ValidationError
	var ce *models.CascadeError
	var nf *models.NotFoundError

	switch {
	case stderrors.As(err, &ve):
		jsonutil.ValidationError(w, ve.Error(), ve.Fields())
	case stderrors.As(err, &ce):
		ids := ce.CollectionIDs()
		e.LogWithFields(r, msg, err, zap.Strings("collections", ids))
		text := "The movie was deleted but some collections still reference it."
		if ce.ScanErr != nil {
			text = "The movie was deleted but its collection references could not be checked."
		}
		jsonutil.JSON(w, http.StatusInternalServerError, cascadeBody{
			Error:       text,
			Collections: ids,
		})
	case stderrors.As(err, &nf):
		jsonutil.NotFound(w, notFoundMessage(nf.Kind))
	case stderrors.Is(err, models.ErrNotFound):
		jsonutil.NotFound(w, "Not found.")
	case stderrors.Is(err, context.DeadlineExceeded):
		e.Log(r, msg, err)
		jsonutil.Error(w, http.StatusServiceUnavailable, "The request timed out. Please try again.")
	default:
		e.Log(r, msg, err)
		jsonutil.InternalError(w, "Something went wrong. Please try again.")
	}
}

func notFoundMessage(kind string) string {
	switch kind {
	case "movie":
		return "Movie not found."
	case "collection":
		return "Collection not found."
	}
	return "Not found."
}

// Handler serves the router's fallback responses.
type Handler struct{}

// NewHandler creates a new error Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound is the router's 404 for unknown paths.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	jsonutil.NotFound(w, "Not found.")
}

// MethodNotAllowed is the router's 405.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonutil.Error(w, http.StatusMethodNotAllowed, "Method not allowed.")
}
