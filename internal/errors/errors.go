package errors

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-playground/validator/v10"

	"scibind/internal/docmodel"
	"scibind/internal/docmodel/export"
)

// APIError is an error with the HTTP status and client-facing message it maps to.
// Internal is logged but never sent to the client.
type APIError struct {
	Status   int               `json:"-"`
	Message  string            `json:"error"`
	Details  map[string]string `json:"details,omitempty"`
	Internal error             `json:"-"`
}

func (e *APIError) Error() string {
	if e.Internal != nil {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Internal
}

func New(status int, message string, err error) *APIError {
	return &APIError{Status: status, Message: message, Internal: err}
}

func BadRequest(message string, err error) *APIError {
	return New(http.StatusBadRequest, message, err)
}

func Unauthorized(message string, err error) *APIError {
	return New(http.StatusUnauthorized, message, err)
}

func Forbidden(message string, err error) *APIError {
	return New(http.StatusForbidden, message, err)
}

func NotFound(message string, err error) *APIError {
	return New(http.StatusNotFound, message, err)
}

func Conflict(message string, err error) *APIError {
	return New(http.StatusConflict, message, err)
}

func UnprocessableEntity(message string, err error) *APIError {
	return New(http.StatusUnprocessableEntity, message, err)
}

func Internal(err error) *APIError {
	return New(http.StatusInternalServerError, "Internal server error", err)
}

// NewValidationError turns binding and input-rule failures into a 422 with
// one message per field.
func NewValidationError(err error) *APIError {
	apiErr := UnprocessableEntity("Validation failed", err)

	var fieldErrs validator.ValidationErrors
	var ruleErrs validation.Errors
	switch {
	case errors.As(err, &fieldErrs):
		apiErr.Details = make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			apiErr.Details[fe.Field()] = "failed on " + fe.Tag()
		}
	case errors.As(err, &ruleErrs):
		apiErr.Details = make(map[string]string, len(ruleErrs))
		for field, fe := range ruleErrs {
			apiErr.Details[field] = fe.Error()
		}
	default:
		apiErr.Message = "Invalid request body"
	}
	return apiErr
}

// FromDomain maps document-model failures to HTTP errors. Errors that are
// already APIErrors pass through; anything unknown becomes a 500.
func FromDomain(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, docmodel.ErrDocumentNotFound):
		return NotFound("Document not found", err)
	case errors.Is(err, docmodel.ErrSectionNotFound):
		return NotFound("Section not found", err)
	case errors.Is(err, docmodel.ErrElementNotFound):
		return NotFound("Element not found", err)
	case errors.Is(err, docmodel.ErrCommentNotFound):
		return NotFound("Comment not found", err)
	case errors.Is(err, docmodel.ErrDocumentExists):
		return Conflict("Document already exists", err)
	case errors.Is(err, docmodel.ErrIndexOutOfRange):
		return UnprocessableEntity("Index out of range", err)
	case errors.Is(err, docmodel.ErrCellOutOfRange):
		return UnprocessableEntity("Table cell out of range", err)
	case errors.Is(err, docmodel.ErrInvalidTableShape):
		return UnprocessableEntity("Invalid table shape", err)
	case errors.Is(err, docmodel.ErrInvalidColumns):
		return UnprocessableEntity("Column count must be positive", err)
	case errors.Is(err, docmodel.ErrUnknownElementKind):
		return UnprocessableEntity("Unknown element type", err)
	case errors.Is(err, docmodel.ErrInvalidElement):
		return UnprocessableEntity("Invalid element", err)
	case errors.Is(err, export.ErrUnsupportedFormat):
		return BadRequest("Unsupported export format", err)
	default:
		return Internal(err)
	}
}
