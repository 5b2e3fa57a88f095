// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"net/http"

	"github.com/fullfullelectronic/pos-system-macos/internal/apperr"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail      string            `json:"detail"`
	Fields      map[string]string `json:"fields,omitempty"`
	Violaciones []string          `json:"violaciones,omitempty"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// ConsistencyError tells the client the operation failed and left effects
// that an operator must reconcile.
type ConsistencyError struct {
	Detail         string `json:"detail"`
	ConciliacionID string `json:"conciliacion_id,omitempty"`
	Pendientes     int    `json:"pendientes"`
}

// Status maps the workflow error taxonomy to an HTTP status code.
func Status(err error) int {
	var ve *apperr.ValidationError
	var ce *apperr.ConsistencyError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ce):
		return http.StatusInternalServerError
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflicto):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrFondosInsuficientes),
		errors.Is(err, apperr.ErrStockInsuficiente),
		errors.Is(err, apperr.ErrCantidadInvalida):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// From returns the status and the response body for err. Internal errors
// get a generic message; their cause is for the logs only.
func From(err error) (int, any) {
	status := Status(err)

	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		return status, &ValidationError{Detail: "Error de validacion", Violaciones: ve.Violaciones}
	}
	var ce *apperr.ConsistencyError
	if errors.As(err, &ce) {
		return status, &ConsistencyError{
			Detail:         "La operación falló y quedaron cambios por conciliar",
			ConciliacionID: ce.ConciliacionID,
			Pendientes:     len(ce.Fallidas),
		}
	}
	if status == http.StatusInternalServerError {
		return status, New("Error interno del servidor")
	}
	return status, New(err.Error())
}
