// Package apierror provides standardized error response structures for the API
// plus the sentinel errors of the pricing core. All errors returned to clients
// go through this package to ensure consistency and to prevent leaking internal
// details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"net/http"
)

// Core error taxonomy. Services wrap these with fmt.Errorf("...: %w", ...) and
// handlers map them to HTTP status codes with StatusFor.
var (
	// ErrNotFound — an identifier does not resolve in the catalog store.
	ErrNotFound = errors.New("no encontrado")
	// ErrInvalidArgument — malformed identifier or out-of-range value.
	ErrInvalidArgument = errors.New("argumento invalido")
	// ErrNoPrice — neither an override nor a base price exists for the key.
	ErrNoPrice = errors.New("sin precio para la combinacion solicitada")
	// ErrCurrencyMismatch — override currency differs from the quote currency.
	ErrCurrencyMismatch = errors.New("moneda del precio no coincide con la cotizacion")
	// ErrConflict — more than one current override row for a key, or a
	// uniqueness invariant violated on write.
	ErrConflict = errors.New("conflicto de datos")
	// ErrTransient — network failure or upstream 5xx.
	ErrTransient = errors.New("error transitorio")
	// ErrPermission — the caller lacks rights for the operation.
	ErrPermission = errors.New("permisos insuficientes")
)

// StatusFor maps a core error to its HTTP status code. Unrecognized errors
// map to 500 and are logged by the error-handler middleware.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoPrice):
		return http.StatusNotFound
	case errors.Is(err, ErrCurrencyMismatch), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrTransient):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}
