// Package httputil provides JSON request parsing and response helpers
// shared by all handler groups, including the single translation point
// from service error taxonomy to HTTP status codes.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/caseflow-io/caseflow/pkg/authz"
)

// ErrBadRequest marks caller mistakes detected inside services, such
// as referencing an officer or office that does not exist. Services
// wrap it with detail; the detail is returned to the caller.
var ErrBadRequest = errors.New("bad request")

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteErrorMessage writes a JSON error body with the given status
func WriteErrorMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// WriteSuccess writes a 200 response with JSON data
func WriteSuccess(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteCreated writes a 201 response with JSON data
func WriteCreated(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusCreated, data)
}

// WriteNoContent writes a 204 response
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteBadRequest writes a 400 error
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusBadRequest, message)
}

// WriteUnauthorized writes a 401 error
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusUnauthorized, message)
}

// WriteForbidden writes a 403 error. The body is always the same
// generic message: a denial must not reveal whether it was the wrong
// office, wrong region, or an unassigned client.
func WriteForbidden(w http.ResponseWriter) {
	WriteErrorMessage(w, http.StatusForbidden, "access denied")
}

// WriteNotFound writes a 404 error
func WriteNotFound(w http.ResponseWriter) {
	WriteErrorMessage(w, http.StatusNotFound, "not found")
}

// WriteTooManyRequests writes a 429 error
func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusTooManyRequests, message)
}

// WriteInternalError writes a 500 error with a generic body. The
// underlying error is for the caller to log, never for the response.
func WriteInternalError(w http.ResponseWriter) {
	WriteErrorMessage(w, http.StatusInternalServerError, "internal error")
}

// WriteServiceError translates a service error into an HTTP response:
// authz.ErrNotFound to 404, authz.ErrForbidden to 403 with a generic
// body, ErrBadRequest to 400 with the wrapped detail, anything else to
// a generic 500. Returns true when the error was a client-facing one,
// false when the caller should log it as internal.
func WriteServiceError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, authz.ErrNotFound):
		WriteNotFound(w)
		return true
	case errors.Is(err, authz.ErrForbidden):
		WriteForbidden(w)
		return true
	case errors.Is(err, ErrBadRequest):
		WriteBadRequest(w, err.Error())
		return true
	default:
		WriteInternalError(w)
		return false
	}
}
