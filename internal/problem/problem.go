// ABOUTME: RFC 7807 problem documents for HTTP error responses
// ABOUTME: Wraps moogar0880/problems with the typed error kinds the console uses

package problem

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/moogar0880/problems"
)

// MediaType is the content type of problem documents.
const MediaType = "application/problem+json"

// Problem types carried in the "type" member.
const (
	TypeValidation   = "validation_error"
	TypeNotFound     = "not_found"
	TypeUnauthorized = "unauthorized"
	TypeConflict     = "conflict"
	TypeInternal     = "internal_error"
)

// Write sends p with its status code.
func Write(w http.ResponseWriter, status int, p *problems.Problem) {
	w.Header().Set("Content-Type", MediaType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Default().With("component", "problem").Warn("failed to write problem document", "error", err)
	}
}

// BadRequest reports a malformed or invalid request.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	p := problems.NewStatusProblem(http.StatusBadRequest).
		WithInstance(r.URL.Path).
		WithType(TypeValidation).
		WithDetail(detail)
	Write(w, http.StatusBadRequest, p)
}

// NotFound reports a missing resource.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	p := problems.NewStatusProblem(http.StatusNotFound).
		WithInstance(r.URL.Path).
		WithType(TypeNotFound).
		WithDetail(detail)
	Write(w, http.StatusNotFound, p)
}

// Unauthorized reports a missing or rejected credential.
func Unauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	p := problems.NewStatusProblem(http.StatusUnauthorized).
		WithInstance(r.URL.Path).
		WithType(TypeUnauthorized).
		WithDetail(detail)
	Write(w, http.StatusUnauthorized, p)
}

// Conflict reports a request that does not fit the current state.
func Conflict(w http.ResponseWriter, r *http.Request, detail string) {
	p := problems.NewStatusProblem(http.StatusConflict).
		WithInstance(r.URL.Path).
		WithType(TypeConflict).
		WithDetail(detail)
	Write(w, http.StatusConflict, p)
}

// Internal reports an unexpected failure.
func Internal(w http.ResponseWriter, r *http.Request, err error) {
	p := problems.NewStatusProblem(http.StatusInternalServerError).
		WithInstance(r.URL.Path).
		WithType(TypeInternal).
		WithError(err)
	Write(w, http.StatusInternalServerError, p)
}
