package server

import (
	"encoding/json"
	"net/http"
)

// Problem types for RFC 7807 Problem Details responses.
const (
	ProblemTypeNotFound    = "https://markstash.dev/problems/not-found"
	ProblemTypeBadRequest  = "https://markstash.dev/problems/bad-request"
	ProblemTypeConflict    = "https://markstash.dev/problems/conflict"
	ProblemTypeDatabase    = "https://markstash.dev/problems/database-error"
	ProblemTypeInternal    = "https://markstash.dev/problems/internal-error"
	ProblemTypeRateLimited = "https://markstash.dev/problems/rate-limited"
	ProblemTypeUnavailable = "https://markstash.dev/problems/unavailable"
)

// Machine-readable error codes carried in Problem.Code.
const (
	CodeNotFound      = "NOT_FOUND"
	CodeBadRequest    = "BAD_REQUEST"
	CodeConflict      = "CONFLICT"
	CodeDatabaseError = "DATABASE_ERROR"
	CodeInternalError = "INTERNAL_ERROR"
	CodeRateLimited   = "RATE_LIMITED"
	CodeUnavailable   = "UNAVAILABLE"
)

// Problem represents an RFC 7807 Problem Details response, extended with
// a stable error code and optional per-field validation messages.
// @Description RFC 7807 Problem Details error response.
type Problem struct {
	Type     string            `json:"type" example:"https://markstash.dev/problems/not-found"`
	Title    string            `json:"title" example:"Not Found"`
	Status   int               `json:"status" example:"404"`
	Code     string            `json:"code" example:"NOT_FOUND"`
	Detail   string            `json:"detail,omitempty" example:"favorite 42 not found"`
	Instance string            `json:"instance,omitempty" example:"/api/favorites/42"`
	Errors   map[string]string `json:"errors,omitempty"`
}

// WriteProblem writes an RFC 7807 Problem Details JSON response.
func WriteProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func problem(typ, code string, status int, detail, instance string) Problem {
	return Problem{
		Type:     typ,
		Title:    http.StatusText(status),
		Status:   status,
		Code:     code,
		Detail:   detail,
		Instance: instance,
	}
}

// NotFound writes a 404 problem response.
func NotFound(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, problem(ProblemTypeNotFound, CodeNotFound, http.StatusNotFound, detail, instance))
}

// BadRequest writes a 400 problem response.
func BadRequest(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, problem(ProblemTypeBadRequest, CodeBadRequest, http.StatusBadRequest, detail, instance))
}

// ValidationFailed writes a 400 problem response listing field errors.
func ValidationFailed(w http.ResponseWriter, fields map[string]string, instance string) {
	p := problem(ProblemTypeBadRequest, CodeBadRequest, http.StatusBadRequest, "validation failed", instance)
	p.Errors = fields
	WriteProblem(w, p)
}

// Conflict writes a 409 problem response.
func Conflict(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, problem(ProblemTypeConflict, CodeConflict, http.StatusConflict, detail, instance))
}

// DatabaseError writes a 500 problem response for a failed store operation.
// detail must not carry raw driver text.
func DatabaseError(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, problem(ProblemTypeDatabase, CodeDatabaseError, http.StatusInternalServerError, detail, instance))
}

// InternalError writes a 500 problem response.
func InternalError(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, problem(ProblemTypeInternal, CodeInternalError, http.StatusInternalServerError, detail, instance))
}

// RateLimited writes a 429 problem response.
func RateLimited(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, problem(ProblemTypeRateLimited, CodeRateLimited, http.StatusTooManyRequests, detail, instance))
}

// Unavailable writes a 503 problem response.
func Unavailable(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, problem(ProblemTypeUnavailable, CodeUnavailable, http.StatusServiceUnavailable, detail, instance))
}
