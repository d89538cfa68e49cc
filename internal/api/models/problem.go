package models

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"
)

// Problem is an RFC 7807 error body, served as application/problem+json.
type Problem struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	TraceID  string       `json:"traceId"`
	Errors   []FieldError `json:"errors,omitempty"`

	// RetryAfter, when positive, is sent as a Retry-After header in whole
	// seconds.
	RetryAfter time.Duration `json:"-"`
}

// FieldError is a validation error on one request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

const problemBase = "https://api.outbackwarning.org/problems/"

// Problem type URIs.
const (
	ProblemTypeValidation      = problemBase + "validation-error"
	ProblemTypeUnauthorized    = problemBase + "unauthorized"
	ProblemTypeTLSRequired     = problemBase + "tls-required"
	ProblemTypeNotFound        = problemBase + "not-found"
	ProblemTypeTooManyRequests = problemBase + "too-many-requests"
	ProblemTypeInternal        = problemBase + "internal-error"
	ProblemTypeUnavailable     = problemBase + "service-unavailable"
)

type problemKind struct {
	uri    string
	title  string
	status int
}

var (
	kindValidation      = problemKind{ProblemTypeValidation, "Validation error", http.StatusBadRequest}
	kindUnauthorized    = problemKind{ProblemTypeUnauthorized, "Unauthorized", http.StatusUnauthorized}
	kindTLSRequired     = problemKind{ProblemTypeTLSRequired, "TLS required", http.StatusForbidden}
	kindNotFound        = problemKind{ProblemTypeNotFound, "Not found", http.StatusNotFound}
	kindTooManyRequests = problemKind{ProblemTypeTooManyRequests, "Too many requests", http.StatusTooManyRequests}
	kindInternal        = problemKind{ProblemTypeInternal, "Internal server error", http.StatusInternalServerError}
	kindUnavailable     = problemKind{ProblemTypeUnavailable, "Service unavailable", http.StatusServiceUnavailable}
)

func (k problemKind) new(traceID, detail string) *Problem {
	return &Problem{Type: k.uri, Title: k.title, Status: k.status, Detail: detail, TraceID: traceID}
}

// NewProblem creates a Problem of an arbitrary type.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	return problemKind{problemType, title, status}.new(traceID, "")
}

// At sets the request path the problem occurred on.
func (p *Problem) At(path string) *Problem {
	p.Instance = path
	return p
}

// Write writes the Problem as JSON to the ResponseWriter.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("X-Request-Id", p.TraceID)
	if p.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(p.RetryAfter.Seconds()))))
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NewBadRequest creates a 400 problem carrying field errors.
func NewBadRequest(traceID, detail string, errors []FieldError) *Problem {
	p := kindValidation.new(traceID, detail)
	p.Errors = errors
	return p
}

// NewUnauthorized creates a 401 problem for operator endpoints.
func NewUnauthorized(traceID, detail string) *Problem {
	return kindUnauthorized.new(traceID, detail)
}

// NewNotFound creates a 404 problem.
func NewNotFound(traceID, detail string) *Problem {
	return kindNotFound.new(traceID, detail)
}

// NewTLSRequired creates a 403 problem for plain HTTP requests.
func NewTLSRequired(traceID string) *Problem {
	return kindTLSRequired.new(traceID, "this API is only served over HTTPS")
}

// NewTooManyRequests creates a 429 problem. retryAfter may be zero.
func NewTooManyRequests(traceID, detail string, retryAfter time.Duration) *Problem {
	p := kindTooManyRequests.new(traceID, detail)
	p.RetryAfter = retryAfter
	return p
}

// NewInternalError creates a 500 problem.
func NewInternalError(traceID, detail string) *Problem {
	return kindInternal.new(traceID, detail)
}

// NewServiceUnavailable creates a 503 problem.
func NewServiceUnavailable(traceID, detail string) *Problem {
	return kindUnavailable.new(traceID, detail)
}
