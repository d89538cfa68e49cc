package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/outbackwarning/outbackwarning/internal/api/middleware"
	"github.com/outbackwarning/outbackwarning/internal/api/models"
	"github.com/outbackwarning/outbackwarning/internal/api/response"
)

// withRequestID returns a request whose context carries id, as RequestID
// would leave it for a client that sent that header.
func withRequestID(t *testing.T, method, path, id string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, http.NoBody)
	req.Header.Set(middleware.HeaderRequestID, id)

	var out *http.Request
	middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		out = r
	})).ServeHTTP(httptest.NewRecorder(), req)
	return out
}

func TestJSON(t *testing.T) {
	req := withRequestID(t, http.MethodGet, "/v1/ratings", "req-ratings-1")
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, models.RatingList{Items: []models.DistrictRating{}})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != response.ContentTypeJSON {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get(middleware.HeaderRequestID); got != "req-ratings-1" {
		t.Errorf("X-Request-Id = %q, want the caller's", got)
	}
}

func TestJSON_NoRequestIDOutsideMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()
	response.JSON(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody), http.StatusOK, nil)

	if got := rec.Header().Get(middleware.HeaderRequestID); got != "" {
		t.Errorf("X-Request-Id = %q, want none", got)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("nil data wrote %q", rec.Body.String())
	}
}

func TestGeoJSON(t *testing.T) {
	req := withRequestID(t, http.MethodGet, "/v1/map/incidents", "req-map-1")
	rec := httptest.NewRecorder()

	response.GeoJSON(rec, req, models.NewFeatureCollection(0))

	if got := rec.Header().Get("Content-Type"); got != response.ContentTypeGeoJSON {
		t.Errorf("Content-Type = %q", got)
	}
	var fc models.FeatureCollection
	if err := json.Unmarshal(rec.Body.Bytes(), &fc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fc.Type != "FeatureCollection" {
		t.Errorf("type = %q", fc.Type)
	}
}

func TestNoContent(t *testing.T) {
	req := withRequestID(t, http.MethodPost, "/v1/admin/feature-flags/invalidate", "req-inv-1")
	rec := httptest.NewRecorder()

	response.NoContent(rec, req)

	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Errorf("got %d with body %q", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(middleware.HeaderRequestID); got != "req-inv-1" {
		t.Errorf("X-Request-Id = %q", got)
	}
}

func TestProblemHelpers(t *testing.T) {
	tests := []struct {
		name     string
		write    func(http.ResponseWriter, *http.Request)
		status   int
		problem  string
		wantErrs int
	}{
		{
			name: "bad request",
			write: func(w http.ResponseWriter, r *http.Request) {
				response.BadRequest(w, r, "invalid query", []models.FieldError{{Field: "q", Message: "required"}})
			},
			status:   http.StatusBadRequest,
			problem:  models.ProblemTypeValidation,
			wantErrs: 1,
		},
		{
			name:    "not found",
			write:   func(w http.ResponseWriter, r *http.Request) { response.NotFound(w, r, "unknown flag") },
			status:  http.StatusNotFound,
			problem: models.ProblemTypeNotFound,
		},
		{
			name:    "internal",
			write:   func(w http.ResponseWriter, r *http.Request) { response.InternalError(w, r, "store failed") },
			status:  http.StatusInternalServerError,
			problem: models.ProblemTypeInternal,
		},
		{
			name:    "unavailable",
			write:   func(w http.ResponseWriter, r *http.Request) { response.ServiceUnavailable(w, r, "flags off") },
			status:  http.StatusServiceUnavailable,
			problem: models.ProblemTypeUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withRequestID(t, http.MethodGet, "/v1/risk", "req-problem-1")
			rec := httptest.NewRecorder()

			tt.write(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := rec.Header().Get("Content-Type"); got != "application/problem+json" {
				t.Errorf("Content-Type = %q", got)
			}

			var p models.Problem
			if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if p.Type != tt.problem {
				t.Errorf("type = %q, want %q", p.Type, tt.problem)
			}
			if p.Instance != "/v1/risk" {
				t.Errorf("instance = %q", p.Instance)
			}
			if p.TraceID != "req-problem-1" {
				t.Errorf("traceId = %q", p.TraceID)
			}
			if len(p.Errors) != tt.wantErrs {
				t.Errorf("errors = %v", p.Errors)
			}
		})
	}
}
