package handler

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/outbackwarning/outbackwarning/internal/api/middleware"
	"github.com/outbackwarning/outbackwarning/internal/api/models"
	"github.com/outbackwarning/outbackwarning/internal/api/response"
	"github.com/outbackwarning/outbackwarning/internal/featureflags"
)

// FeatureFlagsHandler handles feature flag endpoints.
type FeatureFlagsHandler struct {
	service *featureflags.Service
	logger  zerolog.Logger
}

// NewFeatureFlagsHandler creates a new FeatureFlagsHandler.
func NewFeatureFlagsHandler(service *featureflags.Service, logger zerolog.Logger) *FeatureFlagsHandler {
	return &FeatureFlagsHandler{service: service, logger: logger}
}

// ListFeatureFlags handles GET /v1/admin/feature-flags - list all feature flags.
func (h *FeatureFlagsHandler) ListFeatureFlags(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		response.ServiceUnavailable(w, r, "feature flags are not configured")
		return
	}
	response.JSON(w, r, http.StatusOK, h.list(r))
}

// UpsertFeatureFlags handles PUT /v1/admin/feature-flags - update feature flags.
func (h *FeatureFlagsHandler) UpsertFeatureFlags(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		response.ServiceUnavailable(w, r, "feature flags are not configured")
		return
	}

	var req featureflags.FlagUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if len(req.Updates) == 0 {
		response.BadRequest(w, r, "at least one update is required", []models.FieldError{
			{Field: "updates", Message: "required", Code: "REQUIRED"},
		})
		return
	}

	var fieldErrors []models.FieldError
	flags := make([]*featureflags.Flag, 0, len(req.Updates))
	for _, u := range req.Updates {
		if !featureflags.IsKnown(u.Key) {
			fieldErrors = append(fieldErrors, models.FieldError{Field: "updates.key", Message: "unknown flag " + u.Key, Code: "UNKNOWN"})
			continue
		}
		if _, ok := u.Value.(bool); !ok {
			fieldErrors = append(fieldErrors, models.FieldError{Field: "updates.value", Message: u.Key + " must be a boolean", Code: "INVALID"})
			continue
		}
		flags = append(flags, &featureflags.Flag{
			Key:       u.Key,
			Value:     u.Value,
			UpdatedBy: middleware.GetOperator(r.Context()),
		})
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid flag updates", fieldErrors)
		return
	}

	if err := h.service.SetFlags(r.Context(), flags); err != nil {
		h.logger.Error().Err(err).Msg("failed to update feature flags")
		response.InternalError(w, r, "failed to update feature flags")
		return
	}

	h.logger.Info().
		Str("operator", middleware.GetOperator(r.Context())).
		Str("reason", req.Reason).
		Int("count", len(flags)).
		Msg("feature flags changed")

	response.JSON(w, r, http.StatusOK, h.list(r))
}

// ResetFeatureFlag handles DELETE /v1/admin/feature-flags/{key} - restore a flag's default.
func (h *FeatureFlagsHandler) ResetFeatureFlag(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		response.ServiceUnavailable(w, r, "feature flags are not configured")
		return
	}

	key := chi.URLParam(r, "key")
	if !featureflags.IsKnown(key) {
		response.NotFound(w, r, "unknown flag "+key)
		return
	}

	if err := h.service.ResetFlag(r.Context(), key); err != nil {
		h.logger.Error().Err(err).Str("key", key).Msg("failed to reset feature flag")
		response.InternalError(w, r, "failed to reset feature flag")
		return
	}

	h.logger.Info().
		Str("operator", middleware.GetOperator(r.Context())).
		Str("key", key).
		Msg("feature flag reset")

	response.JSON(w, r, http.StatusOK, h.list(r))
}

// InvalidateCache handles POST /v1/admin/feature-flags/invalidate - invalidate flag cache.
func (h *FeatureFlagsHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		response.ServiceUnavailable(w, r, "feature flags are not configured")
		return
	}
	h.service.InvalidateCache()
	response.NoContent(w, r)
}

func (h *FeatureFlagsHandler) list(r *http.Request) featureflags.FlagList {
	all := h.service.GetAllFlags(r.Context())
	items := make([]featureflags.Flag, 0, len(all))
	for _, f := range all {
		item := *f
		item.Description = featureflags.Describe(item.Key)
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return featureflags.FlagList{Items: items}
}
