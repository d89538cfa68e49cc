package handler

import (
	"net/http"
	"strconv"

	"github.com/outbackwarning/outbackwarning/internal/api/models"
	"github.com/outbackwarning/outbackwarning/internal/api/response"
	"github.com/outbackwarning/outbackwarning/internal/district"
	"github.com/outbackwarning/outbackwarning/internal/featureflags"
	"github.com/outbackwarning/outbackwarning/internal/hazard"
	"github.com/outbackwarning/outbackwarning/internal/risk"
)

// Feed list limits.
const (
	defaultFeedLimit = 50
	maxFeedLimit     = 200
)

// HazardHandler serves the district, rating, feed and contact listings.
type HazardHandler struct {
	feeds FeedReader
	flags *featureflags.Service
}

// NewHazardHandler creates a new HazardHandler. flags may be nil.
func NewHazardHandler(feeds FeedReader, flags *featureflags.Service) *HazardHandler {
	return &HazardHandler{feeds: feeds, flags: flags}
}

// ListDistricts handles GET /v1/districts.
func (h *HazardHandler) ListDistricts(w http.ResponseWriter, r *http.Request) {
	regions := district.Regions()
	items := make([]models.District, len(regions))
	for i, reg := range regions {
		items[i] = models.District{Name: reg.Name, Box: reg.Box, Center: reg.Box.Center()}
	}
	response.JSON(w, r, http.StatusOK, models.DistrictList{Items: items})
}

// ListRatings handles GET /v1/ratings - today's rating for every district.
func (h *HazardHandler) ListRatings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ratings := h.feeds.Current(ctx, h.flags.IsCachedOnlyFeeds(ctx)).Ratings
	withActions := !h.flags.IsLowBandwidth(ctx)

	names := district.Names()
	items := make([]models.DistrictRating, len(names))
	for i, name := range names {
		level := district.RatingFor(ratings, name)
		items[i] = models.DistrictRating{District: name, Rating: string(level)}
		if withActions {
			items[i].Actions = risk.ActionsFor(level)
		}
	}
	response.JSON(w, r, http.StatusOK, models.RatingList{Items: items})
}

// GetFeed handles GET /v1/feed?category=&limit= - incidents and warnings,
// newest first.
func (h *HazardHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	category, ok := hazard.ParseCategory(r.URL.Query().Get("category"))
	if !ok {
		response.BadRequest(w, r, "unknown category", []models.FieldError{
			{Field: "category", Message: "must be one of all, bushfire, flood, severe-weather", Code: "INVALID"},
		})
		return
	}

	limit := defaultFeedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxFeedLimit {
			response.BadRequest(w, r, "invalid limit", []models.FieldError{
				{Field: "limit", Message: "must be between 1 and 200", Code: "OUT_OF_RANGE"},
			})
			return
		}
		limit = n
	}

	snap := h.feeds.Current(ctx, h.flags.IsCachedOnlyFeeds(ctx))
	items := hazard.IncidentFeedItems(snap.Incidents)
	items = append(items, snap.Warnings.Items...)
	hazard.SortFeedItems(items)
	items = hazard.FilterFeedItems(items, category)

	total := len(items)
	if len(items) > limit {
		items = items[:limit]
	}
	response.JSON(w, r, http.StatusOK, models.FeedList{Items: items, Total: total})
}

// ListContacts handles GET /v1/contacts.
func (h *HazardHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.ContactList{Items: hazard.DefaultContacts()})
}
