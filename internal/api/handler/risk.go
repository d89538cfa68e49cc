package handler

import (
	"net/http"
	"strings"

	"github.com/outbackwarning/outbackwarning/internal/api/models"
	"github.com/outbackwarning/outbackwarning/internal/api/response"
	"github.com/outbackwarning/outbackwarning/internal/featureflags"
	"github.com/outbackwarning/outbackwarning/internal/hazard"
	"github.com/outbackwarning/outbackwarning/internal/risk"
)

// maxQueryLength bounds the free-text location.
const maxQueryLength = 200

// RiskHandler handles location risk scoring.
type RiskHandler struct {
	scorer RiskAssessor
	flags  *featureflags.Service
}

// NewRiskHandler creates a new RiskHandler. flags may be nil.
func NewRiskHandler(scorer RiskAssessor, flags *featureflags.Service) *RiskHandler {
	return &RiskHandler{scorer: scorer, flags: flags}
}

// GetRisk handles GET /v1/risk?q=&district=&lowBandwidth= - score a location.
func (h *RiskHandler) GetRisk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		response.BadRequest(w, r, "a location is required", []models.FieldError{
			{Field: "q", Message: "required", Code: "REQUIRED"},
		})
		return
	}
	if len(q) > maxQueryLength {
		response.BadRequest(w, r, "location is too long", []models.FieldError{
			{Field: "q", Message: "must be at most 200 characters", Code: "TOO_LONG"},
		})
		return
	}

	districtName := strings.TrimSpace(r.URL.Query().Get("district"))
	lowBandwidth := queryBool(r.URL.Query().Get("lowBandwidth")) || h.flags.IsLowBandwidth(ctx)

	a := h.scorer.Assess(ctx, q, districtName, risk.Options{
		HotspotsDisabled: lowBandwidth || h.flags.HotspotsDisabled(ctx),
		CachedOnly:       h.flags.IsCachedOnlyFeeds(ctx),
	})

	resp := models.RiskResponse{
		Query:          q,
		Score:          a.Result.Score,
		District:       a.Result.District,
		Tags:           a.Result.Tags,
		Located:        a.Location != nil,
		RatingDistrict: a.RatingDistrict,
		Explanation:    risk.Explain(a.Result),
	}

	level := hazard.RatingUnknown
	if a.Breakdown.Rating != "" {
		level = a.Breakdown.Rating
		resp.Rating = string(level)
	}
	resp.Actions = risk.ActionsFor(level)

	if a.Location != nil {
		loc := a.Location.Coordinate
		resp.Location = &loc
		resp.DisplayName = a.Location.DisplayName
	}

	if !lowBandwidth {
		bd := a.Breakdown
		resp.Breakdown = &models.RiskBreakdown{
			NearestIncidentKm: bd.NearestIncidentKm,
			Proximity:         bd.Proximity,
			InsideWarning:     bd.InsideWarning,
			NearHotspot:       bd.NearHotspot,
			Base:              bd.Base,
			Multiplier:        bd.Multiplier,
		}
	}

	response.JSON(w, r, http.StatusOK, resp)
}
