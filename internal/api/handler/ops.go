package handler

import (
	"net/http"
	"sort"
	"time"

	"github.com/outbackwarning/outbackwarning/internal/api/models"
	"github.com/outbackwarning/outbackwarning/internal/api/response"
	"github.com/outbackwarning/outbackwarning/internal/featureflags"
	"github.com/outbackwarning/outbackwarning/internal/feedcache"
	"github.com/outbackwarning/outbackwarning/internal/provider/resilience"
)

// OpsHandlerConfig holds the dependencies of OpsHandler. Feeds, Providers
// and Flags may be nil.
type OpsHandlerConfig struct {
	Version   string
	BuildTime string
	Feeds     FeedStatusReader
	Providers ProviderHealthReader
	Flags     *featureflags.Service
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsHandlerConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsHandlerConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready. Feeds are fetched lazily, so an
// empty cache is reported as degraded rather than failing the probe.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if h.cfg.Feeds != nil {
		populated := 0
		for _, st := range h.cfg.Feeds.Statuses() {
			if st.State != feedcache.StateEmpty {
				populated++
			}
		}
		health.Details = map[string]interface{}{"populatedFeeds": populated}
		if populated == 0 {
			health.Status = models.HealthStatusDegraded
		}
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - feed freshness and provider health.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(time.Now()),
		Feeds:     []models.FeedStatus{},
		Providers: []models.ProviderStatus{},
	}

	failedFeeds := 0
	if h.cfg.Feeds != nil {
		for _, st := range h.cfg.Feeds.Statuses() {
			fs := feedStatus(st)
			if fs.Status == models.HealthStatusFail {
				failedFeeds++
			}
			status.Status = worst(status.Status, fs.Status)
			status.Feeds = append(status.Feeds, fs)
		}
		if len(status.Feeds) > 0 && failedFeeds < len(status.Feeds) && status.Status == models.HealthStatusFail {
			status.Status = models.HealthStatusDegraded
		}
	}

	if h.cfg.Providers != nil {
		providers := h.cfg.Providers.GetAllHealth()
		sort.Slice(providers, func(i, j int) bool { return providers[i].Name < providers[j].Name })
		for _, p := range providers {
			ps := providerStatus(p)
			if ps.Status != models.HealthStatusOK {
				status.Status = worst(status.Status, models.HealthStatusDegraded)
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	for _, key := range []string{
		featureflags.FlagLowBandwidthMode,
		featureflags.FlagDisableHotspots,
		featureflags.FlagCachedOnlyFeeds,
	} {
		if h.cfg.Flags.IsEnabled(r.Context(), key) {
			status.ActiveDegradationFlags = append(status.ActiveDegradationFlags, key)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

// feedStatus maps cache state to health: fresh is OK, stale is degraded,
// and an empty source that has failed is FAIL.
func feedStatus(st feedcache.Status) models.FeedStatus {
	fs := models.FeedStatus{
		Key:                 st.Key,
		Name:                st.Name,
		State:               string(st.State),
		Records:             st.Records,
		FetchedAt:           models.TimestampPtr(st.FetchedAt),
		ExpiresAt:           models.TimestampPtr(st.ExpiresAt),
		ConsecutiveFailures: st.ConsecutiveFailures,
	}
	if st.LastError != "" {
		msg := st.LastError
		fs.LastError = &msg
	}

	switch {
	case st.State == feedcache.StatePopulated:
		fs.Status = models.HealthStatusOK
	case st.State == feedcache.StateEmpty && st.LastError != "":
		fs.Status = models.HealthStatusFail
	default:
		fs.Status = models.HealthStatusDegraded
	}
	return fs
}

func providerStatus(p *resilience.ProviderHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:      p.Name,
		CircuitState:  p.CircuitState.String(),
		LastSuccessAt: models.TimestampPtr(p.LastSuccessAt),
		LastFailureAt: models.TimestampPtr(p.LastFailureAt),
	}
	switch p.Status() {
	case resilience.HealthOK:
		ps.Status = models.HealthStatusOK
	case resilience.HealthDegraded:
		ps.Status = models.HealthStatusDegraded
	default:
		ps.Status = models.HealthStatusFail
	}
	if p.LastError != "" {
		msg := p.LastError
		ps.Message = &msg
	}
	return ps
}

func worst(a, b models.HealthStatus) models.HealthStatus {
	rank := map[models.HealthStatus]int{
		models.HealthStatusOK:       0,
		models.HealthStatusDegraded: 1,
		models.HealthStatusFail:     2,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
