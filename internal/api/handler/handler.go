// Package handler provides HTTP handlers for the Outback Early Warning API.
package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/outbackwarning/outbackwarning/internal/feedcache"
	"github.com/outbackwarning/outbackwarning/internal/provider/resilience"
	"github.com/outbackwarning/outbackwarning/internal/risk"
)

// FeedReader reads the cached hazard feeds.
type FeedReader interface {
	Current(ctx context.Context, cachedOnly bool) feedcache.Snapshot
}

// FeedStatusReader reports cache freshness per source.
type FeedStatusReader interface {
	Statuses() []feedcache.Status
}

// ProviderHealthReader reports upstream client health.
type ProviderHealthReader interface {
	GetAllHealth() []*resilience.ProviderHealth
}

// RiskAssessor scores a free-text location.
type RiskAssessor interface {
	Assess(ctx context.Context, query, districtName string, opts risk.Options) risk.Assessment
}

// queryBool reads a boolean query parameter. Unparseable values are false.
func queryBool(raw string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && v
}
