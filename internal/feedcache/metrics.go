package feedcache

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/outbackwarning/outbackwarning/internal/feedcache"

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Metrics holds the feed refresh instruments. A nil *Metrics records nothing.
type Metrics struct {
	refreshTotal    metric.Int64Counter
	refreshDuration metric.Float64Histogram
}

// NewMetrics creates the refresh instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	refreshTotal, err := meter.Int64Counter(
		"feedcache.refresh.total",
		metric.WithDescription("Feed refresh attempts by source and outcome"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, err
	}

	refreshDuration, err := meter.Float64Histogram(
		"feedcache.refresh.duration",
		metric.WithDescription("Duration of upstream feed fetches in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{refreshTotal: refreshTotal, refreshDuration: refreshDuration}, nil
}

func (m *Metrics) recordRefresh(ctx context.Context, source, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("feed.source", source),
		attribute.String("feed.outcome", outcome),
	)
	m.refreshTotal.Add(ctx, 1, attrs)
	m.refreshDuration.Record(ctx, d.Seconds(), attrs)
}
