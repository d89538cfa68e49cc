package risk

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/outbackwarning/outbackwarning/internal/risk"

// Metrics holds the scoring instruments. A nil *Metrics records nothing.
type Metrics struct {
	scores          metric.Float64Histogram
	geocodeFailures metric.Int64Counter
}

// NewMetrics creates the scoring instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	scores, err := meter.Float64Histogram(
		"risk.score",
		metric.WithDescription("Distribution of computed risk scores"),
		metric.WithExplicitBucketBoundaries(0, 0.1, 0.25, 0.5, 0.75, 0.9, 1),
	)
	if err != nil {
		return nil, err
	}

	geocodeFailures, err := meter.Int64Counter(
		"risk.geocode.failures",
		metric.WithDescription("Queries that could not be geocoded"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{scores: scores, geocodeFailures: geocodeFailures}, nil
}

func (m *Metrics) recordScore(ctx context.Context, score float64, located bool) {
	if m == nil {
		return
	}
	m.scores.Record(ctx, score, metric.WithAttributes(attribute.Bool("risk.located", located)))
}

func (m *Metrics) recordGeocodeFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.geocodeFailures.Add(ctx, 1)
}
