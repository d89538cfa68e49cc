package afdrs

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/outbackwarning/outbackwarning/internal/hazard"
)

// ChainName identifies the combined ratings source.
const ChainName = "afdrs-ratings"

// Chain tries rating providers in order and returns the first non-empty
// mapping. A provider error moves on to the next provider.
type Chain struct {
	providers []hazard.RatingProvider
	logger    zerolog.Logger
}

// NewChain creates a chain over providers in priority order.
func NewChain(logger zerolog.Logger, providers ...hazard.RatingProvider) *Chain {
	return &Chain{providers: providers, logger: logger}
}

// Name returns the chain name.
func (c *Chain) Name() string {
	return ChainName
}

// FetchRatings returns the first non-empty mapping. If none is found and any
// provider failed, the joined errors are returned so a cache keeps its last
// good mapping. Only when every provider succeeds empty is an empty mapping
// returned.
func (c *Chain) FetchRatings(ctx context.Context) (hazard.DistrictRatings, error) {
	var errs []error

	for _, p := range c.providers {
		ratings, err := p.FetchRatings(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Str("provider", p.Name()).Msg("ratings provider failed")
			errs = append(errs, err)
			continue
		}
		if len(ratings) > 0 {
			c.logger.Debug().Str("provider", p.Name()).Int("districts", len(ratings)).Msg("ratings loaded")
			return ratings, nil
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return hazard.DistrictRatings{}, nil
}
