package rediscache

import (
	"context"
	"strings"
	"time"

	"github.com/wonny/spds/internal/contracts"
	"github.com/wonny/spds/pkg/logger"
	"github.com/wonny/spds/pkg/redis"
)

// Cache is the subset of *redis.Cache used here
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// DistributionSource serves ticker distributions from Redis before hitting the backing source.
// Cache errors are logged and fall through; they never fail a load.
type DistributionSource struct {
	next   contracts.DistributionSource
	cache  Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewDistributionSource wraps next with a read-through cache
func NewDistributionSource(next contracts.DistributionSource, cache Cache, ttl time.Duration, log *logger.Logger) *DistributionSource {
	return &DistributionSource{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithComponent("distribution_cache"),
	}
}

// LoadDistribution implements contracts.DistributionSource
func (d *DistributionSource) LoadDistribution(ctx context.Context, ticker string) ([]float64, error) {
	key := redis.DistributionKey(strings.ToUpper(ticker))

	var cached []float64
	found, err := d.cache.Get(ctx, key, &cached)
	if err != nil {
		d.logger.WithError(err).WithField("ticker", ticker).Warn("Distribution cache read failed")
	}
	if found && len(cached) > 0 {
		return cached, nil
	}

	observations, err := d.next.LoadDistribution(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if err := d.cache.Set(ctx, key, observations, d.ttl); err != nil {
		d.logger.WithError(err).WithField("ticker", ticker).Warn("Distribution cache write failed")
	}
	return observations, nil
}
