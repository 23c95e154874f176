package geocode

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mentormatch/internal/common/errors"
	"mentormatch/internal/common/logger"
	"mentormatch/internal/common/metrics"
	"mentormatch/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyPrefix = "geo:postcode:"
	cacheMiss      = "miss"
)

// lookupService is the outbound geocoding contract (Nominatim in production,
// a test double in tests).
type lookupService interface {
	Lookup(ctx context.Context, postcode string) (*models.Coordinate, error)
}

// Resolver resolves 5-digit postcodes to coordinates. Results, positive and
// negative, are cached in Redis for the resolver's lifetime; the cache is the
// only state shared across concurrent workflow executions. Service failures
// degrade to the static regional fallback table instead of propagating.
type Resolver struct {
	lookup    lookupService
	cache     *redis.Client
	rateDelay time.Duration
	logger    logger.Logger
}

func NewResolver(lookup lookupService, cache *redis.Client, rateDelay time.Duration, log logger.Logger) *Resolver {
	return &Resolver{
		lookup:    lookup,
		cache:     cache,
		rateDelay: rateDelay,
		logger:    log.With(map[string]interface{}{"component": "geocode"}),
	}
}

// Resolve maps one postcode to a coordinate. A malformed postcode is a
// contract violation and returns a validation error; a service failure or an
// unknown postcode falls through to the regional fallback table; (nil, nil)
// means no coordinate is available at all.
func (r *Resolver) Resolve(ctx context.Context, postcode string) (*models.Coordinate, error) {
	postcode = strings.TrimSpace(postcode)
	if !isFiveDigits(postcode) {
		return nil, errors.NewValidationError(fmt.Sprintf("postcode must be a 5-digit code, got %q", postcode))
	}

	if coord, cached := r.cachedCoordinate(ctx, postcode); cached {
		if coord != nil {
			return coord, nil
		}
		// Cached negative result: only the fallback table can help.
		return FallbackCoordinate(postcode), nil
	}

	coord, err := r.lookup.Lookup(ctx, postcode)
	if err != nil {
		r.logger.Warn("geocoding lookup failed, using regional fallback", map[string]interface{}{
			"postcode": postcode,
			"error":    err.Error(),
		})
		// Do not cache transient failures.
		return FallbackCoordinate(postcode), nil
	}

	r.storeCoordinate(ctx, postcode, coord)

	if coord == nil {
		r.logger.Warn("postcode not found, using regional fallback", map[string]interface{}{
			"postcode": postcode,
		})
		return FallbackCoordinate(postcode), nil
	}

	return coord, nil
}

// ResolveMany resolves a batch of person-id -> postcode mappings. Individual
// failures are logged and skipped; the returned map contains only resolved
// ids. Calls to the external service are spaced by the configured delay to
// respect the provider's usage policy.
func (r *Resolver) ResolveMany(ctx context.Context, postcodes map[string]string) (map[string]models.Coordinate, error) {
	results := make(map[string]models.Coordinate, len(postcodes))

	for personID, postcode := range postcodes {
		coord, err := r.Resolve(ctx, postcode)
		if err != nil {
			r.logger.Warn("skipping postcode", map[string]interface{}{
				"personId": personID,
				"postcode": postcode,
				"error":    err.Error(),
			})
			continue
		}
		if coord != nil {
			results[personID] = *coord
		}

		select {
		case <-time.After(r.rateDelay):
		case <-ctx.Done():
			return results, ctx.Err()
		}
	}

	r.logger.Info("geocoding batch completed", map[string]interface{}{
		"resolved":  len(results),
		"requested": len(postcodes),
	})

	return results, nil
}

func (r *Resolver) cachedCoordinate(ctx context.Context, postcode string) (*models.Coordinate, bool) {
	val, err := r.cache.Get(ctx, cacheKeyPrefix+postcode).Result()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("geocode cache read failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}

	if val == cacheMiss {
		metrics.GeocodeCacheHits.WithLabelValues("negative").Inc()
		return nil, true
	}

	parts := strings.SplitN(val, ",", 2)
	if len(parts) != 2 {
		return nil, false
	}
	lat, latErr := strconv.ParseFloat(parts[0], 64)
	lng, lngErr := strconv.ParseFloat(parts[1], 64)
	if latErr != nil || lngErr != nil {
		return nil, false
	}

	metrics.GeocodeCacheHits.WithLabelValues("positive").Inc()
	return &models.Coordinate{Lat: lat, Lng: lng}, true
}

func (r *Resolver) storeCoordinate(ctx context.Context, postcode string, coord *models.Coordinate) {
	val := cacheMiss
	if coord != nil {
		val = strconv.FormatFloat(coord.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(coord.Lng, 'f', -1, 64)
	}

	// No TTL: entries are referentially stable for the resolver's lifetime.
	if err := r.cache.Set(ctx, cacheKeyPrefix+postcode, val, 0).Err(); err != nil {
		r.logger.Warn("geocode cache write failed", map[string]interface{}{"error": err.Error()})
	}
}
