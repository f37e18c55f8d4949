// README: Address geocoding via Google Maps with an in-memory cache and retries.
package maps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/maypok86/otter/v2"
	"github.com/rs/zerolog"
	"googlemaps.github.io/maps"

	"slotwise/internal/types"
)

var (
	// ErrNoResult is returned when the address does not resolve to any location.
	ErrNoResult = errors.New("address not found")
	// ErrDisabled is returned when no API key is configured.
	ErrDisabled = errors.New("geocoding disabled")
)

// geocodeClient is the subset of *maps.Client the geocoder needs.
type geocodeClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

type GeocoderOptions struct {
	CacheTTL  time.Duration
	CacheSize int
	Attempts  uint
	// Delay is the base backoff between attempts.
	Delay  time.Duration
	Region string
	Logger zerolog.Logger
}

// Geocoder resolves free-form addresses to coordinates.
type Geocoder struct {
	client   geocodeClient
	cache    *otter.Cache[string, types.Point]
	attempts uint
	delay    time.Duration
	region   string
	log      zerolog.Logger
}

// NewGeocoder creates a Geocoder with the given API Key. An empty key yields a
// Geocoder whose lookups fail with ErrDisabled.
func NewGeocoder(apiKey string, opts GeocoderOptions) (*Geocoder, error) {
	if apiKey == "" {
		return newGeocoder(nil, opts), nil
	}
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return newGeocoder(client, opts), nil
}

func newGeocoder(client geocodeClient, opts GeocoderOptions) *Geocoder {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 24 * time.Hour
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 10_000
	}
	if opts.Attempts == 0 {
		opts.Attempts = 3
	}
	if opts.Delay <= 0 {
		opts.Delay = 200 * time.Millisecond
	}
	return &Geocoder{
		client: client,
		cache: otter.Must(&otter.Options[string, types.Point]{
			MaximumSize:      opts.CacheSize,
			ExpiryCalculator: otter.ExpiryWriting[string, types.Point](opts.CacheTTL),
		}),
		attempts: opts.Attempts,
		delay:    opts.Delay,
		region:   opts.Region,
		log:      opts.Logger,
	}
}

func (g *Geocoder) Enabled() bool {
	return g.client != nil
}

// Geocode returns the location of the first result for address.
func (g *Geocoder) Geocode(ctx context.Context, address string) (types.Point, error) {
	if g.client == nil {
		return types.Point{}, ErrDisabled
	}
	key := normalizeAddress(address)
	if key == "" {
		return types.Point{}, fmt.Errorf("%w: empty address", ErrNoResult)
	}
	if p, ok := g.cache.GetIfPresent(key); ok {
		return p, nil
	}

	var point types.Point
	err := retry.Do(
		func() error {
			results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
				Address: address,
				Region:  g.region,
			})
			if err != nil {
				if isPermanent(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			if len(results) == 0 {
				return retry.Unrecoverable(ErrNoResult)
			}
			loc := results[0].Geometry.Location
			point = types.Point{Lat: loc.Lat, Lng: loc.Lng}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(g.attempts),
		retry.Delay(g.delay),
		retry.MaxDelay(5*time.Second),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.OnRetry(func(n uint, err error) {
			g.log.Warn().Err(err).Uint("attempt", n+1).Msg("geocode retry")
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		if errors.Is(err, ErrNoResult) || strings.Contains(err.Error(), "ZERO_RESULTS") {
			return types.Point{}, fmt.Errorf("%w: %q", ErrNoResult, address)
		}
		return types.Point{}, fmt.Errorf("maps api error: %w", err)
	}
	if err := point.Validate(); err != nil {
		return types.Point{}, fmt.Errorf("maps api returned invalid location: %w", err)
	}

	g.cache.Set(key, point)
	return point, nil
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}

// isPermanent reports whether a Maps status means retrying cannot help.
func isPermanent(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	for _, status := range []string{"ZERO_RESULTS", "INVALID_REQUEST", "REQUEST_DENIED"} {
		if strings.Contains(msg, status) {
			return true
		}
	}
	return false
}
