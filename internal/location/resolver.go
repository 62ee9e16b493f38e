// Package location produces a best-effort human-readable location for a
// capture through an ordered fallback chain. Resolution is total: every run
// terminates with some ResolvedLocation.
package location

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cloudcollector/internal/models"
)

// Place is a reverse-geocoded address.
type Place struct {
	Address string
	City    string
	Country string
}

// Geocoder turns coordinates into an address.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error)
}

// Locator reads a live location at submission time. Implementations must
// honor ctx; permission denial and timeout are expected, soft errors.
type Locator interface {
	Current(ctx context.Context) (models.GPSPoint, error)
}

// StaticLocator reports a fixed point, typically coordinates that arrived
// with the submission itself.
type StaticLocator struct {
	Point models.GPSPoint
}

func (s StaticLocator) Current(ctx context.Context) (models.GPSPoint, error) {
	return s.Point, nil
}

const defaultLiveTimeout = 10 * time.Second

// Resolver evaluates the fallback chain in strict order:
//
//  1. embedded GPS + reverse-geocoded address
//  2. embedded GPS, coordinates synthesized as the address
//  3. live location (time-bounded)
//  4. per-tool placeholder
//  5. generic placeholder
//
// Embedded metadata always wins over live sensors: it reflects the moment of
// capture, not the moment of submission.
type Resolver struct {
	geocoder     Geocoder
	locator      Locator
	placeholders map[string]string
	generic      string
	liveTimeout  time.Duration
	log          *zap.Logger
}

// NewResolver builds a Resolver. The placeholder table and generic string are
// supplied by the caller so tests can substitute their own. geocoder and
// locator may be nil, which simply disables their tiers.
func NewResolver(geocoder Geocoder, locator Locator, placeholders map[string]string, generic string, log *zap.Logger) *Resolver {
	return &Resolver{
		geocoder:     geocoder,
		locator:      locator,
		placeholders: placeholders,
		generic:      generic,
		liveTimeout:  defaultLiveTimeout,
		log:          log,
	}
}

// SetLiveTimeout overrides the bound on the live-location tier.
func (r *Resolver) SetLiveTimeout(d time.Duration) { r.liveTimeout = d }

// Resolve walks the chain and returns the first satisfied tier.
func (r *Resolver) Resolve(ctx context.Context, meta models.ExtractedMetadata, tool models.ToolContext) models.ResolvedLocation {
	return r.ResolveWith(ctx, meta, tool, nil)
}

// ResolveWith is Resolve with a per-call locator for the live tier. A nil
// live falls back to the resolver's own locator.
func (r *Resolver) ResolveWith(ctx context.Context, meta models.ExtractedMetadata, tool models.ToolContext, live Locator) models.ResolvedLocation {
	if meta.HasGPS && meta.GPS != nil {
		return r.fromCoordinates(ctx, meta.GPS.Latitude, meta.GPS.Longitude, models.SourceExifAddress, models.SourceExifGPS)
	}

	if live == nil {
		live = r.locator
	}
	if live != nil {
		liveCtx, cancel := context.WithTimeout(ctx, r.liveTimeout)
		point, err := live.Current(liveCtx)
		cancel()
		if err == nil {
			loc := r.fromCoordinates(ctx, point.Latitude, point.Longitude, models.SourceLiveGPS, models.SourceLiveGPS)
			return loc
		}
		r.log.Info("live location unavailable, degrading to placeholder", zap.Error(err))
	}

	if addr, ok := r.placeholders[tool.ID]; ok {
		return models.ResolvedLocation{Address: addr, Source: models.SourceToolPlaceholder}
	}
	return models.ResolvedLocation{Address: r.generic, Source: models.SourceGenericPlaceholder}
}

// fromCoordinates attempts a reverse geocode and degrades to a synthesized
// coordinate string when no address is obtainable.
func (r *Resolver) fromCoordinates(ctx context.Context, lat, lon float64, addressed, bare models.LocationSource) models.ResolvedLocation {
	if r.geocoder != nil {
		place, err := r.geocoder.ReverseGeocode(ctx, lat, lon)
		if err == nil && place.Address != "" {
			return models.ResolvedLocation{
				Latitude:  lat,
				Longitude: lon,
				Address:   place.Address,
				City:      place.City,
				Country:   place.Country,
				Source:    addressed,
			}
		}
		if err != nil {
			r.log.Info("reverse geocode failed, synthesizing coordinate address", zap.Error(err))
		}
	}
	return models.ResolvedLocation{
		Latitude:  lat,
		Longitude: lon,
		Address:   FormatCoordinates(lat, lon),
		Source:    bare,
	}
}

// FormatCoordinates renders a coordinate pair as an address string with six
// decimal places.
func FormatCoordinates(lat, lon float64) string {
	return fmt.Sprintf("%.6f, %.6f", lat, lon)
}
