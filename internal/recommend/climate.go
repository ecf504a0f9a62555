package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/cropadvisor/internal/weather"
	"github.com/kiranshivaraju/cropadvisor/pkg/models"
)

// ManualSource labels climate values taken from the request or the defaults.
const ManualSource = "Manual Input"

// ClimateResolver swaps request climate values for live weather when the
// request carries a usable location.
type ClimateResolver struct {
	weather weather.Client
	timeout time.Duration
}

// NewClimateResolver returns a resolver. A nil client disables lookups.
func NewClimateResolver(wc weather.Client, timeout time.Duration) *ClimateResolver {
	return &ClimateResolver{weather: wc, timeout: timeout}
}

// Resolve returns fv with its climate replaced wholesale by a weather snapshot
// and the matching provenance label, or fv unchanged with ManualSource.
//
// Latitude 0 or longitude 0 counts as "no location" and skips the lookup.
func (r *ClimateResolver) Resolve(ctx context.Context, fv models.FeatureVector, loc Location) (models.FeatureVector, string) {
	if r == nil || r.weather == nil {
		return fv, ManualSource
	}
	if !truthy(loc.Latitude) || !truthy(loc.Longitude) {
		return fv, ManualSource
	}

	lat, lon := number(loc.Latitude), number(loc.Longitude)
	if lat == nil || lon == nil {
		slog.Warn("weather lookup skipped: non-numeric location",
			"latitude", loc.Latitude, "longitude", loc.Longitude)
		return fv, ManualSource
	}

	lookupCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	snap, err := r.weather.Current(lookupCtx, *lat, *lon)
	if err != nil {
		slog.Warn("weather lookup failed, using manual climate",
			"latitude", *lat, "longitude", *lon, "error", err)
		return fv, ManualSource
	}
	if snap == nil {
		return fv, ManualSource
	}

	fv.Temperature = snap.Temperature
	fv.Humidity = snap.Humidity
	fv.Rainfall = snap.Rainfall
	return fv, WeatherSource(snap.Location)
}

// WeatherSource formats the provenance label for a live snapshot.
func WeatherSource(location string) string {
	return fmt.Sprintf("OpenWeatherMap (%s)", location)
}
