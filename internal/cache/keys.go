package cache

import (
	"fmt"
	"strings"
)

// WeatherKey buckets coordinates to two decimal places (~1 km) so nearby
// lookups share a snapshot.
func WeatherKey(lat, lon float64) string {
	return fmt.Sprintf("weather:%.2f:%.2f", lat, lon)
}

func RateLimitKey(subject string) string {
	return fmt.Sprintf("ratelimit:%s", strings.ToLower(subject))
}
