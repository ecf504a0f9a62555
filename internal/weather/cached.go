package weather

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/cropadvisor/internal/cache"
	"github.com/kiranshivaraju/cropadvisor/pkg/models"
)

// Cached decorates a Client with a shared snapshot cache. Cache errors fail
// open: the upstream provider is consulted as if the entry were missing.
type Cached struct {
	next  Client
	cache cache.Cache
	ttl   time.Duration
}

func NewCached(next Client, c cache.Cache, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: c, ttl: ttl}
}

func (c *Cached) Current(ctx context.Context, lat, lon float64) (*models.WeatherSnapshot, error) {
	key := cache.WeatherKey(lat, lon)

	if raw, found, err := c.cache.Get(ctx, key); err != nil {
		slog.Warn("weather cache read failed", "key", key, "error", err)
	} else if found {
		var snap models.WeatherSnapshot
		if err := json.Unmarshal(raw, &snap); err == nil {
			return &snap, nil
		}
	}

	snap, err := c.next.Current(ctx, lat, lon)
	if err != nil || snap == nil {
		return snap, err
	}

	if raw, err := json.Marshal(snap); err == nil {
		if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
			slog.Warn("weather cache write failed", "key", key, "error", err)
		}
	}
	return snap, nil
}

var _ Client = (*Cached)(nil)
