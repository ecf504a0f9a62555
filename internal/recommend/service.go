// Package recommend turns a raw crop-recommendation request into a model
// prediction enriched with weather provenance and market price.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/cropadvisor/internal/market"
	"github.com/kiranshivaraju/cropadvisor/internal/store"
	"github.com/kiranshivaraju/cropadvisor/internal/weather"
	"github.com/kiranshivaraju/cropadvisor/pkg/models"
)

// Options bounds the time spent on each external call.
type Options struct {
	InferenceTimeout    time.Duration
	WeatherTimeout      time.Duration
	HistoryWriteTimeout time.Duration
}

// Service runs the recommendation pipeline: normalize, validate, resolve
// climate, predict, then assemble. It holds no per-request state.
type Service struct {
	provider models.InferenceProvider
	climate  *ClimateResolver
	prices   market.Pricer
	history  store.PredictionStore
	opts     Options

	pending sync.WaitGroup
	now     func() time.Time
}

// NewService creates a Service. wc may be nil to disable weather overrides.
func NewService(provider models.InferenceProvider, wc weather.Client, prices market.Pricer, history store.PredictionStore, opts Options) *Service {
	if opts.InferenceTimeout <= 0 {
		opts.InferenceTimeout = 5 * time.Second
	}
	if opts.HistoryWriteTimeout <= 0 {
		opts.HistoryWriteTimeout = 5 * time.Second
	}
	return &Service{
		provider: provider,
		climate:  NewClimateResolver(wc, opts.WeatherTimeout),
		prices:   prices,
		history:  history,
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Recommend runs the pipeline for one request on behalf of principal.
// Errors are ErrUnauthorized, ErrInvalidInput, or an inference failure
// (see the inference package sentinels).
func (s *Service) Recommend(ctx context.Context, principal *models.Principal, raw map[string]any) (*Response, error) {
	if principal == nil || principal.Email == "" {
		return nil, ErrUnauthorized
	}
	if raw == nil {
		raw = map[string]any{}
	}

	candidate := Normalize(raw)
	fv, err := Validate(candidate)
	if err != nil {
		return nil, err
	}

	fv, source := s.climate.Resolve(ctx, fv, candidate.Location)

	slog.Debug("ml payload", "shape", candidate.Shape.String(), "features", fv, "weather_source", source)

	predictCtx, cancel := context.WithTimeout(ctx, s.opts.InferenceTimeout)
	defer cancel()

	result, err := s.provider.Predict(predictCtx, fv)
	if err != nil {
		slog.Error("inference failed", "provider", s.provider.Name(), "error", err)
		return nil, fmt.Errorf("predict: %w", err)
	}

	var price *float64
	if p, ok := s.prices.Price(result.RecommendedCrop); ok {
		price = &p
	}

	s.recordAsync(&models.Prediction{
		ID:            uuid.New(),
		UserID:        principal.Email,
		Inputs:        models.InputsFrom(fv),
		PredictedCrop: result.RecommendedCrop,
		Alternatives:  result.Alternatives,
		MarketPrice:   price,
		WeatherSource: source,
		CreatedAt:     s.now(),
	})

	return assemble(result, fv, source, price), nil
}

// recordAsync persists a history record without blocking the response.
// Failures, including panics, are logged and otherwise ignored.
func (s *Service) recordAsync(rec *models.Prediction) {
	if s.history == nil {
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic saving prediction", "error", r, "prediction_id", rec.ID)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.opts.HistoryWriteTimeout)
		defer cancel()

		if err := s.history.CreatePrediction(ctx, rec); err != nil {
			slog.Error("prediction save failed",
				"error", err, "prediction_id", rec.ID, "user_id", rec.UserID)
		}
	}()
}

// ErrDrainTimeout is returned by Drain when history writes are still in flight.
var ErrDrainTimeout = errors.New("pending history writes did not finish")

// Drain waits for in-flight history writes, up to ctx's deadline.
func (s *Service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	// On timeout this waiter outlives Drain. It is only called at shutdown,
	// so the leak is accepted.
	go func() {
		s.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ErrDrainTimeout
	}
}
