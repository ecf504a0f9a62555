package recommend_test

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/cropadvisor/internal/store"
	"github.com/kiranshivaraju/cropadvisor/pkg/models"
)

type stubWeather struct {
	snap  *models.WeatherSnapshot
	err   error
	block bool
	calls atomic.Int32
}

func (s *stubWeather) Current(ctx context.Context, _, _ float64) (*models.WeatherSnapshot, error) {
	s.calls.Add(1)
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.snap, s.err
}

type fakeHistory struct {
	mu      sync.Mutex
	records []*models.Prediction
	err     error
	panics  bool
	calls   atomic.Int32
}

func (f *fakeHistory) CreatePrediction(_ context.Context, p *models.Prediction) error {
	f.calls.Add(1)
	if f.panics {
		panic("history exploded")
	}
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, p)
	return nil
}

func (f *fakeHistory) ListPredictions(_ context.Context, _ store.PredictionFilter) ([]*models.Prediction, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records, len(f.records), nil
}

func (f *fakeHistory) GetPrediction(_ context.Context, id uuid.UUID, _ string) (*models.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeHistory) saved() []*models.Prediction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.Prediction(nil), f.records...)
}
