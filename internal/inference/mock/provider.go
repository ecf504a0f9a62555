package mock

import (
	"context"
	"sync/atomic"

	"github.com/kiranshivaraju/cropadvisor/internal/inference"
	"github.com/kiranshivaraju/cropadvisor/pkg/models"
)

// MockProvider satisfies models.InferenceProvider for testing.
type MockProvider struct {
	Name_       string
	PredictFunc func(ctx context.Context, fv models.FeatureVector) (models.PredictionResult, error)

	calls atomic.Int32
	last  atomic.Pointer[models.FeatureVector]
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Predict(ctx context.Context, fv models.FeatureVector) (models.PredictionResult, error) {
	m.calls.Add(1)
	m.last.Store(&fv)
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, fv)
	}
	return models.PredictionResult{}, nil
}

// Calls returns how many times Predict was invoked.
func (m *MockProvider) Calls() int { return int(m.calls.Load()) }

// LastInput returns the feature vector of the most recent call, or nil.
func (m *MockProvider) LastInput() *models.FeatureVector { return m.last.Load() }

// NewMockProvider returns a MockProvider that recommends rice with 94% confidence.
func NewMockProvider() *MockProvider {
	return NewFixedProvider(models.PredictionResult{
		RecommendedCrop: "rice",
		Alternatives: []models.Alternative{
			models.CropAlternative("rice"),
			models.CropAlternative("maize"),
			models.CropAlternative("jute"),
		},
		Confidence: ptr(0.94),
	})
}

// NewFixedProvider returns a MockProvider that always answers with result.
func NewFixedProvider(result models.PredictionResult) *MockProvider {
	return &MockProvider{
		Name_: "mock",
		PredictFunc: func(_ context.Context, _ models.FeatureVector) (models.PredictionResult, error) {
			return result, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		PredictFunc: func(_ context.Context, _ models.FeatureVector) (models.PredictionResult, error) {
			return models.PredictionResult{}, err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		PredictFunc: func(ctx context.Context, _ models.FeatureVector) (models.PredictionResult, error) {
			<-ctx.Done()
			return models.PredictionResult{}, inference.ErrInferenceTimeout
		},
	}
}

func ptr(f float64) *float64 { return &f }

// Compile-time check that MockProvider implements InferenceProvider.
var _ models.InferenceProvider = (*MockProvider)(nil)
