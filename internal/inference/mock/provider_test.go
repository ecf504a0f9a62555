package mock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kiranshivaraju/cropadvisor/internal/inference"
	"github.com/kiranshivaraju/cropadvisor/internal/inference/mock"
	"github.com/kiranshivaraju/cropadvisor/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleVector() models.FeatureVector {
	return models.FeatureVector{Nitrogen: 90, Phosphorous: 42, Potassium: 43, PH: 6.5, Temperature: 25, Humidity: 50, Rainfall: 100}
}

func TestNewMockProvider_Defaults(t *testing.T) {
	p := mock.NewMockProvider()
	assert.Equal(t, "mock", p.Name())

	res, err := p.Predict(context.Background(), sampleVector())
	require.NoError(t, err)
	assert.Equal(t, "rice", res.RecommendedCrop)
	assert.Len(t, res.Alternatives, 3)
	require.NotNil(t, res.Confidence)
	assert.Equal(t, 0.94, *res.Confidence)
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	p := mock.NewMockProvider()
	assert.Equal(t, 0, p.Calls())
	assert.Nil(t, p.LastInput())

	fv := sampleVector()
	_, _ = p.Predict(context.Background(), fv)
	_, _ = p.Predict(context.Background(), fv)

	assert.Equal(t, 2, p.Calls())
	require.NotNil(t, p.LastInput())
	assert.Equal(t, fv, *p.LastInput())
}

func TestNewFailingProvider(t *testing.T) {
	boom := errors.New("boom")
	p := mock.NewFailingProvider(boom)

	_, err := p.Predict(context.Background(), sampleVector())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "mock-failing", p.Name())
}

func TestNewTimeoutProvider_BlocksUntilCancelled(t *testing.T) {
	p := mock.NewTimeoutProvider()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Predict(ctx, sampleVector())
	assert.ErrorIs(t, err, inference.ErrInferenceTimeout)
}

func TestMockProvider_NilFuncReturnsZero(t *testing.T) {
	p := &mock.MockProvider{Name_: "bare"}
	res, err := p.Predict(context.Background(), sampleVector())
	require.NoError(t, err)
	assert.Empty(t, res.RecommendedCrop)
}
