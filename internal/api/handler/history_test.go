package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/kiranshivaraju/cropadvisor/internal/api/middleware"
	"github.com/kiranshivaraju/cropadvisor/internal/store"
	"github.com/kiranshivaraju/cropadvisor/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock HistoryReader ---

type mockHistory struct {
	predictions []*models.Prediction
	total       int
	err         error
	lastFilter  store.PredictionFilter
}

func (m *mockHistory) ListPredictions(_ context.Context, f store.PredictionFilter) ([]*models.Prediction, int, error) {
	m.lastFilter = f
	return m.predictions, m.total, m.err
}

func (m *mockHistory) GetPrediction(_ context.Context, id uuid.UUID, userID string) (*models.Prediction, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.predictions {
		if p.ID == id && p.UserID == userID {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

func samplePrediction(user string) *models.Prediction {
	price := 2300.0
	return &models.Prediction{
		ID:            uuid.New(),
		UserID:        user,
		Inputs:        models.PredictionInputs{Nitrogen: 90, Phosphorus: 42, Potassium: 43, PH: 6.5, Temperature: 25, Humidity: 50, Rainfall: 100},
		PredictedCrop: "rice",
		MarketPrice:   &price,
		WeatherSource: "Manual Input",
		CreatedAt:     time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC),
	}
}

func historyRouter(h HistoryReader, principal *models.Principal) http.Handler {
	r := chi.NewRouter()
	if principal != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(mw.SetPrincipal(req.Context(), principal)))
			})
		})
	}
	r.Get("/api/v1/crop/history", NewListHistoryHandler(h))
	r.Get("/api/v1/crop/history/{predictionID}", NewGetHistoryHandler(h))
	return r
}

// --- list ---

func TestListHistory_Success(t *testing.T) {
	h := &mockHistory{predictions: []*models.Prediction{samplePrediction("farmer@example.com")}, total: 41}
	rec := httptest.NewRecorder()

	historyRouter(h, farmer).ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/crop/history?page=2&limit=20", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, store.PredictionFilter{UserID: "farmer@example.com", Page: 2, Limit: 20}, h.lastFilter)

	var body struct {
		Success bool             `json:"success"`
		Data    []map[string]any `json:"data"`
		Meta    map[string]any   `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "rice", body.Data[0]["predicted_crop"])
	assert.Equal(t, "2026-06-01T08:30:00Z", body.Data[0]["created_at"])
	assert.Equal(t, []any{}, body.Data[0]["alternatives"])
	assert.Equal(t, 42.0, body.Data[0]["inputs"].(map[string]any)["phosphorus"])
	assert.Equal(t, true, body.Meta["has_next"])
	assert.Equal(t, 41.0, body.Meta["total"])
}

func TestListHistory_DefaultsAndClamp(t *testing.T) {
	h := &mockHistory{}
	rec := httptest.NewRecorder()

	historyRouter(h, farmer).ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/crop/history?limit=1000", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, h.lastFilter.Page)
	assert.Equal(t, 100, h.lastFilter.Limit)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []any{}, body["data"])
}

func TestListHistory_HugePageIsClamped(t *testing.T) {
	h := &mockHistory{total: 3}
	rec := httptest.NewRecorder()

	historyRouter(h, farmer).ServeHTTP(rec,
		httptest.NewRequest("GET", "/api/v1/crop/history?page=9223372036854775807&limit=100", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, store.MaxPage, h.lastFilter.Page)

	var body struct {
		Meta map[string]any `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(store.MaxPage), body.Meta["page"])
	assert.Equal(t, false, body.Meta["has_next"])
}

func TestListHistory_BadQuery(t *testing.T) {
	for _, q := range []string{"page=one", "limit=ten", "page=99999999999999999999"} {
		t.Run(q, func(t *testing.T) {
			rec := httptest.NewRecorder()
			historyRouter(&mockHistory{}, farmer).ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/crop/history?"+q, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestListHistory_StoreError(t *testing.T) {
	rec := httptest.NewRecorder()
	historyRouter(&mockHistory{err: errors.New("db down")}, farmer).
		ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/crop/history", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to load prediction history", parseErr(t, rec))
}

func TestListHistory_NoPrincipal(t *testing.T) {
	rec := httptest.NewRecorder()
	historyRouter(&mockHistory{}, nil).ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/crop/history", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// --- detail ---

func TestGetHistory_Success(t *testing.T) {
	p := samplePrediction("farmer@example.com")
	rec := httptest.NewRecorder()

	historyRouter(&mockHistory{predictions: []*models.Prediction{p}}, farmer).
		ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/crop/history/"+p.ID.String(), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, p.ID.String(), body.Data["id"])
	assert.Equal(t, "Manual Input", body.Data["weather_source"])
}

func TestGetHistory_OtherUsersRecordIsNotFound(t *testing.T) {
	p := samplePrediction("someone-else@example.com")
	rec := httptest.NewRecorder()

	historyRouter(&mockHistory{predictions: []*models.Prediction{p}}, farmer).
		ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/crop/history/"+p.ID.String(), nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Prediction not found", parseErr(t, rec))
}

func TestGetHistory_InvalidID(t *testing.T) {
	rec := httptest.NewRecorder()
	historyRouter(&mockHistory{}, farmer).ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/crop/history/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetHistory_StoreError(t *testing.T) {
	rec := httptest.NewRecorder()
	historyRouter(&mockHistory{err: errors.New("db down")}, farmer).
		ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/crop/history/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
