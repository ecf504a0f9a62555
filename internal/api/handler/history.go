package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/kiranshivaraju/cropadvisor/internal/api/middleware"
	"github.com/kiranshivaraju/cropadvisor/internal/api/response"
	"github.com/kiranshivaraju/cropadvisor/internal/store"
	"github.com/kiranshivaraju/cropadvisor/pkg/models"
)

// HistoryReader is the read side of the prediction history.
type HistoryReader interface {
	ListPredictions(ctx context.Context, filter store.PredictionFilter) ([]*models.Prediction, int, error)
	GetPrediction(ctx context.Context, id uuid.UUID, userID string) (*models.Prediction, error)
}

type predictionResponse struct {
	ID            string                  `json:"id"`
	Inputs        models.PredictionInputs `json:"inputs"`
	PredictedCrop string                  `json:"predicted_crop"`
	Alternatives  []models.Alternative    `json:"alternatives"`
	MarketPrice   *float64                `json:"market_price"`
	WeatherSource string                  `json:"weather_source"`
	CreatedAt     string                  `json:"created_at"`
}

func toPredictionResponse(p *models.Prediction) predictionResponse {
	alts := p.Alternatives
	if alts == nil {
		alts = []models.Alternative{}
	}
	return predictionResponse{
		ID:            p.ID.String(),
		Inputs:        p.Inputs,
		PredictedCrop: p.PredictedCrop,
		Alternatives:  alts,
		MarketPrice:   p.MarketPrice,
		WeatherSource: p.WeatherSource,
		CreatedAt:     p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NewListHistoryHandler returns an http.HandlerFunc for GET /api/v1/crop/history.
func NewListHistoryHandler(h HistoryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := mw.GetPrincipal(r)
		if principal == nil {
			response.Error(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}

		page, err := optionalInt(r, "page")
		if err != nil {
			response.Error(w, http.StatusBadRequest, "page must be an integer")
			return
		}
		limit, err := optionalInt(r, "limit")
		if err != nil {
			response.Error(w, http.StatusBadRequest, "limit must be an integer")
			return
		}

		filter := store.PredictionFilter{UserID: principal.Email, Page: page, Limit: limit}.Normalize()

		predictions, total, err := h.ListPredictions(r.Context(), filter)
		if err != nil {
			slog.Error("list predictions", "error", err, "user", principal.Email)
			response.Error(w, http.StatusInternalServerError, "Failed to load prediction history")
			return
		}

		items := make([]predictionResponse, len(predictions))
		for i, p := range predictions {
			items[i] = toPredictionResponse(p)
		}
		response.Collection(w, items, response.NewPaginationMeta(filter.Page, filter.Limit, total))
	}
}

// NewGetHistoryHandler returns an http.HandlerFunc for GET /api/v1/crop/history/{predictionID}.
func NewGetHistoryHandler(h HistoryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := mw.GetPrincipal(r)
		if principal == nil {
			response.Error(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "predictionID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid prediction ID")
			return
		}

		p, err := h.GetPrediction(r.Context(), id, principal.Email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "Prediction not found")
				return
			}
			slog.Error("get prediction", "error", err, "prediction_id", id)
			response.Error(w, http.StatusInternalServerError, "Failed to load prediction")
			return
		}

		response.JSON(w, toPredictionResponse(p))
	}
}

func optionalInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
