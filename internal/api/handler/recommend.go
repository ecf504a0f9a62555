package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	mw "github.com/kiranshivaraju/cropadvisor/internal/api/middleware"
	"github.com/kiranshivaraju/cropadvisor/internal/api/response"
	"github.com/kiranshivaraju/cropadvisor/internal/inference"
	"github.com/kiranshivaraju/cropadvisor/internal/recommend"
	"github.com/kiranshivaraju/cropadvisor/pkg/models"
)

// MaxRequestBytes caps the recommendation request body.
const MaxRequestBytes = 64 << 10

// Client-facing messages. Collaborator detail is logged, never returned.
const (
	msgUnauthorized   = "Unauthorized"
	msgInvalidJSON    = "Invalid JSON body"
	msgInvalidInput   = "Invalid or missing input values"
	msgNoPrediction   = "ML model did not return prediction"
	msgRecommendError = "Failed to process crop recommendation"
)

// Recommender defines the interface the handler depends on.
type Recommender interface {
	Recommend(ctx context.Context, principal *models.Principal, raw map[string]any) (*recommend.Response, error)
}

// NewRecommendHandler returns an http.HandlerFunc for POST /api/v1/crop/recommend.
func NewRecommendHandler(svc Recommender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := mw.GetPrincipal(r)
		if principal == nil {
			response.Error(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}

		raw, err := decodeObject(w, r)
		if err != nil {
			response.Error(w, http.StatusBadRequest, msgInvalidJSON)
			return
		}

		result, err := svc.Recommend(r.Context(), principal, raw)
		if err != nil {
			switch {
			case errors.Is(err, recommend.ErrUnauthorized):
				response.Error(w, http.StatusUnauthorized, msgUnauthorized)
			case errors.Is(err, recommend.ErrInvalidInput):
				response.Error(w, http.StatusBadRequest, msgInvalidInput)
			case errors.Is(err, inference.ErrNoPrediction):
				response.Error(w, http.StatusInternalServerError, msgNoPrediction)
			default:
				slog.Error("crop recommendation failed",
					"error", err,
					"user", principal.Email,
					"request_id", chimw.GetReqID(r.Context()),
				)
				response.Error(w, http.StatusInternalServerError, msgRecommendError)
			}
			return
		}

		response.Raw(w, http.StatusOK, result)
	}
}

// decodeObject reads a JSON body. Anything that is valid JSON but not an
// object (empty body, null, arrays, scalars) decodes to an empty map so the
// validator, not the decoder, rejects it. Only malformed or oversized bodies
// are errors.
func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBytes))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	if raw, ok := v.(map[string]any); ok {
		return raw, nil
	}
	return map[string]any{}, nil
}
