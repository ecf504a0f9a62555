// Package inference calls the crop-recommendation model server.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kiranshivaraju/cropadvisor/pkg/models"
)

// MaxAlternatives caps how many ranked crops are kept from a model response.
const MaxAlternatives = 3

// HTTPProvider implements models.InferenceProvider against a FastAPI-style
// /predict endpoint. Calls are single-attempt.
type HTTPProvider struct {
	url    string
	client *http.Client
}

// NewHTTPProvider creates a provider posting to url with a hard per-call timeout.
func NewHTTPProvider(url string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) Name() string { return "http" }

type predictResponse struct {
	RecommendedCrop string          `json:"recommended_crop"`
	Top3Crops       json.RawMessage `json:"top_3_crops"`
	Confidence      any             `json:"confidence"`
}

func (p *HTTPProvider) Predict(ctx context.Context, fv models.FeatureVector) (models.PredictionResult, error) {
	body, err := json.Marshal(fv)
	if err != nil {
		return models.PredictionResult{}, fmt.Errorf("encoding feature vector: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return models.PredictionResult{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return models.PredictionResult{}, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.PredictionResult{}, fmt.Errorf("%w: status %d: %s",
			ErrProviderUnavailable, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var pr predictResponse
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&pr); err != nil {
		return models.PredictionResult{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if strings.TrimSpace(pr.RecommendedCrop) == "" {
		return models.PredictionResult{}, ErrNoPrediction
	}

	return models.PredictionResult{
		RecommendedCrop: pr.RecommendedCrop,
		Alternatives:    parseAlternatives(pr.Top3Crops),
		Confidence:      parseConfidence(pr.Confidence),
	}, nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}

// parseAlternatives keeps the first MaxAlternatives entries of the model's
// list untouched. Anything that is not a list counts as no alternatives.
func parseAlternatives(raw json.RawMessage) []models.Alternative {
	var alts []models.Alternative
	if err := json.Unmarshal(raw, &alts); err != nil || alts == nil {
		return []models.Alternative{}
	}
	if len(alts) > MaxAlternatives {
		return alts[:MaxAlternatives]
	}
	return alts
}

// parseConfidence accepts a number or a numeric string and clamps it to
// [0, 1]. Anything else is treated as not reported.
func parseConfidence(v any) *float64 {
	var c float64
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil
		}
		c = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
		c = f
	default:
		return nil
	}
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return nil
	}
	c = min(max(c, 0), 1)
	return &c
}

// Compile-time check that HTTPProvider implements InferenceProvider.
var _ models.InferenceProvider = (*HTTPProvider)(nil)
