package recommend

import (
	"fmt"
	"math"

	"github.com/kiranshivaraju/cropadvisor/internal/market"
	"github.com/kiranshivaraju/cropadvisor/pkg/models"
)

// DefaultConfidence is reported when the model omits a confidence.
const DefaultConfidence = 0.9

// Response is the success body of a recommendation.
type Response struct {
	Success         bool                 `json:"success"`
	Predictions     []CropCard           `json:"predictions"`
	TopAlternatives []models.Alternative `json:"top_alternatives"`
	MarketPrice     *float64             `json:"market_price"`
	Currency        string               `json:"currency"`
	WeatherUsed     WeatherUsed          `json:"weather_used"`
}

// CropCard is the display entry for the recommended crop. Season, profit,
// duration, water and fertilizer are fixed placeholder copy.
type CropCard struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Confidence string `json:"confidence"`
	Season     string `json:"season"`
	Profit     string `json:"profit"`
	Duration   string `json:"duration"`
	Water      string `json:"water"`
	Fertilizer string `json:"fertilizer"`
}

// WeatherUsed reports which climate values were sent to the model and where they came from.
type WeatherUsed struct {
	Source      string  `json:"source"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Rainfall    float64 `json:"rainfall"`
}

func assemble(result models.PredictionResult, fv models.FeatureVector, source string, price *float64) *Response {
	alts := result.Alternatives
	if alts == nil {
		alts = []models.Alternative{}
	}

	return &Response{
		Success: true,
		Predictions: []CropCard{{
			ID:         1,
			Name:       result.RecommendedCrop,
			Confidence: FormatConfidence(result.Confidence),
			Season:     "Seasonal",
			Profit:     "High",
			Duration:   "100–120 days",
			Water:      "Medium",
			Fertilizer: "Recommended as per soil",
		}},
		TopAlternatives: alts,
		MarketPrice:     price,
		Currency:        market.Currency,
		WeatherUsed: WeatherUsed{
			Source:      source,
			Temperature: fv.Temperature,
			Humidity:    fv.Humidity,
			Rainfall:    fv.Rainfall,
		},
	}
}

// FormatConfidence renders a [0,1] confidence as a whole percentage.
// A missing or zero confidence is shown as the default.
func FormatConfidence(c *float64) string {
	v := DefaultConfidence
	if c != nil && *c != 0 {
		v = *c
	}
	return fmt.Sprintf("%d%%", int(math.Round(v*100)))
}
