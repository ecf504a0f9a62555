package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FeatureVector is the canonical seven-field model input. The JSON tags are the
// inference server's wire contract.
type FeatureVector struct {
	Nitrogen    float64 `json:"nitrogen"`
	Phosphorous float64 `json:"phosphorous"`
	Potassium   float64 `json:"potassium"`
	PH          float64 `json:"ph"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Rainfall    float64 `json:"rainfall"`
}

// Alternative is one entry of the model's top crops, kept exactly as the model
// sent it: a crop name, a {crop, score} or {crop, rank} object, a tuple, or
// anything else. It is never reshaped.
type Alternative json.RawMessage

// CropAlternative builds an alternative holding a bare crop name.
func CropAlternative(name string) Alternative {
	b, _ := json.Marshal(name)
	return Alternative(b)
}

func (a Alternative) MarshalJSON() ([]byte, error) {
	if len(a) == 0 {
		return []byte("null"), nil
	}
	return a, nil
}

func (a *Alternative) UnmarshalJSON(data []byte) error {
	*a = append((*a)[:0], data...)
	return nil
}

// PredictionResult is the model's answer for one feature vector.
type PredictionResult struct {
	RecommendedCrop string
	Alternatives    []Alternative
	Confidence      *float64 // nil when the model did not report one
}

// PredictionInputs is the feature vector as stored in history, labeled with soil-field names.
type PredictionInputs struct {
	Nitrogen    float64 `json:"nitrogen"`
	Phosphorus  float64 `json:"phosphorus"`
	Potassium   float64 `json:"potassium"`
	PH          float64 `json:"ph"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Rainfall    float64 `json:"rainfall"`
}

// InputsFrom labels a feature vector for storage.
func InputsFrom(fv FeatureVector) PredictionInputs {
	return PredictionInputs{
		Nitrogen:    fv.Nitrogen,
		Phosphorus:  fv.Phosphorous,
		Potassium:   fv.Potassium,
		PH:          fv.PH,
		Temperature: fv.Temperature,
		Humidity:    fv.Humidity,
		Rainfall:    fv.Rainfall,
	}
}

// Prediction is an append-only history record written after every successful inference.
type Prediction struct {
	ID            uuid.UUID        `db:"id"             json:"id"`
	UserID        string           `db:"user_id"        json:"user_id"`
	Inputs        PredictionInputs `db:"inputs"         json:"inputs"`
	PredictedCrop string           `db:"predicted_crop" json:"predicted_crop"`
	Alternatives  []Alternative    `db:"alternatives"   json:"alternatives"`
	MarketPrice   *float64         `db:"market_price"   json:"market_price"`
	WeatherSource string           `db:"weather_source" json:"weather_source"`
	CreatedAt     time.Time        `db:"created_at"     json:"created_at"`
}
