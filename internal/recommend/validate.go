package recommend

import (
	"errors"

	"github.com/kiranshivaraju/cropadvisor/pkg/models"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid or missing input values")
)

// Validate gates the pipeline: every field must be set before inference.
func Validate(c Candidate) (models.FeatureVector, error) {
	fields := []*float64{c.Nitrogen, c.Phosphorous, c.Potassium, c.PH, c.Temperature, c.Humidity, c.Rainfall}
	for _, f := range fields {
		if f == nil {
			return models.FeatureVector{}, ErrInvalidInput
		}
	}

	return models.FeatureVector{
		Nitrogen:    *c.Nitrogen,
		Phosphorous: *c.Phosphorous,
		Potassium:   *c.Potassium,
		PH:          *c.PH,
		Temperature: *c.Temperature,
		Humidity:    *c.Humidity,
		Rainfall:    *c.Rainfall,
	}, nil
}
