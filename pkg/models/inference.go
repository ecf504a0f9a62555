// Package models contains shared data models used across the cropadvisor codebase.
package models

import "context"

// InferenceProvider is the contract every crop-recommendation model backend implements.
// Callers depend on this interface rather than on a model server client.
type InferenceProvider interface {
	// Predict returns the recommended crop for a fully populated feature vector.
	Predict(ctx context.Context, fv FeatureVector) (PredictionResult, error)
	// Name returns the provider identifier (e.g., "http", "mock").
	Name() string
}
