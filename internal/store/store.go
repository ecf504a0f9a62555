package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/cropadvisor/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error

	PredictionStore
}

// PredictionStore is the append-only prediction history. There is no update or
// delete path.
type PredictionStore interface {
	CreatePrediction(ctx context.Context, p *models.Prediction) error
	ListPredictions(ctx context.Context, filter PredictionFilter) ([]*models.Prediction, int, error)
	GetPrediction(ctx context.Context, id uuid.UUID, userID string) (*models.Prediction, error)
}

type PredictionFilter struct {
	UserID string
	Page   int
	Limit  int
}

// MaxPage bounds PredictionFilter.Page so the row offset stays small.
const MaxPage = 10000

// Normalize clamps pagination to 1 <= page <= MaxPage and 1 <= limit <= 100 (default 20).
func (f PredictionFilter) Normalize() PredictionFilter {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}
	return f
}
