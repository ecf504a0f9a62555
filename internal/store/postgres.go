package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/cropadvisor/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- API Keys ---

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_email, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.UserEmail, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, user_email, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		key.ID, key.UserEmail, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Predictions ---

func (s *PostgresStore) CreatePrediction(ctx context.Context, p *models.Prediction) error {
	inputs, err := json.Marshal(p.Inputs)
	if err != nil {
		return fmt.Errorf("encode prediction inputs: %w", err)
	}
	alternatives := p.Alternatives
	if alternatives == nil {
		alternatives = []models.Alternative{}
	}
	alts, err := json.Marshal(alternatives)
	if err != nil {
		return fmt.Errorf("encode prediction alternatives: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO predictions (id, user_id, inputs, predicted_crop, alternatives, market_price, weather_source, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.UserID, inputs, p.PredictedCrop, alts, p.MarketPrice, p.WeatherSource, p.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create prediction: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPredictions(ctx context.Context, filter PredictionFilter) ([]*models.Prediction, int, error) {
	filter = filter.Normalize()

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM predictions WHERE user_id = $1`, filter.UserID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count predictions: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, inputs, predicted_crop, alternatives, market_price, weather_source, created_at
		 FROM predictions WHERE user_id = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`,
		filter.UserID, filter.Limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	predictions := []*models.Prediction{}
	for rows.Next() {
		var (
			p      models.Prediction
			inputs []byte
			alts   []byte
		)
		if err := rows.Scan(&p.ID, &p.UserID, &inputs, &p.PredictedCrop, &alts,
			&p.MarketPrice, &p.WeatherSource, &p.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan prediction: %w", err)
		}
		if err := decodePredictionJSON(&p, inputs, alts); err != nil {
			return nil, 0, err
		}
		predictions = append(predictions, &p)
	}
	return predictions, total, rows.Err()
}

func (s *PostgresStore) GetPrediction(ctx context.Context, id uuid.UUID, userID string) (*models.Prediction, error) {
	var (
		p      models.Prediction
		inputs []byte
		alts   []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, inputs, predicted_crop, alternatives, market_price, weather_source, created_at
		 FROM predictions WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&p.ID, &p.UserID, &inputs, &p.PredictedCrop, &alts, &p.MarketPrice, &p.WeatherSource, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get prediction: %w", err)
	}
	if err := decodePredictionJSON(&p, inputs, alts); err != nil {
		return nil, err
	}
	return &p, nil
}

func decodePredictionJSON(p *models.Prediction, inputs, alts []byte) error {
	if err := json.Unmarshal(inputs, &p.Inputs); err != nil {
		return fmt.Errorf("decode prediction inputs: %w", err)
	}
	if err := json.Unmarshal(alts, &p.Alternatives); err != nil {
		return fmt.Errorf("decode prediction alternatives: %w", err)
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

var _ Store = (*PostgresStore)(nil)
