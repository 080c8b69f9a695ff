package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studywat/internal/domain"
)

var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository expone el documento Profile con semántica de document store:
// lectura por clave, insert, y updates de campo (push a lista, set) que deben
// ser atómicos a nivel de documento individual.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (domain.Profile, error)
	Create(ctx context.Context, profile domain.Profile) error
	AppendMessage(ctx context.Context, userID string, msg domain.ChatMessage) error
	PushTrait(ctx context.Context, userID string, obs domain.TraitObservation) error
	SetRecommendations(ctx context.Context, userID string, recs []domain.RecommendationItem) error
	ClearHistory(ctx context.Context, userID string) error
}

// PgProfileRepository guarda el perfil como una fila con columnas JSONB.
// Cada operación es un único statement, lo que da la atomicidad por documento
// que exige el contrato (equivalente a $push/$set sobre un documento Mongo).
type PgProfileRepository struct {
	pool *pgxpool.Pool
}

func NewPgProfileRepository(pool *pgxpool.Pool) *PgProfileRepository {
	return &PgProfileRepository{pool: pool}
}

func (r *PgProfileRepository) GetByUserID(ctx context.Context, userID string) (domain.Profile, error) {
	const query = `
		SELECT user_id, traits, chat_history, courses_recommendation, updated_at
		FROM profiles
		WHERE user_id = $1
	`
	var (
		profile  domain.Profile
		traits   []byte
		history  []byte
		recs     []byte
	)
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&traits,
		&history,
		&recs,
		&profile.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, err
	}

	if err := json.Unmarshal(traits, &profile.Traits); err != nil {
		return domain.Profile{}, fmt.Errorf("decode traits: %w", err)
	}
	if err := json.Unmarshal(history, &profile.ChatHistory); err != nil {
		return domain.Profile{}, fmt.Errorf("decode chat history: %w", err)
	}
	if len(recs) > 0 {
		if err := json.Unmarshal(recs, &profile.CoursesRecommendation); err != nil {
			return domain.Profile{}, fmt.Errorf("decode recommendations: %w", err)
		}
	}
	return profile, nil
}

func (r *PgProfileRepository) Create(ctx context.Context, profile domain.Profile) error {
	const query = `
		INSERT INTO profiles (user_id, traits, chat_history, updated_at)
		VALUES ($1, '[]'::jsonb, '[]'::jsonb, $2)
	`
	_, err := r.pool.Exec(ctx, query, profile.UserID, profile.UpdatedAt)
	return err
}

func (r *PgProfileRepository) AppendMessage(ctx context.Context, userID string, msg domain.ChatMessage) error {
	const query = `
		UPDATE profiles
		SET chat_history = chat_history || $2::jsonb
		WHERE user_id = $1
	`
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	tag, err := r.pool.Exec(ctx, query, userID, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *PgProfileRepository) PushTrait(ctx context.Context, userID string, obs domain.TraitObservation) error {
	const query = `
		UPDATE profiles
		SET traits = traits || $2::jsonb, updated_at = $3
		WHERE user_id = $1
	`
	payload, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("encode trait observation: %w", err)
	}
	tag, err := r.pool.Exec(ctx, query, userID, payload, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *PgProfileRepository) SetRecommendations(ctx context.Context, userID string, recs []domain.RecommendationItem) error {
	const query = `
		UPDATE profiles
		SET courses_recommendation = $2::jsonb
		WHERE user_id = $1
	`
	payload, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}
	tag, err := r.pool.Exec(ctx, query, userID, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *PgProfileRepository) ClearHistory(ctx context.Context, userID string) error {
	const query = `
		UPDATE profiles
		SET chat_history = '[]'::jsonb
		WHERE user_id = $1
	`
	tag, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}
