package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"studywat/internal/domain"
	"studywat/internal/repository"
)

// ProfileService encapsula las operaciones sobre el documento Profile.
// Es el único camino de mutación del perfil; la atomicidad por documento
// la garantiza el repositorio.
type ProfileService struct {
	repo repository.ProfileRepository
}

var (
	ErrProfileServiceNotConfigured = errors.New("profile service not configured")
	ErrProfileInvalidInput         = errors.New("profile invalid input")
)

func NewProfileService(repo repository.ProfileRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	if s == nil || s.repo == nil {
		return domain.Profile{}, ErrProfileServiceNotConfigured
	}
	return s.repo.GetByUserID(ctx, userID)
}

// CreateProfile establece un perfil vacío. Se invoca solo tras un Get fallido.
func (s *ProfileService) CreateProfile(ctx context.Context, userID string) (domain.Profile, error) {
	if s == nil || s.repo == nil {
		return domain.Profile{}, ErrProfileServiceNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Profile{}, ErrProfileInvalidInput
	}
	profile := domain.Profile{
		UserID:      userID,
		Traits:      []domain.TraitObservation{},
		ChatHistory: []domain.ChatMessage{},
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, profile); err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}

func (s *ProfileService) AppendChatHistory(ctx context.Context, userID string, msg domain.ChatMessage) error {
	if s == nil || s.repo == nil {
		return ErrProfileServiceNotConfigured
	}
	if strings.TrimSpace(msg.Role) == "" || strings.TrimSpace(msg.Content) == "" {
		return ErrProfileInvalidInput
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	if msg.Alerts == nil {
		msg.Alerts = []domain.Alert{}
	}
	return s.repo.AppendMessage(ctx, userID, msg)
}

// MergeTrait agrega la observación al final de la lista. No deduplica ni
// promedia observaciones previas del mismo rasgo: la lista completa es el
// registro de auditoría. Devuelve el perfil actualizado.
func (s *ProfileService) MergeTrait(ctx context.Context, userID string, obs domain.TraitObservation) (domain.Profile, error) {
	if s == nil || s.repo == nil {
		return domain.Profile{}, ErrProfileServiceNotConfigured
	}
	if strings.TrimSpace(obs.Trait) == "" {
		return domain.Profile{}, ErrProfileInvalidInput
	}
	if obs.Timestamp.IsZero() {
		obs.Timestamp = time.Now().UTC()
	}
	if err := s.repo.PushTrait(ctx, userID, obs); err != nil {
		return domain.Profile{}, err
	}
	return s.repo.GetByUserID(ctx, userID)
}

func (s *ProfileService) GetChatHistory(ctx context.Context, userID string) ([]domain.ChatMessage, error) {
	if s == nil || s.repo == nil {
		return nil, ErrProfileServiceNotConfigured
	}
	profile, err := s.repo.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrProfileNotFound) {
		return []domain.ChatMessage{}, nil
	}
	if err != nil {
		return nil, err
	}
	return profile.ChatHistory, nil
}

func (s *ProfileService) ClearChatHistory(ctx context.Context, userID string) error {
	if s == nil || s.repo == nil {
		return ErrProfileServiceNotConfigured
	}
	return s.repo.ClearHistory(ctx, userID)
}

func (s *ProfileService) GetCoursesRecommendation(ctx context.Context, userID string) ([]domain.RecommendationItem, error) {
	if s == nil || s.repo == nil {
		return nil, ErrProfileServiceNotConfigured
	}
	profile, err := s.repo.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrProfileNotFound) {
		return []domain.RecommendationItem{}, nil
	}
	if err != nil {
		return nil, err
	}
	return profile.CoursesRecommendation, nil
}

// UpdateCoursesRecommendation reemplaza la lista cacheada al completo.
// La guarda de no-encogimiento vive en el refresher, no acá.
func (s *ProfileService) UpdateCoursesRecommendation(ctx context.Context, userID string, recs []domain.RecommendationItem) error {
	if s == nil || s.repo == nil {
		return ErrProfileServiceNotConfigured
	}
	return s.repo.SetRecommendations(ctx, userID, recs)
}
