package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"studywat/internal/catalog"
	"studywat/internal/domain"
	"studywat/internal/repository"
)

// answerEvaluator es lo que el orquestador necesita del evaluador.
type answerEvaluator interface {
	EvaluateAnswer(ctx context.Context, lastTurn, userAnswer string) (domain.TraitObservation, bool)
}

// refreshScheduler encola refrescos de recomendaciones sin bloquear.
type refreshScheduler interface {
	Submit(userID string) bool
}

// OrchestratorResult es lo único que cruza hacia la capa web junto con la
// secuencia de fragmentos del compositor.
type OrchestratorResult struct {
	Profile domain.Profile `json:"profile"`
	Alerts  []domain.Alert `json:"alert"`
}

// OrchestratorService es el único punto de entrada del núcleo: secuencia
// evaluación → merge → refresh en background, y expone el historial de chat.
type OrchestratorService struct {
	profiles  *ProfileService
	evaluator answerEvaluator
	refresher refreshScheduler
	cat       *catalog.TraitCatalog
	logger    *zap.Logger
}

func NewOrchestratorService(
	profiles *ProfileService,
	evaluator answerEvaluator,
	refresher refreshScheduler,
	cat *catalog.TraitCatalog,
	logger *zap.Logger,
) *OrchestratorService {
	return &OrchestratorService{
		profiles:  profiles,
		evaluator: evaluator,
		refresher: refresher,
		cat:       cat,
		logger:    logger,
	}
}

// ProcessUserMessage maneja un mensaje entrante: carga o crea el perfil,
// persiste el mensaje, evalúa la respuesta contra el último turno del asesor
// y, si salió una observación válida, la fusiona y agenda un refresh de
// recomendaciones desacoplado. Errores de persistencia sí se propagan; los
// fallos del LLM ya llegan degradados desde el evaluador.
func (s *OrchestratorService) ProcessUserMessage(ctx context.Context, userID, userMessage string, conversationHistory []domain.ChatMessage) (OrchestratorResult, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if errors.Is(err, repository.ErrProfileNotFound) {
		profile, err = s.profiles.CreateProfile(ctx, userID)
	}
	if err != nil {
		return OrchestratorResult{}, err
	}

	userMsg := domain.ChatMessage{
		Role:      domain.RoleUser,
		Content:   userMessage,
		Timestamp: time.Now().UTC(),
		Alerts:    []domain.Alert{},
	}
	if err := s.profiles.AppendChatHistory(ctx, userID, userMsg); err != nil {
		return OrchestratorResult{}, err
	}

	alerts := []domain.Alert{}
	if strings.TrimSpace(userMessage) != "" {
		lastTurn := lastAssistantTurn(conversationHistory)
		obs, ok := s.evaluator.EvaluateAnswer(ctx, lastTurn, userMessage)
		if ok && obs.Trait != domain.TraitKeyUnknown && s.cat.Contains(obs.Trait) {
			updated, err := s.profiles.MergeTrait(ctx, userID, obs)
			if err != nil {
				return OrchestratorResult{}, err
			}
			profile = updated
			alerts = append(alerts, domain.Alert{
				Type:    domain.AlertProfileUpdate,
				Message: "Profile has been updated.",
			})
			s.logger.Info("trait merged",
				zap.String("user_id", userID),
				zap.String("trait", obs.Trait),
				zap.Float64("confidence", obs.Confidence),
			)
		} else {
			s.logger.Debug("no trait extracted", zap.String("user_id", userID))
		}
	}

	// El refresh corre desacoplado; su término no se espera en este request.
	if len(profile.Traits) > 0 && s.refresher != nil {
		s.refresher.Submit(userID)
	}

	return OrchestratorResult{Profile: profile, Alerts: alerts}, nil
}

// GetChatHistory devuelve el transcript persistido del usuario.
func (s *OrchestratorService) GetChatHistory(ctx context.Context, userID string) ([]domain.ChatMessage, error) {
	return s.profiles.GetChatHistory(ctx, userID)
}

// ClearChatHistory vacía el transcript persistido del usuario.
func (s *OrchestratorService) ClearChatHistory(ctx context.Context, userID string) error {
	return s.profiles.ClearChatHistory(ctx, userID)
}

// lastAssistantTurn busca el último turno del asesor en el historial provisto
// por el caller (no en el persistido).
func lastAssistantTurn(history []domain.ChatMessage) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == domain.RoleAssistant {
			return history[i].Content
		}
	}
	return ""
}
