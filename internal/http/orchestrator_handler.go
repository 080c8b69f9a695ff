package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studywat/internal/domain"
	"studywat/internal/repository"
	"studywat/internal/service"
)

// OrchestratorHandler mantiene dependencias para los endpoints del motor
// de conversación.
type OrchestratorHandler struct {
	logger       *zap.Logger
	orchestrator *service.OrchestratorService
	conversation *service.ConversationService
	profiles     *service.ProfileService
	rateLimiter  service.ChatRateLimiter
}

func NewOrchestratorHandler(
	logger *zap.Logger,
	orchestrator *service.OrchestratorService,
	conversation *service.ConversationService,
	profiles *service.ProfileService,
	rateLimiter service.ChatRateLimiter,
) *OrchestratorHandler {
	return &OrchestratorHandler{
		logger:       logger,
		orchestrator: orchestrator,
		conversation: conversation,
		profiles:     profiles,
		rateLimiter:  rateLimiter,
	}
}

type turnRequest struct {
	Message string `json:"message" binding:"required"`
	// Historial provisto por el cliente; si viene vacío se usa el persistido.
	ConversationHistory []domain.ChatMessage `json:"conversation_history"`
}

// StreamTurn maneja POST /orchestrator/stream-turn.
// Responde NDJSON: una primera línea con las alertas del turno y luego una
// línea por fragmento del asesor. Al terminar, el turno completo del asesor
// se persiste en el historial junto con sus alertas.
func (h *OrchestratorHandler) StreamTurn(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if h.rateLimiter != nil && !h.rateLimiter.Allow(claims.UserID) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many turns, slow down"})
		return
	}

	var req turnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid stream turn request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ctx := c.Request.Context()
	history := req.ConversationHistory
	if len(history) == 0 {
		persisted, err := h.orchestrator.GetChatHistory(ctx, claims.UserID)
		if err != nil {
			h.logger.Error("load history failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load history"})
			return
		}
		history = persisted
	}

	result, err := h.orchestrator.ProcessUserMessage(ctx, claims.UserID, req.Message, history)
	if err != nil {
		h.logger.Error("process message failed", zap.Error(err), zap.String("user_id", claims.UserID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process message"})
		return
	}

	c.Writer.Header().Set("Content-Type", "application/x-ndjson")
	c.Writer.WriteHeader(http.StatusOK)

	writeLine := func(v interface{}) bool {
		data, err := json.Marshal(v)
		if err != nil {
			return false
		}
		if _, err := c.Writer.Write(append(data, '\n')); err != nil {
			return false
		}
		c.Writer.Flush()
		return true
	}

	if !writeLine(gin.H{"alert": result.Alerts}) {
		return
	}

	// El historial que ve el compositor incluye el mensaje recién procesado.
	turnHistory := append(history, domain.ChatMessage{
		Role:      domain.RoleUser,
		Content:   req.Message,
		Timestamp: time.Now().UTC(),
		Alerts:    []domain.Alert{},
	})

	var sb strings.Builder
	for fragment := range h.conversation.StreamNextTurn(ctx, result.Profile, turnHistory) {
		sb.WriteString(fragment)
		if !writeLine(gin.H{"content": fragment}) {
			return
		}
	}

	assistantTurn := sb.String()
	if strings.TrimSpace(assistantTurn) == "" {
		return
	}
	msg := domain.ChatMessage{
		Role:      domain.RoleAssistant,
		Content:   assistantTurn,
		Timestamp: time.Now().UTC(),
		Alerts:    result.Alerts,
	}
	if err := h.profiles.AppendChatHistory(ctx, claims.UserID, msg); err != nil {
		h.logger.Error("persist assistant turn failed", zap.Error(err), zap.String("user_id", claims.UserID))
	}
}

// AlertInfo maneja POST /orchestrator/alert-info: procesa el mensaje sin
// componer el siguiente turno. Útil para clientes que solo quieren las
// alertas y el perfil actualizado.
func (h *OrchestratorHandler) AlertInfo(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req turnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid alert info request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.orchestrator.ProcessUserMessage(c.Request.Context(), claims.UserID, req.Message, req.ConversationHistory)
	if err != nil {
		h.logger.Error("process message failed", zap.Error(err), zap.String("user_id", claims.UserID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process message"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetHistory maneja GET /orchestrator/history.
func (h *OrchestratorHandler) GetHistory(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	history, err := h.orchestrator.GetChatHistory(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("get history failed", zap.Error(err), zap.String("user_id", claims.UserID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not get history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// ClearHistory maneja DELETE /orchestrator/history.
func (h *OrchestratorHandler) ClearHistory(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	err := h.orchestrator.ClearChatHistory(c.Request.Context(), claims.UserID)
	if err != nil && !errors.Is(err, repository.ErrProfileNotFound) {
		h.logger.Error("clear history failed", zap.Error(err), zap.String("user_id", claims.UserID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not clear history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "history cleared"})
}
