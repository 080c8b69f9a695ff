package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studywat/internal/domain"
	"studywat/internal/repository"
	"studywat/internal/service"
)

const noRecommendationsMessage = "No recommendations available yet. Please check back later."

// ProfileHandler expone lecturas del perfil: rasgos y recomendaciones.
type ProfileHandler struct {
	logger   *zap.Logger
	profiles *service.ProfileService
}

func NewProfileHandler(logger *zap.Logger, profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{logger: logger, profiles: profiles}
}

// GetTraits maneja GET /profile/traits.
func (h *ProfileHandler) GetTraits(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	profile, err := h.profiles.GetProfile(c.Request.Context(), claims.UserID)
	if errors.Is(err, repository.ErrProfileNotFound) {
		c.JSON(http.StatusOK, gin.H{"traits": []domain.TraitObservation{}})
		return
	}
	if err != nil {
		h.logger.Error("get profile failed", zap.Error(err), zap.String("user_id", claims.UserID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not get profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"traits": profile.Traits})
}

// GetRecommendations maneja GET /recommendations. Si el refresher todavía no
// pobló la caché, devuelve un mensaje en lugar de la lista.
func (h *ProfileHandler) GetRecommendations(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	recs, err := h.profiles.GetCoursesRecommendation(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("get recommendations failed", zap.Error(err), zap.String("user_id", claims.UserID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not get recommendations"})
		return
	}
	if len(recs) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": noRecommendationsMessage})
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses_recommendation": recs})
}
