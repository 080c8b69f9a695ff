package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studywat/internal/domain"
	"studywat/internal/repository"
	"studywat/internal/service"
)

// memProfileRepo implementa repository.ProfileRepository en memoria para
// probar handlers sin base de datos.
type memProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*domain.Profile
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{profiles: make(map[string]*domain.Profile)}
}

func (r *memProfileRepo) GetByUserID(ctx context.Context, userID string) (domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return domain.Profile{}, repository.ErrProfileNotFound
	}
	return *p, nil
}

func (r *memProfileRepo) Create(ctx context.Context, profile domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := profile
	r.profiles[profile.UserID] = &copied
	return nil
}

func (r *memProfileRepo) AppendMessage(ctx context.Context, userID string, msg domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return repository.ErrProfileNotFound
	}
	p.ChatHistory = append(p.ChatHistory, msg)
	return nil
}

func (r *memProfileRepo) PushTrait(ctx context.Context, userID string, obs domain.TraitObservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return repository.ErrProfileNotFound
	}
	p.Traits = append(p.Traits, obs)
	return nil
}

func (r *memProfileRepo) SetRecommendations(ctx context.Context, userID string, recs []domain.RecommendationItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return repository.ErrProfileNotFound
	}
	p.CoursesRecommendation = recs
	return nil
}

func (r *memProfileRepo) ClearHistory(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return repository.ErrProfileNotFound
	}
	p.ChatHistory = []domain.ChatMessage{}
	return nil
}

func authHeaderFor(t *testing.T, jwtSvc *service.JWTService, userID string) string {
	t.Helper()
	pair, err := jwtSvc.GeneratePair(domain.User{ID: userID, Email: userID + "@example.com", CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	return "Bearer " + pair.AccessToken
}

func TestGetRecommendationsEmptyCache(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newMemProfileRepo()
	profiles := service.NewProfileService(repo)
	jwtSvc := service.NewJWTServiceWithStore("secret", 15*time.Minute, 30*time.Minute, service.NewMemoryRefreshTokenStore())
	h := NewProfileHandler(zap.NewNop(), profiles)

	r := gin.New()
	r.GET("/recommendations", JWTAuthMiddleware(jwtSvc), h.GetRecommendations)

	req := httptest.NewRequest(http.MethodGet, "/recommendations", nil)
	req.Header.Set("Authorization", authHeaderFor(t, jwtSvc, "u1"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] != noRecommendationsMessage {
		t.Fatalf("expected placeholder message, got %+v", body)
	}
}

func TestGetRecommendationsReturnsCachedList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newMemProfileRepo()
	profiles := service.NewProfileService(repo)
	jwtSvc := service.NewJWTServiceWithStore("secret", 15*time.Minute, 30*time.Minute, service.NewMemoryRefreshTokenStore())
	h := NewProfileHandler(zap.NewNop(), profiles)

	ctx := context.Background()
	if _, err := profiles.CreateProfile(ctx, "u1"); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	recs := []domain.RecommendationItem{{Course: "Computer Science", CourseFit: 1, MatchedTraits: []string{"curious"}, Reason: "fits"}}
	if err := profiles.UpdateCoursesRecommendation(ctx, "u1", recs); err != nil {
		t.Fatalf("seed recommendations: %v", err)
	}

	r := gin.New()
	r.GET("/recommendations", JWTAuthMiddleware(jwtSvc), h.GetRecommendations)

	req := httptest.NewRequest(http.MethodGet, "/recommendations", nil)
	req.Header.Set("Authorization", authHeaderFor(t, jwtSvc, "u1"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		CoursesRecommendation []domain.RecommendationItem `json:"courses_recommendation"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.CoursesRecommendation) != 1 || body.CoursesRecommendation[0].Course != "Computer Science" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestGetTraitsUnknownUserIsEmptyList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	profiles := service.NewProfileService(newMemProfileRepo())
	jwtSvc := service.NewJWTServiceWithStore("secret", 15*time.Minute, 30*time.Minute, service.NewMemoryRefreshTokenStore())
	h := NewProfileHandler(zap.NewNop(), profiles)

	r := gin.New()
	r.GET("/profile/traits", JWTAuthMiddleware(jwtSvc), h.GetTraits)

	req := httptest.NewRequest(http.MethodGet, "/profile/traits", nil)
	req.Header.Set("Authorization", authHeaderFor(t, jwtSvc, "ghost"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Traits []domain.TraitObservation `json:"traits"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Traits) != 0 {
		t.Fatalf("expected empty traits, got %+v", body.Traits)
	}
}
