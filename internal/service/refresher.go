package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"studywat/internal/domain"
)

// courseRecommender es lo que el refresher necesita del generador.
type courseRecommender interface {
	RecommendCourses(ctx context.Context, traits []domain.TraitObservation) []domain.RecommendationItem
}

// recommendationStore es lo que el refresher necesita del Profile Store.
type recommendationStore interface {
	GetProfile(ctx context.Context, userID string) (domain.Profile, error)
	UpdateCoursesRecommendation(ctx context.Context, userID string, recs []domain.RecommendationItem) error
}

// RefreshResult se emite al terminar cada refresh; útil para tests.
type RefreshResult struct {
	UserID   string
	Applied  bool
	NewCount int
	Err      error
}

// RecommendationRefresher ejecuta refrescos de recomendaciones como trabajos
// desacoplados del ciclo request/response: encolar nunca bloquea y los fallos
// se loguean y se tragan, porque el request que los disparó ya respondió.
// Dos refrescos solapados del mismo usuario pueden competir; gana el último
// escritor que cumpla la guarda de no-encogimiento.
type RecommendationRefresher struct {
	recommender courseRecommender
	store       recommendationStore
	logger      *zap.Logger

	queue      chan string
	wg         sync.WaitGroup
	cancel     context.CancelFunc
	jobTimeout time.Duration

	// OnResult se invoca (desde la goroutine worker) al completar cada
	// refresh. Puede ser nil.
	OnResult func(RefreshResult)
}

// RefresherConfig controla la cola y los workers del refresher.
type RefresherConfig struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

func DefaultRefresherConfig() RefresherConfig {
	return RefresherConfig{
		Workers:    1,
		QueueSize:  64,
		JobTimeout: 90 * time.Second,
	}
}

// NewRecommendationRefresher crea y arranca el pipeline de refresco.
// Llamar Stop() para apagar los workers.
func NewRecommendationRefresher(recommender courseRecommender, store recommendationStore, logger *zap.Logger, config ...RefresherConfig) *RecommendationRefresher {
	cfg := DefaultRefresherConfig()
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 90 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &RecommendationRefresher{
		recommender: recommender,
		store:       store,
		logger:      logger,
		queue:       make(chan string, cfg.QueueSize),
		cancel:      cancel,
		jobTimeout:  cfg.JobTimeout,
	}
	for i := 0; i < cfg.Workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx)
	}
	return r
}

// Submit encola un refresh para el usuario. No bloquea: si la cola está llena
// el trabajo se descarta (el próximo mensaje volverá a disparar uno).
func (r *RecommendationRefresher) Submit(userID string) bool {
	select {
	case r.queue <- userID:
		return true
	default:
		r.logger.Warn("refresh queue full, dropping job", zap.String("user_id", userID))
		return false
	}
}

// Stop apaga los workers. No drena la cola: los refrescos pendientes se
// pierden, lo cual es aceptable para un cache regenerable.
func (r *RecommendationRefresher) Stop() {
	r.cancel()
	r.wg.Wait()
}

func (r *RecommendationRefresher) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case userID := <-r.queue:
			result := r.refresh(ctx, userID)
			if result.Err != nil {
				r.logger.Warn("recommendation refresh failed",
					zap.String("user_id", userID),
					zap.Error(result.Err),
				)
			}
			if r.OnResult != nil {
				r.OnResult(result)
			}
		}
	}
}

// refresh calcula recomendaciones nuevas y reemplaza el cache solo si el lote
// nuevo no es más corto que el cacheado (guarda de no-encogimiento: una
// generación transitoriamente corta o vacía no pisa un buen resultado previo).
func (r *RecommendationRefresher) refresh(ctx context.Context, userID string) RefreshResult {
	ctx, cancel := context.WithTimeout(ctx, r.jobTimeout)
	defer cancel()

	profile, err := r.store.GetProfile(ctx, userID)
	if err != nil {
		return RefreshResult{UserID: userID, Err: err}
	}

	fresh := r.recommender.RecommendCourses(ctx, profile.Traits)
	if len(fresh) < len(profile.CoursesRecommendation) {
		r.logger.Info("recommendation refresh skipped by non-shrink guard",
			zap.String("user_id", userID),
			zap.Int("cached", len(profile.CoursesRecommendation)),
			zap.Int("fresh", len(fresh)),
		)
		return RefreshResult{UserID: userID, NewCount: len(fresh)}
	}

	if err := r.store.UpdateCoursesRecommendation(ctx, userID, fresh); err != nil {
		return RefreshResult{UserID: userID, NewCount: len(fresh), Err: err}
	}

	r.logger.Info("recommendations refreshed",
		zap.String("user_id", userID),
		zap.Int("count", len(fresh)),
	)
	return RefreshResult{UserID: userID, Applied: true, NewCount: len(fresh)}
}
