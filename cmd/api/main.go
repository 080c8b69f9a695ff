package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studywat/internal/catalog"
	"studywat/internal/config"
	"studywat/internal/db"
	apihttp "studywat/internal/http"
	"studywat/internal/llm"
	"studywat/internal/repository"
	"studywat/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	cat, err := catalog.LoadTraitCatalog(cfg.TraitsManifestPath)
	if err != nil {
		logger.Fatal("load traits manifest", zap.Error(err))
	}
	probes, err := catalog.LoadProbes(cfg.ProbesManifestPath)
	if err != nil {
		logger.Fatal("load probes manifest", zap.Error(err))
	}
	enhancements, err := catalog.LoadEnhancements(cfg.EnhancementsManifestPath)
	if err != nil {
		logger.Fatal("load enhancements manifest", zap.Error(err))
	}
	fields, err := catalog.LoadFieldsOfStudy(cfg.FieldsOfStudyPath)
	if err != nil {
		logger.Fatal("load fields of study", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(pool)
	profileRepo := repository.NewPgProfileRepository(pool)
	llmClient := llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)

	var (
		tokenStore  service.RefreshTokenStore
		rateLimiter service.ChatRateLimiter
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
			rateLimiter = service.NewRedisChatRateLimiter(redisClient, time.Minute, cfg.ChatRateLimitPerMinute)
		}
		cancel()
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	profileSvc := service.NewProfileService(profileRepo)
	userSvc := service.NewUserService(logger, userRepo)
	evalSvc := service.NewEvaluationService(llmClient, cat, logger)
	convSvc := service.NewConversationService(llmClient, cat, probes, enhancements, cfg.ConfidenceThreshold, logger)
	recSvc := service.NewRecommendationService(llmClient, fields, logger)
	refresher := service.NewRecommendationRefresher(recSvc, profileSvc, logger)
	orchSvc := service.NewOrchestratorService(profileSvc, evalSvc, refresher, cat, logger)

	userHandler := apihttp.NewUserHandler(logger, userSvc, jwtSvc)
	orchHandler := apihttp.NewOrchestratorHandler(logger, orchSvc, convSvc, profileSvc, rateLimiter)
	profileHandler := apihttp.NewProfileHandler(logger, profileSvc)
	router := apihttp.NewRouter(logger, jwtSvc, userHandler, orchHandler, profileHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctxShutdown, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	// El refresher drena sus trabajos en curso antes de salir.
	refresher.Stop()
}
