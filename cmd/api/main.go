package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"preview-api/internal/config"
	"preview-api/internal/db"
	apihttp "preview-api/internal/http"
	"preview-api/internal/llm"
	"preview-api/internal/repository"
	"preview-api/internal/service"
	"preview-api/internal/voice"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var store repository.Store
	pool, err := db.NewPool(ctx, cfg)
	switch {
	case errors.Is(err, db.ErrDatabaseURLMissing):
		logger.Warn("database url not configured; using in-memory store")
		store = repository.NewMemoryStore()
	case err != nil:
		logger.Fatal("db connect", zap.Error(err))
	default:
		defer pool.Close()
		if err := db.Ping(ctx, pool); err != nil {
			logger.Fatal("db ping", zap.Error(err))
		}
		store = repository.NewPgStore(pool)
	}

	llmClient, closeLLM, err := llm.NewClient(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("llm client", zap.Error(err))
	}
	defer closeLLM()

	var (
		locker      service.InterviewLocker = service.NewKeyedMutex()
		cache       service.DashboardCache
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed; using local interview locks", zap.Error(err))
		} else {
			locker = service.NewRedisInterviewLocker(redisClient, cfg.InterviewLockTTL(), logger)
			cache = service.NewRedisDashboardCache(redisClient, cfg.StatsCacheTTL(), logger)
		}
		cancel()
	}

	bank, err := service.NewTemplateBank(nil)
	if err != nil {
		logger.Fatal("template bank", zap.Error(err))
	}

	agent := service.NewLLMAgent(llmClient, logger)
	orchestrator := service.NewQuestionOrchestrator(agent, bank, cfg.AgentTimeout(), logger)
	evaluator := service.NewAnswerEvaluator(agent, store, cfg.AgentTimeout(), logger)
	interviewSvc := service.NewInterviewService(store, orchestrator, agent, cfg.AgentTimeout(), cache, logger)
	submissionSvc := service.NewSubmissionService(store, evaluator, orchestrator, locker, cache, logger)
	statsSvc := service.NewStatisticsService(store.Interviews(), store.Answers(), cache, logger)

	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured; every request will be rejected")
	}
	jwtSvc := service.NewJWTService(cfg.JWTSecret, time.Hour)

	voiceEndpoint := voice.NewEndpoint(cfg.VoiceServiceURL, cfg.VoiceEnabled)
	voiceClient := voice.NewClient(voiceEndpoint, cfg.VoiceTimeout(), logger)

	router := apihttp.NewRouter(logger, cfg.CORSAllowedOrigins, jwtSvc, apihttp.Handlers{
		Interviews: apihttp.NewInterviewHandler(logger, interviewSvc, submissionSvc, voiceClient),
		Statistics: apihttp.NewStatisticsHandler(logger, statsSvc),
		VoiceAdmin: apihttp.NewVoiceAdminHandler(logger, voiceEndpoint, voiceClient),
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("llm_provider", cfg.LLMProvider))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
