package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"preview-api/internal/config"
	"preview-api/internal/db"
	"preview-api/internal/llm"
	"preview-api/internal/repository"
	"preview-api/internal/service"
)

const (
	storeMemory   = "memory"
	storePostgres = "postgres"
)

// app reune los servicios que usa la CLI; en la CLI no hay Redis, los locks son locales.
type app struct {
	logger      *zap.Logger
	interviews  *service.InterviewService
	submissions *service.SubmissionService
	stats       *service.StatisticsService
	closers     []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *config.Config, storeKind string, logger *zap.Logger) (*app, error) {
	a := &app{logger: logger}

	var store repository.Store
	switch storeKind {
	case storeMemory, "":
		store = repository.NewMemoryStore()
	case storePostgres:
		pool, err := openPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		store = repository.NewPgStore(pool)
	default:
		return nil, fmt.Errorf("unknown store %q", storeKind)
	}

	llmClient, closeLLM, err := llm.NewClient(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("llm client: %w", err)
	}
	a.closers = append(a.closers, func() { _ = closeLLM() })

	if err := a.wire(store, llmClient, cfg); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// wire arma los servicios sobre un store y un cliente LLM ya construidos.
func (a *app) wire(store repository.Store, llmClient llm.LLMClient, cfg *config.Config) error {
	bank, err := service.NewTemplateBank(nil)
	if err != nil {
		return fmt.Errorf("template bank: %w", err)
	}
	agent := service.NewLLMAgent(llmClient, a.logger)
	orchestrator := service.NewQuestionOrchestrator(agent, bank, cfg.AgentTimeout(), a.logger)
	evaluator := service.NewAnswerEvaluator(agent, store, cfg.AgentTimeout(), a.logger)
	a.interviews = service.NewInterviewService(store, orchestrator, agent, cfg.AgentTimeout(), nil, a.logger)
	a.submissions = service.NewSubmissionService(store, evaluator, orchestrator, nil, nil, a.logger)
	a.stats = service.NewStatisticsService(store.Interviews(), store.Answers(), nil, a.logger)
	return nil
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if err := db.Ping(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return pool, nil
}
