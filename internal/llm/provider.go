package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"preview-api/internal/config"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// NewClient elige el proveedor segun LLM_PROVIDER. El closer es no-op para HTTP.
func NewClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (LLMClient, func() error, error) {
	switch cfg.LLMProvider {
	case ProviderGemini:
		client, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	case ProviderOpenAI, "":
		if cfg.LLMAPIKey == "" {
			logger.Warn("llm api key not configured; agent calls will fall back")
		}
		client := NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMFallbackModel, cfg.LLMTimeout(), logger)
		return client, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}
