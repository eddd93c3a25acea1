package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LLMClient define la interfaz para generar respuestas con un LLM.
// Las respuestas se piden en modo JSON; el parseo queda del lado del caller.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

var ErrEmptyResponse = errors.New("llm empty response")

// StatusError expone el status HTTP devuelto por el proveedor.
type StatusError struct {
	StatusCode int
	Model      string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm http error: status=%d model=%s", e.StatusCode, e.Model)
}

// HTTPClient implementa LLMClient usando la API de OpenAI-compatible (OpenAI, Groq).
// Si el modelo primario falla y hay fallbackModel, se reintenta una vez con el fallback.
type HTTPClient struct {
	baseURL       string
	apiKey        string
	model         string
	fallbackModel string
	temperature   float64
	client        *http.Client
	logger        *zap.Logger
}

// NewHTTPClient construye un cliente HTTP apuntando a la API de chat completions.
func NewHTTPClient(baseURL, apiKey, model, fallbackModel string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		model:         model,
		fallbackModel: fallbackModel,
		temperature:   0.7,
		client:        &http.Client{Timeout: timeout},
		logger:        logger,
	}
}

func (c *HTTPClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	out, err := c.complete(ctx, c.model, systemPrompt, userPrompt)
	if err == nil {
		return out, nil
	}
	if c.fallbackModel == "" || c.fallbackModel == c.model || ctx.Err() != nil {
		return "", err
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
		c.logger.Warn("llm primary model rate limited, using fallback", zap.String("model", c.model), zap.String("fallback", c.fallbackModel))
	} else {
		c.logger.Warn("llm primary model failed, using fallback", zap.Error(err), zap.String("model", c.model), zap.String("fallback", c.fallbackModel))
	}
	return c.complete(ctx, c.fallbackModel, systemPrompt, userPrompt)
}

func (c *HTTPClient) complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	reqBody := chatRequest{
		Model:          model,
		Temperature:    c.temperature,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	if strings.TrimSpace(systemPrompt) != "" {
		reqBody.Messages = append(reqBody.Messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	reqBody.Messages = append(reqBody.Messages, chatMessage{Role: "user", Content: userPrompt})

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		c.logger.Debug("llm error response", zap.Int("status", resp.StatusCode), zap.String("body", string(respBody)))
		return "", &StatusError{StatusCode: resp.StatusCode, Model: model}
	}

	var cr chatResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if cr.Error != nil {
		return "", fmt.Errorf("llm api error: %s", cr.Error.Message)
	}

	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}

	return cr.Choices[0].Message.Content, nil
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
