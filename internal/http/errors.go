package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"preview-api/internal/domain"
	"preview-api/internal/service"
	"preview-api/internal/voice"
)

// Codigos estables que consume el frontend.
const (
	codeInvalidInput        = "C001"
	codeInternalServerError = "C002"
	codeUnauthorized        = "AUTH001"
	codeInvalidToken        = "AUTH002"
	codeForbidden           = "AUTH006"
	codeInterviewNotFound   = "I001"
	codeInvalidStatus       = "I002"
	codeConcurrentUpdate    = "I003"
	codeQuestionNotFound    = "Q001"
	codeAIUnavailable       = "AI001"
	codeSTTFailed           = "STT001"
	codeVoiceUnavailable    = "VOICE001"
)

type apiError struct {
	status  int
	code    string
	message string
}

func classifyError(err error) apiError {
	switch {
	case errors.Is(err, service.ErrQuestionNotFound):
		return apiError{http.StatusNotFound, codeQuestionNotFound, "question not found"}
	case errors.Is(err, domain.ErrNotFound):
		return apiError{http.StatusNotFound, codeInterviewNotFound, "interview not found"}
	case errors.Is(err, domain.ErrConcurrentModification), errors.Is(err, service.ErrLockTimeout):
		return apiError{http.StatusConflict, codeConcurrentUpdate, "interview was modified concurrently, retry"}
	case errors.Is(err, domain.ErrInvalidTransition):
		return apiError{http.StatusConflict, codeInvalidStatus, err.Error()}
	case errors.Is(err, domain.ErrValidationFailed):
		return apiError{http.StatusBadRequest, codeInvalidInput, err.Error()}
	case errors.Is(err, voice.ErrVoiceDisabled):
		return apiError{http.StatusServiceUnavailable, codeVoiceUnavailable, "voice server not configured or disabled"}
	case errors.Is(err, voice.ErrVoiceUnavailable), errors.Is(err, voice.ErrEmptyTranscript):
		return apiError{http.StatusServiceUnavailable, codeSTTFailed, "speech recognition failed"}
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return apiError{http.StatusServiceUnavailable, codeAIUnavailable, "ai service unavailable"}
	default:
		return apiError{http.StatusInternalServerError, codeInternalServerError, "internal server error"}
	}
}

// respondError escribe {"error","code"} y loguea los 5xx.
func respondError(c *gin.Context, logger *zap.Logger, op string, err error) {
	apiErr := classifyError(err)
	if apiErr.status >= http.StatusInternalServerError {
		logger.Error(op+" failed", zap.Error(err), zap.String("code", apiErr.code))
	} else {
		logger.Debug(op+" rejected", zap.Error(err), zap.String("code", apiErr.code))
	}
	c.JSON(apiErr.status, gin.H{"error": apiErr.message, "code": apiErr.code})
}

func respondInvalidRequest(c *gin.Context, logger *zap.Logger, op string, err error) {
	logger.Warn("invalid "+op+" request", zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "code": codeInvalidInput})
}
