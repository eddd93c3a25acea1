package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"preview-api/internal/voice"
)

// VoiceAdminHandler permite a un admin cambiar el servidor STT sin reiniciar.
type VoiceAdminHandler struct {
	logger   *zap.Logger
	endpoint *voice.Endpoint
	client   *voice.Client
}

func NewVoiceAdminHandler(logger *zap.Logger, endpoint *voice.Endpoint, client *voice.Client) *VoiceAdminHandler {
	return &VoiceAdminHandler{logger: logger, endpoint: endpoint, client: client}
}

// GetVoiceServer maneja GET /admin/voice-server.
func (h *VoiceAdminHandler) GetVoiceServer(c *gin.Context) {
	c.JSON(http.StatusOK, h.client.Status(c.Request.Context()))
}

// UpdateVoiceServer maneja PUT /admin/voice-server. Campos ausentes no se tocan.
func (h *VoiceAdminHandler) UpdateVoiceServer(c *gin.Context) {
	var req struct {
		URL     *string `json:"url"`
		Enabled *bool   `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, h.logger, "update voice server", err)
		return
	}
	if err := h.endpoint.Update(req.URL, req.Enabled); err != nil {
		respondError(c, h.logger, "update voice server", err)
		return
	}

	url, enabled := h.endpoint.Get()
	claims, _ := GetAuthClaims(c)
	h.logger.Info("voice server updated",
		zap.String("admin_id", claims.MemberID),
		zap.String("url", url),
		zap.Bool("enabled", enabled),
	)
	c.JSON(http.StatusOK, h.client.Status(c.Request.Context()))
}
