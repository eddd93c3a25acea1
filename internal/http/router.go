package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"preview-api/internal/service"
)

// Handlers agrupa los handlers que monta el router.
type Handlers struct {
	Interviews *InterviewHandler
	Statistics *StatisticsHandler
	VoiceAdmin *VoiceAdminHandler
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(logger *zap.Logger, allowedOrigins []string, jwtSvc *service.JWTService, h Handlers) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery, CORS y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), corsMiddleware(allowedOrigins), jsonContentTypeMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("", JWTAuthMiddleware(jwtSvc))

	interviews := api.Group("/interviews")
	interviews.POST("", h.Interviews.CreateInterview)
	interviews.GET("", h.Interviews.ListInterviews)
	interviews.GET("/:id", h.Interviews.GetInterview)
	interviews.DELETE("/:id", h.Interviews.DeleteInterview)
	interviews.GET("/:id/questions", h.Interviews.ListQuestions)
	interviews.GET("/:id/result", h.Interviews.GetResult)
	interviews.POST("/:id/questions/:qid/answer", h.Interviews.SubmitAnswer)
	interviews.POST("/:id/questions/:qid/audio-answer", h.Interviews.SubmitAudioAnswer)

	stats := api.Group("/statistics")
	stats.GET("/dashboard", h.Statistics.Dashboard)
	stats.GET("/phases", h.Statistics.PhasePerformance)
	stats.GET("/trends", h.Statistics.ScoreTrend)
	stats.GET("/recent", h.Statistics.RecentInterviews)

	admin := api.Group("/admin", RequireAdmin())
	admin.GET("/voice-server", h.VoiceAdmin.GetVoiceServer)
	admin.PUT("/voice-server", h.VoiceAdmin.UpdateVoiceServer)

	return r
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
